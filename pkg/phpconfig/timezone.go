package phpconfig

import (
	"time"
)

// DefaultTimezone is suggested when the offset is not in the table
const DefaultTimezone = "Europe/Dublin"

// timezones maps a standard UTC offset in minutes to a zone
var timezones = []struct {
	offset int
	zone   string
}{
	{-720, "Pacific/Kwajalein"},
	{-660, "Pacific/Midway"},
	{-600, "Pacific/Honolulu"},
	{-540, "America/Anchorage"},
	{-480, "America/Los_Angeles"},
	{-420, "America/Denver"},
	{-360, "America/Chicago"},
	{-300, "America/New_York"},
	{-240, "America/Halifax"},
	{-210, "America/St_Johns"},
	{-180, "America/Sao_Paulo"},
	{-120, "Atlantic/South_Georgia"},
	{-60, "Atlantic/Azores"},
	{0, "Europe/London"},
	{60, "Europe/Paris"},
	{120, "Europe/Minsk"},
	{180, "Europe/Moscow"},
	{210, "Asia/Tehran"},
	{240, "Asia/Dubai"},
	{270, "Asia/Kabul"},
	{300, "Asia/Karachi"},
	{330, "Asia/Kolkata"},
	{345, "Asia/Kathmandu"},
	{360, "Asia/Dhaka"},
	{390, "Asia/Yangon"},
	{420, "Asia/Bangkok"},
	{480, "Asia/Shanghai"},
	{540, "Asia/Tokyo"},
	{570, "Australia/Darwin"},
	{600, "Australia/Sydney"},
	{660, "Pacific/Noumea"},
	{720, "Pacific/Auckland"},
	{780, "Pacific/Tongatapu"},
}

// SuggestTimezone picks a date.timezone value for the zone of now. The
// offset is taken without daylight saving so summer and winter agree.
func SuggestTimezone(now time.Time) string {
	_, offset := now.Zone()
	minutes := (offset - dstDelta(now)) / 60

	for _, tz := range timezones {
		if tz.offset == minutes {
			return tz.zone
		}
	}
	return DefaultTimezone
}

// dstDelta returns how far, in seconds, now is ahead of the standard offset
// of its location. Standard time is the smaller of the January and July
// offsets, which holds in both hemispheres.
func dstDelta(now time.Time) int {
	loc := now.Location()
	_, jan := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, loc).Zone()
	_, jul := time.Date(now.Year(), time.July, 1, 0, 0, 0, 0, loc).Zone()
	_, current := now.Zone()

	return current - min(jan, jul)
}
