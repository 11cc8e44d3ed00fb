package phpconfig

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuggestTimezone(t *testing.T) {
	fixed := func(minutes int) time.Time {
		return time.Date(2024, time.March, 10, 12, 0, 0, 0, time.FixedZone("", minutes*60))
	}

	assert.Equal(t, "Europe/Minsk", SuggestTimezone(fixed(120)))
	assert.Equal(t, "Europe/London", SuggestTimezone(fixed(0)))
	assert.Equal(t, "Asia/Kolkata", SuggestTimezone(fixed(330)))
	assert.Equal(t, "America/New_York", SuggestTimezone(fixed(-300)))

	// Offsets missing from the table fall back
	assert.Equal(t, DefaultTimezone, SuggestTimezone(fixed(45)))
}

func TestSuggestTimezoneIgnoresDST(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	winter := time.Date(2024, time.January, 15, 12, 0, 0, 0, berlin)
	summer := time.Date(2024, time.July, 15, 12, 0, 0, 0, berlin)
	assert.Equal(t, "Europe/Paris", SuggestTimezone(winter))
	assert.Equal(t, "Europe/Paris", SuggestTimezone(summer))

	// Southern hemisphere summer is in January
	sydney, err := time.LoadLocation("Australia/Sydney")
	require.NoError(t, err)
	assert.Equal(t, "Australia/Sydney", SuggestTimezone(time.Date(2024, time.January, 15, 12, 0, 0, 0, sydney)))
}

func TestExpandEnv(t *testing.T) {
	env := &fakeEnv{vars: map[string]string{"WINDIR": `C:\Windows`}}

	assert.Equal(t, `C:\Windows\Temp`, expandEnv(env, `%WINDIR%\Temp`))
	assert.Equal(t, `%UNKNOWN%\x`, expandEnv(env, `%UNKNOWN%\x`))
	assert.Equal(t, `50%`, expandEnv(env, `50%`))
	assert.Equal(t, "8.2", majorMinor("8.2.12.0"))
	assert.Equal(t, "", majorMinor("8"))
}
