package util

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	driveRe       = regexp.MustCompile(`^[a-zA-Z]:`)
	settingNameRe = regexp.MustCompile(`^[a-zA-Z0-9_.\-\[\]]+$`)
)

// ValidateSettingName validates a php.ini directive name
// Names can only contain alphanumeric, dot, dash, underscore and brackets
func ValidateSettingName(name string) error {
	if name == "" {
		return fmt.Errorf("setting name cannot be empty")
	}

	if len(name) > 128 {
		return fmt.Errorf("setting name too long (max 128 chars): %s", name)
	}

	if !settingNameRe.MatchString(name) {
		return fmt.Errorf("invalid setting name: %s", name)
	}

	return nil
}

// ValidateSectionName validates an ini section name
func ValidateSectionName(name string) error {
	if strings.ContainsAny(name, "[]\r\n") {
		return fmt.Errorf("invalid section name: %s", name)
	}
	return nil
}

// ValidateExtensionName rejects extension names that would not stay a single
// extension= line
func ValidateExtensionName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("extension name cannot be empty")
	}
	if strings.ContainsAny(name, "\r\n[]=;") {
		return fmt.Errorf("invalid extension name: %q", name)
	}
	return nil
}

// ValidateSettingValue rejects values that would break the line structure
func ValidateSettingValue(value string) error {
	if strings.ContainsAny(value, "\r\n") {
		return fmt.Errorf("setting value cannot contain line breaks")
	}
	return nil
}

// Unquote strips one pair of surrounding double quotes and whitespace
func Unquote(value string) string {
	value = strings.TrimSpace(value)
	if len(value) >= 2 && strings.HasPrefix(value, `"`) && strings.HasSuffix(value, `"`) {
		return value[1 : len(value)-1]
	}
	return value
}

// IsAbsPath reports whether p is absolute in either Windows or Unix form.
// "C:\php", "C:/php", "\\server\share" and "/opt/php" are all absolute.
func IsAbsPath(p string) bool {
	if p == "" {
		return false
	}
	if strings.HasPrefix(p, "/") || strings.HasPrefix(p, `\\`) {
		return true
	}
	return len(p) >= 3 && driveRe.MatchString(p) && isSeparator(p[2])
}

// Separator returns the separator style used by p
func Separator(p string) string {
	if strings.Contains(p, `\`) || driveRe.MatchString(p) {
		return `\`
	}
	return "/"
}

// NormalizePath rewrites every separator in p to the style p already uses
func NormalizePath(p string) string {
	if Separator(p) == `\` {
		return strings.ReplaceAll(p, "/", `\`)
	}
	return p
}

// JoinPath joins elements onto dir using dir's separator style
func JoinPath(dir string, elems ...string) string {
	sep := Separator(dir)
	result := strings.TrimRight(NormalizePath(dir), `\/`)
	for _, elem := range elems {
		elem = strings.Trim(elem, `\/`)
		if elem == "" {
			continue
		}
		result += sep + elem
	}
	return result
}

// EnsureTrailingSeparator appends a separator to p unless it already ends with one
func EnsureTrailingSeparator(p string) string {
	p = NormalizePath(p)
	if p == "" || isSeparator(p[len(p)-1]) {
		return p
	}
	return p + Separator(p)
}

// DirOf returns the directory containing p
func DirOf(p string) (string, error) {
	trimmed := strings.TrimRight(p, `\/`)
	idx := strings.LastIndexAny(trimmed, `\/`)
	if trimmed == "" || idx < 0 {
		return "", fmt.Errorf("cannot derive directory from path: %q", p)
	}

	dir := trimmed[:idx]
	switch {
	case dir == "":
		// Unix root
		return trimmed[:1], nil
	case len(dir) == 2 && driveRe.MatchString(dir):
		// Drive root keeps its separator
		return trimmed[:3], nil
	}
	return dir, nil
}

// BaseOf returns the last element of p
func BaseOf(p string) string {
	trimmed := strings.TrimRight(p, `\/`)
	if idx := strings.LastIndexAny(trimmed, `\/`); idx >= 0 {
		return trimmed[idx+1:]
	}
	return trimmed
}

// SamePath compares two paths ignoring case, separator style and trailing separators
func SamePath(a, b string) bool {
	clean := func(p string) string {
		p = strings.ReplaceAll(strings.TrimSpace(p), `\`, "/")
		if len(p) > 1 {
			p = strings.TrimRight(p, "/")
		}
		return p
	}
	return strings.EqualFold(clean(a), clean(b))
}

func isSeparator(c byte) bool {
	return c == '\\' || c == '/'
}
