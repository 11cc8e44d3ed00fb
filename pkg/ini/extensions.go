package ini

import (
	"strings"

	"github.com/thesabbir/phpmanager/pkg/util"
)

// Extensions returns enabled extensions in document order followed by the
// extensions found on disk that are not enabled
func (d *Document) Extensions() []*Extension {
	extensions := make([]*Extension, 0)
	for _, e := range d.entries {
		if ext, ok := e.(*Extension); ok {
			extensions = append(extensions, ext)
		}
	}

	for _, name := range d.available {
		if d.extensionIndex(name) < 0 {
			extensions = append(extensions, NewExtension(name, false))
		}
	}

	return extensions
}

// UpdateExtensions enables or disables extensions. Enabling appends a
// "[EXTNAME]" marker and the extension= line at the end of the document;
// disabling removes the line and the marker directly above it. Every name
// is checked before the document is touched.
func (d *Document) UpdateExtensions(extensions ...*Extension) (bool, error) {
	markers := make([]string, len(extensions))
	for i, ext := range extensions {
		if err := util.ValidateExtensionName(ext.Name); err != nil {
			return false, &ArgumentError{Name: "extension", Value: ext.Name, Reason: err.Error()}
		}
		marker, err := ExtensionMarker(ext.Name)
		if err != nil {
			return false, err
		}
		markers[i] = marker
	}

	changed := false
	for i, ext := range extensions {
		idx := d.extensionIndex(ext.Name)
		switch {
		case idx >= 0 && !ext.Enabled:
			name := d.entries[idx].(*Extension).Name
			d.removeAt(idx)
			if idx > 0 && d.isMarkerFor(idx-1, name, markers[i]) {
				d.removeAt(idx - 1)
			}
			d.addAvailable(name)
			changed = true

		case idx < 0 && ext.Enabled:
			d.entries = append(d.entries,
				&SectionHeader{Name: markers[i]},
				NewExtension(ext.Name, true),
			)
			changed = true
		}
	}

	return changed, nil
}

// isMarkerFor reports whether the entry at idx is the marker written for the
// extension line name. The requested name may be a short form of it, so its
// marker matches too.
func (d *Document) isMarkerFor(idx int, name, requested string) bool {
	text := strings.TrimSpace(d.entries[idx].Text())
	if marker, err := ExtensionMarker(name); err == nil && strings.EqualFold(text, "["+marker+"]") {
		return true
	}
	return strings.EqualFold(text, "["+requested+"]")
}

// ExtensionMarker returns the section marker written above an enabled
// extension: the upper-cased file name without its extension
func ExtensionMarker(name string) (string, error) {
	base := util.BaseOf(util.Unquote(name))
	if idx := strings.LastIndex(base, "."); idx >= 0 {
		base = base[:idx]
	}

	if base == "" {
		return "", &ArgumentError{Name: "extension", Value: name, Reason: "cannot derive file name"}
	}

	return strings.ToUpper(base), nil
}

// extensionIndex returns the index of the extension= line for name, or -1
func (d *Document) extensionIndex(name string) int {
	for i, e := range d.entries {
		if ext, ok := e.(*Extension); ok && sameExtension(ext.Name, name) {
			return i
		}
	}
	return -1
}

func (d *Document) addAvailable(name string) {
	for _, existing := range d.available {
		if sameExtension(existing, name) {
			return
		}
	}
	d.available = append(d.available, name)
}

// sameExtension compares extension references by file name. Short names
// such as "curl" refer to php_curl.dll.
func sameExtension(a, b string) bool {
	return canonicalExtension(a) == canonicalExtension(b)
}

func canonicalExtension(name string) string {
	base := strings.ToLower(util.BaseOf(util.Unquote(name)))
	if base != "" && !strings.Contains(base, ".") {
		if !strings.HasPrefix(base, "php_") {
			base = "php_" + base
		}
		base += ".dll"
	}
	return base
}
