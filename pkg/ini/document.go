package ini

import (
	"strings"
)

// Document is an ini file held in memory line by line
type Document struct {
	// Path is the file the document was loaded from, used by Save("")
	Path string

	entries   []Entry
	available []string // extension files found on disk but not enabled
	crlf      bool
}

// NewDocument creates an empty document
func NewDocument() *Document {
	return &Document{
		entries: make([]Entry, 0),
	}
}

// Entries returns every line of the document in order
func (d *Document) Entries() []Entry {
	entries := make([]Entry, len(d.entries))
	copy(entries, d.entries)
	return entries
}

// GetSetting returns the first setting whose name matches, ignoring case.
// Duplicates are allowed in the file; only the first one is ever returned.
func (d *Document) GetSetting(name string) (*Setting, bool) {
	for _, e := range d.entries {
		if s, ok := e.(*Setting); ok && strings.EqualFold(s.Name, name) {
			return s, true
		}
	}
	return nil, false
}

// Settings returns all settings in document order
func (d *Document) Settings() []*Setting {
	settings := make([]*Setting, 0)
	for _, e := range d.entries {
		if s, ok := e.(*Setting); ok {
			settings = append(settings, s)
		}
	}
	return settings
}

// Sections returns the distinct section names in order of first appearance
func (d *Document) Sections() []string {
	sections := make([]string, 0)
	seen := make(map[string]bool)
	for _, e := range d.entries {
		h, ok := e.(*SectionHeader)
		if !ok {
			continue
		}
		key := strings.ToLower(h.Name)
		if !seen[key] {
			seen[key] = true
			sections = append(sections, h.Name)
		}
	}
	return sections
}

// AddOrUpdateSettings updates the first existing setting of each name, or
// inserts the setting into its section. It reports whether anything changed.
func (d *Document) AddOrUpdateSettings(settings ...*Setting) bool {
	changed := false
	for _, s := range settings {
		if d.addOrUpdate(s) {
			changed = true
		}
	}
	return changed
}

func (d *Document) addOrUpdate(s *Setting) bool {
	if existing, ok := d.GetSetting(s.Name); ok {
		if existing.Value == s.Value {
			return false
		}
		existing.Value = s.Value
		existing.UpdateText()
		return true
	}

	setting := NewSetting(s.Name, s.Value, s.Section)

	idx := d.insertionIndex(s.Section)
	if idx < 0 {
		d.entries = append(d.entries,
			&Line{},
			&SectionHeader{Name: s.Section},
			setting,
		)
		return true
	}

	d.insertAt(idx, setting)
	return true
}

// insertionIndex returns where a new setting of section belongs: after the
// section's last setting, else right after its header. -1 means the section
// does not exist yet.
func (d *Document) insertionIndex(section string) int {
	lastSetting, header, firstHeader := -1, -1, -1

	for i, e := range d.entries {
		switch v := e.(type) {
		case *Setting:
			if strings.EqualFold(v.Section, section) {
				lastSetting = i
			}
		case *SectionHeader:
			if firstHeader < 0 {
				firstHeader = i
			}
			if header < 0 && strings.EqualFold(v.Name, section) {
				header = i
			}
		}
	}

	switch {
	case lastSetting >= 0:
		return lastSetting + 1
	case header >= 0:
		return header + 1
	case section == "" && firstHeader >= 0:
		// Global settings go above the first section
		return firstHeader
	case section == "":
		return len(d.entries)
	}
	return -1
}

// Remove deletes a specific entry and reports whether it was present
func (d *Document) Remove(entry Entry) bool {
	for i, e := range d.entries {
		if e == entry {
			d.removeAt(i)
			return true
		}
	}
	return false
}

func (d *Document) insertAt(idx int, entry Entry) {
	d.entries = append(d.entries, nil)
	copy(d.entries[idx+1:], d.entries[idx:])
	d.entries[idx] = entry
}

func (d *Document) removeAt(idx int) {
	d.entries = append(d.entries[:idx], d.entries[idx+1:]...)
}
