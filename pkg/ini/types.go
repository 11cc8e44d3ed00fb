// Package ini models php.ini style files without losing their formatting.
//
// A Document keeps every line of the source in order. Settings and
// extension directives are additionally exposed as structured entries, so
// callers can look values up and change them while comments, blank lines and
// untouched directives are written back exactly as they were read.
package ini

import "fmt"

// Entry is a single line of a document
type Entry interface {
	Text() string
}

// Line is a line kept verbatim: a comment, a blank line or unparsed text
type Line struct {
	text string
}

// Text returns the line as written
func (l *Line) Text() string {
	return l.text
}

// SectionHeader is a "[Name]" line. Sections are positional: a header only
// sets the context for the settings that follow it.
type SectionHeader struct {
	Name string
	text string
}

// Text returns the header line
func (h *SectionHeader) Text() string {
	if h.text == "" {
		return "[" + h.Name + "]"
	}
	return h.text
}

// Setting is a "name = value" directive
type Setting struct {
	Name    string
	Value   string
	Section string
	text    string
}

// NewSetting creates a setting that is not yet part of any document
func NewSetting(name, value, section string) *Setting {
	return &Setting{
		Name:    name,
		Value:   value,
		Section: section,
	}
}

// Text returns the raw line. Settings read from a file keep their original
// text until their value changes.
func (s *Setting) Text() string {
	if s.text == "" {
		return s.format()
	}
	return s.text
}

// UpdateText regenerates the raw line from the current name and value
func (s *Setting) UpdateText() {
	s.text = s.format()
}

func (s *Setting) format() string {
	return fmt.Sprintf("%s = %s", s.Name, s.Value)
}

// Extension is an "extension=name" directive. Disabled extensions have no
// line in the document; they come from scanning the extension directory.
type Extension struct {
	Name    string
	Enabled bool
	text    string
}

// NewExtension creates an extension entry
func NewExtension(name string, enabled bool) *Extension {
	return &Extension{
		Name:    name,
		Enabled: enabled,
	}
}

// Text returns the directive line
func (e *Extension) Text() string {
	if e.text == "" {
		return "extension=" + e.Name
	}
	return e.text
}
