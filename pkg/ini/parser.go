package ini

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/thesabbir/phpmanager/pkg/util"
)

// maxLineLength bounds a single line; php.ini lines are short but some
// generated files carry long include_path values.
const maxLineLength = 1024 * 1024

// ExtensionFinder lists extension file names in dir
type ExtensionFinder func(dir string) ([]string, error)

// GlobExtensionFinder returns the php*.dll files in dir
func GlobExtensionFinder(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "php*.dll"))
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(matches))
	for _, match := range matches {
		names = append(names, filepath.Base(match))
	}
	return names, nil
}

// Load reads and parses the ini file at path, then adds every extension
// found in its extension_dir as a disabled extension. A nil finder scans the
// file system.
func Load(path string, finder ExtensionFinder) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &FileError{Path: path, Err: err}
	}
	defer f.Close()

	doc, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	doc.Path = path

	if finder == nil {
		finder = GlobExtensionFinder
	}
	doc.discoverExtensions(finder)

	return doc, nil
}

const utf8BOM = "\ufeff"

// Parse parses an ini document from a reader
func Parse(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read error: %w", err)
	}

	doc := NewDocument()
	doc.crlf = bytes.Contains(data, []byte("\r\n"))

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)

	section := ""
	for scanner.Scan() {
		var entry Entry
		entry, section = parseLine(scanner.Text(), section)
		doc.entries = append(doc.entries, entry)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanner error: %w", err)
	}

	return doc, nil
}

// parseLine classifies one line. section is the section in effect before the
// line; the returned section is the one in effect after it.
func parseLine(raw, section string) (Entry, string) {
	// A byte order mark is kept in the raw text but ignored for classification
	trimmed := strings.TrimSpace(strings.TrimPrefix(raw, utf8BOM))

	switch {
	case strings.HasPrefix(trimmed, ";"):
		return &Line{text: raw}, section
	case strings.HasPrefix(trimmed, "["):
		if end := strings.Index(trimmed[1:], "]"); end >= 0 {
			name := trimmed[1 : end+1]
			return &SectionHeader{Name: name, text: raw}, name
		}
	case trimmed == "":
		return &Line{text: raw}, section
	}

	name, value := splitDirective(trimmed)
	if strings.EqualFold(name, "extension") && value != "" {
		return &Extension{Name: util.Unquote(value), Enabled: true, text: raw}, section
	}

	return &Setting{Name: name, Value: value, Section: section, text: raw}, section
}

// splitDirective splits "name = value ; comment" on the first '='.
// Quoted values are kept verbatim, semicolons included.
func splitDirective(line string) (string, string) {
	name, value, found := strings.Cut(line, "=")
	if !found {
		return line, ""
	}

	name = strings.TrimSpace(name)
	value = strings.TrimSpace(value)

	if strings.HasPrefix(value, `"`) {
		// Drop a comment after the closing quote, nothing inside it
		if end := strings.Index(value[1:], `"`); end >= 0 {
			rest := strings.TrimSpace(value[end+2:])
			if strings.HasPrefix(rest, ";") {
				value = value[:end+2]
			}
		}
		return name, value
	}

	if idx := strings.Index(value, ";"); idx >= 0 {
		value = strings.TrimSpace(value[:idx])
	}

	return name, value
}

// discoverExtensions records extension files that exist on disk but are not
// referenced by an extension= line. Scan failures mean "nothing found".
func (d *Document) discoverExtensions(finder ExtensionFinder) {
	setting, ok := d.GetSetting("extension_dir")
	if !ok {
		return
	}

	dir := util.Unquote(setting.Value)
	if !util.IsAbsPath(dir) {
		dir = filepath.Join(filepath.Dir(d.Path), "ext")
	}

	names, err := finder(dir)
	if err != nil {
		return
	}

	for _, name := range names {
		if d.extensionIndex(name) >= 0 {
			continue
		}
		d.addAvailable(name)
	}
}
