package ini

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleIni = `[PHP]
; Maximum execution time of each script, in seconds
max_execution_time = 30   ; seconds
memory_limit = 128M

error_reporting = E_ALL & ~E_DEPRECATED
include_path = ".;C:\php\includes"
short_open_tag

[Date]
;date.timezone =

[PHP_CURL]
extension=php_curl.dll
extension = "php_mbstring.dll" ; multibyte
`

func TestParse(t *testing.T) {
	doc, err := Parse(strings.NewReader(sampleIni))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	if got := len(doc.Entries()); got != 15 {
		t.Errorf("Expected 15 entries, got %d", got)
	}

	s, ok := doc.GetSetting("max_execution_time")
	if !ok {
		t.Fatal("max_execution_time not found")
	}
	if s.Value != "30" {
		t.Errorf("Expected value '30', got '%s'", s.Value)
	}
	if s.Section != "PHP" {
		t.Errorf("Expected section 'PHP', got '%s'", s.Section)
	}

	// Quoted values keep their semicolons
	s, ok = doc.GetSetting("include_path")
	if !ok {
		t.Fatal("include_path not found")
	}
	if s.Value != `".;C:\php\includes"` {
		t.Errorf("Unexpected include_path value: %s", s.Value)
	}

	// A bare name is a setting with an empty value
	s, ok = doc.GetSetting("short_open_tag")
	if !ok || s.Value != "" {
		t.Errorf("Expected bare short_open_tag setting, got %+v", s)
	}

	// Commented out directives are not settings
	if _, ok := doc.GetSetting("date.timezone"); ok {
		t.Error("Commented date.timezone should not be a setting")
	}

	exts := doc.Extensions()
	if len(exts) != 2 {
		t.Fatalf("Expected 2 extensions, got %d", len(exts))
	}
	if exts[0].Name != "php_curl.dll" || !exts[0].Enabled {
		t.Errorf("Unexpected first extension: %+v", exts[0])
	}
	if exts[1].Name != "php_mbstring.dll" {
		t.Errorf("Expected unquoted extension name, got %s", exts[1].Name)
	}

	sections := doc.Sections()
	if len(sections) != 3 || sections[0] != "PHP" || sections[2] != "PHP_CURL" {
		t.Errorf("Unexpected sections: %v", sections)
	}
}

func TestGetSettingIgnoresCase(t *testing.T) {
	doc, err := Parse(strings.NewReader("[PHP]\nlog_errors = On\n"))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	s, ok := doc.GetSetting("Log_Errors")
	if !ok {
		t.Fatal("Log_Errors not found")
	}
	if s.Value != "On" {
		t.Errorf("Expected 'On', got '%s'", s.Value)
	}
}

func TestDuplicateSettingsFirstWins(t *testing.T) {
	input := "[PHP]\nmemory_limit = 128M\n[Other]\nmemory_limit = 256M\n"
	doc, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	s, _ := doc.GetSetting("memory_limit")
	if s.Value != "128M" {
		t.Errorf("Expected first occurrence, got %s", s.Value)
	}

	doc.AddOrUpdateSettings(NewSetting("memory_limit", "512M", "Other"))

	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo error: %v", err)
	}
	want := "[PHP]\nmemory_limit = 512M\n[Other]\nmemory_limit = 256M\n"
	if buf.String() != want {
		t.Errorf("Unexpected output:\n%s", buf.String())
	}
}

func TestRoundTrip(t *testing.T) {
	inputs := map[string]string{
		"lf":   sampleIni,
		"crlf": strings.ReplaceAll(sampleIni, "\n", "\r\n"),
	}

	for name, input := range inputs {
		t.Run(name, func(t *testing.T) {
			doc, err := Parse(strings.NewReader(input))
			if err != nil {
				t.Fatalf("Parse error: %v", err)
			}

			var buf bytes.Buffer
			if _, err := doc.WriteTo(&buf); err != nil {
				t.Fatalf("WriteTo error: %v", err)
			}

			if buf.String() != input {
				t.Errorf("Round trip mismatch:\n%q\n%q", input, buf.String())
			}
		})
	}
}

func TestParseWithByteOrderMark(t *testing.T) {
	input := "\ufeff[PHP]\nmemory_limit = 128M\n"
	doc := mustParse(t, input)

	sections := doc.Sections()
	if len(sections) != 1 || sections[0] != "PHP" {
		t.Fatalf("Expected sections [PHP], got %v", sections)
	}

	s, ok := doc.GetSetting("memory_limit")
	if !ok {
		t.Fatal("memory_limit not found")
	}
	if s.Section != "PHP" {
		t.Errorf("Expected section 'PHP', got '%s'", s.Section)
	}

	// The mark survives the round trip
	if got := render(t, doc); got != input {
		t.Errorf("Round trip mismatch: %q", got)
	}

	// New settings join the existing section instead of a second [PHP]
	doc.AddOrUpdateSettings(NewSetting("max_execution_time", "60", "PHP"))
	want := "\ufeff[PHP]\nmemory_limit = 128M\nmax_execution_time = 60\n"
	if got := render(t, doc); got != want {
		t.Errorf("Unexpected output:\n%q", got)
	}
}

func TestQuotedValueRoundTrip(t *testing.T) {
	input := "[PHP]\nsession.save_path = \"C:\\path;with;semicolons\"\n"
	doc, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	s, _ := doc.GetSetting("session.save_path")
	if s.Value != `"C:\path;with;semicolons"` {
		t.Errorf("Quoted value was truncated: %s", s.Value)
	}

	var buf bytes.Buffer
	doc.WriteTo(&buf)
	if buf.String() != input {
		t.Errorf("Round trip mismatch: %q", buf.String())
	}
}

func TestLoadAndSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "php.ini")
	if err := os.WriteFile(path, []byte(sampleIni), 0644); err != nil {
		t.Fatal(err)
	}

	doc, err := Load(path, func(string) ([]string, error) { return nil, nil })
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if err := doc.Save(""); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != sampleIni {
		t.Errorf("Saved file differs from original:\n%s", data)
	}

	// No leftover temp files
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("Expected only php.ini in dir, got %d entries", len(entries))
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.ini"), nil)

	var fileErr *FileError
	if !errors.As(err, &fileErr) {
		t.Fatalf("Expected FileError, got %v", err)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Expected not-exist cause, got %v", err)
	}
}

func TestLoadDiscoversExtensions(t *testing.T) {
	dir := t.TempDir()
	extDir := filepath.Join(dir, "ext")
	if err := os.Mkdir(extDir, 0755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"php_curl.dll", "php_gd2.dll", "php_intl.dll", "readme.txt"} {
		if err := os.WriteFile(filepath.Join(extDir, name), nil, 0644); err != nil {
			t.Fatal(err)
		}
	}

	path := filepath.Join(dir, "php.ini")
	content := "[PHP]\nextension_dir = \"ext\"\nextension=php_curl.dll\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	doc, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	exts := doc.Extensions()
	if len(exts) != 3 {
		t.Fatalf("Expected 3 extensions, got %d: %v", len(exts), exts)
	}

	enabled := 0
	for _, ext := range exts {
		if ext.Enabled {
			enabled++
		}
	}
	if enabled != 1 {
		t.Errorf("Expected 1 enabled extension, got %d", enabled)
	}

	// Discovered extensions are never written back
	var buf bytes.Buffer
	doc.WriteTo(&buf)
	if buf.String() != content {
		t.Errorf("Discovered extensions leaked into output:\n%s", buf.String())
	}
}

func TestLoadMissingExtensionDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "php.ini")
	if err := os.WriteFile(path, []byte("extension_dir = \"C:\\nowhere\\ext\"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	failing := func(string) ([]string, error) { return nil, fs.ErrNotExist }
	doc, err := Load(path, failing)
	if err != nil {
		t.Fatalf("Load should tolerate a missing extension dir: %v", err)
	}
	if len(doc.Extensions()) != 0 {
		t.Errorf("Expected no extensions, got %d", len(doc.Extensions()))
	}
}
