package util

import (
	"io"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsAbsPath(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{`C:\PHP`, true},
		{`c:/php/ext`, true},
		{`\\server\share\php`, true},
		{"/opt/php", true},
		{`php\ext`, false},
		{"C:", false},
		{`C:php`, false},
		{"", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, IsAbsPath(tt.path), tt.path)
	}
}

func TestJoinPath(t *testing.T) {
	assert.Equal(t, `C:\PHP\ext`, JoinPath(`C:\PHP\`, "ext"))
	assert.Equal(t, `C:\PHP\ext`, JoinPath(`C:/PHP`, "ext"))
	assert.Equal(t, `C:\Windows\Temp\PHP_errors.log`, JoinPath(`C:\Windows\Temp`, "", "PHP_errors.log"))
	assert.Equal(t, "/opt/php/ext", JoinPath("/opt/php", "/ext/"))
}

func TestEnsureTrailingSeparator(t *testing.T) {
	assert.Equal(t, `C:\PHP\`, EnsureTrailingSeparator(`C:\PHP`))
	assert.Equal(t, `C:\PHP\`, EnsureTrailingSeparator(`C:/PHP/`))
	assert.Equal(t, "/tmp/", EnsureTrailingSeparator("/tmp/"))
	assert.Equal(t, "", EnsureTrailingSeparator(""))
}

func TestDirOfAndBaseOf(t *testing.T) {
	tests := []struct {
		path, dir, base string
	}{
		{`C:\PHP\php-cgi.exe`, `C:\PHP`, "php-cgi.exe"},
		{`C:\php-cgi.exe`, `C:\`, "php-cgi.exe"},
		{"/usr/bin/php-cgi", "/usr/bin", "php-cgi"},
		{"/php-cgi", "/", "php-cgi"},
		{`C:\PHP\ext\`, `C:\PHP`, "ext"},
	}

	for _, tt := range tests {
		dir, err := DirOf(tt.path)
		require.NoError(t, err, tt.path)
		assert.Equal(t, tt.dir, dir, tt.path)
		assert.Equal(t, tt.base, BaseOf(tt.path), tt.path)
	}

	_, err := DirOf("php-cgi.exe")
	assert.Error(t, err)
	_, err = DirOf("")
	assert.Error(t, err)
}

func TestSamePath(t *testing.T) {
	assert.True(t, SamePath(`C:\PHP\`, "c:/php"))
	assert.True(t, SamePath(` C:\PHP\php.ini `, `c:\php\PHP.INI`))
	assert.True(t, SamePath("/", "/"))
	assert.False(t, SamePath(`C:\PHP`, `C:\PHP5`))
}

func TestValidation(t *testing.T) {
	for _, name := range []string{"memory_limit", "session.save_path", "mbstring.func_overload", "opcache.blacklist_filename"} {
		assert.NoError(t, ValidateSettingName(name), name)
	}
	for _, name := range []string{"", "bad name", "a=b", strings.Repeat("x", 129)} {
		assert.Error(t, ValidateSettingName(name), name)
	}

	assert.NoError(t, ValidateSettingValue(`"C:\Program Files\PHP"`))
	assert.Error(t, ValidateSettingValue("a\nb"))

	for _, name := range []string{"php_curl.dll", "curl", `C:\PHP\ext\php_gd2.dll`, `"php_intl.dll"`} {
		assert.NoError(t, ValidateExtensionName(name), name)
	}
	for _, name := range []string{"", " ", "php_x.dll\nallow_url_include = On", "php_x.dll\r", "[PHP]", "a=b", "php_x.dll ; on"} {
		assert.Error(t, ValidateExtensionName(name), name)
	}

	assert.NoError(t, ValidateSectionName("Date"))
	assert.NoError(t, ValidateSectionName(""))
	assert.Error(t, ValidateSectionName("a]b"))
}

func TestUnquote(t *testing.T) {
	assert.Equal(t, `C:\PHP`, Unquote(` "C:\PHP" `))
	assert.Equal(t, "On", Unquote("On"))
	assert.Equal(t, `"`, Unquote(`"`))
	assert.Equal(t, "", Unquote(`""`))
}

func TestWriteFileAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "php.ini")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0600))

	err := WriteFileAtomic(path, 0644, func(w io.Writer) error {
		_, err := io.WriteString(w, "new")
		return err
	})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	}

	// A failing writer leaves the file alone and no temp files behind
	err = WriteFileAtomic(path, 0644, func(w io.Writer) error {
		return os.ErrInvalid
	})
	require.ErrorIs(t, err, os.ErrInvalid)

	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestCopyFileAtomic(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.ini")
	dst := filepath.Join(dir, "dst.ini")
	require.NoError(t, os.WriteFile(src, []byte("[PHP]\n"), 0644))

	require.NoError(t, CopyFileAtomic(src, dst))
	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "[PHP]\n", string(data))

	assert.True(t, FileExists(dst))
	assert.False(t, FileExists(dir))
	assert.True(t, DirExists(dir))
	assert.False(t, DirExists(dst))

	assert.Error(t, CopyFileAtomic(filepath.Join(dir, "missing.ini"), dst))
}

func TestGenerateUniqueID(t *testing.T) {
	assert.Regexp(t, regexp.MustCompile(`^\d{8}-\d{6}-\d{3}-[0-9a-f]{4}$`), GenerateUniqueID())
}
