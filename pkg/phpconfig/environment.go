package phpconfig

import (
	"os"
	"strings"
	"time"

	"github.com/thesabbir/phpmanager/pkg/util"
)

// Environment is the machine state the reconciler reads: environment
// variables, the registry, the file system and the clock
type Environment interface {
	Getenv(name string) string

	// LookupRegistry reads a string value below HKEY_LOCAL_MACHINE
	LookupRegistry(path, name string) (string, bool)

	// ProductVersion returns the version resource of an executable, or ""
	ProductVersion(executable string) string

	FileExists(path string) bool
	DirExists(path string) bool

	// TempDir is where default log and session files are suggested
	TempDir() string

	Now() time.Time
}

// OSEnvironment reads the real machine
type OSEnvironment struct{}

// Getenv returns the process environment variable
func (OSEnvironment) Getenv(name string) string {
	return os.Getenv(name)
}

// LookupRegistry reads HKLM\path\name; it always fails off Windows
func (OSEnvironment) LookupRegistry(path, name string) (string, bool) {
	return lookupRegistry(path, name)
}

// ProductVersion reads the executable's version resource
func (OSEnvironment) ProductVersion(executable string) string {
	return productVersion(executable)
}

// FileExists reports whether path is a regular file
func (OSEnvironment) FileExists(path string) bool {
	return util.FileExists(path)
}

// DirExists reports whether path is a directory
func (OSEnvironment) DirExists(path string) bool {
	return util.DirExists(path)
}

// TempDir returns %WINDIR%\Temp when WINDIR is set
func (e OSEnvironment) TempDir() string {
	if windir := e.Getenv("WINDIR"); windir != "" {
		return util.JoinPath(windir, "Temp")
	}
	return os.TempDir()
}

// Now returns the local time
func (OSEnvironment) Now() time.Time {
	return time.Now()
}

// expandEnv replaces %NAME% references using env
func expandEnv(env Environment, value string) string {
	var b strings.Builder
	for {
		start := strings.Index(value, "%")
		if start < 0 {
			break
		}
		end := strings.Index(value[start+1:], "%")
		if end < 0 {
			break
		}
		end += start + 1

		name := value[start+1 : end]
		b.WriteString(value[:start])
		if v := env.Getenv(name); name != "" && v != "" {
			b.WriteString(v)
		} else {
			b.WriteString(value[start : end+1])
		}
		value = value[end+1:]
	}
	b.WriteString(value)
	return b.String()
}

// majorMinor trims a version such as "8.2.12.0" to "8.2"
func majorMinor(version string) string {
	parts := strings.SplitN(version, ".", 3)
	if len(parts) < 2 {
		return ""
	}
	return parts[0] + "." + parts[1]
}
