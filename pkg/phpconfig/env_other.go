//go:build !windows

package phpconfig

// There is no registry outside Windows
func lookupRegistry(path, name string) (string, bool) {
	return "", false
}

// Version resources only exist in PE files
func productVersion(executable string) string {
	return ""
}
