//go:build windows

package phpconfig

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/registry"
)

func lookupRegistry(path, name string) (string, bool) {
	key, err := registry.OpenKey(registry.LOCAL_MACHINE, path, registry.QUERY_VALUE)
	if err != nil {
		return "", false
	}
	defer key.Close()

	value, _, err := key.GetStringValue(name)
	if err != nil {
		return "", false
	}
	return value, true
}

func productVersion(executable string) string {
	size, err := windows.GetFileVersionInfoSize(executable, nil)
	if err != nil || size == 0 {
		return ""
	}

	buf := make([]byte, size)
	if err := windows.GetFileVersionInfo(executable, 0, size, unsafe.Pointer(&buf[0])); err != nil {
		return ""
	}

	var info *windows.VS_FIXEDFILEINFO
	var length uint32
	if err := windows.VerQueryValue(unsafe.Pointer(&buf[0]), `\`, unsafe.Pointer(&info), &length); err != nil {
		return ""
	}
	if info == nil || length == 0 {
		return ""
	}

	return fmt.Sprintf("%d.%d.%d",
		info.ProductVersionMS>>16,
		info.ProductVersionMS&0xffff,
		info.ProductVersionLS>>16)
}
