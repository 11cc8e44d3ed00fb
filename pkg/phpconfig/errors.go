package phpconfig

import (
	"errors"
	"fmt"

	"github.com/thesabbir/phpmanager/pkg/ini"
)

// ErrNotRegistered is returned by every operation while PHP is not served
// through a FastCGI handler
var ErrNotRegistered = errors.New("php is not registered as a FastCGI handler")

// NotRegisteredError carries the registration that was detected instead
type NotRegisteredError struct {
	Registration RegistrationType
}

func (e *NotRegisteredError) Error() string {
	return fmt.Sprintf("%s (detected: %s)", ErrNotRegistered, e.Registration)
}

// Is matches ErrNotRegistered
func (e *NotRegisteredError) Is(target error) bool {
	return target == ErrNotRegistered
}

// FileError reports a missing or unreadable file
type FileError = ini.FileError

// ArgumentError reports a malformed value passed by the caller
type ArgumentError = ini.ArgumentError
