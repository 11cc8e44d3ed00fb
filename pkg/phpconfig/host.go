package phpconfig

import (
	"strings"
)

// PHPHandlerPath is the handler mapping path PHP is registered under
const PHPHandlerPath = "*.php"

// Modules a handler mapping can route PHP requests through
const (
	ModuleFastCgi = "FastCgiModule"
	ModuleCgi     = "CgiModule"
	ModuleIsapi   = "IsapiModule"
)

// Names of the FastCGI environment variables the rules manage
const (
	EnvPHPRC       = "PHPRC"
	EnvMaxRequests = "PHP_FCGI_MAX_REQUESTS"
)

// ResourceType controls whether a handler serves files, folders or either
type ResourceType string

const (
	ResourceFile        ResourceType = "File"
	ResourceDirectory   ResourceType = "Directory"
	ResourceEither      ResourceType = "Either"
	ResourceUnspecified ResourceType = "Unspecified"
)

// Handler is a handler mapping of the web server
type Handler struct {
	Name            string       `json:"name"`
	Path            string       `json:"path"`
	Modules         string       `json:"modules"`
	ScriptProcessor string       `json:"script_processor"`
	ResourceType    ResourceType `json:"resource_type"`
}

// Executable returns the script processor's executable and arguments.
// The two are separated by '|' in a handler mapping.
func (h *Handler) Executable() (string, string) {
	exe, args, _ := strings.Cut(h.ScriptProcessor, "|")
	return strings.TrimSpace(exe), strings.TrimSpace(args)
}

// EnvironmentVariable is a variable passed to FastCGI processes
type EnvironmentVariable struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// FastCgiApplication is the process pool definition for an executable
type FastCgiApplication struct {
	FullPath             string                 `json:"full_path"`
	Arguments            string                 `json:"arguments"`
	InstanceMaxRequests  int64                  `json:"instance_max_requests"`
	MonitorChangesTo     string                 `json:"monitor_changes_to"`
	EnvironmentVariables []*EnvironmentVariable `json:"environment_variables"`

	// MonitorSupported is false on hosts without the monitorChangesTo feature
	MonitorSupported bool `json:"monitor_supported"`
}

// GetEnv returns the environment variable with the given name, ignoring case
func (a *FastCgiApplication) GetEnv(name string) (*EnvironmentVariable, bool) {
	for _, v := range a.EnvironmentVariables {
		if strings.EqualFold(v.Name, name) {
			return v, true
		}
	}
	return nil, false
}

// SetEnv adds or updates an environment variable and reports whether it changed
func (a *FastCgiApplication) SetEnv(name, value string) bool {
	if v, ok := a.GetEnv(name); ok {
		if v.Value == value {
			return false
		}
		v.Value = value
		return true
	}

	a.EnvironmentVariables = append(a.EnvironmentVariables, &EnvironmentVariable{Name: name, Value: value})
	return true
}

// DefaultDocument is one entry of the default document list. Local entries
// are defined at the managed path; the rest are inherited from a parent.
type DefaultDocument struct {
	Value string `json:"value"`
	Local bool   `json:"local"`
}

// DefaultDocumentList is the ordered default document collection
type DefaultDocumentList struct {
	Files []*DefaultDocument `json:"files"`
}

// IndexOf returns the position of the named document, or -1
func (l *DefaultDocumentList) IndexOf(value string) int {
	for i, f := range l.Files {
		if strings.EqualFold(f.Value, value) {
			return i
		}
	}
	return -1
}

// HasLocal reports whether any entry is defined locally
func (l *DefaultDocumentList) HasLocal() bool {
	for _, f := range l.Files {
		if f.Local {
			return true
		}
	}
	return false
}

// Values returns the document names in order
func (l *DefaultDocumentList) Values() []string {
	values := make([]string, 0, len(l.Files))
	for _, f := range l.Files {
		values = append(values, f.Value)
	}
	return values
}

// HostConfig gives access to the web server configuration. Objects returned
// by the getters are live: changes to them are persisted by CommitChanges.
type HostConfig interface {
	// FastCgiInstalled reports whether the FastCGI feature is available
	FastCgiInstalled() (bool, error)

	// GetActiveHandler returns the handler mapping for path, or nil
	GetActiveHandler(path string) (*Handler, error)

	// GetFastCgiApplication returns the application for executable and
	// arguments, or nil
	GetFastCgiApplication(executable, arguments string) (*FastCgiApplication, error)

	GetDefaultDocumentList() (*DefaultDocumentList, error)

	// IsServerLevelPath reports whether the managed path is the server root
	IsServerLevelPath() bool

	CommitChanges() error
}
