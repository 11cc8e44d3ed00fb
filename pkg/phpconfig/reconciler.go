// Package phpconfig checks a PHP installation served through FastCGI
// against a catalog of recommended settings and applies the fixes.
//
// A Reconciler is bound to one host configuration. It detects at
// construction how PHP is registered and refuses to operate unless that is
// a FastCGI handler. Checks read the ini document and the host objects;
// remediations write both, committing each side at most once.
package phpconfig

import (
	"io/fs"
	"strings"

	"github.com/thesabbir/phpmanager/pkg/ini"
	"github.com/thesabbir/phpmanager/pkg/logger"
	"github.com/thesabbir/phpmanager/pkg/util"
)

// Ini file names looked up in each candidate directory, in order
var iniFileNames = []string{"php-cgi-fcgi.ini", "php.ini"}

// RegistrationType describes how PHP requests are handled
type RegistrationType int

const (
	RegistrationNone RegistrationType = iota
	RegistrationFastCgi
	RegistrationCgi
	RegistrationIsapi
	RegistrationNoneNoFastCgi
)

func (t RegistrationType) String() string {
	switch t {
	case RegistrationFastCgi:
		return "FastCgi"
	case RegistrationCgi:
		return "Cgi"
	case RegistrationIsapi:
		return "Isapi"
	case RegistrationNoneNoFastCgi:
		return "NoneNoFastCgi"
	default:
		return "None"
	}
}

// MarshalText renders the registration by name in JSON
func (t RegistrationType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Reconciler validates and remediates one PHP registration
type Reconciler struct {
	// Finder lists extension files when loading documents; nil scans disk
	Finder ini.ExtensionFinder

	host  HostConfig
	env   Environment
	rules *Registry

	registration RegistrationType
	handler      *Handler
	app          *FastCgiApplication
	executable   string
	phpDir       string
	iniPath      string
}

// ApplyResult lists the remediations that changed something
type ApplyResult struct {
	HostChanges []IssueIndex `json:"host_changes"`
	IniChanges  []IssueIndex `json:"ini_changes"`
}

// Changed reports whether anything was written
func (r *ApplyResult) Changed() bool {
	return len(r.HostChanges) > 0 || len(r.IniChanges) > 0
}

// Info summarises the active PHP registration
type Info struct {
	HandlerName         string           `json:"handler_name"`
	Executable          string           `json:"executable"`
	Version             string           `json:"version"`
	IniPath             string           `json:"ini_path"`
	ErrorLog            string           `json:"error_log"`
	Registration        RegistrationType `json:"registration"`
	EnabledExtensions   int              `json:"enabled_extensions"`
	InstalledExtensions int              `json:"installed_extensions"`
}

// NewReconciler detects the PHP registration of host. Errors from host are
// returned as is.
func NewReconciler(host HostConfig, env Environment) (*Reconciler, error) {
	r := &Reconciler{
		host:  host,
		env:   env,
		rules: DefaultRegistry(),
	}

	if err := r.detect(); err != nil {
		return nil, err
	}
	return r, nil
}

// Redetect runs detection again after the registration changed
func (r *Reconciler) Redetect() error {
	return r.detect()
}

func (r *Reconciler) detect() error {
	r.registration = RegistrationNone
	r.handler, r.app = nil, nil
	r.executable, r.phpDir, r.iniPath = "", "", ""

	installed, err := r.host.FastCgiInstalled()
	if err != nil {
		return err
	}
	if !installed {
		r.registration = RegistrationNoneNoFastCgi
		return nil
	}

	handler, err := r.host.GetActiveHandler(PHPHandlerPath)
	if err != nil {
		return err
	}
	if handler == nil {
		return nil
	}

	switch {
	case strings.EqualFold(handler.Modules, ModuleCgi):
		r.registration = RegistrationCgi
		return nil
	case strings.EqualFold(handler.Modules, ModuleIsapi):
		r.registration = RegistrationIsapi
		return nil
	case !strings.EqualFold(handler.Modules, ModuleFastCgi):
		return nil
	}

	exe, args := handler.Executable()
	app, err := r.host.GetFastCgiApplication(exe, args)
	if err != nil {
		return err
	}
	if app == nil {
		logger.Warn("PHP handler has no FastCGI application",
			"handler", handler.Name,
			"executable", exe)
		return nil
	}

	if !r.env.FileExists(exe) {
		return &FileError{Path: exe, Err: fs.ErrNotExist}
	}

	phpDir, err := util.DirOf(exe)
	if err != nil {
		return &ArgumentError{Name: "executable", Value: exe, Reason: "cannot derive directory"}
	}

	r.registration = RegistrationFastCgi
	r.handler = handler
	r.app = app
	r.executable = exe
	r.phpDir = phpDir
	r.iniPath = r.findIniPath()

	logger.Debug("Detected PHP registration",
		"handler", handler.Name,
		"executable", exe,
		"ini_path", r.iniPath)

	return nil
}

// findIniPath resolves the ini file PHP will load: PHPRC of the FastCGI
// application, then the registry, then the PHP directory
func (r *Reconciler) findIniPath() string {
	var dirs []string

	if v, ok := r.app.GetEnv(EnvPHPRC); ok && v.Value != "" {
		dirs = append(dirs, expandEnv(r.env, v.Value))
	}

	if version := majorMinor(r.env.ProductVersion(r.executable)); version != "" {
		if dir, ok := r.env.LookupRegistry(`SOFTWARE\PHP\`+version, "IniFilePath"); ok && dir != "" {
			dirs = append(dirs, dir)
		}
	}
	if dir, ok := r.env.LookupRegistry(`SOFTWARE\PHP`, "IniFilePath"); ok && dir != "" {
		dirs = append(dirs, dir)
	}

	dirs = append(dirs, r.phpDir)

	for _, dir := range dirs {
		if path := r.iniFileIn(dir); path != "" {
			return path
		}
	}

	return util.JoinPath(r.phpDir, "php.ini")
}

// iniFileIn returns the ini file PHP would load from dir, or ""
func (r *Reconciler) iniFileIn(dir string) string {
	if dir == "" || !r.env.DirExists(dir) {
		return ""
	}
	for _, name := range iniFileNames {
		path := util.JoinPath(dir, name)
		if r.env.FileExists(path) {
			return path
		}
	}
	return ""
}

func (r *Reconciler) iniDir() string {
	dir, err := util.DirOf(r.iniPath)
	if err != nil {
		return ""
	}
	return dir
}

func (r *Reconciler) extensionDir() string {
	return util.EnsureTrailingSeparator(util.JoinPath(r.phpDir, "ext"))
}

// Registration returns the detected registration
func (r *Reconciler) Registration() RegistrationType {
	return r.registration
}

// Handler returns the active PHP handler mapping, nil unless registered
func (r *Reconciler) Handler() *Handler {
	return r.handler
}

// FastCgiApplication returns the application serving PHP, nil unless
// registered
func (r *Reconciler) FastCgiApplication() *FastCgiApplication {
	return r.app
}

// IniPath returns the resolved ini file
func (r *Reconciler) IniPath() string {
	return r.iniPath
}

// PHPDir returns the directory of the PHP executable
func (r *Reconciler) PHPDir() string {
	return r.phpDir
}

func (r *Reconciler) requireFastCgi() error {
	if r.registration != RegistrationFastCgi {
		return &NotRegisteredError{Registration: r.registration}
	}
	return nil
}

// LoadDocument loads the resolved ini file
func (r *Reconciler) LoadDocument() (*ini.Document, error) {
	if err := r.requireFastCgi(); err != nil {
		return nil, err
	}
	return ini.Load(r.iniPath, r.Finder)
}

// Validate runs every rule against doc and the host configuration and
// returns the issues in catalog order
func (r *Reconciler) Validate(doc *ini.Document) ([]ConfigIssue, error) {
	if err := r.requireFastCgi(); err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, &ArgumentError{Name: "document", Reason: "is nil"}
	}

	issues := make([]ConfigIssue, 0)
	for _, rule := range r.rules.List() {
		issue, err := rule.Check(r, doc)
		if err != nil {
			return nil, err
		}
		if issue != nil {
			issues = append(issues, *issue)
		}
	}

	return issues, nil
}

// ApplyRecommended applies the remediations of the selected issues. Host
// changes are committed once and the document is saved once, each only if
// something changed. Every index is checked before anything is touched.
func (r *Reconciler) ApplyRecommended(doc *ini.Document, selected []IssueIndex) (*ApplyResult, error) {
	if err := r.requireFastCgi(); err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, &ArgumentError{Name: "document", Reason: "is nil"}
	}

	wanted := make(map[IssueIndex]bool, len(selected))
	for _, idx := range selected {
		if _, ok := r.rules.Get(idx); !ok {
			return nil, &ArgumentError{Name: "issue", Value: idx.String(), Reason: "unknown issue"}
		}
		wanted[idx] = true
	}

	result := &ApplyResult{
		HostChanges: make([]IssueIndex, 0),
		IniChanges:  make([]IssueIndex, 0),
	}
	var settings []*ini.Setting

	for _, rule := range r.rules.List() {
		if !wanted[rule.Index()] {
			continue
		}

		switch rule := rule.(type) {
		case HostRule:
			changed, err := rule.ApplyHost(r)
			if err != nil {
				return nil, err
			}
			if changed {
				result.HostChanges = append(result.HostChanges, rule.Index())
			}
		case IniRule:
			if setting := rule.Recommend(r, doc); setting != nil {
				settings = append(settings, setting)
				result.IniChanges = append(result.IniChanges, rule.Index())
			}
		}
	}

	if len(result.HostChanges) > 0 {
		if err := r.host.CommitChanges(); err != nil {
			return nil, err
		}
	}

	if len(settings) > 0 && doc.AddOrUpdateSettings(settings...) {
		if err := r.save(doc); err != nil {
			return nil, err
		}
	}

	logger.Info("Applied recommended configuration",
		"selected", len(wanted),
		"host_changes", len(result.HostChanges),
		"ini_changes", len(result.IniChanges))

	return result, nil
}

// Info summarises the registration and doc
func (r *Reconciler) Info(doc *ini.Document) (*Info, error) {
	if err := r.requireFastCgi(); err != nil {
		return nil, err
	}

	info := &Info{
		HandlerName:  r.handler.Name,
		Executable:   r.executable,
		Version:      r.env.ProductVersion(r.executable),
		IniPath:      r.iniPath,
		Registration: r.registration,
	}

	if doc != nil {
		if s, ok := doc.GetSetting("error_log"); ok {
			info.ErrorLog = util.Unquote(s.Value)
		}
		for _, ext := range doc.Extensions() {
			if ext.Enabled {
				info.EnabledExtensions++
			}
			info.InstalledExtensions++
		}
	}

	return info, nil
}

// AddOrUpdateSettings writes settings to doc and saves it if it changed
func (r *Reconciler) AddOrUpdateSettings(doc *ini.Document, settings ...*ini.Setting) (bool, error) {
	if err := r.requireFastCgi(); err != nil {
		return false, err
	}

	for _, s := range settings {
		if err := util.ValidateSettingName(s.Name); err != nil {
			return false, &ArgumentError{Name: "setting", Value: s.Name, Reason: err.Error()}
		}
		if err := util.ValidateSettingValue(s.Value); err != nil {
			return false, &ArgumentError{Name: "value", Value: s.Value, Reason: err.Error()}
		}
		if err := util.ValidateSectionName(s.Section); err != nil {
			return false, &ArgumentError{Name: "section", Value: s.Section, Reason: err.Error()}
		}
		if s.Section == "" {
			s.Section = SectionPHP
		}
	}

	if !doc.AddOrUpdateSettings(settings...) {
		return false, nil
	}
	return true, r.save(doc)
}

// RemoveSetting deletes the first setting called name and saves doc
func (r *Reconciler) RemoveSetting(doc *ini.Document, name string) (bool, error) {
	if err := r.requireFastCgi(); err != nil {
		return false, err
	}

	setting, ok := doc.GetSetting(name)
	if !ok || !doc.Remove(setting) {
		return false, nil
	}
	return true, r.save(doc)
}

// UpdateExtensions enables or disables extensions and saves doc
func (r *Reconciler) UpdateExtensions(doc *ini.Document, extensions ...*ini.Extension) (bool, error) {
	if err := r.requireFastCgi(); err != nil {
		return false, err
	}

	for _, ext := range extensions {
		if err := util.ValidateExtensionName(ext.Name); err != nil {
			return false, &ArgumentError{Name: "extension", Value: ext.Name, Reason: err.Error()}
		}
	}

	changed, err := doc.UpdateExtensions(extensions...)
	if err != nil || !changed {
		return false, err
	}
	return true, r.save(doc)
}

func (r *Reconciler) save(doc *ini.Document) error {
	path := doc.Path
	if path == "" {
		path = r.iniPath
	}
	return doc.Save(path)
}
