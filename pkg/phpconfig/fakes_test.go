package phpconfig

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/thesabbir/phpmanager/pkg/util"
)

type fakeHost struct {
	installed   bool
	handler     *Handler
	app         *FastCgiApplication
	docs        *DefaultDocumentList
	serverLevel bool
	commits     int
	commitErr   error
}

func (h *fakeHost) FastCgiInstalled() (bool, error) { return h.installed, nil }

func (h *fakeHost) GetActiveHandler(path string) (*Handler, error) {
	if h.handler == nil || h.handler.Path != path {
		return nil, nil
	}
	return h.handler, nil
}

func (h *fakeHost) GetFastCgiApplication(executable, arguments string) (*FastCgiApplication, error) {
	if h.app == nil || !util.SamePath(h.app.FullPath, executable) || h.app.Arguments != arguments {
		return nil, nil
	}
	return h.app, nil
}

func (h *fakeHost) GetDefaultDocumentList() (*DefaultDocumentList, error) {
	return h.docs, nil
}

func (h *fakeHost) IsServerLevelPath() bool { return h.serverLevel }

func (h *fakeHost) CommitChanges() error {
	if h.commitErr != nil {
		return h.commitErr
	}
	h.commits++
	return nil
}

type fakeEnv struct {
	vars     map[string]string
	registry map[string]string
	version  string
	files    []string
	dirs     []string
	temp     string
	now      time.Time
}

func (e *fakeEnv) Getenv(name string) string { return e.vars[name] }

func (e *fakeEnv) LookupRegistry(path, name string) (string, bool) {
	v, ok := e.registry[path+`\`+name]
	return v, ok
}

func (e *fakeEnv) ProductVersion(string) string { return e.version }

func (e *fakeEnv) FileExists(path string) bool { return containsPath(e.files, path) }

func (e *fakeEnv) DirExists(path string) bool { return containsPath(e.dirs, path) }

func (e *fakeEnv) TempDir() string { return e.temp }

func (e *fakeEnv) Now() time.Time { return e.now }

func containsPath(paths []string, path string) bool {
	for _, p := range paths {
		if util.SamePath(p, path) {
			return true
		}
	}
	return false
}

const handlerName = "PHP_via_FastCGI"

// fixture is a PHP installation in a temp dir registered with a compliant
// host configuration
type fixture struct {
	dir     string
	exe     string
	iniPath string
	host    *fakeHost
	env     *fakeEnv
}

func compliantIni(phpDir string) string {
	return `[PHP]
extension_dir = "` + phpDir + `/ext/"
log_errors = On
error_log = "C:\Windows\Temp\PHP_via_FastCGI_errors.log"
upload_tmp_dir = "C:\Windows\Temp\"
cgi.force_redirect = 0
cgi.fix_pathinfo = 1
fastcgi.impersonate = 1

[Session]
session.save_path = "C:\temp\"

[Date]
date.timezone = UTC
`
}

func newFixture(t *testing.T, iniContent string) *fixture {
	t.Helper()

	dir := t.TempDir()
	exe := filepath.Join(dir, "php-cgi.exe")
	iniPath := filepath.Join(dir, "php.ini")
	require.NoError(t, os.WriteFile(iniPath, []byte(iniContent), 0644))

	return &fixture{
		dir:     dir,
		exe:     exe,
		iniPath: iniPath,
		host: &fakeHost{
			installed: true,
			handler: &Handler{
				Name:            handlerName,
				Path:            PHPHandlerPath,
				Modules:         ModuleFastCgi,
				ScriptProcessor: exe,
				ResourceType:    ResourceEither,
			},
			app: &FastCgiApplication{
				FullPath:            exe,
				InstanceMaxRequests: 10000,
				MonitorChangesTo:    iniPath,
				MonitorSupported:    true,
				EnvironmentVariables: []*EnvironmentVariable{
					{Name: EnvPHPRC, Value: dir},
					{Name: EnvMaxRequests, Value: "10000"},
				},
			},
			docs: &DefaultDocumentList{Files: []*DefaultDocument{
				{Value: "index.php", Local: true},
				{Value: "default.htm"},
			}},
		},
		env: &fakeEnv{
			vars:  map[string]string{"WINDIR": `C:\Windows`},
			files: []string{exe, iniPath},
			dirs:  []string{dir, `C:\temp`, `C:\Windows\Temp`},
			temp:  `C:\Windows\Temp`,
			now:   time.Date(2024, time.January, 15, 12, 0, 0, 0, time.FixedZone("EET", 2*60*60)),
		},
	}
}

func (f *fixture) reconciler(t *testing.T) *Reconciler {
	t.Helper()
	r, err := NewReconciler(f.host, f.env)
	require.NoError(t, err)
	r.Finder = func(string) ([]string, error) { return nil, nil }
	return r
}

func (f *fixture) readIni(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(f.iniPath)
	require.NoError(t, err)
	return string(data)
}

func withoutLine(content, prefix string) string {
	lines := strings.Split(content, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if !strings.HasPrefix(line, prefix) {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
