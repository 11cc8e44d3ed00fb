package hoststore

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/thesabbir/phpmanager/pkg/db"
	"github.com/thesabbir/phpmanager/pkg/phpconfig"
)

const testExe = `C:\PHP\php-cgi.exe`

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := db.Open(filepath.Join(t.TempDir(), "host.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return gdb
}

func TestFastCgiInstalled(t *testing.T) {
	store := New(openTestDB(t), "")

	installed, err := store.FastCgiInstalled()
	require.NoError(t, err)
	assert.False(t, installed)

	require.NoError(t, store.SetFastCgiInstalled(true))
	installed, err = store.FastCgiInstalled()
	require.NoError(t, err)
	assert.True(t, installed)
}

func TestSitePath(t *testing.T) {
	gdb := openTestDB(t)

	assert.True(t, New(gdb, "").IsServerLevelPath())
	assert.True(t, New(gdb, "/").IsServerLevelPath())
	assert.Equal(t, "/site", New(gdb, `site\`).SitePath())
	assert.False(t, New(gdb, "/site").IsServerLevelPath())
}

func TestRegister(t *testing.T) {
	gdb := openTestDB(t)
	require.NoError(t, gdb.Create(&db.HandlerMapping{
		SitePath: db.ServerPath, Name: "StaticFile", Path: "*", Modules: "StaticFileModule",
	}).Error)

	store := New(gdb, "")
	require.NoError(t, store.Register(testExe, ""))

	installed, err := store.FastCgiInstalled()
	require.NoError(t, err)
	assert.True(t, installed)

	handler, err := store.GetActiveHandler(phpconfig.PHPHandlerPath)
	require.NoError(t, err)
	require.NotNil(t, handler)
	assert.Equal(t, DefaultHandlerName, handler.Name)
	assert.Equal(t, phpconfig.ModuleFastCgi, handler.Modules)
	assert.Equal(t, testExe, handler.ScriptProcessor)
	assert.Equal(t, phpconfig.ResourceEither, handler.ResourceType)

	// Lookups ignore case and separator style
	app, err := store.GetFastCgiApplication(`c:/php/PHP-CGI.exe`, "")
	require.NoError(t, err)
	require.NotNil(t, app)
	assert.Equal(t, int64(DefaultInstanceMaxRequests), app.InstanceMaxRequests)
	assert.True(t, app.MonitorSupported)

	var static db.HandlerMapping
	require.NoError(t, gdb.Where("name = ?", "StaticFile").First(&static).Error)
	assert.Equal(t, 1, static.Position)
}

func TestRegisterTwiceReplacesHandler(t *testing.T) {
	gdb := openTestDB(t)
	store := New(gdb, "")

	require.NoError(t, store.Register(testExe, ""))
	require.NoError(t, store.Register(`C:\PHP8\php-cgi.exe`, "-d foo=bar"))

	var count int64
	require.NoError(t, gdb.Model(&db.HandlerMapping{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	handler, err := store.GetActiveHandler(phpconfig.PHPHandlerPath)
	require.NoError(t, err)
	exe, args := handler.Executable()
	assert.Equal(t, `C:\PHP8\php-cgi.exe`, exe)
	assert.Equal(t, "-d foo=bar", args)

	app, err := store.GetFastCgiApplication(exe, args)
	require.NoError(t, err)
	assert.NotNil(t, app)
}

func TestRegisterRejectsRelativePath(t *testing.T) {
	err := New(openTestDB(t), "").Register("php-cgi.exe", "")

	var argErr *phpconfig.ArgumentError
	assert.True(t, errors.As(err, &argErr))
}

func TestMissingObjects(t *testing.T) {
	store := New(openTestDB(t), "")

	handler, err := store.GetActiveHandler(phpconfig.PHPHandlerPath)
	require.NoError(t, err)
	assert.Nil(t, handler)

	app, err := store.GetFastCgiApplication(testExe, "")
	require.NoError(t, err)
	assert.Nil(t, app)

	docs, err := store.GetDefaultDocumentList()
	require.NoError(t, err)
	assert.Empty(t, docs.Files)
}

func TestCommitApplication(t *testing.T) {
	gdb := openTestDB(t)
	store := New(gdb, "")
	require.NoError(t, store.Register(testExe, ""))

	app, err := store.GetFastCgiApplication(testExe, "")
	require.NoError(t, err)
	app.InstanceMaxRequests = 10000
	app.MonitorChangesTo = `C:\PHP\php.ini`
	app.SetEnv(phpconfig.EnvPHPRC, `C:\PHP`)
	app.SetEnv(phpconfig.EnvMaxRequests, "10000")

	// The same live object is handed out until commit
	again, err := store.GetFastCgiApplication(testExe, "")
	require.NoError(t, err)
	assert.Same(t, app, again)

	require.NoError(t, store.CommitChanges())

	fresh, err := New(gdb, "").GetFastCgiApplication(testExe, "")
	require.NoError(t, err)
	assert.Equal(t, int64(10000), fresh.InstanceMaxRequests)
	assert.Equal(t, `C:\PHP\php.ini`, fresh.MonitorChangesTo)
	require.Len(t, fresh.EnvironmentVariables, 2)
	assert.Equal(t, phpconfig.EnvPHPRC, fresh.EnvironmentVariables[0].Name)
	assert.Equal(t, phpconfig.EnvMaxRequests, fresh.EnvironmentVariables[1].Name)

	// Updating a variable rewrites rows without duplicating them
	store = New(gdb, "")
	app, err = store.GetFastCgiApplication(testExe, "")
	require.NoError(t, err)
	app.SetEnv(phpconfig.EnvMaxRequests, "20000")
	require.NoError(t, store.CommitChanges())

	var vars []db.EnvironmentVariable
	require.NoError(t, gdb.Order("position").Find(&vars).Error)
	require.Len(t, vars, 2)
	assert.Equal(t, "20000", vars[1].Value)
}

func TestInheritedHandlerBecomesOverride(t *testing.T) {
	gdb := openTestDB(t)
	require.NoError(t, New(gdb, "").Register(testExe, ""))
	require.NoError(t, gdb.Model(&db.HandlerMapping{}).Where("1 = 1").
		Update("resource_type", string(phpconfig.ResourceFile)).Error)

	site := New(gdb, "/site")
	handler, err := site.GetActiveHandler(phpconfig.PHPHandlerPath)
	require.NoError(t, err)
	require.NotNil(t, handler)
	handler.ResourceType = phpconfig.ResourceEither
	require.NoError(t, site.CommitChanges())

	server, err := New(gdb, "").GetActiveHandler(phpconfig.PHPHandlerPath)
	require.NoError(t, err)
	assert.Equal(t, phpconfig.ResourceFile, server.ResourceType)

	local, err := New(gdb, "/site").GetActiveHandler(phpconfig.PHPHandlerPath)
	require.NoError(t, err)
	assert.Equal(t, phpconfig.ResourceEither, local.ResourceType)
}

func TestUntouchedInheritedHandlerStaysInherited(t *testing.T) {
	gdb := openTestDB(t)
	require.NoError(t, New(gdb, "").Register(testExe, ""))

	// A site commit that only changes the application
	site := New(gdb, "/site")
	handler, err := site.GetActiveHandler(phpconfig.PHPHandlerPath)
	require.NoError(t, err)
	require.NotNil(t, handler)
	app, err := site.GetFastCgiApplication(testExe, "")
	require.NoError(t, err)
	app.SetEnv(phpconfig.EnvPHPRC, `C:\PHP`)
	require.NoError(t, site.CommitChanges())

	var count int64
	require.NoError(t, gdb.Model(&db.HandlerMapping{}).Where("site_path = ?", "/site").Count(&count).Error)
	assert.Equal(t, int64(0), count)

	// Later server level changes still reach the site
	server := New(gdb, "")
	handler, err = server.GetActiveHandler(phpconfig.PHPHandlerPath)
	require.NoError(t, err)
	handler.ResourceType = phpconfig.ResourceFile
	require.NoError(t, server.CommitChanges())

	inherited, err := New(gdb, "/site").GetActiveHandler(phpconfig.PHPHandlerPath)
	require.NoError(t, err)
	assert.Equal(t, phpconfig.ResourceFile, inherited.ResourceType)
}

func TestRedetectAfterRegister(t *testing.T) {
	dir := t.TempDir()
	exe := filepath.Join(dir, "php-cgi.exe")
	require.NoError(t, os.WriteFile(exe, nil, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "php.ini"), []byte("[PHP]\n"), 0644))

	store := New(openTestDB(t), "")
	r, err := phpconfig.NewReconciler(store, phpconfig.OSEnvironment{})
	require.NoError(t, err)
	assert.Equal(t, phpconfig.RegistrationNoneNoFastCgi, r.Registration())

	require.NoError(t, store.Register(exe, ""))
	require.NoError(t, r.Redetect())
	assert.Equal(t, phpconfig.RegistrationFastCgi, r.Registration())
	assert.Equal(t, filepath.Join(dir, "php.ini"), r.IniPath())
}

func TestDefaultDocumentsInheritance(t *testing.T) {
	gdb := openTestDB(t)
	require.NoError(t, New(gdb, "").SetDefaultDocuments("default.htm", "index.htm"))

	site := New(gdb, "/site")
	docs, err := site.GetDefaultDocumentList()
	require.NoError(t, err)
	assert.Equal(t, []string{"default.htm", "index.htm"}, docs.Values())
	assert.False(t, docs.HasLocal())

	// Only local entries are written at the site
	docs.Files = append([]*phpconfig.DefaultDocument{{Value: "index.php", Local: true}}, docs.Files...)
	require.NoError(t, site.CommitChanges())

	var rows []db.DefaultDocument
	require.NoError(t, gdb.Where("site_path = ?", "/site").Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, "index.php", rows[0].Value)

	docs, err = New(gdb, "/site").GetDefaultDocumentList()
	require.NoError(t, err)
	assert.Equal(t, []string{"index.php"}, docs.Values())
	assert.True(t, docs.HasLocal())

	server, err := New(gdb, "").GetDefaultDocumentList()
	require.NoError(t, err)
	assert.Equal(t, []string{"default.htm", "index.htm"}, server.Values())
}

func TestReconcilerAgainstStore(t *testing.T) {
	dir := t.TempDir()
	exe := filepath.Join(dir, "php-cgi.exe")
	iniPath := filepath.Join(dir, "php.ini")
	require.NoError(t, os.WriteFile(exe, nil, 0755))
	require.NoError(t, os.WriteFile(iniPath, []byte("[PHP]\n"), 0644))

	gdb := openTestDB(t)
	store := New(gdb, "")
	require.NoError(t, store.Register(exe, ""))
	require.NoError(t, store.SetDefaultDocuments("default.htm"))

	r, err := phpconfig.NewReconciler(store, phpconfig.OSEnvironment{})
	require.NoError(t, err)
	r.Finder = func(string) ([]string, error) { return nil, nil }
	assert.Equal(t, phpconfig.RegistrationFastCgi, r.Registration())
	assert.Equal(t, iniPath, r.IniPath())

	doc, err := r.LoadDocument()
	require.NoError(t, err)

	host := []phpconfig.IssueIndex{
		phpconfig.IssueDefaultDocument,
		phpconfig.IssuePHPMaxRequests,
		phpconfig.IssuePHPRC,
		phpconfig.IssueMonitorChangesTo,
	}
	result, err := r.ApplyRecommended(doc, host)
	require.NoError(t, err)
	assert.ElementsMatch(t, host, result.HostChanges)

	fresh := New(gdb, "")
	docs, err := fresh.GetDefaultDocumentList()
	require.NoError(t, err)
	assert.Equal(t, []string{"index.php", "default.htm"}, docs.Values())

	app, err := fresh.GetFastCgiApplication(exe, "")
	require.NoError(t, err)
	assert.Equal(t, iniPath, app.MonitorChangesTo)
	v, ok := app.GetEnv(phpconfig.EnvMaxRequests)
	require.True(t, ok)
	assert.Equal(t, "200", v.Value)
	v, ok = app.GetEnv(phpconfig.EnvPHPRC)
	require.True(t, ok)
	assert.Equal(t, dir, v.Value)
}
