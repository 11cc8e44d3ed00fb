package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thesabbir/phpmanager/pkg/db"
	"github.com/thesabbir/phpmanager/pkg/hoststore"
	"github.com/thesabbir/phpmanager/pkg/phpconfig"
	"github.com/thesabbir/phpmanager/pkg/snapshot"
	"github.com/thesabbir/phpmanager/pkg/transaction"
)

const testIni = `[PHP]
memory_limit = 128M
extension_dir = "ext"
extension=php_mbstring.dll
`

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router  *gin.Engine
	iniPath string
}

func newTestServer(t *testing.T, register bool) *testServer {
	t.Helper()

	dir := t.TempDir()
	gdb, err := db.Open(filepath.Join(dir, "phpmgr.db"))
	require.NoError(t, err)

	prev := db.DB
	db.DB = gdb
	t.Cleanup(func() {
		db.DB = prev
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})

	phpDir := filepath.Join(dir, "php")
	require.NoError(t, os.MkdirAll(phpDir, 0755))
	exe := filepath.Join(phpDir, "php-cgi.exe")
	iniPath := filepath.Join(phpDir, "php.ini")
	require.NoError(t, os.WriteFile(exe, nil, 0755))
	require.NoError(t, os.WriteFile(iniPath, []byte(testIni), 0644))

	if register {
		require.NoError(t, hoststore.New(gdb, "").Register(exe, ""))
	}

	factory := func() (*phpconfig.Reconciler, error) {
		r, err := phpconfig.NewReconciler(hoststore.New(gdb, ""), phpconfig.OSEnvironment{})
		if err != nil {
			return nil, err
		}
		r.Finder = func(string) ([]string, error) {
			return []string{"php_curl.dll", "php_gd2.dll", "php_mbstring.dll"}, nil
		}
		return r, nil
	}

	tx := transaction.NewManager(snapshot.NewManager(filepath.Join(dir, "snapshots")))
	tx.SetActor("test")

	router := gin.New()
	New(factory, tx).Register(router.Group("/api"))

	return &testServer{router: router, iniPath: iniPath}
}

func (s *testServer) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return w, resp
}

func (s *testServer) readIni(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(s.iniPath)
	require.NoError(t, err)
	return string(data)
}

func TestInfo(t *testing.T) {
	s := newTestServer(t, true)

	w, resp := s.do(t, http.MethodGet, "/api/info", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, hoststore.DefaultHandlerName, resp["handler_name"])
	assert.Equal(t, s.iniPath, resp["ini_path"])
	assert.Equal(t, float64(1), resp["enabled_extensions"])
	assert.Equal(t, float64(3), resp["installed_extensions"])
}

func TestNotRegistered(t *testing.T) {
	s := newTestServer(t, false)

	for _, path := range []string{"/api/info", "/api/issues", "/api/settings", "/api/extensions"} {
		w, resp := s.do(t, http.MethodGet, path, "")
		assert.Equal(t, http.StatusConflict, w.Code, path)
		assert.Equal(t, phpconfig.RegistrationNoneNoFastCgi.String(), resp["registration"], path)
	}
}

func TestListIssues(t *testing.T) {
	s := newTestServer(t, true)

	w, resp := s.do(t, http.MethodGet, "/api/issues", "")
	require.Equal(t, http.StatusOK, w.Code)

	issues := resp["issues"].([]interface{})
	assert.Equal(t, float64(len(issues)), resp["count"])

	var logErrors map[string]interface{}
	for _, i := range issues {
		issue := i.(map[string]interface{})
		assert.NotEmpty(t, issue["description"])
		assert.NotEmpty(t, issue["recommendation"])
		if issue["name"] == "LogErrors" {
			logErrors = issue
		}
	}
	require.NotNil(t, logErrors)
	assert.Equal(t, "log_errors", logErrors["setting"])
	assert.Equal(t, "On", logErrors["recommended_value"])
}

func TestApplyIssues(t *testing.T) {
	s := newTestServer(t, true)

	w, resp := s.do(t, http.MethodPost, "/api/issues/apply", `{"issues":["logerrors","CgiPathInfo"]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []interface{}{"LogErrors", "CgiPathInfo"}, resp["ini_changes"])
	assert.Empty(t, resp["host_changes"])
	assert.NotEmpty(t, resp["transaction_id"])
	assert.NotEmpty(t, resp["snapshot_id"])

	content := s.readIni(t)
	assert.Contains(t, content, "log_errors = On")
	assert.Contains(t, content, "cgi.fix_pathinfo = 1")

	tx, err := db.GetTransactionByID(resp["transaction_id"].(string))
	require.NoError(t, err)
	assert.Equal(t, "test", tx.Actor)
}

func TestApplyIssuesRejectsBadInput(t *testing.T) {
	s := newTestServer(t, true)
	before := s.readIni(t)

	w, resp := s.do(t, http.MethodPost, "/api/issues/apply", `{"issues":["NoSuchIssue"]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, resp["details"], "NoSuchIssue")

	w, _ = s.do(t, http.MethodPost, "/api/issues/apply", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(t, http.MethodPost, "/api/issues/apply", `{"issues":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Equal(t, before, s.readIni(t))
}

func TestSettings(t *testing.T) {
	s := newTestServer(t, true)

	w, resp := s.do(t, http.MethodGet, "/api/settings", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), resp["count"])

	w, resp = s.do(t, http.MethodGet, "/api/settings?section=date", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), resp["count"])

	w, resp = s.do(t, http.MethodGet, "/api/settings/memory_limit", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "128M", resp["value"])
	assert.Equal(t, "PHP", resp["section"])

	w, _ = s.do(t, http.MethodGet, "/api/settings/missing_setting", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, resp = s.do(t, http.MethodPut, "/api/settings/memory_limit", `{"value":"256M"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, resp["changed"])
	assert.NotEmpty(t, resp["transaction_id"])

	w, resp = s.do(t, http.MethodPut, "/api/settings/memory_limit", `{"value":"256M"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, resp["changed"])

	w, resp = s.do(t, http.MethodPut, "/api/settings/date.timezone", `{"value":"UTC","section":"Date"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, resp["changed"])

	content := s.readIni(t)
	assert.Contains(t, content, "memory_limit = 256M")
	assert.Contains(t, content, "[Date]\ndate.timezone = UTC")

	w, _ = s.do(t, http.MethodDelete, "/api/settings/memory_limit", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, s.readIni(t), "memory_limit")

	w, _ = s.do(t, http.MethodDelete, "/api/settings/memory_limit", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSetSettingRejectsBadName(t *testing.T) {
	s := newTestServer(t, true)

	w, resp := s.do(t, http.MethodPut, "/api/settings/bad=name", `{"value":"1"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid input", resp["error"])
}

func TestExtensions(t *testing.T) {
	s := newTestServer(t, true)

	w, resp := s.do(t, http.MethodGet, "/api/extensions", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(3), resp["count"])
	assert.Equal(t, float64(1), resp["enabled"])

	w, resp = s.do(t, http.MethodPut, "/api/extensions/php_curl.dll", `{"enabled":true}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, resp["changed"])
	assert.Contains(t, s.readIni(t), "[PHP_CURL]\nextension=php_curl.dll")

	w, resp = s.do(t, http.MethodPut, "/api/extensions/php_mbstring.dll", `{"enabled":false}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, resp["changed"])
	assert.NotContains(t, s.readIni(t), "extension=php_mbstring.dll")

	w, resp = s.do(t, http.MethodGet, "/api/extensions", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(3), resp["count"])
	assert.Equal(t, float64(1), resp["enabled"])

	w, _ = s.do(t, http.MethodPut, "/api/extensions/php_gd2.dll", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSetExtensionRejectsInjectedLines(t *testing.T) {
	s := newTestServer(t, true)

	for _, path := range []string{
		"/api/extensions/php_x.dll%0Aallow_url_include=On",
		"/api/extensions/php_x.dll%0D%0A%5BPHP%5D",
		"/api/extensions/%5Bphp_x%5D",
	} {
		w, resp := s.do(t, http.MethodPut, path, `{"enabled":true}`)
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
		assert.NotEmpty(t, resp["error"], path)
	}

	assert.Equal(t, testIni, s.readIni(t))

	var count int64
	require.NoError(t, db.DB.Model(&db.Transaction{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}
