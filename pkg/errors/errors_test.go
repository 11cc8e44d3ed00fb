package errors

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thesabbir/phpmanager/pkg/phpconfig"
	"github.com/thesabbir/phpmanager/pkg/transaction"
)

func respond(t *testing.T, err error) (int, map[string]interface{}) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPut, "/api/settings/memory_limit", nil)
	Respond(c, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestRespond(t *testing.T) {
	iniPath := `C:\PHP\php.ini`

	tests := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{
			name:   "argument",
			err:    &phpconfig.ArgumentError{Name: "setting", Value: "a b", Reason: "bad"},
			status: http.StatusBadRequest,
			msg:    ErrInvalidInput,
		},
		{
			name:   "not registered",
			err:    &phpconfig.NotRegisteredError{Registration: phpconfig.RegistrationCgi},
			status: http.StatusConflict,
			msg:    ErrNotRegistered,
		},
		{
			name:   "missing file",
			err:    &phpconfig.FileError{Path: iniPath, Err: fs.ErrNotExist},
			status: http.StatusNotFound,
			msg:    ErrNotFound,
		},
		{
			name:   "unwritable file",
			err:    fmt.Errorf("save failed: %w", &phpconfig.FileError{Path: iniPath, Err: fs.ErrPermission}),
			status: http.StatusInternalServerError,
			msg:    ErrInternalServer,
		},
		{
			name:   "busy",
			err:    fmt.Errorf("apply: %w", transaction.ErrBusy),
			status: http.StatusConflict,
			msg:    ErrBusy,
		},
		{
			name:   "other",
			err:    fmt.Errorf("boom"),
			status: http.StatusInternalServerError,
			msg:    ErrInternalServer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := respond(t, tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.msg, body["error"])
		})
	}
}

func TestRespondArgumentDetails(t *testing.T) {
	_, body := respond(t, &phpconfig.ArgumentError{Name: "extension", Value: "x\ny", Reason: "invalid"})
	assert.Contains(t, body["details"], "invalid extension")
}
