package errors

import (
	stderrors "errors"
	"io/fs"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thesabbir/phpmanager/pkg/logger"
	"github.com/thesabbir/phpmanager/pkg/phpconfig"
	"github.com/thesabbir/phpmanager/pkg/transaction"
)

// Common error messages (generic to avoid information leakage)
const (
	ErrNotFound        = "resource not found"
	ErrBadRequest      = "invalid request"
	ErrInternalServer  = "internal server error"
	ErrValidation      = "validation failed"
	ErrRateLimit       = "rate limit exceeded"
	ErrInvalidInput    = "invalid input"
	ErrOperationFailed = "operation failed"
	ErrNotRegistered   = "PHP is not registered with FastCGI"
	ErrBusy            = "another change is in progress"
)

// RespondWithError sends a generic error response and logs the detailed error
func RespondWithError(c *gin.Context, statusCode int, genericMessage string, detailedError error) {
	// Log the detailed error for debugging (not sent to client)
	if detailedError != nil {
		logger.Error("Request error",
			"path", c.Request.URL.Path,
			"method", c.Request.Method,
			"status", statusCode,
			"error", detailedError.Error(),
			"client_ip", c.ClientIP())
	}

	c.JSON(statusCode, gin.H{
		"error": genericMessage,
	})
}

// Respond maps err to a status code by its kind. Argument errors echo their
// message since it only describes caller input. File errors are 404 only when
// the file is missing; failing to read or write an existing one is a 500.
func Respond(c *gin.Context, err error) {
	var argErr *phpconfig.ArgumentError
	var fileErr *phpconfig.FileError
	var notRegistered *phpconfig.NotRegisteredError

	switch {
	case stderrors.As(err, &argErr):
		logger.Warn("Invalid request", "path", c.Request.URL.Path, "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": ErrInvalidInput, "details": argErr.Error()})
	case stderrors.As(err, &notRegistered):
		logger.Warn("PHP not registered", "path", c.Request.URL.Path, "registration", notRegistered.Registration)
		c.JSON(http.StatusConflict, gin.H{"error": ErrNotRegistered, "registration": notRegistered.Registration})
	case stderrors.As(err, &fileErr) && stderrors.Is(fileErr.Err, fs.ErrNotExist):
		RespondWithError(c, http.StatusNotFound, ErrNotFound, err)
	case stderrors.Is(err, transaction.ErrBusy):
		RespondWithError(c, http.StatusConflict, ErrBusy, err)
	default:
		InternalServerError(c, err)
	}
}

// Convenience functions for common error scenarios

func BadRequest(c *gin.Context, err error) {
	RespondWithError(c, http.StatusBadRequest, ErrBadRequest, err)
}

func NotFound(c *gin.Context, err error) {
	RespondWithError(c, http.StatusNotFound, ErrNotFound, err)
}

func InternalServerError(c *gin.Context, err error) {
	RespondWithError(c, http.StatusInternalServerError, ErrInternalServer, err)
}

func ValidationError(c *gin.Context, err error) {
	RespondWithError(c, http.StatusBadRequest, ErrValidation, err)
}

func OperationFailed(c *gin.Context, err error) {
	RespondWithError(c, http.StatusInternalServerError, ErrOperationFailed, err)
}
