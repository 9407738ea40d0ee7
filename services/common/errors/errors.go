package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Callable-style error statuses returned to the mobile client.
const (
	StatusInvalidArgument   = "invalid-argument"
	StatusUnauthenticated   = "unauthenticated"
	StatusPermissionDenied  = "permission-denied"
	StatusResourceExhausted = "resource-exhausted"
	StatusInternal          = "internal"
)

// Error represents an application error
type Error struct {
	Code    int    `json:"-"`
	Status  string `json:"status"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a new Error
func New(code int, status, message string, err error) *Error {
	return &Error{
		Code:    code,
		Status:  status,
		Message: message,
		Err:     err,
	}
}

func InvalidArgument(message string) *Error {
	return New(http.StatusBadRequest, StatusInvalidArgument, message, nil)
}

func Unauthenticated(message string) *Error {
	return New(http.StatusUnauthorized, StatusUnauthenticated, message, nil)
}

func PermissionDenied(message string) *Error {
	return New(http.StatusForbidden, StatusPermissionDenied, message, nil)
}

func Internal(message string, err error) *Error {
	return New(http.StatusInternalServerError, StatusInternal, message, err)
}

// From returns err as an *Error, wrapping anything else as a generic internal error.
func From(err error) *Error {
	var appErr *Error
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return Internal("Internal server error", err)
}

// IsStatus reports whether err carries the given callable status.
func IsStatus(err error, status string) bool {
	var appErr *Error
	return stderrors.As(err, &appErr) && appErr.Status == status
}

// ErrorMiddleware renders the last error attached with c.Error as {"error":{"status","message"}}.
func ErrorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		appErr := From(c.Errors.Last().Err)
		c.AbortWithStatusJSON(appErr.Code, gin.H{"error": appErr})
	}
}
