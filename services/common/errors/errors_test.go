package errors_test

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/pheebyy/carelink/services/common/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestFrom(t *testing.T) {
	invalid := apperrors.InvalidArgument("reference is required")
	wrapped := fmt.Errorf("verify: %w", invalid)

	assert.Same(t, invalid, apperrors.From(wrapped))
	assert.True(t, apperrors.IsStatus(wrapped, apperrors.StatusInvalidArgument))

	plain := stderrors.New("boom")
	got := apperrors.From(plain)
	assert.Equal(t, http.StatusInternalServerError, got.Code)
	assert.Equal(t, apperrors.StatusInternal, got.Status)
	assert.ErrorIs(t, got, plain)
}

func TestErrorMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   int
		wantStatus string
		wantMsg    string
	}{
		{"invalid argument", apperrors.InvalidArgument("email is required"), http.StatusBadRequest, "invalid-argument", "email is required"},
		{"internal", apperrors.Internal("Payment verification failed.", stderrors.New("gateway down")), http.StatusInternalServerError, "internal", "Payment verification failed."},
		{"untyped", stderrors.New("db gone"), http.StatusInternalServerError, "internal", "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(apperrors.ErrorMiddleware())
			r.GET("/x", func(c *gin.Context) { _ = c.Error(tt.err) })

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

			assert.Equal(t, tt.wantCode, w.Code)
			var body struct {
				Error struct {
					Status  string `json:"status"`
					Message string `json:"message"`
				} `json:"error"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantStatus, body.Error.Status)
			assert.Equal(t, tt.wantMsg, body.Error.Message)
		})
	}
}

func TestErrorMiddleware_UntypedErrorsDoNotLeak(t *testing.T) {
	r := gin.New()
	r.Use(apperrors.ErrorMiddleware())
	r.GET("/a", func(c *gin.Context) { _ = c.Error(stderrors.New("first")) })
	r.GET("/b", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/a", nil))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/b", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.NotContains(t, w.Body.String(), "first")
}
