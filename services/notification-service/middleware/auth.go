package middleware

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	"github.com/pheebyy/carelink/services/common/auth"
	apperrors "github.com/pheebyy/carelink/services/common/errors"
)

const (
	UserContextKey = "userID"
	RoleContextKey = "role"
	AdminRole      = "admin"

	// TriggerSecretHeader carries the shared secret of the message-created trigger.
	TriggerSecretHeader = "X-Trigger-Secret"
)

// AuthMiddleware requires a bearer token when validator is set, else the upstream X-User-ID header.
func AuthMiddleware(validator *auth.TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var userID, role string
		if validator == nil {
			userID = c.GetHeader("X-User-ID")
			role = c.GetHeader("X-User-Role")
		} else if claims, err := validator.Validate(auth.BearerToken(c.GetHeader("Authorization")), ""); err == nil {
			userID, role = claims.UserID, claims.Role
		}

		if userID == "" {
			abort(c, apperrors.Unauthenticated("unauthorized"))
			return
		}
		c.Set(UserContextKey, userID)
		c.Set(RoleContextKey, role)
		c.Next()
	}
}

func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(RoleContextKey) != AdminRole {
			abort(c, apperrors.PermissionDenied("admin role required"))
			return
		}
		c.Next()
	}
}

// TriggerAuth guards the internal event trigger. An empty secret disables the check.
func TriggerAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.Next()
			return
		}
		got := c.GetHeader(TriggerSecretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
			abort(c, apperrors.Unauthenticated("invalid trigger secret"))
			return
		}
		c.Next()
	}
}

func GetUserID(c *gin.Context) string {
	return c.GetString(UserContextKey)
}

func abort(c *gin.Context, appErr *apperrors.Error) {
	c.AbortWithStatusJSON(appErr.Code, gin.H{"error": appErr})
}
