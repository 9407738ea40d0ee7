package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/pheebyy/carelink/services/common/auth"
	apperrors "github.com/pheebyy/carelink/services/common/errors"
)

const (
	UserKey = "userID"
	RoleKey = "userRole"
)

// AuthMiddleware authenticates callable routes. With a validator it requires a bearer token;
// without one it trusts the X-User-ID / X-User-Role headers set by the upstream gateway.
func AuthMiddleware(validator *auth.TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if validator == nil {
			userID := c.GetHeader("X-User-ID")
			if userID == "" {
				abortUnauthenticated(c)
				return
			}
			c.Set(UserKey, userID)
			c.Set(RoleKey, c.GetHeader("X-User-Role"))
			c.Next()
			return
		}

		claims, err := validator.Validate(auth.BearerToken(c.GetHeader("Authorization")), "")
		if err != nil {
			abortUnauthenticated(c)
			return
		}
		c.Set(UserKey, claims.UserID)
		c.Set(RoleKey, claims.Role)
		c.Next()
	}
}

func abortUnauthenticated(c *gin.Context) {
	appErr := apperrors.Unauthenticated("The function must be called while authenticated.")
	c.AbortWithStatusJSON(appErr.Code, gin.H{"error": appErr})
}

func GetUserID(c *gin.Context) string {
	return c.GetString(UserKey)
}

func GetUserRole(c *gin.Context) string {
	return c.GetString(RoleKey)
}
