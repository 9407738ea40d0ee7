package auth

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v4"
)

// TokenValidator verifies HMAC-signed bearer tokens issued by the identity provider bridge.
type TokenValidator struct {
	secret []byte
}

// NewTokenValidator returns nil when secret is blank; callers treat a nil validator as "auth disabled".
func NewTokenValidator(secret string) *TokenValidator {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil
	}
	return &TokenValidator{secret: []byte(secret)}
}

// Claims is the subset of token claims the services read.
type Claims struct {
	UserID string
	Role   string
}

// Validate parses tokenStr and returns its claims. If expectedType is non-empty, the "typ" claim must match.
func (v *TokenValidator) Validate(tokenStr, expectedType string) (*Claims, error) {
	if v == nil {
		return nil, fmt.Errorf("JWT secret not configured")
	}

	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || token == nil || !token.Valid {
		return nil, fmt.Errorf("invalid or expired token")
	}

	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}
	if expectedType != "" {
		if typ, ok := mc["typ"].(string); !ok || typ != expectedType {
			return nil, fmt.Errorf("invalid token type")
		}
	}

	claims := &Claims{}
	claims.UserID, _ = mc["sub"].(string)
	if claims.UserID == "" {
		claims.UserID, _ = mc["user_id"].(string)
	}
	claims.Role, _ = mc["role"].(string)
	if claims.UserID == "" {
		return nil, fmt.Errorf("token has no subject")
	}
	return claims, nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header value.
func BearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
