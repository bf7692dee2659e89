package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const identityKey = "identity"

// Identity is the opaque caller claim attached by the auth layer. Credential
// issuance lives in a separate service; we only verify and read the claim.
type Identity struct {
	UserID string
	Role   string
}

const (
	RoleReporter  = "reporter"
	RoleResponder = "responder"
	RoleAdmin     = "admin"
)

// Secured verifies the bearer token and attaches the caller identity to the
// request context.
func Secured(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "missing bearer token",
			})
			return
		}

		if !authenticate(c, secret, strings.TrimPrefix(header, "Bearer ")) {
			return
		}
		c.Next()
	}
}

// OptionalSecured lets anonymous callers through with a zero identity, but a
// token that is present must still verify.
func OptionalSecured(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if strings.HasPrefix(header, "Bearer ") {
			if !authenticate(c, secret, strings.TrimPrefix(header, "Bearer ")) {
				return
			}
		}
		c.Next()
	}
}

func authenticate(c *gin.Context, secret, tokenStr string) bool {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error":   "invalid token",
		})
		return false
	}

	identity := Identity{}
	if sub, ok := claims["sub"].(string); ok {
		identity.UserID = sub
	}
	if role, ok := claims["role"].(string); ok {
		identity.Role = role
	}

	c.Set(identityKey, identity)
	return true
}

// RequireRoles rejects callers whose role is not in the allowed set.
func RequireRoles(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		identity := IdentityFrom(c)
		if !allowed[identity.Role] {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"error":   "insufficient role",
			})
			return
		}
		c.Next()
	}
}

// IdentityFrom returns the caller identity, zero-valued when unauthenticated.
func IdentityFrom(c *gin.Context) Identity {
	if v, exists := c.Get(identityKey); exists {
		if id, ok := v.(Identity); ok {
			return id
		}
	}
	return Identity{}
}
