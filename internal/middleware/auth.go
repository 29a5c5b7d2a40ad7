package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/zaqqye/questionnaire_backend/internal/models"
	"github.com/zaqqye/questionnaire_backend/internal/token"
)

// IdentityKey is the gin context key holding the caller's token.Identity.
const IdentityKey = "student"

const bearerPrefix = "Bearer "

// TokenVerifier is the part of token.Service the gate needs.
type TokenVerifier interface {
	Verify(tokenStr string) (*token.Claims, error)
}

// AuthMiddleware rejects requests without a valid bearer token. It never
// reads a store: identity comes from the token alone.
func AuthMiddleware(tokens TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, bearerPrefix) || strings.TrimSpace(auth[len(bearerPrefix):]) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "No token provided. Authorization header must be in format: Bearer <token>",
			})
			return
		}
		tokenStr := strings.TrimSpace(auth[len(bearerPrefix):])

		claims, err := tokens.Verify(tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "Invalid or expired token",
				"error":   err.Error(),
			})
			return
		}

		c.Set(IdentityKey, claims.Identity())
		c.Next()
	}
}

// CurrentIdentity returns the identity set by AuthMiddleware.
func CurrentIdentity(c *gin.Context) (token.Identity, bool) {
	v, ok := c.Get(IdentityKey)
	if !ok {
		return token.Identity{}, false
	}
	id, ok := v.(token.Identity)
	return id, ok
}

func RequireRoles(roles ...string) gin.HandlerFunc {
	allowed := map[string]struct{}{}
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		id, ok := CurrentIdentity(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "unauthorized"})
			return
		}
		if _, ok := allowed[id.Role]; !ok {
			// admin passes any role gate
			if id.Role != models.RoleAdmin {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "message": "forbidden"})
				return
			}
		}
		c.Next()
	}
}

// RequireSelfOrAdmin only lets the request through when the :param path
// value is the caller's own carnet, or the caller is an admin.
func RequireSelfOrAdmin(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := CurrentIdentity(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "unauthorized"})
			return
		}
		if id.Role != models.RoleAdmin && c.Param(param) != id.Carnet {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"message": "You can only read your own answers",
			})
			return
		}
		c.Next()
	}
}
