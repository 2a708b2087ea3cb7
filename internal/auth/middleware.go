package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/KevinKickass/OpenRegMap/internal/types"
)

const (
	subjectKey = "subject"
	roleKey    = "role"
)

// Middleware validates the bearer token and stores subject and role on the context
func (j *JWTHandler) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, types.NewErrorResponse(
				types.CodeAuthUnauthorized, "missing authorization header", nil))
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, types.NewErrorResponse(
				types.CodeAuthUnauthorized, "invalid authorization header format", nil))
			return
		}

		claims, err := j.ValidateToken(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, types.NewErrorResponse(
				types.CodeAuthUnauthorized, "invalid or expired token", nil))
			return
		}

		c.Set(subjectKey, claims.Subject)
		c.Set(roleKey, claims.Role)
		c.Next()
	}
}

// RequireRole checks that the authenticated role is at least required
func RequireRole(required Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := c.Get(roleKey)
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, types.NewErrorResponse(
				types.CodeAuthForbidden, "no role found", nil))
			return
		}

		if r, _ := role.(Role); !r.Allows(required) {
			c.AbortWithStatusJSON(http.StatusForbidden, types.NewErrorResponse(
				types.CodeAuthForbidden, "insufficient permissions", gin.H{"required": string(required)}))
			return
		}

		c.Next()
	}
}

// Subject returns the token subject of an authenticated request, or "".
func Subject(c *gin.Context) string {
	return c.GetString(subjectKey)
}
