package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"archivo-storage-api/internal/infrastructure/jwt"
)

const (
	CtxUserRole = "userRole"
	CtxUserID   = "userID"

	RoleAdmin = "admin"
)

func AuthMiddleware(jwtService *jwt.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(
				http.StatusUnauthorized,
				gin.H{"error": "missing Authorization header"},
			)
			return
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenStr == authHeader {
			c.AbortWithStatusJSON(
				http.StatusUnauthorized,
				gin.H{"error": "invalid token format"},
			)
			return
		}

		claims, err := jwtService.ValidateToken(tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(
				http.StatusUnauthorized,
				gin.H{"error": "invalid token"},
			)
			return
		}

		c.Set(CtxUserRole, claims.Role)
		c.Set(CtxUserID, claims.UserID)

		c.Next()
	}
}

// AdminMiddleware must run after AuthMiddleware.
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(CtxUserRole) != RoleAdmin {
			c.AbortWithStatusJSON(
				http.StatusForbidden,
				gin.H{"error": "admin role required"},
			)
			return
		}

		c.Next()
	}
}

// Actor is the audit identity of the authenticated caller.
func Actor(c *gin.Context) string {
	if id := c.GetString(CtxUserID); id != "" {
		return id
	}
	return "anonimo"
}
