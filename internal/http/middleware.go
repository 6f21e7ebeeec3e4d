package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"parking-gate-service/internal/domain/account"
	"parking-gate-service/internal/service"
)

const userContextKey = "auth_user"

// AuthMiddleware resolves the bearer token to a user before any ledger or
// registry call runs.
func AuthMiddleware(auth *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse("missing bearer token"))
			return
		}
		token := strings.TrimPrefix(header, "Bearer ")

		user, err := auth.ValidateToken(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse("internal error"))
			return
		}
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse("invalid or expired token"))
			return
		}

		c.Set(userContextKey, user)
		c.Next()
	}
}

// RequireAdmin gates the admin routes; it must run after AuthMiddleware.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		if user == nil || user.Role != account.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, errorResponse("admin role required"))
			return
		}
		c.Next()
	}
}

func currentUser(c *gin.Context) *account.User {
	v, ok := c.Get(userContextKey)
	if !ok {
		return nil
	}
	user, _ := v.(*account.User)
	return user
}
