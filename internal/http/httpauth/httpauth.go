package httpauth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storebidgo/internal/http/httpbody"
)

// Identity arrives from the external auth layer as trusted headers; this
// service never issues or verifies credentials itself.
const (
	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"

	RoleAdmin = "ADMIN"

	ctxUserID = "auth_user_id"
	ctxRole   = "auth_role"
)

// UserID returns the authenticated caller's id, or "" when anonymous.
func UserID(c *gin.Context) string {
	return c.GetString(ctxUserID)
}

// RequireUser rejects anonymous requests.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := c.GetHeader(HeaderUserID)
		if uid == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				httpbody.ErrorResponse{Error: "authentication required"})
			return
		}
		c.Set(ctxUserID, uid)
		c.Set(ctxRole, c.GetHeader(HeaderUserRole))
		c.Next()
	}
}

// RequireAdmin rejects callers without the admin role. Implies RequireUser.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := c.GetHeader(HeaderUserID)
		if uid == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				httpbody.ErrorResponse{Error: "authentication required"})
			return
		}
		if c.GetHeader(HeaderUserRole) != RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden,
				httpbody.ErrorResponse{Error: "admin role required"})
			return
		}
		c.Set(ctxUserID, uid)
		c.Set(ctxRole, RoleAdmin)
		c.Next()
	}
}
