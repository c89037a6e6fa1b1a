package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Conversly/lightning-whatsapp/internal/response"
)

const AdminKeyHeader = "X-Admin-Key"

// AdminAuth accepts X-Admin-Key or "Authorization: Bearer <key>". An empty
// adminKey disables the check.
func AdminAuth(adminKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if adminKey == "" {
			c.Next()
			return
		}

		key := c.GetHeader(AdminKeyHeader)
		if key == "" {
			if bearer := c.GetHeader("Authorization"); strings.HasPrefix(bearer, "Bearer ") {
				key = strings.TrimPrefix(bearer, "Bearer ")
			}
		}

		if key == "" {
			response.AbortWithError(c, http.StatusUnauthorized, "missing_admin_key")
			return
		}
		if subtle.ConstantTimeCompare([]byte(key), []byte(adminKey)) != 1 {
			response.AbortWithError(c, http.StatusUnauthorized, "invalid_admin_key")
			return
		}
		c.Next()
	}
}
