package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Conversly/lightning-whatsapp/internal/auth"
	"github.com/Conversly/lightning-whatsapp/internal/response"
	"github.com/Conversly/lightning-whatsapp/internal/types"
	"github.com/Conversly/lightning-whatsapp/internal/utils"
)

const (
	APIKeyHeader = "X-API-Key"
	TenantKey    = "tenant"
)

// TenantAuth resolves the tenant from X-API-Key and stores it on the context.
func TenantAuth(authenticator auth.Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenant, err := authenticator.Authenticate(c.Request.Context(), c.GetHeader(APIKeyHeader))
		switch {
		case err == nil:
			c.Set(TenantKey, tenant)
			c.Next()
		case errors.Is(err, auth.ErrUnauthorized):
			utils.Zlog.Warn("Tenant authentication failed",
				zap.String("path", c.FullPath()),
				zap.String("client_ip", c.ClientIP()))
			response.AbortWithError(c, http.StatusUnauthorized, "invalid_api_key")
		default:
			utils.Zlog.Error("Tenant resolution failed",
				zap.String("path", c.FullPath()),
				zap.Error(err))
			response.AbortWithError(c, http.StatusInternalServerError, "tenant_resolution_failed")
		}
	}
}

// TenantFrom returns the tenant set by TenantAuth.
func TenantFrom(c *gin.Context) (*types.Tenant, bool) {
	v, ok := c.Get(TenantKey)
	if !ok {
		return nil, false
	}
	tenant, ok := v.(*types.Tenant)
	return tenant, ok && tenant != nil
}
