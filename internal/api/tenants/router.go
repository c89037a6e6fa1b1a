package tenants

import (
	"github.com/gin-gonic/gin"

	"github.com/Conversly/lightning-whatsapp/internal/auth"
	"github.com/Conversly/lightning-whatsapp/internal/middleware"
)

func RegisterRoutes(router gin.IRouter, svc *Service, authenticator auth.Authenticator, adminKey string) {
	ctrl := NewController(svc)
	tenantAuth := middleware.TenantAuth(authenticator)

	router.POST("/register", middleware.AdminAuth(adminKey), ctrl.Register)
	router.POST("/upload_resource", tenantAuth, ctrl.UploadResource)
	router.GET("/conversations", tenantAuth, ctrl.ListConversations)
}
