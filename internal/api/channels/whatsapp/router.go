package whatsapp

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Conversly/lightning-whatsapp/internal/auth"
	"github.com/Conversly/lightning-whatsapp/internal/middleware"
	"github.com/Conversly/lightning-whatsapp/internal/utils"
)

// RegisterRoutes mounts the Twilio webhook. Signature verification runs
// before tenant resolution so rejected callbacks never touch the store.
func RegisterRoutes(router gin.IRouter, verifier *SignatureVerifier, authenticator auth.Authenticator, service *Service) {
	ctrl := NewController(service)

	router.POST("/message",
		verifier.Middleware(),
		middleware.TenantAuth(authenticator),
		ctrl.Webhook,
	)

	utils.Zlog.Info("WhatsApp routes registered", zap.String("webhook_endpoint", "/message [POST]"))
}
