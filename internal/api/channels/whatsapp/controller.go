package whatsapp

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Conversly/lightning-whatsapp/internal/middleware"
	"github.com/Conversly/lightning-whatsapp/internal/response"
	"github.com/Conversly/lightning-whatsapp/internal/utils"
)

type Controller struct {
	service *Service
}

func NewController(service *Service) *Controller {
	return &Controller{service: service}
}

// WebhookForm is the subset of Twilio's inbound message callback we use.
type WebhookForm struct {
	From string `form:"From" binding:"required"`
	Body string `form:"Body" binding:"required"`
}

// Webhook handles Twilio's inbound message callback.
// POST /message
func (ctrl *Controller) Webhook(c *gin.Context) {
	var form WebhookForm
	if err := c.ShouldBind(&form); err != nil {
		utils.Zlog.Warn("Invalid WhatsApp webhook form", zap.Error(err))
		response.Error(c, http.StatusBadRequest, "invalid_payload")
		return
	}

	tenant, ok := middleware.TenantFrom(c)
	if !ok {
		response.Error(c, http.StatusInternalServerError, "tenant_resolution_failed")
		return
	}

	sender := StripChannelPrefix(form.From)
	_, err := ctrl.service.Reply(c.Request.Context(), InboundMessage{
		Tenant:    tenant,
		Sender:    sender,
		Body:      form.Body,
		RequestID: c.GetString(middleware.RequestIDKey),
	})
	if err != nil {
		utils.Zlog.Error("Failed to answer WhatsApp message",
			zap.Int64("tenant_id", tenant.ID),
			zap.String("sender", sender),
			zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "internal_error")
		return
	}

	// Twilio only needs the acknowledgement; the reply goes out via the REST API.
	c.Status(http.StatusOK)
}
