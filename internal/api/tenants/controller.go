package tenants

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Conversly/lightning-whatsapp/internal/loaders"
	"github.com/Conversly/lightning-whatsapp/internal/middleware"
	"github.com/Conversly/lightning-whatsapp/internal/response"
	"github.com/Conversly/lightning-whatsapp/internal/types"
	"github.com/Conversly/lightning-whatsapp/internal/utils"
)

type Controller struct {
	svc *Service
}

func NewController(svc *Service) *Controller {
	return &Controller{svc: svc}
}

func baseResponse(c *gin.Context) types.BaseResponse {
	return types.BaseResponse{RequestID: c.GetString(middleware.RequestIDKey), Success: true}
}

// Register issues a new tenant and its API key.
// POST /register
func (ctrl *Controller) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Zlog.Warn("invalid /register payload", zap.Error(err))
		response.BadRequest(c, "bad_request", err)
		return
	}

	tenant, err := ctrl.svc.Register(c.Request.Context(), req.Name)
	switch {
	case errors.Is(err, ErrInvalidName):
		response.BadRequest(c, "invalid_name", err)
		return
	case errors.Is(err, loaders.ErrTenantExists):
		response.Error(c, http.StatusBadRequest, "tenant_exists")
		return
	case err != nil:
		utils.Zlog.Error("Tenant registration failed", zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "internal_error")
		return
	}

	c.JSON(http.StatusOK, RegisterResponse{
		BaseResponse: baseResponse(c),
		ID:           tenant.ID,
		Name:         tenant.Name,
		APIKey:       tenant.APIKey,
	})
}

// UploadResource stores a resource for the authenticated tenant.
// POST /upload_resource
func (ctrl *Controller) UploadResource(c *gin.Context) {
	tenant, ok := middleware.TenantFrom(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "invalid_api_key")
		return
	}

	var req UploadResourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Zlog.Warn("invalid /upload_resource payload", zap.Int64("tenant_id", tenant.ID), zap.Error(err))
		response.BadRequest(c, "bad_request", err)
		return
	}

	resource, err := ctrl.svc.UploadResource(c.Request.Context(), tenant, &req)
	if err != nil {
		utils.Zlog.Error("Resource upload failed", zap.Int64("tenant_id", tenant.ID), zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "internal_error")
		return
	}

	c.JSON(http.StatusOK, UploadResourceResponse{
		BaseResponse: baseResponse(c),
		ResourceID:   resource.ID,
		Name:         resource.Name,
		Type:         resource.Type,
	})
}

// ListConversations returns the tenant's latest exchanges.
// GET /conversations?limit=N
func (ctrl *Controller) ListConversations(c *gin.Context) {
	tenant, ok := middleware.TenantFrom(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "invalid_api_key")
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			response.BadRequest(c, "bad_request", err)
			return
		}
		limit = parsed
	}

	convs, err := ctrl.svc.ListConversations(c.Request.Context(), tenant, limit)
	if err != nil {
		utils.Zlog.Error("Listing conversations failed", zap.Int64("tenant_id", tenant.ID), zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "internal_error")
		return
	}

	items := make([]ConversationItem, 0, len(convs))
	for _, conv := range convs {
		items = append(items, ConversationItem{
			ID:        conv.ID,
			Sender:    conv.Sender,
			Message:   conv.Message,
			Response:  conv.Response,
			CreatedAt: conv.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, ConversationsResponse{BaseResponse: baseResponse(c), Conversations: items})
}
