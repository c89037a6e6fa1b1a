package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Conversly/lightning-whatsapp/internal/config"
)

const version = "1.0.0"

type SystemController struct {
	cfg *config.Config
}

func NewSystemController(cfg *config.Config) *SystemController {
	return &SystemController{cfg: cfg}
}

// GET /api/v1/status
func (s *SystemController) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service":     s.cfg.ServiceName,
		"version":     version,
		"environment": s.cfg.Environment,
		"hostname":    s.cfg.Hostname,
		"timestamp":   time.Now().UTC(),
	})
}

// Info adds the runtime knobs that shape replies. No secrets.
// GET /api/v1/info
func (s *SystemController) Info(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service":            s.cfg.ServiceName,
		"version":            version,
		"environment":        s.cfg.Environment,
		"hostname":           s.cfg.Hostname,
		"debug":              s.cfg.Debug,
		"log_level":          s.cfg.LogLevel,
		"llm_model":          s.cfg.LLMModel,
		"queue_backend":      s.cfg.QueueBackend,
		"signature_checks":   s.cfg.ValidateTwilioSignature,
		"context_max_lines":  s.cfg.ContextMaxLines,
		"embed_resources":    s.cfg.EmbedResources,
		"single_tenant_mode": s.cfg.DefaultTenantAPIKey != "",
		"admin_protected":    s.cfg.AdminAPIKey != "",
		"timestamp":          time.Now().UTC(),
	})
}
