package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/Conversly/lightning-whatsapp/internal/api/channels/whatsapp"
	"github.com/Conversly/lightning-whatsapp/internal/api/tenants"
	"github.com/Conversly/lightning-whatsapp/internal/auth"
	"github.com/Conversly/lightning-whatsapp/internal/config"
	"github.com/Conversly/lightning-whatsapp/internal/llm"
	"github.com/Conversly/lightning-whatsapp/internal/loaders"
	"github.com/Conversly/lightning-whatsapp/internal/middleware"
	"github.com/Conversly/lightning-whatsapp/internal/rag"
)

// Dependencies are the collaborators the HTTP layer is built from.
type Dependencies struct {
	Config    *config.Config
	Store     loaders.Store
	Completer llm.Completer
	Tasks     whatsapp.TaskDispatcher
	// Embedder is optional.
	Embedder tenants.ResourceEmbedder
}

// SetupRoutes configures all application routes
func SetupRoutes(router *gin.Engine, deps Dependencies) {
	cfg := deps.Config

	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(middleware.RequestID())

	authenticator := auth.NewAuthenticator(deps.Store, cfg.DefaultTenantAPIKey)

	SetupHealthRoutes(router, deps.Store, cfg)

	whatsapp.RegisterRoutes(router,
		whatsapp.NewSignatureVerifier(cfg.TwilioAuthToken, cfg.ValidateTwilioSignature, cfg.PublicBaseURL),
		authenticator,
		whatsapp.NewService(rag.NewContextBuilder(deps.Store, cfg.ContextMaxLines), deps.Completer, deps.Tasks),
	)
	tenants.RegisterRoutes(router, tenants.NewService(deps.Store, deps.Embedder), authenticator, cfg.AdminAPIKey)

	Setup404Handler(router)
}
