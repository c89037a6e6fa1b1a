package tenants

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Conversly/lightning-whatsapp/internal/auth"
	"github.com/Conversly/lightning-whatsapp/internal/loaders"
	"github.com/Conversly/lightning-whatsapp/internal/types"
	"github.com/Conversly/lightning-whatsapp/internal/utils"
)

const (
	maxKeyAttempts           = 3
	defaultConversationLimit = 50
	maxConversationLimit     = 200
)

var ErrInvalidName = errors.New("tenant name must not be blank")

// ResourceEmbedder computes the optional embedding stored with a resource.
type ResourceEmbedder interface {
	EmbedResource(ctx context.Context, content string) (string, error)
}

type Store interface {
	loaders.TenantStore
	loaders.ResourceStore
	loaders.ConversationStore
}

type Service struct {
	store    Store
	embedder ResourceEmbedder
	newKey   func() (string, error)
}

// NewService wires the tenant endpoints. embedder may be nil.
func NewService(store Store, embedder ResourceEmbedder) *Service {
	return &Service{store: store, embedder: embedder, newKey: auth.GenerateAPIKey}
}

// Register creates a tenant with a fresh API key. A taken name yields
// loaders.ErrTenantExists.
func (s *Service) Register(ctx context.Context, name string) (*types.Tenant, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidName
	}

	for attempt := 1; attempt <= maxKeyAttempts; attempt++ {
		key, err := s.newKey()
		if err != nil {
			return nil, err
		}

		tenant, err := s.store.CreateTenant(ctx, name, key)
		if errors.Is(err, loaders.ErrAPIKeyCollision) {
			utils.Zlog.Warn("Generated API key collided, retrying", zap.Int("attempt", attempt))
			continue
		}
		if err != nil {
			return nil, err
		}

		utils.Zlog.Info("Tenant registered",
			zap.Int64("tenant_id", tenant.ID),
			zap.String("name", tenant.Name),
			zap.String("api_key", utils.MaskSecret(tenant.APIKey)))
		return tenant, nil
	}
	return nil, fmt.Errorf("failed to issue a unique api key after %d attempts", maxKeyAttempts)
}

func (s *Service) UploadResource(ctx context.Context, tenant *types.Tenant, req *UploadResourceRequest) (*types.Resource, error) {
	r := &types.Resource{
		TenantID: tenant.ID,
		Name:     strings.TrimSpace(req.Name),
		Type:     strings.TrimSpace(req.Type),
		Content:  req.Content,
	}

	if s.embedder != nil {
		embedding, err := s.embedder.EmbedResource(ctx, req.Content)
		if err != nil {
			utils.Zlog.Warn("Failed to embed resource, storing without embedding",
				zap.Int64("tenant_id", tenant.ID),
				zap.String("resource", r.Name),
				zap.Error(err))
		} else {
			r.Embedding = &embedding
		}
	}

	created, err := s.store.CreateResource(ctx, r)
	if err != nil {
		return nil, err
	}

	utils.Zlog.Info("Resource uploaded",
		zap.Int64("tenant_id", tenant.ID),
		zap.Int64("resource_id", created.ID),
		zap.String("name", created.Name),
		zap.String("type", created.Type),
		zap.Int("content_bytes", len(created.Content)),
		zap.Bool("embedded", created.Embedding != nil))
	return created, nil
}

// ListConversations clamps limit to [1, 200], defaulting to 50.
func (s *Service) ListConversations(ctx context.Context, tenant *types.Tenant, limit int) ([]types.Conversation, error) {
	switch {
	case limit <= 0:
		limit = defaultConversationLimit
	case limit > maxConversationLimit:
		limit = maxConversationLimit
	}
	return s.store.ListConversations(ctx, tenant.ID, limit)
}
