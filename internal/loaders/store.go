package loaders

import (
	"context"

	"github.com/Conversly/lightning-whatsapp/internal/types"
)

type TenantStore interface {
	CreateTenant(ctx context.Context, name, apiKey string) (*types.Tenant, error)
	GetTenantByAPIKey(ctx context.Context, apiKey string) (*types.Tenant, error)
}

type ResourceStore interface {
	CreateResource(ctx context.Context, r *types.Resource) (*types.Resource, error)
	ListResourcesByTenant(ctx context.Context, tenantID int64) ([]types.Resource, error)
}

// ConversationStore is append-only: there is no update or delete.
type ConversationStore interface {
	InsertConversation(ctx context.Context, conv *types.Conversation) (int64, error)
	ListConversations(ctx context.Context, tenantID int64, limit int) ([]types.Conversation, error)
}

// Store is everything the HTTP layer needs from persistence.
type Store interface {
	TenantStore
	ResourceStore
	ConversationStore
	Ping(ctx context.Context) error
}
