// Package loaderstest provides an in-memory loaders.Store for tests.
package loaderstest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Conversly/lightning-whatsapp/internal/loaders"
	"github.com/Conversly/lightning-whatsapp/internal/types"
)

// MemoryStore mirrors the Postgres constraints: unique tenant names and keys,
// resources require an existing tenant, conversations are append-only.
type MemoryStore struct {
	mu            sync.Mutex
	nextID        int64
	tenants       []types.Tenant
	resources     []types.Resource
	conversations []types.Conversation

	// Optional failure injection.
	ListResourcesErr      error
	InsertConversationErr error
	PingErr               error
}

var _ loaders.Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *MemoryStore) CreateTenant(ctx context.Context, name, apiKey string) (*types.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, t := range m.tenants {
		if t.Name == name {
			return nil, loaders.ErrTenantExists
		}
		if t.APIKey == apiKey {
			return nil, loaders.ErrAPIKeyCollision
		}
	}
	t := types.Tenant{ID: m.id(), Name: name, APIKey: apiKey, CreatedAt: time.Now().UTC()}
	m.tenants = append(m.tenants, t)
	return &t, nil
}

func (m *MemoryStore) GetTenantByAPIKey(ctx context.Context, apiKey string) (*types.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, t := range m.tenants {
		if t.APIKey == apiKey {
			out := t
			return &out, nil
		}
	}
	return nil, loaders.ErrNotFound
}

func (m *MemoryStore) CreateResource(ctx context.Context, r *types.Resource) (*types.Resource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	found := false
	for _, t := range m.tenants {
		if t.ID == r.TenantID {
			found = true
			break
		}
	}
	if !found {
		return nil, loaders.ErrNotFound
	}

	out := *r
	out.ID = m.id()
	out.CreatedAt = time.Now().UTC()
	m.resources = append(m.resources, out)
	return &out, nil
}

func (m *MemoryStore) ListResourcesByTenant(ctx context.Context, tenantID int64) ([]types.Resource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ListResourcesErr != nil {
		return nil, m.ListResourcesErr
	}
	var out []types.Resource
	for _, r := range m.resources {
		if r.TenantID == tenantID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *MemoryStore) InsertConversation(ctx context.Context, conv *types.Conversation) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.InsertConversationErr != nil {
		return 0, m.InsertConversationErr
	}
	out := *conv
	out.ID = m.id()
	out.CreatedAt = time.Now().UTC()
	m.conversations = append(m.conversations, out)
	return out.ID, nil
}

func (m *MemoryStore) ListConversations(ctx context.Context, tenantID int64, limit int) ([]types.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []types.Conversation
	for _, c := range m.conversations {
		if c.TenantID != nil && *c.TenantID == tenantID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) Ping(ctx context.Context) error {
	return m.PingErr
}

// Conversations returns a snapshot of every logged exchange.
func (m *MemoryStore) Conversations() []types.Conversation {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]types.Conversation(nil), m.conversations...)
}

// Tenants returns a snapshot of every registered tenant.
func (m *MemoryStore) Tenants() []types.Tenant {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]types.Tenant(nil), m.tenants...)
}
