package auth

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conversly/lightning-whatsapp/internal/loaders/loaderstest"
	"github.com/Conversly/lightning-whatsapp/internal/types"
)

type failingLookup struct{}

func (failingLookup) GetTenantByAPIKey(ctx context.Context, apiKey string) (*types.Tenant, error) {
	return nil, errors.New("connection refused")
}

func TestAPIKeyAuthenticator(t *testing.T) {
	store := loaderstest.NewMemoryStore()
	acme, err := store.CreateTenant(context.Background(), "Acme", "wak_acme")
	require.NoError(t, err)

	a := NewAPIKeyAuthenticator(store)

	got, err := a.Authenticate(context.Background(), " wak_acme ")
	require.NoError(t, err)
	assert.Equal(t, acme.ID, got.ID)

	_, err = a.Authenticate(context.Background(), "wak_unknown")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = a.Authenticate(context.Background(), "")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = NewAPIKeyAuthenticator(failingLookup{}).Authenticate(context.Background(), "wak_acme")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnauthorized)
}

func TestFallbackAuthenticator(t *testing.T) {
	store := loaderstest.NewMemoryStore()
	a := NewAuthenticator(store, "wak_default")

	_, err := a.Authenticate(context.Background(), "")
	assert.ErrorIs(t, err, ErrMisconfigured, "zero tenants with a fallback key is a server fault")

	tenant, err := store.CreateTenant(context.Background(), "Solo", "wak_default")
	require.NoError(t, err)
	other, err := store.CreateTenant(context.Background(), "Other", "wak_other")
	require.NoError(t, err)

	got, err := a.Authenticate(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, tenant.ID, got.ID)

	got, err = a.Authenticate(context.Background(), "wak_other")
	require.NoError(t, err)
	assert.Equal(t, other.ID, got.ID)

	_, err = a.Authenticate(context.Background(), "wak_bogus")
	assert.ErrorIs(t, err, ErrUnauthorized, "an explicit bad key never falls back")
}

func TestNewAuthenticator_WithoutFallback(t *testing.T) {
	a := NewAuthenticator(loaderstest.NewMemoryStore(), "")
	_, isBase := a.(*APIKeyAuthenticator)
	assert.True(t, isBase)

	_, err := a.Authenticate(context.Background(), "")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestGenerateAPIKey(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		key, err := GenerateAPIKey()
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(key, "wak_"))
		assert.Len(t, key, len("wak_")+48)
		assert.False(t, seen[key])
		seen[key] = true
	}
}
