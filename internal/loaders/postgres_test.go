package loaders

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conversly/lightning-whatsapp/internal/types"
)

func TestMigrateURL(t *testing.T) {
	assert.Equal(t, "pgx5://u:p@localhost:5432/app", migrateURL("postgres://u:p@localhost:5432/app"))
	assert.Equal(t, "pgx5://u:p@localhost:5432/app", migrateURL("postgresql://u:p@localhost:5432/app"))
	assert.Equal(t, "pgx5://already", migrateURL("pgx5://already"))
}

// newTestClient migrates a scratch database named by TEST_DATABASE_URL.
func newTestClient(t *testing.T) *PostgresClient {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	require.NoError(t, MigrateDown(dsn))
	require.NoError(t, MigrateUp(dsn))

	client, err := NewPostgresClient(dsn, 2)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestPostgresClient_Tenants(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	acme, err := c.CreateTenant(ctx, "Acme", "wak_acme")
	require.NoError(t, err)
	assert.NotZero(t, acme.ID)

	_, err = c.CreateTenant(ctx, "Acme", "wak_other")
	assert.ErrorIs(t, err, ErrTenantExists)

	_, err = c.CreateTenant(ctx, "Globex", "wak_acme")
	assert.ErrorIs(t, err, ErrAPIKeyCollision)

	got, err := c.GetTenantByAPIKey(ctx, "wak_acme")
	require.NoError(t, err)
	assert.Equal(t, acme.ID, got.ID)

	_, err = c.GetTenantByAPIKey(ctx, "wak_missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresClient_ResourcesAndConversations(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	tenant, err := c.CreateTenant(ctx, "Acme", "wak_acme")
	require.NoError(t, err)

	_, err = c.CreateResource(ctx, &types.Resource{TenantID: tenant.ID + 1000, Name: "x", Type: "json", Content: "[]"})
	assert.ErrorIs(t, err, ErrNotFound)

	embedding := "[0.1,0.2]"
	for _, name := range []string{"catalog", "faq"} {
		_, err := c.CreateResource(ctx, &types.Resource{TenantID: tenant.ID, Name: name, Type: "json", Content: "[]", Embedding: &embedding})
		require.NoError(t, err)
	}
	resources, err := c.ListResourcesByTenant(ctx, tenant.ID)
	require.NoError(t, err)
	require.Len(t, resources, 2)
	assert.Equal(t, "catalog", resources[0].Name)
	require.NotNil(t, resources[0].Embedding)

	tenantID := tenant.ID
	for _, msg := range []string{"one", "two"} {
		_, err := c.InsertConversation(ctx, &types.Conversation{Sender: "+1", Message: msg, Response: "ok", TenantID: &tenantID})
		require.NoError(t, err)
	}
	_, err = c.InsertConversation(ctx, &types.Conversation{Sender: "+2", Message: "orphan", Response: "ok"})
	require.NoError(t, err)

	convs, err := c.ListConversations(ctx, tenant.ID, 10)
	require.NoError(t, err)
	require.Len(t, convs, 2)
	assert.Equal(t, "two", convs[0].Message)

	require.NoError(t, c.Ping(ctx))
}
