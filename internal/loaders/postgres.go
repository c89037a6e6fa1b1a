package loaders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/Conversly/lightning-whatsapp/internal/types"
	"github.com/Conversly/lightning-whatsapp/internal/utils"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrTenantExists    = errors.New("tenant name already exists")
	ErrAPIKeyCollision = errors.New("api key already issued")
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"

	constraintTenantName   = "tenants_name_key"
	constraintTenantAPIKey = "tenants_api_key_key"
)

type PostgresClient struct {
	dsn  string
	pool *pgxpool.Pool
}

var _ Store = (*PostgresClient)(nil)

func NewPostgresClient(dsn string, maxConns int) (*PostgresClient, error) {
	client := &PostgresClient{
		dsn: dsn,
	}

	pool, err := client.createConnectionPool(maxConns)
	if err != nil {
		return nil, err
	}

	client.pool = pool
	utils.Zlog.Info("Connected to PostgreSQL", zap.Int32("max_conns", pool.Config().MaxConns))
	return client, nil
}

func (c *PostgresClient) createConnectionPool(maxConns int) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(c.dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Postgres DSN: %w", err)
	}

	if maxConns > 0 {
		cfg.MaxConns = int32(maxConns) + 2
	}
	cfg.MinConns = 1
	cfg.HealthCheckPeriod = 30 * time.Second
	cfg.MaxConnLifetime = 60 * time.Minute
	cfg.MaxConnIdleTime = 15 * time.Minute

	pool, err := pgxpool.NewWithConfig(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping Postgres: %w", err)
	}

	return pool, nil
}

func (c *PostgresClient) Close() error {
	if c.pool != nil {
		c.pool.Close()
	}
	return nil
}

func (c *PostgresClient) Ping(ctx context.Context) error {
	return c.pool.Ping(ctx)
}

// CreateTenant inserts a tenant. Unique violations are mapped to
// ErrTenantExists (name) or ErrAPIKeyCollision (api key).
func (c *PostgresClient) CreateTenant(ctx context.Context, name, apiKey string) (*types.Tenant, error) {
	query := `
		INSERT INTO tenants (name, api_key)
		VALUES ($1, $2)
		RETURNING id, created_at
	`

	tenant := &types.Tenant{Name: name, APIKey: apiKey}
	err := c.pool.QueryRow(ctx, query, name, apiKey).Scan(&tenant.ID, &tenant.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			switch pgErr.ConstraintName {
			case constraintTenantName:
				return nil, ErrTenantExists
			case constraintTenantAPIKey:
				return nil, ErrAPIKeyCollision
			}
		}
		return nil, fmt.Errorf("failed to insert tenant: %w", err)
	}

	return tenant, nil
}

func (c *PostgresClient) GetTenantByAPIKey(ctx context.Context, apiKey string) (*types.Tenant, error) {
	query := `
		SELECT id, name, api_key, created_at
		FROM tenants
		WHERE api_key = $1
	`

	var t types.Tenant
	err := c.pool.QueryRow(ctx, query, apiKey).Scan(&t.ID, &t.Name, &t.APIKey, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tenant by api key: %w", err)
	}
	return &t, nil
}

// CreateResource stores a resource for an existing tenant. A missing tenant
// surfaces as ErrNotFound.
func (c *PostgresClient) CreateResource(ctx context.Context, r *types.Resource) (*types.Resource, error) {
	query := `
		INSERT INTO tenant_resources (tenant_id, name, type, content, embedding)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	out := *r
	err := c.pool.QueryRow(ctx, query, r.TenantID, r.Name, r.Type, r.Content, r.Embedding).
		Scan(&out.ID, &out.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to insert resource: %w", err)
	}
	return &out, nil
}

func (c *PostgresClient) ListResourcesByTenant(ctx context.Context, tenantID int64) ([]types.Resource, error) {
	query := `
		SELECT id, tenant_id, name, type, content, embedding, created_at
		FROM tenant_resources
		WHERE tenant_id = $1
		ORDER BY id
	`

	rows, err := c.pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query resources: %w", err)
	}
	defer rows.Close()

	var resources []types.Resource
	for rows.Next() {
		var r types.Resource
		if err := rows.Scan(&r.ID, &r.TenantID, &r.Name, &r.Type, &r.Content, &r.Embedding, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan resource row: %w", err)
		}
		resources = append(resources, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating resources: %w", err)
	}
	return resources, nil
}

// InsertConversation appends one exchange to the log inside its own
// transaction; the connection is released on every path.
func (c *PostgresClient) InsertConversation(ctx context.Context, conv *types.Conversation) (int64, error) {
	tx, err := c.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := `
		INSERT INTO conversations (sender, message, response, tenant_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	var id int64
	if err := tx.QueryRow(ctx, query, conv.Sender, conv.Message, conv.Response, conv.TenantID).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to insert conversation: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit conversation: %w", err)
	}
	return id, nil
}

// ListConversations returns the tenant's most recent exchanges, newest first.
func (c *PostgresClient) ListConversations(ctx context.Context, tenantID int64, limit int) ([]types.Conversation, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, sender, message, response, tenant_id, created_at
		FROM conversations
		WHERE tenant_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := c.pool.Query(ctx, query, tenantID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversations: %w", err)
	}
	defer rows.Close()

	var out []types.Conversation
	for rows.Next() {
		var conv types.Conversation
		if err := rows.Scan(&conv.ID, &conv.Sender, &conv.Message, &conv.Response, &conv.TenantID, &conv.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan conversation row: %w", err)
		}
		out = append(out, conv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating conversations: %w", err)
	}
	return out, nil
}
