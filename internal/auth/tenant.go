package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Conversly/lightning-whatsapp/internal/loaders"
	"github.com/Conversly/lightning-whatsapp/internal/types"
)

var (
	// ErrUnauthorized means the caller's credential is missing or unknown.
	ErrUnauthorized = errors.New("invalid or missing api key")
	// ErrMisconfigured means the configured fallback credential matches no tenant.
	ErrMisconfigured = errors.New("fallback api key does not match any tenant")
)

// Authenticator resolves the tenant a request acts for.
type Authenticator interface {
	Authenticate(ctx context.Context, apiKey string) (*types.Tenant, error)
}

type TenantLookup interface {
	GetTenantByAPIKey(ctx context.Context, apiKey string) (*types.Tenant, error)
}

// APIKeyAuthenticator matches the key exactly against issued tenant keys.
type APIKeyAuthenticator struct {
	tenants TenantLookup
}

func NewAPIKeyAuthenticator(tenants TenantLookup) *APIKeyAuthenticator {
	return &APIKeyAuthenticator{tenants: tenants}
}

func (a *APIKeyAuthenticator) Authenticate(ctx context.Context, apiKey string) (*types.Tenant, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, ErrUnauthorized
	}

	tenant, err := a.tenants.GetTenantByAPIKey(ctx, apiKey)
	if errors.Is(err, loaders.ErrNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, fmt.Errorf("tenant lookup failed: %w", err)
	}
	return tenant, nil
}

// FallbackAuthenticator substitutes a fixed credential when the caller sends
// none, so a single-tenant deployment needs no header from its provider.
type FallbackAuthenticator struct {
	next        Authenticator
	fallbackKey string
}

func NewFallbackAuthenticator(next Authenticator, fallbackKey string) *FallbackAuthenticator {
	return &FallbackAuthenticator{next: next, fallbackKey: strings.TrimSpace(fallbackKey)}
}

func (a *FallbackAuthenticator) Authenticate(ctx context.Context, apiKey string) (*types.Tenant, error) {
	if strings.TrimSpace(apiKey) != "" || a.fallbackKey == "" {
		return a.next.Authenticate(ctx, apiKey)
	}

	tenant, err := a.next.Authenticate(ctx, a.fallbackKey)
	if errors.Is(err, ErrUnauthorized) {
		return nil, ErrMisconfigured
	}
	return tenant, err
}

// NewAuthenticator returns the API-key policy, wrapped with the fallback
// credential when one is configured.
func NewAuthenticator(tenants TenantLookup, fallbackKey string) Authenticator {
	base := NewAPIKeyAuthenticator(tenants)
	if strings.TrimSpace(fallbackKey) == "" {
		return base
	}
	return NewFallbackAuthenticator(base, fallbackKey)
}
