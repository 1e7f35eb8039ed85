// Package repository defines the credential store contracts and their
// gorm-backed implementations. Lookups report expected absence with a
// found flag instead of an error; errors are reserved for genuine
// store failures.
package repository

import (
	"context"

	"auth-service/internal/model"
)

// UserStore persists user records.
type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	ByID(ctx context.Context, id uint) (*model.User, bool, error)
	ByEmail(ctx context.Context, email string) (*model.User, bool, error)
	ByTenantAndUsername(ctx context.Context, tenantID uint, username string) (*model.User, bool, error)
	TenantOwner(ctx context.Context, tenantID uint) (*model.User, bool, error)
	ListByTenant(ctx context.Context, tenantID uint, offset, limit int) ([]model.User, error)
	Update(ctx context.Context, user *model.User) error
	SetTOTPSecret(ctx context.Context, id uint, secret string) (bool, error)
	EnableTOTP(ctx context.Context, id uint) (bool, error)

	// CascadeTenantName bulk-updates the denormalized tenant_name column
	// for every user in the tenant and returns the rows touched.
	CascadeTenantName(ctx context.Context, tenantID uint, name string) (int64, error)

	// CascadeActive bulk-updates is_active for every user in the tenant
	// and returns the rows touched.
	CascadeActive(ctx context.Context, tenantID uint, active bool) (int64, error)

	CountByTenant(ctx context.Context, tenantID uint) (total, active int64, err error)
}

// TenantStore persists tenant records. Callers pass emails already
// normalized to lowercase.
type TenantStore interface {
	Create(ctx context.Context, tenant *model.Tenant) error
	ByID(ctx context.Context, id uint) (*model.Tenant, bool, error)
	ByEmail(ctx context.Context, email string) (*model.Tenant, bool, error)
	SetName(ctx context.Context, id uint, name string) (*model.Tenant, bool, error)
	SetActive(ctx context.Context, id uint, active bool) (*model.Tenant, bool, error)
}

// TokenStore persists refresh tokens.
type TokenStore interface {
	Create(ctx context.Context, token *model.RefreshToken) error
	ByToken(ctx context.Context, token string) (*model.RefreshToken, bool, error)

	// Revoke flips is_revoked with an atomic conditional update and
	// reports whether this call performed the transition. Two concurrent
	// revocations of the same token see at most one true result, which
	// is what makes refresh rotation race-safe.
	Revoke(ctx context.Context, token string) (bool, error)

	RevokeAllForUser(ctx context.Context, userID uint) (int64, error)
}

// Store aggregates the individual stores and provides transactional
// execution. InTx runs fn against a store bound to a single transaction
// and rolls everything back if fn returns an error.
type Store interface {
	Users() UserStore
	Tenants() TenantStore
	Tokens() TokenStore
	InTx(ctx context.Context, fn func(Store) error) error
}
