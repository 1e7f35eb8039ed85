package repository

import (
	"context"

	"gorm.io/gorm"
)

// GormStore implements Store on top of a gorm database handle.
type GormStore struct {
	db      *gorm.DB
	users   *gormUserStore
	tenants *gormTenantStore
	tokens  *gormTokenStore
}

// NewStore wraps a gorm handle in a Store.
func NewStore(db *gorm.DB) *GormStore {
	return &GormStore{
		db:      db,
		users:   &gormUserStore{db: db},
		tenants: &gormTenantStore{db: db},
		tokens:  &gormTokenStore{db: db},
	}
}

// Users returns the user store.
func (s *GormStore) Users() UserStore { return s.users }

// Tenants returns the tenant store.
func (s *GormStore) Tenants() TenantStore { return s.tenants }

// Tokens returns the refresh token store.
func (s *GormStore) Tokens() TokenStore { return s.tokens }

// InTx runs fn inside a database transaction. Any error from fn rolls
// the whole transaction back.
func (s *GormStore) InTx(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

var _ Store = (*GormStore)(nil)
