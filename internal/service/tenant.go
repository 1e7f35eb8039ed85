package service

import (
	"context"
	"time"

	"auth-service/internal/model"
	"auth-service/internal/repository"
	"auth-service/internal/security"
)

// TenantLoginResult is the outcome of tenant-level authentication: the
// tenant, its owner user and whether the pair was just provisioned.
type TenantLoginResult struct {
	Tenant *model.Tenant
	Owner  *model.User
	IsNew  bool
}

// CascadeImpact summarizes how many users a tenant-level change would
// touch.
type CascadeImpact struct {
	TotalUsers    int64 `json:"total_users"`
	ActiveUsers   int64 `json:"active_users"`
	InactiveUsers int64 `json:"inactive_users"`
}

// CascadeResult reports a completed tenant update and the number of
// user rows the cascade reached.
type CascadeResult struct {
	Tenant        *model.Tenant `json:"tenant"`
	UsersAffected int64         `json:"users_affected"`
}

// TenantService manages tenant accounts, owner auto-provisioning and
// the cascades that keep user rows consistent with their tenant.
type TenantService struct {
	store repository.Store
	now   func() time.Time
}

// NewTenantService wires a tenant cascade manager.
func NewTenantService(store repository.Store) *TenantService {
	return &TenantService{store: store, now: time.Now}
}

// AuthenticateOrCreate logs a tenant in by email, provisioning the
// tenant and its OWNER user on first contact. The owner's username is
// the tenant email, so later renames never break the login identifier.
func (s *TenantService) AuthenticateOrCreate(ctx context.Context, email, password, name string) (*TenantLoginResult, error) {
	email = NormalizeEmail(email)

	tenant, found, err := s.store.Tenants().ByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if !found {
		return s.provision(ctx, email, password, name)
	}

	ok, err := security.VerifyPassword(password, tenant.PasswordHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}
	if !tenant.IsActive {
		return nil, ErrTenantDisabled
	}

	owner, found, err := s.store.Users().TenantOwner(ctx, tenant.ID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrTenantOwnerNotFound
	}
	if !owner.IsActive {
		return nil, ErrAccountDisabled
	}

	return &TenantLoginResult{Tenant: tenant, Owner: owner, IsNew: false}, nil
}

// provision creates the tenant and its owner user in one transaction.
func (s *TenantService) provision(ctx context.Context, email, password, name string) (*TenantLoginResult, error) {
	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, err
	}

	var result *TenantLoginResult
	err = s.store.InTx(ctx, func(tx repository.Store) error {
		tenant := &model.Tenant{
			Email:        email,
			Name:         name,
			PasswordHash: hash,
			IsActive:     true,
		}
		if err := tx.Tenants().Create(ctx, tenant); err != nil {
			return err
		}

		owner := &model.User{
			TenantID:     tenant.ID,
			Username:     email,
			Email:        email,
			PasswordHash: hash,
			Role:         model.RoleOwner,
			TenantName:   tenant.Name,
			IsActive:     true,
		}
		if err := tx.Users().Create(ctx, owner); err != nil {
			return err
		}

		result = &TenantLoginResult{Tenant: tenant, Owner: owner, IsNew: true}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Get returns a tenant by id.
func (s *TenantService) Get(ctx context.Context, tenantID uint) (*model.Tenant, error) {
	tenant, found, err := s.store.Tenants().ByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrTenantNotFound
	}
	return tenant, nil
}

// UpdateWithCascade renames a tenant and propagates the new name to the
// denormalized tenant_name column of every user, atomically. A nil name
// leaves the tenant untouched and cascades nothing.
func (s *TenantService) UpdateWithCascade(ctx context.Context, tenantID uint, name *string) (*CascadeResult, error) {
	if name == nil {
		tenant, err := s.Get(ctx, tenantID)
		if err != nil {
			return nil, err
		}
		return &CascadeResult{Tenant: tenant, UsersAffected: 0}, nil
	}

	var result *CascadeResult
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		tenant, found, err := tx.Tenants().SetName(ctx, tenantID, *name)
		if err != nil {
			return err
		}
		if !found {
			return ErrTenantNotFound
		}

		affected, err := tx.Users().CascadeTenantName(ctx, tenantID, *name)
		if err != nil {
			return err
		}

		result = &CascadeResult{Tenant: tenant, UsersAffected: affected}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateStatusWithCascade activates or deactivates a tenant and every
// one of its users in one transaction. The cascade overwrites any
// individual user status; reactivation restores all of them.
func (s *TenantService) UpdateStatusWithCascade(ctx context.Context, tenantID uint, active bool) (*CascadeResult, error) {
	var result *CascadeResult
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		tenant, found, err := tx.Tenants().SetActive(ctx, tenantID, active)
		if err != nil {
			return err
		}
		if !found {
			return ErrTenantNotFound
		}

		affected, err := tx.Users().CascadeActive(ctx, tenantID, active)
		if err != nil {
			return err
		}

		result = &CascadeResult{Tenant: tenant, UsersAffected: affected}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Impact reports how many users a cascade on this tenant would touch,
// without performing any write.
func (s *TenantService) Impact(ctx context.Context, tenantID uint) (*CascadeImpact, error) {
	if _, found, err := s.store.Tenants().ByID(ctx, tenantID); err != nil {
		return nil, err
	} else if !found {
		return nil, ErrTenantNotFound
	}

	total, active, err := s.store.Users().CountByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return &CascadeImpact{
		TotalUsers:    total,
		ActiveUsers:   active,
		InactiveUsers: total - active,
	}, nil
}

// ListUsers returns a page of the tenant's users.
func (s *TenantService) ListUsers(ctx context.Context, tenantID uint, offset, limit int) ([]model.User, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.Users().ListByTenant(ctx, tenantID, offset, limit)
}
