package service_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"auth-service/internal/model"
	"auth-service/internal/repository"
)

// memStore is an in-memory repository.Store used by the service tests.
// A single mutex guards all state; InTx serializes transactions and
// restores a deep copy of the state when fn fails, mirroring rollback.
type memStore struct {
	mu   sync.Mutex
	txMu sync.Mutex

	users   map[uint]*model.User
	tenants map[uint]*model.Tenant
	tokens  map[string]*model.RefreshToken

	nextUserID   uint
	nextTenantID uint
	nextTokenID  uint

	// failCascade forces CascadeTenantName and CascadeActive to fail,
	// for atomicity tests.
	failCascade bool
}

func newMemStore() *memStore {
	return &memStore{
		users:   make(map[uint]*model.User),
		tenants: make(map[uint]*model.Tenant),
		tokens:  make(map[string]*model.RefreshToken),
	}
}

func (m *memStore) Users() repository.UserStore     { return (*memUsers)(m) }
func (m *memStore) Tenants() repository.TenantStore { return (*memTenants)(m) }
func (m *memStore) Tokens() repository.TokenStore   { return (*memTokens)(m) }

func (m *memStore) InTx(ctx context.Context, fn func(repository.Store) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	snapshot := m.snapshot()
	if err := fn(m); err != nil {
		m.restore(snapshot)
		return err
	}
	return nil
}

type memSnapshot struct {
	users   map[uint]*model.User
	tenants map[uint]*model.Tenant
	tokens  map[string]*model.RefreshToken
}

func (m *memStore) snapshot() memSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := memSnapshot{
		users:   make(map[uint]*model.User, len(m.users)),
		tenants: make(map[uint]*model.Tenant, len(m.tenants)),
		tokens:  make(map[string]*model.RefreshToken, len(m.tokens)),
	}
	for id, u := range m.users {
		copied := *u
		s.users[id] = &copied
	}
	for id, t := range m.tenants {
		copied := *t
		s.tenants[id] = &copied
	}
	for tok, r := range m.tokens {
		copied := *r
		s.tokens[tok] = &copied
	}
	return s
}

func (m *memStore) restore(s memSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users = s.users
	m.tenants = s.tenants
	m.tokens = s.tokens
}

// memUsers implements repository.UserStore.
type memUsers memStore

func (m *memUsers) Create(ctx context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextUserID++
	user.ID = m.nextUserID
	user.CreatedAt = time.Now().UTC()
	copied := *user
	m.users[user.ID] = &copied
	return nil
}

func (m *memUsers) ByID(ctx context.Context, id uint) (*model.User, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, false, nil
	}
	copied := *u
	return &copied, true, nil
}

func (m *memUsers) ByEmail(ctx context.Context, email string) (*model.User, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			copied := *u
			return &copied, true, nil
		}
	}
	return nil, false, nil
}

func (m *memUsers) ByTenantAndUsername(ctx context.Context, tenantID uint, username string) (*model.User, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.TenantID == tenantID && u.Username == username {
			copied := *u
			return &copied, true, nil
		}
	}
	return nil, false, nil
}

func (m *memUsers) TenantOwner(ctx context.Context, tenantID uint) (*model.User, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var owner *model.User
	for _, u := range m.users {
		if u.TenantID == tenantID && u.Role == model.RoleOwner {
			if owner == nil || u.ID < owner.ID {
				owner = u
			}
		}
	}
	if owner == nil {
		return nil, false, nil
	}
	copied := *owner
	return &copied, true, nil
}

func (m *memUsers) ListByTenant(ctx context.Context, tenantID uint, offset, limit int) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var users []model.User
	for id := uint(1); id <= m.nextUserID; id++ {
		u, ok := m.users[id]
		if ok && u.TenantID == tenantID {
			users = append(users, *u)
		}
	}
	if offset >= len(users) {
		return nil, nil
	}
	users = users[offset:]
	if limit < len(users) {
		users = users[:limit]
	}
	return users, nil
}

func (m *memUsers) Update(ctx context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.ID]; !ok {
		return errors.New("user not found")
	}
	copied := *user
	m.users[user.ID] = &copied
	return nil
}

func (m *memUsers) SetTOTPSecret(ctx context.Context, id uint, secret string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return false, nil
	}
	u.TOTPSecret = secret
	return true, nil
}

func (m *memUsers) EnableTOTP(ctx context.Context, id uint) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return false, nil
	}
	u.IsTOTPEnabled = true
	return true, nil
}

func (m *memUsers) CascadeTenantName(ctx context.Context, tenantID uint, name string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCascade {
		return 0, errors.New("forced cascade failure")
	}
	var affected int64
	for _, u := range m.users {
		if u.TenantID == tenantID {
			u.TenantName = name
			affected++
		}
	}
	return affected, nil
}

func (m *memUsers) CascadeActive(ctx context.Context, tenantID uint, active bool) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCascade {
		return 0, errors.New("forced cascade failure")
	}
	var affected int64
	for _, u := range m.users {
		if u.TenantID == tenantID {
			u.IsActive = active
			affected++
		}
	}
	return affected, nil
}

func (m *memUsers) CountByTenant(ctx context.Context, tenantID uint) (total, active int64, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.TenantID == tenantID {
			total++
			if u.IsActive {
				active++
			}
		}
	}
	return total, active, nil
}

// memTenants implements repository.TenantStore.
type memTenants memStore

func (m *memTenants) Create(ctx context.Context, tenant *model.Tenant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextTenantID++
	tenant.ID = m.nextTenantID
	tenant.CreatedAt = time.Now().UTC()
	copied := *tenant
	m.tenants[tenant.ID] = &copied
	return nil
}

func (m *memTenants) ByID(ctx context.Context, id uint) (*model.Tenant, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tenants[id]
	if !ok {
		return nil, false, nil
	}
	copied := *t
	return &copied, true, nil
}

func (m *memTenants) ByEmail(ctx context.Context, email string) (*model.Tenant, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tenants {
		if t.Email == email {
			copied := *t
			return &copied, true, nil
		}
	}
	return nil, false, nil
}

func (m *memTenants) SetName(ctx context.Context, id uint, name string) (*model.Tenant, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tenants[id]
	if !ok {
		return nil, false, nil
	}
	t.Name = name
	copied := *t
	return &copied, true, nil
}

func (m *memTenants) SetActive(ctx context.Context, id uint, active bool) (*model.Tenant, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tenants[id]
	if !ok {
		return nil, false, nil
	}
	t.IsActive = active
	copied := *t
	return &copied, true, nil
}

// memTokens implements repository.TokenStore.
type memTokens memStore

func (m *memTokens) Create(ctx context.Context, token *model.RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextTokenID++
	token.ID = m.nextTokenID
	token.CreatedAt = time.Now().UTC()
	copied := *token
	m.tokens[token.Token] = &copied
	return nil
}

func (m *memTokens) ByToken(ctx context.Context, token string) (*model.RefreshToken, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.tokens[token]
	if !ok {
		return nil, false, nil
	}
	copied := *r
	return &copied, true, nil
}

func (m *memTokens) Revoke(ctx context.Context, token string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.tokens[token]
	if !ok || r.IsRevoked {
		return false, nil
	}
	r.IsRevoked = true
	return true, nil
}

func (m *memTokens) RevokeAllForUser(ctx context.Context, userID uint) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var revoked int64
	for _, r := range m.tokens {
		if r.UserID == userID && !r.IsRevoked {
			r.IsRevoked = true
			revoked++
		}
	}
	return revoked, nil
}

var _ repository.Store = (*memStore)(nil)
