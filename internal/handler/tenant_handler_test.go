package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"auth-service/internal/handler"
	"auth-service/internal/middleware"
	"auth-service/internal/model"
	"auth-service/internal/repository"
	"auth-service/internal/service"

	"github.com/labstack/echo/v4"
)

// cascadeStore backs the tenant cascade endpoints with one tenant and
// its users held in memory.
type cascadeStore struct {
	repository.Store
	tenant *model.Tenant
	users  []*model.User
}

func (s *cascadeStore) Tenants() repository.TenantStore { return &cascadeTenants{s: s} }
func (s *cascadeStore) Users() repository.UserStore     { return &cascadeUsers{s: s} }

func (s *cascadeStore) InTx(ctx context.Context, fn func(repository.Store) error) error {
	return fn(s)
}

type cascadeTenants struct {
	repository.TenantStore
	s *cascadeStore
}

func (t *cascadeTenants) SetActive(ctx context.Context, id uint, active bool) (*model.Tenant, bool, error) {
	if t.s.tenant == nil || t.s.tenant.ID != id {
		return nil, false, nil
	}
	t.s.tenant.IsActive = active
	return t.s.tenant, true, nil
}

type cascadeUsers struct {
	repository.UserStore
	s *cascadeStore
}

func (u *cascadeUsers) CascadeActive(ctx context.Context, tenantID uint, active bool) (int64, error) {
	var affected int64
	for _, usr := range u.s.users {
		if usr.TenantID == tenantID {
			usr.IsActive = active
			affected++
		}
	}
	return affected, nil
}

func TestDeleteTenantSoftDeletesWithCascade(t *testing.T) {
	tenant := &model.Tenant{ID: 7, Name: "acme", IsActive: true}
	owner := &model.User{ID: 1, TenantID: 7, Role: model.RoleOwner, IsActive: true}
	member := &model.User{ID: 2, TenantID: 7, Role: model.RoleMember, IsActive: true}
	store := &cascadeStore{tenant: tenant, users: []*model.User{owner, member}}

	h := handler.NewTenantHandler(service.NewTenantService(store), nil)

	e := echo.New()
	req := httptest.NewRequest(http.MethodDelete, "/api/tenants/me", http.NoBody)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(middleware.SessionKey, &service.Session{User: owner})

	if err := h.Delete(c); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	// Soft delete: the tenant row survives, deactivated, with its users.
	if tenant.IsActive {
		t.Error("tenant still active after delete")
	}
	for _, usr := range store.users {
		if usr.IsActive {
			t.Errorf("user %d still active after delete", usr.ID)
		}
	}

	var resp struct {
		UsersAffected int64 `json:"users_affected"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.UsersAffected != 2 {
		t.Errorf("users_affected = %d, want 2", resp.UsersAffected)
	}
}

func TestDeleteTenantRequiresSession(t *testing.T) {
	h := handler.NewTenantHandler(service.NewTenantService(&cascadeStore{}), nil)

	e := echo.New()
	req := httptest.NewRequest(http.MethodDelete, "/api/tenants/me", http.NoBody)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Delete(c); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401 without a session", rec.Code)
	}
}
