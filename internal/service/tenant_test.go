package service_test

import (
	"context"
	"errors"
	"testing"

	"auth-service/internal/model"
	"auth-service/internal/service"
)

func TestTenantLoginProvisionsOnFirstContact(t *testing.T) {
	store := newMemStore()
	tenants := service.NewTenantService(store)

	result, err := tenants.AuthenticateOrCreate(context.Background(), "Owner@Acme.COM", testPassword, "Acme Corp")
	if err != nil {
		t.Fatalf("AuthenticateOrCreate: %v", err)
	}
	if !result.IsNew {
		t.Error("IsNew = false on first contact")
	}
	if result.Tenant.Email != "owner@acme.com" {
		t.Errorf("tenant email = %q, want normalized lowercase", result.Tenant.Email)
	}
	if result.Owner.Role != model.RoleOwner {
		t.Errorf("owner role = %q, want OWNER", result.Owner.Role)
	}
	if result.Owner.Username != "owner@acme.com" {
		t.Errorf("owner username = %q, want the tenant email", result.Owner.Username)
	}
	if result.Owner.TenantID != result.Tenant.ID {
		t.Error("owner not linked to the provisioned tenant")
	}

	// Second login finds the same pair.
	again, err := tenants.AuthenticateOrCreate(context.Background(), "owner@acme.com", testPassword, "")
	if err != nil {
		t.Fatalf("second login: %v", err)
	}
	if again.IsNew {
		t.Error("IsNew = true on second contact")
	}
	if again.Tenant.ID != result.Tenant.ID || again.Owner.ID != result.Owner.ID {
		t.Error("second login resolved a different tenant or owner")
	}
}

func TestTenantLoginRejectsBadPassword(t *testing.T) {
	store := newMemStore()
	tenants := service.NewTenantService(store)

	if _, err := tenants.AuthenticateOrCreate(context.Background(), "owner@acme.com", testPassword, "Acme"); err != nil {
		t.Fatal(err)
	}

	_, err := tenants.AuthenticateOrCreate(context.Background(), "owner@acme.com", "wrong", "")
	if !errors.Is(err, service.ErrInvalidCredentials) {
		t.Errorf("err = %v, want ErrInvalidCredentials", err)
	}
}

func TestTenantLoginDisabledTenant(t *testing.T) {
	store := newMemStore()
	tenants := service.NewTenantService(store)

	result, err := tenants.AuthenticateOrCreate(context.Background(), "owner@acme.com", testPassword, "Acme")
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := store.Tenants().SetActive(context.Background(), result.Tenant.ID, false); err != nil {
		t.Fatal(err)
	}

	_, err = tenants.AuthenticateOrCreate(context.Background(), "owner@acme.com", testPassword, "")
	if !errors.Is(err, service.ErrTenantDisabled) {
		t.Errorf("err = %v, want ErrTenantDisabled", err)
	}
}

func TestRenameCascadesToAllUsers(t *testing.T) {
	store := newMemStore()
	tenants := service.NewTenantService(store)
	tenant := seedTenant(t, store, "acme")
	other := seedTenant(t, store, "globex")
	seedUser(t, store, tenant, "alice", model.RoleOwner)
	seedUser(t, store, tenant, "bob", model.RoleMember)
	outsider := seedUser(t, store, other, "carol", model.RoleOwner)

	name := "Acme Industries"
	result, err := tenants.UpdateWithCascade(context.Background(), tenant.ID, &name)
	if err != nil {
		t.Fatalf("UpdateWithCascade: %v", err)
	}
	if result.Tenant.Name != name {
		t.Errorf("tenant name = %q, want %q", result.Tenant.Name, name)
	}
	if result.UsersAffected != 2 {
		t.Errorf("users_affected = %d, want 2", result.UsersAffected)
	}

	users, err := tenants.ListUsers(context.Background(), tenant.ID, 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	for _, u := range users {
		if u.TenantName != name {
			t.Errorf("user %s tenant_name = %q, want %q", u.Username, u.TenantName, name)
		}
	}

	// Users of other tenants are untouched.
	reloaded, _, err := store.Users().ByID(context.Background(), outsider.ID)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.TenantName != other.Name {
		t.Errorf("outsider tenant_name = %q, want %q", reloaded.TenantName, other.Name)
	}
}

func TestRenameWithNilNameIsNoop(t *testing.T) {
	store := newMemStore()
	tenants := service.NewTenantService(store)
	tenant := seedTenant(t, store, "acme")
	seedUser(t, store, tenant, "alice", model.RoleOwner)

	result, err := tenants.UpdateWithCascade(context.Background(), tenant.ID, nil)
	if err != nil {
		t.Fatalf("UpdateWithCascade: %v", err)
	}
	if result.UsersAffected != 0 {
		t.Errorf("users_affected = %d, want 0", result.UsersAffected)
	}
	if result.Tenant.Name != "acme" {
		t.Errorf("tenant name = %q, want unchanged", result.Tenant.Name)
	}
}

func TestRenameRollsBackWhenCascadeFails(t *testing.T) {
	store := newMemStore()
	tenants := service.NewTenantService(store)
	tenant := seedTenant(t, store, "acme")
	seedUser(t, store, tenant, "alice", model.RoleOwner)

	store.failCascade = true
	name := "Acme Industries"
	if _, err := tenants.UpdateWithCascade(context.Background(), tenant.ID, &name); err == nil {
		t.Fatal("expected cascade failure to surface")
	}

	// The tenant rename must not survive the failed cascade.
	reloaded, _, err := store.Tenants().ByID(context.Background(), tenant.ID)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.Name != "acme" {
		t.Errorf("tenant name after rollback = %q, want %q", reloaded.Name, "acme")
	}
}

func TestStatusCascadeOverwritesIndividualFlags(t *testing.T) {
	store := newMemStore()
	tenants := service.NewTenantService(store)
	tenant := seedTenant(t, store, "acme")
	seedUser(t, store, tenant, "alice", model.RoleOwner)
	bob := seedUser(t, store, tenant, "bob", model.RoleMember)

	// Bob was disabled individually before the tenant-wide change.
	bob.IsActive = false
	if err := store.Users().Update(context.Background(), bob); err != nil {
		t.Fatal(err)
	}

	result, err := tenants.UpdateStatusWithCascade(context.Background(), tenant.ID, false)
	if err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if result.UsersAffected != 2 {
		t.Errorf("users_affected = %d, want 2", result.UsersAffected)
	}

	result, err = tenants.UpdateStatusWithCascade(context.Background(), tenant.ID, true)
	if err != nil {
		t.Fatalf("reactivate: %v", err)
	}
	if !result.Tenant.IsActive {
		t.Error("tenant still inactive after reactivation")
	}

	// Reactivation restores everyone, including bob.
	reloaded, _, err := store.Users().ByID(context.Background(), bob.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !reloaded.IsActive {
		t.Error("user not reactivated by the cascade")
	}
}

func TestStatusCascadeUnknownTenant(t *testing.T) {
	store := newMemStore()
	tenants := service.NewTenantService(store)

	_, err := tenants.UpdateStatusWithCascade(context.Background(), 42, false)
	if !errors.Is(err, service.ErrTenantNotFound) {
		t.Errorf("err = %v, want ErrTenantNotFound", err)
	}
}

func TestCascadeImpactCounts(t *testing.T) {
	store := newMemStore()
	tenants := service.NewTenantService(store)
	tenant := seedTenant(t, store, "acme")
	seedUser(t, store, tenant, "alice", model.RoleOwner)
	seedUser(t, store, tenant, "bob", model.RoleMember)
	carol := seedUser(t, store, tenant, "carol", model.RoleMember)

	carol.IsActive = false
	if err := store.Users().Update(context.Background(), carol); err != nil {
		t.Fatal(err)
	}

	impact, err := tenants.Impact(context.Background(), tenant.ID)
	if err != nil {
		t.Fatalf("Impact: %v", err)
	}
	if impact.TotalUsers != 3 || impact.ActiveUsers != 2 || impact.InactiveUsers != 1 {
		t.Errorf("impact = %+v, want total=3 active=2 inactive=1", impact)
	}

	if _, err := tenants.Impact(context.Background(), 999); !errors.Is(err, service.ErrTenantNotFound) {
		t.Errorf("unknown tenant err = %v, want ErrTenantNotFound", err)
	}
}
