package service_test

import (
	"context"
	"errors"
	"testing"

	"auth-service/internal/model"
	"auth-service/internal/service"
	"auth-service/pkg/jwtutil"
)

func mintToken(t *testing.T, tokens *jwtutil.Service, user *model.User, tenantID uint) string {
	t.Helper()
	token, err := tokens.GenerateAccessToken(user.ID, user.Email, tenantID, string(user.Role), nil, "")
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}
	return token
}

func TestSessionGateBearerPrefixIsExact(t *testing.T) {
	store := newMemStore()
	tokens := testTokens()
	gate := service.NewSessionGate(store, tokens, true)
	tenant := seedTenant(t, store, "acme")
	user := seedUser(t, store, tenant, "alice", model.RoleMember)
	token := mintToken(t, tokens, user, tenant.ID)

	for _, header := range []string{
		"",
		token,
		"bearer " + token,
		"BEARER " + token,
		"Bearer" + token,
		"Basic " + token,
		"Bearer ",
	} {
		if _, err := gate.Authenticate(context.Background(), header); !errors.Is(err, service.ErrInvalidAuthHeader) {
			t.Errorf("header %q: err = %v, want ErrInvalidAuthHeader", header, err)
		}
	}

	if _, err := gate.Authenticate(context.Background(), "Bearer "+token); err != nil {
		t.Errorf("well-formed header err = %v, want nil", err)
	}
}

func TestSessionGateResolvesLiveUser(t *testing.T) {
	store := newMemStore()
	tokens := testTokens()
	gate := service.NewSessionGate(store, tokens, true)
	tenant := seedTenant(t, store, "acme")
	user := seedUser(t, store, tenant, "alice", model.RoleAdmin)
	token := mintToken(t, tokens, user, tenant.ID)

	sess, err := gate.Authenticate(context.Background(), "Bearer "+token)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if sess.User.ID != user.ID {
		t.Errorf("session user = %d, want %d", sess.User.ID, user.ID)
	}
	if sess.Claims.Role != string(model.RoleAdmin) {
		t.Errorf("claims role = %q, want ADMIN", sess.Claims.Role)
	}
}

func TestSessionGateRejectsGarbageToken(t *testing.T) {
	store := newMemStore()
	tokens := testTokens()
	gate := service.NewSessionGate(store, tokens, true)

	_, err := gate.Authenticate(context.Background(), "Bearer not.a.jwt")
	if !errors.Is(err, jwtutil.ErrTokenInvalid) {
		t.Errorf("err = %v, want ErrTokenInvalid", err)
	}
	if !service.IsAuthenticationError(err) {
		t.Error("garbage token should classify as an authentication error")
	}
}

func TestSessionGateTenantMismatchIsAuthorizationError(t *testing.T) {
	store := newMemStore()
	tokens := testTokens()
	gate := service.NewSessionGate(store, tokens, true)
	tenantA := seedTenant(t, store, "acme")
	tenantB := seedTenant(t, store, "globex")
	user := seedUser(t, store, tenantA, "alice", model.RoleMember)

	// Token claims membership of tenant B while the live record says A.
	token := mintToken(t, tokens, user, tenantB.ID)

	_, err := gate.Authenticate(context.Background(), "Bearer "+token)
	if !errors.Is(err, service.ErrTenantMismatch) {
		t.Fatalf("err = %v, want ErrTenantMismatch", err)
	}
	if !service.IsAuthorizationError(err) {
		t.Error("tenant mismatch should classify as an authorization error")
	}
	if service.IsAuthenticationError(err) {
		t.Error("tenant mismatch must not classify as an authentication error")
	}
}

func TestSessionGateMismatchIgnoredWhenIsolationOff(t *testing.T) {
	store := newMemStore()
	tokens := testTokens()
	gate := service.NewSessionGate(store, tokens, false)
	tenantA := seedTenant(t, store, "acme")
	tenantB := seedTenant(t, store, "globex")
	user := seedUser(t, store, tenantA, "alice", model.RoleMember)

	token := mintToken(t, tokens, user, tenantB.ID)
	if _, err := gate.Authenticate(context.Background(), "Bearer "+token); err != nil {
		t.Errorf("err = %v, want nil with isolation disabled", err)
	}
}

func TestSessionGateChecksLiveStatus(t *testing.T) {
	store := newMemStore()
	tokens := testTokens()
	gate := service.NewSessionGate(store, tokens, true)
	tenant := seedTenant(t, store, "acme")
	user := seedUser(t, store, tenant, "alice", model.RoleMember)
	token := mintToken(t, tokens, user, tenant.ID)

	// A token stays syntactically valid after the account is disabled;
	// the gate must still reject it.
	user.IsActive = false
	if err := store.Users().Update(context.Background(), user); err != nil {
		t.Fatal(err)
	}
	if _, err := gate.Authenticate(context.Background(), "Bearer "+token); !errors.Is(err, service.ErrAccountDisabled) {
		t.Errorf("disabled user err = %v, want ErrAccountDisabled", err)
	}

	user.IsActive = true
	if err := store.Users().Update(context.Background(), user); err != nil {
		t.Fatal(err)
	}
	if _, _, err := store.Tenants().SetActive(context.Background(), tenant.ID, false); err != nil {
		t.Fatal(err)
	}
	if _, err := gate.Authenticate(context.Background(), "Bearer "+token); !errors.Is(err, service.ErrTenantDisabled) {
		t.Errorf("disabled tenant err = %v, want ErrTenantDisabled", err)
	}
}

func TestRoleGates(t *testing.T) {
	owner := &model.User{Role: model.RoleOwner}
	admin := &model.User{Role: model.RoleAdmin}
	member := &model.User{Role: model.RoleMember}

	if err := service.RequireOwner(owner); err != nil {
		t.Errorf("owner gate for OWNER err = %v, want nil", err)
	}
	if err := service.RequireOwner(admin); !errors.Is(err, service.ErrRoleForbidden) {
		t.Errorf("owner gate for ADMIN err = %v, want ErrRoleForbidden", err)
	}
	if err := service.RequireAdminOrOwner(admin); err != nil {
		t.Errorf("admin gate for ADMIN err = %v, want nil", err)
	}
	if err := service.RequireAdminOrOwner(member); !errors.Is(err, service.ErrRoleForbidden) {
		t.Errorf("admin gate for MEMBER err = %v, want ErrRoleForbidden", err)
	}

	enrolled := &model.User{IsTOTPEnabled: true}
	if err := service.RequireTOTPDisabled(enrolled); !errors.Is(err, service.ErrTOTPAlreadyEnabled) {
		t.Errorf("totp gate for enrolled user err = %v, want ErrTOTPAlreadyEnabled", err)
	}
	if err := service.RequireTOTPDisabled(member); err != nil {
		t.Errorf("totp gate for unenrolled user err = %v, want nil", err)
	}
}
