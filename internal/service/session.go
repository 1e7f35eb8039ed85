package service

import (
	"context"
	"strconv"
	"strings"

	"auth-service/internal/model"
	"auth-service/internal/repository"
	"auth-service/pkg/jwtutil"
)

// bearerPrefix is matched exactly, including case, per RFC 6750's
// credentials syntax as enforced here.
const bearerPrefix = "Bearer "

// Session is an authenticated request context resolved from a bearer
// token: the live user record plus the claims the token carried.
type Session struct {
	User   *model.User
	Claims *jwtutil.AccessClaims
}

// SessionGate authenticates bearer tokens and enforces tenant isolation
// by cross-checking the token's tenant claim against the live user row.
type SessionGate struct {
	store         repository.Store
	tokens        *jwtutil.Service
	enforceTenant bool
}

// NewSessionGate wires a session gate. When enforceTenant is false the
// tenant cross-check is skipped, for single-tenant deployments.
func NewSessionGate(store repository.Store, tokens *jwtutil.Service, enforceTenant bool) *SessionGate {
	return &SessionGate{store: store, tokens: tokens, enforceTenant: enforceTenant}
}

// Authenticate resolves an Authorization header value into a session.
// Failures before identity is proven are authentication errors; a
// tenant mismatch after a valid token is an authorization error.
func (g *SessionGate) Authenticate(ctx context.Context, authorization string) (*Session, error) {
	if !strings.HasPrefix(authorization, bearerPrefix) {
		return nil, ErrInvalidAuthHeader
	}
	tokenString := authorization[len(bearerPrefix):]
	if tokenString == "" {
		return nil, ErrInvalidAuthHeader
	}

	claims, err := g.tokens.ParseAccessToken(tokenString)
	if err != nil {
		return nil, err
	}

	userID, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return nil, ErrInvalidTokenClaims
	}
	tenantID, err := strconv.ParseUint(claims.TenantID, 10, 64)
	if err != nil {
		return nil, ErrInvalidTokenClaims
	}

	user, found, err := g.store.Users().ByID(ctx, uint(userID))
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrUserNotFound
	}

	if g.enforceTenant && user.TenantID != uint(tenantID) {
		return nil, ErrTenantMismatch
	}
	if !user.IsActive {
		return nil, ErrAccountDisabled
	}

	tenant, found, err := g.store.Tenants().ByID(ctx, user.TenantID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrTenantNotFound
	}
	if !tenant.IsActive {
		return nil, ErrTenantDisabled
	}

	return &Session{User: user, Claims: claims}, nil
}

// RequireOwner gates an operation to the tenant owner.
func RequireOwner(user *model.User) error {
	if user.Role != model.RoleOwner {
		return ErrRoleForbidden
	}
	return nil
}

// RequireAdminOrOwner gates an operation to admins and owners.
func RequireAdminOrOwner(user *model.User) error {
	if !user.Role.AtLeast(model.RoleAdmin) {
		return ErrRoleForbidden
	}
	return nil
}

// RequireTOTPDisabled gates enrollment operations that only make sense
// before 2FA is switched on.
func RequireTOTPDisabled(user *model.User) error {
	if user.IsTOTPEnabled {
		return ErrTOTPAlreadyEnabled
	}
	return nil
}
