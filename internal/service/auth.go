// Package service holds the application services: the auth orchestrator,
// the tenant cascade manager and the session gate. Services depend on the
// repository contracts and stay free of transport concerns so the same
// flows serve HTTP handlers and tests alike.
package service

import (
	"context"
	"strings"
	"time"

	"auth-service/internal/model"
	"auth-service/internal/repository"
	"auth-service/internal/security"
	"auth-service/internal/totp"
	"auth-service/pkg/jwtutil"
)

// TokenPair is the result of a successful credential exchange.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// TOTPSetupResult carries the enrollment material for an authenticator
// app. QRPayload is the string to render as a QR code.
type TOTPSetupResult struct {
	Secret          string `json:"secret"`
	ProvisioningURI string `json:"provisioning_uri"`
	QRPayload       string `json:"qr_payload"`
}

// RegisterInput is the input for user self-registration.
type RegisterInput struct {
	TenantID uint
	Username string
	Email    string
	Password string
	Role     string
}

// AuthService orchestrates registration, login, token refresh, logout
// and the TOTP enrollment flow.
type AuthService struct {
	store      repository.Store
	tokens     *jwtutil.Service
	refreshTTL time.Duration
	totpIssuer string
	now        func() time.Time
}

// NewAuthService wires an auth orchestrator.
func NewAuthService(store repository.Store, tokens *jwtutil.Service, refreshTTL time.Duration, totpIssuer string) *AuthService {
	if refreshTTL <= 0 {
		refreshTTL = 30 * 24 * time.Hour
	}
	if totpIssuer == "" {
		totpIssuer = "auth-service"
	}
	return &AuthService{
		store:      store,
		tokens:     tokens,
		refreshTTL: refreshTTL,
		totpIssuer: totpIssuer,
		now:        time.Now,
	}
}

// Register creates a user under an existing tenant. Emails are unique
// globally, usernames per tenant. The role defaults to MEMBER when
// empty and is validated otherwise.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	role := model.RoleMember
	if in.Role != "" {
		parsed, err := model.ParseRole(in.Role)
		if err != nil {
			return nil, ErrInvalidRole
		}
		role = parsed
	}

	email := NormalizeEmail(in.Email)

	tenant, found, err := s.store.Tenants().ByID(ctx, in.TenantID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrTenantNotFound
	}

	if _, found, err := s.store.Users().ByEmail(ctx, email); err != nil {
		return nil, err
	} else if found {
		return nil, ErrEmailTaken
	}
	if _, found, err := s.store.Users().ByTenantAndUsername(ctx, tenant.ID, in.Username); err != nil {
		return nil, err
	} else if found {
		return nil, ErrUsernameTaken
	}

	hash, err := security.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		TenantID:     tenant.ID,
		Username:     in.Username,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		TenantName:   tenant.Name,
		IsActive:     true,
	}
	if err := s.store.Users().Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate verifies a user's email and password. The password is
// always checked before the active flags so a disabled-account response
// never leaks whether the password was right.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	user, found, err := s.store.Users().ByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrInvalidCredentials
	}
	return s.checkPasswordAndStatus(ctx, user, password)
}

// AuthenticateTenantUser verifies a username and password within one
// tenant's namespace.
func (s *AuthService) AuthenticateTenantUser(ctx context.Context, tenantID uint, username, password string) (*model.User, error) {
	user, found, err := s.store.Users().ByTenantAndUsername(ctx, tenantID, username)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrInvalidCredentials
	}
	return s.checkPasswordAndStatus(ctx, user, password)
}

func (s *AuthService) checkPasswordAndStatus(ctx context.Context, user *model.User, password string) (*model.User, error) {
	ok, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	// Status checks run strictly after the password check.
	if !user.IsActive {
		return nil, ErrAccountDisabled
	}
	tenant, found, err := s.store.Tenants().ByID(ctx, user.TenantID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrTenantNotFound
	}
	if !tenant.IsActive {
		return nil, ErrTenantDisabled
	}
	return user, nil
}

// Login authenticates a user and, when the account has TOTP enabled,
// gates token issuance behind a valid code. An empty code on a TOTP
// account yields ErrTOTPRequired so the caller can prompt for one.
func (s *AuthService) Login(ctx context.Context, email, password, totpCode, clientID, scope string) (*model.User, *TokenPair, error) {
	user, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, nil, err
	}

	if err := s.CheckTOTP(user, totpCode); err != nil {
		return nil, nil, err
	}

	pair, err := s.IssueTokens(ctx, user, clientID, scope)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// CheckTOTP gates an authenticated user behind their second factor.
// Accounts without TOTP pass through; an empty code on a TOTP account
// yields ErrTOTPRequired rather than ErrTOTPInvalid.
func (s *AuthService) CheckTOTP(user *model.User, code string) error {
	if !user.IsTOTPEnabled {
		return nil
	}
	if code == "" {
		return ErrTOTPRequired
	}
	ok, err := totp.Verify(user.TOTPSecret, code, s.now())
	if err != nil {
		return err
	}
	if !ok {
		return ErrTOTPInvalid
	}
	return nil
}

// IssueTokens mints an access/refresh pair for an already authenticated
// user and persists the refresh token.
func (s *AuthService) IssueTokens(ctx context.Context, user *model.User, clientID, scope string) (*TokenPair, error) {
	access, err := s.tokens.GenerateAccessToken(
		user.ID, user.Email, user.TenantID, string(user.Role), strings.Fields(scope), clientID)
	if err != nil {
		return nil, err
	}

	refresh, err := jwtutil.NewRefreshToken()
	if err != nil {
		return nil, err
	}
	record := &model.RefreshToken{
		UserID:    user.ID,
		Token:     refresh,
		ClientID:  clientID,
		Scope:     scope,
		ExpiresAt: s.now().UTC().Add(s.refreshTTL),
	}
	if err := s.store.Tokens().Create(ctx, record); err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.tokens.AccessTokenTTL().Seconds()),
	}, nil
}

// Refresh exchanges a refresh token for a new pair, revoking the old
// token in the same transaction. The conditional revoke makes two
// concurrent refreshes of one token produce exactly one winner; the
// loser sees ErrRefreshTokenRevoked.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	var pair *TokenPair
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		record, found, err := tx.Tokens().ByToken(ctx, refreshToken)
		if err != nil {
			return err
		}
		if !found {
			return ErrRefreshTokenInvalid
		}
		if record.IsRevoked {
			return ErrRefreshTokenRevoked
		}
		if record.IsExpired(s.now()) {
			return ErrRefreshTokenExpired
		}

		user, found, err := tx.Users().ByID(ctx, record.UserID)
		if err != nil {
			return err
		}
		if !found {
			return ErrUserNotFound
		}
		if !user.IsActive {
			return ErrAccountDisabled
		}

		revoked, err := tx.Tokens().Revoke(ctx, refreshToken)
		if err != nil {
			return err
		}
		if !revoked {
			return ErrRefreshTokenRevoked
		}

		access, err := s.tokens.GenerateAccessToken(
			user.ID, user.Email, user.TenantID, string(user.Role),
			strings.Fields(record.Scope), record.ClientID)
		if err != nil {
			return err
		}
		next, err := jwtutil.NewRefreshToken()
		if err != nil {
			return err
		}
		if err := tx.Tokens().Create(ctx, &model.RefreshToken{
			UserID:    user.ID,
			Token:     next,
			ClientID:  record.ClientID,
			Scope:     record.Scope,
			ExpiresAt: s.now().UTC().Add(s.refreshTTL),
		}); err != nil {
			return err
		}

		pair = &TokenPair{
			AccessToken:  access,
			RefreshToken: next,
			TokenType:    "Bearer",
			ExpiresIn:    int64(s.tokens.AccessTokenTTL().Seconds()),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pair, nil
}

// Logout revokes a refresh token. Unknown or already revoked tokens are
// treated as success so logout stays idempotent; the returned flag
// reports whether this call actually revoked anything.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) (bool, error) {
	return s.store.Tokens().Revoke(ctx, refreshToken)
}

// RevokeAllUserTokens revokes every live refresh token for a user and
// returns how many were revoked.
func (s *AuthService) RevokeAllUserTokens(ctx context.Context, userID uint) (int64, error) {
	return s.store.Tokens().RevokeAllForUser(ctx, userID)
}

// SetupTOTP generates a fresh secret for the user and returns the
// enrollment material. The secret is stored immediately but TOTP is not
// enforced until VerifyTOTP confirms the user's authenticator works.
func (s *AuthService) SetupTOTP(ctx context.Context, userID uint) (*TOTPSetupResult, error) {
	user, found, err := s.store.Users().ByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrUserNotFound
	}
	if user.IsTOTPEnabled {
		return nil, ErrTOTPAlreadyEnabled
	}

	secret, err := totp.GenerateSecret()
	if err != nil {
		return nil, err
	}
	if _, err := s.store.Users().SetTOTPSecret(ctx, user.ID, secret); err != nil {
		return nil, err
	}

	uri := totp.ProvisioningURI(secret, user.Email, s.totpIssuer)
	return &TOTPSetupResult{
		Secret:          secret,
		ProvisioningURI: uri,
		QRPayload:       uri,
	}, nil
}

// VerifyTOTP validates a code against the pending secret and, on
// success, enables TOTP enforcement for the account.
func (s *AuthService) VerifyTOTP(ctx context.Context, userID uint, code string) (*model.User, error) {
	user, found, err := s.store.Users().ByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrUserNotFound
	}
	if user.IsTOTPEnabled {
		return nil, ErrTOTPAlreadyEnabled
	}
	if user.TOTPSecret == "" {
		return nil, ErrTOTPNotInitiated
	}

	ok, err := totp.Verify(user.TOTPSecret, code, s.now())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrTOTPInvalid
	}

	if _, err := s.store.Users().EnableTOTP(ctx, user.ID); err != nil {
		return nil, err
	}
	user.IsTOTPEnabled = true
	return user, nil
}

// ValidateTOTPLogin is the second step of a two-step login: the caller
// already passed the password check and now submits the TOTP code.
func (s *AuthService) ValidateTOTPLogin(ctx context.Context, email, password, code, clientID, scope string) (*model.User, *TokenPair, error) {
	user, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, nil, err
	}
	if !user.IsTOTPEnabled {
		return nil, nil, ErrTOTPNotEnabled
	}

	ok, err := totp.Verify(user.TOTPSecret, code, s.now())
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, ErrTOTPInvalid
	}

	pair, err := s.IssueTokens(ctx, user, clientID, scope)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// UpdateProfile changes a user's mutable profile fields. Empty fields
// are left untouched. A new email is normalized and checked for
// uniqueness across all tenants before it replaces the old one.
func (s *AuthService) UpdateProfile(ctx context.Context, userID uint, username, email string) (*model.User, error) {
	user, found, err := s.store.Users().ByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrUserNotFound
	}

	if username != "" && username != user.Username {
		if _, taken, err := s.store.Users().ByTenantAndUsername(ctx, user.TenantID, username); err != nil {
			return nil, err
		} else if taken {
			return nil, ErrUsernameTaken
		}
		user.Username = username
	}

	if normalized := NormalizeEmail(email); normalized != "" && normalized != user.Email {
		if _, taken, err := s.store.Users().ByEmail(ctx, normalized); err != nil {
			return nil, err
		} else if taken {
			return nil, ErrEmailTaken
		}
		user.Email = normalized
	}

	if err := s.store.Users().Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ChangePassword verifies the current password, replaces it and revokes
// all outstanding refresh tokens for the user.
func (s *AuthService) ChangePassword(ctx context.Context, userID uint, current, next string) error {
	user, found, err := s.store.Users().ByID(ctx, userID)
	if err != nil {
		return err
	}
	if !found {
		return ErrUserNotFound
	}

	ok, err := security.VerifyPassword(current, user.PasswordHash)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidCredentials
	}

	hash, err := security.HashPassword(next)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	if err := s.store.Users().Update(ctx, user); err != nil {
		return err
	}

	_, err = s.store.Tokens().RevokeAllForUser(ctx, user.ID)
	return err
}

// NormalizeEmail lowercases and trims an email so lookups and unique
// constraints behave case-insensitively.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
