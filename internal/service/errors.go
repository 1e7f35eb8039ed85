package service

import (
	"errors"

	"auth-service/pkg/jwtutil"
)

// Sentinel errors returned by the auth, tenant and session services.
// Credential failures share a single generic message so callers cannot
// tell an unknown email from a wrong password.
var (
	// ErrInvalidCredentials is returned for any credential failure.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrAccountDisabled is returned when the user account is inactive.
	ErrAccountDisabled = errors.New("user account is disabled")
	// ErrTenantDisabled is returned when the owning tenant is inactive.
	ErrTenantDisabled = errors.New("tenant account is disabled")
	// ErrTenantOwnerNotFound is returned when a tenant has no OWNER user.
	ErrTenantOwnerNotFound = errors.New("tenant owner not found")
	// ErrUserNotFound is returned when a referenced user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrTenantNotFound is returned when a referenced tenant does not exist.
	ErrTenantNotFound = errors.New("tenant not found")

	// ErrEmailTaken is returned when registering an email that exists globally.
	ErrEmailTaken = errors.New("email already registered")
	// ErrUsernameTaken is returned when a username exists within the tenant.
	ErrUsernameTaken = errors.New("username already taken in this tenant")
	// ErrInvalidRole is returned for role values outside the known set.
	ErrInvalidRole = errors.New("invalid role")

	// ErrRefreshTokenInvalid is returned for unknown refresh tokens.
	ErrRefreshTokenInvalid = errors.New("invalid refresh token")
	// ErrRefreshTokenRevoked is returned for revoked refresh tokens.
	ErrRefreshTokenRevoked = errors.New("refresh token has been revoked")
	// ErrRefreshTokenExpired is returned for expired refresh tokens.
	ErrRefreshTokenExpired = errors.New("refresh token has expired")

	// ErrTOTPRequired signals that login needs a TOTP code. It is
	// surfaced distinctly from credential failures so callers can
	// redirect to a second-factor flow.
	ErrTOTPRequired = errors.New("totp verification required")
	// ErrTOTPInvalid is returned for a present-but-wrong TOTP code.
	ErrTOTPInvalid = errors.New("invalid totp code")
	// ErrTOTPAlreadyEnabled is returned when setup is attempted with 2FA on.
	ErrTOTPAlreadyEnabled = errors.New("totp is already enabled for this user")
	// ErrTOTPNotInitiated is returned when verify runs before setup.
	ErrTOTPNotInitiated = errors.New("totp setup not initiated")
	// ErrTOTPNotEnabled is returned when the TOTP login path is used
	// by an account without 2FA.
	ErrTOTPNotEnabled = errors.New("totp is not enabled for this user")

	// ErrInvalidAuthHeader is returned for a missing or malformed
	// Authorization header.
	ErrInvalidAuthHeader = errors.New("invalid authorization header format")
	// ErrInvalidTokenClaims is returned when required claims are missing
	// or non-numeric.
	ErrInvalidTokenClaims = errors.New("invalid token payload")

	// ErrTenantMismatch signals a cross-tenant access attempt: the token
	// tenant claim does not match the live user record.
	ErrTenantMismatch = errors.New("tenant mismatch, possible cross-tenant access attempt")
	// ErrRoleForbidden is returned when the user's role is insufficient.
	ErrRoleForbidden = errors.New("insufficient role for this operation")
)

// IsAuthenticationError reports whether err maps to a 401: identity or
// credential failure.
func IsAuthenticationError(err error) bool {
	for _, target := range []error{
		ErrInvalidCredentials,
		ErrAccountDisabled,
		ErrTenantDisabled,
		ErrTenantOwnerNotFound,
		ErrUserNotFound,
		ErrTenantNotFound,
		ErrRefreshTokenInvalid,
		ErrRefreshTokenRevoked,
		ErrRefreshTokenExpired,
		ErrInvalidAuthHeader,
		ErrInvalidTokenClaims,
		jwtutil.ErrTokenExpired,
		jwtutil.ErrTokenInvalid,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsAuthorizationError reports whether err maps to a 403: identity
// proven but the action is forbidden.
func IsAuthorizationError(err error) bool {
	return errors.Is(err, ErrTenantMismatch) || errors.Is(err, ErrRoleForbidden)
}

// IsTOTPError reports whether err is a 2FA enrollment or verification
// failure (400 class). ErrTOTPRequired is not included; it is a
// distinct redirect signal handled separately.
func IsTOTPError(err error) bool {
	return errors.Is(err, ErrTOTPInvalid) ||
		errors.Is(err, ErrTOTPAlreadyEnabled) ||
		errors.Is(err, ErrTOTPNotInitiated) ||
		errors.Is(err, ErrTOTPNotEnabled)
}

// IsConflictError reports whether err is a domain uniqueness conflict.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrEmailTaken) ||
		errors.Is(err, ErrUsernameTaken) ||
		errors.Is(err, ErrInvalidRole)
}
