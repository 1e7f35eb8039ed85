package jwtutil

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

var (
	// ErrTokenExpired is returned when an access token is past its expiry.
	ErrTokenExpired = errors.New("token has expired")
	// ErrTokenInvalid is returned for any signature mismatch, malformed
	// structure or unexpected signing algorithm.
	ErrTokenInvalid = errors.New("invalid token")
)

// Config holds JWT configuration.
type Config struct {
	SigningKey     string
	Algorithm      string
	AccessTokenTTL time.Duration
}

// AccessClaims represents the JWT claims carried by access tokens.
// TenantID is encoded as a string claim for multi-tenant isolation
// checks at the session boundary.
type AccessClaims struct {
	Email    string   `json:"email"`
	TenantID string   `json:"tenant_id"`
	Role     string   `json:"role"`
	Scopes   []string `json:"scopes"`
	jwt.RegisteredClaims
}

// Service mints and validates access tokens. Opaque refresh tokens are
// created with NewRefreshToken and are not JWTs.
type Service struct {
	config Config
	now    func() time.Time
}

// New creates a token service with the given configuration.
func New(config Config) *Service {
	if config.Algorithm == "" {
		config.Algorithm = "HS256"
	}
	if config.AccessTokenTTL <= 0 {
		config.AccessTokenTTL = 15 * time.Minute
	}
	return &Service{config: config, now: time.Now}
}

// GenerateAccessToken creates a signed access token with user, tenant
// and role information. The audience claim is set only when non-empty.
func (s *Service) GenerateAccessToken(userID uint, email string, tenantID uint, role string, scopes []string, audience string) (string, error) {
	if s.config.SigningKey == "" {
		return "", errors.New("JWT signing key not configured")
	}

	now := s.now().UTC()
	if scopes == nil {
		scopes = []string{}
	}

	claims := AccessClaims{
		Email:    email,
		TenantID: strconv.FormatUint(uint64(tenantID), 10),
		Role:     role,
		Scopes:   scopes,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.AccessTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	if audience != "" {
		claims.Audience = jwt.ClaimStrings{audience}
	}

	method := jwt.GetSigningMethod(s.config.Algorithm)
	if method == nil {
		return "", fmt.Errorf("unknown signing algorithm %q", s.config.Algorithm)
	}

	token := jwt.NewWithClaims(method, claims)
	return token.SignedString([]byte(s.config.SigningKey))
}

// ParseAccessToken validates a token's signature and expiry and returns
// its claims. The audience claim is not enforced here; that decision is
// left to the caller.
func (s *Service) ParseAccessToken(tokenString string) (*AccessClaims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&AccessClaims{},
		func(token *jwt.Token) (interface{}, error) {
			// Only HMAC variants are acceptable for a symmetric key.
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(s.config.SigningKey), nil
		},
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*AccessClaims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// AccessTokenTTL returns the configured access token lifetime.
func (s *Service) AccessTokenTTL() time.Duration {
	return s.config.AccessTokenTTL
}

// NewRefreshToken creates an opaque random refresh token with 256 bits
// of entropy in a URL-safe alphabet. Uniqueness is backstopped by the
// store's unique constraint.
func NewRefreshToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
