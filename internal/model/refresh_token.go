package model

import (
	"time"
)

// RefreshToken represents an opaque refresh token issued to a user.
// Tokens are revoked rather than deleted: on logout, on rotation, or
// explicitly. Revocation is monotonic - a revoked token never becomes
// usable again.
type RefreshToken struct {
	ID     uint   `json:"id" gorm:"primaryKey"`
	UserID uint   `json:"user_id" gorm:"not null;index"`
	Token  string `json:"-" gorm:"type:varchar(255);uniqueIndex;not null"`

	// Optional OAuth2 metadata, carried forward through rotation.
	ClientID string `json:"client_id,omitempty" gorm:"type:varchar(255)"`
	Scope    string `json:"scope,omitempty" gorm:"type:varchar(500)"`

	IsRevoked bool      `json:"is_revoked" gorm:"default:false;not null"`
	ExpiresAt time.Time `json:"expires_at" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
}

// IsExpired reports whether the token has expired at the given instant.
// Stored timestamps are treated as UTC even if the driver strips the
// timezone annotation.
func (t *RefreshToken) IsExpired(now time.Time) bool {
	return t.ExpiresAt.Before(now.UTC())
}
