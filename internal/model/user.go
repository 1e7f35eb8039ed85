package model

import (
	"time"
)

// User represents a user account within a tenant. Usernames are unique
// per tenant while emails are globally unique across all tenants.
// TenantName is a denormalized copy of the owning tenant's name, kept
// in sync by the tenant rename cascade.
type User struct {
	ID           uint   `json:"id" gorm:"primaryKey"`
	TenantID     uint   `json:"tenant_id" gorm:"not null;index;uniqueIndex:uq_tenant_username"`
	Username     string `json:"username" gorm:"type:varchar(100);not null;uniqueIndex:uq_tenant_username"`
	Email        string `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash string `json:"-" gorm:"type:varchar(255);not null"`
	Role         Role   `json:"role" gorm:"type:varchar(50);default:'MEMBER';not null"`
	TenantName   string `json:"tenant_name,omitempty" gorm:"type:varchar(255)"`

	// TOTP / 2FA. The secret is set by setup but the flag only flips
	// after a successful verification step.
	TOTPSecret    string `json:"-" gorm:"type:varchar(32)"`
	IsTOTPEnabled bool   `json:"is_totp_enabled" gorm:"default:false;not null"`

	IsActive  bool      `json:"is_active" gorm:"default:true;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Tenant        *Tenant        `json:"-" gorm:"foreignKey:TenantID"`
	RefreshTokens []RefreshToken `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}
