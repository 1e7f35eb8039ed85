package model

import (
	"time"
)

// Tenant represents a tenant organization stored in the database.
// Tenants are identified by email and carry their own password so a
// tenant can authenticate directly and auto-provision its owner user.
//
// All timestamps are stored as UTC instants; any timezone-naive value
// read back from storage is treated as UTC by convention.
type Tenant struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Email        string    `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	Name         string    `json:"name,omitempty" gorm:"type:varchar(255)"`
	PasswordHash string    `json:"-" gorm:"type:varchar(255);not null"`
	IsActive     bool      `json:"is_active" gorm:"default:true;not null"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Relations
	Users []User `json:"-" gorm:"foreignKey:TenantID;constraint:OnDelete:CASCADE"`
}
