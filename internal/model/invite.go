package model

import (
	"time"

	"gorm.io/gorm"
)

// Invite lets a manager onboard an employee by email. The token is handed
// out through an out-of-band channel and exchanged at signup.
type Invite struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	TenantID   uint           `json:"tenant_id" gorm:"index;not null"`
	Email      string         `json:"email" gorm:"type:varchar(100);index"`
	Token      string         `json:"-" gorm:"type:varchar(64);uniqueIndex"`
	Role       string         `json:"role" gorm:"type:varchar(32);not null;default:'staff'"`
	Location   string         `json:"location" gorm:"type:varchar(100)"`
	Department string         `json:"department" gorm:"type:varchar(100)"`
	ExpiresAt  time.Time      `json:"expires_at"`
	AcceptedAt *time.Time     `json:"accepted_at,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`
}

// Pending reports whether the invite can still be redeemed.
func (i *Invite) Pending(now time.Time) bool {
	return i.AcceptedAt == nil && now.Before(i.ExpiresAt)
}
