package model

import (
	"time"

	"gorm.io/gorm"
)

// User roles within a tenant.
const (
	RoleManager = "manager"
	RoleStaff   = "staff"
)

// User represents an employee account scoped to a single tenant.
// Location and Department were nullable before the scope backfill migration;
// afterwards every user carries a non-empty pair.
type User struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	TenantID     uint           `json:"tenant_id" gorm:"index;not null;uniqueIndex:idx_users_tenant_email"`
	Email        string         `json:"email" gorm:"type:varchar(100);uniqueIndex:idx_users_tenant_email"`
	PasswordHash string         `json:"-" gorm:"type:varchar(255)"`
	Name         string         `json:"name" gorm:"type:varchar(120)"`
	Role         string         `json:"role" gorm:"type:varchar(32);not null;default:'staff'"`
	Location     string         `json:"location" gorm:"type:varchar(100)"`
	Department   string         `json:"department" gorm:"type:varchar(100)"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`
}
