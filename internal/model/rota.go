package model

import (
	"time"

	"gorm.io/gorm"
)

// RotaWeek is one scheduling week for a (location, department) unit.
type RotaWeek struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	TenantID   uint           `json:"tenant_id" gorm:"index;not null"`
	WeekStart  time.Time      `json:"week_start" gorm:"index"`
	Location   string         `json:"location" gorm:"type:varchar(100)"`
	Department string         `json:"department" gorm:"type:varchar(100)"`
	Published  bool           `json:"published" gorm:"default:false"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`
}

// RotaShift is a single assigned shift inside a rota week.
type RotaShift struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	TenantID   uint           `json:"tenant_id" gorm:"index;not null"`
	WeekID     uint           `json:"week_id" gorm:"index;not null"`
	UserID     *uint          `json:"user_id,omitempty" gorm:"index"`
	StartTime  time.Time      `json:"start_time"`
	EndTime    time.Time      `json:"end_time"`
	Location   string         `json:"location" gorm:"type:varchar(100)"`
	Department string         `json:"department" gorm:"type:varchar(100)"`
	RoleLabel  string         `json:"role_label" gorm:"type:varchar(64)"`
	Notes      string         `json:"notes" gorm:"type:text"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Week RotaWeek `json:"-" gorm:"foreignKey:WeekID"`
}
