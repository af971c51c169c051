package model

import (
	"time"

	"gorm.io/gorm"
)

// Subscription statuses. Only active and trial tenants may reach application
// logic; every other value is treated as suspended.
const (
	SubscriptionActive    = "active"
	SubscriptionTrial     = "trial"
	SubscriptionSuspended = "suspended"
)

// Tenant represents an organizational customer. The slug is the URL-facing
// identifier and is immutable once assigned.
type Tenant struct {
	ID                 uint           `json:"id" gorm:"primaryKey"`
	Slug               string         `json:"slug" gorm:"type:varchar(64);uniqueIndex"`
	LegalName          string         `json:"legal_name" gorm:"type:varchar(200)"`
	Settings           string         `json:"settings" gorm:"type:jsonb"`
	SubscriptionStatus string         `json:"subscription_status" gorm:"type:varchar(32);default:'trial'"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `json:"-" gorm:"index"`
}

// Billable reports whether the subscription allows access. Exactly two
// statuses pass; intermediate billing states are denied the same as suspended.
func (t *Tenant) Billable() bool {
	return t.SubscriptionStatus == SubscriptionActive || t.SubscriptionStatus == SubscriptionTrial
}
