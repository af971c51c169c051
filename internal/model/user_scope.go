package model

import "time"

// UserScope is an explicit scope-membership record: the user belongs to the
// (location, department) organizational unit. A user may hold several
// memberships but never the identical triple twice, enforced by the
// composite primary key.
type UserScope struct {
	UserID     uint      `json:"user_id" gorm:"primaryKey;autoIncrement:false"`
	Location   string    `json:"location" gorm:"primaryKey;type:varchar(100)"`
	Department string    `json:"department" gorm:"primaryKey;type:varchar(100)"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName overrides the default pluralization
func (UserScope) TableName() string {
	return "user_scopes"
}
