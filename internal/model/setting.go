package model

import "time"

// Setting is the install-wide settings record. Exactly one row with ID 1 is
// expected; Data holds a JSON blob with directory listings such as
// {"directories": {"locations": [...], "departments": [...]}}.
type Setting struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Data      string    `json:"data" gorm:"type:jsonb"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName overrides the default pluralization
func (Setting) TableName() string {
	return "settings"
}
