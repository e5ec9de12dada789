package models

import "time"

const (
	CategoryStatus   = "status"
	CategoryPriority = "priority"
	CategoryTeam     = "team"
)

// ConfigItem is an admin-managed enumerated value used to populate selects.
type ConfigItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Category  string    `gorm:"uniqueIndex:idx_config_category_value;not null" json:"category" validate:"required,max=64"`
	Value     string    `gorm:"uniqueIndex:idx_config_category_value;not null" json:"value" validate:"required,max=128"`
	Label     string    `json:"label"`
	Color     string    `json:"color" validate:"omitempty,hexcolor"`
	SortOrder int       `gorm:"default:0" json:"sort_order"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
