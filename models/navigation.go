package models

import "time"

type NavigationConfig struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"uniqueIndex;not null" json:"key" validate:"required"`
	Label     string    `gorm:"not null" json:"label" validate:"required"`
	Path      string    `gorm:"not null" json:"path" validate:"required,startswith=/"`
	Icon      string    `json:"icon"`
	SortOrder int       `gorm:"default:0" json:"sort_order"`
	Visible   bool      `json:"visible"`
	AdminOnly bool      `json:"admin_only"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
