package models

import "time"

const EntityInitiative = "initiative"

// FieldConfiguration controls whether a form field is shown and required.
type FieldConfiguration struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Entity    string    `gorm:"uniqueIndex:idx_field_entity_name;not null;default:initiative" json:"entity" validate:"omitempty,oneof=initiative"`
	FieldName string    `gorm:"uniqueIndex:idx_field_entity_name;not null" json:"field_name" validate:"required"`
	Label     string    `json:"label"`
	Required  bool      `json:"required"`
	Visible   bool      `json:"visible"`
	SortOrder int       `gorm:"default:0" json:"sort_order"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
