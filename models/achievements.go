package models

import "time"

const (
	KindAchievement = "achievement"
	KindMilestone   = "milestone"
)

// Achievement is a dated note, attached to an initiative or standalone when
// InitiativeID is nil.
type Achievement struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	InitiativeID *uint     `gorm:"index" json:"initiative_id"`
	Title        string    `gorm:"not null" json:"title" validate:"required"`
	Description  string    `json:"description"`
	Date         Date      `gorm:"index;not null" json:"date"`
	Kind         string    `gorm:"not null;default:achievement" json:"kind" validate:"omitempty,oneof=achievement milestone"`
	Team         string    `json:"team"`
	Image        string    `json:"image"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
