package models

import "time"

const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
	RoleViewer = "viewer"
)

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email" validate:"required,email"`
	Name         string    `json:"name"`
	Role         string    `gorm:"not null;default:viewer" json:"role" validate:"omitempty,oneof=admin editor viewer"`
	Team         string    `json:"team"`
	PasswordHash string    `gorm:"not null" json:"-"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// CanEdit reports whether the user may change initiatives and achievements.
func (u User) CanEdit() bool {
	return u.Role == RoleAdmin || u.Role == RoleEditor
}
