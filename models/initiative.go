package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	DefaultStatus   = "not_started"
	DefaultPriority = "medium"
	StatusCompleted = "completed"
)

type Initiative struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	Title            string          `gorm:"not null" json:"title" validate:"required"`
	Description      string          `json:"description"`
	Status           string          `gorm:"index;not null;default:not_started" json:"status"`
	Priority         string          `gorm:"index;not null;default:medium" json:"priority"`
	Team             string          `gorm:"index" json:"team"`
	Owner            string          `json:"owner"`
	ExecutiveSponsor string          `json:"executive_sponsor"`
	StartDate        *Date           `json:"start_date"`
	TargetDate       *Date           `gorm:"index" json:"target_date"`
	Progress         int             `gorm:"not null;default:0" json:"progress" validate:"gte=0,lte=100"`
	Budget           decimal.Decimal `gorm:"type:decimal(16,2)" json:"budget"`
	Tags             []string        `gorm:"type:text;serializer:json" json:"tags"`
	Notes            string          `json:"notes"`
	CreatedByID      *uint           `json:"created_by_id"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	Achievements     []Achievement   `gorm:"foreignKey:InitiativeID" json:"achievements,omitempty"`
}

// Overdue reports whether the target date has passed without completion.
func (i Initiative) Overdue(today Date) bool {
	return i.TargetDate != nil && i.TargetDate.Before(today) && i.Status != StatusCompleted
}
