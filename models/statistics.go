package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Summary is the dashboard roll-up over all initiatives and achievements.
type Summary struct {
	Total              int             `json:"total"`
	ByStatus           map[string]int  `json:"by_status"`
	ByPriority         map[string]int  `json:"by_priority"`
	ByTeam             map[string]int  `json:"by_team"`
	AverageProgress    float64         `json:"average_progress"`
	Overdue            int             `json:"overdue"`
	DueSoon            int             `json:"due_soon"`
	TotalBudget        decimal.Decimal `json:"total_budget"`
	Achievements       int             `json:"achievements"`
	RecentAchievements int             `json:"recent_achievements"`
	GeneratedAt        time.Time       `json:"generated_at"`
}

// SummarySnapshot is a stored copy of the summary taken by the snapshot job.
type SummarySnapshot struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TakenAt   time.Time `gorm:"index;not null" json:"taken_at"`
	Summary   Summary   `gorm:"type:text;serializer:json" json:"summary"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
