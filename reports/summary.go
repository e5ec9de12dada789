// Package reports computes the dashboard roll-ups.
package reports

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"initiativehub/models"
)

const (
	dueSoonWindow      = 30 * 24 * time.Hour
	recentAchievements = 30 * 24 * time.Hour
)

// Summarize rolls up initiatives and achievements as of now.
func Summarize(initiatives []models.Initiative, achievements []models.Achievement, now time.Time) models.Summary {
	today := models.DateOf(now)
	soon := models.DateOf(now.Add(dueSoonWindow))
	recent := models.DateOf(now.Add(-recentAchievements))

	s := models.Summary{
		Total:       len(initiatives),
		ByStatus:    map[string]int{},
		ByPriority:  map[string]int{},
		ByTeam:      map[string]int{},
		TotalBudget: decimal.Zero,
		GeneratedAt: now,
	}

	progress := 0
	for _, in := range initiatives {
		s.ByStatus[in.Status]++
		s.ByPriority[in.Priority]++
		team := in.Team
		if team == "" {
			team = "unassigned"
		}
		s.ByTeam[team]++

		progress += in.Progress
		s.TotalBudget = s.TotalBudget.Add(in.Budget)

		switch {
		case in.Overdue(today):
			s.Overdue++
		case in.TargetDate != nil && in.Status != models.StatusCompleted && !in.TargetDate.After(soon):
			s.DueSoon++
		}
	}
	if len(initiatives) > 0 {
		s.AverageProgress = math.Round(float64(progress)/float64(len(initiatives))*10) / 10
	}

	s.Achievements = len(achievements)
	for _, a := range achievements {
		if !a.Date.Before(recent) && !a.Date.After(today) {
			s.RecentAchievements++
		}
	}
	return s
}

// Load reads every initiative and achievement and summarizes them.
func Load(ctx context.Context, conn *gorm.DB, now time.Time) (models.Summary, error) {
	var initiatives []models.Initiative
	if err := conn.WithContext(ctx).Find(&initiatives).Error; err != nil {
		return models.Summary{}, fmt.Errorf("load initiatives: %w", err)
	}
	var achievements []models.Achievement
	if err := conn.WithContext(ctx).Find(&achievements).Error; err != nil {
		return models.Summary{}, fmt.Errorf("load achievements: %w", err)
	}
	return Summarize(initiatives, achievements, now), nil
}
