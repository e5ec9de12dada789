package reports

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"initiativehub/models"
)

const (
	EntryStart       = "start"
	EntryTarget      = "target"
	EntryAchievement = "achievement"
	EntryMilestone   = "milestone"
)

type CalendarEntry struct {
	Kind          string `json:"kind"`
	Title         string `json:"title"`
	InitiativeID  *uint  `json:"initiative_id,omitempty"`
	AchievementID uint   `json:"achievement_id,omitempty"`
	Status        string `json:"status,omitempty"`
	Team          string `json:"team,omitempty"`
}

type CalendarDay struct {
	Date    models.Date     `json:"date"`
	Entries []CalendarEntry `json:"entries"`
}

type Calendar struct {
	From models.Date   `json:"from"`
	To   models.Date   `json:"to"`
	Days []CalendarDay `json:"days"`
}

// MonthWindow returns the first and last day of the month containing t.
func MonthWindow(t time.Time) (models.Date, models.Date) {
	first := models.NewDate(t.Year(), t.Month(), 1)
	last := models.DateOf(first.AddDate(0, 1, -1))
	return first, last
}

// BuildCalendar places initiative start/target dates and achievements within
// [from, to] on their days. Days are ascending; entries within a day are
// ordered by kind, then title.
func BuildCalendar(initiatives []models.Initiative, achievements []models.Achievement, from, to models.Date) Calendar {
	byDay := map[string][]CalendarEntry{}
	dates := map[string]models.Date{}

	add := func(d *models.Date, entry CalendarEntry) {
		if d == nil || d.IsZero() || d.Before(from) || d.After(to) {
			return
		}
		key := d.String()
		dates[key] = *d
		byDay[key] = append(byDay[key], entry)
	}

	for _, in := range initiatives {
		id := in.ID
		add(in.StartDate, CalendarEntry{Kind: EntryStart, Title: in.Title, InitiativeID: &id, Status: in.Status, Team: in.Team})
		add(in.TargetDate, CalendarEntry{Kind: EntryTarget, Title: in.Title, InitiativeID: &id, Status: in.Status, Team: in.Team})
	}
	for _, a := range achievements {
		kind := EntryAchievement
		if a.Kind == models.KindMilestone {
			kind = EntryMilestone
		}
		date := a.Date
		add(&date, CalendarEntry{Kind: kind, Title: a.Title, InitiativeID: a.InitiativeID, AchievementID: a.ID, Team: a.Team})
	}

	keys := make([]string, 0, len(byDay))
	for k := range byDay {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	cal := Calendar{From: from, To: to, Days: make([]CalendarDay, 0, len(keys))}
	for _, k := range keys {
		entries := byDay[k]
		sort.SliceStable(entries, func(i, j int) bool {
			if entries[i].Kind != entries[j].Kind {
				return entries[i].Kind < entries[j].Kind
			}
			return entries[i].Title < entries[j].Title
		})
		cal.Days = append(cal.Days, CalendarDay{Date: dates[k], Entries: entries})
	}
	return cal
}

// LoadCalendar queries the rows that can fall in the window and builds the
// calendar.
func LoadCalendar(ctx context.Context, conn *gorm.DB, from, to models.Date) (Calendar, error) {
	var initiatives []models.Initiative
	if err := conn.WithContext(ctx).
		Where("(start_date BETWEEN ? AND ?) OR (target_date BETWEEN ? AND ?)", from, to, from, to).
		Find(&initiatives).Error; err != nil {
		return Calendar{}, fmt.Errorf("load initiatives: %w", err)
	}

	var achievements []models.Achievement
	if err := conn.WithContext(ctx).
		Where("date BETWEEN ? AND ?", from, to).
		Find(&achievements).Error; err != nil {
		return Calendar{}, fmt.Errorf("load achievements: %w", err)
	}
	return BuildCalendar(initiatives, achievements, from, to), nil
}
