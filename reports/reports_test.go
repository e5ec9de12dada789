package reports

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"initiativehub/db/dbtest"
	"initiativehub/models"
)

var now = time.Date(2026, time.March, 10, 15, 0, 0, 0, time.UTC)

func datePtr(y int, m time.Month, d int) *models.Date {
	date := models.NewDate(y, m, d)
	return &date
}

func uintPtr(v uint) *uint { return &v }

func fixtures() ([]models.Initiative, []models.Achievement) {
	initiatives := []models.Initiative{
		{ID: 1, Title: "Overdue", Status: "in_progress", Priority: "high", Team: "platform",
			Progress: 30, Budget: decimal.RequireFromString("1000.50"), TargetDate: datePtr(2026, time.March, 1)},
		{ID: 2, Title: "Due soon", Status: "at_risk", Priority: "high", Team: "platform",
			Progress: 55, Budget: decimal.RequireFromString("250"), TargetDate: datePtr(2026, time.April, 2)},
		{ID: 3, Title: "Done late", Status: models.StatusCompleted, Priority: "low",
			Progress: 100, TargetDate: datePtr(2026, time.January, 5), StartDate: datePtr(2025, time.June, 1)},
		{ID: 4, Title: "Far out", Status: "not_started", Priority: "medium", Team: "growth",
			TargetDate: datePtr(2026, time.December, 31), StartDate: datePtr(2026, time.March, 20)},
	}
	achievements := []models.Achievement{
		{ID: 1, Title: "Beta shipped", Date: models.NewDate(2026, time.March, 2), Kind: models.KindMilestone, InitiativeID: uintPtr(1)},
		{ID: 2, Title: "Hired lead", Date: models.NewDate(2026, time.February, 20), Kind: models.KindAchievement},
		{ID: 3, Title: "Old win", Date: models.NewDate(2025, time.November, 1), Kind: models.KindAchievement},
	}
	return initiatives, achievements
}

func TestSummarize(t *testing.T) {
	initiatives, achievements := fixtures()
	s := Summarize(initiatives, achievements, now)

	assert.Equal(t, 4, s.Total)
	assert.Equal(t, map[string]int{"in_progress": 1, "at_risk": 1, "completed": 1, "not_started": 1}, s.ByStatus)
	assert.Equal(t, map[string]int{"high": 2, "low": 1, "medium": 1}, s.ByPriority)
	assert.Equal(t, map[string]int{"platform": 2, "growth": 1, "unassigned": 1}, s.ByTeam)
	assert.Equal(t, 46.3, s.AverageProgress)
	assert.Equal(t, 1, s.Overdue)
	assert.Equal(t, 1, s.DueSoon)
	assert.Equal(t, "1250.5", s.TotalBudget.String())
	assert.Equal(t, 3, s.Achievements)
	assert.Equal(t, 2, s.RecentAchievements)
	assert.Equal(t, now, s.GeneratedAt)
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil, nil, now)
	assert.Zero(t, s.Total)
	assert.Zero(t, s.AverageProgress)
	assert.NotNil(t, s.ByStatus)
	assert.True(t, s.TotalBudget.IsZero())
}

func TestMonthWindow(t *testing.T) {
	from, to := MonthWindow(time.Date(2024, time.February, 14, 23, 0, 0, 0, time.UTC))
	assert.Equal(t, "2024-02-01", from.String())
	assert.Equal(t, "2024-02-29", to.String())
}

func TestBuildCalendar(t *testing.T) {
	initiatives, achievements := fixtures()
	from, to := MonthWindow(now)

	cal := BuildCalendar(initiatives, achievements, from, to)

	require.Len(t, cal.Days, 3)
	assert.Equal(t, "2026-03-01", cal.Days[0].Date.String())
	assert.Equal(t, "2026-03-02", cal.Days[1].Date.String())
	assert.Equal(t, "2026-03-20", cal.Days[2].Date.String())

	assert.Equal(t, []CalendarEntry{
		{Kind: EntryTarget, Title: "Overdue", InitiativeID: uintPtr(1), Status: "in_progress", Team: "platform"},
	}, cal.Days[0].Entries)
	assert.Equal(t, EntryMilestone, cal.Days[1].Entries[0].Kind)
	assert.Equal(t, uint(1), cal.Days[1].Entries[0].AchievementID)
	assert.Equal(t, EntryStart, cal.Days[2].Entries[0].Kind)
}

func TestBuildCalendarOrdersWithinDay(t *testing.T) {
	day := models.NewDate(2026, time.May, 4)
	initiatives := []models.Initiative{
		{ID: 1, Title: "Zeta", TargetDate: &day},
		{ID: 2, Title: "Alpha", TargetDate: &day, StartDate: &day},
	}
	achievements := []models.Achievement{
		{ID: 9, Title: "Launch", Date: day, Kind: models.KindAchievement},
	}

	cal := BuildCalendar(initiatives, achievements, day, day)
	require.Len(t, cal.Days, 1)

	var got []string
	for _, e := range cal.Days[0].Entries {
		got = append(got, e.Kind+":"+e.Title)
	}
	assert.Equal(t, []string{"achievement:Launch", "start:Alpha", "target:Alpha", "target:Zeta"}, got)
}

func TestLoadFromDatabase(t *testing.T) {
	conn := dbtest.New(t)
	initiatives, achievements := fixtures()
	require.NoError(t, conn.Create(&initiatives).Error)
	require.NoError(t, conn.Create(&achievements).Error)

	s, err := Load(context.Background(), conn, now)
	require.NoError(t, err)
	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 1, s.Overdue)

	from, to := MonthWindow(now)
	cal, err := LoadCalendar(context.Background(), conn, from, to)
	require.NoError(t, err)
	assert.Len(t, cal.Days, 3)
}
