package jobs

import (
	"context"
	"sync"
	"testing"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"initiativehub/db/dbtest"
	"initiativehub/models"
	"initiativehub/realtime"
)

type recordingSink struct {
	mu     sync.Mutex
	events []cloudevents.Event
}

func (s *recordingSink) Send(_ context.Context, event cloudevents.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) Close() error { return nil }

func TestRunOnce(t *testing.T) {
	conn := dbtest.New(t)
	require.NoError(t, conn.Create(&[]models.Initiative{
		{Title: "One", Status: "in_progress", Priority: "high", Progress: 20},
		{Title: "Two", Status: "completed", Priority: "low", Progress: 100},
	}).Error)

	sink := &recordingSink{}
	job := NewSnapshotJob(conn, realtime.NewPublisher(zap.NewNop(), sink), zap.NewNop(), 2)

	base := time.Date(2026, time.June, 1, 8, 0, 0, 0, time.UTC)
	tick := 0
	job.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Hour)
	}

	var last models.SummarySnapshot
	for i := 0; i < 3; i++ {
		snap, err := job.RunOnce(context.Background())
		require.NoError(t, err)
		last = snap
	}

	assert.Equal(t, 2, last.Summary.Total)
	assert.Equal(t, 60.0, last.Summary.AverageProgress)

	var stored []models.SummarySnapshot
	require.NoError(t, conn.Order("taken_at asc").Find(&stored).Error)
	require.Len(t, stored, 2)
	assert.Equal(t, base.Add(2*time.Hour).Unix(), stored[0].TakenAt.Unix())
	assert.Equal(t, last.ID, stored[1].ID)
	assert.Equal(t, 2, stored[1].Summary.Total)
	assert.Equal(t, 1, stored[1].Summary.ByStatus["completed"])

	require.Len(t, sink.events, 3)
	assert.Equal(t, "initiativehub.summary.refreshed", sink.events[2].Type())
}

func TestRunOnceWithoutRetentionKeepsAll(t *testing.T) {
	conn := dbtest.New(t)
	job := NewSnapshotJob(conn, nil, zap.NewNop(), 0)

	for i := 0; i < 4; i++ {
		_, err := job.RunOnce(context.Background())
		require.NoError(t, err)
	}

	var count int64
	require.NoError(t, conn.Model(&models.SummarySnapshot{}).Count(&count).Error)
	assert.Equal(t, int64(4), count)
}

func TestScheduleRejectsBadSpec(t *testing.T) {
	job := NewSnapshotJob(dbtest.New(t), nil, zap.NewNop(), 1)
	_, err := Schedule("every now and then", job)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid snapshot schedule")
}
