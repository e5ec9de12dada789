// Package jobs runs the background work of the service.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"initiativehub/models"
	"initiativehub/realtime"
	"initiativehub/reports"
)

const snapshotTimeout = time.Minute

// SnapshotJob stores the dashboard summary periodically and keeps the newest
// Retention snapshots. Zero retention keeps everything.
type SnapshotJob struct {
	db        *gorm.DB
	publisher *realtime.Publisher
	log       *zap.Logger
	retention int
	now       func() time.Time
}

func NewSnapshotJob(conn *gorm.DB, publisher *realtime.Publisher, log *zap.Logger, retention int) *SnapshotJob {
	return &SnapshotJob{
		db:        conn,
		publisher: publisher,
		log:       log,
		retention: retention,
		now:       time.Now,
	}
}

// RunOnce takes a single snapshot, prunes old ones and announces the refresh.
func (j *SnapshotJob) RunOnce(ctx context.Context) (models.SummarySnapshot, error) {
	takenAt := j.now()
	summary, err := reports.Load(ctx, j.db, takenAt)
	if err != nil {
		return models.SummarySnapshot{}, err
	}

	snapshot := models.SummarySnapshot{TakenAt: takenAt, Summary: summary}
	if err := j.db.WithContext(ctx).Create(&snapshot).Error; err != nil {
		return models.SummarySnapshot{}, fmt.Errorf("store snapshot: %w", err)
	}

	pruned, err := j.prune(ctx)
	if err != nil {
		return snapshot, err
	}

	j.log.Info("summary snapshot stored",
		zap.Uint("snapshot_id", snapshot.ID),
		zap.Int("initiatives", summary.Total),
		zap.Int64("pruned", pruned))

	j.publisher.Publish(ctx, realtime.Change{
		Entity: "summary",
		Action: realtime.ActionRefreshed,
		ID:     snapshot.ID,
		Record: snapshot,
	})
	return snapshot, nil
}

func (j *SnapshotJob) prune(ctx context.Context) (int64, error) {
	if j.retention <= 0 {
		return 0, nil
	}

	var ids []uint
	if err := j.db.WithContext(ctx).Model(&models.SummarySnapshot{}).
		Order("taken_at desc, id desc").
		Pluck("id", &ids).Error; err != nil {
		return 0, fmt.Errorf("list snapshots: %w", err)
	}
	if len(ids) <= j.retention {
		return 0, nil
	}

	res := j.db.WithContext(ctx).Delete(&models.SummarySnapshot{}, ids[j.retention:])
	if res.Error != nil {
		return 0, fmt.Errorf("prune snapshots: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// Schedule registers the job on a new cron scheduler and starts it. The
// caller stops the returned scheduler on shutdown.
func Schedule(spec string, job *SnapshotJob) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), snapshotTimeout)
		defer cancel()
		if _, err := job.RunOnce(ctx); err != nil {
			job.log.Error("summary snapshot failed", zap.Error(err))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid snapshot schedule %q: %w", spec, err)
	}
	c.Start()
	return c, nil
}
