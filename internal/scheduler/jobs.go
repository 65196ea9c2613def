package scheduler

import (
	"context"
	"time"

	"anoa.com/skillquest/internal/entity"
	"go.uber.org/zap"
)

const (
	reindexBatchSize      = 500
	NotificationRetention = 30 * 24 * time.Hour
)

type ActivitySource interface {
	ListPage(ctx context.Context, offset, limit int) ([]entity.UserActivity, error)
}

type ActivityIndexer interface {
	IndexActivities(activities []entity.UserActivity) error
	Enabled() bool
}

// ReindexActivitiesJob pushes the whole activity log to the search index.
type ReindexActivitiesJob struct {
	source   ActivitySource
	indexer  ActivityIndexer
	schedule string
	log      *zap.Logger
}

func NewReindexActivitiesJob(source ActivitySource, indexer ActivityIndexer, schedule string, log *zap.Logger) *ReindexActivitiesJob {
	return &ReindexActivitiesJob{source: source, indexer: indexer, schedule: schedule, log: log}
}

func (j *ReindexActivitiesJob) Name() string     { return "reindex-activities" }
func (j *ReindexActivitiesJob) Schedule() string { return j.schedule }

func (j *ReindexActivitiesJob) Run(ctx context.Context) error {
	if !j.indexer.Enabled() {
		j.log.Debug("search disabled, skipping reindex")
		return nil
	}

	total := 0
	for offset := 0; ; offset += reindexBatchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		batch, err := j.source.ListPage(ctx, offset, reindexBatchSize)
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			break
		}
		if err := j.indexer.IndexActivities(batch); err != nil {
			return err
		}
		total += len(batch)
		if len(batch) < reindexBatchSize {
			break
		}
	}
	j.log.Info("activities reindexed", zap.Int("count", total))
	return nil
}

type NotificationCleaner interface {
	CleanupRead(ctx context.Context, olderThan time.Duration) (int64, error)
}

// CleanupNotificationsJob deletes read notifications past retention.
type CleanupNotificationsJob struct {
	cleaner   NotificationCleaner
	retention time.Duration
	schedule  string
	log       *zap.Logger
}

func NewCleanupNotificationsJob(cleaner NotificationCleaner, retention time.Duration, schedule string, log *zap.Logger) *CleanupNotificationsJob {
	if retention <= 0 {
		retention = NotificationRetention
	}
	return &CleanupNotificationsJob{cleaner: cleaner, retention: retention, schedule: schedule, log: log}
}

func (j *CleanupNotificationsJob) Name() string     { return "cleanup-notifications" }
func (j *CleanupNotificationsJob) Schedule() string { return j.schedule }

func (j *CleanupNotificationsJob) Run(ctx context.Context) error {
	deleted, err := j.cleaner.CleanupRead(ctx, j.retention)
	if err != nil {
		return err
	}
	j.log.Info("read notifications cleaned up", zap.Int64("deleted", deleted))
	return nil
}
