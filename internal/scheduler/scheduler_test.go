package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"anoa.com/skillquest/internal/entity"
	"anoa.com/skillquest/pkg/apperror"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type pagedSource struct {
	rows []entity.UserActivity
}

func (p *pagedSource) ListPage(_ context.Context, offset, limit int) ([]entity.UserActivity, error) {
	if offset >= len(p.rows) {
		return nil, nil
	}
	end := min(offset+limit, len(p.rows))
	return p.rows[offset:end], nil
}

type countingIndexer struct {
	enabled bool
	batches []int
	err     error
}

func (c *countingIndexer) IndexActivities(a []entity.UserActivity) error {
	c.batches = append(c.batches, len(a))
	return c.err
}

func (c *countingIndexer) Enabled() bool { return c.enabled }

func TestReindexActivitiesJob(t *testing.T) {
	rows := make([]entity.UserActivity, reindexBatchSize+7)
	for i := range rows {
		rows[i].ID = uuid.New()
	}
	indexer := &countingIndexer{enabled: true}
	job := NewReindexActivitiesJob(&pagedSource{rows: rows}, indexer, "", zap.NewNop())

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, []int{reindexBatchSize, 7}, indexer.batches)
}

func TestReindexActivitiesJob_SkipsWhenDisabled(t *testing.T) {
	indexer := &countingIndexer{}
	job := NewReindexActivitiesJob(&pagedSource{rows: make([]entity.UserActivity, 3)}, indexer, "", zap.NewNop())

	require.NoError(t, job.Run(context.Background()))
	assert.Empty(t, indexer.batches)
}

func TestReindexActivitiesJob_PropagatesIndexError(t *testing.T) {
	indexer := &countingIndexer{enabled: true, err: errors.New("meilisearch down")}
	job := NewReindexActivitiesJob(&pagedSource{rows: make([]entity.UserActivity, 3)}, indexer, "", zap.NewNop())

	assert.Error(t, job.Run(context.Background()))
}

type fakeCleaner struct {
	olderThan time.Duration
}

func (f *fakeCleaner) CleanupRead(_ context.Context, olderThan time.Duration) (int64, error) {
	f.olderThan = olderThan
	return 4, nil
}

func TestScheduler_RegisterAndRunByName(t *testing.T) {
	cleaner := &fakeCleaner{}
	s := New(time.Minute, zap.NewNop())

	require.NoError(t, s.Register(NewCleanupNotificationsJob(cleaner, 0, "0 3 * * *", zap.NewNop())))
	require.NoError(t, s.Register(NewReindexActivitiesJob(&pagedSource{}, &countingIndexer{}, "", zap.NewNop())))
	assert.Equal(t, []string{"cleanup-notifications", "reindex-activities"}, s.Jobs())

	require.NoError(t, s.RunByName(context.Background(), "cleanup-notifications"))
	assert.Equal(t, NotificationRetention, cleaner.olderThan)

	assert.ErrorIs(t, s.RunByName(context.Background(), "missing"), apperror.ErrNotFound)
}

func TestScheduler_RejectsBadSchedule(t *testing.T) {
	s := New(time.Minute, zap.NewNop())
	err := s.Register(NewCleanupNotificationsJob(&fakeCleaner{}, 0, "not a cron", zap.NewNop()))
	assert.Error(t, err)
}

func TestScheduler_StartStop(t *testing.T) {
	s := New(time.Minute, zap.NewNop())
	s.Start()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}
