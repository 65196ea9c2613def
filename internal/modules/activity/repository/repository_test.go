package repository

import (
	"context"
	"testing"
	"time"

	"anoa.com/skillquest/internal/entity"
	"anoa.com/skillquest/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, repo ActivityRepository, base time.Time, n int) []entity.UserActivity {
	t.Helper()
	out := make([]entity.UserActivity, 0, n)
	for i := range n {
		a := entity.UserActivity{
			UserID:       uuid.New(),
			ActivityType: entity.ActivityChallenge,
			Description:  "entry",
			XPEarned:     i,
			CreatedAt:    base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, repo.Create(context.Background(), &a))
		out = append(out, a)
	}
	return out
}

func TestListRecent_NewestFirst(t *testing.T) {
	t.Parallel()
	repo := NewActivityRepository(testutil.OpenTestDB(t))
	base := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	seeded := seed(t, repo, base, 5)

	got, err := repo.ListRecent(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, seeded[4].ID, got[0].ID)
	assert.Equal(t, seeded[2].ID, got[2].ID)
	assert.NotEqual(t, uuid.Nil, got[0].ID)
}

func TestMoversSince(t *testing.T) {
	t.Parallel()
	repo := NewActivityRepository(testutil.OpenTestDB(t))
	ctx := context.Background()
	midnight := time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC)
	ana, budi, citra := uuid.New(), uuid.New(), uuid.New()

	for _, a := range []entity.UserActivity{
		{UserID: ana, XPEarned: 500, CreatedAt: midnight.Add(-time.Minute)}, // yesterday
		{UserID: ana, XPEarned: 10, CreatedAt: midnight},
		{UserID: ana, XPEarned: 20, CreatedAt: midnight.Add(time.Hour)},
		{UserID: budi, XPEarned: 30, CreatedAt: midnight.Add(2 * time.Hour)},
		{UserID: citra, XPEarned: 5, CreatedAt: midnight.Add(3 * time.Hour)},
	} {
		a.ActivityType = entity.ActivityChallenge
		a.Description = "entry"
		require.NoError(t, repo.Create(ctx, &a))
	}

	got, err := repo.MoversSince(ctx, midnight, 10)
	require.NoError(t, err)
	require.Len(t, got, 3)

	// ana and budi tie on 30; budi posted last.
	assert.Equal(t, MoverTotal{UserID: budi, XP: 30, Activities: 1}, got[0])
	assert.Equal(t, MoverTotal{UserID: ana, XP: 30, Activities: 2}, got[1])
	assert.Equal(t, MoverTotal{UserID: citra, XP: 5, Activities: 1}, got[2])

	got, err = repo.MoversSince(ctx, midnight, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, budi, got[0].UserID)
}

func TestMoversSince_CountsPastAnyPageSize(t *testing.T) {
	t.Parallel()
	db := testutil.OpenTestDB(t)
	repo := NewActivityRepository(db)
	ctx := context.Background()
	midnight := time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC)
	busy := uuid.New()

	const n = 1200
	rows := make([]entity.UserActivity, n)
	for i := range rows {
		rows[i] = entity.UserActivity{
			UserID:       busy,
			ActivityType: entity.ActivityChallenge,
			Description:  "entry",
			XPEarned:     1,
			CreatedAt:    midnight.Add(time.Duration(i) * time.Second),
		}
	}
	require.NoError(t, db.CreateInBatches(rows, 200).Error)

	got, err := repo.MoversSince(ctx, midnight, 3)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, n, got[0].XP)
	assert.Equal(t, n, got[0].Activities)
}

func TestListPage_WalksOldestFirst(t *testing.T) {
	t.Parallel()
	repo := NewActivityRepository(testutil.OpenTestDB(t))
	seeded := seed(t, repo, time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC), 5)

	var all []entity.UserActivity
	for offset := 0; ; offset += 2 {
		page, err := repo.ListPage(context.Background(), offset, 2)
		require.NoError(t, err)
		if len(page) == 0 {
			break
		}
		all = append(all, page...)
	}
	require.Len(t, all, 5)
	assert.Equal(t, seeded[0].ID, all[0].ID)
}
