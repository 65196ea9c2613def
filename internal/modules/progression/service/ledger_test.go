package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"anoa.com/skillquest/internal/entity"
	"anoa.com/skillquest/internal/metrics"
	notifRepo "anoa.com/skillquest/internal/modules/notification/repository"
	notifService "anoa.com/skillquest/internal/modules/notification/service"
	progressionRepo "anoa.com/skillquest/internal/modules/progression/repository"
	"anoa.com/skillquest/internal/realtime"
	"anoa.com/skillquest/internal/session"
	"anoa.com/skillquest/internal/testutil"
	"anoa.com/skillquest/pkg/apperror"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ledgerFixture struct {
	db     *gorm.DB
	repo   progressionRepo.ProfileRepository
	broker *realtime.MemoryBroker
	notif  notifService.NotificationService
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()
	db := testutil.OpenTestDB(t)
	broker := realtime.NewMemoryBroker(32)
	return &ledgerFixture{
		db:     db,
		repo:   progressionRepo.NewProfileRepository(db),
		broker: broker,
		notif:  notifService.NewNotificationService(notifRepo.NewNotificationRepository(db), broker, zap.NewNop()),
	}
}

func (f *ledgerFixture) ledger(repo progressionRepo.ProfileRepository, credit CreditClient) LedgerService {
	if repo == nil {
		repo = f.repo
	}
	return NewLedgerService(repo, credit, f.notif, f.broker, LedgerConfig{Levels: NewLevels(500), MaxRetries: 3}, zap.NewNop())
}

// casLosingRepo loses the compare-and-swap race a fixed number of times.
type casLosingRepo struct {
	progressionRepo.ProfileRepository
	losses int
	calls  int
}

func (r *casLosingRepo) CompareAndSwap(ctx context.Context, userID uuid.UUID, expectedXP, newXP, newLevel int) (bool, error) {
	r.calls++
	if r.calls <= r.losses {
		return false, nil
	}
	return r.ProfileRepository.CompareAndSwap(ctx, userID, expectedXP, newXP, newLevel)
}

type failingWriteRepo struct {
	progressionRepo.ProfileRepository
}

func (failingWriteRepo) CompareAndSwap(context.Context, uuid.UUID, int, int, int) (bool, error) {
	return false, errors.New("connection reset")
}

type stubCredit struct {
	result *CreditResult
	err    error
	token  string
}

func (s *stubCredit) Credit(_ context.Context, token string, _ int) (*CreditResult, error) {
	s.token = token
	return s.result, s.err
}

func drain(t *testing.T, sub *realtime.Subscription) []entity.Notification {
	t.Helper()
	var out []entity.Notification
	for {
		select {
		case msg := <-sub.C():
			var n entity.Notification
			require.NoError(t, json.Unmarshal(msg.Payload, &n))
			out = append(out, n)
		case <-time.After(50 * time.Millisecond):
			return out
		}
	}
}

func TestAwardXP_LevelUpScenario(t *testing.T) {
	t.Parallel()
	f := newLedgerFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	ledger := f.ledger(nil, nil)

	_, err := f.repo.SetProgress(ctx, userID, 450, 1)
	require.NoError(t, err)

	notes, err := f.notif.Subscribe(ctx, userID)
	require.NoError(t, err)
	defer notes.Close()
	profiles, err := ledger.WatchProfile(ctx, userID)
	require.NoError(t, err)
	defer profiles.Close()

	res, err := ledger.AwardXP(ctx, session.New(userID, ""), 100, "task")
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Equal(t, metrics.PathDirect, res.Path)
	assert.True(t, res.LeveledUp)
	assert.Equal(t, 1, res.PreviousLevel)
	assert.Equal(t, 550, res.Profile.XP)
	assert.Equal(t, 2, res.Profile.Level)

	stored, err := f.repo.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 550, stored.XP)
	assert.Equal(t, 2, stored.Level)

	pushed := drain(t, notes)
	require.Len(t, pushed, 2)
	assert.Equal(t, entity.NotificationXPGained, pushed[0].Type)
	assert.Equal(t, entity.NotificationLevelUp, pushed[1].Type)

	var persisted []entity.Notification
	require.NoError(t, f.db.Where("user_id = ?", userID).Find(&persisted).Error)
	require.Len(t, persisted, 1, "only level-ups are persisted")
	assert.Equal(t, entity.NotificationLevelUp, persisted[0].Type)

	waitCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	change, err := profiles.Next(waitCtx)
	require.NoError(t, err)
	assert.Equal(t, 550, change.XP)
}

func TestAwardXP_NoLevelUpEmitsOnlyXPGained(t *testing.T) {
	t.Parallel()
	f := newLedgerFixture(t)
	ctx := context.Background()
	userID := uuid.New()

	notes, err := f.notif.Subscribe(ctx, userID)
	require.NoError(t, err)
	defer notes.Close()

	res, err := f.ledger(nil, nil).AwardXP(ctx, session.New(userID, ""), 10, "")
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.False(t, res.LeveledUp)

	pushed := drain(t, notes)
	require.Len(t, pushed, 1)
	assert.Equal(t, entity.NotificationXPGained, pushed[0].Type)
}

func TestAwardXP_Unauthenticated(t *testing.T) {
	t.Parallel()
	f := newLedgerFixture(t)
	ctx := context.Background()
	ledger := f.ledger(nil, nil)

	for _, caller := range []*session.Caller{nil, session.New(uuid.Nil, "token")} {
		res, err := ledger.AwardXP(ctx, caller, 50, "task")
		assert.ErrorIs(t, err, apperror.ErrUnauthenticated)
		assert.Nil(t, res)
	}

	var count int64
	require.NoError(t, f.db.Model(&entity.Profile{}).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, f.db.Model(&entity.UserActivity{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestAwardXP_RejectsNegativeAmount(t *testing.T) {
	t.Parallel()
	f := newLedgerFixture(t)

	_, err := f.ledger(nil, nil).AwardXP(context.Background(), session.New(uuid.New(), ""), -1, "")
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestAwardXP_RetriesLostCompareAndSwap(t *testing.T) {
	t.Parallel()
	f := newLedgerFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	repo := &casLosingRepo{ProfileRepository: f.repo, losses: 2}

	res, err := f.ledger(repo, nil).AwardXP(ctx, session.New(userID, ""), 30, "")
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Equal(t, 3, repo.calls)
	assert.Equal(t, 30, res.Profile.XP)
}

func TestAwardXP_ExhaustedRetriesAreSwallowed(t *testing.T) {
	t.Parallel()
	f := newLedgerFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	repo := &casLosingRepo{ProfileRepository: f.repo, losses: 100}

	_, err := f.repo.SetProgress(ctx, userID, 450, 1)
	require.NoError(t, err)

	notes, err := f.notif.Subscribe(ctx, userID)
	require.NoError(t, err)
	defer notes.Close()

	res, err := f.ledger(repo, nil).AwardXP(ctx, session.New(userID, ""), 100, "task")
	require.NoError(t, err)
	assert.False(t, res.Applied)
	assert.Equal(t, metrics.PathDropped, res.Path)
	assert.Equal(t, 3, repo.calls)
	assert.Equal(t, 450, res.Profile.XP, "pre-award state is returned")
	assert.Empty(t, drain(t, notes))
}

func TestAwardXP_WriteErrorIsSwallowed(t *testing.T) {
	t.Parallel()
	f := newLedgerFixture(t)
	ctx := context.Background()
	userID := uuid.New()

	res, err := f.ledger(failingWriteRepo{f.repo}, nil).AwardXP(ctx, session.New(userID, ""), 10, "")
	require.NoError(t, err)
	assert.False(t, res.Applied)

	stored, err := f.repo.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.XP)
}

func TestAwardXP_PrivilegedPath(t *testing.T) {
	t.Parallel()
	f := newLedgerFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	credit := &stubCredit{result: &CreditResult{Success: true, XP: 600, Level: 2}}

	res, err := f.ledger(nil, credit).AwardXP(ctx, session.New(userID, "bearer-token"), 600, "")
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Equal(t, metrics.PathPrivileged, res.Path)
	assert.Equal(t, "bearer-token", credit.token)
	assert.Equal(t, 600, res.Profile.XP)
	assert.True(t, res.LeveledUp)
}

func TestAwardXP_PrivilegedFailureFallsBackToDirect(t *testing.T) {
	t.Parallel()
	f := newLedgerFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	credit := &stubCredit{err: errors.New("503")}

	res, err := f.ledger(nil, credit).AwardXP(ctx, session.New(userID, "bearer-token"), 40, "")
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Equal(t, metrics.PathDirect, res.Path)

	stored, err := f.repo.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 40, stored.XP)
}

func TestAwardXP_RepeatedCallsAwardRepeatedly(t *testing.T) {
	t.Parallel()
	f := newLedgerFixture(t)
	ctx := context.Background()
	caller := session.New(uuid.New(), "")
	ledger := f.ledger(nil, nil)

	for range 3 {
		_, err := ledger.AwardXP(ctx, caller, 200, "same reason")
		require.NoError(t, err)
	}

	p, err := ledger.LoadProfile(ctx, caller)
	require.NoError(t, err)
	assert.Equal(t, 600, p.XP)
	assert.Equal(t, 2, p.Level)
}

func TestLoadProfile(t *testing.T) {
	t.Parallel()
	f := newLedgerFixture(t)
	ctx := context.Background()
	ledger := f.ledger(nil, nil)

	_, err := ledger.LoadProfile(ctx, nil)
	assert.ErrorIs(t, err, apperror.ErrUnauthenticated)

	p, err := ledger.LoadProfile(ctx, session.New(uuid.New(), ""))
	require.NoError(t, err)
	assert.Equal(t, 0, p.XP)
	assert.Equal(t, 1, p.Level)
}

func TestCredit_PublishesChange(t *testing.T) {
	t.Parallel()
	f := newLedgerFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	ledger := f.ledger(nil, nil)

	stream, err := ledger.WatchProfile(ctx, userID)
	require.NoError(t, err)
	defer stream.Close()

	p, err := ledger.Credit(ctx, userID, 1200)
	require.NoError(t, err)
	assert.Equal(t, 1200, p.XP)
	assert.Equal(t, 3, p.Level)

	waitCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	change, err := stream.Next(waitCtx)
	require.NoError(t, err)
	assert.Equal(t, 3, change.Level)

	_, err = ledger.Credit(ctx, userID, -5)
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestSetProgress_OverwritesWithoutRelevel(t *testing.T) {
	t.Parallel()
	f := newLedgerFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	ledger := f.ledger(nil, nil)

	_, err := ledger.LoadProfile(ctx, session.New(userID, ""))
	require.NoError(t, err)

	stream, err := ledger.WatchProfile(ctx, userID)
	require.NoError(t, err)
	defer stream.Close()

	p, err := ledger.SetProgress(ctx, userID, 100, 7)
	require.NoError(t, err)
	assert.Equal(t, 100, p.XP)
	assert.Equal(t, 7, p.Level)

	waitCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	change, err := stream.Next(waitCtx)
	require.NoError(t, err)
	assert.Equal(t, 7, change.Level)

	stored, err := f.repo.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 100, stored.XP)
	assert.Equal(t, 7, stored.Level)
}

func TestAwardPaths_AgreeOnHandSetLevel(t *testing.T) {
	t.Parallel()
	f := newLedgerFixture(t)
	ctx := context.Background()
	ledger := f.ledger(nil, nil)

	direct, credited := uuid.New(), uuid.New()
	for _, id := range []uuid.UUID{direct, credited} {
		_, err := ledger.SetProgress(ctx, id, 100, 7)
		require.NoError(t, err)
	}

	res, err := ledger.AwardXP(ctx, session.New(direct, ""), 50, "")
	require.NoError(t, err)
	require.True(t, res.Applied)

	p, err := ledger.Credit(ctx, credited, 50)
	require.NoError(t, err)

	assert.Equal(t, res.Profile.XP, p.XP)
	assert.Equal(t, res.Profile.Level, p.Level)
	assert.Equal(t, 7, p.Level)
}
