package service

import (
	"context"
	"fmt"

	"anoa.com/skillquest/internal/entity"
	"anoa.com/skillquest/internal/metrics"
	notifService "anoa.com/skillquest/internal/modules/notification/service"
	progressionRepo "anoa.com/skillquest/internal/modules/progression/repository"
	"anoa.com/skillquest/internal/realtime"
	"anoa.com/skillquest/internal/session"
	"anoa.com/skillquest/pkg/apperror"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const DefaultAwardRetries = 3

// AwardResult describes one AwardXP call. When Applied is false the write was
// dropped and Profile is the state read before the award (nil if even that
// read failed).
type AwardResult struct {
	Profile       *entity.Profile `json:"profile"`
	Amount        int             `json:"amount"`
	Reason        string          `json:"reason,omitempty"`
	Applied       bool            `json:"applied"`
	Path          string          `json:"path"`
	PreviousLevel int             `json:"previous_level"`
	LeveledUp     bool            `json:"leveled_up"`
}

type LedgerConfig struct {
	Levels     Levels
	MaxRetries int
}

type LedgerService interface {
	LoadProfile(ctx context.Context, caller *session.Caller) (*entity.Profile, error)
	AwardXP(ctx context.Context, caller *session.Caller, amount int, reason string) (*AwardResult, error)
	// Credit is the trusted increment-and-relevel path.
	Credit(ctx context.Context, userID uuid.UUID, amount int) (*entity.Profile, error)
	// SetProgress overwrites xp and level as given, without re-deriving the level.
	SetProgress(ctx context.Context, userID uuid.UUID, xp, level int) (*entity.Profile, error)
	WatchProfile(ctx context.Context, userID uuid.UUID) (*realtime.Stream[entity.Profile], error)
	Status(profile *entity.Profile) LevelStatus
}

type ledgerService struct {
	repo          progressionRepo.ProfileRepository
	credit        CreditClient
	notifications notifService.NotificationService
	broker        realtime.Broker
	levels        Levels
	maxRetries    int
	log           *zap.Logger
}

// NewLedgerService wires the ledger. credit and notifications may be nil.
func NewLedgerService(
	repo progressionRepo.ProfileRepository,
	credit CreditClient,
	notifications notifService.NotificationService,
	broker realtime.Broker,
	cfg LedgerConfig,
	log *zap.Logger,
) LedgerService {
	if cfg.Levels.Step <= 0 {
		cfg.Levels = NewLevels(DefaultLevelStep)
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultAwardRetries
	}
	return &ledgerService{
		repo:          repo,
		credit:        credit,
		notifications: notifications,
		broker:        broker,
		levels:        cfg.Levels,
		maxRetries:    cfg.MaxRetries,
		log:           log,
	}
}

func (s *ledgerService) LoadProfile(ctx context.Context, caller *session.Caller) (*entity.Profile, error) {
	if !caller.Authenticated() {
		return nil, apperror.ErrUnauthenticated
	}
	return s.repo.GetOrCreate(ctx, caller.UserID)
}

func (s *ledgerService) AwardXP(ctx context.Context, caller *session.Caller, amount int, reason string) (*AwardResult, error) {
	if !caller.Authenticated() {
		return nil, apperror.ErrUnauthenticated
	}
	if amount < 0 {
		return nil, apperror.Validation("amount must not be negative", map[string]string{"amount": "must be 0 or greater"})
	}

	result := &AwardResult{Amount: amount, Reason: reason, Path: metrics.PathDropped}
	userID := caller.UserID

	current, err := s.repo.GetOrCreate(ctx, userID)
	if err != nil {
		s.dropped(userID, amount, "read profile", err)
		return result, nil
	}
	result.Profile = current
	result.PreviousLevel = current.Level

	updated, path := s.apply(ctx, caller, current, amount)
	if updated == nil {
		metrics.AwardOutcomes.WithLabelValues(metrics.PathDropped).Inc()
		return result, nil
	}

	result.Profile = updated.profile
	result.PreviousLevel = updated.previousLevel
	result.Applied = true
	result.Path = path
	result.LeveledUp = updated.profile.Level > updated.previousLevel

	metrics.AwardOutcomes.WithLabelValues(path).Inc()
	metrics.XPAwarded.Add(float64(amount))

	s.announce(ctx, result)
	return result, nil
}

type applied struct {
	profile       *entity.Profile
	previousLevel int
}

// apply tries the privileged credit path, then the direct compare-and-swap
// path. It returns nil when neither could write.
func (s *ledgerService) apply(ctx context.Context, caller *session.Caller, current *entity.Profile, amount int) (*applied, string) {
	if s.credit != nil && caller.Token != "" {
		res, err := s.credit.Credit(ctx, caller.Token, amount)
		if err == nil {
			p := *current
			p.XP, p.Level = res.XP, res.Level
			return &applied{profile: &p, previousLevel: current.Level}, metrics.PathPrivileged
		}
		s.log.Warn("privileged credit failed, falling back to direct update",
			zap.String("user_id", caller.UserID.String()),
			zap.Error(err),
		)
	}

	base := current
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		newXP := base.XP + amount
		newLevel := s.levels.Advance(base.Level, newXP)

		ok, err := s.repo.CompareAndSwap(ctx, caller.UserID, base.XP, newXP, newLevel)
		if err != nil {
			s.dropped(caller.UserID, amount, "write profile", err)
			return nil, ""
		}
		if ok {
			p := *base
			p.XP, p.Level = newXP, newLevel
			return &applied{profile: &p, previousLevel: base.Level}, metrics.PathDirect
		}

		// Someone else wrote first: re-read and recompute.
		if base, err = s.repo.Get(ctx, caller.UserID); err != nil {
			s.dropped(caller.UserID, amount, "re-read profile", err)
			return nil, ""
		}
	}

	s.dropped(caller.UserID, amount, "compare-and-swap", fmt.Errorf("%w: gave up after %d attempts", apperror.ErrTransientWrite, s.maxRetries))
	return nil, ""
}

// dropped logs a swallowed award failure.
func (s *ledgerService) dropped(userID uuid.UUID, amount int, stage string, err error) {
	s.log.Error("xp award dropped",
		zap.String("user_id", userID.String()),
		zap.Int("amount", amount),
		zap.String("stage", stage),
		zap.Error(err),
	)
}

func (s *ledgerService) announce(ctx context.Context, result *AwardResult) {
	profile := result.Profile
	s.publishProfile(ctx, profile)

	if s.notifications == nil {
		return
	}

	message := fmt.Sprintf("+%d XP", result.Amount)
	if result.Reason != "" {
		message = fmt.Sprintf("+%d XP for %s", result.Amount, result.Reason)
	}
	gained := &entity.Notification{
		UserID:  profile.ID,
		Type:    entity.NotificationXPGained,
		Message: message,
		Data: notifService.NewData(map[string]any{
			"amount": result.Amount,
			"reason": result.Reason,
			"xp":     profile.XP,
		}),
	}
	if err := s.notifications.Emit(ctx, gained); err != nil {
		s.log.Warn("failed to emit xp notification", zap.String("user_id", profile.ID.String()), zap.Error(err))
	}

	if !result.LeveledUp {
		return
	}
	metrics.LevelUps.Inc()

	levelUp := &entity.Notification{
		UserID:  profile.ID,
		Type:    entity.NotificationLevelUp,
		Message: fmt.Sprintf("Level up! You reached level %d", profile.Level),
		Data: notifService.NewData(map[string]any{
			"previous_level": result.PreviousLevel,
			"level":          profile.Level,
			"xp":             profile.XP,
		}),
	}
	if err := s.notifications.CreateNotification(ctx, levelUp); err != nil {
		s.log.Error("failed to send level up notification", zap.String("user_id", profile.ID.String()), zap.Error(err))
		return
	}
	s.log.Info("level up",
		zap.String("user_id", profile.ID.String()),
		zap.Int("from", result.PreviousLevel),
		zap.Int("to", profile.Level),
	)
}

func (s *ledgerService) publishProfile(ctx context.Context, profile *entity.Profile) {
	if s.broker == nil {
		return
	}
	if err := realtime.PublishJSON(ctx, s.broker, realtime.ProfileChannel(profile.ID), profile); err != nil {
		s.log.Warn("failed to publish profile change", zap.String("user_id", profile.ID.String()), zap.Error(err))
	}
}

func (s *ledgerService) Credit(ctx context.Context, userID uuid.UUID, amount int) (*entity.Profile, error) {
	if amount < 0 {
		return nil, apperror.Validation("amount must not be negative", map[string]string{"amount": "must be 0 or greater"})
	}

	profile, err := s.repo.IncrementAndRelevel(ctx, userID, amount, s.levels.Step)
	if err != nil {
		return nil, fmt.Errorf("credit xp: %w", err)
	}

	s.publishProfile(ctx, profile)
	return profile, nil
}

func (s *ledgerService) SetProgress(ctx context.Context, userID uuid.UUID, xp, level int) (*entity.Profile, error) {
	profile, err := s.repo.SetProgress(ctx, userID, xp, level)
	if err != nil {
		return nil, err
	}
	s.publishProfile(ctx, profile)
	return profile, nil
}

func (s *ledgerService) WatchProfile(ctx context.Context, userID uuid.UUID) (*realtime.Stream[entity.Profile], error) {
	if s.broker == nil {
		return nil, fmt.Errorf("%w: realtime broker", apperror.ErrNotConfigured)
	}
	return realtime.Watch[entity.Profile](ctx, s.broker, realtime.ProfileChannel(userID))
}

func (s *ledgerService) Status(profile *entity.Profile) LevelStatus {
	return s.levels.Status(profile.XP, profile.Level)
}
