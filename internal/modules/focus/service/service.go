package service

import (
	"context"
	"fmt"
	"strings"

	"anoa.com/skillquest/internal/entity"
	progressionService "anoa.com/skillquest/internal/modules/progression/service"
	"anoa.com/skillquest/internal/session"
	"anoa.com/skillquest/pkg/apperror"
	"go.uber.org/zap"
)

// Awarder is the slice of the ledger a finished session needs.
type Awarder interface {
	AwardXP(ctx context.Context, caller *session.Caller, amount int, reason string) (*progressionService.AwardResult, error)
}

type ActivityLogger interface {
	LogActivity(ctx context.Context, caller *session.Caller, activityType, description string, xpEarned int) (*entity.UserActivity, error)
}

type SessionResult struct {
	Minutes  int                             `json:"minutes"`
	XP       int                             `json:"xp"`
	Award    *progressionService.AwardResult `json:"award"`
	Activity *entity.UserActivity            `json:"activity,omitempty"`
}

type FocusService interface {
	CompleteSession(ctx context.Context, caller *session.Caller, minutes int, label, kind string) (*SessionResult, error)
}

type focusService struct {
	ledger     Awarder
	activities ActivityLogger
	log        *zap.Logger
}

func NewFocusService(ledger Awarder, activities ActivityLogger, log *zap.Logger) FocusService {
	return &focusService{
		ledger:     ledger,
		activities: activities,
		log:        log,
	}
}

// CompleteSession awards the session's XP and then records it in the activity
// stream. The two writes are independent: a dropped award still logs the entry
// with zero XP.
func (s *focusService) CompleteSession(ctx context.Context, caller *session.Caller, minutes int, label, kind string) (*SessionResult, error) {
	if !caller.Authenticated() {
		return nil, apperror.ErrUnauthenticated
	}

	xp, err := XPForSession(minutes)
	if err != nil {
		return nil, err
	}
	if kind != entity.ActivityChallenge {
		kind = entity.ActivityWellness
	}

	description := describe(minutes, label)
	award, err := s.ledger.AwardXP(ctx, caller, xp, description)
	if err != nil {
		return nil, err
	}

	earned := 0
	if award.Applied {
		earned = award.Amount
	}
	activity, err := s.activities.LogActivity(ctx, caller, kind, description, earned)
	if err != nil {
		s.log.Warn("failed to log focus session",
			zap.String("user_id", caller.UserID.String()),
			zap.Error(err),
		)
	}

	return &SessionResult{
		Minutes:  minutes,
		XP:       xp,
		Award:    award,
		Activity: activity,
	}, nil
}

func describe(minutes int, label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return fmt.Sprintf("Completed a %d-minute focus session", minutes)
	}
	return fmt.Sprintf("Completed a %d-minute focus session: %s", minutes, label)
}
