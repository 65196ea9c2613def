package service

import (
	"context"
	"time"

	"anoa.com/skillquest/internal/entity"
	leaderboardDto "anoa.com/skillquest/internal/modules/leaderboard/dto"
	leaderboardRepo "anoa.com/skillquest/internal/modules/leaderboard/repository"
	progressionService "anoa.com/skillquest/internal/modules/progression/service"
	"github.com/google/uuid"
)

const (
	TimeframeAllTime = "all_time"
	TimeframeWeekly  = "weekly"

	DefaultLimit = 10
	week         = 7 * 24 * time.Hour
)

type LeaderboardService interface {
	GetLeaderboard(ctx context.Context, limit int, timeframe string) ([]leaderboardDto.LeaderboardEntry, error)
}

type leaderboardService struct {
	repo   leaderboardRepo.LeaderboardRepository
	levels progressionService.Levels
	now    func() time.Time
}

func NewLeaderboardService(repo leaderboardRepo.LeaderboardRepository, levels progressionService.Levels) LeaderboardService {
	return &leaderboardService{
		repo:   repo,
		levels: levels,
		now:    time.Now,
	}
}

func (s *leaderboardService) GetLeaderboard(ctx context.Context, limit int, timeframe string) ([]leaderboardDto.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	since := s.now().Add(-week)

	if timeframe == TimeframeWeekly {
		return s.weekly(ctx, limit, since)
	}
	return s.allTime(ctx, limit, since)
}

func (s *leaderboardService) allTime(ctx context.Context, limit int, since time.Time) ([]leaderboardDto.LeaderboardEntry, error) {
	profiles, err := s.repo.TopAllTime(ctx, limit)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, len(profiles))
	for i, p := range profiles {
		ids[i] = p.ID
	}
	weekly, err := s.repo.EarnedSince(ctx, ids, since)
	if err != nil {
		return nil, err
	}

	entries := make([]leaderboardDto.LeaderboardEntry, 0, len(profiles))
	for i := range profiles {
		entries = append(entries, s.entry(i+1, profiles[i].ID, &profiles[i], weekly[profiles[i].ID]))
	}
	return entries, nil
}

func (s *leaderboardService) weekly(ctx context.Context, limit int, since time.Time) ([]leaderboardDto.LeaderboardEntry, error) {
	earnings, err := s.repo.TopEarnedSince(ctx, since, limit)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, len(earnings))
	for i, e := range earnings {
		ids[i] = e.UserID
	}
	profiles, err := s.repo.ProfilesByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	entries := make([]leaderboardDto.LeaderboardEntry, 0, len(earnings))
	for i, e := range earnings {
		var profile *entity.Profile
		if p, ok := profiles[e.UserID]; ok {
			profile = &p
		}
		entries = append(entries, s.entry(i+1, e.UserID, profile, e.XP))
	}
	return entries, nil
}

func (s *leaderboardService) entry(position int, userID uuid.UUID, profile *entity.Profile, weeklyXP int) leaderboardDto.LeaderboardEntry {
	e := leaderboardDto.LeaderboardEntry{
		Position:    position,
		UserID:      userID,
		DisplayName: profile.DisplayName(),
		WeeklyXP:    weeklyXP,
		WeeklyLabel: ActivityLabel(weeklyXP),
	}
	if profile != nil {
		e.AvatarURL = profile.AvatarURL
		e.Level = profile.Level
		e.XP = profile.XP
		status := s.levels.Status(profile.XP, profile.Level)
		e.Progress = status.Progress
	}
	return e
}
