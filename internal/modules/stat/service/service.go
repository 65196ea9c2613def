package service

import (
	"context"
	"time"

	statDto "anoa.com/skillquest/internal/modules/stat/dto"
	statRepo "anoa.com/skillquest/internal/modules/stat/repository"
)

type StatService interface {
	// GetCommunityStats counts activity since local midnight in loc.
	GetCommunityStats(ctx context.Context, loc *time.Location) (*statDto.CommunityStats, error)
}

type statService struct {
	repo statRepo.StatRepository
	now  func() time.Time
}

func NewStatService(repo statRepo.StatRepository) StatService {
	return &statService{
		repo: repo,
		now:  time.Now,
	}
}

func (s *statService) GetCommunityStats(ctx context.Context, loc *time.Location) (*statDto.CommunityStats, error) {
	if loc == nil {
		loc = time.Local
	}
	now := s.now().In(loc)
	y, m, d := now.Date()
	since := time.Date(y, m, d, 0, 0, 0, 0, loc)

	users, err := s.repo.CountUsers(ctx)
	if err != nil {
		return nil, err
	}
	summary, err := s.repo.SummarizeSince(ctx, since)
	if err != nil {
		return nil, err
	}

	return &statDto.CommunityStats{
		TotalUsers:      users,
		ActivitiesToday: summary.Activities,
		XPLoggedToday:   summary.XP,
		ActiveToday:     summary.Students,
		Since:           since,
	}, nil
}
