package profile

import (
	"context"
	"fmt"
	"strings"

	profileDto "anoa.com/skillquest/internal/modules/profile/dto"
	profileRepo "anoa.com/skillquest/internal/modules/profile/repository"
	progressionService "anoa.com/skillquest/internal/modules/progression/service"
	"anoa.com/skillquest/internal/session"
	"anoa.com/skillquest/pkg/apperror"
	"anoa.com/skillquest/pkg/storage"
	"go.uber.org/zap"
)

type ProfileService interface {
	GetCurrentProfile(ctx context.Context, caller *session.Caller) (*profileDto.ProfileResponse, error)
	GetProfileByUsername(ctx context.Context, username string) (*profileDto.PublicProfileResponse, error)
	UpdateProfile(ctx context.Context, caller *session.Caller, input profileDto.UpdateProfileInput, avatar *profileDto.AvatarFile) (*profileDto.ProfileResponse, error)
}

type profileService struct {
	repo    profileRepo.ProfileRepository
	ledger  progressionService.LedgerService
	avatars storage.AvatarStorage
	log     *zap.Logger
}

// NewProfileService wires the service. avatars may be nil when Cloudinary is not configured.
func NewProfileService(repo profileRepo.ProfileRepository, ledger progressionService.LedgerService, avatars storage.AvatarStorage, log *zap.Logger) ProfileService {
	return &profileService{
		repo:    repo,
		ledger:  ledger,
		avatars: avatars,
		log:     log,
	}
}

func (s *profileService) GetCurrentProfile(ctx context.Context, caller *session.Caller) (*profileDto.ProfileResponse, error) {
	profile, err := s.ledger.LoadProfile(ctx, caller)
	if err != nil {
		return nil, err
	}
	return &profileDto.ProfileResponse{Profile: profile, Status: s.ledger.Status(profile)}, nil
}

func (s *profileService) GetProfileByUsername(ctx context.Context, username string) (*profileDto.PublicProfileResponse, error) {
	profile, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	return &profileDto.PublicProfileResponse{
		Username:  profile.DisplayName(),
		FullName:  profile.FullName,
		AvatarURL: profile.AvatarURL,
		CreatedAt: profile.CreatedAt,
		Status:    s.ledger.Status(profile),
	}, nil
}

func (s *profileService) UpdateProfile(ctx context.Context, caller *session.Caller, input profileDto.UpdateProfileInput, avatar *profileDto.AvatarFile) (*profileDto.ProfileResponse, error) {
	current, err := s.ledger.LoadProfile(ctx, caller)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}

	if input.Username != nil {
		username := strings.ReplaceAll(strings.TrimSpace(*input.Username), " ", "_")
		if len(username) < 3 || len(username) > 50 {
			return nil, apperror.Validation("invalid username", map[string]string{"username": "username must be 3 to 50 characters"})
		}
		taken, err := s.repo.UsernameTaken(ctx, username, current.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, apperror.Validation("username already taken", map[string]string{"username": "is already taken"})
		}
		updates["username"] = username
	}

	if input.FullName != nil {
		updates["full_name"] = normalizeOptional(input.FullName)
	}

	switch {
	case avatar != nil && avatar.Reader != nil:
		if s.avatars == nil {
			return nil, fmt.Errorf("%w: avatar storage", apperror.ErrNotConfigured)
		}
		url, err := s.avatars.UploadAvatar(ctx, current.ID.String(), avatar.Reader, avatar.FileName)
		if err != nil {
			return nil, apperror.Validation(err.Error(), map[string]string{"avatar": "upload failed"})
		}
		updates["avatar_url"] = url
	case input.RemoveAvatar && current.AvatarURL != nil:
		if s.avatars != nil {
			if err := s.avatars.DeleteImage(ctx, *current.AvatarURL); err != nil {
				s.log.Warn("failed to delete avatar", zap.String("user_id", current.ID.String()), zap.Error(err))
			}
		}
		updates["avatar_url"] = nil
	}

	if err := s.repo.UpdateDetails(ctx, current.ID, updates); err != nil {
		return nil, err
	}

	return s.GetCurrentProfile(ctx, caller)
}

func normalizeOptional(value *string) *string {
	if value == nil {
		return nil
	}

	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}

	result := trimmed
	return &result
}
