package service

import (
	"context"
	"encoding/json"
	"fmt"

	"anoa.com/skillquest/internal/entity"
	"anoa.com/skillquest/internal/metrics"
	"anoa.com/skillquest/internal/modules/content/provider"
	"anoa.com/skillquest/internal/session"
	"anoa.com/skillquest/pkg/apperror"
	"go.uber.org/zap"
)

type ActivityLogger interface {
	LogActivity(ctx context.Context, caller *session.Caller, activityType, description string, xpEarned int) (*entity.UserActivity, error)
}

type ContentService interface {
	// Generate returns the model's JSON verbatim.
	Generate(ctx context.Context, caller *session.Caller, kind Kind, input any) (json.RawMessage, error)
}

type contentService struct {
	llm        provider.LLMProvider
	activities ActivityLogger
	log        *zap.Logger
}

// NewContentService accepts a nil llm; every request then fails as not configured.
func NewContentService(llm provider.LLMProvider, activities ActivityLogger, log *zap.Logger) ContentService {
	return &contentService{
		llm:        llm,
		activities: activities,
		log:        log,
	}
}

func (s *contentService) Generate(ctx context.Context, caller *session.Caller, kind Kind, input any) (json.RawMessage, error) {
	if kind.RequiresAuth() && !caller.Authenticated() {
		return nil, apperror.ErrUnauthenticated
	}
	if s.llm == nil {
		metrics.ContentRequests.WithLabelValues(string(kind), "not_configured").Inc()
		return nil, fmt.Errorf("%w: GEMINI_API_KEY", apperror.ErrNotConfigured)
	}

	prompt, err := buildPrompt(input)
	if err != nil {
		return nil, apperror.Validation(err.Error(), nil)
	}

	var out json.RawMessage
	if err := s.llm.GenerateStructured(ctx, prompt, &out); err != nil {
		metrics.ContentRequests.WithLabelValues(string(kind), "upstream_error").Inc()
		s.log.Error("content generation failed",
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %s generation failed", apperror.ErrUpstream, kind)
	}
	metrics.ContentRequests.WithLabelValues(string(kind), "ok").Inc()

	if caller.Authenticated() && s.activities != nil {
		description := fmt.Sprintf("Generated a %s with AI", kind.label())
		if _, err := s.activities.LogActivity(ctx, caller, entity.ActivityAIUsage, description, 0); err != nil {
			s.log.Warn("failed to log ai usage", zap.String("user_id", caller.UserID.String()), zap.Error(err))
		}
	}
	return out, nil
}
