package service

import (
	"encoding/json"
	"fmt"
	"html"
	"strings"

	"anoa.com/skillquest/internal/entity"
	"anoa.com/skillquest/pkg/apperror"
	"github.com/meilisearch/meilisearch-go"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
)

const ActivitiesIndex = "activities"

type SearchService interface {
	IndexActivity(activity *entity.UserActivity) error
	IndexActivities(activities []entity.UserActivity) error
	SearchActivities(query string, filter ActivityFilter, limit int) ([]ActivityDocument, error)
	Enabled() bool
}

type ActivityFilter struct {
	UserID       string
	ActivityType string
}

type ActivityDocument struct {
	ID           string `json:"id"`
	UserID       string `json:"user_id"`
	ActivityType string `json:"activity_type"`
	Description  string `json:"activity_description"`
	XPEarned     int    `json:"xp_earned"`
	CreatedAt    int64  `json:"created_at"`
}

type meiliSearchService struct {
	client    meilisearch.ServiceManager
	sanitizer *bluemonday.Policy
	log       *zap.Logger
}

// NewMeiliSearchService returns a service that quietly does nothing when client is nil.
func NewMeiliSearchService(client meilisearch.ServiceManager, log *zap.Logger) SearchService {
	s := &meiliSearchService{
		client:    client,
		sanitizer: bluemonday.StrictPolicy(),
		log:       log,
	}
	if client != nil {
		s.initIndexes()
	}
	return s
}

func (s *meiliSearchService) Enabled() bool {
	return s.client != nil
}

func (s *meiliSearchService) initIndexes() {
	index := s.client.Index(ActivitiesIndex)

	filterable := []any{"user_id", "activity_type"}
	if _, err := index.UpdateFilterableAttributes(&filterable); err != nil {
		s.log.Warn("failed to update activities filterable attributes", zap.Error(err))
	}

	sortable := []string{"created_at", "xp_earned"}
	if _, err := index.UpdateSortableAttributes(&sortable); err != nil {
		s.log.Warn("failed to update activities sortable attributes", zap.Error(err))
	}

	s.log.Info("meilisearch indexes initialized", zap.String("index", ActivitiesIndex))
}

func (s *meiliSearchService) cleanContentForIndex(content string) string {
	sanitized := s.sanitizer.Sanitize(content)
	cleanText := html.UnescapeString(sanitized)
	return strings.Join(strings.Fields(cleanText), " ")
}

func (s *meiliSearchService) toDocument(a *entity.UserActivity) ActivityDocument {
	return ActivityDocument{
		ID:           a.ID.String(),
		UserID:       a.UserID.String(),
		ActivityType: a.ActivityType,
		Description:  s.cleanContentForIndex(a.Description),
		XPEarned:     a.XPEarned,
		CreatedAt:    a.CreatedAt.Unix(),
	}
}

func (s *meiliSearchService) IndexActivity(activity *entity.UserActivity) error {
	return s.IndexActivities([]entity.UserActivity{*activity})
}

func (s *meiliSearchService) IndexActivities(activities []entity.UserActivity) error {
	if s.client == nil || len(activities) == 0 {
		return nil
	}

	docs := make([]ActivityDocument, 0, len(activities))
	for i := range activities {
		docs = append(docs, s.toDocument(&activities[i]))
	}

	task, err := s.client.Index(ActivitiesIndex).AddDocuments(docs, strPtr("id"))
	if err != nil {
		return err
	}
	s.log.Debug("indexed activities", zap.Int("count", len(docs)), zap.Int64("task_uid", task.TaskUID))
	return nil
}

func (s *meiliSearchService) SearchActivities(query string, filter ActivityFilter, limit int) ([]ActivityDocument, error) {
	if s.client == nil {
		return nil, fmt.Errorf("%w: search", apperror.ErrNotConfigured)
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	req := &meilisearch.SearchRequest{
		Limit: int64(limit),
		Sort:  []string{"created_at:desc"},
	}
	if f := buildFilter(filter); f != "" {
		req.Filter = f
	}

	raw, err := s.client.Index(ActivitiesIndex).SearchRaw(query, req)
	if err != nil {
		return nil, fmt.Errorf("%w: meilisearch: %v", apperror.ErrUpstream, err)
	}

	var resp struct {
		Hits []ActivityDocument `json:"hits"`
	}
	if err := json.Unmarshal(*raw, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode search response: %v", apperror.ErrUpstream, err)
	}
	return resp.Hits, nil
}

func buildFilter(f ActivityFilter) string {
	var parts []string
	if f.UserID != "" {
		parts = append(parts, fmt.Sprintf("user_id = %q", f.UserID))
	}
	if f.ActivityType != "" {
		parts = append(parts, fmt.Sprintf("activity_type = %q", f.ActivityType))
	}
	return strings.Join(parts, " AND ")
}

func strPtr(s string) *string {
	return &s
}
