package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"iter"
	"net/http"
	"strings"
	"time"

	"anoa.com/skillquest/internal/entity"
	"anoa.com/skillquest/internal/metrics"
	activityRepo "anoa.com/skillquest/internal/modules/activity/repository"
	searchService "anoa.com/skillquest/internal/modules/search/service"
	"anoa.com/skillquest/internal/realtime"
	"anoa.com/skillquest/internal/session"
	"anoa.com/skillquest/pkg/apperror"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
)

const (
	DefaultFeedSize      = 20
	maxDescriptionLength = 500
)

// ProfileLookup resolves activity authors to their display profiles.
type ProfileLookup interface {
	FindDisplayProfiles(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*entity.Profile, error)
	FindDisplayProfile(ctx context.Context, id uuid.UUID) (*entity.Profile, error)
}

// Entry is an activity joined with its author's display profile.
// Profile is nil when the author could not be resolved.
type Entry struct {
	entity.UserActivity
	Profile     *entity.Profile `json:"profile"`
	DisplayName string          `json:"display_name"`
}

func NewEntry(activity entity.UserActivity, profile *entity.Profile) Entry {
	return Entry{
		UserActivity: activity,
		Profile:      profile,
		DisplayName:  profile.DisplayName(),
	}
}

type ActivityService interface {
	// LoadRecent never fails: lookup errors degrade to an empty list.
	LoadRecent(ctx context.Context) []Entry
	Subscribe(ctx context.Context) (*EntryStream, error)
	// LogActivity returns nil, nil when nothing was written.
	LogActivity(ctx context.Context, caller *session.Caller, activityType, description string, xpEarned int) (*entity.UserActivity, error)
	TopMoversToday(ctx context.Context, loc *time.Location, limit int) ([]Mover, error)
	Search(query string, filter searchService.ActivityFilter, limit int) ([]searchService.ActivityDocument, error)
	FeedSize() int
}

type activityService struct {
	repo      activityRepo.ActivityRepository
	profiles  ProfileLookup
	broker    realtime.Broker
	search    searchService.SearchService
	sanitizer *bluemonday.Policy
	feedSize  int
	log       *zap.Logger
	now       func() time.Time
}

// NewActivityService wires the stream. broker and search may be nil.
func NewActivityService(
	repo activityRepo.ActivityRepository,
	profiles ProfileLookup,
	broker realtime.Broker,
	search searchService.SearchService,
	feedSize int,
	log *zap.Logger,
) ActivityService {
	if feedSize <= 0 {
		feedSize = DefaultFeedSize
	}
	return &activityService{
		repo:      repo,
		profiles:  profiles,
		broker:    broker,
		search:    search,
		sanitizer: bluemonday.StrictPolicy(),
		feedSize:  feedSize,
		log:       log,
		now:       time.Now,
	}
}

func (s *activityService) FeedSize() int {
	return s.feedSize
}

func (s *activityService) LoadRecent(ctx context.Context) []Entry {
	activities, err := s.repo.ListRecent(ctx, s.feedSize)
	if err != nil {
		s.log.Error("failed to load recent activities", zap.Error(err))
		return []Entry{}
	}

	entries, err := s.enrich(ctx, activities)
	if err != nil {
		s.log.Error("failed to resolve activity authors", zap.Error(err))
		return []Entry{}
	}
	return entries
}

// enrich resolves all distinct authors with one lookup.
func (s *activityService) enrich(ctx context.Context, activities []entity.UserActivity) ([]Entry, error) {
	seen := make(map[uuid.UUID]struct{}, len(activities))
	ids := make([]uuid.UUID, 0, len(activities))
	for _, a := range activities {
		if _, ok := seen[a.UserID]; ok {
			continue
		}
		seen[a.UserID] = struct{}{}
		ids = append(ids, a.UserID)
	}

	profiles, err := s.profiles.FindDisplayProfiles(ctx, ids)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(activities))
	for _, a := range activities {
		entries = append(entries, NewEntry(a, profiles[a.UserID]))
	}
	return entries, nil
}

func (s *activityService) Subscribe(ctx context.Context) (*EntryStream, error) {
	if s.broker == nil {
		return nil, fmt.Errorf("%w: realtime broker", apperror.ErrNotConfigured)
	}
	inserts, err := realtime.Watch[entity.UserActivity](ctx, s.broker, realtime.ActivityInsertsChannel)
	if err != nil {
		return nil, err
	}
	return &EntryStream{inserts: inserts, profiles: s.profiles, log: s.log}, nil
}

func (s *activityService) LogActivity(ctx context.Context, caller *session.Caller, activityType, description string, xpEarned int) (*entity.UserActivity, error) {
	if !caller.Authenticated() {
		return nil, nil
	}
	if xpEarned < 0 {
		return nil, apperror.New(http.StatusBadRequest, "xp_earned must not be negative", apperror.ErrValidation)
	}

	description = s.cleanDescription(description)
	if description == "" {
		return nil, apperror.New(http.StatusBadRequest, "activity description is required", apperror.ErrValidation)
	}
	activityType = strings.TrimSpace(activityType)
	if activityType == "" {
		activityType = entity.ActivityOther
	}

	activity := &entity.UserActivity{
		UserID:       caller.UserID,
		ActivityType: activityType,
		Description:  description,
		XPEarned:     xpEarned,
	}
	if err := s.repo.Create(ctx, activity); err != nil {
		s.log.Error("activity write dropped",
			zap.String("user_id", caller.UserID.String()),
			zap.String("activity_type", activityType),
			zap.Error(err),
		)
		return nil, nil
	}
	metrics.ActivitiesLogged.WithLabelValues(activityType).Inc()

	if s.broker != nil {
		if err := realtime.PublishJSON(ctx, s.broker, realtime.ActivityInsertsChannel, activity); err != nil {
			s.log.Warn("failed to publish activity insert", zap.String("activity_id", activity.ID.String()), zap.Error(err))
		}
	}
	if s.search != nil {
		if err := s.search.IndexActivity(activity); err != nil {
			s.log.Warn("failed to index activity", zap.String("activity_id", activity.ID.String()), zap.Error(err))
		}
	}
	return activity, nil
}

// cleanDescription decodes entities before sanitising, so encoded markup is
// stripped like raw markup. The stored text is the sanitiser's escaped output.
func (s *activityService) cleanDescription(description string) string {
	decoded := strings.Join(strings.Fields(html.UnescapeString(description)), " ")
	if runes := []rune(decoded); len(runes) > maxDescriptionLength {
		decoded = string(runes[:maxDescriptionLength])
	}
	return strings.Join(strings.Fields(s.sanitizer.Sanitize(decoded)), " ")
}

// TopMoversToday ranks today's authors in loc. Totals come from the database,
// so every entry since midnight counts.
func (s *activityService) TopMoversToday(ctx context.Context, loc *time.Location, limit int) ([]Mover, error) {
	if loc == nil {
		loc = time.Local
	}
	if limit <= 0 {
		limit = DefaultTopMovers
	}
	since := StartOfDay(s.now().In(loc))

	totals, err := s.repo.MoversSince(ctx, since, limit)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, len(totals))
	for i, t := range totals {
		ids[i] = t.UserID
	}
	profiles, err := s.profiles.FindDisplayProfiles(ctx, ids)
	if err != nil {
		return nil, err
	}

	movers := make([]Mover, len(totals))
	for i, t := range totals {
		movers[i] = Mover{
			UserID:      t.UserID,
			DisplayName: profiles[t.UserID].DisplayName(),
			XP:          t.XP,
			Activities:  t.Activities,
		}
	}
	return movers, nil
}

func (s *activityService) Search(query string, filter searchService.ActivityFilter, limit int) ([]searchService.ActivityDocument, error) {
	if s.search == nil {
		return nil, fmt.Errorf("%w: search", apperror.ErrNotConfigured)
	}
	return s.search.SearchActivities(query, filter, limit)
}

// EntryStream yields inserted activities as they are published, each enriched
// with its own profile lookup.
type EntryStream struct {
	inserts  *realtime.Stream[entity.UserActivity]
	profiles ProfileLookup
	log      *zap.Logger
}

func (s *EntryStream) Next(ctx context.Context) (Entry, error) {
	activity, err := s.inserts.Next(ctx)
	if err != nil {
		return Entry{}, err
	}
	return s.enrichOne(ctx, activity), nil
}

func (s *EntryStream) All(ctx context.Context) iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		for activity := range s.inserts.All() {
			if !yield(s.enrichOne(ctx, activity)) {
				return
			}
		}
	}
}

func (s *EntryStream) Close() error {
	return s.inserts.Close()
}

func (s *EntryStream) enrichOne(ctx context.Context, activity entity.UserActivity) Entry {
	profile, err := s.profiles.FindDisplayProfile(ctx, activity.UserID)
	if err != nil && !errors.Is(err, context.Canceled) {
		s.log.Warn("failed to resolve activity author",
			zap.String("user_id", activity.UserID.String()),
			zap.Error(err),
		)
	}
	return NewEntry(activity, profile)
}
