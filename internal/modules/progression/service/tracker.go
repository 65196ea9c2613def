package service

import (
	"sync"

	"anoa.com/skillquest/internal/entity"
)

// Tracker is one session's in-memory view of a profile.
type Tracker struct {
	mu      sync.RWMutex
	profile entity.Profile
}

func NewTracker(profile entity.Profile) *Tracker {
	return &Tracker{profile: profile}
}

func (t *Tracker) Snapshot() entity.Profile {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.profile
}

// Apply advances the view after an award. Dropped awards leave it untouched.
func (t *Tracker) Apply(result *AwardResult) bool {
	if result == nil || !result.Applied || result.Profile == nil {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.profile.XP = result.Profile.XP
	t.profile.Level = result.Profile.Level
	return true
}

// Overwrite takes xp and level from an out-of-band change as-is.
func (t *Tracker) Overwrite(change entity.Profile) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.profile.XP = change.XP
	t.profile.Level = change.Level
	if !change.UpdatedAt.IsZero() {
		t.profile.UpdatedAt = change.UpdatedAt
	}
}
