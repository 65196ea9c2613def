package service

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

const DefaultTopMovers = 3

// Mover is one author's XP total over a window.
type Mover struct {
	UserID      uuid.UUID `json:"user_id"`
	DisplayName string    `json:"display_name"`
	XP          int       `json:"xp"`
	Activities  int       `json:"activities"`
}

// StartOfDay returns local midnight in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// TopMovers sums XPEarned per author over entries created at or after since
// and returns the top limit, highest first. Ties keep first-appearance order.
// Authors are grouped by user id, so two unresolved authors stay separate
// even though both display as Anonymous.
func TopMovers(entries []Entry, since time.Time, limit int) []Mover {
	if limit <= 0 {
		limit = DefaultTopMovers
	}

	index := make(map[uuid.UUID]int)
	movers := make([]Mover, 0)
	for _, e := range entries {
		if e.CreatedAt.Before(since) {
			continue
		}
		i, ok := index[e.UserID]
		if !ok {
			i = len(movers)
			index[e.UserID] = i
			movers = append(movers, Mover{UserID: e.UserID, DisplayName: e.DisplayName})
		}
		movers[i].XP += e.XPEarned
		movers[i].Activities++
	}

	slices.SortStableFunc(movers, func(a, b Mover) int {
		return b.XP - a.XP
	})
	if len(movers) > limit {
		movers = movers[:limit]
	}
	return movers
}
