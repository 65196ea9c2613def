package service

import "anoa.com/skillquest/pkg/apperror"

const (
	XPPerMinute  = 2
	MinSessionXP = 5
	MaxSessionXP = 200
)

// XPForSession converts a finished session length into XP.
func XPForSession(minutes int) (int, error) {
	if minutes < 1 {
		return 0, apperror.Validation("session too short", map[string]string{
			"minutes": "minutes must be at least 1",
		})
	}
	return min(max(minutes*XPPerMinute, MinSessionXP), MaxSessionXP), nil
}
