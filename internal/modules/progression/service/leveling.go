package service

import "math"

const DefaultLevelStep = 500

// LevelStatus is the progress view shown next to a profile.
type LevelStatus struct {
	Level         int     `json:"level"`
	XP            int     `json:"xp"`
	LevelFloor    int     `json:"level_floor"` // XP at which the current level starts
	NextLevelXP   int     `json:"next_level_xp"`
	XPToNextLevel int     `json:"xp_to_next_level"`
	Progress      float64 `json:"progress"` // percent towards the next level (0-100)
}

// Levels is the XP curve: reaching level L takes Step*(L-1) cumulative XP.
type Levels struct {
	Step int
}

func NewLevels(step int) Levels {
	if step <= 0 {
		step = DefaultLevelStep
	}
	return Levels{Step: step}
}

// Threshold is the cumulative XP needed to reach level.
func (l Levels) Threshold(level int) int {
	if level <= 1 {
		return 0
	}
	return l.Step * (level - 1)
}

// LevelFor is the smallest level L with xp < Threshold(L+1).
func (l Levels) LevelFor(xp int) int {
	if xp <= 0 {
		return 1
	}
	return xp/l.Step + 1
}

// Advance climbs from the previous level until newXP no longer reaches the
// next threshold. Levels never go down here.
func (l Levels) Advance(prevLevel, newXP int) int {
	candidate := max(prevLevel, 1)
	for newXP >= l.Threshold(candidate+1) {
		candidate++
	}
	return candidate
}

func (l Levels) Status(xp, level int) LevelStatus {
	if level < 1 {
		level = 1
	}
	floor := l.Threshold(level)
	next := l.Threshold(level + 1)

	status := LevelStatus{
		Level:         level,
		XP:            xp,
		LevelFloor:    floor,
		NextLevelXP:   next,
		XPToNextLevel: max(next-xp, 0),
	}

	span := next - floor
	progress := float64(xp-floor) / float64(span) * 100
	status.Progress = math.Round(min(max(progress, 0), 100)*100) / 100
	return status
}
