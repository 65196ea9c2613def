package service

// Weekly activity thresholds, in XP earned over the last 7 days.
const (
	WeeklyOnFire   = 300
	WeeklyTrending = 150
	WeeklyActive   = 50
)

// ActivityLabel tags recent momentum. It never affects level or position.
func ActivityLabel(weeklyXP int) string {
	switch {
	case weeklyXP >= WeeklyOnFire:
		return "🔥 On Fire!"
	case weeklyXP >= WeeklyTrending:
		return "⚡ Trending"
	case weeklyXP >= WeeklyActive:
		return "📈 Active"
	default:
		return ""
	}
}
