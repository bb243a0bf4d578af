package gamification

import (
	"time"

	"taskxp/internal/models"
)

// UpdateStreak records activity at now. Continuity is measured in calendar
// days of the user's timezone: yesterday extends the streak, a longer gap
// restarts it at 1, and the same day leaves it alone. LastActivity is always
// moved to now.
func UpdateStreak(u *models.User, now time.Time) int {
	switch diff := CalendarDaysBetween(u.LastActivity, now, u.Location()); {
	case diff == 1:
		u.StreakDays++
	case diff > 1:
		u.StreakDays = 1
	}
	u.LastActivity = now
	return u.StreakDays
}

// CalendarDaysBetween counts date boundaries between a and b in loc,
// regardless of order.
func CalendarDaysBetween(a, b time.Time, loc *time.Location) int {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	// Noon UTC keeps the subtraction clear of DST shifts.
	da := time.Date(ay, am, ad, 12, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 12, 0, 0, 0, time.UTC)
	days := int(db.Sub(da).Hours() / 24)
	if days < 0 {
		days = -days
	}
	return days
}
