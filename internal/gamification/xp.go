// Package gamification holds the XP, level, streak and task reward rules.
// Functions here mutate the models they are given and never touch storage.
package gamification

import "taskxp/internal/models"

// XPPerLevel is the XP span of one level.
const XPPerLevel = 1000

// LevelForXP derives the level for a total: floor(totalXP/1000)+1.
func LevelForXP(totalXP int) int {
	return floorDiv(totalXP, XPPerLevel) + 1
}

// XPForNextLevel is the total XP at which the level after level begins.
func XPForNextLevel(level int) int {
	return level * XPPerLevel
}

// AddXP adds amount to the user's total and raises the level when the new
// total earns one. The level never goes down.
func AddXP(u *models.User, amount int) (totalXP, level int) {
	u.TotalXP += amount
	if candidate := LevelForXP(u.TotalXP); candidate > u.Level {
		u.Level = candidate
	}
	return u.TotalXP, u.Level
}

// ProgressOf snapshots the user's gamification state.
func ProgressOf(u *models.User) models.Progress {
	return models.Progress{
		TotalXP:        u.TotalXP,
		Level:          u.Level,
		StreakDays:     u.StreakDays,
		XPForNextLevel: XPForNextLevel(u.Level),
	}
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
