package gamification_test

import (
	"testing"
	"time"
	_ "time/tzdata"

	"taskxp/internal/gamification"
	"taskxp/internal/models"
)

func intPtr(v int) *int { return &v }

func TestAddXP_CrossesLevelBoundary(t *testing.T) {
	u := &models.User{Level: 1}

	total, level := gamification.AddXP(u, 990)
	if total != 990 || level != 1 {
		t.Fatalf("after 990: expected (990, 1), got (%d, %d)", total, level)
	}

	total, level = gamification.AddXP(u, 10)
	if total != 1000 || level != 2 {
		t.Fatalf("after +10: expected (1000, 2), got (%d, %d)", total, level)
	}
}

func TestAddXP_LevelNeverDecreases(t *testing.T) {
	u := &models.User{TotalXP: 2500, Level: 3}

	_, level := gamification.AddXP(u, -2000)
	if u.TotalXP != 500 {
		t.Fatalf("expected total 500, got %d", u.TotalXP)
	}
	if level != 3 {
		t.Fatalf("expected level to stay 3, got %d", level)
	}
}

func TestAddXP_MatchesFormulaForNonNegativeIncrements(t *testing.T) {
	u := &models.User{Level: 1}
	for _, inc := range []int{0, 1, 250, 749, 1, 999, 3000, 17} {
		prevLevel := u.Level
		_, level := gamification.AddXP(u, inc)
		want := max(prevLevel, u.TotalXP/1000+1)
		if level != want {
			t.Fatalf("inc %d: expected level %d, got %d (total %d)", inc, want, level, u.TotalXP)
		}
	}
}

func TestLevelForXP_Negative(t *testing.T) {
	if got := gamification.LevelForXP(-1); got != 0 {
		t.Fatalf("expected floor division to give level 0 for -1 XP, got %d", got)
	}
	if got := gamification.LevelForXP(0); got != 1 {
		t.Fatalf("expected level 1 for 0 XP, got %d", got)
	}
}

func TestUpdateStreak(t *testing.T) {
	now := time.Date(2026, 10, 16, 15, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		lastActivity time.Time
		streak       int
		want         int
	}{
		{"same instant", now, 4, 4},
		{"earlier the same day", now.Add(-10 * time.Hour), 4, 4},
		{"exactly one day prior", now.Add(-24 * time.Hour), 4, 5},
		{"late yesterday", time.Date(2026, 10, 15, 23, 59, 0, 0, time.UTC), 2, 3},
		{"three days prior", now.Add(-72 * time.Hour), 9, 1},
		{"first activity after a gap", now.Add(-48 * time.Hour), 0, 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			u := &models.User{StreakDays: tc.streak, LastActivity: tc.lastActivity}
			got := gamification.UpdateStreak(u, now)
			if got != tc.want {
				t.Fatalf("expected streak %d, got %d", tc.want, got)
			}
			if !u.LastActivity.Equal(now) {
				t.Fatalf("expected LastActivity to move to now, got %v", u.LastActivity)
			}
		})
	}
}

func TestUpdateStreak_TwiceSameInstant(t *testing.T) {
	now := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	u := &models.User{StreakDays: 3, LastActivity: now}

	gamification.UpdateStreak(u, now)
	gamification.UpdateStreak(u, now)
	if u.StreakDays != 3 {
		t.Fatalf("expected streak unchanged at 3, got %d", u.StreakDays)
	}
}

func TestUpdateStreak_UsesUserTimezone(t *testing.T) {
	// 22:00 UTC on the 15th is already the 16th in Tokyo.
	last := time.Date(2026, 10, 15, 22, 0, 0, 0, time.UTC)
	now := time.Date(2026, 10, 16, 1, 0, 0, 0, time.UTC)

	utc := &models.User{StreakDays: 1, LastActivity: last, Timezone: "UTC"}
	if got := gamification.UpdateStreak(utc, now); got != 2 {
		t.Fatalf("UTC user: expected streak 2, got %d", got)
	}

	tokyo := &models.User{StreakDays: 1, LastActivity: last, Timezone: "Asia/Tokyo"}
	if got := gamification.UpdateStreak(tokyo, now); got != 1 {
		t.Fatalf("Tokyo user: expected streak to stay 1, got %d", got)
	}
}

func TestCalculateXPReward(t *testing.T) {
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(48 * time.Hour)

	tests := []struct {
		name string
		task models.Task
		want int
	}{
		{"urgent 90 minutes on time", models.Task{Priority: models.PriorityUrgent, EstimatedDuration: intPtr(90), DueDate: &future}, 45},
		{"low overdue hits the floor", models.Task{Priority: models.PriorityLow, DueDate: &past, Status: models.StatusPending}, 5},
		{"medium without extras", models.Task{Priority: models.PriorityMedium}, 15},
		{"high 29 minutes", models.Task{Priority: models.PriorityHigh, EstimatedDuration: intPtr(29)}, 20},
		{"high overdue 60 minutes", models.Task{Priority: models.PriorityHigh, EstimatedDuration: intPtr(60), DueDate: &past}, 25},
		{"completed past due is not overdue", models.Task{Priority: models.PriorityLow, DueDate: &past, Status: models.StatusCompleted}, 10},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			task := tc.task
			got := gamification.CalculateXPReward(&task, now)
			if got != tc.want {
				t.Fatalf("expected %d XP, got %d", tc.want, got)
			}
			if task.XPReward != tc.want {
				t.Fatalf("expected XPReward field %d, got %d", tc.want, task.XPReward)
			}
		})
	}
}

func TestProgressOf(t *testing.T) {
	u := &models.User{TotalXP: 1450, Level: 2, StreakDays: 6}
	p := gamification.ProgressOf(u)
	if p.XPForNextLevel != 2000 {
		t.Fatalf("expected next level at 2000 XP, got %d", p.XPForNextLevel)
	}
	if p.StreakDays != 6 || p.Level != 2 || p.TotalXP != 1450 {
		t.Fatalf("unexpected progress %+v", p)
	}
}
