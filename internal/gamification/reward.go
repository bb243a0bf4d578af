package gamification

import (
	"time"

	"taskxp/internal/models"
)

const (
	BaseXP         = 10
	MinXPReward    = 5
	OverduePenalty = 5
	// Every full DurationStep minutes of estimated work earns DurationBonusXP.
	DurationStep    = 30
	DurationBonusXP = 5
)

var priorityBonus = map[models.TaskPriority]int{
	models.PriorityLow:    0,
	models.PriorityMedium: 5,
	models.PriorityHigh:   10,
	models.PriorityUrgent: 20,
}

// CalculateXPReward prices a task from its priority, estimated duration and
// overdue state, stores the result in task.XPReward and returns it.
func CalculateXPReward(t *models.Task, now time.Time) int {
	reward := BaseXP + priorityBonus[t.Priority]
	if t.EstimatedDuration != nil {
		reward += (*t.EstimatedDuration / DurationStep) * DurationBonusXP
	}
	if t.IsOverdue(now) {
		reward -= OverduePenalty
	}
	t.XPReward = max(reward, MinXPReward)
	return t.XPReward
}
