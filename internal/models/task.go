// internal/models/task.go
package models

import (
	"math"
	"time"
)

// TaskStatus defines the possible statuses for a task.
type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
	StatusCancelled  TaskStatus = "cancelled"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
	PriorityUrgent TaskPriority = "urgent"
)

func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

const DefaultXPReward = 10

// Task represents the structure of a task in the system.
type Task struct {
	ID                int64        `json:"id"`
	UserID            int64        `json:"userId"`
	CategoryID        *int64       `json:"categoryId"`
	Title             string       `json:"title"`
	Description       string       `json:"description,omitempty"`
	Priority          TaskPriority `json:"priority"`
	Status            TaskStatus   `json:"status"`
	DueDate           *time.Time   `json:"dueDate"`
	ReminderDate      *time.Time   `json:"reminderDate"`
	EstimatedDuration *int         `json:"estimatedDuration"`
	ActualDuration    *int         `json:"actualDuration"`
	XPReward          int          `json:"xpReward"`
	IsRecurring       bool         `json:"isRecurring"`
	RecurringPattern  string       `json:"recurringPattern,omitempty"`
	Tags              []string     `json:"tags"`
	Attachments       []string     `json:"attachments"`
	CompletedAt       *time.Time   `json:"completedAt"`
	CreatedAt         time.Time    `json:"createdAt"`
	UpdatedAt         time.Time    `json:"updatedAt"`

	// Filled on reads that join categories.
	Category *CategorySummary `json:"category,omitempty"`
}

// IsOverdue reports whether the due date has passed on an unfinished task.
func (t *Task) IsOverdue(now time.Time) bool {
	if t.DueDate == nil || t.Status == StatusCompleted {
		return false
	}
	return now.After(*t.DueDate)
}

// DaysUntilDue rounds up to whole days; negative once the due date has passed.
func (t *Task) DaysUntilDue(now time.Time) *int {
	if t.DueDate == nil {
		return nil
	}
	days := int(math.Ceil(t.DueDate.Sub(now).Hours() / 24))
	return &days
}

func (t *Task) PriorityScore() int {
	switch t.Priority {
	case PriorityLow:
		return 1
	case PriorityMedium:
		return 2
	case PriorityHigh:
		return 3
	case PriorityUrgent:
		return 4
	}
	return 2
}

// MarkCompleted forces completion and always overwrites CompletedAt.
func (t *Task) MarkCompleted(now time.Time) {
	t.Status = StatusCompleted
	t.CompletedAt = &now
}

// ApplyCompletionHook runs before a task update is persisted. CompletedAt is
// stamped only the first time the task enters completed.
func (t *Task) ApplyCompletionHook(previous TaskStatus, now time.Time) {
	if t.Status != previous && t.Status == StatusCompleted && t.CompletedAt == nil {
		t.CompletedAt = &now
	}
}

// View adds the computed fields clients render next to the stored ones.
func (t *Task) View(now time.Time) TaskView {
	return TaskView{
		Task:          t,
		IsOverdue:     t.IsOverdue(now),
		DaysUntilDue:  t.DaysUntilDue(now),
		PriorityScore: t.PriorityScore(),
	}
}

type TaskView struct {
	*Task
	IsOverdue     bool `json:"isOverdue"`
	DaysUntilDue  *int `json:"daysUntilDue"`
	PriorityScore int  `json:"priorityScore"`
}

// TaskFilter defines the available parameters for filtering tasks.
type TaskFilter struct {
	UserID     int64
	Status     *TaskStatus
	Priority   *TaskPriority
	CategoryID *int64
	Limit      int
	Offset     int
}

// TaskInput is the create payload.
type TaskInput struct {
	Title             string       `json:"title" binding:"required,max=255"`
	Description       string       `json:"description" binding:"omitempty,max=1000"`
	Priority          TaskPriority `json:"priority" binding:"omitempty,oneof=low medium high urgent"`
	CategoryID        *int64       `json:"categoryId" binding:"omitempty,min=1"`
	DueDate           *time.Time   `json:"dueDate"`
	ReminderDate      *time.Time   `json:"reminderDate"`
	EstimatedDuration *int         `json:"estimatedDuration" binding:"omitempty,min=1"`
	IsRecurring       bool         `json:"isRecurring"`
	RecurringPattern  string       `json:"recurringPattern" binding:"omitempty,max=50"`
	Tags              []string     `json:"tags"`
	Attachments       []string     `json:"attachments"`
}

// TaskPatch is the update payload; nil means unchanged. The Clear* flags
// reset an optional field to null and win over a value sent alongside.
type TaskPatch struct {
	Title                  *string       `json:"title" binding:"omitempty,min=1,max=255"`
	Description            *string       `json:"description" binding:"omitempty,max=1000"`
	Priority               *TaskPriority `json:"priority" binding:"omitempty,oneof=low medium high urgent"`
	Status                 *TaskStatus   `json:"status" binding:"omitempty,oneof=pending in_progress completed cancelled"`
	CategoryID             *int64        `json:"categoryId" binding:"omitempty,min=1"`
	ClearCategory          bool          `json:"clearCategory"`
	DueDate                *time.Time    `json:"dueDate"`
	ClearDueDate           bool          `json:"clearDueDate"`
	ReminderDate           *time.Time    `json:"reminderDate"`
	ClearReminderDate      bool          `json:"clearReminderDate"`
	EstimatedDuration      *int          `json:"estimatedDuration" binding:"omitempty,min=1"`
	ClearEstimatedDuration bool          `json:"clearEstimatedDuration"`
	ActualDuration         *int          `json:"actualDuration" binding:"omitempty,min=0"`
	ClearActualDuration    bool          `json:"clearActualDuration"`
	IsRecurring            *bool         `json:"isRecurring"`
	RecurringPattern       *string       `json:"recurringPattern" binding:"omitempty,max=50"`
	Tags                   []string      `json:"tags"`
	Attachments            []string      `json:"attachments"`
}

// Apply copies the set fields onto t.
func (p *TaskPatch) Apply(t *Task) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.ClearCategory {
		t.CategoryID = nil
	} else if p.CategoryID != nil {
		id := *p.CategoryID
		t.CategoryID = &id
	}
	if p.ClearDueDate {
		t.DueDate = nil
	} else if p.DueDate != nil {
		d := *p.DueDate
		t.DueDate = &d
	}
	if p.ClearReminderDate {
		t.ReminderDate = nil
	} else if p.ReminderDate != nil {
		r := *p.ReminderDate
		t.ReminderDate = &r
	}
	if p.ClearEstimatedDuration {
		t.EstimatedDuration = nil
	} else if p.EstimatedDuration != nil {
		v := *p.EstimatedDuration
		t.EstimatedDuration = &v
	}
	if p.ClearActualDuration {
		t.ActualDuration = nil
	} else if p.ActualDuration != nil {
		v := *p.ActualDuration
		t.ActualDuration = &v
	}
	if p.IsRecurring != nil {
		t.IsRecurring = *p.IsRecurring
	}
	if p.RecurringPattern != nil {
		t.RecurringPattern = *p.RecurringPattern
	}
	if p.Tags != nil {
		t.Tags = p.Tags
	}
	if p.Attachments != nil {
		t.Attachments = p.Attachments
	}
}

// StatusOverview is the per-user count of tasks by status.
type StatusOverview struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	InProgress int `json:"inProgress"`
	Completed  int `json:"completed"`
	Cancelled  int `json:"cancelled"`
	Overdue    int `json:"overdue"`
}

// Add records count tasks in status s.
func (o *StatusOverview) Add(s TaskStatus, count int) {
	o.Total += count
	switch s {
	case StatusPending:
		o.Pending = count
	case StatusInProgress:
		o.InProgress = count
	case StatusCompleted:
		o.Completed = count
	case StatusCancelled:
		o.Cancelled = count
	}
}

// Page is pagination metadata for list responses.
type Page struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

func NewPage(total, page, limit int) Page {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return Page{Total: total, Page: page, Limit: limit, TotalPages: pages}
}
