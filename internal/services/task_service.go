// internal/services/task_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"taskxp/internal/gamification"
	"taskxp/internal/models"
	"taskxp/internal/repositories"
)

// TaskResult is a task write plus the owner's progress when it awarded XP.
type TaskResult struct {
	Task     *models.Task
	Progress *models.Progress
}

// TaskService defines the interface for task-related business logic.
type TaskService interface {
	Create(ctx context.Context, userID int64, in models.TaskInput) (*models.Task, error)
	Get(ctx context.Context, userID, id int64) (*models.Task, error)
	// List returns a page of the user's tasks and the total match count.
	// A zero Limit returns every match.
	List(ctx context.Context, filter models.TaskFilter) ([]models.Task, int, error)
	Update(ctx context.Context, userID, id int64, patch models.TaskPatch) (*TaskResult, error)
	Complete(ctx context.Context, userID, id int64) (*TaskResult, error)
	RecalculateXP(ctx context.Context, userID, id int64) (*models.Task, error)
	Delete(ctx context.Context, userID, id int64) error
	Overview(ctx context.Context, userID int64) (models.StatusOverview, error)
	Now() time.Time
}

type taskService struct {
	tasks repositories.TaskRepository
	tx    repositories.Transactor
	now   Clock
}

func NewTaskService(tasks repositories.TaskRepository, tx repositories.Transactor, clock Clock) TaskService {
	if clock == nil {
		clock = SystemClock
	}
	return &taskService{tasks: tasks, tx: tx, now: clock}
}

func (s *taskService) Now() time.Time { return s.now() }

func (s *taskService) Create(ctx context.Context, userID int64, in models.TaskInput) (*models.Task, error) {
	now := s.now()
	task := &models.Task{
		UserID:            userID,
		CategoryID:        in.CategoryID,
		Title:             strings.TrimSpace(in.Title),
		Description:       in.Description,
		Priority:          in.Priority,
		Status:            models.StatusPending,
		DueDate:           utcPtr(in.DueDate),
		ReminderDate:      utcPtr(in.ReminderDate),
		EstimatedDuration: in.EstimatedDuration,
		IsRecurring:       in.IsRecurring,
		RecurringPattern:  in.RecurringPattern,
		Tags:              in.Tags,
		Attachments:       in.Attachments,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if task.Priority == "" {
		task.Priority = models.PriorityMedium
	}
	if err := validateTask(task); err != nil {
		return nil, err
	}
	gamification.CalculateXPReward(task, now)

	var created *models.Task
	err := s.tx.InTx(ctx, func(r repositories.Repos) error {
		if err := ensureOwner(ctx, r, userID); err != nil {
			return err
		}
		if err := ensureCategory(ctx, r, userID, task.CategoryID); err != nil {
			return err
		}
		if err := r.Tasks.Create(ctx, task); err != nil {
			return err
		}
		var err error
		created, err = r.Tasks.GetByID(ctx, userID, task.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	slog.Info("[task][create] task created", "task_id", created.ID, "user_id", userID, "xp_reward", created.XPReward)
	return created, nil
}

func (s *taskService) Get(ctx context.Context, userID, id int64) (*models.Task, error) {
	return s.tasks.GetByID(ctx, userID, id)
}

func (s *taskService) List(ctx context.Context, filter models.TaskFilter) ([]models.Task, int, error) {
	return s.tasks.List(ctx, filter)
}

func (s *taskService) Update(ctx context.Context, userID, id int64, patch models.TaskPatch) (*TaskResult, error) {
	return s.mutate(ctx, userID, id, func(r repositories.Repos, task *models.Task, now time.Time) error {
		if !patch.ClearCategory && patch.CategoryID != nil {
			if err := ensureCategory(ctx, r, userID, patch.CategoryID); err != nil {
				return err
			}
		}
		previous := task.Status
		patch.Apply(task)
		task.DueDate = utcPtr(task.DueDate)
		task.ReminderDate = utcPtr(task.ReminderDate)
		task.Title = strings.TrimSpace(task.Title)
		if err := validateTask(task); err != nil {
			return err
		}
		task.ApplyCompletionHook(previous, now)
		return nil
	})
}

func (s *taskService) Complete(ctx context.Context, userID, id int64) (*TaskResult, error) {
	return s.mutate(ctx, userID, id, func(_ repositories.Repos, task *models.Task, now time.Time) error {
		task.MarkCompleted(now)
		return nil
	})
}

// mutate loads the task under lock, applies change, persists it and, when
// the task moved into completed, credits the owner in the same transaction.
func (s *taskService) mutate(ctx context.Context, userID, id int64,
	change func(r repositories.Repos, task *models.Task, now time.Time) error,
) (*TaskResult, error) {
	now := s.now()
	res := &TaskResult{}

	err := s.tx.InTx(ctx, func(r repositories.Repos) error {
		task, err := r.Tasks.GetByIDForUpdate(ctx, userID, id)
		if err != nil {
			return err
		}
		previous := task.Status

		if err := change(r, task, now); err != nil {
			return err
		}
		task.UpdatedAt = now
		if err := r.Tasks.Update(ctx, task); err != nil {
			return err
		}

		if previous != models.StatusCompleted && task.Status == models.StatusCompleted {
			progress, err := awardCompletion(ctx, r, userID, task.XPReward, now)
			if err != nil {
				return err
			}
			res.Progress = progress
			slog.Info("[task][complete] xp awarded",
				"task_id", task.ID, "user_id", userID, "xp", task.XPReward,
				"level", progress.Level, "streak", progress.StreakDays)
		}

		res.Task, err = r.Tasks.GetByID(ctx, userID, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func awardCompletion(ctx context.Context, r repositories.Repos, userID int64, xp int, now time.Time) (*models.Progress, error) {
	u, err := r.Users.GetByIDForUpdate(ctx, userID)
	if err != nil {
		return nil, err
	}
	prevLevel := u.Level
	gamification.AddXP(u, xp)
	gamification.UpdateStreak(u, now)
	u.UpdatedAt = now
	if err := r.Users.Update(ctx, u); err != nil {
		return nil, err
	}
	p := gamification.ProgressOf(u)
	p.LeveledUp = u.Level > prevLevel
	return &p, nil
}

func (s *taskService) RecalculateXP(ctx context.Context, userID, id int64) (*models.Task, error) {
	res, err := s.mutate(ctx, userID, id, func(_ repositories.Repos, task *models.Task, now time.Time) error {
		gamification.CalculateXPReward(task, now)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res.Task, nil
}

func (s *taskService) Delete(ctx context.Context, userID, id int64) error {
	if err := s.tasks.Delete(ctx, userID, id); err != nil {
		return err
	}
	slog.Info("[task][delete] task removed", "task_id", id, "user_id", userID)
	return nil
}

func (s *taskService) Overview(ctx context.Context, userID int64) (models.StatusOverview, error) {
	return s.tasks.Overview(ctx, userID, s.now())
}

// ensureOwner rejects writes for an account deleted after its token was issued.
func ensureOwner(ctx context.Context, r repositories.Repos, userID int64) error {
	if _, err := r.Users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return fmt.Errorf("account no longer exists: %w", models.ErrUnauthorized)
		}
		return err
	}
	return nil
}

func ensureCategory(ctx context.Context, r repositories.Repos, userID int64, categoryID *int64) error {
	if categoryID == nil {
		return nil
	}
	ok, err := r.Categories.Exists(ctx, userID, *categoryID)
	if err != nil {
		return err
	}
	if !ok {
		return models.NewValidationError("categoryId", "category not found")
	}
	return nil
}

func validateTask(t *models.Task) error {
	v := &models.ValidationError{}
	if t.Title == "" {
		v.Add("title", "is required")
	} else if utf8.RuneCountInString(t.Title) > 255 {
		v.Add("title", "must be at most 255 characters")
	}
	if utf8.RuneCountInString(t.Description) > 1000 {
		v.Add("description", "must be at most 1000 characters")
	}
	if !t.Priority.Valid() {
		v.Add("priority", "must be one of low, medium, high, urgent")
	}
	if !t.Status.Valid() {
		v.Add("status", "must be one of pending, in_progress, completed, cancelled")
	}
	if t.EstimatedDuration != nil && *t.EstimatedDuration < 1 {
		v.Add("estimatedDuration", "must be at least 1 minute")
	}
	return v.OrNil()
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
