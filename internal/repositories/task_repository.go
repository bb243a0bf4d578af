package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"taskxp/internal/models"
)

type TaskRepository interface {
	Create(ctx context.Context, task *models.Task) error
	// GetByID joins the category summary.
	GetByID(ctx context.Context, userID, id int64) (*models.Task, error)
	// GetByIDForUpdate locks the row on PostgreSQL; use inside a transaction.
	GetByIDForUpdate(ctx context.Context, userID, id int64) (*models.Task, error)
	// List returns one page and the total number of matching rows.
	List(ctx context.Context, filter models.TaskFilter) ([]models.Task, int, error)
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, userID, id int64) error
	Overview(ctx context.Context, userID int64, now time.Time) (models.StatusOverview, error)
}

type taskRepository struct {
	db      DBTX
	dialect Dialect
}

func NewTaskRepository(db DBTX, dialect Dialect) TaskRepository {
	return &taskRepository{db: db, dialect: dialect}
}

const taskColumns = `
	t.id, t.user_id, t.category_id, t.title, t.description, t.priority, t.status,
	t.due_date, t.reminder_date, t.estimated_duration, t.actual_duration, t.xp_reward,
	t.is_recurring, t.recurring_pattern, t.tags, t.attachments, t.completed_at,
	t.created_at, t.updated_at`

const taskJoinSelect = `SELECT` + taskColumns + `,
	c.id, c.name, c.color, c.icon
	FROM tasks t
	LEFT JOIN categories c ON c.id = t.category_id`

// urgent first; priorities outside the known set rank with medium
const taskOrder = `
	ORDER BY CASE t.priority
		WHEN 'urgent' THEN 4 WHEN 'high' THEN 3 WHEN 'medium' THEN 2 WHEN 'low' THEN 1 ELSE 2
	END DESC,
	(t.due_date IS NULL) ASC, t.due_date ASC, t.created_at DESC, t.id DESC`

func scanTask(row rowScanner, withCategory bool) (*models.Task, error) {
	t := &models.Task{}
	var tags, attachments string
	dest := []any{
		&t.ID, &t.UserID, &t.CategoryID, &t.Title, &t.Description, &t.Priority, &t.Status,
		&t.DueDate, &t.ReminderDate, &t.EstimatedDuration, &t.ActualDuration, &t.XPReward,
		&t.IsRecurring, &t.RecurringPattern, &tags, &attachments, &t.CompletedAt,
		&t.CreatedAt, &t.UpdatedAt,
	}
	var catID sql.NullInt64
	var catName, catColor, catIcon sql.NullString
	if withCategory {
		dest = append(dest, &catID, &catName, &catColor, &catIcon)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	if err := decodeList(tags, &t.Tags); err != nil {
		return nil, fmt.Errorf("decode tags of task %d: %w", t.ID, err)
	}
	if err := decodeList(attachments, &t.Attachments); err != nil {
		return nil, fmt.Errorf("decode attachments of task %d: %w", t.ID, err)
	}
	if catID.Valid {
		t.Category = &models.CategorySummary{
			ID:    catID.Int64,
			Name:  catName.String,
			Color: catColor.String,
			Icon:  catIcon.String,
		}
	}
	return t, nil
}

func encodeList(v []string) (string, error) {
	if v == nil {
		v = []string{}
	}
	b, err := json.Marshal(v)
	return string(b), err
}

func decodeList(s string, dst *[]string) error {
	*dst = []string{}
	if s == "" {
		return nil
	}
	return json.Unmarshal([]byte(s), dst)
}

func (r *taskRepository) Create(ctx context.Context, task *models.Task) error {
	tags, err := encodeList(task.Tags)
	if err != nil {
		return err
	}
	attachments, err := encodeList(task.Attachments)
	if err != nil {
		return err
	}
	const q = `
		INSERT INTO tasks (
			user_id, category_id, title, description, priority, status, due_date, reminder_date,
			estimated_duration, actual_duration, xp_reward, is_recurring, recurring_pattern,
			tags, attachments, completed_at, created_at, updated_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
		RETURNING id`
	if err := r.db.QueryRowContext(ctx, q,
		task.UserID, task.CategoryID, task.Title, task.Description, task.Priority, task.Status,
		task.DueDate, task.ReminderDate, task.EstimatedDuration, task.ActualDuration, task.XPReward,
		task.IsRecurring, task.RecurringPattern, tags, attachments, task.CompletedAt,
		task.CreatedAt, task.UpdatedAt,
	).Scan(&task.ID); err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

func (r *taskRepository) GetByID(ctx context.Context, userID, id int64) (*models.Task, error) {
	t, err := scanTask(r.db.QueryRowContext(ctx,
		taskJoinSelect+` WHERE t.id = $1 AND t.user_id = $2`, id, userID), true)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("query task: %w", err)
	}
	return t, nil
}

func (r *taskRepository) GetByIDForUpdate(ctx context.Context, userID, id int64) (*models.Task, error) {
	q := `SELECT` + taskColumns + ` FROM tasks t WHERE t.id = $1 AND t.user_id = $2` + r.dialect.forUpdate()
	t, err := scanTask(r.db.QueryRowContext(ctx, q, id, userID), false)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("lock task: %w", err)
	}
	return t, nil
}

func (r *taskRepository) List(ctx context.Context, filter models.TaskFilter) ([]models.Task, int, error) {
	conditions := []string{"t.user_id = $1"}
	args := []any{filter.UserID}
	argID := 2

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("t.status = $%d", argID))
		args = append(args, *filter.Status)
		argID++
	}
	if filter.Priority != nil {
		conditions = append(conditions, fmt.Sprintf("t.priority = $%d", argID))
		args = append(args, *filter.Priority)
		argID++
	}
	if filter.CategoryID != nil {
		conditions = append(conditions, fmt.Sprintf("t.category_id = $%d", argID))
		args = append(args, *filter.CategoryID)
		argID++
	}
	where := " WHERE " + strings.Join(conditions, " AND ")

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks t`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count tasks: %w", err)
	}

	query := taskJoinSelect + where + taskOrder
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argID, argID+1)
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		t, err := scanTask(rows, true)
		if err != nil {
			return nil, 0, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, total, rows.Err()
}

func (r *taskRepository) Update(ctx context.Context, task *models.Task) error {
	tags, err := encodeList(task.Tags)
	if err != nil {
		return err
	}
	attachments, err := encodeList(task.Attachments)
	if err != nil {
		return err
	}
	const q = `
		UPDATE tasks SET
			category_id=$1, title=$2, description=$3, priority=$4, status=$5, due_date=$6,
			reminder_date=$7, estimated_duration=$8, actual_duration=$9, xp_reward=$10,
			is_recurring=$11, recurring_pattern=$12, tags=$13, attachments=$14,
			completed_at=$15, updated_at=$16
		WHERE id=$17 AND user_id=$18`
	res, err := r.db.ExecContext(ctx, q,
		task.CategoryID, task.Title, task.Description, task.Priority, task.Status, task.DueDate,
		task.ReminderDate, task.EstimatedDuration, task.ActualDuration, task.XPReward,
		task.IsRecurring, task.RecurringPattern, tags, attachments,
		task.CompletedAt, task.UpdatedAt, task.ID, task.UserID,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return expectOneRow(res)
}

func (r *taskRepository) Delete(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return expectOneRow(res)
}

func (r *taskRepository) Overview(ctx context.Context, userID int64, now time.Time) (models.StatusOverview, error) {
	var o models.StatusOverview

	rows, err := r.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM tasks WHERE user_id = $1 GROUP BY status`, userID)
	if err != nil {
		return o, fmt.Errorf("count tasks by status: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			status models.TaskStatus
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return o, err
		}
		o.Add(status, n)
	}
	if err := rows.Err(); err != nil {
		return o, err
	}
	rows.Close()

	err = r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tasks
		 WHERE user_id = $1 AND status <> 'completed' AND due_date IS NOT NULL AND due_date < $2`,
		userID, now.UTC(),
	).Scan(&o.Overdue)
	if err != nil {
		return o, fmt.Errorf("count overdue tasks: %w", err)
	}
	return o, nil
}
