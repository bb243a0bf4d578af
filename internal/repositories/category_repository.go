package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"taskxp/internal/models"
)

type CategoryRepository interface {
	Create(ctx context.Context, c *models.Category) error
	// GetByID and List fill TaskCount and CompletedCount.
	GetByID(ctx context.Context, userID, id int64) (*models.Category, error)
	List(ctx context.Context, userID int64) ([]models.Category, error)
	Exists(ctx context.Context, userID, id int64) (bool, error)
	Update(ctx context.Context, c *models.Category) error
	// Delete detaches the category's tasks before removing it.
	Delete(ctx context.Context, userID, id int64) error
}

type categoryRepository struct {
	db DBTX
}

func NewCategoryRepository(db DBTX) CategoryRepository {
	return &categoryRepository{db: db}
}

const categorySelect = `
	SELECT c.id, c.user_id, c.name, c.color, c.icon, c.description, c.is_default,
	       c.created_at, c.updated_at,
	       (SELECT COUNT(*) FROM tasks t WHERE t.category_id = c.id),
	       (SELECT COUNT(*) FROM tasks t WHERE t.category_id = c.id AND t.status = 'completed')
	FROM categories c`

func scanCategory(row rowScanner) (*models.Category, error) {
	c := &models.Category{}
	var total, completed int
	err := row.Scan(
		&c.ID, &c.UserID, &c.Name, &c.Color, &c.Icon, &c.Description, &c.IsDefault,
		&c.CreatedAt, &c.UpdatedAt, &total, &completed,
	)
	if err != nil {
		return nil, err
	}
	c.TaskCount = &total
	c.CompletedCount = &completed
	return c, nil
}

func (r *categoryRepository) Create(ctx context.Context, c *models.Category) error {
	const q = `
		INSERT INTO categories (user_id, name, color, icon, description, is_default, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id`
	if err := r.db.QueryRowContext(ctx, q,
		c.UserID, c.Name, c.Color, c.Icon, c.Description, c.IsDefault, c.CreatedAt, c.UpdatedAt,
	).Scan(&c.ID); err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

func (r *categoryRepository) GetByID(ctx context.Context, userID, id int64) (*models.Category, error) {
	c, err := scanCategory(r.db.QueryRowContext(ctx,
		categorySelect+` WHERE c.id = $1 AND c.user_id = $2`, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("query category: %w", err)
	}
	return c, nil
}

func (r *categoryRepository) List(ctx context.Context, userID int64) ([]models.Category, error) {
	rows, err := r.db.QueryContext(ctx, categorySelect+` WHERE c.user_id = $1 ORDER BY c.name ASC, c.id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	out := []models.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (r *categoryRepository) Exists(ctx context.Context, userID, id int64) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM categories WHERE id = $1 AND user_id = $2`, id, userID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check category: %w", err)
	}
	return n > 0, nil
}

func (r *categoryRepository) Update(ctx context.Context, c *models.Category) error {
	const q = `
		UPDATE categories SET name=$1, color=$2, icon=$3, description=$4, is_default=$5, updated_at=$6
		WHERE id=$7 AND user_id=$8`
	res, err := r.db.ExecContext(ctx, q,
		c.Name, c.Color, c.Icon, c.Description, c.IsDefault, c.UpdatedAt, c.ID, c.UserID)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return expectOneRow(res)
}

func (r *categoryRepository) Delete(ctx context.Context, userID, id int64) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE tasks SET category_id = NULL WHERE category_id = $1 AND user_id = $2`, id, userID,
	); err != nil {
		return fmt.Errorf("detach tasks: %w", err)
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return expectOneRow(res)
}
