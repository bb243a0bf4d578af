package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"taskxp/internal/models"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	// GetByIDForUpdate locks the row on PostgreSQL; use inside a transaction.
	GetByIDForUpdate(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error)
	Update(ctx context.Context, user *models.User) error
	// DeleteCascade removes the user's tasks, then categories, then the user.
	DeleteCascade(ctx context.Context, id int64) error
}

type userRepository struct {
	db      DBTX
	dialect Dialect
}

func NewUserRepository(db DBTX, dialect Dialect) UserRepository {
	return &userRepository{db: db, dialect: dialect}
}

const userColumns = `
	id, username, email, password_hash, first_name, last_name, avatar_url,
	timezone, language, theme, total_xp, level, streak_days, last_activity,
	last_login_at, is_active, email_verified, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.AvatarURL,
		&u.Timezone, &u.Language, &u.Theme, &u.TotalXP, &u.Level, &u.StreakDays, &u.LastActivity,
		&u.LastLoginAt, &u.IsActive, &u.EmailVerified, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	const q = `
		INSERT INTO users (
			username, email, password_hash, first_name, last_name, avatar_url,
			timezone, language, theme, total_xp, level, streak_days, last_activity,
			last_login_at, is_active, email_verified, created_at, updated_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
		RETURNING id`
	err := r.db.QueryRowContext(ctx, q,
		user.Username, user.Email, user.PasswordHash, user.FirstName, user.LastName, user.AvatarURL,
		user.Timezone, user.Language, user.Theme, user.TotalXP, user.Level, user.StreakDays, user.LastActivity,
		user.LastLoginAt, user.IsActive, user.EmailVerified, user.CreatedAt, user.UpdatedAt,
	).Scan(&user.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("user %s: %w", user.Email, models.ErrConflict)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT`+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("query user by id: %w", err)
	}
	return u, err
}

func (r *userRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.User, error) {
	q := `SELECT` + userColumns + ` FROM users WHERE id = $1` + r.dialect.forUpdate()
	u, err := scanUser(r.db.QueryRowContext(ctx, q, id))
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("lock user: %w", err)
	}
	return u, err
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT`+userColumns+` FROM users WHERE email = $1`, email))
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("query user by email: %w", err)
	}
	return u, err
}

func (r *userRepository) ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE email = $1 OR username = $2`, email, username,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check user exists: %w", err)
	}
	return n > 0, nil
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	const q = `
		UPDATE users SET
			first_name=$1, last_name=$2, avatar_url=$3, timezone=$4, language=$5, theme=$6,
			total_xp=$7, level=$8, streak_days=$9, last_activity=$10, last_login_at=$11,
			is_active=$12, email_verified=$13, updated_at=$14
		WHERE id=$15`
	res, err := r.db.ExecContext(ctx, q,
		user.FirstName, user.LastName, user.AvatarURL, user.Timezone, user.Language, user.Theme,
		user.TotalXP, user.Level, user.StreakDays, user.LastActivity, user.LastLoginAt,
		user.IsActive, user.EmailVerified, user.UpdatedAt, user.ID,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return expectOneRow(res)
}

func (r *userRepository) DeleteCascade(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE user_id = $1`, id); err != nil {
		return fmt.Errorf("delete user tasks: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE user_id = $1`, id); err != nil {
		return fmt.Errorf("delete user categories: %w", err)
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return expectOneRow(res)
}

// expectOneRow turns a write that matched nothing into ErrNotFound.
func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return models.ErrNotFound
	}
	return nil
}
