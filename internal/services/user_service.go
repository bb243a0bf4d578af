package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"taskxp/internal/gamification"
	"taskxp/internal/models"
	"taskxp/internal/repositories"
)

type UserService interface {
	GetProfile(ctx context.Context, userID int64) (*models.User, models.Progress, error)
	UpdateProfile(ctx context.Context, userID int64, upd models.ProfileUpdate) (*models.User, error)
	// DeleteAccount removes the user with all of their tasks and categories.
	DeleteAccount(ctx context.Context, userID int64) error
}

type userService struct {
	users repositories.UserRepository
	tx    repositories.Transactor
	now   Clock
}

func NewUserService(users repositories.UserRepository, tx repositories.Transactor, clock Clock) UserService {
	if clock == nil {
		clock = SystemClock
	}
	return &userService{users: users, tx: tx, now: clock}
}

func (s *userService) GetProfile(ctx context.Context, userID int64) (*models.User, models.Progress, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, models.Progress{}, err
	}
	return u, gamification.ProgressOf(u), nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID int64, upd models.ProfileUpdate) (*models.User, error) {
	if upd.Timezone != nil {
		tz := strings.TrimSpace(*upd.Timezone)
		if tz == "" {
			return nil, models.NewValidationError("timezone", "must not be empty")
		}
		if _, err := time.LoadLocation(tz); err != nil {
			return nil, models.NewValidationError("timezone", "unknown timezone")
		}
		upd.Timezone = &tz
	}

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if upd.FirstName != nil {
		u.FirstName = strings.TrimSpace(*upd.FirstName)
	}
	if upd.LastName != nil {
		u.LastName = strings.TrimSpace(*upd.LastName)
	}
	if upd.AvatarURL != nil {
		u.AvatarURL = *upd.AvatarURL
	}
	if upd.Timezone != nil {
		u.Timezone = *upd.Timezone
	}
	if upd.Language != nil {
		u.Language = *upd.Language
	}
	if upd.Theme != nil {
		u.Theme = *upd.Theme
	}
	u.UpdatedAt = s.now()

	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *userService) DeleteAccount(ctx context.Context, userID int64) error {
	err := s.tx.InTx(ctx, func(r repositories.Repos) error {
		return r.Users.DeleteCascade(ctx, userID)
	})
	if err != nil {
		return err
	}
	slog.Info("[user][delete] account removed", "user_id", userID)
	return nil
}
