package services

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"taskxp/internal/models"
	"taskxp/internal/repositories"
)

var hexColorRe = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// IsHexColor reports whether s is a #RRGGBB color.
func IsHexColor(s string) bool {
	return hexColorRe.MatchString(s)
}

type CategoryService interface {
	Create(ctx context.Context, userID int64, in models.CategoryInput) (*models.Category, error)
	List(ctx context.Context, userID int64) ([]models.Category, error)
	Get(ctx context.Context, userID, id int64) (*models.Category, error)
	Update(ctx context.Context, userID, id int64, patch models.CategoryPatch) (*models.Category, error)
	// Delete keeps the category's tasks and leaves them uncategorized.
	Delete(ctx context.Context, userID, id int64) error
}

type categoryService struct {
	repo repositories.CategoryRepository
	tx   repositories.Transactor
	now  Clock
}

func NewCategoryService(repo repositories.CategoryRepository, tx repositories.Transactor, clock Clock) CategoryService {
	if clock == nil {
		clock = SystemClock
	}
	return &categoryService{repo: repo, tx: tx, now: clock}
}

func validateCategory(c *models.Category) error {
	v := &models.ValidationError{}
	if c.Name == "" {
		v.Add("name", "is required")
	} else if utf8.RuneCountInString(c.Name) > 100 {
		v.Add("name", "must be at most 100 characters")
	}
	if !IsHexColor(c.Color) {
		v.Add("color", "must be a hex color like #3B82F6")
	}
	if utf8.RuneCountInString(c.Icon) > 50 {
		v.Add("icon", "must be at most 50 characters")
	}
	return v.OrNil()
}

func (s *categoryService) Create(ctx context.Context, userID int64, in models.CategoryInput) (*models.Category, error) {
	now := s.now()
	c := &models.Category{
		UserID:      userID,
		Name:        strings.TrimSpace(in.Name),
		Color:       in.Color,
		Icon:        in.Icon,
		Description: in.Description,
		IsDefault:   in.IsDefault,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if c.Color == "" {
		c.Color = models.DefaultCategoryColor
	}
	if c.Icon == "" {
		c.Icon = models.DefaultCategoryIcon
	}
	if err := validateCategory(c); err != nil {
		return nil, err
	}
	err := s.tx.InTx(ctx, func(r repositories.Repos) error {
		if err := ensureOwner(ctx, r, userID); err != nil {
			return err
		}
		return r.Categories.Create(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	zero := 0
	c.TaskCount, c.CompletedCount = &zero, &zero
	return c, nil
}

func (s *categoryService) List(ctx context.Context, userID int64) ([]models.Category, error) {
	return s.repo.List(ctx, userID)
}

func (s *categoryService) Get(ctx context.Context, userID, id int64) (*models.Category, error) {
	return s.repo.GetByID(ctx, userID, id)
}

func (s *categoryService) Update(ctx context.Context, userID, id int64, patch models.CategoryPatch) (*models.Category, error) {
	c, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		patch.Name = &name
	}
	patch.Apply(c)
	if err := validateCategory(c); err != nil {
		return nil, err
	}
	c.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *categoryService) Delete(ctx context.Context, userID, id int64) error {
	return s.tx.InTx(ctx, func(r repositories.Repos) error {
		return r.Categories.Delete(ctx, userID, id)
	})
}
