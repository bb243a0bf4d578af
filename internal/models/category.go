package models

import "time"

const (
	DefaultCategoryColor = "#3B82F6"
	DefaultCategoryIcon  = "folder"
)

type Category struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"userId"`
	Name        string    `json:"name"`
	Color       string    `json:"color"`
	Icon        string    `json:"icon"`
	Description string    `json:"description,omitempty"`
	IsDefault   bool      `json:"isDefault"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	TaskCount      *int `json:"taskCount,omitempty"`
	CompletedCount *int `json:"completedCount,omitempty"`
}

// CategorySummary is the slice of a category embedded in task responses.
type CategorySummary struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

type CategoryInput struct {
	Name        string `json:"name" binding:"required,max=100"`
	Color       string `json:"color" binding:"omitempty,hexcolor6"`
	Icon        string `json:"icon" binding:"omitempty,max=50"`
	Description string `json:"description"`
	IsDefault   bool   `json:"isDefault"`
}

type CategoryPatch struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=100"`
	Color       *string `json:"color" binding:"omitempty,hexcolor6"`
	Icon        *string `json:"icon" binding:"omitempty,max=50"`
	Description *string `json:"description"`
	IsDefault   *bool   `json:"isDefault"`
}

func (p *CategoryPatch) Apply(c *Category) {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Color != nil {
		c.Color = *p.Color
	}
	if p.Icon != nil {
		c.Icon = *p.Icon
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.IsDefault != nil {
		c.IsDefault = *p.IsDefault
	}
}
