package models

import (
	"strings"
	"time"
)

const (
	DefaultTimezone = "UTC"
	DefaultLanguage = "ar"
	DefaultTheme    = "light"
)

type User struct {
	ID            int64      `json:"id"`
	Username      string     `json:"username"`
	Email         string     `json:"email"`
	PasswordHash  string     `json:"-"` // never serialized
	FirstName     string     `json:"firstName,omitempty"`
	LastName      string     `json:"lastName,omitempty"`
	AvatarURL     string     `json:"avatarUrl,omitempty"`
	Timezone      string     `json:"timezone"`
	Language      string     `json:"language"`
	Theme         string     `json:"theme"`
	TotalXP       int        `json:"totalXp"`
	Level         int        `json:"level"`
	StreakDays    int        `json:"streakDays"`
	LastActivity  time.Time  `json:"lastActivity"`
	LastLoginAt   *time.Time `json:"lastLoginAt,omitempty"`
	IsActive      bool       `json:"isActive"`
	EmailVerified bool       `json:"emailVerified"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// FullName joins first and last name, skipping empty parts.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Location resolves the user's timezone, falling back to UTC.
func (u *User) Location() *time.Location {
	if u.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(u.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Progress is the gamification snapshot returned to clients.
type Progress struct {
	TotalXP        int  `json:"totalXp"`
	Level          int  `json:"level"`
	StreakDays     int  `json:"streakDays"`
	XPForNextLevel int  `json:"xpForNextLevel"`
	LeveledUp      bool `json:"leveledUp,omitempty"`
}

type RegisterRequest struct {
	Username  string `json:"username" binding:"required,min=3,max=50,alphanum"`
	Email     string `json:"email" binding:"required,email,max=100"`
	Password  string `json:"password" binding:"required,min=6"`
	FirstName string `json:"firstName" binding:"omitempty,max=50"`
	LastName  string `json:"lastName" binding:"omitempty,max=50"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// ProfileUpdate holds the user-editable profile fields; nil means unchanged.
type ProfileUpdate struct {
	FirstName *string `json:"firstName" binding:"omitempty,max=50"`
	LastName  *string `json:"lastName" binding:"omitempty,max=50"`
	AvatarURL *string `json:"avatarUrl" binding:"omitempty,max=255"`
	Timezone  *string `json:"timezone" binding:"omitempty,max=50"`
	Language  *string `json:"language" binding:"omitempty,max=10"`
	Theme     *string `json:"theme" binding:"omitempty,max=20"`
}
