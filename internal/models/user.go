package models

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	RolePlayer  UserRole = "player"
	RoleCreator UserRole = "creator"
	RoleStaff   UserRole = "staff"
)

// CanAuthor reports whether the role may create and manage quizzes.
func (r UserRole) CanAuthor() bool {
	return r == RoleCreator || r == RoleStaff
}

// User mirrors the identity supplied by the external auth collaborator.
// The id is opaque; this table only caches display data for leaderboards.
type User struct {
	ID          string   `json:"id" gorm:"primaryKey;size:255"`
	DisplayName string   `json:"display_name" gorm:"not null;size:100"`
	Email       *string  `json:"email" gorm:"uniqueIndex;size:255"`
	Role        UserRole `json:"role" gorm:"default:player;size:20" validate:"omitempty,user_role"`

	IsActive bool `json:"is_active" gorm:"default:true"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (User) TableName() string {
	return "users"
}
