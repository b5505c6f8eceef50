package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

type QuizAccess string

const (
	AccessOpen   QuizAccess = "open"
	AccessHosted QuizAccess = "hosted"
)

type Quiz struct {
	ID          uint    `json:"id" gorm:"primaryKey"`
	Title       string  `json:"title" gorm:"not null;size:200;index" validate:"required,min=1,max=200"`
	Description *string `json:"description" gorm:"type:text" validate:"omitempty,max=1000"`

	// Short join code for direct access (e.g. ABC123). Stored upper-cased,
	// compared case-insensitively.
	JoinCode   *string    `json:"join_code" gorm:"uniqueIndex;size:10" validate:"omitempty,min=4,max=10,alphanum"`
	AccessType QuizAccess `json:"access_type" gorm:"default:open;size:10" validate:"omitempty,oneof=open hosted"`

	// Per-question time budget in seconds, fed into decay scoring.
	QuestionTime int  `json:"question_time" gorm:"not null" validate:"required,min=5,max=300"`
	IsActive     bool `json:"is_active" gorm:"default:true;index"`

	CreatedBy string         `json:"created_by" gorm:"not null;size:255;index"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Questions []Question `json:"questions" gorm:"foreignKey:QuizID;constraint:OnDelete:CASCADE"`
	Creator   User       `json:"creator" gorm:"foreignKey:CreatedBy"`

	// Computed fields (not stored)
	QuestionsCount int `json:"questions_count" gorm:"-"`
	TotalPoints    int `json:"total_points" gorm:"-"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

// NormalizeCode upper-cases a join or run code for storage and comparison.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
