package models

import (
	"time"

	"gorm.io/gorm"
)

type QuestionType string

const (
	// Binary questions have exactly 2 answers with 1 correct.
	QuestionBinary QuestionType = "binary"
	// Single questions have exactly 4 answers with 1 correct.
	QuestionSingle QuestionType = "single"
	// Multiple questions have exactly 4 answers with 2 or more correct.
	QuestionMultiple QuestionType = "multiple"
)

// AnswerShape describes the answer-count invariant for a question type.
type AnswerShape struct {
	AnswerCount int
	MinCorrect  int
	MaxCorrect  int
}

// ShapeFor returns the authoring-time shape constraint for a question type.
func ShapeFor(t QuestionType) (AnswerShape, bool) {
	switch t {
	case QuestionBinary:
		return AnswerShape{AnswerCount: 2, MinCorrect: 1, MaxCorrect: 1}, true
	case QuestionSingle:
		return AnswerShape{AnswerCount: 4, MinCorrect: 1, MaxCorrect: 1}, true
	case QuestionMultiple:
		return AnswerShape{AnswerCount: 4, MinCorrect: 2, MaxCorrect: 4}, true
	default:
		return AnswerShape{}, false
	}
}

type Question struct {
	ID     uint         `json:"id" gorm:"primaryKey"`
	QuizID uint         `json:"quiz_id" gorm:"not null;uniqueIndex:idx_quiz_position,priority:1"`
	Text   string       `json:"text" gorm:"type:text;not null" validate:"required,min=1,max=2000"`
	Type   QuestionType `json:"type" gorm:"not null;size:10" validate:"required,question_type"`

	// Optional image reference; the engine only stores the URL.
	ImageURL *string `json:"image_url" gorm:"size:500" validate:"omitempty,max=500"`

	// Position defines the sequencing within a quiz; unique per quiz.
	Position int `json:"position" gorm:"not null;uniqueIndex:idx_quiz_position,priority:2" validate:"required,min=1"`

	// Base point value before response-time decay.
	Points int `json:"points" gorm:"not null;default:100" validate:"required,min=1,max=10000"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Answers []Answer `json:"answers" gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE"`
}

func (Question) TableName() string {
	return "questions"
}

// CorrectAnswerIDs returns the ids of the correct answers, in stored order.
func (q *Question) CorrectAnswerIDs() []uint {
	var ids []uint
	for _, a := range q.Answers {
		if a.IsCorrect {
			ids = append(ids, a.ID)
		}
	}
	return ids
}

// HasAnswer reports whether the given answer id belongs to this question.
func (q *Question) HasAnswer(answerID uint) bool {
	for _, a := range q.Answers {
		if a.ID == answerID {
			return true
		}
	}
	return false
}
