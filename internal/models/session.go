package models

import (
	"time"
)

type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
)

// QuizSession is one player's attempt at one quiz. Completed is terminal:
// the completion timestamp is set at most once and never cleared.
type QuizSession struct {
	ID     uint          `json:"id" gorm:"primaryKey"`
	UserID string        `json:"user_id" gorm:"not null;size:255;index:idx_session_user_quiz,priority:1"`
	QuizID uint          `json:"quiz_id" gorm:"not null;index:idx_session_user_quiz,priority:2"`
	Status SessionStatus `json:"status" gorm:"default:active;size:20;index"`

	StartedAt   time.Time  `json:"started_at" gorm:"not null"`
	CompletedAt *time.Time `json:"completed_at"`

	// Running sum of points earned; completeSession recomputes it
	// authoritatively from player answers within the session window.
	TotalScore int `json:"total_score" gorm:"not null;default:0"`

	// Relations
	User User `json:"user" gorm:"foreignKey:UserID"`
	Quiz Quiz `json:"quiz" gorm:"foreignKey:QuizID"`
}

func (QuizSession) TableName() string {
	return "quiz_sessions"
}

// IsCompleted reports whether the session reached its terminal state.
func (s *QuizSession) IsCompleted() bool {
	return s.Status == SessionCompleted
}

// Window returns the [started_at, end) bounds for aggregating this
// session's answers. For active sessions the window is open-ended.
func (s *QuizSession) Window() (time.Time, *time.Time) {
	return s.StartedAt, s.CompletedAt
}

// PlayerAnswer records one submitted answer option. Session totals
// aggregate by player identity and question over the session time window;
// the unique key on (session, question, answer) is what makes duplicate
// submissions lose at the storage boundary when the read-side guard races.
type PlayerAnswer struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	SessionID  uint   `json:"session_id" gorm:"not null;uniqueIndex:idx_session_question_answer,priority:1"`
	UserID     string `json:"user_id" gorm:"not null;size:255;index:idx_answer_user_question,priority:1"`
	QuestionID uint   `json:"question_id" gorm:"not null;index:idx_answer_user_question,priority:2;uniqueIndex:idx_session_question_answer,priority:2"`
	AnswerID   uint   `json:"answer_id" gorm:"not null;uniqueIndex:idx_session_question_answer,priority:3"`

	// Seconds between question presentation and submission, reported by
	// the caller. Never negative after clamping.
	ResponseTime float64 `json:"response_time" gorm:"not null;default:0"`

	PointsEarned int       `json:"points_earned" gorm:"not null;default:0"`
	AnsweredAt   time.Time `json:"answered_at" gorm:"not null;index"`

	// Relations
	Question Question `json:"question" gorm:"foreignKey:QuestionID"`
	Answer   Answer   `json:"answer" gorm:"foreignKey:AnswerID"`
}

func (PlayerAnswer) TableName() string {
	return "player_answers"
}
