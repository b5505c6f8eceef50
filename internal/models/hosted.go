package models

import (
	"time"
)

type RunStatus string

const (
	// RunOpen accepts participants; the only state that can start or close.
	RunOpen RunStatus = "open"
	// RunStarted is terminal for close; sessions exist for all participants.
	RunStarted RunStatus = "started"
	// RunClosed is terminal; only reachable from open.
	RunClosed RunStatus = "closed"
)

// CanStart reports whether the run may transition to started.
func (s RunStatus) CanStart() bool { return s == RunOpen }

// CanClose reports whether the run may transition to closed.
func (s RunStatus) CanClose() bool { return s == RunOpen }

// HostedGame is a creator-initiated run of a quiz shared by multiple
// simultaneous participants, gated by an explicit start action.
type HostedGame struct {
	ID      uint      `json:"id" gorm:"primaryKey"`
	QuizID  uint      `json:"quiz_id" gorm:"not null;index"`
	HostID  string    `json:"host_id" gorm:"not null;size:255;index"`
	RunCode string    `json:"run_code" gorm:"uniqueIndex;size:8;not null"`
	Status  RunStatus `json:"status" gorm:"default:open;size:10"`

	CreatedAt time.Time  `json:"created_at"`
	StartedAt *time.Time `json:"started_at"`
	ClosedAt  *time.Time `json:"closed_at"`

	// Relations
	Quiz         Quiz                `json:"quiz" gorm:"foreignKey:QuizID"`
	Host         User                `json:"host" gorm:"foreignKey:HostID"`
	Participants []HostedParticipant `json:"participants" gorm:"foreignKey:HostedGameID;constraint:OnDelete:CASCADE"`
}

func (HostedGame) TableName() string {
	return "hosted_games"
}

// HostedParticipant links one user to one hosted game; unique per pair.
// SessionID is set when the host starts the run.
type HostedParticipant struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	HostedGameID uint      `json:"hosted_game_id" gorm:"not null;uniqueIndex:idx_game_user,priority:1"`
	UserID       string    `json:"user_id" gorm:"not null;size:255;uniqueIndex:idx_game_user,priority:2"`
	JoinedAt     time.Time `json:"joined_at" gorm:"not null"`
	SessionID    *uint     `json:"session_id" gorm:"index"`

	// Relations
	User    User         `json:"user" gorm:"foreignKey:UserID"`
	Session *QuizSession `json:"session" gorm:"foreignKey:SessionID"`
}

func (HostedParticipant) TableName() string {
	return "hosted_participants"
}
