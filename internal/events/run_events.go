package events

import (
	"time"

	"github.com/ThreeDotsLabs/watermill"
)

type RunEventType string

const (
	// RunStarted fires after the host starts a run and every participant
	// has a session.
	RunStarted RunEventType = "run.started"
	// RunClosed fires after the host closes a run that never started.
	RunClosed RunEventType = "run.closed"
)

// RunParticipant identifies one participant and the session created for
// them on start.
type RunParticipant struct {
	UserID    string `json:"user_id"`
	SessionID *uint  `json:"session_id,omitempty"`
}

// RunEvent is the notification boundary for hosted-run lifecycle changes.
// Collaborators (push gateways, bots) subscribe to it instead of polling.
type RunEvent struct {
	ID           string           `json:"id"`
	Type         RunEventType     `json:"type"`
	RunID        uint             `json:"run_id"`
	RunCode      string           `json:"run_code"`
	QuizID       uint             `json:"quiz_id"`
	HostID       string           `json:"host_id"`
	Participants []RunParticipant `json:"participants,omitempty"`
	Timestamp    time.Time        `json:"timestamp"`
	Source       string           `json:"source"`
	Version      string           `json:"version"`
}

// NewRunEvent builds an event with a fresh id and the standard envelope.
func NewRunEvent(eventType RunEventType, runID uint, runCode string, quizID uint, hostID string) *RunEvent {
	return &RunEvent{
		ID:        watermill.NewUUID(),
		Type:      eventType,
		RunID:     runID,
		RunCode:   runCode,
		QuizID:    quizID,
		HostID:    hostID,
		Timestamp: time.Now().UTC(),
		Source:    "quiz-service",
		Version:   "1.0",
	}
}
