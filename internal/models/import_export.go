package models

import (
	"time"

	"gorm.io/datatypes"
)

type ImportStatus string

const (
	ImportCompleted ImportStatus = "completed"
	ImportFailed    ImportStatus = "failed"
)

// ImportReport is the persisted outcome of one xlsx question import.
// Imports are all-or-nothing: a failed report creates no questions.
type ImportReport struct {
	ID        uint         `json:"id" gorm:"primaryKey"`
	QuizID    uint         `json:"quiz_id" gorm:"not null;index"`
	CreatedBy string       `json:"created_by" gorm:"not null;size:255"`
	FileName  string       `json:"file_name" gorm:"size:255"`
	Status    ImportStatus `json:"status" gorm:"size:20"`

	Errors  datatypes.JSON `json:"errors" gorm:"type:jsonb"`  // []ImportRowError
	Summary datatypes.JSON `json:"summary" gorm:"type:jsonb"` // ImportSummary

	CreatedAt time.Time `json:"created_at"`
}

func (ImportReport) TableName() string {
	return "import_reports"
}

type ImportRowError struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ImportSummary struct {
	TotalRows        int           `json:"total_rows"`
	CreatedQuestions []uint        `json:"created_questions"`
	ErrorCount       int           `json:"error_count"`
	ProcessingTime   time.Duration `json:"processing_time"`
}
