package postgres

import (
	"context"
	"fmt"

	"github.com/quizforge/quiz-service/internal/models"
	"gorm.io/gorm"
)

type ImportReportPostgreSQL struct {
	db *gorm.DB
}

func NewImportReportPostgreSQL(db *gorm.DB) *ImportReportPostgreSQL {
	return &ImportReportPostgreSQL{db: db}
}

func (r *ImportReportPostgreSQL) Create(ctx context.Context, report *models.ImportReport) error {
	if err := r.db.WithContext(ctx).Create(report).Error; err != nil {
		return fmt.Errorf("failed to create import report: %w", err)
	}
	return nil
}

func (r *ImportReportPostgreSQL) GetByQuiz(ctx context.Context, quizID uint) ([]*models.ImportReport, error) {
	var reports []*models.ImportReport
	err := r.db.WithContext(ctx).
		Where("quiz_id = ?", quizID).
		Order("created_at DESC").
		Find(&reports).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list import reports: %w", err)
	}
	return reports, nil
}
