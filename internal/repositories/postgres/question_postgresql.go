package postgres

import (
	"context"

	"github.com/quizforge/quiz-service/internal/models"
	"github.com/quizforge/quiz-service/internal/repositories"
	"gorm.io/gorm"
)

type QuestionPostgreSQL struct {
	db *gorm.DB
}

func NewQuestionPostgreSQL(db *gorm.DB) repositories.QuestionRepository {
	return &QuestionPostgreSQL{db: db}
}

func (q QuestionPostgreSQL) Create(ctx context.Context, question *models.Question) error {
	// Answers are created alongside via the association.
	return q.db.WithContext(ctx).Create(question).Error
}

func (q QuestionPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Question, error) {
	var question models.Question
	if err := q.db.WithContext(ctx).First(&question, id).Error; err != nil {
		return nil, err
	}
	return &question, nil
}

func (q QuestionPostgreSQL) GetByIDWithAnswers(ctx context.Context, id uint) (*models.Question, error) {
	var question models.Question
	if err := q.db.WithContext(ctx).
		Preload("Answers").
		First(&question, id).Error; err != nil {
		return nil, err
	}
	return &question, nil
}

func (q QuestionPostgreSQL) GetByQuiz(ctx context.Context, quizID uint) ([]*models.Question, error) {
	var questions []*models.Question
	if err := q.db.WithContext(ctx).
		Where("quiz_id = ?", quizID).
		Order("position ASC").
		Preload("Answers").
		Find(&questions).Error; err != nil {
		return nil, err
	}
	return questions, nil
}

func (q QuestionPostgreSQL) CountByQuiz(ctx context.Context, quizID uint) (int64, error) {
	var count int64
	err := q.db.WithContext(ctx).Model(&models.Question{}).
		Where("quiz_id = ?", quizID).
		Count(&count).Error
	return count, err
}

func (q QuestionPostgreSQL) MaxPosition(ctx context.Context, quizID uint) (int, error) {
	var max *int
	if err := q.db.WithContext(ctx).Model(&models.Question{}).
		Where("quiz_id = ?", quizID).
		Select("MAX(position)").
		Scan(&max).Error; err != nil {
		return 0, err
	}
	if max == nil {
		return 0, nil
	}
	return *max, nil
}

func (q QuestionPostgreSQL) Reorder(ctx context.Context, quizID uint, orders []repositories.QuestionOrder) error {
	return q.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Move everything out of the way first so the unique (quiz,
		// position) index never sees a transient collision.
		for _, order := range orders {
			if err := tx.Model(&models.Question{}).
				Where("id = ? AND quiz_id = ?", order.QuestionID, quizID).
				Update("position", -order.Position).Error; err != nil {
				return err
			}
		}
		for _, order := range orders {
			if err := tx.Model(&models.Question{}).
				Where("id = ? AND quiz_id = ?", order.QuestionID, quizID).
				Update("position", order.Position).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (q QuestionPostgreSQL) Delete(ctx context.Context, id uint) error {
	return q.db.WithContext(ctx).Delete(&models.Question{}, id).Error
}
