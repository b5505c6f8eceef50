package postgres

import (
	"context"
	"time"

	"github.com/quizforge/quiz-service/internal/models"
	"github.com/quizforge/quiz-service/internal/repositories"
	"gorm.io/gorm"
)

type PlayerAnswerPostgreSQL struct {
	db *gorm.DB
}

func NewPlayerAnswerPostgreSQL(db *gorm.DB) repositories.PlayerAnswerRepository {
	return &PlayerAnswerPostgreSQL{db: db}
}

func (p PlayerAnswerPostgreSQL) Create(ctx context.Context, answer *models.PlayerAnswer) error {
	return p.db.WithContext(ctx).Create(answer).Error
}

func (p PlayerAnswerPostgreSQL) CreateBatch(ctx context.Context, answers []*models.PlayerAnswer) error {
	if len(answers) == 0 {
		return nil
	}
	return p.db.WithContext(ctx).Create(answers).Error
}

func (p PlayerAnswerPostgreSQL) ExistsSince(ctx context.Context, userID string, questionID uint, since time.Time) (bool, error) {
	var count int64
	if err := p.db.WithContext(ctx).Model(&models.PlayerAnswer{}).
		Where("user_id = ? AND question_id = ? AND answered_at >= ?", userID, questionID, since).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (p PlayerAnswerPostgreSQL) CountAnsweredSince(ctx context.Context, userID string, quizID uint, since time.Time) (int64, error) {
	var count int64
	err := p.db.WithContext(ctx).Model(&models.PlayerAnswer{}).
		Joins("JOIN questions ON questions.id = player_answers.question_id").
		Where("player_answers.user_id = ? AND questions.quiz_id = ? AND player_answers.answered_at >= ?",
			userID, quizID, since).
		Distinct("player_answers.question_id").
		Count(&count).Error
	return count, err
}

func (p PlayerAnswerPostgreSQL) SumPointsInWindow(ctx context.Context, userID string, quizID uint, from time.Time, to *time.Time) (int64, error) {
	query := p.db.WithContext(ctx).Model(&models.PlayerAnswer{}).
		Joins("JOIN questions ON questions.id = player_answers.question_id").
		Where("player_answers.user_id = ? AND questions.quiz_id = ? AND player_answers.answered_at >= ?",
			userID, quizID, from)
	if to != nil {
		query = query.Where("player_answers.answered_at <= ?", *to)
	}

	var total *int64
	if err := query.Select("SUM(player_answers.points_earned)").Scan(&total).Error; err != nil {
		return 0, err
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}
