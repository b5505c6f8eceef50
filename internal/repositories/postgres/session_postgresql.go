package postgres

import (
	"context"
	"time"

	"github.com/quizforge/quiz-service/internal/models"
	"github.com/quizforge/quiz-service/internal/repositories"
	"gorm.io/gorm"
)

type SessionPostgreSQL struct {
	db *gorm.DB
}

func NewSessionPostgreSQL(db *gorm.DB) repositories.SessionRepository {
	return &SessionPostgreSQL{db: db}
}

func (s SessionPostgreSQL) Create(ctx context.Context, session *models.QuizSession) error {
	return s.db.WithContext(ctx).Create(session).Error
}

func (s SessionPostgreSQL) GetByID(ctx context.Context, id uint) (*models.QuizSession, error) {
	var session models.QuizSession
	if err := s.db.WithContext(ctx).First(&session, id).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func (s SessionPostgreSQL) AddScore(ctx context.Context, id uint, points int) error {
	return s.db.WithContext(ctx).Model(&models.QuizSession{}).
		Where("id = ?", id).
		Update("total_score", gorm.Expr("total_score + ?", points)).Error
}

func (s SessionPostgreSQL) Complete(ctx context.Context, id uint, completedAt time.Time, totalScore int) (bool, error) {
	// The status guard makes completion idempotent under concurrent calls:
	// only the first transition wins.
	result := s.db.WithContext(ctx).Model(&models.QuizSession{}).
		Where("id = ? AND status = ?", id, models.SessionActive).
		Updates(map[string]interface{}{
			"status":       models.SessionCompleted,
			"completed_at": completedAt,
			"total_score":  totalScore,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (s SessionPostgreSQL) Leaderboard(ctx context.Context, quizID uint, topK int) ([]*models.QuizSession, error) {
	var sessions []*models.QuizSession
	if err := s.db.WithContext(ctx).
		Where("quiz_id = ? AND status = ?", quizID, models.SessionCompleted).
		Order("total_score DESC").
		Order("completed_at ASC").
		Limit(topK).
		Preload("User").
		Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

func (s SessionPostgreSQL) CodeLeaderboard(ctx context.Context, quizID uint, topK int) ([]*models.QuizSession, error) {
	// Set-difference against hosted-participant sessions of this quiz:
	// only sessions started via direct join-by-code remain.
	hosted := s.db.Model(&models.HostedParticipant{}).
		Select("hosted_participants.session_id").
		Joins("JOIN hosted_games ON hosted_games.id = hosted_participants.hosted_game_id").
		Where("hosted_games.quiz_id = ? AND hosted_participants.session_id IS NOT NULL", quizID)

	var sessions []*models.QuizSession
	if err := s.db.WithContext(ctx).
		Where("quiz_id = ? AND status = ?", quizID, models.SessionCompleted).
		Where("id NOT IN (?)", hosted).
		Order("total_score DESC").
		Order("completed_at ASC").
		Limit(topK).
		Preload("User").
		Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

func (s SessionPostgreSQL) UserStats(ctx context.Context, userID string) (*repositories.UserStats, error) {
	var stats struct {
		Completed int64
		Total     *int64
		Average   *float64
	}

	if err := s.db.WithContext(ctx).Model(&models.QuizSession{}).
		Where("user_id = ? AND status = ?", userID, models.SessionCompleted).
		Select("COUNT(*) AS completed, SUM(total_score) AS total, AVG(total_score) AS average").
		Scan(&stats).Error; err != nil {
		return nil, err
	}

	result := &repositories.UserStats{
		CompletedQuizzes: int(stats.Completed),
	}
	if stats.Total != nil {
		result.TotalScore = *stats.Total
	}
	if stats.Average != nil {
		result.AverageScore = *stats.Average
	}
	return result, nil
}
