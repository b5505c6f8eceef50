package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/quizforge/quiz-service/internal/models"
	"github.com/quizforge/quiz-service/internal/repositories"
	"gorm.io/gorm"
)

type HostedPostgreSQL struct {
	db *gorm.DB
}

func NewHostedPostgreSQL(db *gorm.DB) repositories.HostedRepository {
	return &HostedPostgreSQL{db: db}
}

func (h HostedPostgreSQL) CreateGame(ctx context.Context, game *models.HostedGame) error {
	return h.db.WithContext(ctx).Create(game).Error
}

func (h HostedPostgreSQL) GetGameByID(ctx context.Context, id uint) (*models.HostedGame, error) {
	var game models.HostedGame
	if err := h.db.WithContext(ctx).First(&game, id).Error; err != nil {
		return nil, err
	}
	return &game, nil
}

func (h HostedPostgreSQL) GetGameByIDWithParticipants(ctx context.Context, id uint) (*models.HostedGame, error) {
	var game models.HostedGame
	if err := h.db.WithContext(ctx).
		Preload("Participants").
		Preload("Participants.User").
		Preload("Quiz").
		First(&game, id).Error; err != nil {
		return nil, err
	}
	return &game, nil
}

func (h HostedPostgreSQL) GetGameByCode(ctx context.Context, runCode string) (*models.HostedGame, error) {
	var game models.HostedGame
	if err := h.db.WithContext(ctx).
		Where("run_code = ?", models.NormalizeCode(runCode)).
		First(&game).Error; err != nil {
		return nil, err
	}
	return &game, nil
}

func (h HostedPostgreSQL) RunCodeExists(ctx context.Context, runCode string) (bool, error) {
	var count int64
	if err := h.db.WithContext(ctx).Model(&models.HostedGame{}).
		Where("run_code = ?", models.NormalizeCode(runCode)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (h HostedPostgreSQL) TransitionStatus(ctx context.Context, id uint, from, to models.RunStatus, at time.Time) (bool, error) {
	updates := map[string]interface{}{"status": to}
	switch to {
	case models.RunStarted:
		updates["started_at"] = at
	case models.RunClosed:
		updates["closed_at"] = at
	}

	// Guarded transition: only moves the row if it is still in from, so
	// concurrent start/close calls race safely.
	result := h.db.WithContext(ctx).Model(&models.HostedGame{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (h HostedPostgreSQL) CreateParticipant(ctx context.Context, participant *models.HostedParticipant) error {
	return h.db.WithContext(ctx).Create(participant).Error
}

func (h HostedPostgreSQL) GetParticipant(ctx context.Context, gameID uint, userID string) (*models.HostedParticipant, error) {
	var participant models.HostedParticipant
	if err := h.db.WithContext(ctx).
		Where("hosted_game_id = ? AND user_id = ?", gameID, userID).
		First(&participant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &participant, nil
}

func (h HostedPostgreSQL) GetParticipants(ctx context.Context, gameID uint) ([]*models.HostedParticipant, error) {
	var participants []*models.HostedParticipant
	if err := h.db.WithContext(ctx).
		Where("hosted_game_id = ?", gameID).
		Order("joined_at ASC").
		Find(&participants).Error; err != nil {
		return nil, err
	}
	return participants, nil
}

func (h HostedPostgreSQL) LinkSession(ctx context.Context, participantID, sessionID uint) error {
	return h.db.WithContext(ctx).Model(&models.HostedParticipant{}).
		Where("id = ?", participantID).
		Update("session_id", sessionID).Error
}
