package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/quizforge/quiz-service/internal/cache"
	"github.com/quizforge/quiz-service/internal/models"
	"github.com/quizforge/quiz-service/internal/repositories"
)

// DefaultTopK is the leaderboard size.
const DefaultTopK = 10

// leaderboardTTL keeps cached boards fresh enough for a polling UI while
// absorbing hot-quiz read load.
const leaderboardTTL = 15 * time.Second

type leaderboardService struct {
	repo   repositories.Repository
	logger *slog.Logger
	cache  cache.CacheService
}

func NewLeaderboardService(repo repositories.Repository, logger *slog.Logger, cacheService cache.CacheService) LeaderboardService {
	return &leaderboardService{
		repo:   repo,
		logger: logger,
		cache:  cacheService,
	}
}

// Leaderboard returns the top completed sessions for a quiz, best score
// first, earliest completion breaking ties.
func (s *leaderboardService) Leaderboard(ctx context.Context, quizID uint) (*LeaderboardResponse, error) {
	key := fmt.Sprintf("leaderboard:quiz:%d:global", quizID)
	if cached := s.fromCache(ctx, key); cached != nil {
		return cached, nil
	}

	sessions, err := s.repo.Session().Leaderboard(ctx, quizID, DefaultTopK)
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}

	resp := buildLeaderboard(quizID, sessions)
	s.toCache(ctx, key, resp)
	return resp, nil
}

// CodeLeaderboard excludes sessions created through hosted runs, leaving
// only direct join-by-code play.
func (s *leaderboardService) CodeLeaderboard(ctx context.Context, quizID uint) (*LeaderboardResponse, error) {
	key := fmt.Sprintf("leaderboard:quiz:%d:code", quizID)
	if cached := s.fromCache(ctx, key); cached != nil {
		return cached, nil
	}

	sessions, err := s.repo.Session().CodeLeaderboard(ctx, quizID, DefaultTopK)
	if err != nil {
		return nil, fmt.Errorf("failed to load code leaderboard: %w", err)
	}

	resp := buildLeaderboard(quizID, sessions)
	s.toCache(ctx, key, resp)
	return resp, nil
}

// UserStats aggregates completed sessions in a single storage pass.
func (s *leaderboardService) UserStats(ctx context.Context, userID string) (*UserStatsResponse, error) {
	stats, err := s.repo.Session().UserStats(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate user stats: %w", err)
	}

	return &UserStatsResponse{
		UserID:           userID,
		CompletedQuizzes: stats.CompletedQuizzes,
		TotalScore:       stats.TotalScore,
		AverageScore:     stats.AverageScore,
	}, nil
}

// InvalidateQuiz drops cached boards after a session completes.
func (s *leaderboardService) InvalidateQuiz(ctx context.Context, quizID uint) {
	if err := s.cache.DeletePattern(ctx, fmt.Sprintf("leaderboard:quiz:%d:*", quizID)); err != nil {
		s.logger.Warn("Failed to invalidate leaderboard cache", "quiz_id", quizID, "error", err)
	}
}

func (s *leaderboardService) fromCache(ctx context.Context, key string) *LeaderboardResponse {
	var resp LeaderboardResponse
	err := s.cache.Get(ctx, key, &resp)
	if err == nil {
		return &resp
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("Leaderboard cache read failed", "key", key, "error", err)
	}
	return nil
}

func (s *leaderboardService) toCache(ctx context.Context, key string, resp *LeaderboardResponse) {
	if err := s.cache.Set(ctx, key, resp, leaderboardTTL); err != nil {
		s.logger.Warn("Leaderboard cache write failed", "key", key, "error", err)
	}
}

func buildLeaderboard(quizID uint, sessions []*models.QuizSession) *LeaderboardResponse {
	entries := make([]LeaderboardEntry, len(sessions))
	for i, session := range sessions {
		entry := LeaderboardEntry{
			Rank:       i + 1,
			UserID:     session.UserID,
			TotalScore: session.TotalScore,
		}
		if session.CompletedAt != nil {
			entry.CompletedAt = *session.CompletedAt
		}
		if session.User.DisplayName != "" {
			entry.DisplayName = session.User.DisplayName
		} else {
			entry.DisplayName = session.UserID
		}
		entries[i] = entry
	}
	return &LeaderboardResponse{QuizID: quizID, Entries: entries}
}
