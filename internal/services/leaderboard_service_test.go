package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/quizforge/quiz-service/internal/cache"
	"github.com/quizforge/quiz-service/internal/models"
	"github.com/quizforge/quiz-service/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// memoryCache is a map-backed CacheService for exercising the cache paths
// without Redis.
type memoryCache struct {
	entries map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string][]byte)}
}

func (c *memoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = data
	return nil
}

func (c *memoryCache) Get(_ context.Context, key string, dest interface{}) error {
	data, ok := c.entries[key]
	if !ok {
		return cache.ErrCacheMiss
	}
	return json.Unmarshal(data, dest)
}

func (c *memoryCache) Delete(_ context.Context, key string) error {
	delete(c.entries, key)
	return nil
}

func (c *memoryCache) DeletePattern(_ context.Context, _ string) error {
	c.entries = make(map[string][]byte)
	return nil
}

func completedSession(userID string, score int, completedAt time.Time, displayName string) *models.QuizSession {
	return &models.QuizSession{
		UserID:      userID,
		QuizID:      1,
		Status:      models.SessionCompleted,
		TotalScore:  score,
		CompletedAt: &completedAt,
		User:        models.User{ID: userID, DisplayName: displayName},
	}
}

func TestLeaderboardService_Leaderboard_RanksInRepositoryOrder(t *testing.T) {
	repo := NewMockRepository()
	service := NewLeaderboardService(repo, testLogger(), cache.NopCache{})

	now := time.Now().UTC()
	sessions := []*models.QuizSession{
		completedSession("a", 900, now.Add(-2*time.Minute), "Alice"),
		completedSession("b", 900, now.Add(-time.Minute), "Bob"),
		completedSession("c", 500, now, ""),
	}
	repo.session.On("Leaderboard", mock.Anything, uint(1), DefaultTopK).Return(sessions, nil)

	board, err := service.Leaderboard(context.Background(), 1)

	require.NoError(t, err)
	require.Len(t, board.Entries, 3)
	assert.Equal(t, 1, board.Entries[0].Rank)
	assert.Equal(t, "a", board.Entries[0].UserID)
	assert.Equal(t, 2, board.Entries[1].Rank)
	assert.Equal(t, 3, board.Entries[2].Rank)
	// Missing display names fall back to the user id.
	assert.Equal(t, "c", board.Entries[2].DisplayName)
}

func TestLeaderboardService_Leaderboard_ServedFromCache(t *testing.T) {
	repo := NewMockRepository()
	service := NewLeaderboardService(repo, testLogger(), newMemoryCache())

	now := time.Now().UTC()
	sessions := []*models.QuizSession{completedSession("a", 900, now, "Alice")}
	repo.session.On("Leaderboard", mock.Anything, uint(1), DefaultTopK).Return(sessions, nil).Once()

	first, err := service.Leaderboard(context.Background(), 1)
	require.NoError(t, err)
	second, err := service.Leaderboard(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, first.Entries, second.Entries)
	repo.session.AssertNumberOfCalls(t, "Leaderboard", 1)
}

func TestLeaderboardService_InvalidateQuizDropsCache(t *testing.T) {
	repo := NewMockRepository()
	memCache := newMemoryCache()
	service := NewLeaderboardService(repo, testLogger(), memCache)

	now := time.Now().UTC()
	repo.session.On("Leaderboard", mock.Anything, uint(1), DefaultTopK).
		Return([]*models.QuizSession{completedSession("a", 900, now, "Alice")}, nil).Twice()

	_, err := service.Leaderboard(context.Background(), 1)
	require.NoError(t, err)

	service.InvalidateQuiz(context.Background(), 1)

	_, err = service.Leaderboard(context.Background(), 1)
	require.NoError(t, err)
	repo.session.AssertNumberOfCalls(t, "Leaderboard", 2)
}

func TestLeaderboardService_CodeLeaderboardUsesCodeVariant(t *testing.T) {
	repo := NewMockRepository()
	service := NewLeaderboardService(repo, testLogger(), cache.NopCache{})

	now := time.Now().UTC()
	repo.session.On("CodeLeaderboard", mock.Anything, uint(1), DefaultTopK).
		Return([]*models.QuizSession{completedSession("a", 900, now, "Alice")}, nil)

	board, err := service.CodeLeaderboard(context.Background(), 1)

	require.NoError(t, err)
	assert.Len(t, board.Entries, 1)
	repo.session.AssertNotCalled(t, "Leaderboard", mock.Anything, mock.Anything, mock.Anything)
}

func TestLeaderboardService_UserStats(t *testing.T) {
	repo := NewMockRepository()
	service := NewLeaderboardService(repo, testLogger(), cache.NopCache{})

	repo.session.On("UserStats", mock.Anything, "player-1").Return(&repositories.UserStats{
		CompletedQuizzes: 4,
		TotalScore:       3200,
		AverageScore:     800,
	}, nil)

	stats, err := service.UserStats(context.Background(), "player-1")

	require.NoError(t, err)
	assert.Equal(t, 4, stats.CompletedQuizzes)
	assert.Equal(t, int64(3200), stats.TotalScore)
	assert.InDelta(t, 800, stats.AverageScore, 0.001)
}
