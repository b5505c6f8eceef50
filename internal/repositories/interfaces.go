package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/quizforge/quiz-service/internal/models"
	"gorm.io/gorm"
)

// ===== SHARED FILTER STRUCTS =====

type QuizFilters struct {
	IsActive  *bool   `json:"is_active"`
	CreatedBy *string `json:"created_by"`
	Limit     int     `json:"limit"`
	Offset    int     `json:"offset"`
	SortBy    string  `json:"sort_by"`    // "created_at", "title"
	SortOrder string  `json:"sort_order"` // "asc", "desc"
}

// ===== SHARED HELPER STRUCTS =====

type QuestionOrder struct {
	QuestionID uint `json:"question_id"`
	Position   int  `json:"position"`
}

// ===== SHARED STATISTICS STRUCTS =====

// UserStats aggregates a player's completed sessions in a single pass.
type UserStats struct {
	CompletedQuizzes int     `json:"completed_quizzes"`
	TotalScore       int64   `json:"total_score"`
	AverageScore     float64 `json:"average_score"`
}

// ===== REPOSITORY MANAGER =====

type Repository interface {
	Quiz() QuizRepository
	Question() QuestionRepository
	Session() SessionRepository
	PlayerAnswer() PlayerAnswerRepository
	Hosted() HostedRepository
	User() UserRepository
	ImportReport() ImportReportRepository
}

// TransactionRepository adds transactional scoping to a Repository. Begin
// returns a Repository bound to the transaction; Commit/Rollback apply to it.
type TransactionRepository interface {
	Repository
	Begin(ctx context.Context) (Repository, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// ===== ENTITY REPOSITORIES =====

type QuizRepository interface {
	Create(ctx context.Context, quiz *models.Quiz) error
	GetByID(ctx context.Context, id uint) (*models.Quiz, error)
	// GetByIDWithQuestions preloads questions ordered by position and their answers.
	GetByIDWithQuestions(ctx context.Context, id uint) (*models.Quiz, error)
	GetByCode(ctx context.Context, code string) (*models.Quiz, error)
	Update(ctx context.Context, quiz *models.Quiz) error
	Delete(ctx context.Context, id uint) error

	List(ctx context.Context, filters QuizFilters) ([]*models.Quiz, int64, error)
	SetActive(ctx context.Context, id uint, active bool) error
	IsOwner(ctx context.Context, quizID uint, userID string) (bool, error)
	CodeExists(ctx context.Context, code string) (bool, error)
}

type QuestionRepository interface {
	Create(ctx context.Context, question *models.Question) error
	GetByID(ctx context.Context, id uint) (*models.Question, error)
	GetByIDWithAnswers(ctx context.Context, id uint) (*models.Question, error)
	GetByQuiz(ctx context.Context, quizID uint) ([]*models.Question, error)
	CountByQuiz(ctx context.Context, quizID uint) (int64, error)
	MaxPosition(ctx context.Context, quizID uint) (int, error)
	Reorder(ctx context.Context, quizID uint, orders []QuestionOrder) error
	Delete(ctx context.Context, id uint) error
}

type SessionRepository interface {
	Create(ctx context.Context, session *models.QuizSession) error
	GetByID(ctx context.Context, id uint) (*models.QuizSession, error)

	// AddScore atomically increments the running total.
	AddScore(ctx context.Context, id uint, points int) error
	// Complete transitions active -> completed; returns false when the
	// session was already completed (idempotent completion guard).
	Complete(ctx context.Context, id uint, completedAt time.Time, totalScore int) (bool, error)

	// Leaderboard returns completed sessions for a quiz ordered by score
	// desc, earliest completion first on ties, limited to topK.
	Leaderboard(ctx context.Context, quizID uint, topK int) ([]*models.QuizSession, error)
	// CodeLeaderboard is Leaderboard minus sessions linked to hosted
	// participants of the quiz.
	CodeLeaderboard(ctx context.Context, quizID uint, topK int) ([]*models.QuizSession, error)
	// UserStats aggregates completed-session count, sum and average score
	// in one query.
	UserStats(ctx context.Context, userID string) (*UserStats, error)
}

type PlayerAnswerRepository interface {
	Create(ctx context.Context, answer *models.PlayerAnswer) error
	CreateBatch(ctx context.Context, answers []*models.PlayerAnswer) error

	// ExistsSince reports whether the player already answered the question
	// at or after the given time (the duplicate-submission guard, bounded
	// to the current session window).
	ExistsSince(ctx context.Context, userID string, questionID uint, since time.Time) (bool, error)
	// CountAnsweredSince counts distinct quiz questions the player answered
	// at or after the given time.
	CountAnsweredSince(ctx context.Context, userID string, quizID uint, since time.Time) (int64, error)
	// SumPointsInWindow totals points earned by the player on the quiz
	// within [from, to]; a nil to leaves the window open-ended.
	SumPointsInWindow(ctx context.Context, userID string, quizID uint, from time.Time, to *time.Time) (int64, error)
}

type HostedRepository interface {
	CreateGame(ctx context.Context, game *models.HostedGame) error
	GetGameByID(ctx context.Context, id uint) (*models.HostedGame, error)
	GetGameByIDWithParticipants(ctx context.Context, id uint) (*models.HostedGame, error)
	GetGameByCode(ctx context.Context, runCode string) (*models.HostedGame, error)
	RunCodeExists(ctx context.Context, runCode string) (bool, error)

	// TransitionStatus performs a guarded state change and reports whether
	// the row actually moved (false means the run was no longer in from).
	TransitionStatus(ctx context.Context, id uint, from, to models.RunStatus, at time.Time) (bool, error)

	CreateParticipant(ctx context.Context, participant *models.HostedParticipant) error
	GetParticipant(ctx context.Context, gameID uint, userID string) (*models.HostedParticipant, error)
	GetParticipants(ctx context.Context, gameID uint) ([]*models.HostedParticipant, error)
	LinkSession(ctx context.Context, participantID, sessionID uint) error
}

type UserRepository interface {
	Upsert(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
}

type ImportReportRepository interface {
	Create(ctx context.Context, report *models.ImportReport) error
	GetByQuiz(ctx context.Context, quizID uint) ([]*models.ImportReport, error)
}

// ===== ERROR CLASSIFICATION =====

func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func IsDuplicateKeyError(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
