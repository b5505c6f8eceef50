package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/quizforge/quiz-service/internal/cache"
	"github.com/quizforge/quiz-service/internal/events"
	"github.com/quizforge/quiz-service/internal/models"
	"github.com/quizforge/quiz-service/internal/repositories"
	"github.com/quizforge/quiz-service/internal/utils"
	qvalidator "github.com/quizforge/quiz-service/internal/validator"
)

// ===== REQUEST / RESPONSE TYPES =====

type CreateQuizRequest struct {
	Title        string            `json:"title" validate:"required,min=1,max=200"`
	Description  *string           `json:"description" validate:"omitempty,max=1000"`
	JoinCode     *string           `json:"join_code" validate:"omitempty,min=4,max=10,alphanum"`
	AccessType   models.QuizAccess `json:"access_type" validate:"omitempty,oneof=open hosted"`
	QuestionTime int               `json:"question_time" validate:"required,min=5,max=300"`
}

type CreateAnswerRequest struct {
	Text      string  `json:"text" validate:"required,min=1,max=500"`
	ImageURL  *string `json:"image_url" validate:"omitempty,max=500"`
	IsCorrect bool    `json:"is_correct"`
}

type CreateQuestionRequest struct {
	Text     string                `json:"text" validate:"required,min=1,max=2000"`
	Type     models.QuestionType   `json:"type" validate:"required,question_type"`
	ImageURL *string               `json:"image_url" validate:"omitempty,max=500"`
	Position int                   `json:"position" validate:"omitempty,min=1"` // 0 appends
	Points   int                   `json:"points" validate:"required,min=1,max=10000"`
	Answers  []CreateAnswerRequest `json:"answers" validate:"required,min=2,max=4,dive"`
}

type ReorderQuestionsRequest struct {
	Orders []repositories.QuestionOrder `json:"orders" validate:"required,min=1,dive"`
}

type SubmitAnswerRequest struct {
	QuestionID   uint    `json:"question_id" validate:"required"`
	AnswerIDs    []uint  `json:"answer_ids" validate:"required,min=1,max=4"`
	ResponseTime float64 `json:"response_time"`
}

// SubmitAnswerResponse carries the points for this submission and where the
// player goes next.
type SubmitAnswerResponse struct {
	PointsEarned int  `json:"points_earned"`
	NextPosition *int `json:"next_position"` // nil when no questions remain
	TotalScore   int  `json:"total_score"`
}

// PlayAnswer is an answer as shown to a player: no correctness flag.
type PlayAnswer struct {
	ID       uint    `json:"id"`
	Text     string  `json:"text"`
	ImageURL *string `json:"image_url,omitempty"`
}

// PlayQuestion is a question as shown to a player mid-session.
type PlayQuestion struct {
	ID       uint                `json:"id"`
	Text     string              `json:"text"`
	Type     models.QuestionType `json:"type"`
	ImageURL *string             `json:"image_url,omitempty"`
	Position int                 `json:"position"`
	Points   int                 `json:"points"`
	Answers  []PlayAnswer        `json:"answers"`
}

// CurrentQuestionResponse is either the next question or the completion
// outcome of the session.
type CurrentQuestionResponse struct {
	Completed      bool          `json:"completed"`
	Question       *PlayQuestion `json:"question,omitempty"`
	QuestionNumber int           `json:"question_number,omitempty"`
	TotalQuestions int           `json:"total_questions"`
	TotalScore     int           `json:"total_score"`
	CompletedAt    *time.Time    `json:"completed_at,omitempty"`
}

type SessionResponse struct {
	ID          uint                 `json:"id"`
	QuizID      uint                 `json:"quiz_id"`
	UserID      string               `json:"user_id"`
	Status      models.SessionStatus `json:"status"`
	StartedAt   time.Time            `json:"started_at"`
	CompletedAt *time.Time           `json:"completed_at,omitempty"`
	TotalScore  int                  `json:"total_score"`
}

type RunStatusResponse struct {
	RunID     uint             `json:"run_id"`
	RunCode   string           `json:"run_code"`
	Status    models.RunStatus `json:"status"`
	Started   bool             `json:"started"`
	Closed    bool             `json:"closed"`
	SessionID *uint            `json:"session_id,omitempty"`
}

type LeaderboardEntry struct {
	Rank        int       `json:"rank"`
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	TotalScore  int       `json:"total_score"`
	CompletedAt time.Time `json:"completed_at"`
}

type LeaderboardResponse struct {
	QuizID  uint               `json:"quiz_id"`
	Entries []LeaderboardEntry `json:"entries"`
}

type UserStatsResponse struct {
	UserID           string  `json:"user_id"`
	CompletedQuizzes int     `json:"completed_quizzes"`
	TotalScore       int64   `json:"total_score"`
	AverageScore     float64 `json:"average_score"`
}

// ===== SERVICE INTERFACES =====

type QuizService interface {
	Create(ctx context.Context, req *CreateQuizRequest, creator *models.User) (*models.Quiz, error)
	GetByID(ctx context.Context, id uint) (*models.Quiz, error)
	GetByIDWithQuestions(ctx context.Context, id uint) (*models.Quiz, error)
	GetByCode(ctx context.Context, code string) (*models.Quiz, error)
	ListActive(ctx context.Context, filters repositories.QuizFilters) ([]*models.Quiz, int64, error)
	SetActive(ctx context.Context, quizID uint, active bool, actor *models.User) error
	Delete(ctx context.Context, quizID uint, actor *models.User) error

	AddQuestion(ctx context.Context, quizID uint, req *CreateQuestionRequest, actor *models.User) (*models.Question, error)
	ReorderQuestions(ctx context.Context, quizID uint, req *ReorderQuestionsRequest, actor *models.User) error
}

type SessionService interface {
	Start(ctx context.Context, quizID uint, userID string) (*SessionResponse, error)
	CurrentQuestion(ctx context.Context, sessionID uint, userID string) (*CurrentQuestionResponse, error)
	SubmitAnswer(ctx context.Context, sessionID uint, req *SubmitAnswerRequest, userID string) (*SubmitAnswerResponse, error)
	Complete(ctx context.Context, sessionID uint, userID string) (*SessionResponse, error)
}

type HostedRunService interface {
	CreateRun(ctx context.Context, quizID uint, host *models.User) (*models.HostedGame, error)
	JoinRun(ctx context.Context, runCode string, userID string) (*models.HostedParticipant, error)
	StartRun(ctx context.Context, runID uint, actorID string) error
	CloseRun(ctx context.Context, runID uint, actorID string) error
	PollStatus(ctx context.Context, runID uint, userID string) (*RunStatusResponse, error)
}

type LeaderboardService interface {
	Leaderboard(ctx context.Context, quizID uint) (*LeaderboardResponse, error)
	CodeLeaderboard(ctx context.Context, quizID uint) (*LeaderboardResponse, error)
	UserStats(ctx context.Context, userID string) (*UserStatsResponse, error)
	InvalidateQuiz(ctx context.Context, quizID uint)
}

type ImportExportService interface {
	ExportQuestions(ctx context.Context, quizID uint, actor *models.User) ([]byte, error)
	ImportQuestions(ctx context.Context, quizID uint, fileName string, data []byte, actor *models.User) (*models.ImportSummary, error)
	ImportHistory(ctx context.Context, quizID uint, actor *models.User) ([]*models.ImportReport, error)
}

// UserService caches the externally-authenticated identity so that domain
// rows can reference it.
type UserService interface {
	Ensure(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// ===== SERVICE MANAGER =====

type ServiceManager interface {
	Quiz() QuizService
	Session() SessionService
	Hosted() HostedRunService
	Leaderboard() LeaderboardService
	ImportExport() ImportExportService
	Users() UserService
}

type serviceManager struct {
	quiz         QuizService
	session      SessionService
	hosted       HostedRunService
	leaderboard  LeaderboardService
	importExport ImportExportService
	users        UserService
}

func NewServiceManager(
	repo repositories.Repository,
	logger *slog.Logger,
	validator *utils.Validator,
	publisher events.EventPublisher,
	cacheService cache.CacheService,
) ServiceManager {
	questionValidator := qvalidator.NewQuestionValidator()
	leaderboardService := NewLeaderboardService(repo, logger, cacheService)
	sessionService := NewSessionService(repo, logger, validator, leaderboardService)
	return &serviceManager{
		quiz:         NewQuizService(repo, logger, validator, questionValidator),
		session:      sessionService,
		hosted:       NewHostedRunService(repo, sessionService, logger, publisher),
		leaderboard:  leaderboardService,
		importExport: NewImportExportService(repo, logger, questionValidator),
		users:        NewUserService(repo, logger),
	}
}

func (m *serviceManager) Quiz() QuizService                 { return m.quiz }
func (m *serviceManager) Session() SessionService           { return m.session }
func (m *serviceManager) Hosted() HostedRunService          { return m.hosted }
func (m *serviceManager) Leaderboard() LeaderboardService   { return m.leaderboard }
func (m *serviceManager) ImportExport() ImportExportService { return m.importExport }
func (m *serviceManager) Users() UserService                { return m.users }
