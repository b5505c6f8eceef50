package services

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/quizforge/quiz-service/internal/models"
	"github.com/quizforge/quiz-service/internal/repositories"
	"github.com/stretchr/testify/mock"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// MockRepository bundles the entity mocks and satisfies both Repository and
// TransactionRepository; Begin hands back the same bundle so transactional
// code paths exercise the same expectations.
type MockRepository struct {
	quiz         *MockQuizRepository
	question     *MockQuestionRepository
	session      *MockSessionRepository
	playerAnswer *MockPlayerAnswerRepository
	hosted       *MockHostedRepository
	user         *MockUserRepository
	importReport *MockImportReportRepository
}

func NewMockRepository() *MockRepository {
	return &MockRepository{
		quiz:         &MockQuizRepository{},
		question:     &MockQuestionRepository{},
		session:      &MockSessionRepository{},
		playerAnswer: &MockPlayerAnswerRepository{},
		hosted:       &MockHostedRepository{},
		user:         &MockUserRepository{},
		importReport: &MockImportReportRepository{},
	}
}

func (m *MockRepository) Quiz() repositories.QuizRepository                 { return m.quiz }
func (m *MockRepository) Question() repositories.QuestionRepository         { return m.question }
func (m *MockRepository) Session() repositories.SessionRepository           { return m.session }
func (m *MockRepository) PlayerAnswer() repositories.PlayerAnswerRepository { return m.playerAnswer }
func (m *MockRepository) Hosted() repositories.HostedRepository             { return m.hosted }
func (m *MockRepository) User() repositories.UserRepository                 { return m.user }
func (m *MockRepository) ImportReport() repositories.ImportReportRepository { return m.importReport }

func (m *MockRepository) Begin(_ context.Context) (repositories.Repository, error) { return m, nil }
func (m *MockRepository) Commit(_ context.Context) error                           { return nil }
func (m *MockRepository) Rollback(_ context.Context) error                         { return nil }

// ===== QUIZ =====

type MockQuizRepository struct {
	mock.Mock
}

func (m *MockQuizRepository) Create(ctx context.Context, quiz *models.Quiz) error {
	args := m.Called(ctx, quiz)
	return args.Error(0)
}

func (m *MockQuizRepository) GetByID(ctx context.Context, id uint) (*models.Quiz, error) {
	args := m.Called(ctx, id)
	if quiz := args.Get(0); quiz != nil {
		return quiz.(*models.Quiz), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockQuizRepository) GetByIDWithQuestions(ctx context.Context, id uint) (*models.Quiz, error) {
	args := m.Called(ctx, id)
	if quiz := args.Get(0); quiz != nil {
		return quiz.(*models.Quiz), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockQuizRepository) GetByCode(ctx context.Context, code string) (*models.Quiz, error) {
	args := m.Called(ctx, code)
	if quiz := args.Get(0); quiz != nil {
		return quiz.(*models.Quiz), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockQuizRepository) Update(ctx context.Context, quiz *models.Quiz) error {
	args := m.Called(ctx, quiz)
	return args.Error(0)
}

func (m *MockQuizRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockQuizRepository) List(ctx context.Context, filters repositories.QuizFilters) ([]*models.Quiz, int64, error) {
	args := m.Called(ctx, filters)
	return args.Get(0).([]*models.Quiz), args.Get(1).(int64), args.Error(2)
}

func (m *MockQuizRepository) SetActive(ctx context.Context, id uint, active bool) error {
	args := m.Called(ctx, id, active)
	return args.Error(0)
}

func (m *MockQuizRepository) IsOwner(ctx context.Context, quizID uint, userID string) (bool, error) {
	args := m.Called(ctx, quizID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockQuizRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

// ===== QUESTION =====

type MockQuestionRepository struct {
	mock.Mock
}

func (m *MockQuestionRepository) Create(ctx context.Context, question *models.Question) error {
	args := m.Called(ctx, question)
	return args.Error(0)
}

func (m *MockQuestionRepository) GetByID(ctx context.Context, id uint) (*models.Question, error) {
	args := m.Called(ctx, id)
	if question := args.Get(0); question != nil {
		return question.(*models.Question), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockQuestionRepository) GetByIDWithAnswers(ctx context.Context, id uint) (*models.Question, error) {
	args := m.Called(ctx, id)
	if question := args.Get(0); question != nil {
		return question.(*models.Question), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockQuestionRepository) GetByQuiz(ctx context.Context, quizID uint) ([]*models.Question, error) {
	args := m.Called(ctx, quizID)
	return args.Get(0).([]*models.Question), args.Error(1)
}

func (m *MockQuestionRepository) CountByQuiz(ctx context.Context, quizID uint) (int64, error) {
	args := m.Called(ctx, quizID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockQuestionRepository) MaxPosition(ctx context.Context, quizID uint) (int, error) {
	args := m.Called(ctx, quizID)
	return args.Int(0), args.Error(1)
}

func (m *MockQuestionRepository) Reorder(ctx context.Context, quizID uint, orders []repositories.QuestionOrder) error {
	args := m.Called(ctx, quizID, orders)
	return args.Error(0)
}

func (m *MockQuestionRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// ===== SESSION =====

type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) Create(ctx context.Context, session *models.QuizSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockSessionRepository) GetByID(ctx context.Context, id uint) (*models.QuizSession, error) {
	args := m.Called(ctx, id)
	if session := args.Get(0); session != nil {
		return session.(*models.QuizSession), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSessionRepository) AddScore(ctx context.Context, id uint, points int) error {
	args := m.Called(ctx, id, points)
	return args.Error(0)
}

func (m *MockSessionRepository) Complete(ctx context.Context, id uint, completedAt time.Time, totalScore int) (bool, error) {
	args := m.Called(ctx, id, completedAt, totalScore)
	return args.Bool(0), args.Error(1)
}

func (m *MockSessionRepository) Leaderboard(ctx context.Context, quizID uint, topK int) ([]*models.QuizSession, error) {
	args := m.Called(ctx, quizID, topK)
	return args.Get(0).([]*models.QuizSession), args.Error(1)
}

func (m *MockSessionRepository) CodeLeaderboard(ctx context.Context, quizID uint, topK int) ([]*models.QuizSession, error) {
	args := m.Called(ctx, quizID, topK)
	return args.Get(0).([]*models.QuizSession), args.Error(1)
}

func (m *MockSessionRepository) UserStats(ctx context.Context, userID string) (*repositories.UserStats, error) {
	args := m.Called(ctx, userID)
	if stats := args.Get(0); stats != nil {
		return stats.(*repositories.UserStats), args.Error(1)
	}
	return nil, args.Error(1)
}

// ===== PLAYER ANSWER =====

type MockPlayerAnswerRepository struct {
	mock.Mock
}

func (m *MockPlayerAnswerRepository) Create(ctx context.Context, answer *models.PlayerAnswer) error {
	args := m.Called(ctx, answer)
	return args.Error(0)
}

func (m *MockPlayerAnswerRepository) CreateBatch(ctx context.Context, answers []*models.PlayerAnswer) error {
	args := m.Called(ctx, answers)
	return args.Error(0)
}

func (m *MockPlayerAnswerRepository) ExistsSince(ctx context.Context, userID string, questionID uint, since time.Time) (bool, error) {
	args := m.Called(ctx, userID, questionID, since)
	return args.Bool(0), args.Error(1)
}

func (m *MockPlayerAnswerRepository) CountAnsweredSince(ctx context.Context, userID string, quizID uint, since time.Time) (int64, error) {
	args := m.Called(ctx, userID, quizID, since)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPlayerAnswerRepository) SumPointsInWindow(ctx context.Context, userID string, quizID uint, from time.Time, to *time.Time) (int64, error) {
	args := m.Called(ctx, userID, quizID, from, to)
	return args.Get(0).(int64), args.Error(1)
}

// ===== HOSTED =====

type MockHostedRepository struct {
	mock.Mock
}

func (m *MockHostedRepository) CreateGame(ctx context.Context, game *models.HostedGame) error {
	args := m.Called(ctx, game)
	return args.Error(0)
}

func (m *MockHostedRepository) GetGameByID(ctx context.Context, id uint) (*models.HostedGame, error) {
	args := m.Called(ctx, id)
	if game := args.Get(0); game != nil {
		return game.(*models.HostedGame), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockHostedRepository) GetGameByIDWithParticipants(ctx context.Context, id uint) (*models.HostedGame, error) {
	args := m.Called(ctx, id)
	if game := args.Get(0); game != nil {
		return game.(*models.HostedGame), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockHostedRepository) GetGameByCode(ctx context.Context, runCode string) (*models.HostedGame, error) {
	args := m.Called(ctx, runCode)
	if game := args.Get(0); game != nil {
		return game.(*models.HostedGame), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockHostedRepository) RunCodeExists(ctx context.Context, runCode string) (bool, error) {
	args := m.Called(ctx, runCode)
	return args.Bool(0), args.Error(1)
}

func (m *MockHostedRepository) TransitionStatus(ctx context.Context, id uint, from, to models.RunStatus, at time.Time) (bool, error) {
	args := m.Called(ctx, id, from, to, at)
	return args.Bool(0), args.Error(1)
}

func (m *MockHostedRepository) CreateParticipant(ctx context.Context, participant *models.HostedParticipant) error {
	args := m.Called(ctx, participant)
	return args.Error(0)
}

func (m *MockHostedRepository) GetParticipant(ctx context.Context, gameID uint, userID string) (*models.HostedParticipant, error) {
	args := m.Called(ctx, gameID, userID)
	if participant := args.Get(0); participant != nil {
		return participant.(*models.HostedParticipant), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockHostedRepository) GetParticipants(ctx context.Context, gameID uint) ([]*models.HostedParticipant, error) {
	args := m.Called(ctx, gameID)
	return args.Get(0).([]*models.HostedParticipant), args.Error(1)
}

func (m *MockHostedRepository) LinkSession(ctx context.Context, participantID, sessionID uint) error {
	args := m.Called(ctx, participantID, sessionID)
	return args.Error(0)
}

// ===== USER =====

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Upsert(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if user := args.Get(0); user != nil {
		return user.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

// ===== IMPORT REPORT =====

type MockImportReportRepository struct {
	mock.Mock
}

func (m *MockImportReportRepository) Create(ctx context.Context, report *models.ImportReport) error {
	args := m.Called(ctx, report)
	return args.Error(0)
}

func (m *MockImportReportRepository) GetByQuiz(ctx context.Context, quizID uint) ([]*models.ImportReport, error) {
	args := m.Called(ctx, quizID)
	return args.Get(0).([]*models.ImportReport), args.Error(1)
}
