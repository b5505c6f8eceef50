package services

import (
	"context"
	"testing"

	"github.com/quizforge/quiz-service/internal/models"
	"github.com/quizforge/quiz-service/internal/repositories"
	"github.com/quizforge/quiz-service/internal/utils"
	qvalidator "github.com/quizforge/quiz-service/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newQuizServiceForTest(repo *MockRepository) QuizService {
	return NewQuizService(repo, testLogger(), utils.NewValidator(), qvalidator.NewQuestionValidator())
}

func creatorUser() *models.User {
	return &models.User{ID: "creator-1", Role: models.RoleCreator}
}

func TestQuizService_Create(t *testing.T) {
	tests := []struct {
		name        string
		request     *CreateQuizRequest
		actor       *models.User
		setupMocks  func(*MockRepository)
		expectError bool
	}{
		{
			name: "creates quiz with normalized join code",
			request: &CreateQuizRequest{
				Title:        "Capitals",
				JoinCode:     stringPtr("abc123"),
				QuestionTime: 20,
			},
			actor: creatorUser(),
			setupMocks: func(repo *MockRepository) {
				repo.quiz.On("CodeExists", mock.Anything, "ABC123").Return(false, nil)
				repo.quiz.On("Create", mock.Anything, mock.MatchedBy(func(q *models.Quiz) bool {
					return q.Title == "Capitals" && *q.JoinCode == "ABC123" && q.IsActive
				})).Return(nil)
			},
		},
		{
			name: "rejects taken join code",
			request: &CreateQuizRequest{
				Title:        "Capitals",
				JoinCode:     stringPtr("ABC123"),
				QuestionTime: 20,
			},
			actor: creatorUser(),
			setupMocks: func(repo *MockRepository) {
				repo.quiz.On("CodeExists", mock.Anything, "ABC123").Return(true, nil)
			},
			expectError: true,
		},
		{
			name: "rejects player role",
			request: &CreateQuizRequest{
				Title:        "Capitals",
				QuestionTime: 20,
			},
			actor:      &models.User{ID: "player-1", Role: models.RolePlayer},
			setupMocks: func(repo *MockRepository) {},

			expectError: true,
		},
		{
			name: "rejects question time outside bounds",
			request: &CreateQuizRequest{
				Title:        "Capitals",
				QuestionTime: 2,
			},
			actor:       creatorUser(),
			setupMocks:  func(repo *MockRepository) {},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewMockRepository()
			tt.setupMocks(repo)
			service := newQuizServiceForTest(repo)

			quiz, err := service.Create(context.Background(), tt.request, tt.actor)

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, quiz)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.request.Title, quiz.Title)
			}
			repo.quiz.AssertExpectations(t)
		})
	}
}

func TestQuizService_GetByCode_InactiveQuizNotJoinable(t *testing.T) {
	repo := NewMockRepository()
	service := newQuizServiceForTest(repo)

	repo.quiz.On("GetByCode", mock.Anything, "ABC123").
		Return(&models.Quiz{ID: 1, IsActive: false}, nil)

	_, err := service.GetByCode(context.Background(), "ABC123")

	assert.ErrorIs(t, err, ErrQuizInactive)
}

func TestQuizService_GetByCode_UnknownCode(t *testing.T) {
	repo := NewMockRepository()
	service := newQuizServiceForTest(repo)

	repo.quiz.On("GetByCode", mock.Anything, "NOPE42").Return(nil, gorm.ErrRecordNotFound)

	_, err := service.GetByCode(context.Background(), "NOPE42")

	assert.ErrorIs(t, err, ErrQuizNotFound)
}

func TestQuizService_AddQuestion(t *testing.T) {
	validAnswers := []CreateAnswerRequest{
		{Text: "Paris", IsCorrect: true},
		{Text: "Lyon"},
		{Text: "Nice"},
		{Text: "Lille"},
	}

	tests := []struct {
		name        string
		request     *CreateQuestionRequest
		setupMocks  func(*MockRepository)
		expectError bool
	}{
		{
			name: "appends with next position when position omitted",
			request: &CreateQuestionRequest{
				Text:    "Capital of France?",
				Type:    models.QuestionSingle,
				Points:  1000,
				Answers: validAnswers,
			},
			setupMocks: func(repo *MockRepository) {
				repo.quiz.On("IsOwner", mock.Anything, uint(1), "creator-1").Return(true, nil)
				repo.question.On("MaxPosition", mock.Anything, uint(1)).Return(3, nil)
				repo.question.On("Create", mock.Anything, mock.MatchedBy(func(q *models.Question) bool {
					return q.Position == 4 && q.QuizID == 1
				})).Return(nil)
			},
		},
		{
			name: "rejects single-choice question with two correct answers",
			request: &CreateQuestionRequest{
				Text:   "Capital of France?",
				Type:   models.QuestionSingle,
				Points: 1000,
				Answers: []CreateAnswerRequest{
					{Text: "Paris", IsCorrect: true},
					{Text: "Lyon", IsCorrect: true},
					{Text: "Nice"},
					{Text: "Lille"},
				},
			},
			setupMocks: func(repo *MockRepository) {
				repo.quiz.On("IsOwner", mock.Anything, uint(1), "creator-1").Return(true, nil)
				repo.question.On("MaxPosition", mock.Anything, uint(1)).Return(0, nil)
			},
			expectError: true,
		},
		{
			name: "rejects binary question with four answers",
			request: &CreateQuestionRequest{
				Text:    "True or false?",
				Type:    models.QuestionBinary,
				Points:  500,
				Answers: validAnswers,
			},
			setupMocks: func(repo *MockRepository) {
				repo.quiz.On("IsOwner", mock.Anything, uint(1), "creator-1").Return(true, nil)
				repo.question.On("MaxPosition", mock.Anything, uint(1)).Return(0, nil)
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewMockRepository()
			tt.setupMocks(repo)
			service := newQuizServiceForTest(repo)

			question, err := service.AddQuestion(context.Background(), 1, tt.request, creatorUser())

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, question)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.request.Text, question.Text)
			}
		})
	}
}

func TestQuizService_AddQuestion_DuplicatePositionIsConflict(t *testing.T) {
	repo := NewMockRepository()
	service := newQuizServiceForTest(repo)

	repo.quiz.On("IsOwner", mock.Anything, uint(1), "creator-1").Return(true, nil)
	repo.question.On("Create", mock.Anything, mock.Anything).Return(gorm.ErrDuplicatedKey)

	_, err := service.AddQuestion(context.Background(), 1, &CreateQuestionRequest{
		Text:     "Capital of France?",
		Type:     models.QuestionSingle,
		Position: 2,
		Points:   1000,
		Answers: []CreateAnswerRequest{
			{Text: "Paris", IsCorrect: true},
			{Text: "Lyon"},
			{Text: "Nice"},
			{Text: "Lille"},
		},
	}, creatorUser())

	assert.True(t, IsConflict(err))
}

func TestQuizService_SetActive_OwnershipEnforced(t *testing.T) {
	repo := NewMockRepository()
	service := newQuizServiceForTest(repo)

	repo.quiz.On("IsOwner", mock.Anything, uint(1), "creator-1").Return(false, nil)

	err := service.SetActive(context.Background(), 1, false, creatorUser())

	assert.True(t, IsUnauthorized(err))
	repo.quiz.AssertNotCalled(t, "SetActive", mock.Anything, mock.Anything, mock.Anything)
}

func TestQuizService_SetActive_StaffBypassesOwnership(t *testing.T) {
	repo := NewMockRepository()
	service := newQuizServiceForTest(repo)

	repo.quiz.On("SetActive", mock.Anything, uint(1), false).Return(nil)

	err := service.SetActive(context.Background(), 1, false, &models.User{ID: "staff-1", Role: models.RoleStaff})

	require.NoError(t, err)
	repo.quiz.AssertNotCalled(t, "IsOwner", mock.Anything, mock.Anything, mock.Anything)
}

func TestQuizService_ReorderQuestions_RejectsDuplicatePositions(t *testing.T) {
	repo := NewMockRepository()
	service := newQuizServiceForTest(repo)

	repo.quiz.On("IsOwner", mock.Anything, uint(1), "creator-1").Return(true, nil)

	err := service.ReorderQuestions(context.Background(), 1, &ReorderQuestionsRequest{
		Orders: []repositories.QuestionOrder{
			{QuestionID: 1, Position: 1},
			{QuestionID: 2, Position: 1},
		},
	}, creatorUser())

	assert.True(t, IsValidation(err))
	repo.question.AssertNotCalled(t, "Reorder", mock.Anything, mock.Anything, mock.Anything)
}

func stringPtr(s string) *string {
	return &s
}
