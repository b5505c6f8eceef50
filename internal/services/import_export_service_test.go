package services

import (
	"bytes"
	"context"
	"testing"

	"github.com/quizforge/quiz-service/internal/models"
	qvalidator "github.com/quizforge/quiz-service/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func newImportExportServiceForTest(repo *MockRepository) ImportExportService {
	return NewImportExportService(repo, testLogger(), qvalidator.NewQuestionValidator())
}

func buildWorkbook(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	headers := []string{"Question Text", "Question Type", "Points", "Option A", "Option B", "Option C", "Option D", "Correct Answer"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		require.NoError(t, f.SetCellValue(sheet, cell, header))
	}
	for r, row := range rows {
		for c, value := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			require.NoError(t, f.SetCellValue(sheet, cell, value))
		}
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestImportExportService_ImportQuestions(t *testing.T) {
	repo := NewMockRepository()
	service := newImportExportServiceForTest(repo)

	data := buildWorkbook(t, [][]interface{}{
		{"Capital of France?", "single", 1000, "Paris", "Lyon", "Nice", "Lille", "A"},
		{"Select the primes", "multiple", 500, "2", "3", "4", "6", "A,B"},
		{"The sky is blue", "binary", 200, "True", "False", "", "", "A"},
	})

	repo.quiz.On("GetByID", mock.Anything, uint(1)).
		Return(&models.Quiz{ID: 1, CreatedBy: "creator-1", IsActive: true}, nil)
	repo.question.On("MaxPosition", mock.Anything, uint(1)).Return(2, nil)
	repo.question.On("Create", mock.Anything, mock.AnythingOfType("*models.Question")).Return(nil).Times(3)
	repo.importReport.On("Create", mock.Anything, mock.MatchedBy(func(r *models.ImportReport) bool {
		return r.Status == models.ImportCompleted && r.QuizID == 1
	})).Return(nil)

	summary, err := service.ImportQuestions(context.Background(), 1, "questions.xlsx",
		data, &models.User{ID: "creator-1", Role: models.RoleCreator})

	require.NoError(t, err)
	assert.Equal(t, 3, summary.TotalRows)
	assert.Zero(t, summary.ErrorCount)
	repo.question.AssertExpectations(t)
	repo.importReport.AssertExpectations(t)
}

func TestImportExportService_ImportQuestions_AllOrNothing(t *testing.T) {
	repo := NewMockRepository()
	service := newImportExportServiceForTest(repo)

	// The second row names a correct answer with no matching option.
	data := buildWorkbook(t, [][]interface{}{
		{"Capital of France?", "single", 1000, "Paris", "Lyon", "Nice", "Lille", "A"},
		{"The sky is blue", "binary", 200, "True", "False", "", "", "C"},
	})

	repo.quiz.On("GetByID", mock.Anything, uint(1)).
		Return(&models.Quiz{ID: 1, CreatedBy: "creator-1", IsActive: true}, nil)
	repo.importReport.On("Create", mock.Anything, mock.MatchedBy(func(r *models.ImportReport) bool {
		return r.Status == models.ImportFailed
	})).Return(nil)

	summary, err := service.ImportQuestions(context.Background(), 1, "questions.xlsx",
		data, &models.User{ID: "creator-1", Role: models.RoleCreator})

	assert.True(t, IsValidation(err))
	require.NotNil(t, summary)
	assert.Equal(t, 1, summary.ErrorCount)
	// The valid first row must not be created either.
	repo.question.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	repo.importReport.AssertExpectations(t)
}

func TestImportExportService_ImportQuestions_OwnerOnly(t *testing.T) {
	repo := NewMockRepository()
	service := newImportExportServiceForTest(repo)

	repo.quiz.On("GetByID", mock.Anything, uint(1)).
		Return(&models.Quiz{ID: 1, CreatedBy: "creator-1"}, nil)

	_, err := service.ImportQuestions(context.Background(), 1, "questions.xlsx",
		[]byte("irrelevant"), &models.User{ID: "someone-else", Role: models.RoleCreator})

	assert.True(t, IsUnauthorized(err))
}

func TestImportExportService_ImportHistory(t *testing.T) {
	repo := NewMockRepository()
	service := newImportExportServiceForTest(repo)

	reports := []*models.ImportReport{
		{ID: 2, QuizID: 1, Status: models.ImportCompleted},
		{ID: 1, QuizID: 1, Status: models.ImportFailed},
	}

	repo.quiz.On("GetByID", mock.Anything, uint(1)).
		Return(&models.Quiz{ID: 1, CreatedBy: "creator-1"}, nil)
	repo.importReport.On("GetByQuiz", mock.Anything, uint(1)).Return(reports, nil)

	got, err := service.ImportHistory(context.Background(), 1,
		&models.User{ID: "creator-1", Role: models.RoleCreator})

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, models.ImportCompleted, got[0].Status)
}

func TestImportExportService_ImportHistory_OwnerOnly(t *testing.T) {
	repo := NewMockRepository()
	service := newImportExportServiceForTest(repo)

	repo.quiz.On("GetByID", mock.Anything, uint(1)).
		Return(&models.Quiz{ID: 1, CreatedBy: "creator-1"}, nil)

	_, err := service.ImportHistory(context.Background(), 1,
		&models.User{ID: "someone-else", Role: models.RoleCreator})

	assert.True(t, IsUnauthorized(err))
	repo.importReport.AssertNotCalled(t, "GetByQuiz", mock.Anything, mock.Anything)
}

func TestImportExportService_ExportQuestions_RoundTrips(t *testing.T) {
	repo := NewMockRepository()
	service := newImportExportServiceForTest(repo)

	questions := []*models.Question{
		{
			ID: 1, QuizID: 1, Text: "Capital of France?", Type: models.QuestionSingle,
			Position: 1, Points: 1000,
			Answers: []models.Answer{
				{ID: 11, Text: "Paris", IsCorrect: true},
				{ID: 12, Text: "Lyon"},
				{ID: 13, Text: "Nice"},
				{ID: 14, Text: "Lille"},
			},
		},
	}

	repo.quiz.On("GetByID", mock.Anything, uint(1)).
		Return(&models.Quiz{ID: 1, CreatedBy: "creator-1"}, nil)
	repo.question.On("GetByQuiz", mock.Anything, uint(1)).Return(questions, nil)

	data, err := service.ExportQuestions(context.Background(), 1, &models.User{ID: "creator-1", Role: models.RoleCreator})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Questions")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Capital of France?", rows[1][0])
	assert.Equal(t, "single", rows[1][1])
	assert.Equal(t, "A", rows[1][7])
}
