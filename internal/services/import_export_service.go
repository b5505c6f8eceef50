package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/quizforge/quiz-service/internal/models"
	"github.com/quizforge/quiz-service/internal/repositories"
	qvalidator "github.com/quizforge/quiz-service/internal/validator"
	"github.com/xuri/excelize/v2"
	"gorm.io/datatypes"
)

// Column layout shared by import and export. Correct answers are letters
// (A-D), comma separated for multiple-type questions.
var questionSheetHeaders = []string{
	"Question Text", "Question Type", "Points",
	"Option A", "Option B", "Option C", "Option D",
	"Correct Answer", "Image URL",
}

const questionSheetName = "Questions"

type importExportService struct {
	repo              repositories.Repository
	logger            *slog.Logger
	questionValidator *qvalidator.QuestionValidator
}

func NewImportExportService(repo repositories.Repository, logger *slog.Logger, questionValidator *qvalidator.QuestionValidator) ImportExportService {
	return &importExportService{
		repo:              repo,
		logger:            logger,
		questionValidator: questionValidator,
	}
}

// ===== EXPORT =====

func (s *importExportService) ExportQuestions(ctx context.Context, quizID uint, actor *models.User) ([]byte, error) {
	quiz, err := s.requireQuizOwnership(ctx, quizID, actor, "export")
	if err != nil {
		return nil, err
	}

	questions, err := s.repo.Question().GetByQuiz(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("failed to get questions: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(questionSheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	for i, header := range questionSheetHeaders {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(questionSheetName, cell, header)
	}

	for rowIndex, question := range questions {
		row := questionToRow(question)
		for colIndex, value := range row {
			cell := fmt.Sprintf("%c%d", 'A'+colIndex, rowIndex+2)
			f.SetCellValue(questionSheetName, cell, value)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	s.logger.Info("Questions exported", "quiz_id", quiz.ID, "count", len(questions))
	return buf.Bytes(), nil
}

// ===== IMPORT =====

// ImportQuestions parses an xlsx workbook and appends its questions to the
// quiz. The import is all-or-nothing: any invalid row fails the whole batch
// and no questions are created. The outcome is persisted as an ImportReport
// either way.
func (s *importExportService) ImportQuestions(ctx context.Context, quizID uint, fileName string, data []byte, actor *models.User) (*models.ImportSummary, error) {
	started := time.Now()

	quiz, err := s.requireQuizOwnership(ctx, quizID, actor, "import")
	if err != nil {
		return nil, err
	}

	s.logger.Info("Starting question import", "quiz_id", quiz.ID, "file", fileName, "actor", actor.ID)

	questions, rowErrors, totalRows, err := s.parseWorkbook(data)
	if err != nil {
		return nil, err
	}

	if len(rowErrors) == 0 {
		basePosition, err := s.repo.Question().MaxPosition(ctx, quizID)
		if err != nil {
			return nil, fmt.Errorf("failed to get max position: %w", err)
		}
		for i, question := range questions {
			question.QuizID = quizID
			question.Position = basePosition + i + 1
		}

		if err := s.questionValidator.ValidateBatch(questions); err != nil {
			rowErrors = append(rowErrors, models.ImportRowError{
				Row: 0, Field: "batch", Message: err.Error(),
			})
		}
	}

	summary := &models.ImportSummary{
		TotalRows:  totalRows,
		ErrorCount: len(rowErrors),
	}

	if len(rowErrors) > 0 {
		summary.ProcessingTime = time.Since(started)
		s.saveReport(ctx, quizID, fileName, actor.ID, models.ImportFailed, rowErrors, summary)
		s.logger.Warn("Question import rejected",
			"quiz_id", quizID,
			"file", fileName,
			"error_count", len(rowErrors))
		return summary, NewValidationError("file", fmt.Sprintf("import failed with %d error(s)", len(rowErrors)), fileName)
	}

	if err := s.saveImportedQuestions(ctx, questions); err != nil {
		return nil, err
	}

	for _, question := range questions {
		summary.CreatedQuestions = append(summary.CreatedQuestions, question.ID)
	}
	summary.ProcessingTime = time.Since(started)

	s.saveReport(ctx, quizID, fileName, actor.ID, models.ImportCompleted, nil, summary)

	s.logger.Info("Question import completed",
		"quiz_id", quizID,
		"file", fileName,
		"created", len(summary.CreatedQuestions))
	return summary, nil
}

// ImportHistory returns the quiz's stored import reports, newest first.
func (s *importExportService) ImportHistory(ctx context.Context, quizID uint, actor *models.User) ([]*models.ImportReport, error) {
	if _, err := s.requireQuizOwnership(ctx, quizID, actor, "import_history"); err != nil {
		return nil, err
	}

	reports, err := s.repo.ImportReport().GetByQuiz(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("failed to get import reports: %w", err)
	}
	return reports, nil
}

// ===== HELPERS =====

func (s *importExportService) requireQuizOwnership(ctx context.Context, quizID uint, actor *models.User, action string) (*models.Quiz, error) {
	quiz, err := s.repo.Quiz().GetByID(ctx, quizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}

	if quiz.CreatedBy != actor.ID && actor.Role != models.RoleStaff {
		return nil, NewPermissionError(actor.ID, quizID, "quiz", action, "not quiz owner")
	}
	return quiz, nil
}

func (s *importExportService) parseWorkbook(data []byte) ([]*models.Question, []models.ImportRowError, int, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, nil, 0, NewValidationError("file", "not a valid xlsx workbook", err.Error())
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, 0, NewValidationError("file", "workbook has no sheets", nil)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, 0, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) < 2 {
		return nil, nil, 0, NewValidationError("file", "workbook must have a header row and at least one data row", len(rows))
	}

	headerMap := make(map[string]int)
	for i, header := range rows[0] {
		headerMap[strings.ToLower(strings.TrimSpace(header))] = i
	}
	for _, required := range []string{"question text", "question type", "correct answer"} {
		if _, ok := headerMap[required]; !ok {
			return nil, nil, 0, NewValidationError("headers", fmt.Sprintf("missing required column: %s", required), required)
		}
	}

	var questions []*models.Question
	var rowErrors []models.ImportRowError

	for rowIndex, row := range rows[1:] {
		question, errs := parseQuestionRow(row, headerMap, rowIndex+2)
		if len(errs) > 0 {
			rowErrors = append(rowErrors, errs...)
			continue
		}
		questions = append(questions, question)
	}

	return questions, rowErrors, len(rows) - 1, nil
}

func parseQuestionRow(row []string, headerMap map[string]int, rowNum int) (*models.Question, []models.ImportRowError) {
	var errs []models.ImportRowError

	getColumn := func(name string) string {
		if index, ok := headerMap[name]; ok && index < len(row) {
			return strings.TrimSpace(row[index])
		}
		return ""
	}

	text := getColumn("question text")
	if text == "" {
		errs = append(errs, models.ImportRowError{Row: rowNum, Field: "question text", Message: "required field"})
	}

	questionType := models.QuestionType(strings.ToLower(getColumn("question type")))
	if _, ok := models.ShapeFor(questionType); !ok {
		errs = append(errs, models.ImportRowError{
			Row: rowNum, Field: "question type",
			Message: fmt.Sprintf("unsupported question type: %s", questionType),
		})
		return nil, errs
	}

	points := 100
	if pointsStr := getColumn("points"); pointsStr != "" {
		p, err := strconv.Atoi(pointsStr)
		if err != nil || p < 1 {
			errs = append(errs, models.ImportRowError{
				Row: rowNum, Field: "points", Message: "must be a positive integer",
			})
		} else {
			points = p
		}
	}

	var options []string
	for _, col := range []string{"option a", "option b", "option c", "option d"} {
		if option := getColumn(col); option != "" {
			options = append(options, option)
		}
	}

	correctIndices := make(map[int]bool)
	correctStr := strings.ToUpper(getColumn("correct answer"))
	for _, part := range strings.Split(correctStr, ",") {
		part = strings.TrimSpace(part)
		if len(part) != 1 || part[0] < 'A' || part[0] > 'D' {
			errs = append(errs, models.ImportRowError{
				Row: rowNum, Field: "correct answer",
				Message: fmt.Sprintf("expected letters A-D, got %q", part),
			})
			continue
		}
		index := int(part[0] - 'A')
		if index >= len(options) {
			errs = append(errs, models.ImportRowError{
				Row: rowNum, Field: "correct answer",
				Message: fmt.Sprintf("letter %s has no matching option", part),
			})
			continue
		}
		correctIndices[index] = true
	}

	if len(errs) > 0 {
		return nil, errs
	}

	answers := make([]models.Answer, len(options))
	for i, option := range options {
		answers[i] = models.Answer{
			Text:      option,
			IsCorrect: correctIndices[i],
		}
	}

	question := &models.Question{
		Text:    text,
		Type:    questionType,
		Points:  points,
		Answers: answers,
	}
	if imageURL := getColumn("image url"); imageURL != "" {
		question.ImageURL = &imageURL
	}
	return question, nil
}

func (s *importExportService) saveImportedQuestions(ctx context.Context, questions []*models.Question) (err error) {
	txRepo, err := s.repo.(repositories.TransactionRepository).Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			txRepo.(repositories.TransactionRepository).Rollback(ctx)
		}
	}()

	for _, question := range questions {
		if err = txRepo.Question().Create(ctx, question); err != nil {
			return fmt.Errorf("failed to create question: %w", err)
		}
	}

	if err = txRepo.(repositories.TransactionRepository).Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// saveReport persists the import outcome; a storage failure here is logged
// but does not fail the import itself.
func (s *importExportService) saveReport(ctx context.Context, quizID uint, fileName, actorID string, status models.ImportStatus, rowErrors []models.ImportRowError, summary *models.ImportSummary) {
	report := &models.ImportReport{
		QuizID:    quizID,
		CreatedBy: actorID,
		FileName:  fileName,
		Status:    status,
	}

	if errBytes, err := json.Marshal(rowErrors); err == nil {
		report.Errors = datatypes.JSON(errBytes)
	}
	if summaryBytes, err := json.Marshal(summary); err == nil {
		report.Summary = datatypes.JSON(summaryBytes)
	}

	if err := s.repo.ImportReport().Create(ctx, report); err != nil {
		s.logger.Error("Failed to save import report", "quiz_id", quizID, "file", fileName, "error", err)
	}
}

func questionToRow(question *models.Question) []interface{} {
	row := make([]interface{}, len(questionSheetHeaders))
	row[0] = question.Text
	row[1] = string(question.Type)
	row[2] = question.Points

	var correctLetters []string
	for i, answer := range question.Answers {
		if i < 4 {
			row[3+i] = answer.Text
		}
		if answer.IsCorrect && i < 4 {
			correctLetters = append(correctLetters, string(rune('A'+i)))
		}
	}
	row[7] = strings.Join(correctLetters, ",")

	if question.ImageURL != nil {
		row[8] = *question.ImageURL
	}
	return row
}
