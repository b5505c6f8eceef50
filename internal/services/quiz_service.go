package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/quizforge/quiz-service/internal/models"
	"github.com/quizforge/quiz-service/internal/repositories"
	"github.com/quizforge/quiz-service/internal/utils"
	qvalidator "github.com/quizforge/quiz-service/internal/validator"
)

type quizService struct {
	repo              repositories.Repository
	logger            *slog.Logger
	validator         *utils.Validator
	questionValidator *qvalidator.QuestionValidator
}

func NewQuizService(
	repo repositories.Repository,
	logger *slog.Logger,
	validator *utils.Validator,
	questionValidator *qvalidator.QuestionValidator,
) QuizService {
	return &quizService{
		repo:              repo,
		logger:            logger,
		validator:         validator,
		questionValidator: questionValidator,
	}
}

func (s *quizService) Create(ctx context.Context, req *CreateQuizRequest, creator *models.User) (*models.Quiz, error) {
	s.logger.Info("Creating quiz", "title", req.Title, "creator", creator.ID)

	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if !creator.Role.CanAuthor() {
		return nil, NewPermissionError(creator.ID, 0, "quiz", "create", "requires creator role")
	}

	var joinCode *string
	if req.JoinCode != nil {
		normalized := models.NormalizeCode(*req.JoinCode)
		taken, err := s.repo.Quiz().CodeExists(ctx, normalized)
		if err != nil {
			return nil, fmt.Errorf("failed to check join code: %w", err)
		}
		if taken {
			return nil, ErrQuizCodeTaken
		}
		joinCode = &normalized
	}

	accessType := req.AccessType
	if accessType == "" {
		accessType = models.AccessOpen
	}

	quiz := &models.Quiz{
		Title:        req.Title,
		Description:  req.Description,
		JoinCode:     joinCode,
		AccessType:   accessType,
		QuestionTime: req.QuestionTime,
		IsActive:     true,
		CreatedBy:    creator.ID,
	}
	if err := s.repo.Quiz().Create(ctx, quiz); err != nil {
		if repositories.IsDuplicateKeyError(err) {
			return nil, ErrQuizCodeTaken
		}
		return nil, fmt.Errorf("failed to create quiz: %w", err)
	}

	s.logger.Info("Quiz created", "quiz_id", quiz.ID, "creator", creator.ID)
	return quiz, nil
}

func (s *quizService) GetByID(ctx context.Context, id uint) (*models.Quiz, error) {
	quiz, err := s.repo.Quiz().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	return quiz, nil
}

func (s *quizService) GetByIDWithQuestions(ctx context.Context, id uint) (*models.Quiz, error) {
	quiz, err := s.repo.Quiz().GetByIDWithQuestions(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz with questions: %w", err)
	}
	return quiz, nil
}

// GetByCode resolves a join code case-insensitively. Only active quizzes
// can be joined by code.
func (s *quizService) GetByCode(ctx context.Context, code string) (*models.Quiz, error) {
	quiz, err := s.repo.Quiz().GetByCode(ctx, code)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz by code: %w", err)
	}
	if !quiz.IsActive {
		return nil, ErrQuizInactive
	}
	return quiz, nil
}

func (s *quizService) ListActive(ctx context.Context, filters repositories.QuizFilters) ([]*models.Quiz, int64, error) {
	active := true
	filters.IsActive = &active

	quizzes, total, err := s.repo.Quiz().List(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list quizzes: %w", err)
	}
	return quizzes, total, nil
}

// SetActive toggles activation, the only mutation a quiz supports after
// creation.
func (s *quizService) SetActive(ctx context.Context, quizID uint, active bool, actor *models.User) error {
	if err := s.requireOwnership(ctx, quizID, actor, "activate"); err != nil {
		return err
	}

	if err := s.repo.Quiz().SetActive(ctx, quizID, active); err != nil {
		return fmt.Errorf("failed to update quiz activation: %w", err)
	}

	s.logger.Info("Quiz activation changed", "quiz_id", quizID, "is_active", active, "actor", actor.ID)
	return nil
}

func (s *quizService) Delete(ctx context.Context, quizID uint, actor *models.User) error {
	if err := s.requireOwnership(ctx, quizID, actor, "delete"); err != nil {
		return err
	}

	// Sessions and player answers survive quiz deletion; they belong to
	// the play-history aggregate.
	if err := s.repo.Quiz().Delete(ctx, quizID); err != nil {
		return fmt.Errorf("failed to delete quiz: %w", err)
	}

	s.logger.Info("Quiz deleted", "quiz_id", quizID, "actor", actor.ID)
	return nil
}

// AddQuestion validates the answer-shape invariant at authoring time so
// play-time code never sees a malformed question.
func (s *quizService) AddQuestion(ctx context.Context, quizID uint, req *CreateQuestionRequest, actor *models.User) (*models.Question, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if err := s.requireOwnership(ctx, quizID, actor, "add_question"); err != nil {
		return nil, err
	}

	position := req.Position
	if position == 0 {
		max, err := s.repo.Question().MaxPosition(ctx, quizID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve question position: %w", err)
		}
		position = max + 1
	}

	answers := make([]models.Answer, len(req.Answers))
	for i, a := range req.Answers {
		answers[i] = models.Answer{Text: a.Text, ImageURL: a.ImageURL, IsCorrect: a.IsCorrect}
	}

	question := &models.Question{
		QuizID:   quizID,
		Text:     req.Text,
		Type:     req.Type,
		ImageURL: req.ImageURL,
		Position: position,
		Points:   req.Points,
		Answers:  answers,
	}

	if err := s.questionValidator.ValidateQuestion(question); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidationFailed, err.Error())
	}

	if err := s.repo.Question().Create(ctx, question); err != nil {
		if repositories.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%w: position %d already used in quiz", ErrConflict, position)
		}
		return nil, fmt.Errorf("failed to create question: %w", err)
	}

	s.logger.Info("Question added", "quiz_id", quizID, "question_id", question.ID, "position", position)
	return question, nil
}

func (s *quizService) ReorderQuestions(ctx context.Context, quizID uint, req *ReorderQuestionsRequest, actor *models.User) error {
	if err := s.validator.Validate(req); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if err := s.requireOwnership(ctx, quizID, actor, "reorder_questions"); err != nil {
		return err
	}

	seen := make(map[int]bool, len(req.Orders))
	for _, order := range req.Orders {
		if order.Position < 1 {
			return NewValidationError("orders", "positions must be positive", order.Position)
		}
		if seen[order.Position] {
			return NewValidationError("orders", "duplicate position", order.Position)
		}
		seen[order.Position] = true
	}

	if err := s.repo.Question().Reorder(ctx, quizID, req.Orders); err != nil {
		return fmt.Errorf("failed to reorder questions: %w", err)
	}
	return nil
}

func (s *quizService) requireOwnership(ctx context.Context, quizID uint, actor *models.User, action string) error {
	if actor.Role == models.RoleStaff {
		return nil
	}

	isOwner, err := s.repo.Quiz().IsOwner(ctx, quizID, actor.ID)
	if err != nil {
		return fmt.Errorf("failed to check quiz ownership: %w", err)
	}
	if !isOwner {
		return NewPermissionError(actor.ID, quizID, "quiz", action, "not the quiz creator")
	}
	return nil
}
