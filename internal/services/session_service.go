package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/quizforge/quiz-service/internal/models"
	"github.com/quizforge/quiz-service/internal/repositories"
	"github.com/quizforge/quiz-service/internal/utils"
)

type sessionService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *utils.Validator
	boards    LeaderboardService
}

func NewSessionService(repo repositories.Repository, logger *slog.Logger, validator *utils.Validator, boards LeaderboardService) SessionService {
	return &sessionService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		boards:    boards,
	}
}

// ===== SESSION LIFECYCLE =====

// Start creates a new active session for the player on the quiz. Join-code
// validation is the caller's job; this only enforces that the quiz is active.
func (s *sessionService) Start(ctx context.Context, quizID uint, userID string) (*SessionResponse, error) {
	s.logger.Info("Starting quiz session", "quiz_id", quizID, "user_id", userID)

	quiz, err := s.repo.Quiz().GetByID(ctx, quizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}

	if !quiz.IsActive {
		return nil, ErrQuizInactive
	}

	session := &models.QuizSession{
		UserID:    userID,
		QuizID:    quizID,
		Status:    models.SessionActive,
		StartedAt: time.Now().UTC(),
	}
	if err := s.repo.Session().Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.logger.Info("Quiz session started", "session_id", session.ID, "quiz_id", quizID, "user_id", userID)
	return sessionResponse(session), nil
}

// CurrentQuestion returns the question whose position follows the count of
// questions already answered in this session, or the completion outcome when
// none remain. Completion triggers at most once; repeat calls on a completed
// session return the same outcome without re-aggregating.
func (s *sessionService) CurrentQuestion(ctx context.Context, sessionID uint, userID string) (*CurrentQuestionResponse, error) {
	session, err := s.getOwnedSession(ctx, sessionID, userID, "read")
	if err != nil {
		return nil, err
	}

	questions, err := s.repo.Question().GetByQuiz(ctx, session.QuizID)
	if err != nil {
		return nil, fmt.Errorf("failed to load questions: %w", err)
	}

	if session.IsCompleted() {
		return completionResponse(session, len(questions)), nil
	}

	answered, err := s.repo.PlayerAnswer().CountAnsweredSince(ctx, userID, session.QuizID, session.StartedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to count answered questions: %w", err)
	}

	if int(answered) >= len(questions) {
		completed, err := s.complete(ctx, session)
		if err != nil {
			return nil, err
		}
		return completionResponse(completed, len(questions)), nil
	}

	// Questions are position-ascending; the next one is the next element,
	// so gaps in position values never skip a question.
	next := questions[answered]
	return &CurrentQuestionResponse{
		Question:       playQuestion(next),
		QuestionNumber: int(answered) + 1,
		TotalQuestions: len(questions),
		TotalScore:     session.TotalScore,
	}, nil
}

// SubmitAnswer scores and records one submission, updating the session's
// running total. Duplicate submissions for an already-answered question are
// rejected, never double-scored.
func (s *sessionService) SubmitAnswer(ctx context.Context, sessionID uint, req *SubmitAnswerRequest, userID string) (*SubmitAnswerResponse, error) {
	if len(req.AnswerIDs) == 0 {
		return nil, ErrNoAnswerSelected
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	session, err := s.getOwnedSession(ctx, sessionID, userID, "submit_answer")
	if err != nil {
		return nil, err
	}

	if session.IsCompleted() {
		return nil, ErrSessionAlreadyCompleted
	}

	question, err := s.repo.Question().GetByIDWithAnswers(ctx, req.QuestionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	if question.QuizID != session.QuizID {
		return nil, ErrQuestionNotInQuiz
	}

	for _, answerID := range req.AnswerIDs {
		if !question.HasAnswer(answerID) {
			return nil, ErrAnswerNotInQuestion
		}
	}

	// Single-selection types take exactly one answer; without this the
	// recorded rows could sum to more than the submission's score.
	if question.Type != models.QuestionMultiple && len(req.AnswerIDs) != 1 {
		return nil, NewValidationError("answer_ids", "must select exactly one answer", len(req.AnswerIDs))
	}

	// Duplicate guard, bounded to this session's window. The unique key on
	// (session, question, answer) backs this up under concurrent submissions.
	windowStart, _ := session.Window()
	exists, err := s.repo.PlayerAnswer().ExistsSince(ctx, userID, question.ID, windowStart)
	if err != nil {
		return nil, fmt.Errorf("failed to check for duplicate submission: %w", err)
	}
	if exists {
		return nil, ErrDuplicateSubmission
	}

	responseTime := req.ResponseTime
	if responseTime < 0 {
		responseTime = 0
	}

	quiz, err := s.repo.Quiz().GetByID(ctx, session.QuizID)
	if err != nil {
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}

	points := ScoreSubmission(question, req.AnswerIDs, responseTime, quiz.QuestionTime)

	now := time.Now().UTC()
	rows := make([]*models.PlayerAnswer, 0, len(req.AnswerIDs))
	for _, answerID := range req.AnswerIDs {
		rows = append(rows, &models.PlayerAnswer{
			SessionID:    session.ID,
			UserID:       userID,
			QuestionID:   question.ID,
			AnswerID:     answerID,
			ResponseTime: responseTime,
			PointsEarned: perAnswerPoints(question, answerID, responseTime, quiz.QuestionTime),
			AnsweredAt:   now,
		})
	}

	txRepo, err := s.repo.(repositories.TransactionRepository).Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			txRepo.(repositories.TransactionRepository).Rollback(ctx)
		}
	}()

	if err = txRepo.PlayerAnswer().CreateBatch(ctx, rows); err != nil {
		if repositories.IsDuplicateKeyError(err) {
			err = ErrDuplicateSubmission
			return nil, err
		}
		return nil, fmt.Errorf("failed to record answer: %w", err)
	}

	if err = txRepo.Session().AddScore(ctx, session.ID, points); err != nil {
		return nil, fmt.Errorf("failed to update session score: %w", err)
	}

	if err = txRepo.(repositories.TransactionRepository).Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Info("Answer submitted",
		"session_id", session.ID,
		"question_id", question.ID,
		"points_earned", points,
		"response_time", responseTime)

	nextPosition, err := s.nextPosition(ctx, session, userID)
	if err != nil {
		return nil, err
	}

	return &SubmitAnswerResponse{
		PointsEarned: points,
		NextPosition: nextPosition,
		TotalScore:   session.TotalScore + points,
	}, nil
}

// Complete transitions the session to its terminal state, recomputing
// total_score authoritatively from the player's answers within the session
// window. Idempotent: repeat calls return the stored outcome unchanged.
func (s *sessionService) Complete(ctx context.Context, sessionID uint, userID string) (*SessionResponse, error) {
	session, err := s.getOwnedSession(ctx, sessionID, userID, "complete")
	if err != nil {
		return nil, err
	}

	if session.IsCompleted() {
		return sessionResponse(session), nil
	}

	completed, err := s.complete(ctx, session)
	if err != nil {
		return nil, err
	}
	return sessionResponse(completed), nil
}

// ===== HELPERS =====

func (s *sessionService) getOwnedSession(ctx context.Context, sessionID uint, userID, action string) (*models.QuizSession, error) {
	session, err := s.repo.Session().GetByID(ctx, sessionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session.UserID != userID {
		return nil, NewPermissionError(userID, sessionID, "session", action, "not owned by player")
	}
	return session, nil
}

// complete performs the single legal transition. The time window bounds the
// aggregation so that concurrent sessions by the same player on the same
// quiz cannot leak answers into each other's totals.
func (s *sessionService) complete(ctx context.Context, session *models.QuizSession) (*models.QuizSession, error) {
	completedAt := time.Now().UTC()

	windowStart, _ := session.Window()
	total, err := s.repo.PlayerAnswer().SumPointsInWindow(ctx, session.UserID, session.QuizID, windowStart, &completedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate session score: %w", err)
	}

	won, err := s.repo.Session().Complete(ctx, session.ID, completedAt, int(total))
	if err != nil {
		return nil, fmt.Errorf("failed to complete session: %w", err)
	}
	if !won {
		// Lost the race to a concurrent completion; the stored outcome is
		// authoritative.
		return s.repo.Session().GetByID(ctx, session.ID)
	}

	// Cached boards are stale the moment a completion lands; drop them on
	// the winning transition only.
	s.boards.InvalidateQuiz(ctx, session.QuizID)

	s.logger.Info("Quiz session completed",
		"session_id", session.ID,
		"quiz_id", session.QuizID,
		"user_id", session.UserID,
		"total_score", total)

	session.Status = models.SessionCompleted
	session.CompletedAt = &completedAt
	session.TotalScore = int(total)
	return session, nil
}

func (s *sessionService) nextPosition(ctx context.Context, session *models.QuizSession, userID string) (*int, error) {
	questions, err := s.repo.Question().GetByQuiz(ctx, session.QuizID)
	if err != nil {
		return nil, fmt.Errorf("failed to load questions: %w", err)
	}
	answered, err := s.repo.PlayerAnswer().CountAnsweredSince(ctx, userID, session.QuizID, session.StartedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to count answered questions: %w", err)
	}
	if int(answered) >= len(questions) {
		return nil, nil
	}
	position := questions[answered].Position
	return &position, nil
}

// perAnswerPoints splits a submission's score across its recorded rows so
// that the sum of rows equals the submission total.
func perAnswerPoints(question *models.Question, answerID uint, responseTime float64, timeLimit int) int {
	return ScoreSubmission(question, []uint{answerID}, responseTime, timeLimit)
}

func playQuestion(q *models.Question) *PlayQuestion {
	answers := make([]PlayAnswer, len(q.Answers))
	for i, a := range q.Answers {
		answers[i] = PlayAnswer{ID: a.ID, Text: a.Text, ImageURL: a.ImageURL}
	}
	return &PlayQuestion{
		ID:       q.ID,
		Text:     q.Text,
		Type:     q.Type,
		ImageURL: q.ImageURL,
		Position: q.Position,
		Points:   q.Points,
		Answers:  answers,
	}
}

func completionResponse(session *models.QuizSession, totalQuestions int) *CurrentQuestionResponse {
	return &CurrentQuestionResponse{
		Completed:      true,
		TotalQuestions: totalQuestions,
		TotalScore:     session.TotalScore,
		CompletedAt:    session.CompletedAt,
	}
}

func sessionResponse(session *models.QuizSession) *SessionResponse {
	return &SessionResponse{
		ID:          session.ID,
		QuizID:      session.QuizID,
		UserID:      session.UserID,
		Status:      session.Status,
		StartedAt:   session.StartedAt,
		CompletedAt: session.CompletedAt,
		TotalScore:  session.TotalScore,
	}
}
