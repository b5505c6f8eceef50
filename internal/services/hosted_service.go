package services

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/quizforge/quiz-service/internal/events"
	"github.com/quizforge/quiz-service/internal/models"
	"github.com/quizforge/quiz-service/internal/repositories"
)

const (
	runCodeLength  = 8
	runCodeCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	// codeRetryBudget bounds collision retries during run-code generation.
	codeRetryBudget = 10
)

type hostedRunService struct {
	repo      repositories.Repository
	sessions  SessionService
	logger    *slog.Logger
	publisher events.EventPublisher
}

func NewHostedRunService(
	repo repositories.Repository,
	sessions SessionService,
	logger *slog.Logger,
	publisher events.EventPublisher,
) HostedRunService {
	return &hostedRunService{
		repo:      repo,
		sessions:  sessions,
		logger:    logger,
		publisher: publisher,
	}
}

// CreateRun opens a hosted run with a freshly generated unique run code.
// Codes are checked against both existing run codes and quiz join codes;
// when the retry budget runs out the call fails rather than reusing a
// fallback value.
func (s *hostedRunService) CreateRun(ctx context.Context, quizID uint, host *models.User) (*models.HostedGame, error) {
	s.logger.Info("Creating hosted run", "quiz_id", quizID, "host", host.ID)

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
	if !host.Role.CanAuthor() {
		return nil, NewPermissionError(host.ID, quizID, "run", "create", "requires creator role")
	}

	runCode, err := s.generateRunCode(ctx)
	if err != nil {
		return nil, err
	}

	game := &models.HostedGame{
		QuizID:  quizID,
		HostID:  host.ID,
		RunCode: runCode,
		Status:  models.RunOpen,
	}
	if err := s.repo.Hosted().CreateGame(ctx, game); err != nil {
		return nil, fmt.Errorf("failed to create hosted run: %w", err)
	}

	s.logger.Info("Hosted run created", "run_id", game.ID, "run_code", runCode, "quiz_id", quizID)
	return game, nil
}

// JoinRun is idempotent: re-joining an already-joined (game, user) pair
// returns the existing participant.
func (s *hostedRunService) JoinRun(ctx context.Context, runCode string, userID string) (*models.HostedParticipant, error) {
	game, err := s.repo.Hosted().GetGameByCode(ctx, runCode)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrRunNotFound
		}
		return nil, fmt.Errorf("failed to get hosted run: %w", err)
	}

	// Idempotency first: an already-joined pair resolves to the existing
	// participant even after the run started.
	existing, err := s.repo.Hosted().GetParticipant(ctx, game.ID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check participant: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	switch game.Status {
	case models.RunStarted:
		return nil, ErrRunAlreadyStarted
	case models.RunClosed:
		return nil, ErrRunAlreadyClosed
	}

	participant := &models.HostedParticipant{
		HostedGameID: game.ID,
		UserID:       userID,
		JoinedAt:     time.Now().UTC(),
	}
	if err := s.repo.Hosted().CreateParticipant(ctx, participant); err != nil {
		if repositories.IsDuplicateKeyError(err) {
			// Concurrent join of the same pair; the stored row wins.
			return s.repo.Hosted().GetParticipant(ctx, game.ID, userID)
		}
		return nil, fmt.Errorf("failed to create participant: %w", err)
	}

	s.logger.Info("Participant joined run", "run_id", game.ID, "user_id", userID)
	return participant, nil
}

// StartRun flips the run to started and creates one session per participant
// who does not yet have one. Session creation is transactional per
// participant: a failure leaves other participants' sessions intact and a
// participant is never started without a session.
func (s *hostedRunService) StartRun(ctx context.Context, runID uint, actorID string) error {
	game, err := s.getRun(ctx, runID)
	if err != nil {
		return err
	}
	if game.HostID != actorID {
		return NewPermissionError(actorID, runID, "run", "start", "not the run host")
	}

	if !game.Status.CanStart() {
		if game.Status == models.RunClosed {
			return ErrRunAlreadyClosed
		}
		return ErrRunAlreadyStarted
	}

	participants, err := s.repo.Hosted().GetParticipants(ctx, game.ID)
	if err != nil {
		return fmt.Errorf("failed to load participants: %w", err)
	}

	event := events.NewRunEvent(events.RunStarted, game.ID, game.RunCode, game.QuizID, game.HostID)

	for _, participant := range participants {
		if participant.SessionID != nil {
			event.Participants = append(event.Participants, events.RunParticipant{
				UserID:    participant.UserID,
				SessionID: participant.SessionID,
			})
			continue
		}

		sessionID, err := s.createParticipantSession(ctx, game, participant)
		if err != nil {
			return fmt.Errorf("failed to start session for participant %s: %w", participant.UserID, err)
		}
		event.Participants = append(event.Participants, events.RunParticipant{
			UserID:    participant.UserID,
			SessionID: &sessionID,
		})
	}

	moved, err := s.repo.Hosted().TransitionStatus(ctx, game.ID, models.RunOpen, models.RunStarted, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to start run: %w", err)
	}
	if !moved {
		// Raced another transition; report the current terminal state.
		current, err := s.getRun(ctx, game.ID)
		if err != nil {
			return err
		}
		if current.Status == models.RunClosed {
			return ErrRunAlreadyClosed
		}
		return ErrRunAlreadyStarted
	}

	s.logger.Info("Hosted run started", "run_id", game.ID, "participants", len(participants))

	// Best-effort notification; the state transition is already durable.
	if err := s.publisher.PublishRunEvent(ctx, event); err != nil {
		s.logger.Error("Failed to publish run started event", "run_id", game.ID, "error", err)
	}
	return nil
}

// CloseRun abandons a run that never started. Started runs cannot close.
func (s *hostedRunService) CloseRun(ctx context.Context, runID uint, actorID string) error {
	game, err := s.getRun(ctx, runID)
	if err != nil {
		return err
	}
	if game.HostID != actorID {
		return NewPermissionError(actorID, runID, "run", "close", "not the run host")
	}

	if !game.Status.CanClose() {
		if game.Status == models.RunStarted {
			return ErrRunAlreadyStarted
		}
		return ErrRunAlreadyClosed
	}

	moved, err := s.repo.Hosted().TransitionStatus(ctx, game.ID, models.RunOpen, models.RunClosed, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to close run: %w", err)
	}
	if !moved {
		current, err := s.getRun(ctx, game.ID)
		if err != nil {
			return err
		}
		if current.Status == models.RunStarted {
			return ErrRunAlreadyStarted
		}
		return ErrRunAlreadyClosed
	}

	s.logger.Info("Hosted run closed", "run_id", game.ID)

	event := events.NewRunEvent(events.RunClosed, game.ID, game.RunCode, game.QuizID, game.HostID)
	if err := s.publisher.PublishRunEvent(ctx, event); err != nil {
		s.logger.Error("Failed to publish run closed event", "run_id", game.ID, "error", err)
	}
	return nil
}

// PollStatus lets participants detect the host's start action. The event
// stream carries the same signal for push-capable collaborators.
func (s *hostedRunService) PollStatus(ctx context.Context, runID uint, userID string) (*RunStatusResponse, error) {
	game, err := s.getRun(ctx, runID)
	if err != nil {
		return nil, err
	}

	resp := &RunStatusResponse{
		RunID:   game.ID,
		RunCode: game.RunCode,
		Status:  game.Status,
		Started: game.Status == models.RunStarted,
		Closed:  game.Status == models.RunClosed,
	}

	participant, err := s.repo.Hosted().GetParticipant(ctx, game.ID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get participant: %w", err)
	}
	if participant == nil && game.HostID != userID {
		return nil, ErrNotParticipant
	}
	if participant != nil {
		resp.SessionID = participant.SessionID
	}
	return resp, nil
}

// ===== HELPERS =====

func (s *hostedRunService) getRun(ctx context.Context, runID uint) (*models.HostedGame, error) {
	game, err := s.repo.Hosted().GetGameByID(ctx, runID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrRunNotFound
		}
		return nil, fmt.Errorf("failed to get hosted run: %w", err)
	}
	return game, nil
}

// createParticipantSession creates and links one session atomically so the
// participant never observes a started run without a session.
func (s *hostedRunService) createParticipantSession(ctx context.Context, game *models.HostedGame, participant *models.HostedParticipant) (uint, error) {
	txRepo, err := s.repo.(repositories.TransactionRepository).Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			txRepo.(repositories.TransactionRepository).Rollback(ctx)
		}
	}()

	session := &models.QuizSession{
		UserID:    participant.UserID,
		QuizID:    game.QuizID,
		Status:    models.SessionActive,
		StartedAt: time.Now().UTC(),
	}
	if err = txRepo.Session().Create(ctx, session); err != nil {
		return 0, fmt.Errorf("failed to create session: %w", err)
	}
	if err = txRepo.Hosted().LinkSession(ctx, participant.ID, session.ID); err != nil {
		return 0, fmt.Errorf("failed to link session: %w", err)
	}
	if err = txRepo.(repositories.TransactionRepository).Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	participant.SessionID = &session.ID
	return session.ID, nil
}

func (s *hostedRunService) generateRunCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < codeRetryBudget; attempt++ {
		code := randomRunCode()

		taken, err := s.repo.Hosted().RunCodeExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("failed to check run code: %w", err)
		}
		if taken {
			continue
		}

		// Run codes share a namespace with quiz join codes so that a code
		// typed by a player is never ambiguous.
		taken, err = s.repo.Quiz().CodeExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("failed to check join code: %w", err)
		}
		if !taken {
			return code, nil
		}
	}
	return "", ErrCodeSpaceExhausted
}

func randomRunCode() string {
	b := make([]byte, runCodeLength)
	for i := range b {
		b[i] = runCodeCharset[rand.Intn(len(runCodeCharset))]
	}
	return string(b)
}
