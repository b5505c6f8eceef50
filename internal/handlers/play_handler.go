package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/quizforge/quiz-service/internal/services"
	"github.com/quizforge/quiz-service/internal/utils"
)

// PlayHandler exposes the session lifecycle: start a quiz, fetch the current
// question, submit answers, and complete.
type PlayHandler struct {
	BaseHandler
	sessionService services.SessionService
	quizService    services.QuizService
	validator      *utils.Validator
}

func NewPlayHandler(
	sessionService services.SessionService,
	quizService services.QuizService,
	validator *utils.Validator,
	logger utils.Logger,
) *PlayHandler {
	return &PlayHandler{
		BaseHandler:    NewBaseHandler(logger),
		sessionService: sessionService,
		quizService:    quizService,
		validator:      validator,
	}
}

// StartSession begins a play-through of a quiz for the caller.
func (h *PlayHandler) StartSession(c *gin.Context) {
	quizID := parseIDParam(c, "quiz_id")
	if quizID == 0 {
		return
	}

	user := requireUser(c)
	if user == nil {
		return
	}

	h.LogRequest(c, "Starting session", "quiz_id", quizID)

	session, err := h.sessionService.Start(c.Request.Context(), quizID, user.ID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, session)
}

// StartSessionByCode resolves a join code and starts a session in one call.
func (h *PlayHandler) StartSessionByCode(c *gin.Context) {
	code := c.Param("code")

	user := requireUser(c)
	if user == nil {
		return
	}

	quiz, err := h.quizService.GetByCode(c.Request.Context(), code)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	session, err := h.sessionService.Start(c.Request.Context(), quiz.ID, user.ID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, session)
}

// CurrentQuestion returns the next unanswered question, or the completion
// outcome when none remain.
func (h *PlayHandler) CurrentQuestion(c *gin.Context) {
	sessionID := parseIDParam(c, "id")
	if sessionID == 0 {
		return
	}

	user := requireUser(c)
	if user == nil {
		return
	}

	resp, err := h.sessionService.CurrentQuestion(c.Request.Context(), sessionID, user.ID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// SubmitAnswer records the caller's answer for one question and returns the
// points earned.
func (h *PlayHandler) SubmitAnswer(c *gin.Context) {
	sessionID := parseIDParam(c, "id")
	if sessionID == 0 {
		return
	}

	var req services.SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	user := requireUser(c)
	if user == nil {
		return
	}

	resp, err := h.sessionService.SubmitAnswer(c.Request.Context(), sessionID, &req, user.ID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// CompleteSession finalizes the session; repeated calls return the stored
// outcome.
func (h *PlayHandler) CompleteSession(c *gin.Context) {
	sessionID := parseIDParam(c, "id")
	if sessionID == 0 {
		return
	}

	user := requireUser(c)
	if user == nil {
		return
	}

	resp, err := h.sessionService.Complete(c.Request.Context(), sessionID, user.ID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
