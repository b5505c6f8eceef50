package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/quizforge/quiz-service/internal/services"
	"github.com/quizforge/quiz-service/internal/utils"
)

// HostedHandler exposes the hosted-run lifecycle.
type HostedHandler struct {
	BaseHandler
	hostedService services.HostedRunService
	validator     *utils.Validator
}

func NewHostedHandler(
	hostedService services.HostedRunService,
	validator *utils.Validator,
	logger utils.Logger,
) *HostedHandler {
	return &HostedHandler{
		BaseHandler:   NewBaseHandler(logger),
		hostedService: hostedService,
		validator:     validator,
	}
}

// CreateRun opens a hosted run for a quiz with a fresh run code.
func (h *HostedHandler) CreateRun(c *gin.Context) {
	var req struct {
		QuizID uint `json:"quiz_id" binding:"required"`
	}
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

	h.LogRequest(c, "Creating hosted run", "quiz_id", req.QuizID)

	run, err := h.hostedService.CreateRun(c.Request.Context(), req.QuizID, user)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, run)
}

// JoinRun adds the caller to an open run identified by its run code.
func (h *HostedHandler) JoinRun(c *gin.Context) {
	code := strings.TrimSpace(c.Param("code"))
	if code == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid code",
			Details: "code cannot be empty",
		})
		return
	}

	user := requireUser(c)
	if user == nil {
		return
	}

	participant, err := h.hostedService.JoinRun(c.Request.Context(), code, user.ID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, participant)
}

// StartRun starts an open run; only the host may call this.
func (h *HostedHandler) StartRun(c *gin.Context) {
	runID := parseIDParam(c, "id")
	if runID == 0 {
		return
	}

	user := requireUser(c)
	if user == nil {
		return
	}

	if err := h.hostedService.StartRun(c.Request.Context(), runID, user.ID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Run started"})
}

// CloseRun abandons an open run; only the host may call this.
func (h *HostedHandler) CloseRun(c *gin.Context) {
	runID := parseIDParam(c, "id")
	if runID == 0 {
		return
	}

	user := requireUser(c)
	if user == nil {
		return
	}

	if err := h.hostedService.CloseRun(c.Request.Context(), runID, user.ID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Run closed"})
}

// PollStatus lets a participant wait for the host's start action.
func (h *HostedHandler) PollStatus(c *gin.Context) {
	runID := parseIDParam(c, "id")
	if runID == 0 {
		return
	}

	user := requireUser(c)
	if user == nil {
		return
	}

	status, err := h.hostedService.PollStatus(c.Request.Context(), runID, user.ID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, status)
}
