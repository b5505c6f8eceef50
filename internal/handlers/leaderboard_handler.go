package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/quizforge/quiz-service/internal/services"
	"github.com/quizforge/quiz-service/internal/utils"
)

type LeaderboardHandler struct {
	BaseHandler
	leaderboardService services.LeaderboardService
}

func NewLeaderboardHandler(
	leaderboardService services.LeaderboardService,
	logger utils.Logger,
) *LeaderboardHandler {
	return &LeaderboardHandler{
		BaseHandler:        NewBaseHandler(logger),
		leaderboardService: leaderboardService,
	}
}

// GetLeaderboard returns the global top scores for a quiz.
func (h *LeaderboardHandler) GetLeaderboard(c *gin.Context) {
	quizID := parseIDParam(c, "quiz_id")
	if quizID == 0 {
		return
	}

	board, err := h.leaderboardService.Leaderboard(c.Request.Context(), quizID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, board)
}

// GetCodeLeaderboard returns the top scores excluding hosted-run sessions.
func (h *LeaderboardHandler) GetCodeLeaderboard(c *gin.Context) {
	quizID := parseIDParam(c, "quiz_id")
	if quizID == 0 {
		return
	}

	board, err := h.leaderboardService.CodeLeaderboard(c.Request.Context(), quizID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, board)
}

// GetMyStats returns the caller's aggregate play statistics.
func (h *LeaderboardHandler) GetMyStats(c *gin.Context) {
	user := requireUser(c)
	if user == nil {
		return
	}

	stats, err := h.leaderboardService.UserStats(c.Request.Context(), user.ID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetUserStats returns another user's aggregate play statistics.
func (h *LeaderboardHandler) GetUserStats(c *gin.Context) {
	userID := c.Param("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid user_id",
			Details: "ID cannot be empty",
		})
		return
	}

	stats, err := h.leaderboardService.UserStats(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}
