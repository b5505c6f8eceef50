package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/quizforge/quiz-service/internal/services"
	"github.com/quizforge/quiz-service/internal/utils"
)

type HandlerManager struct {
	quizHandler        *QuizHandler
	playHandler        *PlayHandler
	hostedHandler      *HostedHandler
	leaderboardHandler *LeaderboardHandler
	userService        services.UserService
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	validator *utils.Validator,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		quizHandler:        NewQuizHandler(serviceManager.Quiz(), serviceManager.ImportExport(), validator, logger),
		playHandler:        NewPlayHandler(serviceManager.Session(), serviceManager.Quiz(), validator, logger),
		hostedHandler:      NewHostedHandler(serviceManager.Hosted(), validator, logger),
		leaderboardHandler: NewLeaderboardHandler(serviceManager.Leaderboard(), logger),
		userService:        serviceManager.Users(),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "quiz-service",
		})
	})

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(IdentityMiddleware(hm.userService))
	{
		// Quiz catalog routes
		quizzes := v1.Group("/quizzes")
		{
			quizzes.POST("", hm.quizHandler.CreateQuiz)
			quizzes.GET("", hm.quizHandler.ListQuizzes)
			quizzes.GET("/code/:code", hm.quizHandler.GetQuizByCode)
			quizzes.GET("/:id", hm.quizHandler.GetQuiz)
			quizzes.GET("/:id/questions", hm.quizHandler.GetQuizWithQuestions)
			quizzes.PUT("/:id/active", hm.quizHandler.SetQuizActive)
			quizzes.DELETE("/:id", hm.quizHandler.DeleteQuiz)

			// Question management
			quizzes.POST("/:id/questions", hm.quizHandler.AddQuestion)
			quizzes.PUT("/:id/questions/reorder", hm.quizHandler.ReorderQuestions)

			// Bulk question transfer
			quizzes.GET("/:id/questions/export", hm.quizHandler.ExportQuestions)
			quizzes.POST("/:id/questions/import", hm.quizHandler.ImportQuestions)
			quizzes.GET("/:id/questions/imports", hm.quizHandler.GetImportReports)
		}

		// Session routes
		sessions := v1.Group("/sessions")
		{
			sessions.POST("/start/:quiz_id", hm.playHandler.StartSession)
			sessions.POST("/start/code/:code", hm.playHandler.StartSessionByCode)
			sessions.GET("/:id/question", hm.playHandler.CurrentQuestion)
			sessions.POST("/:id/answer", hm.playHandler.SubmitAnswer)
			sessions.POST("/:id/complete", hm.playHandler.CompleteSession)
		}

		// Hosted run routes
		runs := v1.Group("/runs")
		{
			runs.POST("", hm.hostedHandler.CreateRun)
			runs.POST("/join/:code", hm.hostedHandler.JoinRun)
			runs.POST("/:id/start", hm.hostedHandler.StartRun)
			runs.POST("/:id/close", hm.hostedHandler.CloseRun)
			runs.GET("/:id/status", hm.hostedHandler.PollStatus)
		}

		// Leaderboard routes
		leaderboards := v1.Group("/leaderboards")
		{
			leaderboards.GET("/quiz/:quiz_id", hm.leaderboardHandler.GetLeaderboard)
			leaderboards.GET("/quiz/:quiz_id/code", hm.leaderboardHandler.GetCodeLeaderboard)
		}

		// User statistics routes
		stats := v1.Group("/stats")
		{
			stats.GET("/me", hm.leaderboardHandler.GetMyStats)
			stats.GET("/users/:user_id", hm.leaderboardHandler.GetUserStats)
		}
	}
}
