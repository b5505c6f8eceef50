package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/quizforge/quiz-service/internal/models"
	"github.com/quizforge/quiz-service/internal/services"
)

const (
	contextUserIDKey = "user_id"
	contextUserKey   = "user"
)

// IdentityMiddleware resolves the caller from the headers set by the auth
// gateway and persists the identity so domain rows created downstream have
// a users row to reference. The service trusts the gateway; requests
// without an identity are rejected.
func IdentityMiddleware(users services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "User not authenticated",
			})
			return
		}

		role := models.UserRole(c.GetHeader("X-User-Role"))
		switch role {
		case models.RolePlayer, models.RoleCreator, models.RoleStaff:
		default:
			role = models.RolePlayer
		}

		user := &models.User{
			ID:          userID,
			DisplayName: c.GetHeader("X-User-Name"),
			Role:        role,
		}
		if user.DisplayName == "" {
			user.DisplayName = userID
		}

		if err := users.Ensure(c.Request.Context(), user); err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
				Message: "Failed to resolve user identity",
			})
			return
		}

		c.Set(contextUserIDKey, userID)
		c.Set(contextUserKey, user)
		c.Next()
	}
}

// CurrentUser returns the caller placed in the context by IdentityMiddleware.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	value, exists := c.Get(contextUserKey)
	if !exists {
		return nil, false
	}
	user, ok := value.(*models.User)
	return user, ok
}

func requireUser(c *gin.Context) *models.User {
	user, ok := CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return nil
	}
	return user
}

func parseIDParam(c *gin.Context, param string) uint {
	idStr := c.Param(param)
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + param,
			Details: "must be a positive integer",
		})
		return 0
	}
	return uint(id)
}

func parseIntQuery(c *gin.Context, param string, defaultValue int) int {
	valueStr := c.Query(param)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
