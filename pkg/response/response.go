package response

import (
	"errors"
	"net/http"

	"anoa.com/skillquest/internal/session"
	"anoa.com/skillquest/pkg/apperror"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Context keys written by the auth middleware.
const (
	UserIDKey = "user_id"
	TokenKey  = "access_token"
)

// GetUserID retrieves the authenticated user ID from the context
func GetUserID(c *gin.Context) (uuid.UUID, error) {
	userIDStr := c.GetString(UserIDKey)
	if userIDStr == "" {
		return uuid.Nil, apperror.ErrUnauthenticated
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return uuid.Nil, apperror.ErrUnauthenticated
	}

	return userID, nil
}

// GetCaller returns the request identity, or nil when the request carries none.
func GetCaller(c *gin.Context) *session.Caller {
	userID, err := GetUserID(c)
	if err != nil {
		return nil
	}
	return session.New(userID, c.GetString(TokenKey))
}

// ResponseError standardized error response
func ResponseError(c *gin.Context, err error) {
	code := apperror.MapErrorToStatus(err)

	if code == http.StatusInternalServerError {
		zap.L().Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}

	body := gin.H{"error": err.Error()}

	var appErr *apperror.AppError
	if errors.As(err, &appErr) && len(appErr.Fields) > 0 {
		body["fields"] = appErr.Fields
	}
	if errors.Is(err, apperror.ErrUnauthenticated) {
		body["redirect"] = apperror.SignInPath
	}

	c.JSON(code, body)
}
