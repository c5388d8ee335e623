package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emberapp/ember-backend/internal/domain"
)

// ErrorResponse represents error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// SuccessResponse represents success response
type SuccessResponse struct {
	Message string `json:"message"`
}

// respondError maps domain errors onto HTTP statuses and writes the error
// body. Unknown errors become an opaque 500.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "internal server error"

	switch {
	case errors.Is(err, domain.ErrConnectionNotFound),
		errors.Is(err, domain.ErrRoundNotFound),
		errors.Is(err, domain.ErrMissionNotFound),
		errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrProfileNotFound),
		errors.Is(err, domain.ErrSessionNotFound):
		status = http.StatusNotFound
		message = err.Error()
	case errors.Is(err, domain.ErrDuplicateConnection),
		errors.Is(err, domain.ErrAlreadyVoted),
		errors.Is(err, domain.ErrAlreadyResponded),
		errors.Is(err, domain.ErrEmailTaken),
		errors.Is(err, domain.ErrRoundClosed),
		errors.Is(err, domain.ErrInvalidTransition):
		status = http.StatusConflict
		message = err.Error()
	case errors.Is(err, domain.ErrInvalidOption),
		errors.Is(err, domain.ErrInvalidResponse):
		status = http.StatusBadRequest
		message = err.Error()
	case errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrInvalidToken):
		status = http.StatusUnauthorized
		message = err.Error()
	case errors.Is(err, domain.ErrForbidden):
		status = http.StatusForbidden
		message = err.Error()
	}

	c.JSON(status, ErrorResponse{Error: message})
}

// currentUserID reads the user id placed in the context by the auth
// middleware.
func currentUserID(c *gin.Context) (int, bool) {
	value, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return 0, false
	}
	userID, ok := value.(int)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return 0, false
	}
	return userID, true
}
