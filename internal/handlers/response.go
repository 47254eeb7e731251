package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/petrovi-4/habit-tracker-backend/internal/services"
	"github.com/petrovi-4/habit-tracker-backend/internal/validation"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// respondServiceError maps service errors onto the wire: rule violations are
// 400s carrying the single failing rule's message, ownership failures are
// 403s, missing records 404s, everything else a 500.
func respondServiceError(c *gin.Context, err error) {
	var ve *validation.Error
	switch {
	case errors.As(err, &ve):
		RespondError(c, http.StatusBadRequest, "validation_error", ve)
	case errors.Is(err, services.ErrNotFound):
		RespondError(c, http.StatusNotFound, "not_found", err)
	case errors.Is(err, services.ErrForbidden):
		RespondError(c, http.StatusForbidden, "forbidden", err)
	default:
		RespondError(c, http.StatusInternalServerError, "internal_error", err)
	}
}
