package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"updown/internal/service"
)

type apiResponse struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Data    any            `json:"data,omitempty"`
	Meta    map[string]any `json:"meta,omitempty"`
}

func Ok(c *gin.Context, data any, meta map[string]any) {
	c.JSON(http.StatusOK, apiResponse{
		Code:    0,
		Message: "ok",
		Data:    data,
		Meta:    meta,
	})
}

func Error(c *gin.Context, status int, message string, meta map[string]any) {
	c.JSON(status, apiResponse{
		Code:    status,
		Message: message,
		Meta:    meta,
	})
}

// ServiceError maps the service sentinel errors onto HTTP statuses.
func ServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		Error(c, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, service.ErrInvalidPredictions):
		Error(c, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, service.ErrDuplicateSubmission),
		errors.Is(err, service.ErrAlreadyJoined),
		errors.Is(err, service.ErrAlreadyInBattle),
		errors.Is(err, service.ErrOwnBattleExists):
		Error(c, http.StatusConflict, err.Error(), nil)
	case errors.Is(err, service.ErrInsufficientBalance):
		Error(c, http.StatusPaymentRequired, err.Error(), nil)
	case errors.Is(err, service.ErrBattleClosed),
		errors.Is(err, service.ErrTournamentInactive),
		errors.Is(err, service.ErrTournamentOver),
		errors.Is(err, service.ErrNotParticipant):
		Error(c, http.StatusUnprocessableEntity, err.Error(), nil)
	default:
		Error(c, http.StatusInternalServerError, err.Error(), nil)
	}
}
