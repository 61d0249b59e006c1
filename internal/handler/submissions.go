package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"updown/internal/models"
	"updown/internal/service"
)

type SubmissionHandler struct {
	Submissions *service.SubmissionService
}

func (h *SubmissionHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1/submissions")
	group.POST("", h.submit)
	group.GET("/:id", h.get)
	group.GET("", h.listForUser)
}

type submitRequest struct {
	UserID       uint64                   `json:"user_id"`
	TournamentID *uint64                  `json:"tournament_id"`
	Predictions  []models.PricePrediction `json:"predictions"`
}

func (h *SubmissionHandler) submit(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	if req.UserID == 0 {
		Error(c, http.StatusBadRequest, "user_id required", nil)
		return
	}

	sub, err := h.Submissions.Submit(c.Request.Context(), req.UserID, req.TournamentID, req.Predictions)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Ok(c, sub, nil)
}

func (h *SubmissionHandler) get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		Error(c, http.StatusBadRequest, "invalid submission id", nil)
		return
	}
	sub, err := h.Submissions.Get(c.Request.Context(), id)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Ok(c, sub, nil)
}

func (h *SubmissionHandler) listForUser(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Query("user_id"), 10, 64)
	if err != nil || userID == 0 {
		Error(c, http.StatusBadRequest, "user_id required", nil)
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	subs, err := h.Submissions.ListLatestForUser(c.Request.Context(), userID, limit)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Ok(c, subs, map[string]any{"count": len(subs)})
}
