package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"updown/internal/service"
)

type TournamentHandler struct {
	Tournaments *service.TournamentService
}

func (h *TournamentHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1/tournaments")
	group.GET("", h.listActive)
	group.GET("/:id", h.get)
	group.POST("/:id/join", h.join)
	group.GET("/:id/leaderboard", h.leaderboard)
	group.GET("/:id/rank", h.rank)
}

func (h *TournamentHandler) listActive(c *gin.Context) {
	tournaments, err := h.Tournaments.ListActive(c.Request.Context(), time.Now().UTC())
	if err != nil {
		ServiceError(c, err)
		return
	}
	Ok(c, tournaments, map[string]any{"count": len(tournaments)})
}

func (h *TournamentHandler) get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		Error(c, http.StatusBadRequest, "invalid tournament id", nil)
		return
	}
	tournament, err := h.Tournaments.Get(c.Request.Context(), id)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Ok(c, tournament, nil)
}

type joinTournamentRequest struct {
	UserID uint64 `json:"user_id"`
}

func (h *TournamentHandler) join(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		Error(c, http.StatusBadRequest, "invalid tournament id", nil)
		return
	}
	var req joinTournamentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	if req.UserID == 0 {
		Error(c, http.StatusBadRequest, "user_id required", nil)
		return
	}

	participation, err := h.Tournaments.Join(c.Request.Context(), id, req.UserID)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Ok(c, participation, nil)
}

func (h *TournamentHandler) leaderboard(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		Error(c, http.StatusBadRequest, "invalid tournament id", nil)
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	rows, err := h.Tournaments.Leaderboard(c.Request.Context(), id, limit)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Ok(c, rows, map[string]any{"count": len(rows)})
}

func (h *TournamentHandler) rank(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		Error(c, http.StatusBadRequest, "invalid tournament id", nil)
		return
	}
	userID, err := strconv.ParseUint(c.Query("user_id"), 10, 64)
	if err != nil || userID == 0 {
		Error(c, http.StatusBadRequest, "user_id required", nil)
		return
	}

	rank, err := h.Tournaments.Rank(c.Request.Context(), id, userID)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Ok(c, gin.H{"rank": rank}, nil)
}
