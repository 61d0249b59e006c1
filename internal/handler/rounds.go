package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"updown/internal/round"
	"updown/internal/streak"
)

// RoundHandler exposes the round grid: where "now" falls, the boundaries of
// any round, and a user's deterministic asset lineup for the upcoming round.
type RoundHandler struct {
	Schedule *round.Schedule
}

func (h *RoundHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1/rounds")
	group.GET("/current", h.current)
	group.GET("/:round", h.boundaries)
	group.GET("/lineup", h.lineup)
}

func (h *RoundHandler) current(c *gin.Context) {
	now := time.Now().UTC()
	current := h.Schedule.Current(now)
	bounds := h.Schedule.Boundaries(current)
	Ok(c, gin.H{
		"round":           current,
		"start_timestamp": bounds.StartTimestamp,
		"end_timestamp":   bounds.EndTimestamp,
		"upcoming_round":  current + 1,
	}, nil)
}

func (h *RoundHandler) boundaries(c *gin.Context) {
	r, err := strconv.ParseInt(c.Param("round"), 10, 64)
	if err != nil || r < 0 {
		Error(c, http.StatusBadRequest, "invalid round", nil)
		return
	}
	bounds := h.Schedule.Boundaries(r)
	Ok(c, gin.H{
		"round":           r,
		"start_timestamp": bounds.StartTimestamp,
		"end_timestamp":   bounds.EndTimestamp,
	}, nil)
}

func (h *RoundHandler) lineup(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Query("user_id"), 10, 64)
	if err != nil || userID == 0 {
		Error(c, http.StatusBadRequest, "user_id required", nil)
		return
	}
	upcoming := h.Schedule.Current(time.Now().UTC()) + 1
	Ok(c, gin.H{
		"round":  upcoming,
		"assets": h.Schedule.AssetsForUser(upcoming, userID),
	}, nil)
}

// StreakHandler reads a user's streak counters.
type StreakHandler struct {
	Streaks *streak.Service
}

func (h *StreakHandler) Register(r *gin.Engine) {
	r.GET("/api/v1/streaks/:user_id", h.get)
}

func (h *StreakHandler) get(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("user_id"), 10, 64)
	if err != nil || userID == 0 {
		Error(c, http.StatusBadRequest, "invalid user id", nil)
		return
	}

	state, err := h.Streaks.GetForUser(c.Request.Context(), userID)
	if err != nil {
		ServiceError(c, err)
		return
	}
	if state == nil {
		Ok(c, gin.H{
			"asset_streaks":  gin.H{},
			"choices_streak": 0,
		}, nil)
		return
	}

	streaks, err := state.AssetStreakMap()
	if err != nil {
		Error(c, http.StatusInternalServerError, "corrupt streak state", nil)
		return
	}
	Ok(c, gin.H{
		"asset_streaks":    streaks,
		"choices_streak":   state.ChoicesStreak,
		"current_sequence": state.CurrentSequence,
	}, nil)
}
