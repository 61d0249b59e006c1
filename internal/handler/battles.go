package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"updown/internal/service"
)

type BattleHandler struct {
	Battles *service.BattleService
}

func (h *BattleHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1/battles")
	group.POST("", h.create)
	group.POST("/:id/join", h.join)
	group.GET("/:id", h.get)
}

type createBattleRequest struct {
	OwnerID    uint64 `json:"owner_id"`
	EntryPrice string `json:"entry_price"`
}

func (h *BattleHandler) create(c *gin.Context) {
	var req createBattleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	if req.OwnerID == 0 {
		Error(c, http.StatusBadRequest, "owner_id required", nil)
		return
	}
	entry, err := decimal.NewFromString(strings.TrimSpace(req.EntryPrice))
	if err != nil || !entry.IsPositive() {
		Error(c, http.StatusBadRequest, "entry_price must be a positive amount", nil)
		return
	}

	battle, err := h.Battles.Create(c.Request.Context(), req.OwnerID, entry)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Ok(c, battle, nil)
}

type joinBattleRequest struct {
	UserID uint64 `json:"user_id"`
}

func (h *BattleHandler) join(c *gin.Context) {
	var req joinBattleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	if req.UserID == 0 {
		Error(c, http.StatusBadRequest, "user_id required", nil)
		return
	}

	battle, err := h.Battles.Join(c.Request.Context(), c.Param("id"), req.UserID)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Ok(c, battle, nil)
}

func (h *BattleHandler) get(c *gin.Context) {
	battle, err := h.Battles.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Ok(c, battle, nil)
}
