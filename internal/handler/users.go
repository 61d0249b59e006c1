package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"updown/internal/service"
)

type UserHandler struct {
	Users *service.UserService
}

func (h *UserHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1/users")
	group.POST("", h.create)
	group.GET("/:id", h.get)
}

type createUserRequest struct {
	ExternalID   string `json:"external_id"`
	Username     string `json:"username"`
	AvatarURL    string `json:"avatar_url"`
	InitialCoins string `json:"initial_coins"`
}

func (h *UserHandler) create(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	req.ExternalID = strings.TrimSpace(req.ExternalID)
	if req.ExternalID == "" {
		Error(c, http.StatusBadRequest, "external_id required", nil)
		return
	}

	initial := decimal.Zero
	if strings.TrimSpace(req.InitialCoins) != "" {
		v, err := decimal.NewFromString(strings.TrimSpace(req.InitialCoins))
		if err != nil || v.IsNegative() {
			Error(c, http.StatusBadRequest, "invalid initial_coins", nil)
			return
		}
		initial = v
	}

	user, err := h.Users.Create(c.Request.Context(), req.ExternalID, req.Username, req.AvatarURL, initial)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Ok(c, user, nil)
}

func (h *UserHandler) get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		Error(c, http.StatusBadRequest, "invalid user id", nil)
		return
	}
	user, err := h.Users.Get(c.Request.Context(), id)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Ok(c, user, nil)
}
