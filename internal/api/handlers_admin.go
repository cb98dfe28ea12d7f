package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"cardroom-service/internal/service/rake"
	"cardroom-service/internal/service/scene"
	"cardroom-service/internal/service/user"
	"cardroom-service/internal/service/wallet"
	appErr "cardroom-service/pkg/errors"
	"cardroom-service/pkg/response"

	"github.com/gin-gonic/gin"
)

type adminLoginBody struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) AdminLogin(c *gin.Context) {
	var body adminLoginBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	result, err := h.services.Admin.Login(c.Request.Context(), body.Username, body.Password)
	if err != nil {
		h.handleAdminError(c, err)
		return
	}
	response.Success(c, result)
}

func (h *Handler) AdminProfile(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, appErr.ErrUnauthorized.Error())
		return
	}
	info, err := h.services.Admin.Profile(c.Request.Context(), adminID)
	if err != nil {
		h.handleAdminError(c, err)
		return
	}
	response.Success(c, info)
}

type adminPasswordBody struct {
	Current string `json:"current" binding:"required"`
	Next    string `json:"next" binding:"required"`
}

func (h *Handler) AdminChangePassword(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, appErr.ErrUnauthorized.Error())
		return
	}
	var body adminPasswordBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.services.Admin.ChangePassword(c.Request.Context(), adminID, body.Current, body.Next); err != nil {
		h.handleAdminError(c, err)
		return
	}
	response.Success(c, gin.H{"changed": true})
}

func (h *Handler) handleAdminError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, appErr.ErrInvalidAdminPassword), errors.Is(err, appErr.ErrAdminNotFound):
		response.Error(c, http.StatusUnauthorized, appErr.ErrInvalidAdminPassword.Error())
	case errors.Is(err, appErr.ErrAdminDisabled):
		response.Error(c, http.StatusForbidden, err.Error())
	case errors.Is(err, appErr.ErrInvalidScene), errors.Is(err, appErr.ErrInvalidRakeRule),
		errors.Is(err, appErr.ErrInvalidUserStatus), errors.Is(err, appErr.ErrInvalidWalletPayload):
		response.Error(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, appErr.ErrRakeRuleNotFound):
		response.Error(c, http.StatusNotFound, err.Error())
	default:
		h.handleGameError(c, err)
	}
}

func (h *Handler) paging(c *gin.Context) (int, int, bool) {
	page, err := parsePositiveIntQuery(c, "page", 1)
	if err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return 0, 0, false
	}
	size, err := parsePositiveIntQuery(c, "size", 20)
	if err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return 0, 0, false
	}
	return page, size, true
}

func (h *Handler) AdminListScenes(c *gin.Context) {
	page, size, ok := h.paging(c)
	if !ok {
		return
	}
	result, err := h.services.Scene.AdminListScenes(c.Request.Context(), page, size)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.Page(c, result.Items, result.Total, page, size)
}

type sceneBody struct {
	Name           string  `json:"name" binding:"required"`
	Kind           string  `json:"kind" binding:"required"`
	SeatCount      int     `json:"seatCount"`
	Stake          int64   `json:"stake" binding:"required"`
	Multiplier     float64 `json:"multiplier"`
	BotFillSeconds int     `json:"botFillSeconds"`
	SeparateSubnet bool    `json:"separateSubnet"`
	Status         string  `json:"status"`
	RakeRuleID     int64   `json:"rakeRuleId"`
}

func (b sceneBody) params() scene.SceneMutationParams {
	return scene.SceneMutationParams{
		Name:           b.Name,
		Kind:           b.Kind,
		SeatCount:      b.SeatCount,
		Stake:          b.Stake,
		Multiplier:     b.Multiplier,
		BotFillSeconds: b.BotFillSeconds,
		SeparateSubnet: b.SeparateSubnet,
		Status:         b.Status,
		RakeRuleID:     b.RakeRuleID,
	}
}

func (h *Handler) AdminCreateScene(c *gin.Context) {
	var body sceneBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	created, err := h.services.Scene.CreateScene(c.Request.Context(), body.params())
	if err != nil {
		h.handleAdminError(c, err)
		return
	}
	response.Success(c, created)
}

func (h *Handler) AdminUpdateScene(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var body sceneBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	updated, err := h.services.Scene.UpdateScene(c.Request.Context(), id, body.params())
	if err != nil {
		h.handleAdminError(c, err)
		return
	}
	response.Success(c, updated)
}

func (h *Handler) AdminListRakeRules(c *gin.Context) {
	page, size, ok := h.paging(c)
	if !ok {
		return
	}
	result, err := h.services.Rake.List(c.Request.Context(), page, size)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.Page(c, result.Items, result.Total, page, size)
}

type rakeRuleBody struct {
	Name        string          `json:"name" binding:"required"`
	Type        string          `json:"type" binding:"required"`
	Remark      string          `json:"remark"`
	Status      string          `json:"status"`
	Config      json.RawMessage `json:"config" binding:"required"`
	EffectiveAt string          `json:"effectiveAt"`
}

func (b rakeRuleBody) params() (rake.MutationParams, error) {
	params := rake.MutationParams{
		Name:       b.Name,
		Type:       b.Type,
		Remark:     b.Remark,
		Status:     b.Status,
		ConfigJSON: []byte(b.Config),
	}
	if strings.TrimSpace(b.EffectiveAt) != "" {
		ts, err := parseTimeWithLayouts(b.EffectiveAt)
		if err != nil {
			return params, err
		}
		params.EffectiveAt = ts
	}
	return params, nil
}

func (h *Handler) AdminCreateRakeRule(c *gin.Context) {
	var body rakeRuleBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	params, err := body.params()
	if err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	rule, err := h.services.Rake.Create(c.Request.Context(), params)
	if err != nil {
		h.handleAdminError(c, err)
		return
	}
	response.Success(c, rule)
}

func (h *Handler) AdminUpdateRakeRule(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var body rakeRuleBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	params, err := body.params()
	if err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	rule, err := h.services.Rake.Update(c.Request.Context(), id, params)
	if err != nil {
		h.handleAdminError(c, err)
		return
	}
	response.Success(c, rule)
}

func (h *Handler) AdminListUsers(c *gin.Context) {
	page, size, ok := h.paging(c)
	if !ok {
		return
	}
	result, err := h.services.User.AdminListUsers(c.Request.Context(), user.AdminListUsersFilter{
		Page:            page,
		Size:            size,
		Status:          strings.TrimSpace(c.Query("status")),
		NicknameKeyword: strings.TrimSpace(c.Query("keyword")),
	})
	if err != nil {
		h.handleAdminError(c, err)
		return
	}
	response.Page(c, result.Items, result.Total, page, size)
}

func (h *Handler) AdminGetUser(c *gin.Context) {
	u, err := h.services.User.AdminGetUser(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		h.handleAdminError(c, err)
		return
	}
	w, err := h.services.Wallet.GetWallet(c.Request.Context(), u.ID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.Success(c, gin.H{"user": u, "wallet": w})
}

type userStatusBody struct {
	Status string `json:"status" binding:"required"`
	Reason string `json:"reason"`
}

func (h *Handler) AdminUpdateUserStatus(c *gin.Context) {
	var body userStatusBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	u, err := h.services.User.AdminUpdateUserStatus(c.Request.Context(), strings.TrimSpace(c.Param("id")), body.Status, body.Reason)
	if err != nil {
		h.handleAdminError(c, err)
		return
	}
	response.Success(c, u)
}

type creditBody struct {
	Amount int64  `json:"amount" binding:"required,gt=0"`
	Remark string `json:"remark"`
}

func (h *Handler) AdminCreditUser(c *gin.Context) {
	userID := strings.TrimSpace(c.Param("id"))
	var body creditBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	ctx := c.Request.Context()
	if _, err := h.services.User.AdminGetUser(ctx, userID); err != nil {
		h.handleAdminError(c, err)
		return
	}
	w, err := h.services.Wallet.Credit(ctx, userID, wallet.CreditRequest{Amount: body.Amount, Remark: body.Remark})
	if err != nil {
		h.handleAdminError(c, err)
		return
	}
	response.Success(c, w)
}

func (h *Handler) AdminAbortSession(c *gin.Context) {
	sessionID := strings.TrimSpace(c.Param("sessionId"))
	if err := h.services.Game.Abort(c.Request.Context(), sessionID); err != nil {
		h.handleAdminError(c, err)
		return
	}
	response.Success(c, gin.H{"sessionId": sessionID, "aborted": true, "active": h.services.Game.ActiveSessions()})
}
