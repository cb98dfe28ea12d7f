package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"cardroom-service/internal/middleware"
	"cardroom-service/internal/service/game"
	"cardroom-service/internal/service/game/cards"
	"cardroom-service/internal/service/lobby"
	"cardroom-service/internal/service/ranking"
	appErr "cardroom-service/pkg/errors"
	"cardroom-service/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const maxLeaderboardSize = 100

type guestLoginBody struct {
	Nickname string `json:"nickname"`
}

func (h *Handler) GuestLogin(c *gin.Context) {
	var body guestLoginBody
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			response.Error(c, http.StatusBadRequest, err.Error())
			return
		}
	}
	result, err := h.services.Auth.GuestLogin(c.Request.Context(), body.Nickname, c.ClientIP())
	if err != nil {
		if errors.Is(err, appErr.ErrInvalidNickname) {
			response.Error(c, http.StatusBadRequest, err.Error())
			return
		}
		h.handleGameError(c, err)
		return
	}
	response.Success(c, result)
}

func (h *Handler) RefreshToken(c *gin.Context) {
	userID, _ := getUserID(c)
	result, err := h.services.Auth.Refresh(c.Request.Context(), userID)
	if err != nil {
		h.handleGameError(c, err)
		return
	}
	response.Success(c, result)
}

func (h *Handler) GetProfile(c *gin.Context) {
	userID, _ := getUserID(c)
	profile, err := h.services.User.GetProfile(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	if profile == nil {
		response.Error(c, http.StatusNotFound, appErr.ErrUserNotFound.Error())
		return
	}
	response.Success(c, profile)
}

type updateProfileBody struct {
	Nickname string `json:"nickname" binding:"required"`
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	userID, _ := getUserID(c)
	var body updateProfileBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	profile, err := h.services.User.UpdateNickname(c.Request.Context(), userID, body.Nickname)
	if err != nil {
		if errors.Is(err, appErr.ErrInvalidNickname) {
			response.Error(c, http.StatusBadRequest, err.Error())
			return
		}
		h.handleGameError(c, err)
		return
	}
	response.Success(c, profile)
}

func (h *Handler) GetWallet(c *gin.Context) {
	userID, _ := getUserID(c)
	w, err := h.services.Wallet.GetWallet(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.Success(c, w)
}

func (h *Handler) ListBilling(c *gin.Context) {
	userID, _ := getUserID(c)
	page, err := parsePositiveIntQuery(c, "page", 1)
	if err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	size, err := parsePositiveIntQuery(c, "size", 20)
	if err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	result, err := h.services.Wallet.ListBilling(c.Request.Context(), userID, page, size)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.Page(c, result.Items, result.Total, page, size)
}

func (h *Handler) ListScenes(c *gin.Context) {
	scenes, err := h.services.Scene.ListScenes(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.Success(c, scenes)
}

type startBlackjackBody struct {
	Stake      int64   `json:"stake" binding:"required,gt=0"`
	Multiplier float64 `json:"multiplier"`
}

// StartBlackjack opens a single-seat table against the dealer.
func (h *Handler) StartBlackjack(c *gin.Context) {
	var body startBlackjackBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	player, ok := h.playerSpec(c, body.Stake)
	if !ok {
		return
	}
	sess, err := h.services.Game.Start(c.Request.Context(), game.StartRequest{
		Kind:       cards.KindBlackjack,
		Players:    []game.PlayerSpec{player},
		Stake:      body.Stake,
		Multiplier: body.Multiplier,
	})
	if err != nil {
		h.handleGameError(c, err)
		return
	}
	response.Success(c, sess.View(player.ID))
}

type startPokerBody struct {
	Bots  int   `json:"bots" binding:"required,gt=0"`
	BuyIn int64 `json:"buyIn" binding:"required,gt=0"`
}

// StartPokerPractice seats the caller against bots without going through the lobby.
func (h *Handler) StartPokerPractice(c *gin.Context) {
	var body startPokerBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	if maxBots := h.services.Game.Config().PokerMaxSeats - 1; body.Bots > maxBots {
		response.Error(c, http.StatusBadRequest, fmt.Sprintf("at most %d bots", maxBots))
		return
	}
	player, ok := h.playerSpec(c, body.BuyIn)
	if !ok {
		return
	}
	players := []game.PlayerSpec{player}
	for i := 1; i <= body.Bots; i++ {
		players = append(players, game.PlayerSpec{
			ID:          "bot-" + uuid.NewString()[:8],
			DisplayName: fmt.Sprintf("Bot %d", i),
			IsBot:       true,
		})
	}
	sess, err := h.services.Game.Start(c.Request.Context(), game.StartRequest{
		Kind:    cards.KindPoker,
		Players: players,
		Stake:   body.BuyIn,
	})
	if err != nil {
		h.handleGameError(c, err)
		return
	}
	response.Success(c, sess.View(player.ID))
}

// playerSpec checks the caller may sit down for amount and writes the error response when not.
func (h *Handler) playerSpec(c *gin.Context, amount int64) (game.PlayerSpec, bool) {
	userID, _ := getUserID(c)
	ctx := c.Request.Context()
	u, err := h.services.User.EnsurePlayable(ctx, userID)
	if err != nil {
		h.handleGameError(c, err)
		return game.PlayerSpec{}, false
	}
	balance, err := h.services.Wallet.Balance(ctx, userID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error())
		return game.PlayerSpec{}, false
	}
	if balance < amount {
		h.handleGameError(c, appErr.ErrInsufficientBalance)
		return game.PlayerSpec{}, false
	}
	return game.PlayerSpec{ID: u.ID, DisplayName: u.Nickname}, true
}

func (h *Handler) ViewGame(c *gin.Context) {
	userID, _ := getUserID(c)
	state, err := h.services.Game.View(strings.TrimSpace(c.Param("sessionId")), userID)
	if err != nil {
		h.handleGameError(c, err)
		return
	}
	response.Success(c, state)
}

type gameActionBody struct {
	ActionID string `json:"actionId" binding:"required"`
}

func (h *Handler) GameAction(c *gin.Context) {
	userID, _ := getUserID(c)
	var body gameActionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	state, err := h.services.Game.HandleAction(c.Request.Context(), strings.TrimSpace(c.Param("sessionId")), userID, body.ActionID)
	if err != nil {
		h.handleGameError(c, err)
		return
	}
	response.Success(c, state)
}

type lobbyJoinBody struct {
	SceneID int64 `json:"sceneId" binding:"required,gt=0"`
}

func (h *Handler) LobbyJoin(c *gin.Context) {
	userID, _ := getUserID(c)
	var body lobbyJoinBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	ctx := c.Request.Context()
	if _, err := h.services.User.EnsurePlayable(ctx, userID); err != nil {
		h.handleGameError(c, err)
		return
	}
	err := h.services.Lobby.JoinQueue(ctx, lobby.JoinQueueRequest{
		UserID:   userID,
		Nickname: middleware.UserName(c),
		SceneID:  body.SceneID,
		IP:       c.ClientIP(),
	})
	if err != nil {
		h.handleGameError(c, err)
		return
	}
	status, err := h.services.Lobby.GetStatus(ctx, userID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.Success(c, status)
}

func (h *Handler) LobbyCancel(c *gin.Context) {
	userID, _ := getUserID(c)
	if err := h.services.Lobby.CancelQueue(c.Request.Context(), lobby.CancelQueueRequest{UserID: userID, Reason: "user"}); err != nil {
		h.handleGameError(c, err)
		return
	}
	response.Success(c, gin.H{"status": lobby.QueueStatusIdle})
}

func (h *Handler) LobbyStatus(c *gin.Context) {
	userID, _ := getUserID(c)
	status, err := h.services.Lobby.GetStatus(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.Success(c, status)
}

func parseBoardQuery(c *gin.Context) (cards.Kind, ranking.Board, error) {
	kind := cards.Kind(strings.TrimSpace(c.DefaultQuery("kind", string(cards.KindPoker))))
	if kind != cards.KindPoker && kind != cards.KindBlackjack {
		return "", "", appErr.ErrUnsupportedGame
	}
	board, err := ranking.ParseBoard(strings.TrimSpace(c.Query("board")))
	return kind, board, err
}

func (h *Handler) Leaderboard(c *gin.Context) {
	kind, board, err := parseBoardQuery(c)
	if err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	limit, err := parsePositiveIntQuery(c, "limit", 20)
	if err != nil || limit > maxLeaderboardSize {
		response.Error(c, http.StatusBadRequest, "invalid limit")
		return
	}
	entries, err := h.services.Ranking.Top(c.Request.Context(), kind, board, limit)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.Success(c, gin.H{"kind": kind, "board": board, "items": entries})
}

func (h *Handler) MyRank(c *gin.Context) {
	userID, _ := getUserID(c)
	kind, board, err := parseBoardQuery(c)
	if err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	entry, err := h.services.Ranking.Position(c.Request.Context(), kind, board, userID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.Success(c, entry)
}
