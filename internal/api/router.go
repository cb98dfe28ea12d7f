package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cardroom-service/internal/middleware"
	"cardroom-service/internal/service"
	"cardroom-service/internal/service/game"
	"cardroom-service/internal/ws"
	appErr "cardroom-service/pkg/errors"
	"cardroom-service/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	services *service.Container
}

func RegisterRoutes(r *gin.Engine, services *service.Container) {
	handler := &Handler{services: services}
	wsHandler := ws.NewHandler(services.Game)

	r.GET("/ping", func(c *gin.Context) {
		response.Success(c, gin.H{"message": "pong", "sessions": services.Game.ActiveSessions()})
	})

	v1 := r.Group("/cardroom/v1")
	{
		v1.POST("/auth/guest", handler.GuestLogin)
		v1.GET("/scenes", handler.ListScenes)
		v1.GET("/leaderboard", handler.Leaderboard)

		player := v1.Group("/")
		player.Use(middleware.AuthRequired())
		{
			player.POST("/auth/refresh", handler.RefreshToken)
			player.GET("/user/profile", handler.GetProfile)
			player.PUT("/user/profile", handler.UpdateProfile)
			player.GET("/wallet", handler.GetWallet)
			player.GET("/wallet/billing", handler.ListBilling)
			player.GET("/leaderboard/me", handler.MyRank)

			player.POST("/games/blackjack", handler.StartBlackjack)
			player.POST("/games/poker", handler.StartPokerPractice)
			player.GET("/games/:sessionId", handler.ViewGame)
			player.POST("/games/:sessionId/actions", handler.GameAction)

			player.POST("/lobby/join", handler.LobbyJoin)
			player.POST("/lobby/cancel", handler.LobbyCancel)
			player.GET("/lobby/status", handler.LobbyStatus)
		}

		adminGroup := v1.Group("/admin")
		{
			adminGroup.POST("/auth/login", handler.AdminLogin)

			protected := adminGroup.Group("/")
			protected.Use(middleware.AdminAuthRequired())
			{
				protected.GET("/me", handler.AdminProfile)
				protected.PUT("/me/password", handler.AdminChangePassword)

				protected.GET("/scenes", handler.AdminListScenes)
				protected.POST("/scenes", handler.AdminCreateScene)
				protected.PUT("/scenes/:id", handler.AdminUpdateScene)

				protected.GET("/rake_rules", handler.AdminListRakeRules)
				protected.POST("/rake_rules", handler.AdminCreateRakeRule)
				protected.PUT("/rake_rules/:id", handler.AdminUpdateRakeRule)

				protected.GET("/users", handler.AdminListUsers)
				protected.GET("/users/:id", handler.AdminGetUser)
				protected.PUT("/users/:id/status", handler.AdminUpdateUserStatus)
				protected.POST("/users/:id/credit", handler.AdminCreditUser)

				protected.POST("/sessions/:sessionId/abort", handler.AdminAbortSession)
			}
		}
	}

	r.GET("/ws/game/:sessionId", wsHandler.HandleGameWS)
}

// handleGameError maps engine and economy errors onto HTTP statuses.
func (h *Handler) handleGameError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, appErr.ErrSessionNotFound), errors.Is(err, appErr.ErrSceneNotFound), errors.Is(err, appErr.ErrUserNotFound):
		response.Error(c, http.StatusNotFound, err.Error())
	case errors.Is(err, appErr.ErrSessionAccessDenied), errors.Is(err, appErr.ErrUserBanned), errors.Is(err, appErr.ErrSceneDisabled):
		response.Error(c, http.StatusForbidden, err.Error())
	case errors.Is(err, appErr.ErrInvalidStake), errors.Is(err, appErr.ErrUnsupportedGame),
		errors.Is(err, appErr.ErrInsufficientBalance), errors.Is(err, game.ErrIllegalAction):
		response.Error(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, appErr.ErrAlreadyInGame), errors.Is(err, appErr.ErrAlreadyInQueue), errors.Is(err, game.ErrSessionBusy):
		response.Error(c, http.StatusConflict, err.Error())
	case errors.Is(err, game.ErrSessionFinished):
		response.Error(c, http.StatusGone, err.Error())
	case errors.Is(err, appErr.ErrQueueProcessing), errors.Is(err, appErr.ErrTooManyRequests):
		response.Error(c, http.StatusTooManyRequests, err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, err.Error())
	}
}

func parsePositiveIntQuery(c *gin.Context, key string, defaultVal int) (int, error) {
	val := c.Query(key)
	if val == "" {
		return defaultVal, nil
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return parsed, nil
}

func parseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}

func getUserID(c *gin.Context) (string, bool) {
	id := middleware.UserID(c)
	return id, id != ""
}

func getAdminID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.GetString(middleware.ContextAdminIDKey), 10, 64)
	return id, err == nil && id > 0
}

func parseTimeWithLayouts(value string) (*time.Time, error) {
	layouts := []string{
		time.RFC3339,
		"2006-01-02 15:04:05",
	}
	for _, layout := range layouts {
		if ts, err := time.ParseInLocation(layout, strings.TrimSpace(value), time.Local); err == nil {
			return &ts, nil
		}
	}
	return nil, fmt.Errorf("invalid effectiveAt, expected RFC3339 or '2006-01-02 15:04:05'")
}
