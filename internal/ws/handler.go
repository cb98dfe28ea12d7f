package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"cardroom-service/internal/service/game"
	pkgAuth "cardroom-service/pkg/auth"
	appErr "cardroom-service/pkg/errors"
	"cardroom-service/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	readTimeout  = 60 * time.Second
	writeTimeout = 5 * time.Second
	pingEvery    = 25 * time.Second
	replyBuffer  = 8
)

type Handler struct {
	gameSvc *game.Service
}

func NewHandler(gameSvc *game.Service) *Handler {
	return &Handler{gameSvc: gameSvc}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type inbound struct {
	Type string `json:"type"`
	Data struct {
		ActionID string `json:"actionId"`
	} `json:"data"`
}

type ackPayload struct {
	ActionID string         `json:"actionId"`
	Status   game.AckStatus `json:"status"`
	Message  string         `json:"message,omitempty"`
}

// HandleGameWS streams a session's state to one seated player and accepts their actions.
func (h *Handler) HandleGameWS(c *gin.Context) {
	sessionID := strings.TrimSpace(c.Param("sessionId"))
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return
	}

	token, err := getTokenFromRequest(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	claims, err := pkgAuth.ParseUserToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	userID := claims.SubjectID

	if _, err := h.gameSvc.View(sessionID, userID); err != nil {
		switch {
		case errors.Is(err, appErr.ErrSessionNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		case errors.Is(err, appErr.ErrSessionAccessDenied):
			c.JSON(http.StatusForbidden, gin.H{"error": "session access denied"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load session"})
		}
		return
	}
	sess, err := h.gameSvc.GetSession(sessionID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.L().Error("Failed to upgrade websocket", zap.Error(err))
		return
	}

	logger.L().Info("New WebSocket connection",
		zap.String("sessionID", sessionID),
		zap.String("userID", userID),
	)

	cl := newClient(conn, userID, sess, h.gameSvc)
	cl.run()
}

func getTokenFromRequest(c *gin.Context) (string, error) {
	token := strings.TrimSpace(c.Query("token"))
	if token != "" {
		return token, nil
	}
	authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			token = strings.TrimSpace(parts[1])
			if token != "" {
				return token, nil
			}
		}
	}
	return "", errors.New("missing token")
}

// client owns one connection. Only writePump writes to conn; acks go through replies.
type client struct {
	conn     *websocket.Conn
	userID   string
	sess     *game.Session
	games    *game.Service
	outbound chan game.OutgoingMessage
	replies  chan game.OutgoingMessage
	done     chan struct{}
}

func newClient(conn *websocket.Conn, userID string, sess *game.Session, games *game.Service) *client {
	conn.SetReadLimit(1 << 16)
	conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})
	return &client{
		conn:     conn,
		userID:   userID,
		sess:     sess,
		games:    games,
		outbound: sess.Subscribe(userID),
		replies:  make(chan game.OutgoingMessage, replyBuffer),
		done:     make(chan struct{}),
	}
}

func (c *client) run() {
	go c.writePump()
	c.readPump()
}

func (c *client) readPump() {
	defer func() {
		close(c.done)
		c.sess.Unsubscribe(c.userID, c.outbound)
		c.conn.Close()
	}()

	for {
		mt, message, err := c.conn.ReadMessage()
		if err != nil {
			logger.L().Info("WS read error", zap.Error(err), zap.String("userID", c.userID), zap.String("sessionID", c.sess.ID))
			return
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}

		var in inbound
		if err := json.Unmarshal(message, &in); err != nil {
			c.reply(game.OutgoingMessage{Type: "error", Data: gin.H{"message": "invalid payload"}})
			continue
		}
		switch in.Type {
		case "action":
			c.handleAction(in.Data.ActionID)
		case "view":
			c.reply(game.OutgoingMessage{Type: "state", Data: c.sess.View(c.userID)})
		case "":
		default:
			c.reply(game.OutgoingMessage{Type: "error", Data: gin.H{"message": "unknown message type"}})
		}
	}
}

func (c *client) handleAction(actionID string) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	_, err := c.games.HandleAction(ctx, c.sess.ID, c.userID, actionID)
	ack := ackPayload{ActionID: actionID, Status: game.Classify(err)}
	if err != nil {
		ack.Message = err.Error()
	}
	c.reply(game.OutgoingMessage{Type: "ack", Data: ack})
}

func (c *client) reply(msg game.OutgoingMessage) {
	select {
	case c.replies <- msg:
	default:
		logger.L().Warn("WS reply dropped", zap.String("userID", c.userID), zap.String("type", msg.Type))
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingEvery)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.outbound:
			if !ok {
				return
			}
			if !c.write(msg) {
				return
			}
		case msg := <-c.replies:
			if !c.write(msg) {
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(writeTimeout)); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *client) write(msg game.OutgoingMessage) bool {
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := c.conn.WriteJSON(msg); err != nil {
		logger.L().Info("WS write error", zap.Error(err), zap.String("userID", c.userID), zap.String("sessionID", c.sess.ID))
		return false
	}
	return true
}
