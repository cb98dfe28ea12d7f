package lobby

import (
	"context"
	"time"

	"cardroom-service/internal/model"
	"cardroom-service/internal/service/game"
)

type JoinQueueRequest struct {
	UserID   string
	Nickname string
	SceneID  int64
	IP       string
}

type CancelQueueRequest struct {
	UserID string
	Reason string
}

type QueueStatus string

const (
	QueueStatusIdle    QueueStatus = "idle"
	QueueStatusQueued  QueueStatus = "queued"
	QueueStatusMatched QueueStatus = "matched"
)

type StatusResult struct {
	Status    QueueStatus `json:"status"`
	SceneID   int64       `json:"sceneId,omitempty"`
	SessionID *string     `json:"sessionId,omitempty"`
	JoinedAt  *time.Time  `json:"joinedAt,omitempty"`
}

type queueMember struct {
	UserID          string    `json:"userId"`
	Nickname        string    `json:"nickname"`
	SceneID         int64     `json:"sceneId"`
	IP              string    `json:"ip"`
	BalanceSnapshot int64     `json:"balanceSnapshot"`
	JoinedAt        time.Time `json:"joinedAt"`
}

type matchNotifyPayload struct {
	SceneID   int64  `json:"sceneId"`
	SessionID string `json:"sessionId"`
}

// SessionStarter is the engine entry point the matcher seats players through.
type SessionStarter interface {
	Start(ctx context.Context, req game.StartRequest) (*game.Session, error)
}

type SceneSource interface {
	ListScenes(ctx context.Context) ([]model.Scene, error)
	Playable(ctx context.Context, id int64) (*model.Scene, error)
}

type BalanceSource interface {
	Balance(ctx context.Context, userID string) (int64, error)
}
