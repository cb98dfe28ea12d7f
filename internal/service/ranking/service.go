package ranking

import (
	"context"
	"fmt"

	"cardroom-service/internal/service/game"
	"cardroom-service/internal/service/game/cards"
	"cardroom-service/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Board string

const (
	BoardNet  Board = "net"
	BoardWins Board = "wins"

	maxTop = 100
)

type Entry struct {
	Rank     int64   `json:"rank"`
	PlayerID string  `json:"playerId"`
	Name     string  `json:"name"`
	Score    float64 `json:"score"`
}

// Service keeps per-kind leaderboards in redis sorted sets. It is a game.Ledger so the
// engine feeds it the same finish events the wallet sees.
type Service struct {
	rdb *redis.Client
}

var _ game.Ledger = (*Service)(nil)

func NewService(rdb *redis.Client) *Service {
	return &Service{rdb: rdb}
}

func ParseBoard(v string) (Board, error) {
	switch Board(v) {
	case BoardNet, BoardWins:
		return Board(v), nil
	case "":
		return BoardNet, nil
	}
	return "", fmt.Errorf("unknown leaderboard %q", v)
}

func boardKey(kind cards.Kind, board Board) string {
	return fmt.Sprintf("rank:%s:%s", kind, board)
}

func namesKey() string {
	return "rank:names"
}

// Settle is a no-op; the finish event carries each player's session net.
func (s *Service) Settle(context.Context, game.SettleRequest) error { return nil }

func (s *Service) Finish(ctx context.Context, req game.FinishRequest) error {
	var humans []game.PlayerResult
	for _, r := range req.Results {
		if !r.IsBot {
			humans = append(humans, r)
		}
	}
	if len(humans) == 0 {
		return nil
	}

	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, r := range humans {
			pipe.HSet(ctx, namesKey(), r.PlayerID, r.DisplayName)
			pipe.ZIncrBy(ctx, boardKey(req.Kind, BoardNet), float64(r.Net), r.PlayerID)
			if req.WinnerID != nil && *req.WinnerID == r.PlayerID {
				pipe.ZIncrBy(ctx, boardKey(req.Kind, BoardWins), 1, r.PlayerID)
			}
		}
		return nil
	})
	if err != nil {
		logger.L().Warn("leaderboard update failed", zap.String("session", req.SessionID), zap.Error(err))
	}
	return err
}

// Top returns the first n entries, highest score first.
func (s *Service) Top(ctx context.Context, kind cards.Kind, board Board, n int) ([]Entry, error) {
	if n <= 0 || n > maxTop {
		n = maxTop
	}
	rows, err := s.rdb.ZRevRangeWithScores(ctx, boardKey(kind, board), 0, int64(n-1)).Result()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []Entry{}, nil
	}

	ids := make([]string, len(rows))
	for i, row := range rows {
		ids[i] = fmt.Sprint(row.Member)
	}
	names, err := s.rdb.HMGet(ctx, namesKey(), ids...).Result()
	if err != nil {
		return nil, err
	}

	out := make([]Entry, len(rows))
	for i, row := range rows {
		name, _ := names[i].(string)
		out[i] = Entry{Rank: int64(i + 1), PlayerID: ids[i], Name: name, Score: row.Score}
	}
	return out, nil
}

// Position returns the player's 1-based rank, or 0 when unranked.
func (s *Service) Position(ctx context.Context, kind cards.Kind, board Board, playerID string) (Entry, error) {
	key := boardKey(kind, board)
	rank, err := s.rdb.ZRevRank(ctx, key, playerID).Result()
	if err == redis.Nil {
		return Entry{PlayerID: playerID}, nil
	}
	if err != nil {
		return Entry{}, err
	}
	score, err := s.rdb.ZScore(ctx, key, playerID).Result()
	if err != nil {
		return Entry{}, err
	}
	name, err := s.rdb.HGet(ctx, namesKey(), playerID).Result()
	if err != nil && err != redis.Nil {
		return Entry{}, err
	}
	return Entry{Rank: rank + 1, PlayerID: playerID, Name: name, Score: score}, nil
}
