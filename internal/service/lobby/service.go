package lobby

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	appErr "cardroom-service/pkg/errors"
	"cardroom-service/pkg/logger"

	"github.com/redis/go-redis/v9"
	"github.com/sourcegraph/conc"
	"go.uber.org/zap"
)

var errQueueMemberNotFound = errors.New("queue member not found")

type Config struct {
	QueueLockTTL        time.Duration
	QueueMemberTTL      time.Duration
	QueueTimeout        time.Duration
	MatchedNotifyTTL    time.Duration
	MatcherInterval     time.Duration
	CandidateMultiplier int
	// Now is the clock used for queue ages and bot fill; tests pin it.
	Now func() time.Time
}

func DefaultConfig() Config {
	return Config{
		QueueLockTTL:        10 * time.Second,
		QueueMemberTTL:      3 * time.Minute,
		QueueTimeout:        3 * time.Minute,
		MatchedNotifyTTL:    5 * time.Minute,
		MatcherInterval:     500 * time.Millisecond,
		CandidateMultiplier: 3,
		Now:                 time.Now,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.QueueLockTTL <= 0 {
		c.QueueLockTTL = d.QueueLockTTL
	}
	if c.QueueMemberTTL <= 0 {
		c.QueueMemberTTL = d.QueueMemberTTL
	}
	if c.QueueTimeout < 0 {
		c.QueueTimeout = 0
	}
	if c.MatchedNotifyTTL <= 0 {
		c.MatchedNotifyTTL = d.MatchedNotifyTTL
	}
	if c.MatcherInterval <= 0 {
		c.MatcherInterval = d.MatcherInterval
	}
	if c.CandidateMultiplier <= 0 {
		c.CandidateMultiplier = d.CandidateMultiplier
	}
	if c.Now == nil {
		c.Now = d.Now
	}
	return c
}

// Service is the redis-backed matchmaking queue in front of the engine.
type Service struct {
	rdb      *redis.Client
	games    SessionStarter
	scenes   SceneSource
	balances BalanceSource
	locker   *RedisLocker
	cfg      Config

	wg conc.WaitGroup
}

func NewService(rdb *redis.Client, games SessionStarter, scenes SceneSource, balances BalanceSource, locker *RedisLocker, cfg Config) *Service {
	return &Service{
		rdb:      rdb,
		games:    games,
		scenes:   scenes,
		balances: balances,
		locker:   locker,
		cfg:      cfg.withDefaults(),
	}
}

func (s *Service) JoinQueue(ctx context.Context, req JoinQueueRequest) error {
	scene, err := s.scenes.Playable(ctx, req.SceneID)
	if err != nil {
		return err
	}

	if s.locker != nil {
		active, err := s.locker.Active(ctx, req.UserID)
		if err != nil {
			return err
		}
		if active != "" {
			return appErr.ErrAlreadyInGame
		}
	}

	balance, err := s.balances.Balance(ctx, req.UserID)
	if err != nil {
		return err
	}
	if balance < scene.Stake {
		return appErr.ErrInsufficientBalance
	}

	lockKey := buildQueueLockKey(req.UserID)
	gotLock, err := s.rdb.SetNX(ctx, lockKey, scene.ID, s.cfg.QueueLockTTL).Result()
	if err != nil {
		return err
	}
	if !gotLock {
		return appErr.ErrQueueProcessing
	}
	defer s.rdb.Del(ctx, lockKey)

	if _, err := s.loadQueueMember(ctx, req.UserID); err == nil {
		return appErr.ErrAlreadyInQueue
	} else if err != errQueueMemberNotFound {
		return err
	}

	now := s.cfg.Now()
	member := queueMember{
		UserID:          req.UserID,
		Nickname:        req.Nickname,
		SceneID:         scene.ID,
		IP:              req.IP,
		BalanceSnapshot: balance,
		JoinedAt:        now,
	}
	if err := s.saveQueueMember(ctx, member); err != nil {
		return err
	}
	s.rdb.Del(ctx, buildMatchNotifyKey(req.UserID))

	score := float64(now.UnixMilli())
	if err := s.rdb.ZAdd(ctx, buildQueueKey(scene.ID), redis.Z{
		Score:  score,
		Member: req.UserID,
	}).Err(); err != nil {
		s.removeQueueMember(ctx, req.UserID)
		return err
	}

	logger.L().Info("user joined queue",
		zap.String("userID", req.UserID),
		zap.Int64("sceneID", scene.ID),
		zap.Float64("score", score),
	)
	return nil
}

func (s *Service) CancelQueue(ctx context.Context, req CancelQueueRequest) error {
	member, err := s.loadQueueMember(ctx, req.UserID)
	if err != nil && err != errQueueMemberNotFound {
		return err
	}
	if err == nil {
		if err := s.rdb.ZRem(ctx, buildQueueKey(member.SceneID), req.UserID).Err(); err != nil && err != redis.Nil {
			return err
		}
	}
	s.removeQueueMember(ctx, req.UserID)
	s.rdb.Del(ctx, buildMatchNotifyKey(req.UserID))

	reason := req.Reason
	if reason == "" {
		reason = "user"
	}
	logger.L().Info("queue cancelled",
		zap.String("userID", req.UserID),
		zap.Int64("sceneID", member.SceneID),
		zap.String("reason", reason),
	)
	return nil
}

func (s *Service) GetStatus(ctx context.Context, userID string) (*StatusResult, error) {
	payloadStr, err := s.rdb.Get(ctx, buildMatchNotifyKey(userID)).Result()
	if err == nil {
		var payload matchNotifyPayload
		if jsonErr := json.Unmarshal([]byte(payloadStr), &payload); jsonErr == nil {
			return &StatusResult{
				Status:    QueueStatusMatched,
				SceneID:   payload.SceneID,
				SessionID: &payload.SessionID,
			}, nil
		}
	} else if err != redis.Nil {
		return nil, err
	}

	member, err := s.loadQueueMember(ctx, userID)
	if err == nil {
		joined := member.JoinedAt
		return &StatusResult{
			Status:   QueueStatusQueued,
			SceneID:  member.SceneID,
			JoinedAt: &joined,
		}, nil
	}
	if err != errQueueMemberNotFound {
		return nil, err
	}
	return &StatusResult{Status: QueueStatusIdle}, nil
}

func (s *Service) saveQueueMember(ctx context.Context, member queueMember) error {
	data, err := json.Marshal(member)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, buildQueueMemberKey(member.UserID), data, s.cfg.QueueMemberTTL).Err()
}

func (s *Service) loadQueueMember(ctx context.Context, userID string) (queueMember, error) {
	var member queueMember
	data, err := s.rdb.Get(ctx, buildQueueMemberKey(userID)).Result()
	if err != nil {
		if err == redis.Nil {
			return member, errQueueMemberNotFound
		}
		return member, err
	}
	if err := json.Unmarshal([]byte(data), &member); err != nil {
		return member, err
	}
	return member, nil
}

func (s *Service) removeQueueMember(ctx context.Context, userID string) {
	s.rdb.Del(ctx, buildQueueMemberKey(userID))
}

func (s *Service) cleanupExpiredQueue(ctx context.Context, sceneID int64) error {
	if s.cfg.QueueTimeout <= 0 {
		return nil
	}
	deadline := s.cfg.Now().Add(-s.cfg.QueueTimeout).UnixMilli()
	maxScore := strconv.FormatFloat(float64(deadline), 'f', 0, 64)

	members, err := s.rdb.ZRangeByScore(ctx, buildQueueKey(sceneID), &redis.ZRangeBy{
		Min: "-inf",
		Max: maxScore,
	}).Result()
	if err != nil {
		if err == redis.Nil {
			return nil
		}
		return err
	}

	for _, userID := range members {
		if err := s.CancelQueue(ctx, CancelQueueRequest{UserID: userID, Reason: "timeout"}); err != nil {
			logger.L().Warn("queue timeout cancel failed",
				zap.String("userID", userID),
				zap.Int64("sceneID", sceneID),
				zap.Error(err),
			)
			continue
		}
		// a member key that expired first leaves the zset entry behind
		s.rdb.ZRem(ctx, buildQueueKey(sceneID), userID)
	}
	return nil
}

func buildQueueKey(sceneID int64) string {
	return fmt.Sprintf("queue:%d", sceneID)
}

func buildQueueMemberKey(userID string) string {
	return fmt.Sprintf("queue:member:%s", userID)
}

func buildQueueLockKey(userID string) string {
	return fmt.Sprintf("queue:lock:%s", userID)
}

func buildMatchNotifyKey(userID string) string {
	return fmt.Sprintf("match:pending:%s", userID)
}
