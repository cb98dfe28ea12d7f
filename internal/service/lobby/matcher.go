package lobby

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cardroom-service/internal/model"
	"cardroom-service/internal/service/game"
	"cardroom-service/internal/service/game/cards"
	"cardroom-service/pkg/logger"
	netutil "cardroom-service/pkg/utils/net"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sourcegraph/conc"
	"go.uber.org/zap"
)

// Run drives the matcher until ctx is cancelled. Call Wait after cancelling to drain.
func (s *Service) Run(ctx context.Context) {
	s.wg.Go(func() {
		logger.L().Info("matcher started", zap.Duration("interval", s.cfg.MatcherInterval))
		ticker := time.NewTicker(s.cfg.MatcherInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				logger.L().Info("matcher stopped")
				return
			case <-ticker.C:
				if err := s.Tick(ctx); err != nil {
					logger.L().Warn("matcher tick error", zap.Error(err))
				}
			}
		}
	})
}

func (s *Service) Wait() {
	s.wg.Wait()
}

// Tick runs one compose pass over every enabled scene, scenes in parallel.
func (s *Service) Tick(ctx context.Context) error {
	scenes, err := s.scenes.ListScenes(ctx)
	if err != nil {
		return err
	}

	var wg conc.WaitGroup
	for _, scene := range scenes {
		scene := scene
		wg.Go(func() {
			if err := s.tryCompose(ctx, scene); err != nil {
				logger.L().Warn("matcher compose error",
					zap.Int64("sceneID", scene.ID),
					zap.Error(err),
				)
			}
		})
	}
	wg.Wait()
	return nil
}

func (s *Service) tryCompose(ctx context.Context, scene model.Scene) error {
	if err := s.cleanupExpiredQueue(ctx, scene.ID); err != nil {
		logger.L().Warn("queue cleanup error",
			zap.Int64("sceneID", scene.ID),
			zap.Error(err),
		)
	}
	if scene.SeatCount <= 0 {
		return nil
	}

	rangeEnd := int64(scene.SeatCount*s.cfg.CandidateMultiplier - 1)
	members, err := s.rdb.ZRange(ctx, buildQueueKey(scene.ID), 0, rangeEnd).Result()
	if err != nil {
		return err
	}
	if len(members) == 0 {
		return nil
	}

	candidates := make([]queueMember, 0, len(members))
	for _, userID := range members {
		qm, err := s.loadQueueMember(ctx, userID)
		if err != nil {
			if err == errQueueMemberNotFound {
				continue
			}
			return err
		}
		if qm.SceneID != scene.ID {
			continue
		}
		candidates = append(candidates, qm)
	}

	selected := selectPlayers(scene, candidates)
	if len(selected) == 0 {
		return nil
	}
	bots := 0
	if len(selected) < scene.SeatCount {
		if !s.botFillDue(scene, selected) {
			return nil
		}
		bots = scene.SeatCount - len(selected)
	}

	return s.composeTable(ctx, scene, selected, bots)
}

func selectPlayers(scene model.Scene, candidates []queueMember) []queueMember {
	required := scene.SeatCount
	selected := make([]queueMember, 0, required)

	for _, candidate := range candidates {
		if len(selected) >= required {
			break
		}
		if candidate.BalanceSnapshot < scene.Stake {
			continue
		}
		if scene.SeparateSubnet && !passesNetwork(selected, candidate) {
			continue
		}
		selected = append(selected, candidate)
	}
	return selected
}

func passesNetwork(selected []queueMember, candidate queueMember) bool {
	for _, existing := range selected {
		if netutil.SameSubnet(existing.IP, candidate.IP) {
			return false
		}
	}
	return true
}

// botFillDue reports whether the longest waiter has waited out the scene's bot delay.
func (s *Service) botFillDue(scene model.Scene, selected []queueMember) bool {
	if scene.BotFillSeconds <= 0 || cards.Kind(scene.Kind) != cards.KindPoker {
		return false
	}
	oldest := selected[0].JoinedAt
	for _, m := range selected[1:] {
		if m.JoinedAt.Before(oldest) {
			oldest = m.JoinedAt
		}
	}
	return s.cfg.Now().Sub(oldest) >= time.Duration(scene.BotFillSeconds)*time.Second
}

func (s *Service) composeTable(ctx context.Context, scene model.Scene, players []queueMember, bots int) error {
	queueKey := buildQueueKey(scene.ID)
	taken := make([]queueMember, 0, len(players))
	for _, player := range players {
		removed, err := s.rdb.ZRem(ctx, queueKey, player.UserID).Result()
		if err != nil {
			s.requeue(ctx, scene, taken)
			return err
		}
		if removed == 0 {
			// cancelled while we were composing
			s.requeue(ctx, scene, taken)
			return nil
		}
		taken = append(taken, player)
	}

	specs := make([]game.PlayerSpec, 0, len(players)+bots)
	for _, player := range players {
		specs = append(specs, game.PlayerSpec{ID: player.UserID, DisplayName: player.Nickname})
	}
	for i := 0; i < bots; i++ {
		specs = append(specs, game.PlayerSpec{
			ID:          "bot-" + uuid.NewString()[:8],
			DisplayName: fmt.Sprintf("Bot %d", i+1),
			IsBot:       true,
		})
	}

	sess, err := s.games.Start(ctx, game.StartRequest{
		Kind:       cards.Kind(scene.Kind),
		Players:    specs,
		Stake:      scene.Stake,
		Multiplier: scene.Multiplier,
		SceneID:    scene.ID,
	})
	if err != nil {
		s.requeueIdle(ctx, scene, players)
		return err
	}

	data, _ := json.Marshal(matchNotifyPayload{SceneID: scene.ID, SessionID: sess.ID})
	for _, player := range players {
		s.removeQueueMember(ctx, player.UserID)
		s.rdb.Set(ctx, buildMatchNotifyKey(player.UserID), data, s.cfg.MatchedNotifyTTL)
	}

	logger.L().Info("match composed",
		zap.Int64("sceneID", scene.ID),
		zap.String("sessionID", sess.ID),
		zap.Int("players", len(players)),
		zap.Int("bots", bots),
	)
	return nil
}

func (s *Service) requeue(ctx context.Context, scene model.Scene, members []queueMember) {
	for _, m := range members {
		s.rdb.ZAdd(ctx, buildQueueKey(scene.ID), redis.Z{
			Score:  float64(m.JoinedAt.UnixMilli()),
			Member: m.UserID,
		})
	}
}

// requeueIdle puts back the players who are not seated elsewhere; the rest leave the queue.
func (s *Service) requeueIdle(ctx context.Context, scene model.Scene, members []queueMember) {
	idle := make([]queueMember, 0, len(members))
	for _, m := range members {
		if s.locker != nil {
			if active, err := s.locker.Active(ctx, m.UserID); err == nil && active != "" {
				s.removeQueueMember(ctx, m.UserID)
				continue
			}
		}
		idle = append(idle, m)
	}
	s.requeue(ctx, scene, idle)
}
