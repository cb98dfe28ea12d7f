package game

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
)

// botFallbacks are tried in order when a bot's decision is rejected.
var botFallbacks = []string{"check", "call", "stand", "fold"}

// Dispatch validates and applies one inbound action, then plays bots until a human
// is to act or the game ends.
func (s *Session) Dispatch(ctx context.Context, playerID, actionID string) error {
	if !s.processing.CompareAndSwap(false, true) {
		return ErrSessionBusy
	}
	defer s.processing.Store(false)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.player(playerID) == nil {
		return ErrNotSeated
	}
	if s.finished {
		return ErrSessionFinished
	}

	if strings.HasPrefix(actionID, AccessoryPrefix) && s.accessory != nil {
		handled, err := s.accessory.HandleAccessory(ctx, AccessoryRequest{
			SessionID: s.ID,
			PlayerID:  playerID,
			ActionID:  actionID,
		})
		if err != nil {
			return err
		}
		if handled {
			s.appendLogLocked("%s used %s", playerID, strings.TrimPrefix(actionID, AccessoryPrefix))
			s.broadcastStateLocked()
			return nil
		}
	}

	if cur := s.currentPlayerLocked(); cur == nil || cur.ID != playerID {
		return ErrNotYourTurn
	}
	if err := s.strategy.HandleAction(ctx, s, playerID, actionID); err != nil {
		return err
	}

	s.runBotsLocked(ctx)
	s.broadcastStateLocked()
	return nil
}

func (s *Session) runBotsLocked(ctx context.Context) {
	for steps := 0; steps < s.cfg.MaxBotSteps; steps++ {
		cur := s.currentPlayerLocked()
		if cur == nil || !cur.IsBot {
			return
		}
		action := s.strategy.BotDecision(s, cur.ID)
		err := s.strategy.HandleAction(ctx, s, cur.ID, action)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrIllegalAction) {
			s.log.Error("bot action failed", zap.String("playerID", cur.ID), zap.String("action", action), zap.Error(err))
			return
		}

		s.log.Warn("bot chose an illegal action", zap.String("playerID", cur.ID), zap.String("action", action), zap.Error(err))
		recovered := false
		for _, fb := range botFallbacks {
			if s.strategy.HandleAction(ctx, s, cur.ID, fb) == nil {
				recovered = true
				break
			}
		}
		if !recovered {
			s.log.Error("bot has no legal action", zap.String("playerID", cur.ID))
			return
		}
	}
	s.log.Warn("bot step limit reached", zap.Int("limit", s.cfg.MaxBotSteps))
}
