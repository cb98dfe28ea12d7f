package game

import (
	"context"
	"math"

	"go.uber.org/zap"
)

// payout is the win amount for a stake at the given multiplier.
func payout(stake int64, multiplier float64) int64 {
	if multiplier <= 0 {
		multiplier = 1
	}
	return int64(math.Round(float64(stake) * multiplier))
}

// settleLocked forwards one hand result to the ledger. Callers mark the hand settled
// first so a failing ledger is never retried from here.
func (s *Session) settleLocked(ctx context.Context, req SettleRequest) {
	req.SessionID = s.ID
	s.appendLogLocked("%s hand %d: %s %+d", req.PlayerID, req.HandIndex+1, req.Outcome, req.Delta)
	if err := s.ledger.Settle(ctx, req); err != nil {
		s.log.Error("ledger settle failed",
			zap.String("playerID", req.PlayerID),
			zap.Int("hand", req.HandIndex),
			zap.Int64("delta", req.Delta),
			zap.Error(err),
		)
	}
}

// finishLocked emits the terminal outcome exactly once.
func (s *Session) finishLocked(ctx context.Context, req FinishRequest) error {
	if s.finished {
		return ErrSessionFinished
	}
	req.SessionID = s.ID
	req.Kind = s.Kind
	req.SceneID = s.SceneID
	s.result = &req
	if req.WinnerName != "" {
		s.appendLogLocked("game over, winner: %s", req.WinnerName)
	} else {
		s.appendLogLocked("game over")
	}
	s.terminateLocked()

	if err := s.ledger.Finish(ctx, req); err != nil {
		s.log.Error("ledger finish failed", zap.String("winner", req.WinnerName), zap.Error(err))
	}
	s.log.Info("session finished", zap.String("winner", req.WinnerName))
	return nil
}

// Finish ends the session from outside the strategy (admin abort, shutdown).
// A second call returns ErrSessionFinished and does not reach the ledger.
func (s *Session) Finish(ctx context.Context, winnerName string, winnerID *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.finishLocked(ctx, FinishRequest{WinnerName: winnerName, WinnerID: winnerID}); err != nil {
		return err
	}
	s.broadcastStateLocked()
	return nil
}

func strPtr(v string) *string { return &v }
