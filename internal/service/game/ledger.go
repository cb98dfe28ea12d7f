package game

import (
	"context"
	"errors"

	"cardroom-service/internal/service/game/cards"
)

//go:generate mockgen -destination=mocks/mock_ledger.go -package=mocks cardroom-service/internal/service/game Ledger,AccessoryHandler,SessionLocker

type Outcome string

const (
	OutcomeWin     Outcome = "win"
	OutcomeLose    Outcome = "lose"
	OutcomePush    Outcome = "push"
	OutcomeRefund  Outcome = "refund"
	OutcomeForfeit Outcome = "forfeit"
)

// SettleRequest is the stake delta of one blackjack hand.
type SettleRequest struct {
	SessionID string
	PlayerID  string
	IsBot     bool
	HandIndex int
	Stake     int64
	Delta     int64
	Outcome   Outcome
}

type PlayerResult struct {
	PlayerID    string `json:"playerId"`
	DisplayName string `json:"displayName"`
	IsBot       bool   `json:"isBot"`
	Net         int64  `json:"net"`
	Hand        string `json:"hand,omitempty"`
}

// FinishRequest is emitted once per session. WinnerID is nil when the house wins or nobody does.
type FinishRequest struct {
	SessionID  string         `json:"sessionId"`
	Kind       cards.Kind     `json:"kind"`
	SceneID    int64          `json:"sceneId,omitempty"`
	WinnerName string         `json:"winnerName"`
	WinnerID   *string        `json:"winnerId"`
	Results    []PlayerResult `json:"results,omitempty"`
}

// Ledger is the economy collaborator. The engine calls Settle at most once per hand and
// Finish at most once per session.
type Ledger interface {
	Settle(ctx context.Context, req SettleRequest) error
	Finish(ctx context.Context, req FinishRequest) error
}

// AccessoryPrefix marks action ids owned by the accessory collaborator.
const AccessoryPrefix = "shop_"

type AccessoryRequest struct {
	SessionID string
	PlayerID  string
	ActionID  string
}

// AccessoryHandler gets first refusal on accessory actions; handled=false falls through to the game.
type AccessoryHandler interface {
	HandleAccessory(ctx context.Context, req AccessoryRequest) (handled bool, err error)
}

// SessionLocker keeps a player in at most one live session.
type SessionLocker interface {
	Acquire(ctx context.Context, playerID, sessionID string) error
	Release(ctx context.Context, playerID, sessionID string) error
}

type nopLedger struct{}

func (nopLedger) Settle(context.Context, SettleRequest) error { return nil }
func (nopLedger) Finish(context.Context, FinishRequest) error { return nil }

// NopLedger discards settlements.
func NopLedger() Ledger { return nopLedger{} }

type chainLedger []Ledger

// ChainLedger forwards every call to each ledger in order and joins their errors.
func ChainLedger(ledgers ...Ledger) Ledger {
	out := make(chainLedger, 0, len(ledgers))
	for _, l := range ledgers {
		if l != nil {
			out = append(out, l)
		}
	}
	return out
}

func (c chainLedger) Settle(ctx context.Context, req SettleRequest) error {
	var errs []error
	for _, l := range c {
		if err := l.Settle(ctx, req); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (c chainLedger) Finish(ctx context.Context, req FinishRequest) error {
	var errs []error
	for _, l := range c {
		if err := l.Finish(ctx, req); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
