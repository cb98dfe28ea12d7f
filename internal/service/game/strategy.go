package game

import (
	"context"
	"fmt"

	"cardroom-service/internal/service/game/cards"
)

// Strategy is the rule engine of one game kind. The dispatcher owns locking, turn
// validation and rendering; a Strategy only validates and applies moves.
//
// HandleAction must validate before it mutates: a returned error leaves the session unchanged.
type Strategy interface {
	Kind() cards.Kind
	Init(ctx context.Context, s *Session) error
	HandleAction(ctx context.Context, s *Session, playerID, actionID string) error
	BotDecision(s *Session, playerID string) string
	PublicState(s *Session) string
	PlayerChoices(s *Session, playerID string) []Choice
}

// Choice is one entry of the action menu rendered for a player.
type Choice struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Disabled bool   `json:"disabled,omitempty"`
}

func newStrategy(kind cards.Kind, cfg Config) (Strategy, error) {
	switch kind {
	case cards.KindBlackjack:
		return &blackjackStrategy{cfg: cfg}, nil
	case cards.KindPoker:
		return &pokerStrategy{cfg: cfg}, nil
	default:
		return nil, fmt.Errorf("unsupported game kind %q", kind)
	}
}
