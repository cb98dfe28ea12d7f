package game_test

import (
	"context"
	"sync"
	"testing"

	"cardroom-service/internal/service/game"
	"cardroom-service/internal/service/game/cards"
)

type recordingLedger struct {
	mu       sync.Mutex
	settles  []game.SettleRequest
	finishes []game.FinishRequest
}

func (l *recordingLedger) Settle(_ context.Context, req game.SettleRequest) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.settles = append(l.settles, req)
	return nil
}

func (l *recordingLedger) Finish(_ context.Context, req game.FinishRequest) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.finishes = append(l.finishes, req)
	return nil
}

func (l *recordingLedger) Settles() []game.SettleRequest {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]game.SettleRequest(nil), l.settles...)
}

func (l *recordingLedger) Finishes() []game.FinishRequest {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]game.FinishRequest(nil), l.finishes...)
}

func newTestService(t *testing.T, cfg game.Config, ledger game.Ledger, opts ...game.Option) *game.Service {
	t.Helper()
	svc := game.NewService(cfg, ledger, opts...)
	t.Cleanup(svc.Shutdown)
	return svc
}

func stackedDeck(codes string) *cards.Deck {
	return cards.NewDeck(cards.MustParseCards(codes))
}

func human(id string) game.PlayerSpec {
	return game.PlayerSpec{ID: id, DisplayName: id}
}

func bot(id string) game.PlayerSpec {
	return game.PlayerSpec{ID: id, DisplayName: id, IsBot: true}
}

func choiceIDs(choices []game.Choice, enabledOnly bool) []string {
	out := make([]string, 0, len(choices))
	for _, c := range choices {
		if enabledOnly && c.Disabled {
			continue
		}
		out = append(out, c.ID)
	}
	return out
}

func netSum(results []game.PlayerResult) int64 {
	var sum int64
	for _, r := range results {
		sum += r.Net
	}
	return sum
}
