// Command tablecli plays one blackjack or poker session in the terminal against the
// in-process engine. Chips live in memory and are printed when the session ends.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"sync"
	"time"

	"cardroom-service/internal/service/game"
	"cardroom-service/internal/service/game/cards"

	"github.com/dustin/go-humanize"
	"github.com/pterm/pterm"
)

const me = "you"

// memoryLedger keeps running balances for the terminal session.
type memoryLedger struct {
	mu       sync.Mutex
	balances map[string]int64
	names    map[string]string
	result   *game.FinishRequest
}

func newMemoryLedger(start int64, players []game.PlayerSpec) *memoryLedger {
	l := &memoryLedger{balances: map[string]int64{}, names: map[string]string{}}
	for _, p := range players {
		l.balances[p.ID] = start
		l.names[p.ID] = p.DisplayName
	}
	return l
}

func (l *memoryLedger) Settle(_ context.Context, req game.SettleRequest) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[req.PlayerID] += req.Delta
	pterm.Info.Printfln("hand %d: %s %s (%s)", req.HandIndex+1, req.Outcome, signed(req.Delta), humanize.Comma(req.Stake))
	return nil
}

func (l *memoryLedger) Finish(_ context.Context, req game.FinishRequest) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if req.Kind == cards.KindPoker {
		for _, r := range req.Results {
			l.balances[r.PlayerID] += r.Net
		}
	}
	l.result = &req
	return nil
}

func (l *memoryLedger) table() pterm.TableData {
	l.mu.Lock()
	defer l.mu.Unlock()
	ids := make([]string, 0, len(l.balances))
	for id := range l.balances {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	data := pterm.TableData{{"Player", "Balance"}}
	for _, id := range ids {
		data = append(data, []string{l.names[id], humanize.Comma(l.balances[id])})
	}
	return data
}

func signed(v int64) string {
	if v > 0 {
		return pterm.LightGreen("+" + humanize.Comma(v))
	}
	if v < 0 {
		return pterm.LightRed(humanize.Comma(v))
	}
	return humanize.Comma(v)
}

func main() {
	kind := flag.String("game", "blackjack", "blackjack or poker")
	stake := flag.Int64("stake", 100, "blackjack bet or poker buy-in")
	bots := flag.Int("bots", 2, "poker opponents")
	bankroll := flag.Int64("bankroll", 1000, "starting chips")
	seed := flag.Int64("seed", 0, "deck seed, 0 for random")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	players := []game.PlayerSpec{{ID: me, DisplayName: "You"}}
	if cards.Kind(*kind) == cards.KindPoker {
		for i := 1; i <= *bots; i++ {
			players = append(players, game.PlayerSpec{ID: fmt.Sprintf("bot-%d", i), DisplayName: fmt.Sprintf("Bot %d", i), IsBot: true})
		}
	}
	ledger := newMemoryLedger(*bankroll, players)

	cfg := game.DefaultConfig()
	cfg.HandTimeout = 10 * time.Minute
	svc := game.NewService(cfg, ledger)
	defer svc.Shutdown()

	sess, err := svc.Start(ctx, game.StartRequest{
		Kind:    cards.Kind(*kind),
		Players: players,
		Stake:   *stake,
		Seed:    *seed,
	})
	if err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}

	pterm.DefaultHeader.WithFullWidth().Println(strings.ToUpper(*kind) + " " + humanize.Comma(*stake))
	if err := play(ctx, svc, sess); err != nil {
		pterm.Error.Println(err)
	}

	if ledger.result != nil && ledger.result.WinnerName != "" {
		pterm.Success.Printfln("Winner: %s", ledger.result.WinnerName)
	}
	_ = pterm.DefaultTable.WithHasHeader().WithData(ledger.table()).Render()
}

func play(ctx context.Context, svc *game.Service, sess *game.Session) error {
	updates := sess.Subscribe(me)
	defer sess.Unsubscribe(me, updates)

	lastPrompt := ""
	for {
		select {
		case <-ctx.Done():
			return svc.Abort(context.Background(), sess.ID)
		case msg, ok := <-updates:
			if !ok {
				return nil
			}
			if msg.Type != "state" {
				continue
			}
			state := sess.View(me)
			render(state)
			if state.Finished {
				return nil
			}
			key := fmt.Sprintf("%s/%d", state.Phase, len(state.Logs))
			if state.TurnPlayer != me || key == lastPrompt {
				continue
			}
			lastPrompt = key
			actionID, err := prompt(state.Choices)
			if err != nil {
				return err
			}
			if _, err := svc.HandleAction(ctx, sess.ID, me, actionID); err != nil {
				pterm.Warning.Printfln("%s: %v", game.Classify(err), err)
				lastPrompt = ""
			}
		}
	}
}

func render(state game.TableState) {
	body := state.PublicState
	if len(state.MyCards) > 0 {
		body += "\nYour cards: " + strings.Join(state.MyCards, " ")
	}
	if n := len(state.Logs); n > 0 {
		body += "\n" + pterm.Gray(state.Logs[n-1].Content)
	}
	pterm.DefaultBox.WithTitle(pterm.LightYellow(state.Phase)).WithTitleTopCenter().Println(body)
}

func prompt(choices []game.Choice) (string, error) {
	options := make([]string, 0, len(choices))
	byLabel := make(map[string]string, len(choices))
	for _, c := range choices {
		if c.Disabled {
			continue
		}
		options = append(options, c.Label)
		byLabel[c.Label] = c.ID
	}
	if len(options) == 0 {
		return "", fmt.Errorf("no legal actions")
	}
	selected, err := pterm.DefaultInteractiveSelect.WithDefaultText("Your move").WithOptions(options).Show()
	if err != nil {
		return "", err
	}
	return byLabel[selected], nil
}
