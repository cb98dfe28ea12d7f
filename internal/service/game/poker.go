package game

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"cardroom-service/internal/service/game/cards"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

type pokerPhase string

const (
	phasePreflop  pokerPhase = "preflop"
	phaseFlop     pokerPhase = "flop"
	phaseTurn     pokerPhase = "turn"
	phaseRiver    pokerPhase = "river"
	phaseShowdown pokerPhase = "showdown"

	raisePrefix  = "raise_"
	turnTimerKey = "turn"
	boardSize    = 5
)

// pokerMeta is the betting ledger. Pot includes the bets of the current round, so
// sum(Chips)+Pot stays constant until the pot is paid out.
type pokerMeta struct {
	Phase       pokerPhase
	Round       int
	Ante        int64
	BuyIn       []int64
	Chips       []int64
	Bets        []int64
	Contributed []int64
	Acted       []bool
	CurrentBet  int64
	Pot         int64

	BestHands  map[int]cards.Hand
	Payouts    map[int]int64
	LastAction string
}

type pokerStrategy struct {
	cfg Config
}

func (p *pokerStrategy) Kind() cards.Kind { return cards.KindPoker }

func pokerState(s *Session) *pokerMeta {
	m, _ := s.meta.(*pokerMeta)
	return m
}

func (p *pokerStrategy) Init(ctx context.Context, s *Session) error {
	n := len(s.Players)
	if n < 2 || n > p.cfg.PokerMaxSeats {
		return fmt.Errorf("poker needs 2 to %d players, got %d", p.cfg.PokerMaxSeats, n)
	}
	if need := 2*n + boardSize; s.Deck.Len() < need {
		return &cards.DeckExhaustedError{Requested: need, Remaining: s.Deck.Len()}
	}

	m := &pokerMeta{
		Phase:       phasePreflop,
		Round:       1,
		Ante:        p.cfg.PokerAnte,
		BuyIn:       make([]int64, n),
		Chips:       make([]int64, n),
		Bets:        make([]int64, n),
		Contributed: make([]int64, n),
		Acted:       make([]bool, n),
		BestHands:   make(map[int]cards.Hand),
		Payouts:     make(map[int]int64),
	}
	for seat := range s.Players {
		m.BuyIn[seat] = s.Stake
		m.Chips[seat] = s.Stake
		ante := m.Ante
		if ante > m.Chips[seat] {
			ante = m.Chips[seat]
		}
		m.Chips[seat] -= ante
		m.Contributed[seat] += ante
		m.Pot += ante
	}

	hole, _ := s.Deck.Draw(2 * n)
	for i, c := range hole {
		pl := s.Players[i%n]
		pl.Hand = append(pl.Hand, c)
	}
	s.meta = m
	s.Phase = string(m.Phase)
	s.appendLogLocked("antes of %d paid, pot %d", m.Ante, m.Pot)

	if p.countCanAct(s, m) < 2 {
		p.closeRoundLocked(ctx, s, m)
		return nil
	}
	seat, _ := nextSeat(n, -1, func(i int) bool { return p.canAct(s, m, i) })
	p.setTurnLocked(s, m, seat)
	return nil
}

func (p *pokerStrategy) canAct(s *Session, m *pokerMeta, seat int) bool {
	return !s.Players[seat].Folded && m.Chips[seat] > 0
}

func (p *pokerStrategy) needsAction(s *Session, m *pokerMeta, seat int) bool {
	return p.canAct(s, m, seat) && (!m.Acted[seat] || m.Bets[seat] < m.CurrentBet)
}

func (p *pokerStrategy) countCanAct(s *Session, m *pokerMeta) int {
	count := 0
	for seat := range s.Players {
		if p.canAct(s, m, seat) {
			count++
		}
	}
	return count
}

func (p *pokerStrategy) liveSeats(s *Session) []int {
	live := make([]int, 0, len(s.Players))
	for seat, pl := range s.Players {
		if !pl.Folded {
			live = append(live, seat)
		}
	}
	return live
}

func (p *pokerStrategy) roundComplete(s *Session, m *pokerMeta) bool {
	for seat := range s.Players {
		if p.needsAction(s, m, seat) {
			return false
		}
	}
	return true
}

// pay moves chips from a stack into the pot.
func (m *pokerMeta) pay(seat int, amount int64) {
	m.Chips[seat] -= amount
	m.Bets[seat] += amount
	m.Contributed[seat] += amount
	m.Pot += amount
}

func parseRaise(actionID string) (int64, bool) {
	if !strings.HasPrefix(actionID, raisePrefix) {
		return 0, false
	}
	n, err := strconv.ParseInt(strings.TrimPrefix(actionID, raisePrefix), 10, 64)
	if err != nil {
		return 0, true
	}
	return n, true
}

func (p *pokerStrategy) HandleAction(ctx context.Context, s *Session, playerID, actionID string) error {
	m := pokerState(s)
	if m == nil {
		return fmt.Errorf("poker session %s has no state", s.ID)
	}
	seat := s.playerIndex(playerID)
	if seat < 0 || seat != s.TurnIndex {
		return ErrNotYourTurn
	}
	pl := s.Players[seat]
	owed := m.CurrentBet - m.Bets[seat]

	switch {
	case actionID == "fold":
		pl.Folded = true
		m.LastAction = fmt.Sprintf("%s folds", pl.DisplayName)

	case actionID == "check":
		if owed > 0 {
			return illegal(actionID, "cannot check, must call %d, raise or fold", owed)
		}
		m.LastAction = fmt.Sprintf("%s checks", pl.DisplayName)

	case actionID == "call":
		if owed <= 0 {
			return illegal(actionID, "nothing to call, check instead")
		}
		amount := owed
		if amount > m.Chips[seat] {
			amount = m.Chips[seat]
		}
		m.pay(seat, amount)
		m.LastAction = fmt.Sprintf("%s calls %d", pl.DisplayName, amount)

	case strings.HasPrefix(actionID, raisePrefix):
		n, _ := parseRaise(actionID)
		if n <= 0 {
			return illegal(actionID, "raise amount must be positive")
		}
		if n > m.Chips[seat] {
			return illegal(actionID, "raise of %d exceeds stack of %d", n, m.Chips[seat])
		}
		newTotal := m.CurrentBet + n
		cost := newTotal - m.Bets[seat]
		if cost <= 0 || cost > m.Chips[seat] {
			return illegal(actionID, "raise needs %d chips, stack is %d", cost, m.Chips[seat])
		}
		m.pay(seat, cost)
		if newTotal > m.CurrentBet {
			m.CurrentBet = newTotal
		}
		for i := range m.Acted {
			m.Acted[i] = false
		}
		m.LastAction = fmt.Sprintf("%s raises to %d", pl.DisplayName, newTotal)

	default:
		return illegal(actionID, "unknown poker action")
	}

	m.Acted[seat] = true
	s.appendLogLocked("%s", m.LastAction)
	p.advanceLocked(ctx, s, m, seat)
	return nil
}

func (p *pokerStrategy) advanceLocked(ctx context.Context, s *Session, m *pokerMeta, from int) {
	if live := p.liveSeats(s); len(live) == 1 {
		p.awardUncontestedLocked(ctx, s, m, live[0])
		return
	}
	if p.roundComplete(s, m) {
		p.closeRoundLocked(ctx, s, m)
		return
	}
	seat, ok := nextSeat(len(s.Players), from, func(i int) bool { return p.needsAction(s, m, i) })
	if !ok {
		p.closeRoundLocked(ctx, s, m)
		return
	}
	p.setTurnLocked(s, m, seat)
}

// closeRoundLocked deals the next street, running the board out while fewer than two
// players can still bet.
func (p *pokerStrategy) closeRoundLocked(ctx context.Context, s *Session, m *pokerMeta) {
	for {
		for i := range m.Bets {
			m.Bets[i] = 0
			m.Acted[i] = false
		}
		m.CurrentBet = 0

		var deal int
		switch m.Phase {
		case phasePreflop:
			m.Phase, deal = phaseFlop, 3
		case phaseFlop:
			m.Phase, deal = phaseTurn, 1
		case phaseTurn:
			m.Phase, deal = phaseRiver, 1
		default:
			p.showdownLocked(ctx, s, m)
			return
		}
		dealt, err := s.Deck.Draw(deal)
		if err != nil {
			s.log.Error("board deal failed", zap.Error(err))
			p.showdownLocked(ctx, s, m)
			return
		}
		s.Table = append(s.Table, dealt...)
		m.Round++
		s.Phase = string(m.Phase)
		s.appendLogLocked("%s: %s", m.Phase, cards.Faces(s.Table))

		if p.countCanAct(s, m) < 2 {
			continue
		}
		seat, _ := nextSeat(len(s.Players), -1, func(i int) bool { return p.canAct(s, m, i) })
		p.setTurnLocked(s, m, seat)
		return
	}
}

func (p *pokerStrategy) setTurnLocked(s *Session, m *pokerMeta, seat int) {
	s.TurnIndex = seat
	s.cancelTimerLocked(turnTimerKey)
	if p.cfg.PokerTurnTimeout <= 0 || seat < 0 || s.Players[seat].IsBot {
		return
	}
	actor := s.Players[seat].ID
	s.armTimerLocked(turnTimerKey, p.cfg.PokerTurnTimeout, func(ctx context.Context) {
		cur := s.currentPlayerLocked()
		if cur == nil || cur.ID != actor {
			return
		}
		s.log.Warn("turn timeout auto-fold", zap.String("playerID", actor))
		if err := p.HandleAction(ctx, s, actor, "fold"); err != nil {
			s.log.Error("auto-fold failed", zap.Error(err))
		}
	})
}

func (p *pokerStrategy) awardUncontestedLocked(ctx context.Context, s *Session, m *pokerMeta, seat int) {
	m.Chips[seat] += m.Pot
	m.Payouts[seat] += m.Pot
	s.appendLogLocked("%s takes the pot of %d uncontested", s.Players[seat].DisplayName, m.Pot)
	m.Pot = 0
	p.finishLocked(ctx, s, m)
}

func (p *pokerStrategy) showdownLocked(ctx context.Context, s *Session, m *pokerMeta) {
	m.Phase = phaseShowdown
	s.Phase = string(m.Phase)

	live := p.liveSeats(s)
	for _, seat := range live {
		pool := append(append([]cards.Card{}, s.Players[seat].Hand...), s.Table...)
		best, err := cards.FindBestHand(pool)
		if err != nil {
			s.log.Error("hand evaluation failed", zap.Int("seat", seat), zap.Error(err))
			continue
		}
		m.BestHands[seat] = best
	}

	folded := make([]bool, len(s.Players))
	for seat, pl := range s.Players {
		folded[seat] = pl.Folded
	}
	for _, pt := range buildPots(m.Contributed, folded) {
		eligible := pt.eligible
		if len(eligible) == 0 {
			eligible = live
		}
		winners := p.bestSeats(m, eligible)
		for seat, amount := range splitPot(pt.amount, winners) {
			m.Chips[seat] += amount
			m.Payouts[seat] += amount
		}
	}
	m.Pot = 0
	for _, seat := range live {
		if h, ok := m.BestHands[seat]; ok {
			s.appendLogLocked("%s shows %s", s.Players[seat].DisplayName, h)
		}
	}
	p.finishLocked(ctx, s, m)
}

func (p *pokerStrategy) bestSeats(m *pokerMeta, eligible []int) []int {
	var winners []int
	var best cards.Hand
	for _, seat := range eligible {
		h, ok := m.BestHands[seat]
		if !ok {
			continue
		}
		switch {
		case len(winners) == 0:
			winners, best = []int{seat}, h
		case cards.CompareHands(h, best) > 0:
			winners, best = []int{seat}, h
		case cards.CompareHands(h, best) == 0:
			winners = append(winners, seat)
		}
	}
	if len(winners) == 0 {
		return eligible
	}
	return winners
}

func (p *pokerStrategy) finishLocked(ctx context.Context, s *Session, m *pokerMeta) {
	req := FinishRequest{Results: make([]PlayerResult, 0, len(s.Players))}
	winner := -1
	for seat, pl := range s.Players {
		res := PlayerResult{
			PlayerID:    pl.ID,
			DisplayName: pl.DisplayName,
			IsBot:       pl.IsBot,
			Net:         m.Chips[seat] - m.BuyIn[seat],
		}
		if h, ok := m.BestHands[seat]; ok {
			res.Hand = h.Category.String()
		}
		req.Results = append(req.Results, res)
		if m.Payouts[seat] > 0 && (winner < 0 || m.Payouts[seat] > m.Payouts[winner]) {
			winner = seat
		}
	}
	if winner >= 0 {
		req.WinnerName = s.Players[winner].DisplayName
		req.WinnerID = strPtr(s.Players[winner].ID)
	}
	_ = s.finishLocked(ctx, req)
}

func (p *pokerStrategy) BotDecision(s *Session, playerID string) string {
	m := pokerState(s)
	seat := s.playerIndex(playerID)
	if m == nil || seat < 0 {
		return "fold"
	}
	view := BotView{
		Phase:       string(m.Phase),
		Hole:        s.Players[seat].Hand,
		Board:       s.Table,
		Pot:         m.Pot,
		CurrentBet:  m.CurrentBet,
		MyBet:       m.Bets[seat],
		MyStack:     m.Chips[seat],
		ActiveCount: len(p.liveSeats(s)),
		MinRaise:    p.cfg.PokerMinRaise,
	}
	return decidePoker(view, p.cfg.Bot)
}

func (p *pokerStrategy) PublicState(s *Session) string {
	m := pokerState(s)
	if m == nil {
		return ""
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Poker, %s, pot %s", m.Phase, humanize.Comma(m.Pot))
	if m.CurrentBet > 0 {
		fmt.Fprintf(&sb, ", to call %s", humanize.Comma(m.CurrentBet))
	}
	sb.WriteString("\n")
	if len(s.Table) > 0 {
		fmt.Fprintf(&sb, "Board: %s\n", cards.Faces(s.Table))
	}
	for seat, pl := range s.Players {
		fmt.Fprintf(&sb, "%s: ", pl.DisplayName)
		switch {
		case pl.Folded:
			sb.WriteString("folded")
		case m.Chips[seat] == 0 && !s.finished:
			fmt.Fprintf(&sb, "all-in, bet %s", humanize.Comma(m.Bets[seat]))
		default:
			fmt.Fprintf(&sb, "%s chips, bet %s", humanize.Comma(m.Chips[seat]), humanize.Comma(m.Bets[seat]))
		}
		if h, ok := m.BestHands[seat]; ok && s.finished {
			fmt.Fprintf(&sb, ", %s: %s", cards.Faces(pl.Hand), h.Category)
		}
		if won := m.Payouts[seat]; won > 0 && s.finished {
			fmt.Fprintf(&sb, ", wins %s", humanize.Comma(won))
		}
		if seat == s.TurnIndex && !s.finished {
			sb.WriteString(" <- to act")
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (p *pokerStrategy) PlayerChoices(s *Session, playerID string) []Choice {
	m := pokerState(s)
	seat := s.playerIndex(playerID)
	if m == nil || seat < 0 || s.Players[seat].Folded || m.Phase == phaseShowdown {
		return nil
	}
	onTurn := seat == s.TurnIndex
	stack := m.Chips[seat]
	owed := m.CurrentBet - m.Bets[seat]
	callAmount := owed
	if callAmount > stack {
		callAmount = stack
	}

	out := []Choice{
		{ID: "fold", Label: "Fold", Disabled: !onTurn},
		{ID: "check", Label: "Check", Disabled: !onTurn || owed > 0},
		{ID: "call", Label: fmt.Sprintf("Call %s", humanize.Comma(callAmount)), Disabled: !onTurn || owed <= 0},
	}

	presets := []struct {
		label string
		n     int64
	}{
		{"Raise", p.cfg.PokerMinRaise},
		{"Raise half pot", m.Pot / 2},
		{"Raise pot", m.Pot},
		{"All-in", stack - owed},
	}
	seen := make(map[int64]bool)
	for _, preset := range presets {
		if preset.n <= 0 || owed+preset.n > stack || seen[preset.n] {
			continue
		}
		seen[preset.n] = true
		out = append(out, Choice{
			ID:       fmt.Sprintf("%s%d", raisePrefix, preset.n),
			Label:    fmt.Sprintf("%s (%s)", preset.label, humanize.Comma(preset.n)),
			Disabled: !onTurn,
		})
	}
	return out
}
