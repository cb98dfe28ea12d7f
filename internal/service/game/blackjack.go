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

const (
	blackjackPhasePlayer = "player_turn"
	dealerName           = "Dealer"
)

type handState int

const (
	handOpen handState = iota
	handSettled
	handAbandoned
)

type blackjackHand struct {
	Cards   []cards.Card
	Stake   int64
	Doubled bool
	Split   bool
	State   handState
	Outcome Outcome
	Delta   int64
}

// dealerHand is owned by the session; after a split both player hands point at the
// same value, so whichever hand stands first performs the draw-out for both.
type dealerHand struct {
	Cards    []cards.Card
	Revealed bool
	DrawnOut bool
	total    int
}

func (d *dealerHand) Total() int {
	if d.DrawnOut {
		return d.total
	}
	return cards.HandTotal(d.Cards)
}

type blackjackMeta struct {
	Hands        []*blackjackHand
	Dealer       *dealerHand
	AlreadySplit bool
}

type blackjackStrategy struct {
	cfg Config
}

func (b *blackjackStrategy) Kind() cards.Kind { return cards.KindBlackjack }

func blackjackState(s *Session) *blackjackMeta {
	m, _ := s.meta.(*blackjackMeta)
	return m
}

func (b *blackjackStrategy) Init(ctx context.Context, s *Session) error {
	if len(s.Players) != 1 {
		return fmt.Errorf("blackjack needs exactly one player, got %d", len(s.Players))
	}
	dealt, err := s.Deck.Draw(4)
	if err != nil {
		return err
	}

	hand := &blackjackHand{Cards: []cards.Card{dealt[0], dealt[1]}, Stake: s.Stake}
	m := &blackjackMeta{
		Hands:  []*blackjackHand{hand},
		Dealer: &dealerHand{Cards: []cards.Card{dealt[2], dealt[3]}},
	}
	s.meta = m
	s.Phase = blackjackPhasePlayer
	s.TurnIndex = 0
	b.syncPlayerHand(s, m)
	s.appendLogLocked("dealt %s, dealer shows %s", cards.Faces(hand.Cards), m.Dealer.Cards[0])

	if cards.IsNatural(hand.Cards) || cards.IsNatural(m.Dealer.Cards) {
		m.Dealer.Revealed = true
		b.settleHandLocked(ctx, s, m, 0, cards.HandTotal(hand.Cards), m.Dealer.Total())
		b.afterHandLocked(ctx, s, m)
		return nil
	}
	b.armHandTimer(s, 0)
	return nil
}

func parseHandAction(actionID string) (verb string, idx int, explicit bool, err error) {
	verb = actionID
	if i := strings.IndexByte(actionID, ':'); i >= 0 {
		verb = actionID[:i]
		idx, err = strconv.Atoi(actionID[i+1:])
		if err != nil || idx < 0 {
			return "", 0, false, illegal(actionID, "malformed hand index")
		}
		explicit = true
	}
	return verb, idx, explicit, nil
}

func (b *blackjackStrategy) openHand(m *blackjackMeta, actionID string, idx int, explicit bool) (*blackjackHand, int, error) {
	if !explicit {
		for i, h := range m.Hands {
			if h.State == handOpen {
				return h, i, nil
			}
		}
		return nil, 0, illegal(actionID, "no hand is waiting for a decision")
	}
	if idx >= len(m.Hands) {
		return nil, 0, illegal(actionID, "no hand %d", idx+1)
	}
	if m.Hands[idx].State != handOpen {
		return nil, 0, illegal(actionID, "hand %d is already resolved", idx+1)
	}
	return m.Hands[idx], idx, nil
}

func (b *blackjackStrategy) HandleAction(ctx context.Context, s *Session, playerID, actionID string) error {
	m := blackjackState(s)
	if m == nil {
		return fmt.Errorf("blackjack session %s has no state", s.ID)
	}
	verb, idx, explicit, err := parseHandAction(actionID)
	if err != nil {
		return err
	}
	h, idx, err := b.openHand(m, actionID, idx, explicit)
	if err != nil {
		return err
	}

	switch verb {
	case "hit":
		err = b.hit(ctx, s, m, h, idx)
	case "stand":
		err = b.stand(ctx, s, m, idx)
	case "double":
		err = b.double(ctx, s, m, h, idx, actionID)
	case "split":
		err = b.split(ctx, s, m, h, actionID)
	default:
		return illegal(actionID, "unknown blackjack action")
	}
	if err != nil {
		return err
	}
	b.syncPlayerHand(s, m)
	b.afterHandLocked(ctx, s, m)
	return nil
}

func (b *blackjackStrategy) hit(ctx context.Context, s *Session, m *blackjackMeta, h *blackjackHand, idx int) error {
	c, err := s.Deck.DrawOne()
	if err != nil {
		return err
	}
	h.Cards = append(h.Cards, c)
	total := cards.HandTotal(h.Cards)
	s.appendLogLocked("hand %d hits %s (%d)", idx+1, c, total)

	if total >= cards.BlackjackLimit {
		// 21 or a bust is judged against the dealer as it stands now.
		b.settleHandLocked(ctx, s, m, idx, total, m.Dealer.Total())
		return nil
	}
	b.armHandTimer(s, idx)
	return nil
}

func (b *blackjackStrategy) stand(ctx context.Context, s *Session, m *blackjackMeta, idx int) error {
	if err := b.drawOutDealer(s, m); err != nil {
		return err
	}
	h := m.Hands[idx]
	s.appendLogLocked("hand %d stands on %d", idx+1, cards.HandTotal(h.Cards))
	b.settleHandLocked(ctx, s, m, idx, cards.HandTotal(h.Cards), m.Dealer.Total())
	return nil
}

func (b *blackjackStrategy) double(ctx context.Context, s *Session, m *blackjackMeta, h *blackjackHand, idx int, actionID string) error {
	if len(h.Cards) != 2 {
		return illegal(actionID, "double down needs exactly two cards")
	}
	bonus := 0
	if b.cfg.DoubleDownDealerBonus {
		bonus = 2 + s.rng.Intn(2)
	}

	// Check the whole draw against the deck before touching the hand.
	upcoming := s.Deck.Peek(s.Deck.Len())
	if len(upcoming) < 1 {
		return &cards.DeckExhaustedError{Requested: 1, Remaining: 0}
	}
	total := cards.HandTotal(append(append([]cards.Card(nil), h.Cards...), upcoming[0]))
	if total >= cards.BlackjackLimit || m.Dealer.DrawnOut {
		bonus = 0
	}
	if bonus > len(upcoming)-1 {
		s.log.Warn("dealer bonus skipped", zap.Int("bonus", bonus), zap.Int("remaining", len(upcoming)-1))
		bonus = 0
	}
	if total <= cards.BlackjackLimit && !m.Dealer.DrawnOut {
		dealer := append(append([]cards.Card(nil), m.Dealer.Cards...), upcoming[1:1+bonus]...)
		if _, ok := b.dealerDraws(dealer, upcoming[1+bonus:]); !ok {
			return fmt.Errorf("dealer draw: %w", &cards.DeckExhaustedError{Requested: len(upcoming) + 1, Remaining: len(upcoming)})
		}
	}

	c, _ := s.Deck.DrawOne()
	h.Cards = append(h.Cards, c)
	h.Stake *= 2
	h.Doubled = true
	s.appendLogLocked("hand %d doubles to %d and draws %s (%d)", idx+1, h.Stake, c, total)

	if total > cards.BlackjackLimit {
		b.settleHandLocked(ctx, s, m, idx, total, m.Dealer.Total())
		return nil
	}
	if bonus > 0 {
		extra, _ := s.Deck.Draw(bonus)
		m.Dealer.Cards = append(m.Dealer.Cards, extra...)
		s.appendLogLocked("dealer takes %d bonus cards", bonus)
	}
	return b.stand(ctx, s, m, idx)
}

func (b *blackjackStrategy) split(ctx context.Context, s *Session, m *blackjackMeta, h *blackjackHand, actionID string) error {
	switch {
	case m.AlreadySplit || len(m.Hands) != 1:
		return illegal(actionID, "a hand can only be split once")
	case len(h.Cards) != 2:
		return illegal(actionID, "split needs exactly two cards")
	case cards.SplitValue(h.Cards[0]) != cards.SplitValue(h.Cards[1]):
		return illegal(actionID, "split needs two cards of equal value")
	case s.Deck.Len() < 2:
		return &cards.DeckExhaustedError{Requested: 2, Remaining: s.Deck.Len()}
	}

	dealt, _ := s.Deck.Draw(2)
	first := &blackjackHand{Cards: []cards.Card{h.Cards[0], dealt[0]}, Stake: h.Stake, Split: true}
	second := &blackjackHand{Cards: []cards.Card{h.Cards[1], dealt[1]}, Stake: h.Stake, Split: true}
	m.Hands = []*blackjackHand{first, second}
	m.AlreadySplit = true
	s.appendLogLocked("split into %s and %s", cards.Faces(first.Cards), cards.Faces(second.Cards))

	for i, hand := range m.Hands {
		b.armHandTimer(s, i)
		if total := cards.HandTotal(hand.Cards); total == cards.BlackjackLimit {
			s.appendLogLocked("hand %d makes %d", i+1, total)
			b.settleHandLocked(ctx, s, m, i, total, m.Dealer.Total())
		}
	}
	return nil
}

// drawOutDealer runs at most once per session. It leaves the dealer and the deck
// untouched when the deck cannot finish the draw.
func (b *blackjackStrategy) drawOutDealer(s *Session, m *blackjackMeta) error {
	d := m.Dealer
	if d.DrawnOut {
		return nil
	}
	upcoming := s.Deck.Peek(s.Deck.Len())
	n, ok := b.dealerDraws(d.Cards, upcoming)
	if !ok {
		return fmt.Errorf("dealer draw: %w", &cards.DeckExhaustedError{Requested: n + 1, Remaining: len(upcoming)})
	}
	drawn, err := s.Deck.Draw(n)
	if err != nil {
		return fmt.Errorf("dealer draw: %w", err)
	}
	d.Revealed = true
	d.Cards = append(d.Cards, drawn...)
	d.total = cards.HandTotal(d.Cards)
	d.DrawnOut = true
	s.appendLogLocked("dealer stands on %d with %s", d.total, cards.Faces(d.Cards))
	return nil
}

// dealerDraws counts the cards the dealer takes from upcoming to reach the stand
// total. ok is false when upcoming runs out first.
func (b *blackjackStrategy) dealerDraws(dealer, upcoming []cards.Card) (n int, ok bool) {
	hand := append([]cards.Card(nil), dealer...)
	for cards.HandTotal(hand) < b.cfg.DealerStandOn {
		if n == len(upcoming) {
			return n, false
		}
		hand = append(hand, upcoming[n])
		n++
	}
	return n, true
}

func judgeHand(stake int64, multiplier float64, player, dealer int) (Outcome, int64) {
	switch {
	case player > cards.BlackjackLimit && dealer > cards.BlackjackLimit:
		return OutcomePush, 0
	case player > cards.BlackjackLimit:
		return OutcomeLose, -stake
	case dealer > cards.BlackjackLimit || player > dealer:
		return OutcomeWin, payout(stake, multiplier)
	case player == dealer:
		return OutcomePush, 0
	default:
		return OutcomeLose, -stake
	}
}

func (b *blackjackStrategy) settleHandLocked(ctx context.Context, s *Session, m *blackjackMeta, idx, playerTotal, dealerTotal int) {
	h := m.Hands[idx]
	if h.State != handOpen {
		return
	}
	h.Outcome, h.Delta = judgeHand(h.Stake, s.Multiplier, playerTotal, dealerTotal)
	h.State = handSettled
	s.cancelTimerLocked(handTimerKey(idx))
	s.settleLocked(ctx, SettleRequest{
		PlayerID:  s.Players[0].ID,
		IsBot:     s.Players[0].IsBot,
		HandIndex: idx,
		Stake:     h.Stake,
		Delta:     h.Delta,
		Outcome:   h.Outcome,
	})
}

func handTimerKey(idx int) string { return fmt.Sprintf("hand:%d", idx) }

func (b *blackjackStrategy) armHandTimer(s *Session, idx int) {
	s.armTimerLocked(handTimerKey(idx), b.cfg.HandTimeout, func(ctx context.Context) {
		b.abandonHandLocked(ctx, s, idx)
	})
}

func (b *blackjackStrategy) abandonHandLocked(ctx context.Context, s *Session, idx int) {
	m := blackjackState(s)
	if m == nil || s.finished || idx >= len(m.Hands) || m.Hands[idx].State != handOpen {
		return
	}
	h := m.Hands[idx]
	switch b.cfg.AbandonPolicy {
	case AbandonRefund:
		h.State, h.Outcome, h.Delta = handSettled, OutcomeRefund, 0
	case AbandonForfeit:
		h.State, h.Outcome, h.Delta = handSettled, OutcomeForfeit, -h.Stake
	default:
		h.State = handAbandoned
	}

	if h.State == handSettled {
		s.settleLocked(ctx, SettleRequest{
			PlayerID:  s.Players[0].ID,
			IsBot:     s.Players[0].IsBot,
			HandIndex: idx,
			Stake:     h.Stake,
			Delta:     h.Delta,
			Outcome:   h.Outcome,
		})
	} else {
		s.appendLogLocked("hand %d timed out", idx+1)
		s.log.Warn("blackjack hand abandoned without settlement",
			zap.String("playerID", s.Players[0].ID),
			zap.Int("hand", idx),
			zap.Int64("stake", h.Stake),
		)
	}
	b.afterHandLocked(ctx, s, m)
}

// afterHandLocked finishes the session once no hand is open.
func (b *blackjackStrategy) afterHandLocked(ctx context.Context, s *Session, m *blackjackMeta) {
	if s.finished {
		return
	}
	var (
		net     int64
		settled int
	)
	for _, h := range m.Hands {
		switch h.State {
		case handOpen:
			return
		case handSettled:
			settled++
			net += h.Delta
		}
	}
	m.Dealer.Revealed = true

	if settled == 0 {
		s.appendLogLocked("session abandoned")
		s.terminateLocked()
		return
	}

	p := s.Players[0]
	req := FinishRequest{Results: []PlayerResult{{
		PlayerID:    p.ID,
		DisplayName: p.DisplayName,
		IsBot:       p.IsBot,
		Net:         net,
	}}}
	switch {
	case net > 0:
		req.WinnerName, req.WinnerID = p.DisplayName, strPtr(p.ID)
	case net < 0:
		req.WinnerName = dealerName
	}
	_ = s.finishLocked(ctx, req)
}

func (b *blackjackStrategy) syncPlayerHand(s *Session, m *blackjackMeta) {
	var all []cards.Card
	for _, h := range m.Hands {
		all = append(all, h.Cards...)
	}
	s.Players[0].Hand = all
}

func (b *blackjackStrategy) BotDecision(s *Session, playerID string) string {
	m := blackjackState(s)
	if m == nil {
		return "stand"
	}
	for i, h := range m.Hands {
		if h.State != handOpen {
			continue
		}
		verb := "stand"
		if cards.HandTotal(h.Cards) < b.cfg.DealerStandOn {
			verb = "hit"
		}
		if len(m.Hands) > 1 {
			return fmt.Sprintf("%s:%d", verb, i)
		}
		return verb
	}
	return "stand"
}

func (b *blackjackStrategy) PublicState(s *Session) string {
	m := blackjackState(s)
	if m == nil {
		return ""
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Blackjack, stake %s x%g\n", humanize.Comma(s.Stake), s.Multiplier)
	if m.Dealer.Revealed {
		fmt.Fprintf(&sb, "Dealer: %s (%d)\n", cards.Faces(m.Dealer.Cards), m.Dealer.Total())
	} else {
		fmt.Fprintf(&sb, "Dealer: %s ??\n", m.Dealer.Cards[0])
	}
	for i, h := range m.Hands {
		fmt.Fprintf(&sb, "Hand %d: %s (%d) stake %s", i+1, cards.Faces(h.Cards), cards.HandTotal(h.Cards), humanize.Comma(h.Stake))
		switch h.State {
		case handSettled:
			fmt.Fprintf(&sb, " - %s %+d", h.Outcome, h.Delta)
		case handAbandoned:
			sb.WriteString(" - timed out")
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (b *blackjackStrategy) PlayerChoices(s *Session, playerID string) []Choice {
	m := blackjackState(s)
	if m == nil || s.Players[0].ID != playerID {
		return nil
	}
	split := len(m.Hands) > 1
	var out []Choice
	for i, h := range m.Hands {
		if h.State != handOpen {
			continue
		}
		id := func(verb string) string {
			if split {
				return fmt.Sprintf("%s:%d", verb, i)
			}
			return verb
		}
		label := func(text string) string {
			if split {
				return fmt.Sprintf("%s (hand %d)", text, i+1)
			}
			return text
		}
		out = append(out,
			Choice{ID: id("hit"), Label: label("Hit")},
			Choice{ID: id("stand"), Label: label("Stand")},
			Choice{ID: id("double"), Label: label("Double down"), Disabled: len(h.Cards) != 2},
		)
		if !split {
			canSplit := !m.AlreadySplit && len(h.Cards) == 2 &&
				cards.SplitValue(h.Cards[0]) == cards.SplitValue(h.Cards[1])
			out = append(out, Choice{ID: "split", Label: "Split", Disabled: !canSplit})
		}
	}
	return out
}
