package game

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"cardroom-service/internal/service/game/cards"
	"cardroom-service/pkg/logger"

	"go.uber.org/zap"
)

const (
	PhaseEnded = "ended"

	defaultCountdownUnit = time.Second
	reclaimTimerKey      = "reclaim"
	subscriberBuffer     = 8
)

type Player struct {
	ID          string       `json:"id"`
	DisplayName string       `json:"displayName"`
	IsBot       bool         `json:"isBot"`
	Hand        []cards.Card `json:"-"`
	Folded      bool         `json:"folded"`
}

type LogItem struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"timestamp"`
	Content   string `json:"content"`
}

type TableState struct {
	SessionID   string         `json:"sessionId"`
	Kind        cards.Kind     `json:"kind"`
	Phase       string         `json:"phase"`
	TurnPlayer  string         `json:"turnPlayerId,omitempty"`
	PublicState string         `json:"publicState"`
	MyCards     []string       `json:"myCards"`
	Choices     []Choice       `json:"choices"`
	Countdown   int            `json:"countdown"`
	Finished    bool           `json:"finished"`
	Result      *FinishRequest `json:"result,omitempty"`
	Logs        []LogItem      `json:"logs"`
}

type OutgoingMessage struct {
	Type string      `json:"type"`
	Seq  int64       `json:"seq"`
	Data interface{} `json:"data"`
}

type sessionTimer struct {
	timer    *time.Timer
	deadline time.Time
	live     bool
}

// Session is one running game. Strategies mutate it only while the dispatcher (or a
// timer callback) holds mu.
type Session struct {
	ID         string
	Kind       cards.Kind
	SceneID    int64
	Players    []*Player
	TurnIndex  int
	Table      []cards.Card
	Deck       *cards.Deck
	Stake      int64
	Multiplier float64
	Phase      string

	meta     interface{}
	strategy Strategy
	ledger   Ledger
	cfg      Config
	rng      *rand.Rand
	log      *zap.Logger

	// processing is claimed before mu so a concurrent action is rejected instead of queued.
	processing atomic.Bool
	mu         sync.Mutex

	finished    bool
	result      *FinishRequest
	subscribers map[string]chan OutgoingMessage
	timers      map[string]*sessionTimer
	logs        []LogItem
	seq         int64

	accessory   AccessoryHandler
	onTerminate func(*Session)
	onReclaim   func(*Session)
}

func (s *Session) playerIndex(playerID string) int {
	for i, p := range s.Players {
		if p.ID == playerID {
			return i
		}
	}
	return -1
}

func (s *Session) player(playerID string) *Player {
	if idx := s.playerIndex(playerID); idx >= 0 {
		return s.Players[idx]
	}
	return nil
}

func (s *Session) currentPlayerLocked() *Player {
	if s.finished || s.TurnIndex < 0 || s.TurnIndex >= len(s.Players) {
		return nil
	}
	return s.Players[s.TurnIndex]
}

func (s *Session) humanIDs() []string {
	ids := make([]string, 0, len(s.Players))
	for _, p := range s.Players {
		if !p.IsBot {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

// Finished reports whether the session reached a terminal state.
func (s *Session) Finished() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finished
}

func (s *Session) Subscribe(playerID string) chan OutgoingMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.subscribers[playerID]; ok {
		close(old)
	}
	ch := make(chan OutgoingMessage, subscriberBuffer)
	s.subscribers[playerID] = ch
	s.pushStateLocked(playerID)
	return ch
}

func (s *Session) Unsubscribe(playerID string, ch chan OutgoingMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cur, ok := s.subscribers[playerID]; ok && cur == ch {
		delete(s.subscribers, playerID)
		close(cur)
	}
}

func (s *Session) View(playerID string) TableState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exportStateLocked(playerID)
}

func (s *Session) pushStateLocked(playerID string) {
	s.pushMessageLocked(playerID, OutgoingMessage{
		Type: "state",
		Seq:  s.nextSeqLocked(),
		Data: s.exportStateLocked(playerID),
	})
}

func (s *Session) broadcastStateLocked() {
	stateSeq := s.nextSeqLocked()
	for pid, ch := range s.subscribers {
		msg := OutgoingMessage{
			Type: "state",
			Seq:  stateSeq,
			Data: s.exportStateLocked(pid),
		}
		select {
		case ch <- msg:
		default:
			s.log.Warn("ws subscriber channel full", zap.String("playerID", pid), zap.String("sessionID", s.ID))
		}
	}
}

func (s *Session) pushMessageLocked(playerID string, msg OutgoingMessage) {
	if ch, ok := s.subscribers[playerID]; ok {
		select {
		case ch <- msg:
		default:
			s.log.Warn("ws subscriber channel full", zap.String("playerID", playerID), zap.String("sessionID", s.ID))
		}
	}
}

func (s *Session) nextSeqLocked() int64 {
	s.seq++
	return s.seq
}

func (s *Session) exportStateLocked(playerID string) TableState {
	state := TableState{
		SessionID:   s.ID,
		Kind:        s.Kind,
		Phase:       s.Phase,
		PublicState: s.strategy.PublicState(s),
		MyCards:     []string{},
		Choices:     []Choice{},
		Countdown:   s.countdownSecondsLocked(),
		Finished:    s.finished,
		Result:      s.result,
		Logs:        append([]LogItem(nil), s.logs...),
	}
	if cur := s.currentPlayerLocked(); cur != nil {
		state.TurnPlayer = cur.ID
	}
	if p := s.player(playerID); p != nil {
		state.MyCards = cards.Codes(p.Hand)
		if !s.finished {
			if choices := s.strategy.PlayerChoices(s, playerID); choices != nil {
				state.Choices = choices
			}
		}
	}
	return state
}

func (s *Session) appendLogLocked(format string, args ...interface{}) {
	now := time.Now()
	s.logs = append(s.logs, LogItem{
		ID:        fmt.Sprintf("%d-%d", now.UnixNano(), len(s.logs)+1),
		Timestamp: now.UnixMilli(),
		Content:   fmt.Sprintf(format, args...),
	})
}

// armTimerLocked replaces the timer stored under key. fire runs with mu held.
func (s *Session) armTimerLocked(key string, d time.Duration, fire func(ctx context.Context)) {
	s.cancelTimerLocked(key)
	tok := &sessionTimer{deadline: time.Now().Add(d), live: true}
	tok.timer = time.AfterFunc(d, func() {
		s.onTimer(key, tok, fire)
	})
	s.timers[key] = tok
}

func (s *Session) cancelTimerLocked(key string) {
	if tok, ok := s.timers[key]; ok {
		tok.live = false
		tok.timer.Stop()
		delete(s.timers, key)
	}
}

func (s *Session) cancelAllTimersLocked() {
	for key := range s.timers {
		s.cancelTimerLocked(key)
	}
}

func (s *Session) onTimer(key string, tok *sessionTimer, fire func(ctx context.Context)) {
	s.mu.Lock()
	if !tok.live {
		s.mu.Unlock()
		return
	}
	tok.live = false
	delete(s.timers, key)

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.LedgerTimeout)
	defer cancel()

	if fire != nil {
		fire(ctx)
	}
	if !s.finished {
		s.runBotsLocked(ctx)
	}
	s.broadcastStateLocked()

	reclaim := s.finished && len(s.timers) == 0
	s.mu.Unlock()

	if reclaim && s.onReclaim != nil {
		s.onReclaim(s)
	}
}

func (s *Session) countdownSecondsLocked() int {
	var nearest time.Time
	for key, tok := range s.timers {
		if key == reclaimTimerKey {
			continue
		}
		if nearest.IsZero() || tok.deadline.Before(nearest) {
			nearest = tok.deadline
		}
	}
	if nearest.IsZero() {
		return 0
	}
	diff := time.Until(nearest)
	if diff <= 0 {
		return 0
	}
	return int(diff / defaultCountdownUnit)
}

// terminateLocked marks the session terminal without touching the ledger. The reclaim
// timer is the last one to fire and removes the session from the registry.
func (s *Session) terminateLocked() {
	s.finished = true
	s.Phase = PhaseEnded
	s.TurnIndex = -1
	s.cancelAllTimersLocked()
	s.armTimerLocked(reclaimTimerKey, s.cfg.ReclaimAfter, nil)
	if s.onTerminate != nil {
		go s.onTerminate(s)
	}
}

func (s *Session) shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelAllTimersLocked()
	for pid, ch := range s.subscribers {
		delete(s.subscribers, pid)
		close(ch)
	}
}

func newSessionLogger(id string, kind cards.Kind) *zap.Logger {
	return logger.L().With(zap.String("sessionID", id), zap.String("kind", string(kind)))
}
