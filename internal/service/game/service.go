package game

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"cardroom-service/internal/service/game/cards"
	appErr "cardroom-service/pkg/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type PlayerSpec struct {
	ID          string
	DisplayName string
	IsBot       bool
}

type StartRequest struct {
	Kind    cards.Kind
	Players []PlayerSpec
	// Stake is the bet for blackjack and the buy-in for poker.
	Stake      int64
	Multiplier float64
	// Deck overrides the shuffled deck, top card first.
	Deck *cards.Deck
	Seed int64
	// SceneID links lobby tables to their preset; zero for ad-hoc sessions.
	SceneID int64
}

// Service owns the in-memory registry of running sessions.
type Service struct {
	cfg       Config
	ledger    Ledger
	locker    SessionLocker
	accessory AccessoryHandler

	sessions sync.Map
	seedMu   sync.Mutex
	seedRng  *rand.Rand
}

type Option func(*Service)

func WithSessionLocker(l SessionLocker) Option {
	return func(s *Service) { s.locker = l }
}

func WithAccessoryHandler(h AccessoryHandler) Option {
	return func(s *Service) { s.accessory = h }
}

func NewService(cfg Config, ledger Ledger, opts ...Option) *Service {
	if ledger == nil {
		ledger = NopLedger()
	}
	svc := &Service{
		cfg:     cfg.withDefaults(),
		ledger:  ledger,
		seedRng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func (s *Service) Config() Config { return s.cfg }

func (s *Service) nextSeed() int64 {
	s.seedMu.Lock()
	defer s.seedMu.Unlock()
	return s.seedRng.Int63()
}

// Start creates, deals and registers a session, then lets any leading bots act.
func (s *Service) Start(ctx context.Context, req StartRequest) (*Session, error) {
	if req.Stake <= 0 {
		return nil, appErr.ErrInvalidStake
	}
	if len(req.Players) == 0 {
		return nil, fmt.Errorf("start session: no players")
	}
	strategy, err := newStrategy(req.Kind, s.cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", appErr.ErrUnsupportedGame, err)
	}

	seed := req.Seed
	if seed == 0 {
		seed = s.nextSeed()
	}
	rng := rand.New(rand.NewSource(seed))
	deck := req.Deck
	if deck == nil {
		deck = cards.BuildDeck(req.Kind, rng)
	}
	multiplier := req.Multiplier
	if multiplier <= 0 {
		multiplier = s.cfg.DefaultMultiplier
	}

	id := uuid.NewString()
	sess := &Session{
		ID:          id,
		Kind:        req.Kind,
		SceneID:     req.SceneID,
		Players:     make([]*Player, 0, len(req.Players)),
		Deck:        deck,
		Stake:       req.Stake,
		Multiplier:  multiplier,
		strategy:    strategy,
		ledger:      s.ledger,
		cfg:         s.cfg,
		rng:         rng,
		log:         newSessionLogger(id, req.Kind),
		subscribers: make(map[string]chan OutgoingMessage),
		timers:      make(map[string]*sessionTimer),
		accessory:   s.accessory,
		onTerminate: s.handleTerminate,
		onReclaim:   s.reclaim,
	}
	seen := make(map[string]bool, len(req.Players))
	for _, ps := range req.Players {
		if ps.ID == "" || seen[ps.ID] {
			return nil, fmt.Errorf("invalid or duplicate player id %q", ps.ID)
		}
		seen[ps.ID] = true
		name := ps.DisplayName
		if name == "" {
			name = ps.ID
		}
		sess.Players = append(sess.Players, &Player{ID: ps.ID, DisplayName: name, IsBot: ps.IsBot})
	}

	if err := s.lockPlayers(ctx, sess); err != nil {
		return nil, err
	}

	sess.mu.Lock()
	s.sessions.Store(sess.ID, sess)
	if err := strategy.Init(ctx, sess); err != nil {
		sess.mu.Unlock()
		s.sessions.Delete(sess.ID)
		s.unlockPlayers(context.Background(), sess)
		return nil, err
	}
	if !sess.finished {
		sess.runBotsLocked(ctx)
	}
	sess.log.Info("session started", zap.Int("players", len(sess.Players)), zap.Int64("stake", sess.Stake))
	sess.mu.Unlock()
	return sess, nil
}

func (s *Service) lockPlayers(ctx context.Context, sess *Session) error {
	if s.locker == nil {
		return nil
	}
	acquired := make([]string, 0, len(sess.Players))
	for _, pid := range sess.humanIDs() {
		if err := s.locker.Acquire(ctx, pid, sess.ID); err != nil {
			for _, done := range acquired {
				_ = s.locker.Release(ctx, done, sess.ID)
			}
			return err
		}
		acquired = append(acquired, pid)
	}
	return nil
}

func (s *Service) unlockPlayers(ctx context.Context, sess *Session) {
	if s.locker == nil {
		return
	}
	for _, pid := range sess.humanIDs() {
		if err := s.locker.Release(ctx, pid, sess.ID); err != nil {
			sess.log.Warn("release session lock failed", zap.String("playerID", pid), zap.Error(err))
		}
	}
}

func (s *Service) handleTerminate(sess *Session) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.LedgerTimeout)
	defer cancel()
	s.unlockPlayers(ctx, sess)
}

func (s *Service) reclaim(sess *Session) {
	if cur, ok := s.sessions.Load(sess.ID); ok && cur == sess {
		s.sessions.Delete(sess.ID)
		sess.shutdown()
		sess.log.Info("session reclaimed")
	}
}

func (s *Service) GetSession(sessionID string) (*Session, error) {
	if v, ok := s.sessions.Load(strings.TrimSpace(sessionID)); ok {
		return v.(*Session), nil
	}
	return nil, appErr.ErrSessionNotFound
}

// HandleAction dispatches one action and returns the actor's view of the result.
func (s *Service) HandleAction(ctx context.Context, sessionID, playerID, actionID string) (TableState, error) {
	sess, err := s.GetSession(sessionID)
	if err != nil {
		return TableState{}, err
	}
	if err := sess.Dispatch(ctx, playerID, strings.TrimSpace(actionID)); err != nil {
		return TableState{}, err
	}
	return sess.View(playerID), nil
}

func (s *Service) View(sessionID, playerID string) (TableState, error) {
	sess, err := s.GetSession(sessionID)
	if err != nil {
		return TableState{}, err
	}
	if sess.player(playerID) == nil {
		return TableState{}, appErr.ErrSessionAccessDenied
	}
	return sess.View(playerID), nil
}

// Abort ends a running session without a winner. Unsettled hands are dropped.
func (s *Service) Abort(ctx context.Context, sessionID string) error {
	sess, err := s.GetSession(sessionID)
	if err != nil {
		return err
	}
	return sess.Finish(ctx, "", nil)
}

func (s *Service) ActiveSessions() int {
	count := 0
	s.sessions.Range(func(_, _ interface{}) bool {
		count++
		return true
	})
	return count
}

// Shutdown stops every timer; in-flight sessions are dropped.
func (s *Service) Shutdown() {
	s.sessions.Range(func(key, value interface{}) bool {
		value.(*Session).shutdown()
		s.sessions.Delete(key)
		return true
	})
}
