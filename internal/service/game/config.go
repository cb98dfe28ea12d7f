package game

import (
	"strings"
	"time"
)

// AbandonPolicy decides what happens to the stake of a blackjack hand whose timer expires.
type AbandonPolicy string

const (
	// AbandonNone tears the hand down without a ledger call.
	AbandonNone    AbandonPolicy = "none"
	AbandonRefund  AbandonPolicy = "refund"
	AbandonForfeit AbandonPolicy = "forfeit"
)

func ParseAbandonPolicy(v string) AbandonPolicy {
	switch AbandonPolicy(strings.ToLower(strings.TrimSpace(v))) {
	case AbandonRefund:
		return AbandonRefund
	case AbandonForfeit:
		return AbandonForfeit
	default:
		return AbandonNone
	}
}

type Config struct {
	HandTimeout      time.Duration
	PokerTurnTimeout time.Duration
	ReclaimAfter     time.Duration
	LedgerTimeout    time.Duration

	DealerStandOn         int
	DoubleDownDealerBonus bool
	AbandonPolicy         AbandonPolicy
	DefaultMultiplier     float64

	PokerAnte     int64
	PokerMinRaise int64
	PokerMaxSeats int

	MaxBotSteps int
	Bot         BotTuning
}

func DefaultConfig() Config {
	return Config{
		HandTimeout:      60 * time.Second,
		PokerTurnTimeout: 0,
		ReclaimAfter:     30 * time.Second,
		LedgerTimeout:    5 * time.Second,

		DealerStandOn:         17,
		DoubleDownDealerBonus: false,
		AbandonPolicy:         AbandonNone,
		DefaultMultiplier:     1,

		PokerAnte:     10,
		PokerMinRaise: 20,
		PokerMaxSeats: 8,

		MaxBotSteps: 500,
		Bot:         DefaultBotTuning,
	}
}

// withDefaults fills zero values so a partially populated Config is usable.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.HandTimeout <= 0 {
		c.HandTimeout = d.HandTimeout
	}
	if c.ReclaimAfter < 0 {
		c.ReclaimAfter = 0
	}
	if c.LedgerTimeout <= 0 {
		c.LedgerTimeout = d.LedgerTimeout
	}
	if c.DealerStandOn <= 0 {
		c.DealerStandOn = d.DealerStandOn
	}
	if c.AbandonPolicy == "" {
		c.AbandonPolicy = d.AbandonPolicy
	}
	if c.DefaultMultiplier <= 0 {
		c.DefaultMultiplier = d.DefaultMultiplier
	}
	if c.PokerAnte < 0 {
		c.PokerAnte = 0
	}
	if c.PokerMinRaise <= 0 {
		c.PokerMinRaise = d.PokerMinRaise
	}
	if c.PokerMaxSeats < 2 {
		c.PokerMaxSeats = d.PokerMaxSeats
	}
	if c.MaxBotSteps <= 0 {
		c.MaxBotSteps = d.MaxBotSteps
	}
	if c.Bot == (BotTuning{}) {
		c.Bot = d.Bot
	}
	return c
}
