package game

import (
	"fmt"
	"math"

	"cardroom-service/internal/service/game/cards"
)

// BotView is the part of the table a bot may look at.
type BotView struct {
	Phase       string
	Hole        []cards.Card
	Board       []cards.Card
	Pot         int64
	CurrentBet  int64
	MyBet       int64
	MyStack     int64
	ActiveCount int
	MinRaise    int64
}

// PhaseThresholds is one decision table. Strengths are in [0,1].
type PhaseThresholds struct {
	RaiseStrength float64
	CallStrength  float64
	// MinPotOdds is the pot-to-cost ratio that justifies a marginal call.
	MinPotOdds float64
	// CheapCall is the share of the stack the bot calls with any hand.
	CheapCall float64
	// RaisePotShare sizes raises as a share of the pot, never below MinRaise.
	RaisePotShare float64
}

type BotTuning struct {
	CategoryBase        [10]float64
	ActivePlayerPenalty float64
	PocketPairBoost     float64
	AceBroadwayBoost    float64

	Preflop   PhaseThresholds
	Flop      PhaseThresholds
	TurnRiver PhaseThresholds
}

// DefaultBotTuning plays tight preflop and leans on pot odds later in the hand.
var DefaultBotTuning = BotTuning{
	CategoryBase: [10]float64{
		cards.HighCard:      0.12,
		cards.OnePair:       0.35,
		cards.TwoPair:       0.52,
		cards.ThreeOfAKind:  0.66,
		cards.Straight:      0.75,
		cards.Flush:         0.80,
		cards.FullHouse:     0.88,
		cards.FourOfAKind:   0.95,
		cards.StraightFlush: 0.98,
		cards.RoyalFlush:    1.00,
	},
	ActivePlayerPenalty: 0.05,
	PocketPairBoost:     0.30,
	AceBroadwayBoost:    0.20,

	Preflop: PhaseThresholds{
		RaiseStrength: 0.60,
		CallStrength:  0.30,
		MinPotOdds:    0,
		CheapCall:     0.05,
		RaisePotShare: 0.5,
	},
	Flop: PhaseThresholds{
		RaiseStrength: 0.65,
		CallStrength:  0.30,
		MinPotOdds:    2.0,
		CheapCall:     0.02,
		RaisePotShare: 0.5,
	},
	TurnRiver: PhaseThresholds{
		RaiseStrength: 0.75,
		CallStrength:  0.45,
		MinPotOdds:    4.0,
		CheapCall:     0.02,
		RaisePotShare: 1.0,
	},
}

func clamp01(x float64) float64 {
	switch {
	case x < 0:
		return 0
	case x > 1:
		return 1
	}
	return x
}

// handStrength scores the bot's holding in [0,1].
func handStrength(v BotView, t BotTuning) float64 {
	var strength float64
	if len(v.Hole)+len(v.Board) >= 5 {
		best, err := cards.FindBestHand(append(append([]cards.Card{}, v.Hole...), v.Board...))
		if err == nil {
			strength = t.CategoryBase[best.Category]
		}
	} else if len(v.Hole) == 2 {
		hi, lo := v.Hole[0].Rank, v.Hole[1].Rank
		if lo > hi {
			hi, lo = lo, hi
		}
		strength = t.CategoryBase[cards.HighCard] + float64(hi)/float64(cards.Ace)*0.2
		if hi == lo {
			strength = t.CategoryBase[cards.OnePair] + t.PocketPairBoost*float64(hi)/float64(cards.Ace)
		} else if hi == cards.Ace && lo >= cards.Ten {
			strength += t.AceBroadwayBoost
		}
	}
	if v.ActiveCount > 2 {
		strength -= float64(v.ActiveCount-2) * t.ActivePlayerPenalty
	}
	return clamp01(strength)
}

func potOdds(pot, cost int64) float64 {
	if cost <= 0 {
		return math.Inf(1)
	}
	return float64(pot) / float64(cost)
}

func decidePoker(v BotView, t BotTuning) string {
	table := t.TurnRiver
	switch v.Phase {
	case string(phasePreflop):
		table = t.Preflop
	case string(phaseFlop):
		table = t.Flop
	}

	strength := handStrength(v, t)
	cost := v.CurrentBet - v.MyBet
	odds := potOdds(v.Pot, cost)

	if strength >= table.RaiseStrength {
		n := int64(float64(v.Pot) * table.RaisePotShare)
		if n < v.MinRaise {
			n = v.MinRaise
		}
		if n > 0 && cost+n <= v.MyStack {
			return fmt.Sprintf("%s%d", raisePrefix, n)
		}
	}
	if cost <= 0 {
		return "check"
	}
	if strength >= table.CallStrength && odds >= table.MinPotOdds {
		return "call"
	}
	if float64(cost) <= float64(v.MyStack)*table.CheapCall {
		return "call"
	}
	return "fold"
}
