package game

import (
	"math"
	"testing"

	"cardroom-service/internal/service/game/cards"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func potTotal(pots []pot) int64 {
	var sum int64
	for _, p := range pots {
		sum += p.amount
	}
	return sum
}

func TestBuildPots(t *testing.T) {
	cases := []struct {
		name        string
		contributed []int64
		folded      []bool
		want        []pot
	}{
		{
			name:        "single pot",
			contributed: []int64{10, 10, 10},
			folded:      []bool{false, false, false},
			want:        []pot{{amount: 30, eligible: []int{0, 1, 2}}},
		},
		{
			name:        "short all-in creates a side pot",
			contributed: []int64{50, 100, 100},
			folded:      []bool{false, false, false},
			want: []pot{
				{amount: 150, eligible: []int{0, 1, 2}},
				{amount: 100, eligible: []int{1, 2}},
			},
		},
		{
			name:        "folded chips stay in the pot",
			contributed: []int64{100, 100, 40},
			folded:      []bool{false, true, false},
			want: []pot{
				{amount: 120, eligible: []int{0, 2}},
				{amount: 120, eligible: []int{0}},
			},
		},
		{
			name:        "uncalled layers merge",
			contributed: []int64{30, 10},
			folded:      []bool{false, true},
			want:        []pot{{amount: 40, eligible: []int{0}}},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := buildPots(tc.contributed, tc.folded)
			assert.Equal(t, tc.want, got)

			var paid int64
			for _, c := range tc.contributed {
				paid += c
			}
			assert.Equal(t, paid, potTotal(got))
		})
	}
}

func TestSplitPotGivesOddChipsToEarliestSeats(t *testing.T) {
	assert.Equal(t, map[int]int64{0: 13, 2: 12}, splitPot(25, []int{2, 0}))
	assert.Equal(t, map[int]int64{0: 10, 1: 10, 2: 10}, splitPot(30, []int{1, 2, 0}))
	assert.Empty(t, splitPot(30, nil))
}

func TestNextSeat(t *testing.T) {
	only := func(seats ...int) func(int) bool {
		return func(seat int) bool {
			for _, s := range seats {
				if s == seat {
					return true
				}
			}
			return false
		}
	}

	seat, ok := nextSeat(4, 1, only(0))
	require.True(t, ok)
	assert.Equal(t, 0, seat)

	seat, ok = nextSeat(4, -1, only(0, 3))
	require.True(t, ok)
	assert.Equal(t, 0, seat)

	seat, ok = nextSeat(4, 3, only(2, 3))
	require.True(t, ok)
	assert.Equal(t, 2, seat)

	// the actor itself is probed last
	seat, ok = nextSeat(3, 1, only(1))
	require.True(t, ok)
	assert.Equal(t, 1, seat)

	probes := 0
	seat, ok = nextSeat(5, 2, func(int) bool { probes++; return false })
	assert.False(t, ok)
	assert.Equal(t, -1, seat)
	assert.Equal(t, 5, probes)
}

func TestDecidePoker(t *testing.T) {
	tuning := DefaultBotTuning
	aces := cards.MustParseCards("As Ad")
	rags := cards.MustParseCards("7c 2d")

	t.Run("premium pair raises preflop", func(t *testing.T) {
		v := BotView{Phase: "preflop", Hole: aces, Pot: 30, MyStack: 990, ActiveCount: 2, MinRaise: 20}
		assert.Equal(t, "raise_20", decidePoker(v, tuning))
	})

	t.Run("weak hand checks when free", func(t *testing.T) {
		v := BotView{Phase: "preflop", Hole: rags, Pot: 30, MyStack: 990, ActiveCount: 2, MinRaise: 20}
		assert.Equal(t, "check", decidePoker(v, tuning))
	})

	t.Run("weak hand calls a cheap bet", func(t *testing.T) {
		v := BotView{Phase: "preflop", Hole: rags, Pot: 50, CurrentBet: 20, MyStack: 900, ActiveCount: 2, MinRaise: 20}
		assert.Equal(t, "call", decidePoker(v, tuning))
	})

	t.Run("weak hand folds to a big bet", func(t *testing.T) {
		v := BotView{Phase: "preflop", Hole: rags, Pot: 130, CurrentBet: 100, MyStack: 900, ActiveCount: 2, MinRaise: 20}
		assert.Equal(t, "fold", decidePoker(v, tuning))
	})

	t.Run("made flush bets the pot on the river", func(t *testing.T) {
		v := BotView{
			Phase:       "river",
			Hole:        cards.MustParseCards("Ah 4h"),
			Board:       cards.MustParseCards("2h 9h Kh 5c 7d"),
			Pot:         200,
			MyStack:     800,
			ActiveCount: 2,
			MinRaise:    20,
		}
		assert.Equal(t, "raise_200", decidePoker(v, tuning))
	})

	t.Run("cannot afford the raise", func(t *testing.T) {
		v := BotView{Phase: "preflop", Hole: aces, Pot: 30, CurrentBet: 20, MyStack: 25, ActiveCount: 2, MinRaise: 20}
		assert.Equal(t, "call", decidePoker(v, tuning))
	})

	assert.True(t, math.IsInf(potOdds(100, 0), 1))
	assert.InDelta(t, 2.5, potOdds(100, 40), 1e-9)
}

func TestHandStrengthPenalisesCrowdedTables(t *testing.T) {
	heads := BotView{Hole: cards.MustParseCards("Kd Qc"), ActiveCount: 2}
	crowd := heads
	crowd.ActiveCount = 6
	assert.Greater(t, handStrength(heads, DefaultBotTuning), handStrength(crowd, DefaultBotTuning))
}

func TestPayoutRounds(t *testing.T) {
	assert.EqualValues(t, 150, payout(100, 1.5))
	assert.EqualValues(t, 100, payout(100, 0))
	assert.EqualValues(t, 33, payout(22, 1.5))
}
