package cards

import (
	"fmt"
	"sort"
)

type Category int

const (
	HighCard Category = iota
	OnePair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
	RoyalFlush
)

func (c Category) String() string {
	switch c {
	case HighCard:
		return "high-card"
	case OnePair:
		return "one-pair"
	case TwoPair:
		return "two-pair"
	case ThreeOfAKind:
		return "three-of-a-kind"
	case Straight:
		return "straight"
	case Flush:
		return "flush"
	case FullHouse:
		return "full-house"
	case FourOfAKind:
		return "four-of-a-kind"
	case StraightFlush:
		return "straight-flush"
	case RoyalFlush:
		return "royal-flush"
	}
	return "unknown"
}

// Hand is an evaluated five-card poker hand. Cards are ordered for tie-breaking:
// by multiplicity, then by rank, both descending.
type Hand struct {
	Category Category
	Cards    [5]Card
}

func (h Hand) String() string {
	return fmt.Sprintf("%s (%s)", h.Category, Faces(h.Cards[:]))
}

// EvaluateHand ranks exactly five cards.
//
// Straights need strictly consecutive ranks with the ace high; A-2-3-4-5 is not
// recognised and evaluates as ace-high (or a flush when suited).
func EvaluateHand(cs []Card) (Hand, error) {
	if len(cs) != 5 {
		return Hand{}, fmt.Errorf("evaluate hand: need 5 cards, got %d", len(cs))
	}

	counts := make(map[Rank]int, 5)
	for _, c := range cs {
		counts[c.Rank]++
	}

	var h Hand
	copy(h.Cards[:], cs)
	sort.SliceStable(h.Cards[:], func(i, j int) bool {
		ci, cj := counts[h.Cards[i].Rank], counts[h.Cards[j].Rank]
		if ci != cj {
			return ci > cj
		}
		if h.Cards[i].Rank != h.Cards[j].Rank {
			return h.Cards[i].Rank > h.Cards[j].Rank
		}
		return h.Cards[i].Suit > h.Cards[j].Suit
	})

	flush := true
	for _, c := range h.Cards[1:] {
		if c.Suit != h.Cards[0].Suit {
			flush = false
			break
		}
	}
	straight := len(counts) == 5
	for i := 0; straight && i < 4; i++ {
		if h.Cards[i].Rank != h.Cards[i+1].Rank+1 {
			straight = false
		}
	}

	first := counts[h.Cards[0].Rank]
	second := counts[h.Cards[first].Rank]

	switch {
	case straight && flush && h.Cards[0].Rank == Ace:
		h.Category = RoyalFlush
	case straight && flush:
		h.Category = StraightFlush
	case first == 4:
		h.Category = FourOfAKind
	case first == 3 && second == 2:
		h.Category = FullHouse
	case flush:
		h.Category = Flush
	case straight:
		h.Category = Straight
	case first == 3:
		h.Category = ThreeOfAKind
	case first == 2 && second == 2:
		h.Category = TwoPair
	case first == 2:
		h.Category = OnePair
	default:
		h.Category = HighCard
	}
	return h, nil
}

// CompareHands returns >0 when a beats b, <0 when b beats a and 0 on a tie.
func CompareHands(a, b Hand) int {
	if a.Category != b.Category {
		return int(a.Category) - int(b.Category)
	}
	for i := 0; i < 5; i++ {
		if a.Cards[i].Rank != b.Cards[i].Rank {
			return int(a.Cards[i].Rank) - int(b.Cards[i].Rank)
		}
	}
	return 0
}

// FindBestHand evaluates every five-card combination of 5 to 7 cards.
func FindBestHand(cs []Card) (Hand, error) {
	if len(cs) < 5 || len(cs) > 7 {
		return Hand{}, fmt.Errorf("find best hand: need 5 to 7 cards, got %d", len(cs))
	}

	var (
		best  Hand
		found bool
		pick  [5]int
		five  = make([]Card, 5)
	)
	var walk func(start, depth int)
	walk = func(start, depth int) {
		if depth == 5 {
			for i, idx := range pick {
				five[i] = cs[idx]
			}
			h, _ := EvaluateHand(five)
			if !found || CompareHands(h, best) > 0 {
				best, found = h, true
			}
			return
		}
		for i := start; i <= len(cs)-(5-depth); i++ {
			pick[depth] = i
			walk(i+1, depth+1)
		}
	}
	walk(0, 0)
	return best, nil
}
