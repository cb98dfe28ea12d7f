package cards

const BlackjackLimit = 21

// ResolveValue returns the blackjack value of c given the total accumulated before it.
func ResolveValue(c Card, runningTotal int) int {
	switch {
	case c.Soft():
		if runningTotal+11 <= BlackjackLimit {
			return 11
		}
		return 1
	case c.Rank >= Jack:
		return 10
	default:
		return int(c.Rank)
	}
}

// HandTotal resolves left to right; earlier aces are never re-valued, so {A,9,5} busts at 25.
func HandTotal(hand []Card) int {
	total := 0
	for _, c := range hand {
		total += ResolveValue(c, total)
	}
	return total
}

// IsNatural reports a two-card 21.
func IsNatural(hand []Card) bool {
	return len(hand) == 2 && HandTotal(hand) == BlackjackLimit
}

// SplitValue is the value used to decide whether two cards form a pair.
func SplitValue(c Card) int {
	if c.Soft() {
		return 11
	}
	return ResolveValue(c, 0)
}
