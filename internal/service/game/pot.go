package game

import "sort"

type pot struct {
	amount   int64
	eligible []int // seats, ascending
}

// buildPots layers the pot by contribution level. Each layer is contested by the
// non-folded seats that paid into it; a layer only one seat reached is returned to it.
func buildPots(contributed []int64, folded []bool) []pot {
	levels := make([]int64, 0, len(contributed))
	seen := make(map[int64]bool)
	for _, c := range contributed {
		if c > 0 && !seen[c] {
			seen[c] = true
			levels = append(levels, c)
		}
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i] < levels[j] })

	pots := make([]pot, 0, len(levels))
	var prev int64
	for _, level := range levels {
		layer := pot{}
		for seat, c := range contributed {
			if c <= prev {
				continue
			}
			part := c - prev
			if part > level-prev {
				part = level - prev
			}
			layer.amount += part
			if !folded[seat] && c >= level {
				layer.eligible = append(layer.eligible, seat)
			}
		}
		prev = level

		if len(pots) > 0 && sameSeats(pots[len(pots)-1].eligible, layer.eligible) {
			pots[len(pots)-1].amount += layer.amount
			continue
		}
		if len(layer.eligible) == 0 && len(pots) > 0 {
			// Dead money above every live stake goes to the last contested layer.
			pots[len(pots)-1].amount += layer.amount
			continue
		}
		pots = append(pots, layer)
	}
	return pots
}

func sameSeats(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// splitPot divides amount evenly; odd chips go to the earliest winning seats.
func splitPot(amount int64, winners []int) map[int]int64 {
	out := make(map[int]int64, len(winners))
	if len(winners) == 0 {
		return out
	}
	sorted := append([]int(nil), winners...)
	sort.Ints(sorted)
	share := amount / int64(len(sorted))
	rem := amount % int64(len(sorted))
	for i, seat := range sorted {
		out[seat] = share
		if int64(i) < rem {
			out[seat]++
		}
	}
	return out
}
