package game

// nextSeat walks the table clockwise from the seat after from and returns the first
// seat accepted by eligible. Each seat is probed at most once, so the walk ends after
// n probes even when nobody is eligible. from may be -1 to start at seat 0.
func nextSeat(n, from int, eligible func(seat int) bool) (int, bool) {
	for step := 1; step <= n; step++ {
		seat := ((from+step)%n + n) % n
		if eligible(seat) {
			return seat, true
		}
	}
	return -1, false
}
