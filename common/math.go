package common

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Progress is elapsed/length clamped to [0, 1]; a zero length counts as done.
func Progress(elapsed, length float64) float64 {
	if length <= 0 {
		return 1
	}
	return Clamp(elapsed/length, 0, 1)
}
