package qn

// Orthant-wise limited-memory quasi-Newton helpers (Andrew & Gao, 2007,
// "Scalable training of L1-regularized log-linear models"). Only the first
// k coordinates carry the L1 penalty; the rest are treated as smooth.

// pseudoGradient writes into pg the minimum-norm subgradient of
// f(x) + l1·‖x[:k]‖₁ given the smooth gradient g.
func pseudoGradient(x, g []float64, l1 float64, k int, pg []float64) {
	for i, xi := range x {
		switch {
		case i >= k:
			pg[i] = g[i]
		case xi < 0:
			pg[i] = g[i] - l1
		case xi > 0:
			pg[i] = g[i] + l1
		case g[i]+l1 < 0:
			pg[i] = g[i] + l1
		case g[i]-l1 > 0:
			pg[i] = g[i] - l1
		default:
			pg[i] = 0
		}
	}
}

// constrainDirection zeroes every penalized component of d that does not
// point against the pseudo-gradient.
func constrainDirection(d, pg []float64, k int) {
	for i := 0; i < k; i++ {
		if d[i]*pg[i] >= 0 {
			d[i] = 0
		}
	}
}

// chooseOrthant writes the orthant the line search may explore: the sign of
// x, or the sign of the steepest descent direction where x is zero.
func chooseOrthant(x, pg []float64, k int, orthant []float64) {
	for i := 0; i < k; i++ {
		if x[i] != 0 {
			orthant[i] = sign(x[i])
		} else {
			orthant[i] = sign(-pg[i])
		}
	}
}

// projectOrthant clamps to zero every penalized coordinate of x that left
// the orthant.
func projectOrthant(x, orthant []float64, k int) {
	for i := 0; i < k; i++ {
		if x[i]*orthant[i] <= 0 {
			x[i] = 0
		}
	}
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
