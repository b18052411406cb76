package qn

import (
	"gonum.org/v1/gonum/floats"
)

// history is the bounded ring of curvature pairs (s, y) behind the L-BFGS
// inverse Hessian approximation. Only pairs with s·y > 0 are stored.
type history struct {
	m     int
	s, y  [][]float64
	rho   []float64 // 1 / (s·y)
	alpha []float64
	start int // index of the oldest pair
	count int
}

func newHistory(m, n int) *history {
	h := &history{
		m:     m,
		s:     make([][]float64, m),
		y:     make([][]float64, m),
		rho:   make([]float64, m),
		alpha: make([]float64, m),
	}
	for i := 0; i < m; i++ {
		h.s[i] = make([]float64, n)
		h.y[i] = make([]float64, n)
	}
	return h
}

func (h *history) len() int { return h.count }

func (h *history) reset() {
	h.start, h.count = 0, 0
}

// at maps the i-th oldest pair to its slot.
func (h *history) at(i int) int {
	return (h.start + i) % h.m
}

// push stores copies of s and y, evicting the oldest pair when full. It
// reports false and stores nothing when s·y ≤ 0.
func (h *history) push(s, y []float64) bool {
	sy := floats.Dot(s, y)
	if !(sy > 0) {
		return false
	}
	var idx int
	if h.count < h.m {
		idx = h.at(h.count)
		h.count++
	} else {
		idx = h.start
		h.start = (h.start + 1) % h.m
	}
	copy(h.s[idx], s)
	copy(h.y[idx], y)
	h.rho[idx] = 1 / sy
	return true
}

// direction writes d = -H·g using the two-loop recursion (Nocedal & Wright,
// algorithm 7.4). With an empty history d = -g.
func (h *history) direction(g, d []float64) {
	copy(d, g)
	if h.count == 0 {
		floats.Scale(-1, d)
		return
	}

	for i := h.count - 1; i >= 0; i-- {
		j := h.at(i)
		h.alpha[j] = h.rho[j] * floats.Dot(h.s[j], d)
		floats.AddScaled(d, -h.alpha[j], h.y[j])
	}

	newest := h.at(h.count - 1)
	yy := floats.Dot(h.y[newest], h.y[newest])
	floats.Scale(1/(h.rho[newest]*yy), d)

	for i := 0; i < h.count; i++ {
		j := h.at(i)
		beta := h.rho[j] * floats.Dot(h.y[j], d)
		floats.AddScaled(d, h.alpha[j]-beta, h.s[j])
	}
	floats.Scale(-1, d)
}
