package qn

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

const (
	stepShrink = 0.5
	stepExpand = 2.1
)

// lineSearch is a backtracking search along a fixed direction. With an L1
// penalty every trial point is projected onto the orthant chosen at the
// start of the search, so no coordinate changes sign within one step.
type lineSearch struct {
	obj     Objective
	p       *Params
	l1      float64
	k       int // penalized prefix length
	orthant []float64
	dx      []float64
}

func newLineSearch(obj Objective, p *Params, l1 float64, k, n int) *lineSearch {
	ls := &lineSearch{obj: obj, p: p, l1: l1, k: k, dx: make([]float64, n)}
	if l1 > 0 {
		ls.orthant = make([]float64, n)
	}
	return ls
}

// value evaluates the full objective at x, writing the smooth gradient to g.
func (ls *lineSearch) value(x, g []float64) float64 {
	f := ls.obj.Evaluate(x, g)
	if ls.l1 > 0 {
		f += ls.l1 * floats.Norm(x[:ls.k], 1)
	}
	return f
}

// search tries x = xp + step·d, starting from the given step, for at most
// MaxLinesearch trials. xp is the start point with objective fx0 and
// (pseudo-)gradient pgp. On success x and g hold the accepted point and its
// smooth gradient. On failure their contents are unspecified.
func (ls *lineSearch) search(x, g, xp, pgp, d []float64, fx0, step float64) (fx, accepted float64, trials int, ok bool) {
	p := ls.p
	dg0 := floats.Dot(d, pgp)
	if !(dg0 < 0) {
		return fx0, 0, 0, false
	}
	if ls.l1 > 0 {
		chooseOrthant(xp, pgp, ls.k, ls.orthant)
	}

	for trials = 1; trials <= p.MaxLinesearch; trials++ {
		floats.AddScaledTo(x, xp, step, d)
		if ls.l1 > 0 {
			projectOrthant(x, ls.orthant, ls.k)
		}
		fx = ls.value(x, g)

		width := stepShrink
		switch {
		case math.IsNaN(fx) || math.IsInf(fx, 0):
		case ls.l1 > 0:
			floats.SubTo(ls.dx, x, xp)
			if dec := floats.Dot(pgp, ls.dx); dec < 0 && fx <= fx0+p.FTol*dec {
				return fx, step, trials, true
			}
		case fx > fx0+step*p.FTol*dg0:
		case p.Linesearch == BacktrackingArmijo:
			return fx, step, trials, true
		default:
			dg := floats.Dot(d, g)
			switch {
			case dg < p.Wolfe*dg0:
				width = stepExpand
			case p.Linesearch == BacktrackingStrongWolfe && dg > -p.Wolfe*dg0:
			default:
				return fx, step, trials, true
			}
		}

		step *= width
		if step < p.MinStep || step > p.MaxStep {
			break
		}
	}
	return fx0, 0, min(trials, p.MaxLinesearch), false
}
