// Package qn minimizes smooth objectives, optionally plus an L1 penalty,
// with the limited-memory BFGS method.
//
// Without an L1 penalty Minimize runs plain L-BFGS with a backtracking line
// search. With l1 > 0 it runs OWL-QN: the search direction is computed from
// the pseudo-gradient, restricted to the orthant it points into, and every
// trial point is projected back onto that orthant.
//
//	obj := qn.ObjectiveFunc(func(x, g []float64) float64 { ... })
//	res, err := qn.Minimize(obj, x0, 0, qn.DefaultParams())
package qn

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/ezoic/qnglm/pkg/errors"
	"github.com/ezoic/qnglm/pkg/log"
)

// Objective is a smooth function with gradient. Evaluate returns f(x) and
// writes ∇f(x) into grad, which has the same length as x.
type Objective interface {
	Evaluate(x, grad []float64) float64
}

// ObjectiveFunc adapts a plain function to Objective.
type ObjectiveFunc func(x, grad []float64) float64

// Evaluate calls f.
func (f ObjectiveFunc) Evaluate(x, grad []float64) float64 { return f(x, grad) }

// Status is the state of the outer iteration.
type Status int

const (
	Running Status = iota
	ConvergedGradient
	ConvergedObjective
	MaxIterationsReached
	LineSearchFailed
)

func (s Status) String() string {
	switch s {
	case Running:
		return "running"
	case ConvergedGradient:
		return "converged_gradient"
	case ConvergedObjective:
		return "converged_objective"
	case MaxIterationsReached:
		return "max_iterations_reached"
	case LineSearchFailed:
		return "line_search_failed"
	default:
		return "unknown"
	}
}

// Converged reports whether s is one of the convergence states.
func (s Status) Converged() bool {
	return s == ConvergedGradient || s == ConvergedObjective
}

// Result describes a finished minimization.
type Result struct {
	// F is the objective (including the L1 term) at the returned point.
	F float64
	// NumIter is the number of accepted outer iterations.
	NumIter int
	// GradNorm is the norm of the (pseudo-)gradient at the returned point.
	GradNorm float64
	Status   Status
	// History holds F before the first iteration followed by F after every
	// accepted iteration.
	History []float64
}

// Iteration is passed to the progress callback after every accepted step.
// The slices alias the minimizer's buffers and must not be retained.
type Iteration struct {
	Iter       int
	F          float64
	GradNorm   float64
	Step       float64
	Trials     int
	HistoryLen int
	X          []float64
	XPrev      []float64
}

// Option customizes Minimize.
type Option func(*settings)

type settings struct {
	logger   log.Logger
	progress func(Iteration)
	l1Limit  int
}

// WithLogger sets the logger used for per-iteration output.
func WithLogger(l log.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// WithL1Limit restricts the L1 penalty to the first k coordinates, leaving
// trailing coordinates such as intercepts unpenalized.
func WithL1Limit(k int) Option {
	return func(s *settings) { s.l1Limit = k }
}

// WithProgress registers fn to be called after every accepted iteration.
func WithProgress(fn func(Iteration)) Option {
	return func(s *settings) { s.progress = fn }
}

// Minimize minimizes obj(x) + l1·‖x‖₁ starting from x, which is overwritten
// with the best point found. Reaching MaxIterations or failing a line search
// is reported through Result.Status, not as an error; an error is returned
// only for invalid parameters or a non-finite objective at the start point.
func Minimize(obj Objective, x []float64, l1 float64, p Params, opts ...Option) (Result, error) {
	if err := p.Validate(); err != nil {
		return Result{}, err
	}
	if l1 < 0 || math.IsNaN(l1) {
		return Result{}, errors.NewValueError("qn.Minimize", "l1 must be non-negative")
	}
	if len(x) == 0 {
		return Result{}, errors.NewModelError("qn.Minimize", "no parameters", errors.ErrEmptyData)
	}

	n := len(x)
	s := settings{l1Limit: n}
	for _, opt := range opts {
		opt(&s)
	}
	if s.l1Limit < 0 || s.l1Limit > n {
		return Result{}, errors.NewValueError("qn.Minimize", "L1 limit out of range")
	}
	if s.logger == nil {
		s.logger = log.GetLoggerWithName("qn")
	}

	g := make([]float64, n)
	pg := g
	if l1 > 0 {
		pg = make([]float64, n)
	}
	xp := make([]float64, n)
	gp := make([]float64, n)
	pgp := make([]float64, n)
	d := make([]float64, n)
	sk := make([]float64, n)
	yk := make([]float64, n)

	hist := newHistory(p.M, n)
	ls := newLineSearch(obj, &p, l1, s.l1Limit, n)

	fx := ls.value(x, g)
	if err := errors.CheckScalar("objective", fx, 0); err != nil {
		return Result{}, err
	}
	if l1 > 0 {
		pseudoGradient(x, g, l1, s.l1Limit, pg)
	}

	res := Result{F: fx, Status: Running, History: []float64{fx}}
	gnorm := floats.Norm(pg, 2)
	res.GradNorm = gnorm
	if gnorm <= p.Epsilon*math.Max(floats.Norm(x, 2), 1) {
		res.Status = ConvergedGradient
		return res, nil
	}

	copy(d, pg)
	floats.Scale(-1, d)
	step := 1 / floats.Norm(d, 2)

	for k := 1; ; k++ {
		copy(xp, x)
		copy(gp, g)
		copy(pgp, pg)
		fp := fx

		var (
			trials int
			ok     bool
		)
		fx, step, trials, ok = ls.search(x, g, xp, pgp, d, fp, step)
		if !ok {
			copy(x, xp)
			copy(g, gp)
			if l1 > 0 {
				copy(pg, pgp)
			}
			res.F = fp
			res.Status = LineSearchFailed
			s.logger.Debug("Line search failed",
				log.IterationKey, k,
				log.LossKey, fp,
				"trials", trials,
			)
			return res, nil
		}
		res.NumIter = k
		res.F = fx
		res.History = append(res.History, fx)

		if l1 > 0 {
			pseudoGradient(x, g, l1, s.l1Limit, pg)
		}
		gnorm = floats.Norm(pg, 2)
		res.GradNorm = gnorm

		floats.SubTo(sk, x, xp)
		floats.SubTo(yk, g, gp)
		hist.push(sk, yk)

		if p.Verbosity > 0 {
			s.logger.Info("QN iteration",
				log.IterationKey, k,
				log.LossKey, fx,
				log.GradNormKey, gnorm,
				log.StepKey, step,
			)
		}
		if s.progress != nil {
			s.progress(Iteration{
				Iter: k, F: fx, GradNorm: gnorm, Step: step, Trials: trials,
				HistoryLen: hist.len(), X: x, XPrev: xp,
			})
		}

		if gnorm <= p.Epsilon*math.Max(floats.Norm(x, 2), 1) {
			res.Status = ConvergedGradient
			return res, nil
		}
		if p.Past > 0 && k >= p.Past {
			old := res.History[k-p.Past]
			if math.Abs(old-fx)/math.Max(math.Abs(fx), 1) < p.Delta {
				res.Status = ConvergedObjective
				return res, nil
			}
		}
		if p.MaxIterations > 0 && k >= p.MaxIterations {
			res.Status = MaxIterationsReached
			return res, nil
		}

		hist.direction(pg, d)
		if l1 > 0 {
			constrainDirection(d, pg, s.l1Limit)
		}
		if !(floats.Dot(d, pg) < 0) {
			// The quasi-Newton model no longer yields descent; restart from
			// steepest descent.
			hist.reset()
			copy(d, pg)
			floats.Scale(-1, d)
		}
		step = 1
	}
}
