package qn

import (
	"github.com/ezoic/qnglm/pkg/errors"
)

// LinesearchKind selects the acceptance test used by the backtracking line
// search.
type LinesearchKind int

const (
	// BacktrackingArmijo accepts the first step meeting sufficient decrease.
	BacktrackingArmijo LinesearchKind = iota
	// BacktrackingWolfe additionally requires the weak curvature condition.
	BacktrackingWolfe
	// BacktrackingStrongWolfe additionally requires the strong curvature condition.
	BacktrackingStrongWolfe
)

func (k LinesearchKind) String() string {
	switch k {
	case BacktrackingArmijo:
		return "armijo"
	case BacktrackingWolfe:
		return "wolfe"
	case BacktrackingStrongWolfe:
		return "strong_wolfe"
	default:
		return "unknown"
	}
}

// Params configures one call to Minimize.
type Params struct {
	// M is the number of curvature pairs kept in the history.
	M int
	// Epsilon is the gradient tolerance. The iteration converges when
	//   ‖g‖ ≤ Epsilon · max(‖x‖, 1)
	// where g is the pseudo-gradient if an L1 penalty is active.
	Epsilon float64
	// Past is the distance, in iterations, of the objective-decrease test.
	// Zero disables the test.
	Past int
	// Delta is the relative tolerance of the objective-decrease test:
	//   |f(k-Past) - f(k)| / max(|f(k)|, 1) < Delta
	Delta float64
	// MaxIterations caps the number of outer iterations. Zero means no cap.
	MaxIterations int
	// Linesearch selects the line search acceptance test. It is ignored when
	// an L1 penalty is active, which always uses the projected Armijo test.
	Linesearch LinesearchKind
	// MaxLinesearch caps the number of trial steps per line search.
	MaxLinesearch int
	// MinStep and MaxStep bound the step length.
	MinStep float64
	MaxStep float64
	// FTol is the sufficient-decrease constant, in (0, 0.5).
	FTol float64
	// Wolfe is the curvature constant, in (FTol, 1).
	Wolfe float64
	// Verbosity > 0 logs one line per iteration.
	Verbosity int
}

// DefaultParams returns the parameters used when the caller does not
// override them.
func DefaultParams() Params {
	return Params{
		M:             6,
		Epsilon:       1e-5,
		Past:          0,
		Delta:         0,
		MaxIterations: 1000,
		Linesearch:    BacktrackingArmijo,
		MaxLinesearch: 20,
		MinStep:       1e-20,
		MaxStep:       1e20,
		FTol:          1e-4,
		Wolfe:         0.9,
	}
}

// Validate reports the first impossible setting.
func (p Params) Validate() error {
	const op = "qn.Params"
	switch {
	case p.M <= 0:
		return errors.NewValueError(op, "history size M must be positive")
	case p.Epsilon < 0:
		return errors.NewValueError(op, "Epsilon must be non-negative")
	case p.Past < 0:
		return errors.NewValueError(op, "Past must be non-negative")
	case p.Delta < 0:
		return errors.NewValueError(op, "Delta must be non-negative")
	case p.MaxIterations < 0:
		return errors.NewValueError(op, "MaxIterations must be non-negative")
	case p.Linesearch < BacktrackingArmijo || p.Linesearch > BacktrackingStrongWolfe:
		return errors.NewValueError(op, "unknown line search")
	case p.MaxLinesearch <= 0:
		return errors.NewValueError(op, "MaxLinesearch must be positive")
	case p.MinStep < 0:
		return errors.NewValueError(op, "MinStep must be non-negative")
	case p.MaxStep < p.MinStep:
		return errors.NewValueError(op, "MaxStep must not be smaller than MinStep")
	case p.FTol <= 0 || p.FTol >= 0.5:
		return errors.NewValueError(op, "FTol must lie in (0, 0.5)")
	case p.Wolfe <= p.FTol || p.Wolfe >= 1:
		return errors.NewValueError(op, "Wolfe must lie in (FTol, 1)")
	}
	return nil
}
