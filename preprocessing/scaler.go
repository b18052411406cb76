// Package preprocessing provides feature scaling for the GLM estimators.
//
// Quasi-Newton training converges fastest when features share a scale, so
// callers typically standardize before fitting and map the learned weights
// back afterwards:
//
//	scaler := preprocessing.NewStandardScaler(true, true)
//	Xs, err := scaler.FitTransform(X)
//	...
//	model.Fit(Xs, y)
//	coef, intercept, err := scaler.UnscaleCoef(model.Coef(), model.Intercept())
package preprocessing

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/qnglm/core/model"
	qnErrors "github.com/ezoic/qnglm/pkg/errors"
)

// minScale replaces the standard deviation of constant columns.
const minScale = 1e-8

// StandardScaler removes the column mean and divides by the population
// standard deviation.
type StandardScaler struct {
	State *model.StateManager

	// Mean holds the per-feature mean, zero when WithMean is false.
	Mean []float64
	// Scale holds the per-feature standard deviation, one when WithStd is false.
	Scale []float64

	WithMean bool
	WithStd  bool
}

// NewStandardScaler creates a StandardScaler.
func NewStandardScaler(withMean, withStd bool) *StandardScaler {
	return &StandardScaler{
		State:    model.NewStateManager(),
		WithMean: withMean,
		WithStd:  withStd,
	}
}

// Fit computes the column statistics of X.
func (s *StandardScaler) Fit(X mat.Matrix) (err error) {
	defer qnErrors.Recover(&err, "StandardScaler.Fit")
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return qnErrors.NewModelError("StandardScaler.Fit", "empty data", qnErrors.ErrEmptyData)
	}

	s.Mean = make([]float64, c)
	s.Scale = make([]float64, c)
	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, X)
		if err := qnErrors.CheckVector("X", col, 0); err != nil {
			return err
		}
		if s.WithMean {
			s.Mean[j] = floats.Sum(col) / float64(r)
		}
		s.Scale[j] = 1
		if s.WithStd {
			mean := floats.Sum(col) / float64(r)
			ss := 0.0
			for _, v := range col {
				ss += (v - mean) * (v - mean)
			}
			if sd := math.Sqrt(ss / float64(r)); sd >= minScale {
				s.Scale[j] = sd
			}
		}
	}

	s.State.SetDimensions(c, r)
	s.State.SetFitted()
	return nil
}

// Transform returns (X - Mean) / Scale.
func (s *StandardScaler) Transform(X mat.Matrix) (_ *mat.Dense, err error) {
	defer qnErrors.Recover(&err, "StandardScaler.Transform")
	if err := s.checkFitted("Transform", X); err != nil {
		return nil, err
	}
	r, c := X.Dims()
	out := mat.NewDense(r, c, nil)
	out.Apply(func(_, j int, v float64) float64 {
		return (v - s.Mean[j]) / s.Scale[j]
	}, X)
	return out, nil
}

// FitTransform fits on X and returns its transform.
func (s *StandardScaler) FitTransform(X mat.Matrix) (*mat.Dense, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// InverseTransform returns X*Scale + Mean.
func (s *StandardScaler) InverseTransform(X mat.Matrix) (_ *mat.Dense, err error) {
	defer qnErrors.Recover(&err, "StandardScaler.InverseTransform")
	if err := s.checkFitted("InverseTransform", X); err != nil {
		return nil, err
	}
	r, c := X.Dims()
	out := mat.NewDense(r, c, nil)
	out.Apply(func(_, j int, v float64) float64 {
		return v*s.Scale[j] + s.Mean[j]
	}, X)
	return out, nil
}

// UnscaleCoef converts weights learned on transformed features into weights
// for the raw features. coef is C×D; intercept has C entries and may be nil
// when the model was fitted without one.
func (s *StandardScaler) UnscaleCoef(coef mat.Matrix, intercept []float64) (*mat.Dense, []float64, error) {
	if err := s.checkFitted("UnscaleCoef", coef); err != nil {
		return nil, nil, err
	}
	classes, d := coef.Dims()
	if intercept != nil && len(intercept) != classes {
		return nil, nil, qnErrors.NewDimensionError("StandardScaler.UnscaleCoef", classes, len(intercept), 0)
	}
	w := mat.NewDense(classes, d, nil)
	b := make([]float64, classes)
	for c := 0; c < classes; c++ {
		if intercept != nil {
			b[c] = intercept[c]
		}
		for j := 0; j < d; j++ {
			wj := coef.At(c, j) / s.Scale[j]
			w.Set(c, j, wj)
			b[c] -= wj * s.Mean[j]
		}
	}
	return w, b, nil
}

func (s *StandardScaler) checkFitted(method string, X mat.Matrix) error {
	if !s.State.IsFitted() {
		return qnErrors.NewNotFittedError("StandardScaler", method)
	}
	if _, c := X.Dims(); c != len(s.Mean) {
		return qnErrors.NewDimensionError("StandardScaler."+method, len(s.Mean), c, 1)
	}
	return nil
}

// GetParams returns the scaler's hyperparameters.
func (s *StandardScaler) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"with_mean": s.WithMean,
		"with_std":  s.WithStd,
	}
}

func (s *StandardScaler) String() string {
	if !s.State.IsFitted() {
		return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t)", s.WithMean, s.WithStd)
	}
	return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t, n_features=%d)",
		s.WithMean, s.WithStd, len(s.Mean))
}
