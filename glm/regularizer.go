package glm

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Tikhonov is the squared L2 penalty l2·‖w‖².
type Tikhonov float64

// AddTo returns the penalty at w and adds its gradient 2·l2·w to grad.
func (t Tikhonov) AddTo(w, grad []float64) float64 {
	l2 := float64(t)
	floats.AddScaled(grad, 2*l2, w)
	return l2 * floats.Dot(w, w)
}

// Regularized decorates a loss with a Tikhonov penalty on the feature
// weights. Intercepts are not penalized.
type Regularized[L Loss] struct {
	loss L
	reg  Tikhonov
}

// NewRegularized wraps loss with the penalty l2·‖w‖².
func NewRegularized[L Loss](loss L, l2 float64) *Regularized[L] {
	return &Regularized[L]{loss: loss, reg: Tikhonov(l2)}
}

func (r *Regularized[L]) Dims() Dims  { return r.loss.Dims() }
func (r *Regularized[L]) NParam() int { return r.loss.NParam() }

func (r *Regularized[L]) Evaluate(w []float64, X mat.Matrix, y []float64, z *mat.Dense, grad []float64) float64 {
	f := r.loss.Evaluate(w, X, y, z, grad)
	k := r.loss.Dims().penalized()
	return f + r.reg.AddTo(w[:k], grad[:k])
}
