package glm

import (
	"gonum.org/v1/gonum/mat"
)

// Squared is the least-squares loss l(y, z) = ½(z - y)².
type Squared struct {
	dims Dims
}

// NewSquared returns the squared-error loss for d features.
func NewSquared(d int, fitIntercept bool) *Squared {
	return &Squared{dims: Dims{C: 1, D: d, FitIntercept: fitIntercept}}
}

func (s *Squared) Dims() Dims  { return s.dims }
func (s *Squared) NParam() int { return s.dims.NParam() }

func (s *Squared) Evaluate(w []float64, X mat.Matrix, y []float64, z *mat.Dense, grad []float64) float64 {
	return evaluate(s.dims, w, X, y, z, grad, squaredKernel)
}

func squaredKernel(z []float64, _ int, i int, y float64) float64 {
	diff := z[i] - y
	z[i] = diff
	return 0.5 * diff * diff
}
