package glm

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Softmax is the multinomial cross-entropy loss over C > 1 classes. Labels
// are class indices 0..C-1 stored as floats:
//
//	l(y, z) = log Σ_c exp(z_c) - z_y
type Softmax struct {
	dims Dims
}

// NewSoftmax returns the softmax loss for d features and c classes.
func NewSoftmax(d, c int, fitIntercept bool) *Softmax {
	return &Softmax{dims: Dims{C: c, D: d, FitIntercept: fitIntercept}}
}

func (s *Softmax) Dims() Dims  { return s.dims }
func (s *Softmax) NParam() int { return s.dims.NParam() }

func (s *Softmax) Evaluate(w []float64, X mat.Matrix, y []float64, z *mat.Dense, grad []float64) float64 {
	C := s.dims.C
	return evaluate(s.dims, w, X, y, z, grad, func(z []float64, stride, i int, y float64) float64 {
		label := int(y)
		m := math.Inf(-1)
		for c := 0; c < C; c++ {
			m = math.Max(m, z[c*stride+i])
		}
		var sum float64
		for c := 0; c < C; c++ {
			sum += math.Exp(z[c*stride+i] - m)
		}
		lse := m + math.Log(sum)
		loss := lse - z[label*stride+i]
		for c := 0; c < C; c++ {
			p := math.Exp(z[c*stride+i] - lse)
			if c == label {
				p--
			}
			z[c*stride+i] = p
		}
		return loss
	})
}
