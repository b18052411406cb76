package glm

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Logistic is the binary cross-entropy loss on labels in {0, 1}:
//
//	l(y, z) = log(1 + eᶻ) - y·z
type Logistic struct {
	dims Dims
}

// NewLogistic returns the logistic loss for d features.
func NewLogistic(d int, fitIntercept bool) *Logistic {
	return &Logistic{dims: Dims{C: 1, D: d, FitIntercept: fitIntercept}}
}

func (l *Logistic) Dims() Dims  { return l.dims }
func (l *Logistic) NParam() int { return l.dims.NParam() }

func (l *Logistic) Evaluate(w []float64, X mat.Matrix, y []float64, z *mat.Dense, grad []float64) float64 {
	return evaluate(l.dims, w, X, y, z, grad, logisticKernel)
}

func logisticKernel(z []float64, _ int, i int, y float64) float64 {
	zi := z[i]
	z[i] = sigmoid(zi) - y
	return softplus(zi) - y*zi
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	ez := math.Exp(z)
	return ez / (1 + ez)
}

// softplus is log(1 + eᶻ) without overflow.
func softplus(z float64) float64 {
	return math.Max(z, 0) + math.Log1p(math.Exp(-math.Abs(z)))
}
