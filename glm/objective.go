package glm

import (
	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/qnglm/core/tensor"
)

// WithData binds a loss to a training set and a scratch matrix, turning it
// into a function of the weights alone. It satisfies qn.Objective.
type WithData[L Loss] struct {
	loss  L
	X     mat.Matrix
	y     []float64
	z     *mat.Dense
	n     int
	order tensor.StorageOrder
}

// NewWithData binds loss to X (N×D), y (N) and the C×N scratch matrix z.
func NewWithData[L Loss](loss L, X mat.Matrix, y []float64, z *mat.Dense, order tensor.StorageOrder) *WithData[L] {
	n, _ := X.Dims()
	return &WithData[L]{loss: loss, X: X, y: y, z: z, n: n, order: order}
}

// Evaluate returns the loss at w and writes its gradient into grad.
func (o *WithData[L]) Evaluate(w, grad []float64) float64 {
	return o.loss.Evaluate(w, o.X, o.y, o.z, grad)
}

// N is the number of bound samples.
func (o *WithData[L]) N() int { return o.n }

// Order is the storage order of the bound design matrix.
func (o *WithData[L]) Order() tensor.StorageOrder { return o.order }
