package glm

import (
	"gonum.org/v1/gonum/mat"
)

// Dims describes the parameter layout of a linear model.
type Dims struct {
	C            int // outputs (1 for binary and regression)
	D            int // features
	FitIntercept bool
}

// NParam is the length of the weight vector.
func (d Dims) NParam() int {
	if d.FitIntercept {
		return d.C * (d.D + 1)
	}
	return d.C * d.D
}

// penalized is the length of the prefix of w holding feature weights.
func (d Dims) penalized() int {
	return d.C * d.D
}

// split returns views of w as the C×D coefficient matrix and the intercept
// slice (nil without intercept). Both alias w.
func (d Dims) split(w []float64) (*mat.Dense, []float64) {
	W := mat.NewDense(d.C, d.D, w[:d.C*d.D])
	if !d.FitIntercept {
		return W, nil
	}
	return W, w[d.C*d.D : d.C*(d.D+1)]
}

// linearFwd computes Z = W·Xᵀ + b into z (C×N).
func (d Dims) linearFwd(z *mat.Dense, X mat.Matrix, w []float64) {
	W, b := d.split(w)
	z.Mul(W, X.T())
	if b == nil {
		return
	}
	raw := z.RawMatrix()
	for c := 0; c < raw.Rows; c++ {
		row := raw.Data[c*raw.Stride : c*raw.Stride+raw.Cols]
		for i := range row {
			row[i] += b[c]
		}
	}
}

// linearBwd writes the gradient of the mean loss into grad given the
// per-sample derivatives dz (C×N) with respect to Z.
func (d Dims) linearBwd(grad []float64, dz *mat.Dense, X mat.Matrix) {
	n, _ := X.Dims()
	inv := 1 / float64(n)
	G, gb := d.split(grad)
	G.Mul(dz, X)
	G.Scale(inv, G)
	if gb == nil {
		return
	}
	raw := dz.RawMatrix()
	for c := 0; c < raw.Rows; c++ {
		var s float64
		for _, v := range raw.Data[c*raw.Stride : c*raw.Stride+raw.Cols] {
			s += v
		}
		gb[c] = s * inv
	}
}
