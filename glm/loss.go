package glm

import (
	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/qnglm/core/parallel"
)

// Loss is a GLM loss bound to nothing: it evaluates the mean loss over the
// data it is handed. Evaluate overwrites z (C×N) and writes the gradient,
// of length NParam, into grad.
type Loss interface {
	Dims() Dims
	NParam() int
	Evaluate(w []float64, X mat.Matrix, y []float64, z *mat.Dense, grad []float64) float64
}

// samplesPerChunk is the number of samples one goroutine reduces. Partial
// losses are summed in chunk order, so results do not depend on scheduling
// or on GOMAXPROCS.
const samplesPerChunk = 1000

// sampleKernel computes the loss of sample i and overwrites column i of z
// with dLoss/dZ.
type sampleKernel func(z []float64, stride, i int, y float64) float64

// evaluate runs the shared forward pass, the per-sample kernel and the
// backward pass, returning the mean loss.
func evaluate(dims Dims, w []float64, X mat.Matrix, y []float64, z *mat.Dense, grad []float64, kernel sampleKernel) float64 {
	dims.linearFwd(z, X, w)

	raw := z.RawMatrix()
	partial := make([]float64, parallel.NumChunks(raw.Cols, samplesPerChunk))
	parallel.ParallelizeChunks(raw.Cols, samplesPerChunk, func(idx, start, end int) {
		var local float64
		for i := start; i < end; i++ {
			local += kernel(raw.Data, raw.Stride, i, y[i])
		}
		partial[idx] = local
	})
	var total float64
	for _, v := range partial {
		total += v
	}

	dims.linearBwd(grad, z, X)
	return total / float64(raw.Cols)
}
