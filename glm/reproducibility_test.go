package glm

import (
	"math/rand"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/qnglm/core/tensor"
)

// setProcs sets GOMAXPROCS for the rest of the test.
func setProcs(t *testing.T, n int) {
	t.Helper()
	prev := runtime.GOMAXPROCS(n)
	t.Cleanup(func() { runtime.GOMAXPROCS(prev) })
}

// TestLossEvaluateIsBitReproducible evaluates the same point repeatedly on
// enough samples to split the reduction across goroutines.
func TestLossEvaluateIsBitReproducible(t *testing.T) {
	setProcs(t, 8)

	const n, d = 20000, 5
	rng := rand.New(rand.NewSource(5))
	rm, _ := design(rng, n, d)
	y := make([]float64, n)
	for i := range y {
		y[i] = 100 * rng.NormFloat64()
	}
	X, err := tensor.View(rm, n, d, tensor.RowMajor)
	require.NoError(t, err)

	loss := NewSquared(d, true)
	w := make([]float64, loss.NParam())
	for i := range w {
		w[i] = 10 * rng.NormFloat64()
	}
	z := mat.NewDense(1, n, nil)
	grad := make([]float64, len(w))
	want := loss.Evaluate(w, X, y, z, grad)
	wantGrad := append([]float64(nil), grad...)

	for i := 0; i < 100; i++ {
		assert.Equal(t, want, loss.Evaluate(w, X, y, z, grad))
		assert.Equal(t, wantGrad, grad)
	}

	// The chunk layout does not depend on the number of CPUs.
	runtime.GOMAXPROCS(1)
	assert.Equal(t, want, loss.Evaluate(w, X, y, z, grad))
}

// TestQNFitWeightReproducibility tests that repeated fits on the same data
// produce identical weights and iteration counts
func TestQNFitWeightReproducibility(t *testing.T) {
	setProcs(t, 8)

	const n, d = 20000, 6
	rng := rand.New(rand.NewSource(8))
	X, _ := design(rng, n, d)
	y := labels(rng, n, 2)

	p := DefaultQNParams()
	p.Loss = LossLogistic
	p.L2 = 1e-3
	p.GradTol = 1e-8

	fit := func() ([]float64, int) {
		w := make([]float64, Dims{C: 1, D: d, FitIntercept: true}.NParam())
		_, iters := QNFit(X, y, n, d, 1, false, p, w)
		return w, iters
	}

	w1, iters1 := fit()
	for i := 0; i < 10; i++ {
		w2, iters2 := fit()
		require.Equal(t, iters1, iters2, "run %d", i)
		require.Equal(t, w1, w2, "run %d", i)
	}

	runtime.GOMAXPROCS(1)
	w3, iters3 := fit()
	assert.Equal(t, iters1, iters3)
	assert.Equal(t, w1, w3)
}
