package linear

import (
	"bytes"
	"encoding/json"
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/qnglm/glm"
	"github.com/ezoic/qnglm/glm/qn"
	"github.com/ezoic/qnglm/metrics"
	"github.com/ezoic/qnglm/pkg/errors"
	"github.com/ezoic/qnglm/pkg/log"
)

func regressionData(n int) (*mat.Dense, *mat.Dense) {
	rng := rand.New(rand.NewSource(42))
	X := mat.NewDense(n, 3, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		x0, x1, x2 := rng.NormFloat64(), rng.NormFloat64(), rng.NormFloat64()
		X.SetRow(i, []float64{x0, x1, x2})
		y.Set(i, 0, 1.5*x0-2*x1+0.5*x2+0.3+0.05*rng.NormFloat64())
	}
	return X, y
}

func blobs(n int) (*mat.Dense, *mat.Dense) {
	rng := rand.New(rand.NewSource(7))
	centers := [][2]float64{{0, 4}, {4, 0}, {-4, -4}}
	X := mat.NewDense(n, 2, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		c := i % 3
		X.Set(i, 0, centers[c][0]+0.5*rng.NormFloat64())
		X.Set(i, 1, centers[c][1]+0.5*rng.NormFloat64())
		y.Set(i, 0, float64(c))
	}
	return X, y
}

func TestQNRegression(t *testing.T) {
	X, y := regressionData(100)

	reg := NewQN(WithTol(1e-8))
	require.NoError(t, reg.Fit(X, y))
	assert.True(t, reg.IsFitted())
	assert.True(t, reg.Status().Converged())
	assert.Greater(t, reg.NIter(), 0)

	coef := reg.Coef()
	r, c := coef.Dims()
	assert.Equal(t, 1, r)
	assert.Equal(t, 3, c)
	assert.InDelta(t, 1.5, coef.At(0, 0), 0.05)
	assert.InDelta(t, -2.0, coef.At(0, 1), 0.05)
	assert.InDelta(t, 0.5, coef.At(0, 2), 0.05)
	assert.InDelta(t, 0.3, reg.Intercept()[0], 0.05)

	score, err := reg.Score(X, y)
	require.NoError(t, err)
	assert.Greater(t, score, 0.99)

	// The objective is half the training MSE.
	preds, err := reg.Predict(X)
	require.NoError(t, err)
	mse, err := metrics.MSEMatrix(y, preds)
	require.NoError(t, err)
	assert.InDelta(t, mse/2, reg.Objective(), 1e-10)

	hist := reg.History()
	require.Len(t, hist, reg.NIter()+1)
	for i := 1; i < len(hist); i++ {
		assert.LessOrEqual(t, hist[i], hist[i-1])
	}
}

func TestQNLogisticProbabilities(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	const n = 200
	X := mat.NewDense(n, 2, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		a, b := rng.NormFloat64(), rng.NormFloat64()
		X.SetRow(i, []float64{a, b})
		if a-b+0.5*rng.NormFloat64() > 0 {
			y.Set(i, 0, 1)
		}
	}

	clf := NewQN(WithLoss(glm.LossLogistic), WithTol(1e-8))
	require.NoError(t, clf.Fit(X, y))

	proba, err := clf.PredictProba(X)
	require.NoError(t, err)
	pr, pc := proba.Dims()
	assert.Equal(t, n, pr)
	assert.Equal(t, 2, pc)
	for i := 0; i < n; i++ {
		assert.InDelta(t, 1, proba.At(i, 0)+proba.At(i, 1), 1e-12)
	}

	// Without penalties the objective is the training log loss.
	ll, err := metrics.BinaryLogLoss(mat.NewVecDense(n, mat.Col(nil, 0, y)), mat.NewVecDense(n, mat.Col(nil, 1, proba)))
	require.NoError(t, err)
	assert.InDelta(t, ll, clf.Objective(), 1e-9)

	// Predictions threshold the decision function at zero.
	scores, err := clf.DecisionFunction(X)
	require.NoError(t, err)
	preds, err := clf.Predict(X)
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		want := 0.0
		if scores.At(i, 0) > 0 {
			want = 1
		}
		assert.Equal(t, want, preds.At(i, 0))
	}

	acc, err := clf.Score(X, y)
	require.NoError(t, err)
	assert.Greater(t, acc, 0.8)
}

func TestQNSoftmax(t *testing.T) {
	X, y := blobs(90)

	clf := NewQN(WithLoss(glm.LossSoftmax), WithL2(0.001))
	require.NoError(t, clf.Fit(X, y))
	assert.Equal(t, 3, clf.NClassesFitted())

	r, c := clf.Coef().Dims()
	assert.Equal(t, 3, r)
	assert.Equal(t, 2, c)
	assert.Len(t, clf.Intercept(), 3)

	acc, err := clf.Score(X, y)
	require.NoError(t, err)
	assert.Equal(t, 1.0, acc)

	proba, err := clf.PredictProba(X)
	require.NoError(t, err)
	ce, err := metrics.CrossEntropy(mat.NewVecDense(90, mat.Col(nil, 0, y)), proba)
	require.NoError(t, err)
	assert.Less(t, ce, 0.1)

	scores, err := clf.DecisionFunction(X)
	require.NoError(t, err)
	sr, sc := scores.Dims()
	assert.Equal(t, 90, sr)
	assert.Equal(t, 3, sc)
}

func TestQNSoftmaxFixedClasses(t *testing.T) {
	X, y := blobs(30)

	clf := NewQN(WithLoss(glm.LossSoftmax), WithNClasses(4))
	require.NoError(t, clf.Fit(X, y))
	assert.Equal(t, 4, clf.NClassesFitted())

	clf = NewQN(WithLoss(glm.LossSoftmax), WithNClasses(2))
	err := clf.Fit(X, y)
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))
	assert.False(t, clf.IsFitted())
}

func TestQNL1Sparsity(t *testing.T) {
	X, y := regressionData(100)

	dense := NewQN()
	require.NoError(t, dense.Fit(X, y))

	sparse := NewQN(WithL1(1))
	require.NoError(t, sparse.Fit(X, y))

	// Penalized coefficients shrink towards zero and the weakest one is
	// removed entirely.
	for j := 0; j < 3; j++ {
		assert.LessOrEqual(t, math.Abs(sparse.Coef().At(0, j)), math.Abs(dense.Coef().At(0, j))+1e-9)
	}
	assert.Equal(t, 0.0, sparse.Coef().At(0, 2))
}

func TestQNColumnMajorInput(t *testing.T) {
	X, y := regressionData(50)

	// The same samples stored transposed.
	var XT mat.Dense
	XT.CloneFrom(X.T())

	a := NewQN(WithTol(1e-8))
	require.NoError(t, a.Fit(X, y))
	b := NewQN(WithTol(1e-8))
	require.NoError(t, b.Fit(XT.T(), y))

	assert.True(t, mat.EqualApprox(a.Coef(), b.Coef(), 1e-12))
}

func TestQNConvergenceWarning(t *testing.T) {
	X, y := regressionData(50)

	var warnings []error
	errors.SetWarningHandler(func(w error) { warnings = append(warnings, w) })
	defer errors.SetWarningHandler(nil)

	reg := NewQN(WithMaxIter(1), WithTol(1e-12))
	require.NoError(t, reg.Fit(X, y))
	assert.Equal(t, qn.MaxIterationsReached, reg.Status())
	assert.Equal(t, 1, reg.NIter())

	require.Len(t, warnings, 1)
	var cw *errors.ConvergenceWarning
	require.True(t, errors.As(warnings[0], &cw))
	assert.Equal(t, "QN", cw.Algorithm)
	assert.Equal(t, 1, cw.Iterations)
}

func TestQNProgressCallback(t *testing.T) {
	X, y := regressionData(50)

	var iters []int
	reg := NewQN(WithProgress(func(it qn.Iteration) { iters = append(iters, it.Iter) }))
	require.NoError(t, reg.Fit(X, y))
	require.Len(t, iters, reg.NIter())
	for i, it := range iters {
		assert.Equal(t, i+1, it)
	}
}

func TestQNErrors(t *testing.T) {
	X, y := regressionData(10)

	t.Run("not fitted", func(t *testing.T) {
		m := NewQN()
		_, err := m.Predict(X)
		var nf *errors.NotFittedError
		assert.True(t, errors.As(err, &nf))

		_, err = m.Score(X, y)
		assert.True(t, errors.As(err, &nf))
		assert.Nil(t, m.Coef())
		assert.Nil(t, m.Intercept())
	})

	t.Run("sample mismatch", func(t *testing.T) {
		err := NewQN().Fit(X, mat.NewDense(9, 1, nil))
		var dim *errors.DimensionError
		assert.True(t, errors.As(err, &dim))
	})

	t.Run("empty", func(t *testing.T) {
		err := NewQN().Fit(&mat.Dense{}, &mat.Dense{})
		assert.True(t, errors.Is(err, errors.ErrEmptyData))
	})

	t.Run("y not a column", func(t *testing.T) {
		err := NewQN().Fit(X, mat.NewDense(10, 2, nil))
		var ve *errors.ValueError
		assert.True(t, errors.As(err, &ve))
	})

	t.Run("bad hyperparameters", func(t *testing.T) {
		for _, opt := range []QNOption{
			WithL1(-1), WithL2(-0.5), WithTol(math.NaN()), WithMaxIter(-1),
			WithLinesearchMaxIter(0), WithLBFGSMemory(0), WithLoss(glm.LossType(9)),
		} {
			err := NewQN(opt).Fit(X, y)
			var ve *errors.ValueError
			assert.True(t, errors.As(err, &ve), "%v", err)
		}
	})

	t.Run("bad labels", func(t *testing.T) {
		err := NewQN(WithLoss(glm.LossLogistic)).Fit(X, y)
		assert.True(t, errors.Is(err, errors.ErrInvalidInput))

		yNeg := mat.NewDense(10, 1, []float64{0, 1, 2, -1, 0, 1, 2, 0, 1, 2})
		err = NewQN(WithLoss(glm.LossSoftmax)).Fit(X, yNeg)
		assert.True(t, errors.Is(err, errors.ErrInvalidInput))

		ones := mat.NewDense(10, 1, nil)
		err = NewQN(WithLoss(glm.LossSoftmax)).Fit(X, ones)
		var ve *errors.ValueError
		assert.True(t, errors.As(err, &ve))
	})

	t.Run("non-finite input", func(t *testing.T) {
		bad := mat.DenseCopyOf(X)
		bad.Set(3, 1, math.Inf(1))
		err := NewQN().Fit(bad, y)
		assert.True(t, errors.Is(err, errors.ErrNumerical))
	})

	t.Run("feature mismatch", func(t *testing.T) {
		m := NewQN()
		require.NoError(t, m.Fit(X, y))
		_, err := m.Predict(mat.NewDense(3, 2, nil))
		var dim *errors.DimensionError
		assert.True(t, errors.As(err, &dim))
	})

	t.Run("squared has no probabilities", func(t *testing.T) {
		m := NewQN()
		require.NoError(t, m.Fit(X, y))
		_, err := m.PredictProba(X)
		assert.Error(t, err)
	})
}

func TestQNParams(t *testing.T) {
	m := NewQN(WithL2(0.5), WithFitIntercept(false), WithVerbosity(2))
	params := m.GetParams()
	assert.Equal(t, "squared", params["loss"])
	assert.Equal(t, 0.5, params["l2"])
	assert.Equal(t, false, params["fit_intercept"])
	assert.Equal(t, 2, params["verbose"])
	assert.Equal(t, 1000, params["max_iter"])

	require.NoError(t, m.SetParams(map[string]interface{}{
		"loss":     "logistic",
		"l1":       0.1,
		"max_iter": 50,
	}))
	assert.Equal(t, glm.LossLogistic, m.Loss)
	assert.Equal(t, 0.1, m.L1)
	assert.Equal(t, 50, m.MaxIter)

	assert.Error(t, m.SetParams(map[string]interface{}{"alpha": 1.0}))
	assert.Error(t, m.SetParams(map[string]interface{}{"max_iter": 1.5}))
	assert.Equal(t, 50, m.MaxIter)
	assert.Error(t, m.SetParams(map[string]interface{}{"loss": "hinge"}))
}

func TestQNRefitResetsState(t *testing.T) {
	X, y := regressionData(20)
	m := NewQN()
	require.NoError(t, m.Fit(X, y))
	require.NoError(t, m.SetParams(map[string]interface{}{"l2": 0.1}))
	assert.False(t, m.IsFitted())
	require.NoError(t, m.Fit(X, y))
	assert.True(t, m.IsFitted())
}

func TestQNSetParamsRetagsLogger(t *testing.T) {
	var buf bytes.Buffer
	log.SetProvider(log.NewZerologProviderWithWriter(&buf, zerolog.InfoLevel))
	defer log.SetProvider(nil)

	m := NewQN()
	require.NoError(t, m.SetParams(map[string]interface{}{"loss": "logistic", "l2": 0.1}))

	X := mat.NewDense(4, 1, []float64{-2, -1, 1, 2})
	y := mat.NewDense(4, 1, []float64{0, 1, 0, 1})
	require.NoError(t, m.Fit(X, y))

	var fitLines int
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry), line)
		if entry[log.LoggerNameKey] != "linear" {
			continue
		}
		fitLines++
		assert.Equal(t, "logistic", entry[log.LossTypeKey], line)
	}
	assert.Equal(t, 2, fitLines)
}
