package glm

import (
	"strings"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/qnglm/core/tensor"
	"github.com/ezoic/qnglm/glm/qn"
	"github.com/ezoic/qnglm/pkg/errors"
	"github.com/ezoic/qnglm/pkg/log"
)

// LossType selects the loss minimized by QNFit and the decision rule used
// by QNPredict.
type LossType int

const (
	// LossLogistic requires C == 1; predictions are 0/1.
	LossLogistic LossType = 0
	// LossSquared requires C == 1; predictions are the linear predictor.
	LossSquared LossType = 1
	// LossSoftmax requires C > 1; predictions are class indices.
	LossSoftmax LossType = 2
)

func (t LossType) String() string {
	switch t {
	case LossLogistic:
		return "logistic"
	case LossSquared:
		return "squared"
	case LossSoftmax:
		return "softmax"
	default:
		return "unknown"
	}
}

// ParseLossType maps a loss name to its LossType.
func ParseLossType(name string) (LossType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "logistic", "log", "sigmoid":
		return LossLogistic, nil
	case "squared", "squared_error", "l2", "normal":
		return LossSquared, nil
	case "softmax", "multinomial":
		return LossSoftmax, nil
	}
	return 0, errors.NewValueError("glm.ParseLossType", "unknown loss "+name)
}

// QNParams configures QNFit.
type QNParams struct {
	Loss              LossType
	FitIntercept      bool
	L1                float64
	L2                float64
	GradTol           float64
	MaxIter           int
	LinesearchMaxIter int
	LBFGSMemory       int
	Verbosity         int
}

// DefaultQNParams returns the settings used by the estimator front end.
func DefaultQNParams() QNParams {
	return QNParams{
		Loss:              LossSquared,
		FitIntercept:      true,
		GradTol:           1e-4,
		MaxIter:           1000,
		LinesearchMaxIter: 50,
		LBFGSMemory:       5,
	}
}

func (p QNParams) optimizer() qn.Params {
	o := qn.DefaultParams()
	o.Epsilon = p.GradTol
	o.MaxIterations = p.MaxIter
	o.MaxLinesearch = p.LinesearchMaxIter
	o.M = p.LBFGSMemory
	o.Verbosity = p.Verbosity
	return o
}

// QNFit fits a linear model to the N×D design matrix X (flat, row- or
// column-major) and targets y. w0 is the starting point and receives the
// fitted weights. It returns the final objective value and the number of
// outer iterations; running out of iterations is not reported otherwise.
func QNFit(X, y []float64, n, d, c int, colMajor bool, p QNParams, w0 []float64) (f float64, numIters int) {
	res := QNFitResult(X, y, n, d, c, colMajor, p, w0)
	return res.F, res.NumIter
}

// QNFitResult is QNFit returning the full minimizer result. opts are passed
// to qn.Minimize.
func QNFitResult(X, y []float64, n, d, c int, colMajor bool, p QNParams, w0 []float64, opts ...qn.Option) qn.Result {
	assertf(c >= 1, "glm: C must be positive, got %d", c)
	order := tensor.OrderOf(colMajor)
	xm := mustView(X, n, d, order)
	assertf(len(y) == n, "glm: y has %d entries, want %d", len(y), n)

	z, release := tensor.Default.Acquire(c, n)
	defer release()

	logger := log.GetLoggerWithName("glm").With(
		log.ComponentKey, "qn",
		log.LossTypeKey, p.Loss.String(),
	)
	opts = append([]qn.Option{qn.WithLogger(logger)}, opts...)

	start := time.Now()
	logger.Debug("QN fit started",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, n,
		log.FeaturesKey, d,
		log.ClassesKey, c,
	)

	var (
		res qn.Result
		err error
	)
	switch p.Loss {
	case LossLogistic:
		assertf(c == 1, "glm: logistic loss requires C == 1, got %d", c)
		res, err = fitWith(NewLogistic(d, p.FitIntercept), xm, y, z, order, p, w0, opts)
	case LossSquared:
		assertf(c == 1, "glm: squared loss requires C == 1, got %d", c)
		res, err = fitWith(NewSquared(d, p.FitIntercept), xm, y, z, order, p, w0, opts)
	case LossSoftmax:
		assertf(c > 1, "glm: softmax loss requires C > 1, got %d", c)
		assertLabels(y, c)
		res, err = fitWith(NewSoftmax(d, c, p.FitIntercept), xm, y, z, order, p, w0, opts)
	default:
		panic(errors.AssertionFailedf("glm: unknown loss type %d", int(p.Loss)))
	}
	if err != nil {
		panic(errors.WithAssertionFailure(err))
	}

	logger.Debug("QN fit finished",
		log.OperationKey, log.OperationFit,
		log.StatusKey, res.Status.String(),
		log.IterationKey, res.NumIter,
		log.LossKey, res.F,
		log.GradNormKey, res.GradNorm,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return res
}

// fitWith composes the objective for loss and runs the minimizer. The L2
// wrapper is only added when it contributes. Neither penalty touches the
// intercepts.
func fitWith[L Loss](loss L, X mat.Matrix, y []float64, z *mat.Dense, order tensor.StorageOrder, p QNParams, w []float64, opts []qn.Option) (qn.Result, error) {
	assertf(len(w) == loss.NParam(), "glm: w0 has %d entries, want %d", len(w), loss.NParam())
	opts = append(opts, qn.WithL1Limit(loss.Dims().penalized()))
	if p.L2 == 0 {
		return qn.Minimize(NewWithData(loss, X, y, z, order), w, p.L1, p.optimizer(), opts...)
	}
	assertf(p.L2 > 0, "glm: l2 must be non-negative, got %v", p.L2)
	reg := NewRegularized(loss, p.L2)
	return qn.Minimize(NewWithData(reg, X, y, z, order), w, p.L1, p.optimizer(), opts...)
}

func mustView(data []float64, rows, cols int, order tensor.StorageOrder) mat.Matrix {
	m, err := tensor.View(data, rows, cols, order)
	if err != nil {
		panic(errors.WithAssertionFailure(err))
	}
	return m
}

func assertLabels(y []float64, c int) {
	for i, v := range y {
		assertf(v >= 0 && v < float64(c) && v == float64(int(v)),
			"glm: label %v at row %d is not a class index in [0, %d)", v, i, c)
	}
}

func assertf(cond bool, format string, args ...interface{}) {
	if !cond {
		panic(errors.AssertionFailedf(format, args...))
	}
}
