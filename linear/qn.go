// Package linear provides generalized linear model estimators trained with
// the quasi-Newton solver in package glm.
//
// QN fits logistic regression, least squares and multinomial (softmax)
// regression with optional L1 and L2 penalties:
//
//	clf := linear.NewQN(linear.WithLoss(glm.LossLogistic), linear.WithL2(0.01))
//	if err := clf.Fit(X, y); err != nil {
//		log.Fatal(err)
//	}
//	predictions, err := clf.Predict(XTest)
//
// Inputs are gonum matrices with one sample per row. Fit copies them into
// the flat row-major layout the solver works on, so callers may pass any
// mat.Matrix implementation including transposed views.
package linear

import (
	"math"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/qnglm/core/model"
	"github.com/ezoic/qnglm/core/tensor"
	"github.com/ezoic/qnglm/glm"
	"github.com/ezoic/qnglm/glm/qn"
	"github.com/ezoic/qnglm/metrics"
	"github.com/ezoic/qnglm/pkg/errors"
	"github.com/ezoic/qnglm/pkg/log"
)

// QN is a linear model fitted by L-BFGS, or OWL-QN when L1 > 0.
type QN struct {
	State *model.StateManager // Public for inspection; Reset before refitting on new data

	Loss              glm.LossType
	FitIntercept      bool
	L1                float64
	L2                float64
	Tol               float64
	MaxIter           int
	LinesearchMaxIter int
	LBFGSMemory       int
	Verbosity         int
	// NClasses fixes the number of softmax classes. Zero infers it from
	// the largest label seen by Fit.
	NClasses int

	coef      *mat.Dense // C×D
	intercept []float64  // C entries, zero without intercept
	params    []float64  // fitted weight vector in solver layout
	nClasses  int
	nIter     int
	objective float64
	status    qn.Status
	history   []float64

	progress func(qn.Iteration)
	logger   log.Logger
}

// QNOption configures a QN estimator.
type QNOption func(*QN)

// WithLoss selects the loss. The default is squared error.
func WithLoss(loss glm.LossType) QNOption {
	return func(m *QN) { m.Loss = loss }
}

// WithL1 sets the L1 penalty on the coefficients.
func WithL1(l1 float64) QNOption {
	return func(m *QN) { m.L1 = l1 }
}

// WithL2 sets the L2 penalty on the coefficients.
func WithL2(l2 float64) QNOption {
	return func(m *QN) { m.L2 = l2 }
}

// WithTol sets the relative gradient tolerance.
func WithTol(tol float64) QNOption {
	return func(m *QN) { m.Tol = tol }
}

// WithMaxIter caps the number of solver iterations.
func WithMaxIter(n int) QNOption {
	return func(m *QN) { m.MaxIter = n }
}

// WithLinesearchMaxIter caps the trials per line search.
func WithLinesearchMaxIter(n int) QNOption {
	return func(m *QN) { m.LinesearchMaxIter = n }
}

// WithLBFGSMemory sets the number of curvature pairs kept.
func WithLBFGSMemory(n int) QNOption {
	return func(m *QN) { m.LBFGSMemory = n }
}

// WithFitIntercept toggles the per-class intercept.
func WithFitIntercept(fit bool) QNOption {
	return func(m *QN) { m.FitIntercept = fit }
}

// WithVerbosity enables per-iteration solver logging when v > 0.
func WithVerbosity(v int) QNOption {
	return func(m *QN) { m.Verbosity = v }
}

// WithNClasses fixes the number of softmax classes.
func WithNClasses(c int) QNOption {
	return func(m *QN) { m.NClasses = c }
}

// WithProgress registers fn to be called after every solver iteration.
func WithProgress(fn func(qn.Iteration)) QNOption {
	return func(m *QN) { m.progress = fn }
}

// NewQN creates an unfitted estimator. Unset options take the values of
// glm.DefaultQNParams.
//
// Example:
//
//	clf := linear.NewQN(
//		linear.WithLoss(glm.LossSoftmax),
//		linear.WithL1(0.01),
//		linear.WithMaxIter(200),
//	)
func NewQN(opts ...QNOption) *QN {
	d := glm.DefaultQNParams()
	m := &QN{
		State:             model.NewStateManager(),
		Loss:              d.Loss,
		FitIntercept:      d.FitIntercept,
		L1:                d.L1,
		L2:                d.L2,
		Tol:               d.GradTol,
		MaxIter:           d.MaxIter,
		LinesearchMaxIter: d.LinesearchMaxIter,
		LBFGSMemory:       d.LBFGSMemory,
		Verbosity:         d.Verbosity,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.setLogger()
	return m
}

// setLogger tags the estimator's logger with the current loss.
func (m *QN) setLogger() {
	m.logger = log.GetLoggerWithName("linear").With(
		log.ModelNameKey, "QN",
		log.ComponentKey, "linear",
		log.LossTypeKey, m.Loss.String(),
	)
}

func (m *QN) qnParams() glm.QNParams {
	return glm.QNParams{
		Loss:              m.Loss,
		FitIntercept:      m.FitIntercept,
		L1:                m.L1,
		L2:                m.L2,
		GradTol:           m.Tol,
		MaxIter:           m.MaxIter,
		LinesearchMaxIter: m.LinesearchMaxIter,
		LBFGSMemory:       m.LBFGSMemory,
		Verbosity:         m.Verbosity,
	}
}

func (m *QN) validate() error {
	switch {
	case m.Loss != glm.LossLogistic && m.Loss != glm.LossSquared && m.Loss != glm.LossSoftmax:
		return errors.NewValueError("QN.Fit", "unknown loss "+m.Loss.String())
	case m.L1 < 0 || math.IsNaN(m.L1):
		return errors.NewValueError("QN.Fit", "l1 must be non-negative")
	case m.L2 < 0 || math.IsNaN(m.L2):
		return errors.NewValueError("QN.Fit", "l2 must be non-negative")
	case !(m.Tol >= 0):
		return errors.NewValueError("QN.Fit", "tol must be non-negative")
	case m.MaxIter < 0:
		return errors.NewValueError("QN.Fit", "max_iter must be non-negative")
	case m.LinesearchMaxIter < 1:
		return errors.NewValueError("QN.Fit", "linesearch_max_iter must be positive")
	case m.LBFGSMemory < 1:
		return errors.NewValueError("QN.Fit", "lbfgs_memory must be positive")
	}
	return nil
}

// classes returns the number of outputs for y, checking labels against the
// loss.
func (m *QN) classes(y []float64) (int, error) {
	switch m.Loss {
	case glm.LossSquared:
		return 1, errors.CheckVector("y", y, 0)
	case glm.LossLogistic:
		for i, v := range y {
			if v != 0 && v != 1 {
				return 0, errors.Wrapf(errors.ErrInvalidInput,
					"QN.Fit: logistic labels must be 0 or 1, got %v at row %d", v, i)
			}
		}
		return 1, nil
	}

	maxLabel := 0
	for i, v := range y {
		if v < 0 || v != math.Trunc(v) {
			return 0, errors.Wrapf(errors.ErrInvalidInput,
				"QN.Fit: softmax labels must be non-negative integers, got %v at row %d", v, i)
		}
		if int(v) > maxLabel {
			maxLabel = int(v)
		}
	}
	c := m.NClasses
	if c == 0 {
		c = maxLabel + 1
	}
	if maxLabel >= c {
		return 0, errors.Wrapf(errors.ErrInvalidInput,
			"QN.Fit: label %d out of range for %d classes", maxLabel, c)
	}
	if c < 2 {
		return 0, errors.NewValueError("QN.Fit", "softmax needs at least two classes")
	}
	return c, nil
}

// Fit trains the model on X (n_samples × n_features) and the column vector
// y. Running out of iterations or failing a line search is not an error:
// the best weights found are kept and a ConvergenceWarning is reported
// through errors.Warn.
//
// Errors:
//   - ErrEmptyData: if X has no rows or columns
//   - DimensionError: if X and y disagree on the number of samples
//   - ValueError: for invalid hyperparameters or a y with more than one column
//   - ErrInvalidInput: for labels the loss cannot use
func (m *QN) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "QN.Fit")

	start := time.Now()
	r, c := X.Dims()
	ry, cy := y.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("QN.Fit", "empty data", errors.ErrEmptyData)
	}
	if ry != r {
		return errors.NewDimensionError("QN.Fit", r, ry, 0)
	}
	if cy != 1 {
		return errors.NewValueError("QN.Fit", "y must be a column vector")
	}
	if err := m.validate(); err != nil {
		return err
	}

	xs := tensor.RawRowMajor(X)
	if err := errors.CheckVector("X", xs, 0); err != nil {
		return err
	}
	ys := mat.Col(nil, 0, y)
	nc, err := m.classes(ys)
	if err != nil {
		return err
	}

	m.logger.Info("Training started",
		log.OperationKey, log.OperationFit,
		log.PhaseKey, log.PhaseTraining,
		log.SamplesKey, r,
		log.FeaturesKey, c,
		log.ClassesKey, nc,
	)

	m.State.Reset()
	dims := glm.Dims{C: nc, D: c, FitIntercept: m.FitIntercept}
	w := make([]float64, dims.NParam())
	var opts []qn.Option
	if m.progress != nil {
		opts = append(opts, qn.WithProgress(m.progress))
	}
	res := glm.QNFitResult(xs, ys, r, c, nc, false, m.qnParams(), w, opts...)

	if !res.Status.Converged() {
		errors.Warn(errors.NewConvergenceWarning("QN", res.NumIter, res.Status.String()))
	}

	m.params = w
	m.nClasses = nc
	m.coef = mat.NewDense(nc, c, w[:nc*c])
	m.intercept = make([]float64, nc)
	if m.FitIntercept {
		copy(m.intercept, w[nc*c:])
	}
	m.nIter = res.NumIter
	m.objective = res.F
	m.status = res.Status
	m.history = res.History

	m.State.SetFitted()
	m.State.SetDimensions(c, r)

	m.logger.Info("Training completed",
		log.OperationKey, log.OperationFit,
		log.PhaseKey, log.PhaseTraining,
		log.DurationMsKey, time.Since(start).Milliseconds(),
		log.IterationKey, res.NumIter,
		log.LossKey, res.F,
		log.StatusKey, res.Status.String(),
	)
	return nil
}

// checkPredict validates X against the fitted model and returns its
// row-major copy.
func (m *QN) checkPredict(X mat.Matrix, method string) ([]float64, int, error) {
	if !m.State.IsFitted() {
		return nil, 0, errors.NewNotFittedError("QN", method)
	}
	r, c := X.Dims()
	nFeatures, _ := m.State.GetDimensions()
	if c != nFeatures {
		return nil, 0, errors.NewDimensionError("QN."+method, nFeatures, c, 1)
	}
	if r == 0 {
		return nil, 0, errors.NewModelError("QN."+method, "empty data", errors.ErrEmptyData)
	}
	return tensor.RawRowMajor(X), r, nil
}

// Predict returns an n_samples × 1 matrix of predictions: 0/1 labels for
// logistic loss, class indices for softmax and real values for squared
// error.
func (m *QN) Predict(X mat.Matrix) (_ mat.Matrix, err error) {
	defer errors.Recover(&err, "QN.Predict")
	xs, r, err := m.checkPredict(X, "Predict")
	if err != nil {
		return nil, err
	}

	m.logger.Debug("Prediction started",
		log.OperationKey, log.OperationPredict,
		log.PhaseKey, log.PhaseInference,
		log.SamplesKey, r,
	)

	preds := make([]float64, r)
	_, c := X.Dims()
	glm.QNPredict(xs, r, c, m.nClasses, false, m.FitIntercept, m.params, m.Loss, preds)

	m.logger.Debug("Prediction completed",
		log.OperationKey, log.OperationPredict,
		log.PredsKey, r,
	)
	return mat.NewDense(r, 1, preds), nil
}

// DecisionFunction returns the n_samples × C matrix of linear scores.
func (m *QN) DecisionFunction(X mat.Matrix) (_ mat.Matrix, err error) {
	defer errors.Recover(&err, "QN.DecisionFunction")
	xs, r, err := m.checkPredict(X, "DecisionFunction")
	if err != nil {
		return nil, err
	}
	_, c := X.Dims()
	scores := make([]float64, m.nClasses*r)
	glm.QNDecisionFunction(xs, r, c, m.nClasses, false, m.FitIntercept, m.params, scores)
	return mat.DenseCopyOf(mat.NewDense(m.nClasses, r, scores).T()), nil
}

// PredictProba returns class probabilities. For logistic loss the result
// is n_samples × 2 with columns P(y=0) and P(y=1); for softmax it is
// n_samples × C. Squared-error models return an error.
func (m *QN) PredictProba(X mat.Matrix) (_ mat.Matrix, err error) {
	defer errors.Recover(&err, "QN.PredictProba")
	if m.Loss == glm.LossSquared {
		return nil, errors.NewValueError("QN.PredictProba", "squared loss has no probabilities")
	}
	xs, r, err := m.checkPredict(X, "PredictProba")
	if err != nil {
		return nil, err
	}
	_, c := X.Dims()
	probs := make([]float64, m.nClasses*r)
	glm.QNPredictProba(xs, r, c, m.nClasses, false, m.FitIntercept, m.params, m.Loss, probs)

	if m.Loss == glm.LossLogistic {
		out := mat.NewDense(r, 2, nil)
		for i, p := range probs {
			out.Set(i, 0, 1-p)
			out.Set(i, 1, p)
		}
		return out, nil
	}
	return mat.DenseCopyOf(mat.NewDense(m.nClasses, r, probs).T()), nil
}

// Score returns the accuracy for classification losses and R² for squared
// error.
func (m *QN) Score(X, y mat.Matrix) (_ float64, err error) {
	defer errors.Recover(&err, "QN.Score")
	if !m.State.IsFitted() {
		return 0, errors.NewNotFittedError("QN", "Score")
	}

	yPred, err := m.Predict(X)
	if err != nil {
		return 0, err
	}
	r, _ := yPred.Dims()
	ry, cy := y.Dims()
	if ry != r {
		return 0, errors.NewDimensionError("QN.Score", r, ry, 0)
	}
	if cy != 1 {
		return 0, errors.NewValueError("QN.Score", "y must be a column vector")
	}

	yTrue := mat.NewVecDense(r, mat.Col(nil, 0, y))
	yHat := mat.NewVecDense(r, mat.Col(nil, 0, yPred))
	if m.Loss == glm.LossSquared {
		return metrics.R2Score(yTrue, yHat)
	}
	return metrics.Accuracy(yTrue, yHat)
}

// Coef returns a copy of the C × n_features coefficient matrix, or nil
// before Fit.
func (m *QN) Coef() *mat.Dense {
	if !m.State.IsFitted() {
		return nil
	}
	return mat.DenseCopyOf(m.coef)
}

// Intercept returns a copy of the per-class intercepts, all zero when the
// model was fitted without intercept.
func (m *QN) Intercept() []float64 {
	if !m.State.IsFitted() {
		return nil
	}
	return append([]float64(nil), m.intercept...)
}

// NIter is the number of solver iterations used by the last Fit.
func (m *QN) NIter() int { return m.nIter }

// Objective is the penalized mean loss at the fitted weights.
func (m *QN) Objective() float64 { return m.objective }

// Status is how the last Fit ended.
func (m *QN) Status() qn.Status { return m.status }

// History holds the objective before the first iteration and after each
// iteration of the last Fit.
func (m *QN) History() []float64 { return append([]float64(nil), m.history...) }

// NClassesFitted is the number of outputs of the fitted model.
func (m *QN) NClassesFitted() int { return m.nClasses }

// IsFitted returns whether the model has been fitted.
func (m *QN) IsFitted() bool {
	return m.State.IsFitted()
}

// GetParams returns the model's hyperparameters.
func (m *QN) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"loss":                m.Loss.String(),
		"fit_intercept":       m.FitIntercept,
		"l1":                  m.L1,
		"l2":                  m.L2,
		"tol":                 m.Tol,
		"max_iter":            m.MaxIter,
		"linesearch_max_iter": m.LinesearchMaxIter,
		"lbfgs_memory":        m.LBFGSMemory,
		"verbose":             m.Verbosity,
		"n_classes":           m.NClasses,
	}
}

// SetParams updates hyperparameters by name. Unknown names and values of
// the wrong type are rejected. The fitted state is cleared.
func (m *QN) SetParams(params map[string]interface{}) error {
	for k, v := range params {
		var ok bool
		switch k {
		case "loss":
			var name string
			if name, ok = v.(string); ok {
				loss, err := glm.ParseLossType(name)
				if err != nil {
					return err
				}
				m.Loss = loss
				m.setLogger()
			}
		case "fit_intercept":
			ok = assign(&m.FitIntercept, v)
		case "l1":
			ok = assign(&m.L1, v)
		case "l2":
			ok = assign(&m.L2, v)
		case "tol":
			ok = assign(&m.Tol, v)
		case "max_iter":
			ok = assign(&m.MaxIter, v)
		case "linesearch_max_iter":
			ok = assign(&m.LinesearchMaxIter, v)
		case "lbfgs_memory":
			ok = assign(&m.LBFGSMemory, v)
		case "verbose":
			ok = assign(&m.Verbosity, v)
		case "n_classes":
			ok = assign(&m.NClasses, v)
		default:
			return errors.NewValueError("QN.SetParams", "unknown parameter "+k)
		}
		if !ok {
			return errors.NewValueError("QN.SetParams", "wrong type for parameter "+k)
		}
	}
	m.State.Reset()
	return nil
}

func assign[T any](dst *T, v interface{}) bool {
	t, ok := v.(T)
	if ok {
		*dst = t
	}
	return ok
}
