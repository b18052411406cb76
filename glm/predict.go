package glm

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/qnglm/core/tensor"
	"github.com/ezoic/qnglm/pkg/errors"
)

// QNPredict writes into preds (length N) the predictions of the model with
// weights params on the N×D design matrix X: 0/1 by thresholding the linear
// predictor at zero for logistic loss, the linear predictor itself for
// squared loss, and the arg max class for softmax.
func QNPredict(X []float64, n, d, c int, colMajor, fitIntercept bool, params []float64, loss LossType, preds []float64) {
	assertf(c >= 1, "glm: C must be positive, got %d", c)
	dims := Dims{C: c, D: d, FitIntercept: fitIntercept}
	assertf(len(params) == dims.NParam(), "glm: params has %d entries, want %d", len(params), dims.NParam())
	assertf(len(preds) == n, "glm: preds has %d entries, want %d", len(preds), n)

	switch loss {
	case LossLogistic:
		assertf(c == 1, "glm: logistic loss requires C == 1, got %d", c)
	case LossSquared:
		assertf(c == 1, "glm: squared loss requires C == 1, got %d", c)
	case LossSoftmax:
		assertf(c > 1, "glm: softmax loss requires C > 1, got %d", c)
	default:
		panic(errors.AssertionFailedf("glm: unknown loss type %d", int(loss)))
	}

	xm := mustView(X, n, d, tensor.OrderOf(colMajor))
	z, release := tensor.Default.Acquire(c, n)
	defer release()
	dims.linearFwd(z, xm, params)

	raw := z.RawMatrix()
	switch loss {
	case LossLogistic:
		for i, v := range raw.Data[:n] {
			if v > 0 {
				preds[i] = 1
			} else {
				preds[i] = 0
			}
		}
	case LossSquared:
		copy(preds, raw.Data[:n])
	case LossSoftmax:
		for i := 0; i < n; i++ {
			best := 0
			for k := 1; k < c; k++ {
				if raw.Data[k*raw.Stride+i] > raw.Data[best*raw.Stride+i] {
					best = k
				}
			}
			preds[i] = float64(best)
		}
	}
}

// QNDecisionFunction writes the linear predictor Z = W·Xᵀ + b into scores,
// a C×N row-major buffer: scores[c*n+i] is the score of class c for
// sample i.
func QNDecisionFunction(X []float64, n, d, c int, colMajor, fitIntercept bool, params []float64, scores []float64) {
	assertf(c >= 1, "glm: C must be positive, got %d", c)
	dims := Dims{C: c, D: d, FitIntercept: fitIntercept}
	assertf(len(params) == dims.NParam(), "glm: params has %d entries, want %d", len(params), dims.NParam())
	assertf(len(scores) == c*n, "glm: scores has %d entries, want %d", len(scores), c*n)

	xm := mustView(X, n, d, tensor.OrderOf(colMajor))
	dims.linearFwd(mat.NewDense(c, n, scores), xm, params)
}

// QNPredictProba writes class probabilities into probs (C×N, laid out as in
// QNDecisionFunction). Logistic loss yields P(y=1) per sample (C == 1);
// softmax yields a distribution over the C classes. Squared loss has no
// probabilistic reading and is rejected.
func QNPredictProba(X []float64, n, d, c int, colMajor, fitIntercept bool, params []float64, loss LossType, probs []float64) {
	switch loss {
	case LossLogistic:
		assertf(c == 1, "glm: logistic loss requires C == 1, got %d", c)
	case LossSoftmax:
		assertf(c > 1, "glm: softmax loss requires C > 1, got %d", c)
	default:
		panic(errors.AssertionFailedf("glm: %s loss has no probabilities", loss))
	}
	QNDecisionFunction(X, n, d, c, colMajor, fitIntercept, params, probs)

	if loss == LossLogistic {
		for i, v := range probs {
			probs[i] = sigmoid(v)
		}
		return
	}
	for i := 0; i < n; i++ {
		m := math.Inf(-1)
		for k := 0; k < c; k++ {
			m = math.Max(m, probs[k*n+i])
		}
		var sum float64
		for k := 0; k < c; k++ {
			e := math.Exp(probs[k*n+i] - m)
			probs[k*n+i] = e
			sum += e
		}
		for k := 0; k < c; k++ {
			probs[k*n+i] /= sum
		}
	}
}
