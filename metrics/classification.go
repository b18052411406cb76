package metrics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/qnglm/pkg/errors"
)

// probEpsilon clips probabilities away from 0 and 1 before taking logs.
const probEpsilon = 1e-15

// ClassificationError calculates the fraction of incorrect predictions.
//
// Example:
//
//	yTrue := mat.NewVecDense(5, []float64{0, 1, 2, 1, 0})
//	yPred := mat.NewVecDense(5, []float64{0, 1, 1, 1, 0})
//	errorRate, err := metrics.ClassificationError(yTrue, yPred) // 0.2
func ClassificationError(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("ClassificationError", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	miss := 0
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) != yPred.AtVec(i) {
			miss++
		}
	}
	return float64(miss) / float64(n), nil
}

// Accuracy calculates the fraction of correct predictions.
//
// Parameters:
//   - yTrue: Ground truth labels
//   - yPred: Predicted labels
//
// Returns:
//   - The accuracy (between 0 and 1)
//   - An error if inputs are invalid
func Accuracy(yTrue, yPred *mat.VecDense) (float64, error) {
	errorRate, err := ClassificationError(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return 1 - errorRate, nil
}

// BinaryLogLoss calculates the mean binary cross-entropy of predicted
// probabilities yPred for labels yTrue in {0, 1}.
//
// Example:
//
//	loss, err := metrics.BinaryLogLoss(yTrue, proba)
//	fmt.Printf("Log Loss: %f\n", loss)
func BinaryLogLoss(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("BinaryLogLoss", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	var loss float64
	for i := 0; i < n; i++ {
		y := yTrue.AtVec(i)
		if y != 0 && y != 1 {
			return 0, errors.NewValueError("BinaryLogLoss",
				fmt.Sprintf("yTrue must contain only 0 or 1, found %v at index %d", y, i))
		}
		p := clipProb(yPred.AtVec(i))
		if y == 1 {
			loss -= math.Log(p)
		} else {
			loss -= math.Log(1 - p)
		}
	}
	return loss / float64(n), nil
}

// CrossEntropy calculates the mean multinomial log loss. proba is N×C with
// row i holding the class probabilities of sample i; yTrue holds class
// indices.
func CrossEntropy(yTrue *mat.VecDense, proba mat.Matrix) (float64, error) {
	if yTrue == nil || proba == nil {
		return 0, errors.NewValueError("CrossEntropy", "inputs cannot be nil")
	}
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewModelError("CrossEntropy", "empty vector", errors.ErrEmptyData)
	}
	r, c := proba.Dims()
	if r != n {
		return 0, errors.NewDimensionError("CrossEntropy", n, r, 0)
	}

	var loss float64
	for i := 0; i < n; i++ {
		y := yTrue.AtVec(i)
		k := int(y)
		if y != float64(k) || k < 0 || k >= c {
			return 0, errors.NewValueError("CrossEntropy",
				fmt.Sprintf("label %v at index %d is not a class index in [0, %d)", y, i, c))
		}
		loss -= math.Log(clipProb(proba.At(i, k)))
	}
	return loss / float64(n), nil
}

func clipProb(p float64) float64 {
	return math.Min(math.Max(p, probEpsilon), 1-probEpsilon)
}
