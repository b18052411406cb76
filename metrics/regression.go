// Package metrics scores predictions produced by the estimators in this
// module.
//
// Regression:
//   - MSE, RMSE and MAE measure the size of the residuals
//   - R2Score is the coefficient of determination
//
// Classification:
//   - Accuracy and ClassificationError compare predicted class labels
//   - BinaryLogLoss and CrossEntropy score predicted probabilities
//
// Every function takes gonum vectors (or column matrices for the *Matrix
// variants) and returns an error for empty or mismatched inputs.
//
//	r2, err := metrics.R2Score(yTrue, yPred)
package metrics

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/qnglm/pkg/errors"
)

// checkPair validates that yTrue and yPred are non-empty and of equal
// length, returning that length.
func checkPair(op string, yTrue, yPred *mat.VecDense) (int, error) {
	if yTrue == nil || yPred == nil {
		return 0, errors.NewValueError(op, "input vectors cannot be nil")
	}
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewModelError(op, "empty vector", errors.ErrEmptyData)
	}
	if yPred.Len() != n {
		return 0, errors.NewDimensionError(op, n, yPred.Len(), 0)
	}
	return n, nil
}

// MSE calculates the Mean Squared Error between true and predicted values.
//
// Parameters:
//   - yTrue: True target values as a vector
//   - yPred: Predicted values as a vector
//
// Returns:
//   - float64: MSE value (non-negative)
//   - error: nil if successful, otherwise an error describing the failure
//
// Example:
//
//	mse, err := metrics.MSE(yTrue, yPred)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("MSE: %.4f\n", mse)
func MSE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("MSE", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	var diff mat.VecDense
	diff.SubVec(yTrue, yPred)
	return mat.Dot(&diff, &diff) / float64(n), nil
}

// MSEMatrix calculates MSE for n×1 column matrices.
func MSEMatrix(yTrue, yPred mat.Matrix) (float64, error) {
	t, err := columnVector("MSEMatrix", yTrue)
	if err != nil {
		return 0, err
	}
	p, err := columnVector("MSEMatrix", yPred)
	if err != nil {
		return 0, err
	}
	return MSE(t, p)
}

// RMSE is the square root of MSE.
func RMSE(yTrue, yPred *mat.VecDense) (float64, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAE calculates the Mean Absolute Error.
func MAE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("MAE", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	var sum float64
	for i := 0; i < n; i++ {
		sum += math.Abs(yTrue.AtVec(i) - yPred.AtVec(i))
	}
	return sum / float64(n), nil
}

// R2Score calculates the coefficient of determination 1 - RSS/TSS.
//
// A perfect fit scores 1 and a constant prediction of the mean scores 0.
// The score is undefined when yTrue has no variance; an error is returned
// in that case.
//
// Example:
//
//	r2, err := metrics.R2Score(yTrue, yPred)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("R² Score: %.4f\n", r2)
func R2Score(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("R2Score", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	mean := mat.Sum(yTrue) / float64(n)
	var tss, rss float64
	for i := 0; i < n; i++ {
		t := yTrue.AtVec(i)
		r := t - yPred.AtVec(i)
		tss += (t - mean) * (t - mean)
		rss += r * r
	}

	if tss == 0 {
		return 0, errors.NewValueError("R2Score", "total sum of squares is zero (no variance in yTrue)")
	}
	return 1 - rss/tss, nil
}

// columnVector views an n×1 matrix as a vector.
func columnVector(op string, m mat.Matrix) (*mat.VecDense, error) {
	r, c := m.Dims()
	if c != 1 {
		return nil, errors.NewValueError(op, "input must be a column vector")
	}
	if v, ok := m.(*mat.VecDense); ok {
		return v, nil
	}
	v := mat.NewVecDense(r, nil)
	v.CopyVec(mat.NewVecDense(r, mat.Col(nil, 0, m)))
	return v, nil
}
