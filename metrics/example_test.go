package metrics_test

import (
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/qnglm/glm"
	"github.com/ezoic/qnglm/linear"
	"github.com/ezoic/qnglm/metrics"
)

// lineData is a noisy y ≈ 2x training set and two held-out points.
func lineData() (X, y, XTest, yTest *mat.Dense) {
	X = mat.NewDense(6, 1, []float64{1, 2, 3, 4, 5, 6})
	y = mat.NewDense(6, 1, []float64{2.1, 3.9, 6.2, 7.8, 10.1, 12.0})
	XTest = mat.NewDense(2, 1, []float64{7, 8})
	yTest = mat.NewDense(2, 1, []float64{14.2, 15.8})
	return X, y, XTest, yTest
}

func fitLine() (*linear.QN, error) {
	X, y, _, _ := lineData()
	reg := linear.NewQN(linear.WithTol(1e-10))
	return reg, reg.Fit(X, y)
}

func column(m mat.Matrix) *mat.VecDense {
	r, _ := m.Dims()
	return mat.NewVecDense(r, mat.Col(nil, 0, m))
}

// ExampleMSE scores a least squares fit on held-out data
func ExampleMSE() {
	reg, err := fitLine()
	if err != nil {
		slog.Error("Fit failed", "error", err)
		return
	}
	_, _, XTest, yTest := lineData()
	pred, err := reg.Predict(XTest)
	if err != nil {
		slog.Error("Predict failed", "error", err)
		return
	}

	mse, err := metrics.MSE(column(yTest), column(pred))
	if err != nil {
		slog.Error("MSE failed", "error", err)
		return
	}
	fmt.Printf("Test MSE: %.4f\n", mse)

	// Output: Test MSE: 0.0386
}

// ExampleMAE compares RMSE and MAE of the held-out residuals
func ExampleMAE() {
	reg, err := fitLine()
	if err != nil {
		slog.Error("Fit failed", "error", err)
		return
	}
	_, _, XTest, yTest := lineData()
	pred, err := reg.Predict(XTest)
	if err != nil {
		slog.Error("Predict failed", "error", err)
		return
	}

	rmse, err := metrics.RMSE(column(yTest), column(pred))
	if err != nil {
		slog.Error("RMSE failed", "error", err)
		return
	}
	mae, err := metrics.MAE(column(yTest), column(pred))
	if err != nil {
		slog.Error("MAE failed", "error", err)
		return
	}
	fmt.Printf("RMSE: %.4f\n", rmse)
	fmt.Printf("MAE:  %.4f\n", mae)

	// Output: RMSE: 0.1965
	// MAE:  0.1957
}

// ExampleMSEMatrix scores Predict output directly as a matrix
func ExampleMSEMatrix() {
	reg, err := fitLine()
	if err != nil {
		slog.Error("Fit failed", "error", err)
		return
	}
	X, y, _, _ := lineData()
	pred, err := reg.Predict(X)
	if err != nil {
		slog.Error("Predict failed", "error", err)
		return
	}

	mse, err := metrics.MSEMatrix(y, pred)
	if err != nil {
		slog.Error("MSEMatrix failed", "error", err)
		return
	}
	fmt.Printf("Training MSE: %.4f\n", mse)

	// Output: Training MSE: 0.0178
}

// ExampleR2Score shows that QN.Score reports R² for squared loss
func ExampleR2Score() {
	reg, err := fitLine()
	if err != nil {
		slog.Error("Fit failed", "error", err)
		return
	}
	X, y, _, _ := lineData()
	pred, err := reg.Predict(X)
	if err != nil {
		slog.Error("Predict failed", "error", err)
		return
	}

	r2, err := metrics.R2Score(column(y), column(pred))
	if err != nil {
		slog.Error("R2Score failed", "error", err)
		return
	}
	score, err := reg.Score(X, y)
	if err != nil {
		slog.Error("Score failed", "error", err)
		return
	}
	fmt.Printf("R² Score: %.4f\n", r2)
	fmt.Printf("Same as Score: %t\n", r2 == score)

	// Output: R² Score: 0.9985
	// Same as Score: true
}

// overlapData is a one-feature binary problem where the points at -1 and 1
// carry the "wrong" label, so no threshold classifies everything.
func overlapData() (X, y *mat.Dense) {
	X = mat.NewDense(8, 1, []float64{-3, -2, -1, -0.5, 0.5, 1, 2, 3})
	y = mat.NewDense(8, 1, []float64{0, 0, 1, 0, 1, 0, 1, 1})
	return X, y
}

// ExampleAccuracy scores a logistic model on overlapping classes
func ExampleAccuracy() {
	X, y := overlapData()
	clf := linear.NewQN(linear.WithLoss(glm.LossLogistic))
	if err := clf.Fit(X, y); err != nil {
		slog.Error("Fit failed", "error", err)
		return
	}
	pred, err := clf.Predict(X)
	if err != nil {
		slog.Error("Predict failed", "error", err)
		return
	}

	acc, err := metrics.Accuracy(column(y), column(pred))
	if err != nil {
		slog.Error("Accuracy failed", "error", err)
		return
	}
	errRate, err := metrics.ClassificationError(column(y), column(pred))
	if err != nil {
		slog.Error("ClassificationError failed", "error", err)
		return
	}
	fmt.Printf("Accuracy: %.2f\n", acc)
	fmt.Printf("Error rate: %.2f\n", errRate)

	// Output: Accuracy: 0.75
	// Error rate: 0.25
}

// ExampleBinaryLogLoss shows that without a penalty the training objective
// of a logistic model is its log loss
func ExampleBinaryLogLoss() {
	X, y := overlapData()
	clf := linear.NewQN(linear.WithLoss(glm.LossLogistic))
	if err := clf.Fit(X, y); err != nil {
		slog.Error("Fit failed", "error", err)
		return
	}
	proba, err := clf.PredictProba(X)
	if err != nil {
		slog.Error("PredictProba failed", "error", err)
		return
	}

	loss, err := metrics.BinaryLogLoss(column(y), mat.VecDenseCopyOf(proba.(*mat.Dense).ColView(1)))
	if err != nil {
		slog.Error("BinaryLogLoss failed", "error", err)
		return
	}
	fmt.Printf("Matches objective: %t\n", math.Abs(loss-clf.Objective()) < 1e-9)

	// Output: Matches objective: true
}

// ExampleCrossEntropy does the same for a softmax model
func ExampleCrossEntropy() {
	// Each cluster contains one point of another class.
	X := mat.NewDense(9, 2, []float64{
		0, 5,
		0.5, 4.5,
		0.2, 4.8,
		5, 0,
		4.5, 0.5,
		4.8, 0.2,
		-5, -5,
		-4.5, -5.5,
		-4.8, -5.2,
	})
	y := mat.NewDense(9, 1, []float64{0, 0, 1, 1, 1, 2, 2, 2, 0})

	clf := linear.NewQN(linear.WithLoss(glm.LossSoftmax))
	if err := clf.Fit(X, y); err != nil {
		slog.Error("Fit failed", "error", err)
		return
	}
	proba, err := clf.PredictProba(X)
	if err != nil {
		slog.Error("PredictProba failed", "error", err)
		return
	}

	loss, err := metrics.CrossEntropy(column(y), proba)
	if err != nil {
		slog.Error("CrossEntropy failed", "error", err)
		return
	}
	fmt.Printf("Matches objective: %t\n", math.Abs(loss-clf.Objective()) < 1e-9)

	// Output: Matches objective: true
}
