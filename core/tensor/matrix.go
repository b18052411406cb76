// Package tensor adapts caller-owned flat buffers to gonum matrices and
// provides pooled scratch storage for kernels.
package tensor

import (
	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/qnglm/pkg/errors"
)

// StorageOrder describes how a flat buffer maps onto matrix elements.
type StorageOrder int

const (
	// RowMajor stores element (i, j) at data[i*cols+j].
	RowMajor StorageOrder = iota
	// ColMajor stores element (i, j) at data[j*rows+i].
	ColMajor
)

func (o StorageOrder) String() string {
	if o == ColMajor {
		return "col_major"
	}
	return "row_major"
}

// OrderOf maps a column-major flag to a StorageOrder.
func OrderOf(colMajor bool) StorageOrder {
	if colMajor {
		return ColMajor
	}
	return RowMajor
}

// View returns data as a rows×cols matrix without copying. Writes through
// the returned matrix are visible in data and vice versa.
func View(data []float64, rows, cols int, order StorageOrder) (mat.Matrix, error) {
	if rows <= 0 || cols <= 0 {
		return nil, errors.NewValueError("tensor.View", "all dimensions must be positive")
	}
	if len(data) != rows*cols {
		return nil, errors.NewDimensionError("tensor.View", rows*cols, len(data), 0)
	}
	if order == ColMajor {
		return mat.NewDense(cols, rows, data).T(), nil
	}
	return mat.NewDense(rows, cols, data), nil
}

// RawRowMajor copies m into a new row-major slice.
func RawRowMajor(m mat.Matrix) []float64 {
	r, c := m.Dims()
	data := make([]float64, r*c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			data[i*c+j] = m.At(i, j)
		}
	}
	return data
}
