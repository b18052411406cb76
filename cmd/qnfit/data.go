package main

import (
	"io"
	"os"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/qnglm/pkg/errors"
)

// dataset is a design matrix with its target column.
type dataset struct {
	X        *mat.Dense
	y        *mat.Dense
	features []string
}

func loadCSVFile(path, target string) (*dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()
	return loadCSV(f, target)
}

// loadCSV reads a CSV with a header row. Every column must be numeric; the
// target column becomes y and the rest, in file order, become X.
func loadCSV(r io.Reader, target string) (*dataset, error) {
	df := dataframe.ReadCSV(r, dataframe.HasHeader(true), dataframe.DefaultType(series.Float))
	if df.Err != nil {
		return nil, errors.Wrap(df.Err, "parse csv")
	}

	found := false
	var features []string
	for _, name := range df.Names() {
		if name == target {
			found = true
			continue
		}
		features = append(features, name)
	}
	if !found {
		return nil, errors.Newf("target column %q not found", target)
	}
	if len(features) == 0 {
		return nil, errors.NewModelError("loadCSV", "no feature columns", errors.ErrEmptyData)
	}
	n := df.Nrow()
	if n == 0 {
		return nil, errors.NewModelError("loadCSV", "no rows", errors.ErrEmptyData)
	}

	X := mat.NewDense(n, len(features), nil)
	for j, name := range features {
		col, err := floatColumn(df, name)
		if err != nil {
			return nil, err
		}
		X.SetCol(j, col)
	}
	y, err := floatColumn(df, target)
	if err != nil {
		return nil, err
	}
	return &dataset{X: X, y: mat.NewDense(n, 1, y), features: features}, nil
}

func floatColumn(df dataframe.DataFrame, name string) ([]float64, error) {
	s := df.Col(name)
	if s.Err != nil {
		return nil, errors.Wrapf(s.Err, "column %q", name)
	}
	if s.Type() != series.Float && s.Type() != series.Int {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "column %q is not numeric", name)
	}
	if s.HasNaN() {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "column %q has missing values", name)
	}
	return s.Float(), nil
}
