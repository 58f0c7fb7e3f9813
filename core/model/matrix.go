package model

import (
	"github.com/YuminosukeSato/zeroshoteval/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Matrix is a gob-friendly row-major matrix.
type Matrix struct {
	Rows int
	Cols int
	Data []float64
}

// MatrixOf copies m into a Matrix.
func MatrixOf(m mat.Matrix) Matrix {
	r, c := m.Dims()
	data := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			data = append(data, m.At(i, j))
		}
	}
	return Matrix{Rows: r, Cols: c, Data: data}
}

// Dense converts the matrix back to a gonum matrix.
func (m Matrix) Dense() (*mat.Dense, error) {
	if m.Rows <= 0 || m.Cols <= 0 {
		return nil, errors.Wrapf(errors.ErrEmptyData, "matrix %dx%d", m.Rows, m.Cols)
	}
	if len(m.Data) != m.Rows*m.Cols {
		return nil, errors.NewShapeMismatchError("Matrix.Dense", "values", m.Rows*m.Cols, len(m.Data))
	}
	return mat.NewDense(m.Rows, m.Cols, append([]float64(nil), m.Data...)), nil
}
