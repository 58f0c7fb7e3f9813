// Package preprocessing provides feature scaling transformers.
package preprocessing

import (
	"fmt"
	"math"

	"github.com/YuminosukeSato/zeroshoteval/core/model"
	"github.com/YuminosukeSato/zeroshoteval/core/parallel"
	"github.com/YuminosukeSato/zeroshoteval/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// constantRange is the column range under which a feature is treated as constant.
const constantRange = 1e-8

// MinMaxScaler rescales every column to FeatureRange (default [0, 1]) using
// the column minimum and maximum seen by Fit. It follows the scikit-learn
// MinMaxScaler: a constant column maps to FeatureRange[0].
type MinMaxScaler struct {
	model.BaseEstimator

	// DataMin is the per-column minimum seen during Fit.
	DataMin []float64

	// DataMax is the per-column maximum seen during Fit.
	DataMax []float64

	// Scale is DataMax - DataMin, or 1 for constant columns.
	Scale []float64

	NFeatures int

	// FeatureRange is the target [min, max].
	FeatureRange [2]float64
}

var _ model.InverseTransformer = (*MinMaxScaler)(nil)

// NewMinMaxScaler creates a MinMaxScaler with the given target range.
//
//	scaler := preprocessing.NewMinMaxScaler([2]float64{0, 1})
//	scaled, err := scaler.FitTransform(X)
func NewMinMaxScaler(featureRange [2]float64) *MinMaxScaler {
	return &MinMaxScaler{
		FeatureRange: featureRange,
	}
}

// NewMinMaxScalerDefault creates a MinMaxScaler for the [0, 1] range.
func NewMinMaxScalerDefault() *MinMaxScaler {
	return NewMinMaxScaler([2]float64{0.0, 1.0})
}

// NewMinMaxTransformer is a model.TransformerFactory for the [0, 1] range.
func NewMinMaxTransformer() model.Transformer {
	return NewMinMaxScalerDefault()
}

// Fit computes per-column minimum and maximum of X.
func (m *MinMaxScaler) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.Wrap(errors.ErrEmptyData, "MinMaxScaler.Fit")
	}
	if m.FeatureRange[0] >= m.FeatureRange[1] {
		return errors.NewValueError("MinMaxScaler.Fit",
			fmt.Sprintf("feature_range min must be below max, got %v", m.FeatureRange))
	}

	m.NFeatures = c
	m.DataMin = make([]float64, c)
	m.DataMax = make([]float64, c)
	m.Scale = make([]float64, c)

	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, X)
		lo, hi := col[0], col[0]
		for _, v := range col[1:] {
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
		m.DataMin[j] = lo
		m.DataMax[j] = hi

		if dataRange := hi - lo; math.Abs(dataRange) < constantRange {
			m.Scale[j] = 1.0
		} else {
			m.Scale[j] = dataRange
		}
	}

	m.SetFitted()
	return nil
}

// Transform scales X with the fitted statistics. Rows are processed in
// parallel for large inputs.
func (m *MinMaxScaler) Transform(X mat.Matrix) (*mat.Dense, error) {
	if !m.IsFitted() {
		return nil, errors.NewNotFittedError("MinMaxScaler", "Transform")
	}

	r, c := X.Dims()
	if c != m.NFeatures {
		return nil, errors.NewDimensionError("MinMaxScaler.Transform", m.NFeatures, c, 1)
	}

	result := mat.NewDense(r, c, nil)
	featureRange := m.FeatureRange[1] - m.FeatureRange[0]
	parallel.ParallelizeWithThreshold(r, parallel.DefaultRowThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			for j := 0; j < c; j++ {
				// X_scaled = (X - X.min) / (X.max - X.min) * (max - min) + min
				scaled := (X.At(i, j)-m.DataMin[j])/m.Scale[j]*featureRange + m.FeatureRange[0]
				result.Set(i, j, scaled)
			}
		}
	})

	return result, nil
}

// FitTransform fits on X and returns X scaled.
func (m *MinMaxScaler) FitTransform(X mat.Matrix) (*mat.Dense, error) {
	if err := m.Fit(X); err != nil {
		return nil, err
	}
	return m.Transform(X)
}

// InverseTransform maps scaled values back to the original range.
func (m *MinMaxScaler) InverseTransform(X mat.Matrix) (*mat.Dense, error) {
	if !m.IsFitted() {
		return nil, errors.NewNotFittedError("MinMaxScaler", "InverseTransform")
	}

	r, c := X.Dims()
	if c != m.NFeatures {
		return nil, errors.NewDimensionError("MinMaxScaler.InverseTransform", m.NFeatures, c, 1)
	}

	result := mat.NewDense(r, c, nil)
	featureRange := m.FeatureRange[1] - m.FeatureRange[0]
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			original := ((X.At(i, j)-m.FeatureRange[0])/featureRange)*m.Scale[j] + m.DataMin[j]
			result.Set(i, j, original)
		}
	}

	return result, nil
}

// GetParams returns the constructor parameters.
func (m *MinMaxScaler) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"feature_range": m.FeatureRange,
	}
}

func (m *MinMaxScaler) String() string {
	if !m.IsFitted() {
		return fmt.Sprintf("MinMaxScaler(feature_range=[%.1f, %.1f])",
			m.FeatureRange[0], m.FeatureRange[1])
	}
	return fmt.Sprintf("MinMaxScaler(feature_range=[%.1f, %.1f], n_features=%d)",
		m.FeatureRange[0], m.FeatureRange[1], m.NFeatures)
}
