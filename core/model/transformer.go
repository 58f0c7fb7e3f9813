package model

import "gonum.org/v1/gonum/mat"

// Transformer learns per-column statistics from a matrix and applies them.
// The loader fits a fresh Transformer for every split.
type Transformer interface {
	Fit(X mat.Matrix) error
	Transform(X mat.Matrix) (*mat.Dense, error)
	FitTransform(X mat.Matrix) (*mat.Dense, error)
}

// InverseTransformer can map transformed values back to the original scale.
type InverseTransformer interface {
	Transformer
	InverseTransform(X mat.Matrix) (*mat.Dense, error)
}

// TransformerFactory builds an unfitted Transformer.
type TransformerFactory func() Transformer
