// Package model holds the small estimator contracts shared by preprocessing
// transformers and the dataset loader.
package model

// EstimatorState is the fitted state of a transformer.
type EstimatorState int

const (
	// NotFitted is the zero state.
	NotFitted EstimatorState = iota
	// Fitted means statistics have been computed from data.
	Fitted
)

// BaseEstimator is embedded by transformers to track whether Fit has run.
type BaseEstimator struct {
	state EstimatorState
}

// IsFitted reports whether Fit has completed.
func (e *BaseEstimator) IsFitted() bool {
	return e.state == Fitted
}

// SetFitted marks the estimator as fitted.
func (e *BaseEstimator) SetFitted() {
	e.state = Fitted
}

// Reset returns the estimator to NotFitted.
func (e *BaseEstimator) Reset() {
	e.state = NotFitted
}
