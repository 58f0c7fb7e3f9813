package model

import "testing"

func TestBaseEstimatorState(t *testing.T) {
	var e BaseEstimator
	if e.IsFitted() {
		t.Fatal("zero value must not be fitted")
	}
	e.SetFitted()
	if !e.IsFitted() {
		t.Fatal("expected fitted after SetFitted")
	}
	e.Reset()
	if e.IsFitted() {
		t.Fatal("expected not fitted after Reset")
	}
}
