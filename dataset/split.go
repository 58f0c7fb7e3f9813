package dataset

import "gonum.org/v1/gonum/mat"

// SplitName names a partition of a benchmark.
type SplitName string

const (
	TrainSeen   SplitName = "train_seen"
	TrainUnseen SplitName = "train_unseen"
	TestSeen    SplitName = "test_seen"
	TestUnseen  SplitName = "test_unseen"
)

// SplitNames lists every split in load order.
func SplitNames() []SplitName {
	return []SplitName{TrainSeen, TrainUnseen, TestSeen, TestUnseen}
}

// Split is a named partition. Features and Labels share their row count.
// Auxiliary, when present, holds the class auxiliary vector of every row.
// TrainUnseen is always empty: the benchmarks carry no unseen training data.
type Split struct {
	Name      SplitName
	Features  *mat.Dense
	Labels    []int
	Auxiliary *mat.Dense
}

// Len is the number of samples.
func (s *Split) Len() int {
	return len(s.Labels)
}

// Empty reports whether the split has no samples.
func (s *Split) Empty() bool {
	return len(s.Labels) == 0
}

// HasAuxiliary reports whether per-sample auxiliary rows were attached.
func (s *Split) HasAuxiliary() bool {
	return s.Auxiliary != nil
}

// FeatureDim is the number of feature columns, 0 for an empty split.
func (s *Split) FeatureDim() int {
	if s.Features == nil {
		return 0
	}
	_, c := s.Features.Dims()
	return c
}

// ClassCounts returns the number of samples per class id.
func (s *Split) ClassCounts() map[int]int {
	counts := make(map[int]int)
	for _, label := range s.Labels {
		counts[label]++
	}
	return counts
}
