package dataset

import (
	"slices"

	"github.com/YuminosukeSato/zeroshoteval/core/parallel"
	"github.com/YuminosukeSato/zeroshoteval/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// uniqueSorted returns the distinct labels in ascending order.
func uniqueSorted(labels []int) []int {
	out := slices.Clone(labels)
	slices.Sort(out)
	return slices.Compact(out)
}

// mapLabels replaces every label with its position in classes, which must
// be sorted.
func mapLabels(labels, classes []int) ([]int, error) {
	out := make([]int, len(labels))
	for i, label := range labels {
		pos, ok := slices.BinarySearch(classes, label)
		if !ok {
			return nil, errors.NewValueError("mapLabels",
				"label is not among the seen classes")
		}
		out[i] = pos
	}
	return out, nil
}

// intersectSorted returns the values present in both sorted slices.
func intersectSorted(a, b []int) []int {
	var out []int
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			i++
		case a[i] > b[j]:
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}
	return out
}

// zeroBased converts MATLAB 1-based indices and checks them against [0, n).
func zeroBased(op, what string, oneBased []int, n int) ([]int, error) {
	out := make([]int, len(oneBased))
	for i, v := range oneBased {
		idx := v - 1
		if idx < 0 || idx >= n {
			return nil, errors.NewShapeMismatchError(op, what+" index", n, v)
		}
		out[i] = idx
	}
	return out, nil
}

// gatherRows copies the listed rows of src into a new matrix, nil when rows
// is empty.
func gatherRows(src *mat.Dense, rows []int) *mat.Dense {
	_, c := src.Dims()
	if len(rows) == 0 || c == 0 {
		return nil
	}
	out := mat.NewDense(len(rows), c, nil)
	parallel.ParallelizeWithThreshold(len(rows), parallel.DefaultRowThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			out.SetRow(i, src.RawRowView(rows[i]))
		}
	})
	return out
}

// pick returns values[idx] for every idx.
func pick(values []int, idxs []int) []int {
	out := make([]int, len(idxs))
	for i, idx := range idxs {
		out[i] = values[idx]
	}
	return out
}
