package dataset

import (
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"

	"github.com/YuminosukeSato/zeroshoteval/pkg/errors"
	"github.com/YuminosukeSato/zeroshoteval/pkg/matfile"
	"gonum.org/v1/gonum/mat"
)

// ToyBenchmark describes a synthetic benchmark written by WriteToyBenchmark.
type ToyBenchmark struct {
	// Name picks the benchmark subdirectory.
	Name string

	SeenClasses   []int
	UnseenClasses []int

	// Per-class sample counts.
	TrainvalPerClass   int
	TestSeenPerClass   int
	TestUnseenPerClass int

	FeatureDim   int
	AttributeDim int

	// SideModalities maps modality names to their dimension. A non-empty
	// map writes the side file.
	SideModalities map[string]int

	// SideGob writes the side file as gob instead of MAT.
	SideGob bool

	Compress bool
	Seed     uint64
}

// DefaultToyBenchmark has four trainval samples over seen classes {0, 1},
// two test-seen samples and two test-unseen samples of class 2, with
// three-dimensional features.
func DefaultToyBenchmark() ToyBenchmark {
	return ToyBenchmark{
		Name:               string(CUB),
		SeenClasses:        []int{0, 1},
		UnseenClasses:      []int{2},
		TrainvalPerClass:   2,
		TestSeenPerClass:   1,
		TestUnseenPerClass: 2,
		FeatureDim:         3,
		AttributeDim:       4,
		Seed:               1,
	}
}

func (t ToyBenchmark) validate() error {
	if _, err := ParseBenchmark(t.Name); err != nil {
		return err
	}
	if len(t.SeenClasses) == 0 || len(t.UnseenClasses) == 0 {
		return errors.NewValueError("WriteToyBenchmark", "seen and unseen classes must be non-empty")
	}
	if t.TrainvalPerClass <= 0 || t.TestSeenPerClass <= 0 || t.TestUnseenPerClass <= 0 {
		return errors.NewValueError("WriteToyBenchmark", "per-class sample counts must be positive")
	}
	if len(t.SeenClasses)*t.TrainvalPerClass < 2 {
		return errors.NewValueError("WriteToyBenchmark", "trainval needs at least two samples for train_loc and val_loc")
	}
	if t.FeatureDim <= 0 || t.AttributeDim <= 0 {
		return errors.NewValueError("WriteToyBenchmark", "dimensions must be positive")
	}
	for _, c := range slices.Concat(t.SeenClasses, t.UnseenClasses) {
		if c < 0 {
			return errors.NewValueError("WriteToyBenchmark", "class ids must be non-negative")
		}
	}
	for name, dim := range t.SideModalities {
		if name == "" || dim <= 0 {
			return errors.NewValueError("WriteToyBenchmark", "side modalities need a name and a positive dimension")
		}
	}
	return nil
}

// WriteToyBenchmark writes features, splits and the optional side file of a
// synthetic benchmark under root/<benchmark dir>.
func WriteToyBenchmark(root string, toy ToyBenchmark) error {
	if err := toy.validate(); err != nil {
		return err
	}
	bench, _ := ParseBenchmark(toy.Name)
	dir := filepath.Join(root, bench.Dir())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.NewIOError("mkdir", dir, err)
	}

	rng := rand.New(rand.NewPCG(toy.Seed, toy.Seed+1))
	nClasses := slices.Max(slices.Concat(toy.SeenClasses, toy.UnseenClasses)) + 1

	// sample layout: trainval, then test-seen, then test-unseen
	var labels []int
	var trainval, testSeen, testUnseen []float64
	add := func(loc *[]float64, classes []int, perClass int) {
		for _, c := range classes {
			for k := 0; k < perClass; k++ {
				labels = append(labels, c+1)
				*loc = append(*loc, float64(len(labels)))
			}
		}
	}
	add(&trainval, toy.SeenClasses, toy.TrainvalPerClass)
	add(&testSeen, toy.SeenClasses, toy.TestSeenPerClass)
	add(&testUnseen, toy.UnseenClasses, toy.TestUnseenPerClass)
	n := len(labels)

	// features are stored feature-dim x samples
	features := mat.NewDense(toy.FeatureDim, n, nil)
	for i := 0; i < toy.FeatureDim; i++ {
		for j := 0; j < n; j++ {
			features.Set(i, j, float64(labels[j])+rng.Float64()*10)
		}
	}
	labelVec := make([]float64, n)
	for i, v := range labels {
		labelVec[i] = float64(v)
	}

	err := matfile.WriteFile(filepath.Join(dir, DefaultFileNames().Features), toy.Compress,
		matfile.NamedMatrix{Name: "features", Matrix: features},
		matfile.NamedMatrix{Name: "labels", Matrix: mat.NewDense(n, 1, labelVec)},
	)
	if err != nil {
		return err
	}

	att := mat.NewDense(toy.AttributeDim, nClasses, nil)
	for i := 0; i < toy.AttributeDim; i++ {
		for j := 0; j < nClasses; j++ {
			att.Set(i, j, rng.Float64())
		}
	}

	// the last trainval sample is held out as val_loc
	trainLoc := trainval[:len(trainval)-1]
	valLoc := trainval[len(trainval)-1:]
	err = matfile.WriteFile(filepath.Join(dir, DefaultFileNames().Splits), toy.Compress,
		column("trainval_loc", trainval),
		column("train_loc", trainLoc),
		column("val_loc", valLoc),
		column("test_seen_loc", testSeen),
		column("test_unseen_loc", testUnseen),
		matfile.NamedMatrix{Name: "att", Matrix: att},
	)
	if err != nil {
		return err
	}

	if len(toy.SideModalities) == 0 {
		return nil
	}
	return writeToySideFile(dir, toy, nClasses, rng)
}

func writeToySideFile(dir string, toy ToyBenchmark, nClasses int, rng *rand.Rand) error {
	names := make([]string, 0, len(toy.SideModalities))
	for name := range toy.SideModalities {
		names = append(names, name)
	}
	slices.Sort(names)

	modalities := make(map[string]*mat.Dense, len(names))
	vars := make([]matfile.NamedMatrix, 0, len(names))
	for _, name := range names {
		m := mat.NewDense(nClasses, toy.SideModalities[name], nil)
		r, c := m.Dims()
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				m.Set(i, j, rng.NormFloat64())
			}
		}
		modalities[name] = m
		vars = append(vars, matfile.NamedMatrix{Name: name, Matrix: m})
	}

	base := filepath.Join(dir, DefaultFileNames().SideFile)
	if toy.SideGob {
		return WriteSideFileGob(base+sideExtGob, modalities)
	}
	return matfile.WriteFile(base+sideExtMAT, toy.Compress, vars...)
}

func column(name string, values []float64) matfile.NamedMatrix {
	return matfile.NamedMatrix{Name: name, Matrix: mat.NewDense(len(values), 1, values)}
}
