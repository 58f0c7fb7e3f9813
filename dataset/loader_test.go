package dataset

import (
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/zeroshoteval/pkg/errors"
	"github.com/YuminosukeSato/zeroshoteval/pkg/log"
	"github.com/YuminosukeSato/zeroshoteval/pkg/matfile"
)

func quietLogger() log.Logger {
	logger, _ := log.NewTestLogger(log.LevelError)
	return logger
}

func writeToy(t *testing.T, toy ToyBenchmark) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, WriteToyBenchmark(root, toy))
	return root
}

func loadToy(t *testing.T, toy ToyBenchmark, aux string, opts ...Option) *Loader {
	t.Helper()
	root := writeToy(t, toy)
	opts = append([]Option{WithLogger(quietLogger()), WithSeed(7)}, opts...)
	l, err := New(Config{Name: toy.Name, AuxiliarySource: aux, DataRoot: root}, opts...)
	require.NoError(t, err)
	return l
}

func TestNewToyBenchmark(t *testing.T) {
	l := loadToy(t, DefaultToyBenchmark(), AuxAttributes)

	assert.Equal(t, CUB, l.Name())
	assert.Equal(t, 4, l.NTrain())
	assert.Equal(t, 2, l.NTrainClass())
	assert.Equal(t, 1, l.NTestClass())
	assert.Equal(t, []int{0, 1, 2}, l.AllClasses())
	assert.Equal(t, []int{0, 1}, l.SeenClasses())
	assert.Equal(t, []int{0, 1}, l.TrainClass())
	assert.Equal(t, []int{2}, l.NovelClasses())
	assert.Equal(t, []int{0, 0, 1, 1}, l.TrainMappedLabel())
	assert.Equal(t, []int{0, 1, 2}, l.TrainLoc())
	assert.Equal(t, []int{3}, l.ValLoc())

	aux := l.AuxData()
	classes, attDim := aux.Dims()
	assert.Equal(t, 3, classes)
	assert.Equal(t, 4, attDim)

	novel := l.NovelClassAuxData()
	r, _ := novel.Dims()
	assert.Equal(t, 1, r)
	assert.Equal(t, aux.RawRowView(2), novel.RawRowView(0))

	seen := l.SeenClassAuxData()
	r, _ = seen.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, aux.RawRowView(1), seen.RawRowView(1))
}

func TestSplitInvariants(t *testing.T) {
	l := loadToy(t, DefaultToyBenchmark(), AuxAttributes)

	for _, name := range SplitNames() {
		s, err := l.Split(name)
		require.NoError(t, err)
		assert.Equal(t, name, s.Name)
		if s.Empty() {
			assert.Equal(t, TrainUnseen, name, "only train_unseen may be empty")
			assert.Nil(t, s.Features)
			continue
		}

		rows, cols := s.Features.Dims()
		assert.Equal(t, s.Len(), rows, "split %s", name)
		assert.Equal(t, 3, cols)

		col := make([]float64, rows)
		for j := 0; j < cols; j++ {
			mat.Col(col, j, s.Features)
			assert.InDelta(t, 0.0, floats.Min(col), 1e-12, "split %s column %d", name, j)
			assert.InDelta(t, 1.0, floats.Max(col), 1e-12, "split %s column %d", name, j)
		}
	}

	train, _ := l.Split(TrainSeen)
	assert.Equal(t, []int{0, 0, 1, 1}, train.Labels)
	require.True(t, train.HasAuxiliary())
	for i, label := range train.Labels {
		assert.Equal(t, l.AuxData().RawRowView(label), train.Auxiliary.RawRowView(i))
	}

	testSeen, _ := l.Split(TestSeen)
	assert.Equal(t, []int{0, 1}, testSeen.Labels)
	assert.False(t, testSeen.HasAuxiliary())

	testUnseen, _ := l.Split(TestUnseen)
	assert.Equal(t, []int{2, 2}, testUnseen.Labels)
	assert.True(t, testUnseen.HasAuxiliary())

	_, err := l.Split("validation")
	var valErr *errors.ValueError
	assert.True(t, errors.As(err, &valErr))
}

func TestNewLargerBenchmark(t *testing.T) {
	toy := ToyBenchmark{
		Name:               string(AWA2),
		SeenClasses:        []int{0, 2, 4, 6, 8},
		UnseenClasses:      []int{1, 3, 5},
		TrainvalPerClass:   6,
		TestSeenPerClass:   2,
		TestUnseenPerClass: 3,
		FeatureDim:         8,
		AttributeDim:       5,
		Compress:           true,
		Seed:               11,
	}
	l := loadToy(t, toy, AuxAttributes)

	assert.Equal(t, 30, l.NTrain())
	assert.Equal(t, []int{0, 2, 4, 6, 8}, l.SeenClasses())
	assert.Equal(t, []int{1, 3, 5}, l.NovelClasses())
	assert.Empty(t, intersectSorted(l.SeenClasses(), l.NovelClasses()))

	train, _ := l.Split(TrainSeen)
	mapped := l.TrainMappedLabel()
	require.Len(t, mapped, len(train.Labels))
	for i, label := range train.Labels {
		assert.Equal(t, label, l.SeenClasses()[mapped[i]])
	}
	assert.Equal(t, []int{0, 1, 2, 3, 4}, uniqueSorted(mapped))
}

func TestNewRejectsBadConfigurationBeforeIO(t *testing.T) {
	logger, _ := log.NewTestLogger(log.LevelDebug)
	missing := filepath.Join(t.TempDir(), "does-not-exist")

	tests := []struct {
		name  string
		cfg   Config
		param string
	}{
		{name: "unknown dataset", cfg: Config{Name: "imagenet", AuxiliarySource: AuxAttributes, DataRoot: missing}, param: "dataset"},
		{name: "unknown device", cfg: Config{Name: "cub", AuxiliarySource: AuxAttributes, Device: "tpu", DataRoot: missing}, param: "device"},
		{name: "empty aux", cfg: Config{Name: "cub", DataRoot: missing}, param: "auxiliary source"},
		{name: "empty root", cfg: Config{Name: "cub", AuxiliarySource: AuxAttributes}, param: "data root"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg, WithLogger(logger))
			require.Error(t, err)
			assert.Nil(t, l)

			var cfgErr *errors.ConfigurationError
			require.True(t, errors.As(err, &cfgErr), "got %v", err)
			assert.Equal(t, tt.param, cfgErr.Param)
		})
	}
	assert.False(t, logger.ContainsMessage("reading features"))
	_, statErr := os.Stat(missing)
	assert.True(t, os.IsNotExist(statErr))
}

func TestNewMissingFiles(t *testing.T) {
	_, err := New(Config{Name: "sun", AuxiliarySource: AuxAttributes, DataRoot: t.TempDir()},
		WithLogger(quietLogger()))
	require.Error(t, err)

	var ioErr *errors.IOError
	require.True(t, errors.As(err, &ioErr))
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	assert.Equal(t, "res101.mat", filepath.Base(ioErr.Path))
}

func TestNewLogsPaths(t *testing.T) {
	root := writeToy(t, DefaultToyBenchmark())
	logger, _ := log.NewTestLogger(log.LevelInfo)

	_, err := New(Config{Name: "CUB", AuxiliarySource: AuxAttributes, DataRoot: root}, WithLogger(logger))
	require.NoError(t, err)

	dir := filepath.Join(root, "CUB")
	assert.True(t, logger.ContainsField(log.PathKey, dir))
	assert.True(t, logger.ContainsField(log.PathKey, filepath.Join(dir, "res101.mat")))
	assert.True(t, logger.ContainsField(log.PathKey, filepath.Join(dir, "att_splits.mat")))
	assert.True(t, logger.ContainsField(log.DatasetKey, "cub"))
	assert.True(t, logger.ContainsMessage("benchmark loaded"))
}

func TestAuxiliaryUnavailable(t *testing.T) {
	sun := DefaultToyBenchmark()
	sun.Name = string(SUN)
	sunRoot := writeToy(t, sun)
	cubRoot := writeToy(t, DefaultToyBenchmark())

	withSide := DefaultToyBenchmark()
	withSide.SideModalities = map[string]int{"sentences": 5}
	sideRoot := writeToy(t, withSide)

	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "no side file for benchmark", cfg: Config{Name: "sun", AuxiliarySource: "sentences", DataRoot: sunRoot}},
		{name: "side file missing", cfg: Config{Name: "cub", AuxiliarySource: "sentences", DataRoot: cubRoot}},
		{name: "modality missing", cfg: Config{Name: "cub", AuxiliarySource: "word2vec", DataRoot: sideRoot}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg, WithLogger(quietLogger()))
			require.Error(t, err)
			assert.Nil(t, l)

			var unavailable *errors.DataUnavailableError
			require.True(t, errors.As(err, &unavailable), "got %v", err)
			assert.Equal(t, tt.cfg.AuxiliarySource, unavailable.Source)
		})
	}
}

func TestSideFileModalities(t *testing.T) {
	for _, gob := range []bool{false, true} {
		toy := DefaultToyBenchmark()
		toy.SideModalities = map[string]int{"sentences": 5, "word2vec": 2}
		toy.SideGob = gob

		l := loadToy(t, toy, "sentences")
		classes, dim := l.AuxData().Dims()
		assert.Equal(t, 3, classes, "gob=%v", gob)
		assert.Equal(t, 5, dim, "gob=%v", gob)

		r, c := l.NovelClassAuxData().Dims()
		assert.Equal(t, 1, r)
		assert.Equal(t, 5, c)
	}
}

func TestLabelOutsideAuxiliaryTable(t *testing.T) {
	root := writeToy(t, DefaultToyBenchmark())
	dir := filepath.Join(root, "CUB")

	// shrink att to two classes while test-unseen still uses class 2
	splits, err := matfile.Open(filepath.Join(dir, "att_splits.mat"))
	require.NoError(t, err)
	var vars []matfile.NamedMatrix
	for _, name := range splits.Names() {
		v, err := splits.Variable(name)
		require.NoError(t, err)
		m := v.Dense()
		if name == "att" {
			m = mat.DenseCopyOf(m.Slice(0, v.Rows(), 0, 2))
		}
		vars = append(vars, matfile.NamedMatrix{Name: name, Matrix: m})
	}
	require.NoError(t, matfile.WriteFile(filepath.Join(dir, "att_splits.mat"), false, vars...))

	_, err = New(Config{Name: "cub", AuxiliarySource: AuxAttributes, DataRoot: root}, WithLogger(quietLogger()))
	var shapeErr *errors.ShapeMismatchError
	require.True(t, errors.As(err, &shapeErr), "got %v", err)
	assert.Equal(t, 2, shapeErr.Got)
}

func TestFeatureLabelCountMismatch(t *testing.T) {
	root := writeToy(t, DefaultToyBenchmark())
	path := filepath.Join(root, "CUB", "res101.mat")

	features := mat.NewDense(3, 8, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 8; j++ {
			features.Set(i, j, float64(i+j))
		}
	}
	require.NoError(t, matfile.WriteFile(path, false,
		matfile.NamedMatrix{Name: "features", Matrix: features},
		matfile.NamedMatrix{Name: "labels", Matrix: mat.NewDense(7, 1, []float64{1, 1, 2, 2, 1, 2, 3})},
	))

	_, err := New(Config{Name: "cub", AuxiliarySource: AuxAttributes, DataRoot: root}, WithLogger(quietLogger()))
	var shapeErr *errors.ShapeMismatchError
	require.True(t, errors.As(err, &shapeErr), "got %v", err)
	assert.Equal(t, 8, shapeErr.Expected)
	assert.Equal(t, 7, shapeErr.Got)
}

// rewriteVariable replaces one variable of a .mat file with edit applied to
// its stored matrix.
func rewriteVariable(t *testing.T, path, variable string, edit func(m *mat.Dense)) {
	t.Helper()
	f, err := matfile.Open(path)
	require.NoError(t, err)
	var vars []matfile.NamedMatrix
	for _, name := range f.Names() {
		v, err := f.Variable(name)
		require.NoError(t, err)
		m := v.Dense()
		if name == variable {
			edit(m)
		}
		vars = append(vars, matfile.NamedMatrix{Name: name, Matrix: m})
	}
	require.NoError(t, matfile.WriteFile(path, false, vars...))
}

func TestNewRejectsCorruptValues(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		variable string
		edit     func(m *mat.Dense)
		check    func(t *testing.T, err error)
	}{
		{
			name:     "NaN feature",
			file:     "res101.mat",
			variable: "features",
			// stored feature-dim x samples, so column 2 is sample 2
			edit: func(m *mat.Dense) { m.Set(0, 2, math.NaN()) },
			check: func(t *testing.T, err error) {
				var numErr *errors.NumericalInstabilityError
				require.True(t, errors.As(err, &numErr), "got %v", err)
				assert.Equal(t, "features", numErr.Operation)
				assert.Equal(t, 2, numErr.Row)
				require.Len(t, numErr.Values, 1)
				assert.True(t, math.IsNaN(numErr.Values[0]))
			},
		},
		{
			name:     "zero label",
			file:     "res101.mat",
			variable: "labels",
			edit:     func(m *mat.Dense) { m.Set(1, 0, 0) },
			check: func(t *testing.T, err error) {
				var shapeErr *errors.ShapeMismatchError
				require.True(t, errors.As(err, &shapeErr), "got %v", err)
				assert.Equal(t, 1, shapeErr.Expected)
				assert.Equal(t, 0, shapeErr.Got)
			},
		},
		{
			name:     "Inf attribute",
			file:     "att_splits.mat",
			variable: "att",
			// stored attribute-dim x classes, so column 1 is class 1
			edit: func(m *mat.Dense) { m.Set(3, 1, math.Inf(1)) },
			check: func(t *testing.T, err error) {
				var numErr *errors.NumericalInstabilityError
				require.True(t, errors.As(err, &numErr), "got %v", err)
				assert.Equal(t, "auxiliary "+AuxAttributes, numErr.Operation)
				assert.Equal(t, 1, numErr.Row)
				assert.Equal(t, []float64{math.Inf(1)}, numErr.Values)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := writeToy(t, DefaultToyBenchmark())
			rewriteVariable(t, filepath.Join(root, "CUB", tt.file), tt.variable, tt.edit)

			l, err := New(Config{Name: "cub", AuxiliarySource: AuxAttributes, DataRoot: root}, WithLogger(quietLogger()))
			require.Error(t, err)
			assert.Nil(t, l)
			tt.check(t, err)
		})
	}
}

func TestClassOverlap(t *testing.T) {
	toy := DefaultToyBenchmark()
	toy.UnseenClasses = []int{1}

	provider, buffer := log.NewTestLoggerProvider(log.LevelDebug)
	log.SetProvider(provider)
	defer log.SetProvider(log.NewZerologProvider(io.Discard, log.LevelInfo))

	l := loadToy(t, toy, AuxAttributes)
	assert.Equal(t, []int{1}, l.NovelClasses())
	assert.Contains(t, buffer.String(), "overlap")

	root := writeToy(t, toy)
	_, err := New(Config{Name: "cub", AuxiliarySource: AuxAttributes, DataRoot: root},
		WithLogger(quietLogger()), WithConsistencyCheck(true))
	var consistency *errors.ConsistencyError
	require.True(t, errors.As(err, &consistency), "got %v", err)
	assert.Equal(t, []int{1}, consistency.Classes)
}

func TestWithFileNames(t *testing.T) {
	root := writeToy(t, DefaultToyBenchmark())
	dir := filepath.Join(root, "CUB")
	require.NoError(t, os.Rename(filepath.Join(dir, "res101.mat"), filepath.Join(dir, "vgg19.mat")))

	_, err := New(Config{Name: "cub", AuxiliarySource: AuxAttributes, DataRoot: root},
		WithLogger(quietLogger()), WithFileNames(FileNames{Features: "vgg19.mat"}))
	assert.NoError(t, err)
}

func TestDefaultDataRoot(t *testing.T) {
	assert.Equal(t, filepath.Join("/home", "zsl", "data"), DefaultDataRoot("/home/zsl/model"))
	assert.Equal(t, filepath.Join("/home", "zsl", "data"), DefaultDataRoot("/home/zsl"))
	assert.Equal(t, filepath.Join("/home", "zsl", "data"), DefaultDataRoot("/home/zsl/model/"))
}

func TestParseBenchmark(t *testing.T) {
	b, err := ParseBenchmark("AWA1")
	require.NoError(t, err)
	assert.Equal(t, AWA1, b)
	assert.Equal(t, "AWA1", b.Dir())

	_, err = ParseBenchmark("apy")
	var cfgErr *errors.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, []string{"awa1", "awa2", "cub", "sun"}, cfgErr.Allowed)
}
