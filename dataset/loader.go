// Package dataset loads zero-shot learning benchmarks.
//
// A benchmark directory holds precomputed visual features (res101.mat), the
// split protocol with class attributes (att_splits.mat) and, for cub, a side
// file of extra auxiliary modalities. New reads them once, builds the
// train-seen, train-unseen, test-seen and test-unseen splits, min-max scales
// the features of every split with its own statistics and remaps seen labels
// to 0..N-1. The Loader is read-only afterwards except for the batch sampler.
//
// Example:
//
//	loader, err := dataset.New(dataset.Config{
//	    Name:            "cub",
//	    AuxiliarySource: dataset.AuxAttributes,
//	    DataRoot:        "/data/zsl",
//	}, dataset.WithSeed(42))
//	if err != nil {
//	    return err
//	}
//	batch, err := loader.NextBatch(64)
package dataset

import (
	"math/rand/v2"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/YuminosukeSato/zeroshoteval/core/model"
	"github.com/YuminosukeSato/zeroshoteval/pkg/errors"
	"github.com/YuminosukeSato/zeroshoteval/pkg/log"
	"github.com/YuminosukeSato/zeroshoteval/pkg/matfile"
	"github.com/YuminosukeSato/zeroshoteval/preprocessing"
	"gonum.org/v1/gonum/mat"
)

// Loader is a loaded benchmark.
//
// Matrices returned by accessors are shared with the Loader and must not be
// modified. NextBatch and NextBatchTensors advance a shared random source and
// are not safe for concurrent use.
type Loader struct {
	cfg    Config
	bench  Benchmark
	dir    string
	files  FileNames
	device Device
	logger log.Logger

	seed   uint64
	seeded bool
	strict bool
	src    *rand.PCG

	// newScaler builds the per-split feature transformer
	newScaler model.TransformerFactory

	auxData *mat.Dense
	splits  map[SplitName]*Split

	seenClasses      []int
	novelClasses     []int
	trainMappedLabel []int
	seenAux          *mat.Dense
	novelAux         *mat.Dense

	trainLoc []int
	valLoc   []int

	placedMu sync.Mutex
	placed   map[SplitName]*Placement
}

// New validates cfg, then loads and splits the benchmark. Configuration
// errors are returned before any file is opened. On error no Loader is
// returned.
func New(cfg Config, opts ...Option) (*Loader, error) {
	l := &Loader{
		cfg:       cfg,
		files:     DefaultFileNames(),
		logger:    log.GetLoggerWithName("dataset"),
		newScaler: preprocessing.NewMinMaxTransformer,
		placed:    make(map[SplitName]*Placement),
	}
	for _, opt := range opts {
		opt(l)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	l.bench, _ = ParseBenchmark(cfg.Name)
	l.device, _ = NewDevice(cfg.Device)
	l.dir = filepath.Join(cfg.DataRoot, l.bench.Dir())

	if !l.seeded {
		l.seed = rand.Uint64()
	}
	l.src = rand.NewPCG(l.seed, l.seed^0x9e3779b97f4a7c15)

	l.logger = l.logger.With(
		log.DatasetKey, string(l.bench),
		log.AuxSourceKey, cfg.AuxiliarySource,
		log.DeviceKey, l.device.Name(),
	)
	l.logger.Info("resolved benchmark directory",
		"data_root", cfg.DataRoot,
		log.PathKey, l.dir,
		log.RandomSeedKey, l.seed,
	)

	start := time.Now()
	if err := l.load(); err != nil {
		l.logger.Error("loading failed", log.ErrAttrKey, err, log.OperationKey, log.OperationLoad)
		return nil, err
	}

	l.logger.Info("benchmark loaded",
		log.SamplesKey, l.NTrain(),
		log.ClassesKey, len(l.seenClasses)+len(l.novelClasses),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return l, nil
}

// rawData is the file content before splitting.
type rawData struct {
	features *mat.Dense // samples x feature-dim
	labels   []int      // 0-based

	trainval   []int
	testSeen   []int
	testUnseen []int
}

func (l *Loader) load() error {
	raw, splitFile, splitsPath, err := l.readFiles()
	if err != nil {
		return err
	}

	aux, err := l.loadAuxiliary(splitFile, splitsPath)
	if err != nil {
		return err
	}
	auxRows, auxDim := aux.Dims()
	if auxRows == 0 || auxDim == 0 {
		return errors.NewShapeMismatchError(log.OperationLoad, "auxiliary classes", 1, 0)
	}
	if err := errors.CheckFinite("auxiliary "+l.cfg.AuxiliarySource, aux); err != nil {
		return err
	}
	l.auxData = aux
	l.logger.Info("auxiliary data loaded", log.ClassesKey, auxRows, log.AuxDimKey, auxDim)

	trainLabels := pick(raw.labels, raw.trainval)
	testSeenLabels := pick(raw.labels, raw.testSeen)
	testUnseenLabels := pick(raw.labels, raw.testUnseen)
	for name, labels := range map[SplitName][]int{
		TrainSeen:  trainLabels,
		TestSeen:   testSeenLabels,
		TestUnseen: testUnseenLabels,
	} {
		if err := checkLabels(name, labels, auxRows); err != nil {
			return err
		}
	}

	trainFeatures, err := l.scaleSplit(TrainSeen, raw.features, raw.trainval)
	if err != nil {
		return err
	}
	testSeenFeatures, err := l.scaleSplit(TestSeen, raw.features, raw.testSeen)
	if err != nil {
		return err
	}
	testUnseenFeatures, err := l.scaleSplit(TestUnseen, raw.features, raw.testUnseen)
	if err != nil {
		return err
	}

	l.seenClasses = uniqueSorted(trainLabels)
	l.novelClasses = uniqueSorted(testUnseenLabels)
	if overlap := intersectSorted(l.seenClasses, l.novelClasses); len(overlap) > 0 {
		if l.strict {
			return errors.NewConsistencyError(string(l.bench), "disjoint seen and unseen classes", overlap)
		}
		errors.Warn(errors.NewClassOverlapWarning(string(l.bench), overlap))
	}

	if l.trainMappedLabel, err = mapLabels(trainLabels, l.seenClasses); err != nil {
		return err
	}

	l.splits = map[SplitName]*Split{
		TrainSeen: {
			Name:      TrainSeen,
			Features:  trainFeatures,
			Labels:    trainLabels,
			Auxiliary: gatherRows(aux, trainLabels),
		},
		TrainUnseen: {Name: TrainUnseen},
		TestSeen: {
			Name:     TestSeen,
			Features: testSeenFeatures,
			Labels:   testSeenLabels,
		},
		TestUnseen: {
			Name:      TestUnseen,
			Features:  testUnseenFeatures,
			Labels:    testUnseenLabels,
			Auxiliary: gatherRows(aux, testUnseenLabels),
		},
	}
	l.seenAux = gatherRows(aux, l.seenClasses)
	l.novelAux = gatherRows(aux, l.novelClasses)

	for _, name := range SplitNames() {
		s := l.splits[name]
		l.logger.Debug("split ready",
			log.SplitKey, string(name),
			log.SamplesKey, s.Len(),
			log.FeaturesKey, s.FeatureDim(),
		)
	}
	return nil
}

// readFiles reads the features file and the split file.
func (l *Loader) readFiles() (*rawData, *matfile.File, string, error) {
	featuresPath := filepath.Join(l.dir, l.files.Features)
	l.logger.Info("reading features", log.PathKey, featuresPath)
	featFile, err := matfile.Open(featuresPath)
	if err != nil {
		return nil, nil, "", err
	}

	fv, err := featFile.Variable("features")
	if err != nil {
		return nil, nil, "", errors.NewIOError("read", featuresPath, err)
	}
	// stored as feature-dim x samples
	features := fv.DenseT()
	n, dim := features.Dims()
	if n == 0 || dim == 0 {
		return nil, nil, "", errors.NewIOError("read", featuresPath, errors.Wrap(errors.ErrEmptyData, "features"))
	}
	if err := errors.CheckFinite("features", features); err != nil {
		return nil, nil, "", err
	}

	lv, err := featFile.Variable("labels")
	if err != nil {
		return nil, nil, "", errors.NewIOError("read", featuresPath, err)
	}
	oneBased, err := lv.Ints()
	if err != nil {
		return nil, nil, "", errors.NewIOError("read", featuresPath, err)
	}
	if len(oneBased) != n {
		return nil, nil, "", errors.NewShapeMismatchError(log.OperationLoad, "labels", n, len(oneBased))
	}
	labels := make([]int, n)
	for i, v := range oneBased {
		if v < 1 {
			return nil, nil, "", errors.NewShapeMismatchError(log.OperationLoad, "label", 1, v)
		}
		labels[i] = v - 1
	}
	l.logger.Info("features loaded", log.SamplesKey, n, log.FeaturesKey, dim)

	splitsPath := filepath.Join(l.dir, l.files.Splits)
	l.logger.Info("reading splits", log.PathKey, splitsPath)
	splitFile, err := matfile.Open(splitsPath)
	if err != nil {
		return nil, nil, "", err
	}

	locs := make(map[string][]int, 5)
	for _, name := range []string{"trainval_loc", "train_loc", "val_loc", "test_seen_loc", "test_unseen_loc"} {
		v, err := splitFile.Variable(name)
		if err != nil {
			return nil, nil, "", errors.NewIOError("read", splitsPath, err)
		}
		ints, err := v.Ints()
		if err != nil {
			return nil, nil, "", errors.NewIOError("read", splitsPath, err)
		}
		if locs[name], err = zeroBased(log.OperationSplit, name, ints, n); err != nil {
			return nil, nil, "", err
		}
	}
	l.trainLoc = locs["train_loc"]
	l.valLoc = locs["val_loc"]

	return &rawData{
		features:   features,
		labels:     labels,
		trainval:   locs["trainval_loc"],
		testSeen:   locs["test_seen_loc"],
		testUnseen: locs["test_unseen_loc"],
	}, splitFile, splitsPath, nil
}

// scaleSplit gathers the rows of a split and fits a fresh scaler on them.
func (l *Loader) scaleSplit(name SplitName, features *mat.Dense, rows []int) (*mat.Dense, error) {
	if len(rows) == 0 {
		return nil, errors.Wrapf(errors.ErrEmptyData, "split %s", name)
	}
	scaled, err := l.newScaler().FitTransform(gatherRows(features, rows))
	if err != nil {
		return nil, errors.Wrapf(err, "scale split %s", name)
	}
	l.logger.Debug("split scaled",
		log.SplitKey, string(name),
		log.OperationKey, log.OperationFitTransform,
		log.SamplesKey, len(rows),
	)
	return scaled, nil
}

func checkLabels(name SplitName, labels []int, auxRows int) error {
	for _, label := range labels {
		if label >= auxRows {
			return errors.NewShapeMismatchError(log.OperationSplit,
				"auxiliary rows for "+string(name)+" labels", label+1, auxRows)
		}
	}
	return nil
}

// Name is the benchmark.
func (l *Loader) Name() Benchmark { return l.bench }

// Config returns the configuration the Loader was built with.
func (l *Loader) Config() Config { return l.cfg }

// Dir is the resolved benchmark directory.
func (l *Loader) Dir() string { return l.dir }

// Device is the placement target.
func (l *Loader) Device() Device { return l.device }

// Seed is the batch sampler seed, random unless WithSeed was given.
func (l *Loader) Seed() uint64 { return l.seed }

// Split returns a split by name.
func (l *Loader) Split(name SplitName) (*Split, error) {
	s, ok := l.splits[name]
	if !ok {
		return nil, errors.NewValueError("Loader.Split", "unknown split "+string(name))
	}
	return s, nil
}

// AuxData is the class auxiliary table, one row per class id.
func (l *Loader) AuxData() *mat.Dense { return l.auxData }

// NTrain is the number of train-seen samples.
func (l *Loader) NTrain() int { return l.splits[TrainSeen].Len() }

// NTrainClass is the number of seen classes.
func (l *Loader) NTrainClass() int { return len(l.seenClasses) }

// NTestClass is the number of unseen classes.
func (l *Loader) NTestClass() int { return len(l.novelClasses) }

// AllClasses is 0..NTrainClass()+NTestClass()-1. These are positions, not
// the original class ids.
func (l *Loader) AllClasses() []int {
	out := make([]int, l.NTrainClass()+l.NTestClass())
	for i := range out {
		out[i] = i
	}
	return out
}

// SeenClasses are the sorted class ids of train-seen.
func (l *Loader) SeenClasses() []int { return slices.Clone(l.seenClasses) }

// TrainClass equals SeenClasses.
func (l *Loader) TrainClass() []int { return slices.Clone(l.seenClasses) }

// NovelClasses are the sorted class ids of test-unseen.
func (l *Loader) NovelClasses() []int { return slices.Clone(l.novelClasses) }

// TrainMappedLabel maps every train-seen label to its position in SeenClasses.
func (l *Loader) TrainMappedLabel() []int { return slices.Clone(l.trainMappedLabel) }

// SeenClassAuxData has the auxiliary row of every seen class, in SeenClasses order.
func (l *Loader) SeenClassAuxData() *mat.Dense { return l.seenAux }

// NovelClassAuxData has the auxiliary row of every unseen class, in NovelClasses order.
func (l *Loader) NovelClassAuxData() *mat.Dense { return l.novelAux }

// TrainLoc are the 0-based sample indices of train_loc. Together with
// ValLoc they partition trainval for hyper-parameter search.
func (l *Loader) TrainLoc() []int { return slices.Clone(l.trainLoc) }

// ValLoc are the 0-based val_loc sample indices.
func (l *Loader) ValLoc() []int { return slices.Clone(l.valLoc) }

// Placed returns the split tensors on the configured device. Placement runs
// once per split.
func (l *Loader) Placed(name SplitName) (*Placement, error) {
	s, err := l.Split(name)
	if err != nil {
		return nil, err
	}

	l.placedMu.Lock()
	defer l.placedMu.Unlock()
	if p, ok := l.placed[name]; ok {
		return p, nil
	}

	start := time.Now()
	p, err := place(l.device, s.Labels, s.Features, s.Auxiliary)
	if err != nil {
		return nil, err
	}
	l.placed[name] = p
	l.logger.Debug("split placed",
		log.SplitKey, string(name),
		log.OperationKey, log.OperationPlace,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return p, nil
}
