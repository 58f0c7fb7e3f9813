package dataset

import "github.com/YuminosukeSato/zeroshoteval/pkg/log"

// Option configures a Loader.
type Option func(*Loader)

// FileNames are the file names looked up inside a benchmark directory.
type FileNames struct {
	Features string
	Splits   string
	// SideFile has no extension; ".mat" is tried before ".gob".
	SideFile string
}

// DefaultFileNames returns the names used by the published benchmark archives.
func DefaultFileNames() FileNames {
	return FileNames{
		Features: "res101.mat",
		Splits:   "att_splits.mat",
		SideFile: "CUB_supporting_data",
	}
}

// WithLogger sets the logger
func WithLogger(logger log.Logger) Option {
	return func(l *Loader) {
		l.logger = logger
	}
}

// WithSeed seeds the batch sampler
func WithSeed(seed uint64) Option {
	return func(l *Loader) {
		l.seed = seed
		l.seeded = true
	}
}

// WithConsistencyCheck makes overlapping seen and unseen classes a
// ConsistencyError instead of a warning.
func WithConsistencyCheck(strict bool) Option {
	return func(l *Loader) {
		l.strict = strict
	}
}

// WithFileNames overrides the file names. Empty fields keep their defaults.
func WithFileNames(names FileNames) Option {
	return func(l *Loader) {
		if names.Features != "" {
			l.files.Features = names.Features
		}
		if names.Splits != "" {
			l.files.Splits = names.Splits
		}
		if names.SideFile != "" {
			l.files.SideFile = names.SideFile
		}
	}
}
