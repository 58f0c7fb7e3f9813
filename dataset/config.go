package dataset

import (
	"path/filepath"
	"strings"

	"github.com/YuminosukeSato/zeroshoteval/pkg/errors"
)

// Config selects what New loads.
type Config struct {
	// Name is the benchmark: cub, sun, awa1 or awa2.
	Name string

	// AuxiliarySource is AuxAttributes or a modality stored in the
	// benchmark side file.
	AuxiliarySource string

	// Device names where Placed and NextBatchTensors put tensors.
	// Empty means DeviceCPU.
	Device string

	// DataRoot holds one subdirectory per benchmark.
	DataRoot string
}

// Validate checks every field without touching the filesystem.
func (c Config) Validate() error {
	if _, err := ParseBenchmark(c.Name); err != nil {
		return err
	}
	if strings.TrimSpace(c.AuxiliarySource) == "" {
		return errors.NewConfigurationError("auxiliary source", c.AuxiliarySource, nil)
	}
	if _, err := NewDevice(c.Device); err != nil {
		return err
	}
	if strings.TrimSpace(c.DataRoot) == "" {
		return errors.NewConfigurationError("data root", c.DataRoot, nil)
	}
	return nil
}

// DefaultDataRoot derives a data root from a working directory: a trailing
// "model" directory is replaced by its parent, then "data" is appended.
func DefaultDataRoot(cwd string) string {
	cwd = filepath.Clean(cwd)
	if filepath.Base(cwd) == "model" {
		cwd = filepath.Dir(cwd)
	}
	return filepath.Join(cwd, "data")
}
