package dataset

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/YuminosukeSato/zeroshoteval/core/model"
	"github.com/YuminosukeSato/zeroshoteval/pkg/errors"
	"github.com/YuminosukeSato/zeroshoteval/pkg/log"
	"github.com/YuminosukeSato/zeroshoteval/pkg/matfile"
	"gonum.org/v1/gonum/mat"
)

// Side file extensions in lookup order.
const (
	sideExtMAT = ".mat"
	sideExtGob = ".gob"
)

// loadAuxiliary returns the class auxiliary table with one row per class.
func (l *Loader) loadAuxiliary(splits *matfile.File, splitsPath string) (*mat.Dense, error) {
	source := l.cfg.AuxiliarySource
	if source == AuxAttributes {
		att, err := splits.Variable("att")
		if err != nil {
			return nil, errors.NewIOError("read", splitsPath, err)
		}
		// att is attribute-dim x classes
		return att.DenseT(), nil
	}

	if !l.bench.HasSideFile() {
		return nil, errors.NewDataUnavailableError(string(l.bench), source, "",
			"only cub ships a side file of extra modalities")
	}

	base := filepath.Join(l.dir, l.files.SideFile)
	switch {
	case fileExists(base + sideExtMAT):
		return l.sideFromMAT(base+sideExtMAT, source)
	case fileExists(base + sideExtGob):
		return l.sideFromGob(base+sideExtGob, source)
	default:
		return nil, errors.NewDataUnavailableError(string(l.bench), source, base+sideExtMAT,
			"side file not found")
	}
}

func (l *Loader) sideFromMAT(path, source string) (*mat.Dense, error) {
	l.logger.Info("reading side file", log.PathKey, path, log.AuxSourceKey, source)
	f, err := matfile.Open(path)
	if err != nil {
		return nil, err
	}
	v, err := f.Variable(source)
	if err != nil {
		return nil, errors.NewDataUnavailableError(string(l.bench), source, path,
			"modality missing from side file")
	}
	// side file modalities are already classes x aux-dim
	return v.Dense(), nil
}

func (l *Loader) sideFromGob(path, source string) (*mat.Dense, error) {
	l.logger.Info("reading side file", log.PathKey, path, log.AuxSourceKey, source)
	var side map[string]model.Matrix
	if err := model.LoadGob(&side, path); err != nil {
		return nil, err
	}
	m, ok := side[source]
	if !ok {
		return nil, errors.NewDataUnavailableError(string(l.bench), source, path,
			"modality missing from side file")
	}
	dense, err := m.Dense()
	if err != nil {
		return nil, errors.NewIOError("decode", path, err)
	}
	return dense, nil
}

// WriteSideFileGob stores modality tables (classes x aux-dim) in the gob
// side file format read by New.
func WriteSideFileGob(path string, modalities map[string]*mat.Dense) error {
	side := make(map[string]model.Matrix, len(modalities))
	for name, m := range modalities {
		side[name] = model.MatrixOf(m)
	}
	return model.SaveGob(side, path)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, fs.ErrNotExist)
}
