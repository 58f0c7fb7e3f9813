//go:build hdf5

package matfile

import (
	"github.com/weaviate/hdf5"

	"github.com/YuminosukeSato/zeroshoteval/pkg/errors"
	"github.com/YuminosukeSato/zeroshoteval/pkg/log"
)

// openHDF5 reads every root-level numeric dataset of a MAT v7.3 file.
// HDF5 stores MATLAB arrays with reversed dimensions, so the row-major
// HDF5 buffer is already MATLAB's column-major order.
func openHDF5(path string, h Header) (*File, error) {
	logger := log.GetLoggerWithName("matfile").With(log.PathKey, path)

	file, err := hdf5.OpenFile(path, hdf5.F_ACC_RDONLY)
	if err != nil {
		return nil, errors.Wrap(err, "open HDF5 container")
	}
	defer file.Close()

	n, err := file.NumObjects()
	if err != nil {
		return nil, errors.Wrap(err, "list HDF5 objects")
	}

	f := newFile(h)
	for i := uint(0); i < n; i++ {
		kind, err := file.ObjectTypeByIndex(i)
		if err != nil || kind != hdf5.H5G_DATASET {
			continue
		}
		name, err := file.ObjectNameByIndex(i)
		if err != nil {
			return nil, errors.Wrapf(err, "name of HDF5 object %d", i)
		}
		v, err := readHDF5Dataset(file, name)
		if err != nil {
			// cell arrays and strings are stored as references or chars
			logger.Debug("skipping non-numeric dataset", log.VariableKey, name, log.ErrAttrKey, err)
			continue
		}
		f.add(v)
	}
	return f, nil
}

func readHDF5Dataset(file *hdf5.File, name string) (*Variable, error) {
	dataset, err := file.OpenDataset(name)
	if err != nil {
		return nil, err
	}
	defer dataset.Close()

	dataspace := dataset.Space()
	defer dataspace.Close()
	extent, _, err := dataspace.SimpleExtentDims()
	if err != nil {
		return nil, err
	}

	dims := make([]int, len(extent))
	total := 1
	for i, d := range extent {
		dims[len(extent)-1-i] = int(d)
		total *= int(d)
	}
	if len(dims) == 1 {
		dims = append(dims, 1)
	}

	data := make([]float64, total)
	if total > 0 {
		if err := dataset.Read(&data); err != nil {
			return nil, err
		}
	}
	return &Variable{Name: name, Class: ClassDouble, Dims: dims, Data: data}, nil
}
