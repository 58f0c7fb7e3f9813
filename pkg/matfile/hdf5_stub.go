//go:build !hdf5

package matfile

import (
	"github.com/YuminosukeSato/zeroshoteval/pkg/errors"
)

func openHDF5(path string, h Header) (*File, error) {
	return nil, errors.Wrapf(errors.ErrUnsupportedFormat,
		"%s is a MAT v7.3 (HDF5) file; rebuild with -tags hdf5", path)
}
