// Package matfile reads numeric variables from MATLAB MAT files.
//
// Level 5 files (the default of scipy.io.savemat and MATLAB before -v7.3) are
// decoded natively, including zlib-compressed elements. Version 7.3 files are
// HDF5 containers and are read through the hdf5 bindings when the module is
// built with the "hdf5" tag.
//
// Every numeric variable is exposed as float64 values in MATLAB's column-major
// order together with its MATLAB dimensions. Cells, structs, char arrays and
// sparse matrices are skipped.
package matfile

import (
	"encoding/binary"
	"io/fs"
	"math"
	"os"
	"sort"

	"github.com/YuminosukeSato/zeroshoteval/pkg/errors"
	"github.com/YuminosukeSato/zeroshoteval/pkg/log"
	"gonum.org/v1/gonum/mat"
)

const (
	headerSize     = 128
	headerTextSize = 116

	version5  = 0x0100
	version73 = 0x0200
)

// ErrVariableNotFound is returned by File.Variable for unknown names.
var ErrVariableNotFound = errors.New("variable not found")

// Class is the MATLAB array class of a variable.
type Class uint8

const (
	ClassCell   Class = 1
	ClassStruct Class = 2
	ClassObject Class = 3
	ClassChar   Class = 4
	ClassSparse Class = 5
	ClassDouble Class = 6
	ClassSingle Class = 7
	ClassInt8   Class = 8
	ClassUint8  Class = 9
	ClassInt16  Class = 10
	ClassUint16 Class = 11
	ClassInt32  Class = 12
	ClassUint32 Class = 13
	ClassInt64  Class = 14
	ClassUint64 Class = 15
)

func (c Class) numeric() bool {
	return c >= ClassDouble && c <= ClassUint64
}

// Header is the descriptive part of a MAT file header.
type Header struct {
	Text      string
	Version   uint16
	ByteOrder binary.ByteOrder
}

// Variable is a decoded numeric array.
type Variable struct {
	Name  string
	Class Class
	// Dims are the MATLAB dimensions, at least two.
	Dims []int
	// Data holds the values in column-major order.
	Data []float64
}

// Len is the number of elements.
func (v *Variable) Len() int {
	return len(v.Data)
}

// Rows is Dims[0].
func (v *Variable) Rows() int {
	return v.Dims[0]
}

// Cols is the product of every dimension after the first.
func (v *Variable) Cols() int {
	c := 1
	for _, d := range v.Dims[1:] {
		c *= d
	}
	return c
}

// IsVector reports whether at most one dimension is larger than one.
func (v *Variable) IsVector() bool {
	big := 0
	for _, d := range v.Dims {
		if d > 1 {
			big++
		}
	}
	return big <= 1
}

// Dense returns the variable as a Rows() x Cols() matrix.
func (v *Variable) Dense() *mat.Dense {
	r, c := v.Rows(), v.Cols()
	if r == 0 || c == 0 {
		return &mat.Dense{}
	}
	out := mat.NewDense(r, c, nil)
	for j := 0; j < c; j++ {
		for i := 0; i < r; i++ {
			out.Set(i, j, v.Data[j*r+i])
		}
	}
	return out
}

// DenseT returns the transpose of Dense as a new matrix. MATLAB benchmark
// files store one sample or class per column, so this is the usual accessor.
func (v *Variable) DenseT() *mat.Dense {
	r, c := v.Rows(), v.Cols()
	if r == 0 || c == 0 {
		return &mat.Dense{}
	}
	// column-major data of an r x c matrix is the row-major data of its c x r transpose
	data := make([]float64, len(v.Data))
	copy(data, v.Data)
	return mat.NewDense(c, r, data)
}

// Ints returns the values of a vector as ints. Any non-integral or
// non-finite value is an error.
func (v *Variable) Ints() ([]int, error) {
	if !v.IsVector() {
		return nil, errors.NewValueError("matfile.Ints",
			"variable "+v.Name+" is not a vector")
	}
	out := make([]int, len(v.Data))
	for i, f := range v.Data {
		if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
			return nil, errors.NewValueError("matfile.Ints",
				"variable "+v.Name+" holds non-integral values")
		}
		out[i] = int(f)
	}
	return out, nil
}

// File is a decoded MAT file.
type File struct {
	Header Header
	vars   map[string]*Variable
}

func newFile(h Header) *File {
	return &File{Header: h, vars: make(map[string]*Variable)}
}

func (f *File) add(v *Variable) {
	f.vars[v.Name] = v
}

// Variable returns the named variable or an error wrapping ErrVariableNotFound.
func (f *File) Variable(name string) (*Variable, error) {
	v, ok := f.vars[name]
	if !ok {
		return nil, errors.Wrapf(ErrVariableNotFound, "%q", name)
	}
	return v, nil
}

// Has reports whether name was decoded.
func (f *File) Has(name string) bool {
	_, ok := f.vars[name]
	return ok
}

// Names lists the decoded variable names in sorted order.
func (f *File) Names() []string {
	names := make([]string, 0, len(f.vars))
	for n := range f.vars {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Open reads and decodes the MAT file at path. A missing file yields an
// IOError whose cause matches fs.ErrNotExist.
func Open(path string) (*File, error) {
	logger := log.GetLoggerWithName("matfile").With(log.PathKey, path)

	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errors.NewIOError("open", path, fs.ErrNotExist)
		}
		return nil, errors.NewIOError("read", path, err)
	}

	h, err := parseHeader(raw)
	if err != nil {
		return nil, errors.NewIOError("decode", path, err)
	}

	var f *File
	switch h.Version {
	case version73:
		f, err = openHDF5(path, h)
	default:
		f, err = decode(raw, h)
	}
	if err != nil {
		return nil, errors.NewIOError("decode", path, err)
	}

	for _, name := range f.Names() {
		v := f.vars[name]
		logger.Debug("variable decoded", log.VariableKey, name, "dims", v.Dims)
	}
	return f, nil
}

// Decode parses a level 5 MAT file held in memory.
func Decode(raw []byte) (*File, error) {
	h, err := parseHeader(raw)
	if err != nil {
		return nil, err
	}
	if h.Version == version73 {
		return nil, errors.Wrap(errors.ErrUnsupportedFormat, "MAT v7.3 data must be opened from a file path")
	}
	return decode(raw, h)
}

func parseHeader(raw []byte) (Header, error) {
	if len(raw) < headerSize {
		return Header{}, errors.Wrapf(errors.ErrUnsupportedFormat, "file shorter than the %d byte MAT header", headerSize)
	}
	var order binary.ByteOrder
	switch string(raw[126:128]) {
	case "IM":
		order = binary.LittleEndian
	case "MI":
		order = binary.BigEndian
	default:
		return Header{}, errors.Wrapf(errors.ErrUnsupportedFormat, "bad endian indicator %q", raw[126:128])
	}
	h := Header{
		Text:      trimHeaderText(raw[:headerTextSize]),
		Version:   order.Uint16(raw[124:126]),
		ByteOrder: order,
	}
	if h.Version != version5 && h.Version != version73 {
		return Header{}, errors.Wrapf(errors.ErrUnsupportedFormat, "version %#04x", h.Version)
	}
	return h, nil
}

func trimHeaderText(b []byte) string {
	end := len(b)
	for end > 0 && (b[end-1] == ' ' || b[end-1] == 0) {
		end--
	}
	return string(b[:end])
}
