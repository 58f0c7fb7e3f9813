package matfile

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/klauspost/compress/zlib"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/zeroshoteval/pkg/errors"
)

// Writer writes double-precision variables to a level 5 MAT file in
// little-endian byte order.
type Writer struct {
	w             io.Writer
	compress      bool
	headerWritten bool
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithCompression makes the writer emit zlib-compressed elements, as
// scipy.io.savemat(do_compression=True) does.
func WithCompression(compress bool) WriterOption {
	return func(w *Writer) {
		w.compress = compress
	}
}

// NewWriter creates a Writer on w. The header is written with the first variable.
func NewWriter(w io.Writer, opts ...WriterOption) *Writer {
	mw := &Writer{w: w}
	for _, opt := range opts {
		opt(mw)
	}
	return mw
}

// WriteHeader writes the 128 byte header. It is called implicitly.
func (w *Writer) WriteHeader() error {
	if w.headerWritten {
		return nil
	}
	hdr := make([]byte, headerSize)
	text := fmt.Sprintf("MATLAB 5.0 MAT-file, Platform: GLNXA64, Created on: %s",
		time.Now().UTC().Format("Mon Jan 2 15:04:05 2006"))
	for i := range hdr[:headerTextSize] {
		hdr[i] = ' '
	}
	copy(hdr, text)
	binary.LittleEndian.PutUint16(hdr[124:], version5)
	copy(hdr[126:], "IM")
	if _, err := w.w.Write(hdr); err != nil {
		return errors.Wrap(err, "write MAT header")
	}
	w.headerWritten = true
	return nil
}

// WriteMatrix writes m as a double array named name.
func (w *Writer) WriteMatrix(name string, m mat.Matrix) error {
	r, c := m.Dims()
	data := make([]float64, 0, r*c)
	for j := 0; j < c; j++ {
		for i := 0; i < r; i++ {
			data = append(data, m.At(i, j))
		}
	}
	return w.WriteColumnMajor(name, []int{r, c}, data)
}

// WriteRowVector writes values as a 1 x n double array.
func (w *Writer) WriteRowVector(name string, values []float64) error {
	return w.WriteColumnMajor(name, []int{1, len(values)}, values)
}

// WriteColumnVector writes values as an n x 1 double array, the layout
// MATLAB uses for labels and split indices.
func (w *Writer) WriteColumnVector(name string, values []float64) error {
	return w.WriteColumnMajor(name, []int{len(values), 1}, values)
}

// WriteColumnMajor writes a double array with explicit dimensions.
func (w *Writer) WriteColumnMajor(name string, dims []int, data []float64) error {
	if name == "" {
		return errors.NewValueError("matfile.Write", "variable name is empty")
	}
	total := 1
	for _, d := range dims {
		total *= d
	}
	if len(dims) < 2 || total != len(data) {
		return errors.NewShapeMismatchError("matfile.Write", name, total, len(data))
	}
	if err := w.WriteHeader(); err != nil {
		return err
	}

	elem := matrixElement(name, dims, data)
	if w.compress {
		var buf bytes.Buffer
		zw := zlib.NewWriter(&buf)
		if _, err := zw.Write(elem); err != nil {
			return errors.Wrap(err, "compress element")
		}
		if err := zw.Close(); err != nil {
			return errors.Wrap(err, "compress element")
		}
		elem = append(tag(miCOMPRESSED, buf.Len()), buf.Bytes()...)
	}
	if _, err := w.w.Write(elem); err != nil {
		return errors.Wrapf(err, "write variable %q", name)
	}
	return nil
}

func matrixElement(name string, dims []int, data []float64) []byte {
	var body bytes.Buffer

	flags := make([]byte, 8)
	binary.LittleEndian.PutUint32(flags, uint32(ClassDouble))
	body.Write(padded(miUINT32, flags))

	dimBytes := make([]byte, 4*len(dims))
	for i, d := range dims {
		binary.LittleEndian.PutUint32(dimBytes[4*i:], uint32(int32(d)))
	}
	body.Write(padded(miINT32, dimBytes))

	body.Write(padded(miINT8, []byte(name)))

	values := make([]byte, 8*len(data))
	for i, v := range data {
		binary.LittleEndian.PutUint64(values[8*i:], math.Float64bits(v))
	}
	body.Write(padded(miDOUBLE, values))

	return append(tag(miMATRIX, body.Len()), body.Bytes()...)
}

func tag(typ uint32, size int) []byte {
	t := make([]byte, 8)
	binary.LittleEndian.PutUint32(t, typ)
	binary.LittleEndian.PutUint32(t[4:], uint32(size))
	return t
}

func padded(typ uint32, payload []byte) []byte {
	out := append(tag(typ, len(payload)), payload...)
	if rem := len(payload) % 8; rem != 0 {
		out = append(out, make([]byte, 8-rem)...)
	}
	return out
}

// NamedMatrix pairs a variable name with its values for WriteFile.
type NamedMatrix struct {
	Name   string
	Matrix mat.Matrix
}

// WriteFile creates path and writes every variable to it.
func WriteFile(path string, compress bool, vars ...NamedMatrix) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.NewIOError("create", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.NewIOError("close", path, cerr)
		}
	}()

	w := NewWriter(f, WithCompression(compress))
	if err := w.WriteHeader(); err != nil {
		return err
	}
	for _, v := range vars {
		if err := w.WriteMatrix(v.Name, v.Matrix); err != nil {
			return err
		}
	}
	return nil
}
