package matfile

import (
	"bytes"
	"encoding/binary"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/zeroshoteval/pkg/errors"
)

func TestWriterDecodeRoundTrip(t *testing.T) {
	features := mat.NewDense(3, 4, []float64{
		0.1, 0.2, 0.3, 0.4,
		1.1, 1.2, 1.3, 1.4,
		2.1, 2.2, 2.3, 2.4,
	})
	labels := []float64{1, 2, 2, 3}

	for _, compress := range []bool{false, true} {
		var buf bytes.Buffer
		w := NewWriter(&buf, WithCompression(compress))
		require.NoError(t, w.WriteMatrix("features", features))
		require.NoError(t, w.WriteColumnVector("labels", labels))

		f, err := Decode(buf.Bytes())
		require.NoError(t, err, "compress=%v", compress)

		assert.Equal(t, []string{"features", "labels"}, f.Names())
		assert.Equal(t, uint16(version5), f.Header.Version)
		assert.Contains(t, f.Header.Text, "MATLAB 5.0 MAT-file")

		v, err := f.Variable("features")
		require.NoError(t, err)
		assert.Equal(t, []int{3, 4}, v.Dims)
		assert.True(t, mat.Equal(features, v.Dense()))

		transposed := v.DenseT()
		r, c := transposed.Dims()
		assert.Equal(t, 4, r)
		assert.Equal(t, 3, c)
		assert.Equal(t, 1.3, transposed.At(2, 1))

		l, err := f.Variable("labels")
		require.NoError(t, err)
		assert.True(t, l.IsVector())
		ints, err := l.Ints()
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2, 2, 3}, ints)
	}
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "att_splits.mat")
	att := mat.NewDense(2, 3, []float64{1, 2, 3, 4, 5, 6})
	require.NoError(t, WriteFile(path, true, NamedMatrix{Name: "att", Matrix: att}))

	f, err := Open(path)
	require.NoError(t, err)
	v, err := f.Variable("att")
	require.NoError(t, err)
	assert.True(t, mat.Equal(att, v.Dense()))

	_, err = f.Variable("trainval_loc")
	assert.True(t, errors.Is(err, ErrVariableNotFound))
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "res101.mat"))
	require.Error(t, err)

	var ioErr *errors.IOError
	require.True(t, errors.As(err, &ioErr))
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

// element builders for hand-made files

func header(order binary.ByteOrder, version uint16) []byte {
	h := bytes.Repeat([]byte{' '}, headerSize)
	copy(h, "MATLAB 5.0 MAT-file, test")
	order.PutUint16(h[124:], version)
	if order == binary.LittleEndian {
		copy(h[126:], "IM")
	} else {
		copy(h[126:], "MI")
	}
	return h
}

func elem(order binary.ByteOrder, typ uint32, payload []byte) []byte {
	out := make([]byte, 8, 8+len(payload)+8)
	order.PutUint32(out, typ)
	order.PutUint32(out[4:], uint32(len(payload)))
	out = append(out, payload...)
	if rem := len(payload) % 8; rem != 0 {
		out = append(out, make([]byte, 8-rem)...)
	}
	return out
}

func small(order binary.ByteOrder, typ uint32, payload []byte) []byte {
	out := make([]byte, 8)
	order.PutUint32(out, uint32(len(payload))<<16|typ)
	copy(out[4:], payload)
	return out
}

func matrix(order binary.ByteOrder, class Class, name string, dims []int32, values []byte, valueType uint32) []byte {
	flags := make([]byte, 8)
	order.PutUint32(flags, uint32(class))
	dimBytes := make([]byte, 4*len(dims))
	for i, d := range dims {
		order.PutUint32(dimBytes[4*i:], uint32(d))
	}
	var body []byte
	body = append(body, elem(order, miUINT32, flags)...)
	body = append(body, elem(order, miINT32, dimBytes)...)
	if len(name) <= 4 {
		body = append(body, small(order, miINT8, []byte(name))...)
	} else {
		body = append(body, elem(order, miINT8, []byte(name))...)
	}
	body = append(body, elem(order, valueType, values)...)
	return elem(order, miMATRIX, body)
}

func TestDecodeBigEndianIntegerStorage(t *testing.T) {
	order := binary.BigEndian
	// uint16 storage of a double-class array, as MATLAB does for small integers
	vals := make([]byte, 6)
	order.PutUint16(vals[0:], 7)
	order.PutUint16(vals[2:], 8)
	order.PutUint16(vals[4:], 9)

	raw := header(order, version5)
	raw = append(raw, matrix(order, ClassDouble, "loc", []int32{3, 1}, vals, miUINT16)...)

	f, err := Decode(raw)
	require.NoError(t, err)
	v, err := f.Variable("loc")
	require.NoError(t, err)
	assert.Equal(t, []float64{7, 8, 9}, v.Data)
}

func TestDecodeSingleAndInt8(t *testing.T) {
	order := binary.LittleEndian
	single := make([]byte, 8)
	order.PutUint32(single, math.Float32bits(0.5))
	order.PutUint32(single[4:], math.Float32bits(-2))

	raw := header(order, version5)
	raw = append(raw, matrix(order, ClassSingle, "att", []int32{1, 2}, single, miSINGLE)...)
	raw = append(raw, matrix(order, ClassInt8, "neg", []int32{1, 2}, []byte{0xff, 0x02}, miINT8)...)

	f, err := Decode(raw)
	require.NoError(t, err)

	att, err := f.Variable("att")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, -2}, att.Data)

	neg, err := f.Variable("neg")
	require.NoError(t, err)
	assert.Equal(t, []float64{-1, 2}, neg.Data)
}

func TestDecodeSkipsCharArrays(t *testing.T) {
	order := binary.LittleEndian
	chars := make([]byte, 4)
	order.PutUint16(chars, 'h')
	order.PutUint16(chars[2:], 'i')

	raw := header(order, version5)
	raw = append(raw, matrix(order, ClassChar, "note", []int32{1, 2}, chars, miUINT16)...)

	f, err := Decode(raw)
	require.NoError(t, err)
	assert.False(t, f.Has("note"))
	assert.Empty(t, f.Names())
}

func TestDecodeMalformed(t *testing.T) {
	order := binary.LittleEndian

	tests := []struct {
		name string
		raw  []byte
	}{
		{name: "short header", raw: []byte("MATLAB")},
		{name: "bad endian", raw: append(bytes.Repeat([]byte{' '}, 126), 'X', 'X')},
		{name: "unknown version", raw: header(order, 0x0300)},
		{name: "truncated tag", raw: append(header(order, version5), 0x0e, 0, 0)},
		{name: "overrun", raw: append(header(order, version5), elem(order, miMATRIX, make([]byte, 16))[:12]...)},
		{name: "value count mismatch", raw: append(header(order, version5),
			matrix(order, ClassDouble, "x", []int32{2, 2}, make([]byte, 8), miDOUBLE)...)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				_, err := Decode(tt.raw)
				assert.Error(t, err)
			})
		})
	}
}

func TestIntsRejectsFractions(t *testing.T) {
	v := &Variable{Name: "labels", Dims: []int{2, 1}, Data: []float64{1, 2.5}}
	_, err := v.Ints()
	assert.Error(t, err)

	m := &Variable{Name: "features", Dims: []int{2, 2}, Data: []float64{1, 2, 3, 4}}
	_, err = m.Ints()
	assert.Error(t, err)
}

func TestWriterRejectsBadShapes(t *testing.T) {
	w := NewWriter(&bytes.Buffer{})
	assert.Error(t, w.WriteColumnMajor("x", []int{2, 2}, []float64{1}))
	assert.Error(t, w.WriteColumnMajor("", []int{1, 1}, []float64{1}))
}

func TestWriteFileUnwritableDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "missing")
	err := WriteFile(filepath.Join(dir, "x.mat"), false)
	var ioErr *errors.IOError
	assert.True(t, errors.As(err, &ioErr))
	_, statErr := os.Stat(dir)
	assert.True(t, os.IsNotExist(statErr))
}
