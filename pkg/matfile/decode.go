package matfile

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"

	"github.com/klauspost/compress/zlib"

	"github.com/YuminosukeSato/zeroshoteval/pkg/errors"
)

// MAT level 5 data types.
const (
	miINT8       = 1
	miUINT8      = 2
	miINT16      = 3
	miUINT16     = 4
	miINT32      = 5
	miUINT32     = 6
	miSINGLE     = 7
	miDOUBLE     = 9
	miINT64      = 12
	miUINT64     = 13
	miMATRIX     = 14
	miCOMPRESSED = 15
	miUTF8       = 16
)

const flagComplex = 0x08

// element is one tagged data element.
type element struct {
	typ  uint32
	data []byte
}

// reader walks data elements in a byte slice.
type reader struct {
	buf   []byte
	off   int
	order binary.ByteOrder
}

func (r *reader) done() bool {
	return r.off >= len(r.buf)
}

// next reads one element. Small elements pack type and size into the first
// four bytes and their data into the next four.
func (r *reader) next() (element, error) {
	if len(r.buf)-r.off < 8 {
		return element{}, errors.Newf("truncated element tag at offset %d", r.off)
	}
	first := r.order.Uint32(r.buf[r.off:])
	if size := first >> 16; size != 0 {
		if size > 4 {
			return element{}, errors.Newf("small element of %d bytes at offset %d", size, r.off)
		}
		e := element{typ: first & 0xffff, data: r.buf[r.off+4 : r.off+4+int(size)]}
		r.off += 8
		return e, nil
	}

	size := int(r.order.Uint32(r.buf[r.off+4:]))
	start := r.off + 8
	if size < 0 || start+size > len(r.buf) {
		return element{}, errors.Newf("element of %d bytes at offset %d overruns the file", size, r.off)
	}
	e := element{typ: first, data: r.buf[start : start+size]}

	r.off = start + size
	if first != miCOMPRESSED {
		// pad to an 8 byte boundary
		if rem := size % 8; rem != 0 {
			r.off += 8 - rem
		}
	}
	return e, nil
}

func decode(raw []byte, h Header) (f *File, err error) {
	defer errors.Recover(&err, "matfile.decode")

	f = newFile(h)
	r := &reader{buf: raw, off: headerSize, order: h.ByteOrder}
	for !r.done() {
		el, err := r.next()
		if err != nil {
			return nil, err
		}
		if el.typ == miCOMPRESSED {
			if el, err = inflate(el.data, h.ByteOrder); err != nil {
				return nil, err
			}
		}
		if el.typ != miMATRIX {
			continue
		}
		v, err := decodeMatrix(el.data, h.ByteOrder)
		if err != nil {
			return nil, err
		}
		if v != nil {
			f.add(v)
		}
	}
	return f, nil
}

func inflate(payload []byte, order binary.ByteOrder) (element, error) {
	zr, err := zlib.NewReader(bytes.NewReader(payload))
	if err != nil {
		return element{}, errors.Wrap(err, "inflate compressed element")
	}
	defer zr.Close()

	plain, err := io.ReadAll(zr)
	if err != nil {
		return element{}, errors.Wrap(err, "inflate compressed element")
	}
	inner := &reader{buf: plain, order: order}
	return inner.next()
}

// decodeMatrix decodes a miMATRIX body. Non-numeric arrays return (nil, nil).
func decodeMatrix(body []byte, order binary.ByteOrder) (*Variable, error) {
	if len(body) == 0 {
		return nil, nil
	}
	r := &reader{buf: body, order: order}

	flags, err := r.next()
	if err != nil {
		return nil, err
	}
	if flags.typ != miUINT32 || len(flags.data) < 8 {
		return nil, errors.New("array flags subelement missing")
	}
	word := order.Uint32(flags.data)
	class := Class(word & 0xff)
	complexFlag := (word>>8)&flagComplex != 0

	dimsEl, err := r.next()
	if err != nil {
		return nil, err
	}
	dimVals, err := numericValues(dimsEl, order)
	if err != nil {
		return nil, errors.Wrap(err, "dimensions subelement")
	}
	dims := make([]int, len(dimVals))
	total := 1
	for i, d := range dimVals {
		if d < 0 {
			return nil, errors.Newf("negative dimension %v", d)
		}
		dims[i] = int(d)
		total *= dims[i]
	}
	if len(dims) < 2 {
		return nil, errors.Newf("array with %d dimensions", len(dims))
	}

	nameEl, err := r.next()
	if err != nil {
		return nil, err
	}
	name := string(nameEl.data)

	if !class.numeric() || complexFlag {
		return nil, nil
	}

	var data []float64
	if total > 0 {
		realEl, err := r.next()
		if err != nil {
			return nil, err
		}
		if data, err = numericValues(realEl, order); err != nil {
			return nil, errors.Wrapf(err, "variable %q", name)
		}
	}
	if len(data) != total {
		return nil, errors.Newf("variable %q holds %d values for dimensions %v", name, len(data), dims)
	}

	return &Variable{Name: name, Class: class, Dims: dims, Data: data}, nil
}

// numericValues converts the payload of a numeric element to float64.
func numericValues(el element, order binary.ByteOrder) ([]float64, error) {
	b := el.data
	var width int
	switch el.typ {
	case miINT8, miUINT8, miUTF8:
		width = 1
	case miINT16, miUINT16:
		width = 2
	case miINT32, miUINT32, miSINGLE:
		width = 4
	case miDOUBLE, miINT64, miUINT64:
		width = 8
	default:
		return nil, errors.Newf("non-numeric data type %d", el.typ)
	}
	if len(b)%width != 0 {
		return nil, errors.Newf("%d bytes is not a multiple of the %d byte element width", len(b), width)
	}

	out := make([]float64, len(b)/width)
	for i := range out {
		p := b[i*width:]
		switch el.typ {
		case miINT8:
			out[i] = float64(int8(p[0]))
		case miUINT8, miUTF8:
			out[i] = float64(p[0])
		case miINT16:
			out[i] = float64(int16(order.Uint16(p)))
		case miUINT16:
			out[i] = float64(order.Uint16(p))
		case miINT32:
			out[i] = float64(int32(order.Uint32(p)))
		case miUINT32:
			out[i] = float64(order.Uint32(p))
		case miSINGLE:
			out[i] = float64(math.Float32frombits(order.Uint32(p)))
		case miDOUBLE:
			out[i] = math.Float64frombits(order.Uint64(p))
		case miINT64:
			out[i] = float64(int64(order.Uint64(p)))
		case miUINT64:
			out[i] = float64(order.Uint64(p))
		}
	}
	return out, nil
}
