package dataset

import (
	"fmt"

	"github.com/YuminosukeSato/zeroshoteval/pkg/errors"
	"github.com/gomlx/gomlx/pkg/core/tensors"
	"gonum.org/v1/gonum/mat"
	"gorgonia.org/tensor"
)

// Device names accepted by Config.Device.
const (
	DeviceCPU   = "cpu"
	DeviceGoMLX = "gomlx"
)

// Device converts resident matrices into a tensor type of some compute
// backend. Place returns nil for a nil matrix. Gather copies rows out of a
// tensor returned by Place into a new tensor on the same device.
type Device interface {
	Name() string
	Place(m *mat.Dense) (any, error)
	Gather(placed any, rows []int) (any, error)
}

// Devices lists the accepted device names.
func Devices() []string {
	return []string{DeviceCPU, DeviceGoMLX}
}

// NewDevice resolves a device name. Empty selects DeviceCPU.
func NewDevice(name string) (Device, error) {
	switch name {
	case "", DeviceCPU:
		return cpuDevice{}, nil
	case DeviceGoMLX:
		return gomlxDevice{}, nil
	default:
		return nil, errors.NewConfigurationError("device", name, Devices())
	}
}

// cpuDevice places matrices as float32 gorgonia tensors.
type cpuDevice struct{}

func (cpuDevice) Name() string { return DeviceCPU }

func (cpuDevice) Place(m *mat.Dense) (any, error) {
	if m == nil {
		return nil, nil
	}
	r, c := m.Dims()
	return tensor.New(
		tensor.WithShape(r, c),
		tensor.WithBacking(float32Backing(m))), nil
}

func (cpuDevice) Gather(placed any, rows []int) (any, error) {
	if placed == nil {
		return nil, nil
	}
	t, ok := placed.(*tensor.Dense)
	if !ok {
		return nil, errors.NewValueError("cpuDevice.Gather", fmt.Sprintf("unexpected tensor type %T", placed))
	}
	shape := t.Shape()
	if len(shape) != 2 {
		return nil, errors.NewShapeMismatchError("cpuDevice.Gather", "tensor rank", 2, len(shape))
	}
	data, ok := t.Data().([]float32)
	if !ok {
		return nil, errors.NewValueError("cpuDevice.Gather", "tensor is not float32")
	}
	out, err := gatherFlat(data, shape[0], shape[1], rows)
	if err != nil {
		return nil, err
	}
	return tensor.New(
		tensor.WithShape(len(rows), shape[1]),
		tensor.WithBacking(out)), nil
}

// gomlxDevice places matrices as float32 gomlx tensors.
type gomlxDevice struct{}

func (gomlxDevice) Name() string { return DeviceGoMLX }

func (gomlxDevice) Place(m *mat.Dense) (any, error) {
	if m == nil {
		return nil, nil
	}
	r, c := m.Dims()
	return tensors.FromFlatDataAndDimensions(float32Backing(m), r, c), nil
}

func (gomlxDevice) Gather(placed any, rows []int) (any, error) {
	if placed == nil {
		return nil, nil
	}
	t, ok := placed.(*tensors.Tensor)
	if !ok {
		return nil, errors.NewValueError("gomlxDevice.Gather", fmt.Sprintf("unexpected tensor type %T", placed))
	}
	dims := t.Shape().Dimensions
	if len(dims) != 2 {
		return nil, errors.NewShapeMismatchError("gomlxDevice.Gather", "tensor rank", 2, len(dims))
	}
	var out []float32
	var err error
	t.ConstFlatData(func(flat any) {
		data, ok := flat.([]float32)
		if !ok {
			err = errors.NewValueError("gomlxDevice.Gather", "tensor is not float32")
			return
		}
		out, err = gatherFlat(data, dims[0], dims[1], rows)
	})
	if err != nil {
		return nil, err
	}
	return tensors.FromFlatDataAndDimensions(out, len(rows), dims[1]), nil
}

// gatherFlat copies the given rows of a row-major r x c buffer.
func gatherFlat(data []float32, r, c int, rows []int) ([]float32, error) {
	out := make([]float32, 0, len(rows)*c)
	for _, i := range rows {
		if i < 0 || i >= r {
			return nil, errors.NewShapeMismatchError("gather", "row index", r, i)
		}
		out = append(out, data[i*c:(i+1)*c]...)
	}
	return out, nil
}

// float32Backing flattens m row by row.
func float32Backing(m *mat.Dense) []float32 {
	r, c := m.Dims()
	out := make([]float32, 0, r*c)
	for i := 0; i < r; i++ {
		for _, v := range m.RawRowView(i) {
			out = append(out, float32(v))
		}
	}
	return out
}

// Placement holds the device tensors of a split or a batch. Labels stay
// host-side. Indices are the train-seen rows of a batch and nil for a split.
type Placement struct {
	Device    string
	Indices   []int
	Labels    []int
	Features  any
	Auxiliary any
}

func place(d Device, labels []int, features, aux *mat.Dense) (*Placement, error) {
	f, err := d.Place(features)
	if err != nil {
		return nil, errors.Wrapf(err, "place features on %s", d.Name())
	}
	a, err := d.Place(aux)
	if err != nil {
		return nil, errors.Wrapf(err, "place auxiliary data on %s", d.Name())
	}
	return &Placement{Device: d.Name(), Labels: labels, Features: f, Auxiliary: a}, nil
}
