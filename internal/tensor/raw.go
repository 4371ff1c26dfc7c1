package tensor

import (
	"fmt"
	"sync/atomic"
)

// Device represents the compute device holding tensor data.
type Device int

// Supported compute devices.
const (
	CPU Device = iota
)

// String returns a human-readable device name.
func (d Device) String() string {
	if d == CPU {
		return "CPU"
	}
	return "Unknown"
}

// storage is a byte buffer shared by every view created over it.
// Writes through one view are visible through all others.
type storage struct {
	data  []byte
	views atomic.Int32
}

func newStorage(size int) *storage {
	s := &storage{data: make([]byte, size)}
	s.views.Store(1)
	return s
}

// RawTensor is the untyped tensor representation handed to backends.
type RawTensor struct {
	buf    *storage
	shape  Shape
	stride []int
	dtype  DataType
	device Device
}

// NewRaw allocates a zero-filled RawTensor.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	return &RawTensor{
		buf:    newStorage(shape.NumElements() * dtype.Size()),
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
		dtype:  dtype,
		device: device,
	}, nil
}

// MustRaw is NewRaw for backends, where a bad shape is a programming error.
func MustRaw(shape Shape, dtype DataType, device Device) *RawTensor {
	r, err := NewRaw(shape, dtype, device)
	if err != nil {
		panic(err)
	}
	return r
}

// Shape returns the tensor's shape.
func (r *RawTensor) Shape() Shape {
	return r.shape
}

// Strides returns the row-major strides.
func (r *RawTensor) Strides() []int {
	return r.stride
}

// DType returns the element type.
func (r *RawTensor) DType() DataType {
	return r.dtype
}

// Device returns the compute device.
func (r *RawTensor) Device() Device {
	return r.device
}

// NumElements returns the element count.
func (r *RawTensor) NumElements() int {
	return r.shape.NumElements()
}

// ByteSize returns the data size in bytes.
func (r *RawTensor) ByteSize() int {
	return r.NumElements() * r.dtype.Size()
}

// Data returns the underlying bytes. Writes are visible to every view.
func (r *RawTensor) Data() []byte {
	return r.buf.data[:r.ByteSize()]
}

// AsFloat32 is AsSlice[float32].
func (r *RawTensor) AsFloat32() []float32 { return AsSlice[float32](r) }

// AsFloat64 is AsSlice[float64].
func (r *RawTensor) AsFloat64() []float64 { return AsSlice[float64](r) }

// AsInt32 is AsSlice[int32].
func (r *RawTensor) AsInt32() []int32 { return AsSlice[int32](r) }

// AsInt64 is AsSlice[int64].
func (r *RawTensor) AsInt64() []int64 { return AsSlice[int64](r) }

// AsBool is AsSlice[bool].
func (r *RawTensor) AsBool() []bool { return AsSlice[bool](r) }

// View returns a tensor with a new shape over the same storage.
// The element count must not change.
func (r *RawTensor) View(shape Shape) *RawTensor {
	if shape.NumElements() != r.NumElements() {
		panic(fmt.Sprintf("view: cannot view %v as %v", r.shape, shape))
	}
	r.buf.views.Add(1)
	return &RawTensor{
		buf:    r.buf,
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
		dtype:  r.dtype,
		device: r.device,
	}
}

// Clone returns a deep copy with its own storage.
func (r *RawTensor) Clone() *RawTensor {
	out := MustRaw(r.shape, r.dtype, r.device)
	copy(out.buf.data, r.Data())
	return out
}

// SharesStorage reports whether two tensors are views over one buffer.
func (r *RawTensor) SharesStorage(other *RawTensor) bool {
	return other != nil && r.buf == other.buf
}

// Views returns how many views reference the storage.
func (r *RawTensor) Views() int {
	return int(r.buf.views.Load())
}
