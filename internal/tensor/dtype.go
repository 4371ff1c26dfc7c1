// Package tensor provides the core tensor types used by the hseq model stack.
package tensor

import "unsafe"

// DType is a constraint for supported tensor element types.
type DType interface {
	~float32 | ~float64 | ~int32 | ~int64 | ~uint8 | ~bool
}

// DataType is the runtime tag for a tensor's element type.
type DataType int

// Supported data types.
const (
	Float32 DataType = iota
	Float64
	Int32
	Int64
	Uint8
	Bool
)

// Size returns the byte size of one element.
func (dt DataType) Size() int {
	switch dt {
	case Float32, Int32:
		return 4
	case Float64, Int64:
		return 8
	case Uint8, Bool:
		return 1
	default:
		panic("unknown data type")
	}
}

// IsFloat reports whether the type is a floating point type.
func (dt DataType) IsFloat() bool {
	return dt == Float32 || dt == Float64
}

// String returns a human-readable name for the data type.
func (dt DataType) String() string {
	switch dt {
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case Uint8:
		return "uint8"
	case Bool:
		return "bool"
	default:
		return "unknown"
	}
}

// DataTypeOf returns the DataType tag for the type parameter T.
func DataTypeOf[T DType]() DataType {
	var zero T
	switch any(zero).(type) {
	case float32:
		return Float32
	case float64:
		return Float64
	case int32:
		return Int32
	case int64:
		return Int64
	case uint8:
		return Uint8
	case bool:
		return Bool
	default:
		panic("unsupported type")
	}
}

// AsSlice reinterprets the raw buffer as a typed slice without copying.
// Panics if T does not match the tensor's dtype.
func AsSlice[T DType](r *RawTensor) []T {
	if want := DataTypeOf[T](); r.dtype != want {
		panic("tensor dtype is " + r.dtype.String() + ", not " + want.String())
	}
	data := r.Data()
	if len(data) == 0 {
		return nil
	}
	//nolint:gosec // zero-copy view, length bounded by NumElements
	return unsafe.Slice((*T)(unsafe.Pointer(&data[0])), r.NumElements())
}
