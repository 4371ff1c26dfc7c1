package tensor

import "math/rand"

// Zeros creates a zero-filled tensor.
//
// Example:
//
//	t := tensor.Zeros[float32](Shape{3, 4}, backend)
func Zeros[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return New[T, B](MustRaw(shape, DataTypeOf[T](), b.Device()), b)
}

// Full creates a tensor with every element set to value.
func Full[T DType, B Backend](shape Shape, value T, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()
	for i := range data {
		data[i] = value
	}
	return t
}

// Ones creates a tensor filled with ones. For bool tensors "one" is true.
func Ones[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	var one T
	switch p := any(&one).(type) {
	case *float32:
		*p = 1
	case *float64:
		*p = 1
	case *int32:
		*p = 1
	case *int64:
		*p = 1
	case *uint8:
		*p = 1
	case *bool:
		*p = true
	}
	return Full(shape, one, b)
}

// RandnFrom fills a float32 tensor with N(mean, std) values from rng.
func RandnFrom[B Backend](shape Shape, mean, std float64, rng *rand.Rand, b B) *Tensor[float32, B] {
	t := Zeros[float32, B](shape, b)
	data := t.Data()
	for i := range data {
		data[i] = float32(mean + std*rng.NormFloat64())
	}
	return t
}

// UniformFrom fills a float32 tensor with U(lo, hi) values from rng.
func UniformFrom[B Backend](shape Shape, lo, hi float64, rng *rand.Rand, b B) *Tensor[float32, B] {
	t := Zeros[float32, B](shape, b)
	data := t.Data()
	for i := range data {
		data[i] = float32(lo + (hi-lo)*rng.Float64())
	}
	return t
}
