package loader

import "errors"

// Errors returned by the embedding readers. They are wrapped with file and
// tensor context; test with errors.Is.
var (
	ErrUnsupportedFormat = errors.New("unsupported embedding file format")
	ErrUnsupportedDType  = errors.New("unsupported embedding dtype")
	ErrNotMatrix         = errors.New("embedding table must be 2D")
	ErrTensorNotFound    = errors.New("embedding tensor not found")
	ErrInvalidOffsets    = errors.New("tensor data offsets out of range")
)
