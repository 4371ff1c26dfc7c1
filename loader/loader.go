// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package loader reads pretrained embedding tables from NumPy (.npy) and
// SafeTensors (.safetensors) files.
//
// Example:
//
//	table, err := loader.LoadEmbedding("glove.npy", "")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(table.Rows, table.Dim)
package loader

import (
	"io"

	"github.com/born-ml/hseq/internal/loader"
)

// Table is a dense row-major float32 matrix with a content fingerprint.
type Table = loader.Table

// SafeTensorsReader gives access to the tensors of a SafeTensors file.
type SafeTensorsReader = loader.SafeTensorsReader

// DefaultTensorName is the tensor looked up in SafeTensors files when no
// name is given.
const DefaultTensorName = loader.DefaultTensorName

// Errors returned (wrapped) by the loaders.
var (
	ErrUnsupportedFormat = loader.ErrUnsupportedFormat
	ErrUnsupportedDType  = loader.ErrUnsupportedDType
	ErrNotMatrix         = loader.ErrNotMatrix
	ErrTensorNotFound    = loader.ErrTensorNotFound
	ErrInvalidOffsets    = loader.ErrInvalidOffsets
)

// LoadEmbedding reads a table from path, choosing the format by extension.
// tensorName selects the tensor inside SafeTensors files.
func LoadEmbedding(path, tensorName string) (*Table, error) {
	return loader.LoadEmbedding(path, tensorName)
}

// ReadNPY decodes a 2D float32 or float64 NPY stream.
func ReadNPY(r io.Reader) (*Table, error) {
	return loader.ReadNPY(r)
}

// NewSafeTensorsReader opens a SafeTensors file.
func NewSafeTensorsReader(path string) (*SafeTensorsReader, error) {
	return loader.NewSafeTensorsReader(path)
}
