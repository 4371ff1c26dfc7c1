// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides type-safe tensors for the hseq model.
//
// # Overview
//
// Tensors are the data structure every layer consumes and produces:
//   - Generic type-safe tensors (Tensor[T, B])
//   - NumPy-style broadcasting
//   - Zero-copy views for Reshape and Unsqueeze
//   - Boolean masks for attention
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/hseq/backend/cpu"
//	    "github.com/born-ml/hseq/tensor"
//	)
//
//	func main() {
//	    backend := cpu.New()
//
//	    x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	    y := tensor.Ones[float32](tensor.Shape{3, 4}, backend)
//	    z := x.MatMul(y) // [2, 4]
//	}
//
// # Supported Data Types
//
// The DType constraint admits:
//   - float32, float64 (floating-point)
//   - int32, int64 (token ids and positions)
//   - uint8
//   - bool (masks, true means blocked)
//
// Backends never modify their inputs; every operation returns a new tensor
// or a view.
package tensor
