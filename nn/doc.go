// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides the neural network layers the seq2seq model is
// assembled from.
//
// # Layers
//
//   - Linear: fully connected layer with optional bias
//   - Embedding: lookup table with an optional zeroed padding row
//   - LayerNorm: normalization over the last dimension
//   - Dropout: inverted dropout, inactive outside training mode
//   - MultiHeadAttention: post-norm attention with its own residual
//   - PositionwiseFeedForward: two-layer ReLU block with its own residual
//   - LSTMCell: a single LSTM step
//
// # Weight Sharing
//
// Layers hold *Parameter values. Tying two layers means pointing them at
// the same Parameter, so CollectParameters lists it once:
//
//	proj := nn.NewLinear(dModel, vocab, false, backend)
//	proj.TieWeight(emb.Weight)
//
// The package is forward-only; there is no gradient tracking.
package nn
