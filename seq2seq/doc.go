// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package seq2seq provides a hierarchical encoder-decoder for multi-turn
// dialogue.
//
// # Architecture
//
// Each turn passes through four stages:
//   - Encoder: token and sinusoid position embeddings, then a stack of
//     self-attention and feed-forward layers
//   - Session: an LSTM state that absorbs the max-pooled encoder output of
//     every turn and attends back over the current turn
//   - Decoder: causal self-attention and cross-attention over the session
//     output
//   - Projection: linear map to vocabulary logits, optionally sharing the
//     target embedding table
//
// The session state persists across Forward calls. Call ResetSession at
// the start of every dialogue.
//
// # Basic Usage
//
//	backend := cpu.New()
//	model, err := seq2seq.New(seq2seq.DefaultConfig(vocab, vocab, 64), backend)
//	if err != nil {
//	    return err
//	}
//
//	batch, err := seq2seq.NewBatch(src, tgt, backend)
//	if err != nil {
//	    return err
//	}
//	model.ResetSession(batch.Size())
//	logits := model.Forward(batch.Src, batch.SrcPos, batch.Tgt, batch.TgtPos)
//
// Logits are unnormalized and flattened to [batch*(tgt_len-1), vocab].
package seq2seq
