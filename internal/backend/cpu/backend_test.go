package cpu

import (
	"math"
	"testing"

	"github.com/born-ml/hseq/internal/parallel"
	"github.com/born-ml/hseq/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBackend() *CPUBackend {
	return New()
}

func f32(b *CPUBackend, shape tensor.Shape, data ...float32) *tensor.Tensor[float32, *CPUBackend] {
	return tensor.MustFromSlice(data, shape, b)
}

func TestCPUBackend_New(t *testing.T) {
	backend := New()
	require.NotNil(t, backend)
	assert.Equal(t, "CPU", backend.Name())
	assert.Equal(t, tensor.CPU, backend.Device())
}

func TestCPUBackend_Binary(t *testing.T) {
	b := newTestBackend()

	t.Run("SameShape", func(t *testing.T) {
		x := f32(b, tensor.Shape{2, 3}, 1, 2, 3, 4, 5, 6)
		y := f32(b, tensor.Shape{2, 3}, 10, 11, 12, 13, 14, 15)
		assert.Equal(t, []float32{11, 13, 15, 17, 19, 21}, x.Add(y).Data())
		assert.Equal(t, []float32{9, 9, 9, 9, 9, 9}, y.Sub(x).Data())
	})

	t.Run("Broadcast", func(t *testing.T) {
		x := f32(b, tensor.Shape{2, 1}, 1, 2)
		y := f32(b, tensor.Shape{1, 3}, 10, 20, 30)
		got := x.Mul(y)
		assert.Equal(t, tensor.Shape{2, 3}, got.Shape())
		assert.Equal(t, []float32{10, 20, 30, 20, 40, 60}, got.Data())
	})

	t.Run("DoesNotMutateInputs", func(t *testing.T) {
		x := f32(b, tensor.Shape{2}, 1, 2)
		_ = x.Div(f32(b, tensor.Shape{2}, 2, 2))
		assert.Equal(t, []float32{1, 2}, x.Data())
	})

	t.Run("Incompatible", func(t *testing.T) {
		x := f32(b, tensor.Shape{2}, 1, 2)
		y := f32(b, tensor.Shape{3}, 1, 2, 3)
		assert.Panics(t, func() { x.Add(y) })
	})
}

func TestCPUBackend_MatMul(t *testing.T) {
	for _, tc := range []struct {
		name string
		cfg  parallel.Config
	}{
		{"Sequential", parallel.Sequential()},
		{"Parallel", parallel.Config{Enabled: true, NumWorkers: 3, MinChunkSize: 1}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			b := NewWithConfig(tc.cfg)
			x := f32(b, tensor.Shape{2, 3}, 1, 2, 3, 4, 5, 6)
			y := f32(b, tensor.Shape{3, 2}, 7, 8, 9, 10, 11, 12)
			assert.Equal(t, []float32{58, 64, 139, 154}, x.MatMul(y).Data())
		})
	}
}

func TestCPUBackend_BatchMatMul(t *testing.T) {
	b := newTestBackend()
	// Two batches of [1,2] @ [2,1].
	x := f32(b, tensor.Shape{2, 1, 2}, 1, 2, 3, 4)
	y := f32(b, tensor.Shape{2, 2, 1}, 5, 6, 7, 8)
	got := x.BatchMatMul(y)
	assert.Equal(t, tensor.Shape{2, 1, 1}, got.Shape())
	assert.Equal(t, []float32{17, 53}, got.Data())

	assert.Panics(t, func() { x.BatchMatMul(f32(b, tensor.Shape{1, 2, 1}, 1, 2)) })
}

func TestCPUBackend_Reshape(t *testing.T) {
	b := newTestBackend()
	x := f32(b, tensor.Shape{2, 3}, 1, 2, 3, 4, 5, 6)

	v := x.Reshape(-1, 2)
	assert.Equal(t, tensor.Shape{3, 2}, v.Shape())
	assert.True(t, v.Raw().SharesStorage(x.Raw()))

	assert.Panics(t, func() { x.Reshape(4, -1) })
	assert.Panics(t, func() { x.Reshape(-1, -1) })
}

func TestCPUBackend_Transpose(t *testing.T) {
	b := newTestBackend()
	x := f32(b, tensor.Shape{2, 3}, 1, 2, 3, 4, 5, 6)

	got := x.Transpose()
	assert.Equal(t, tensor.Shape{3, 2}, got.Shape())
	assert.Equal(t, []float32{1, 4, 2, 5, 3, 6}, got.Data())

	y := f32(b, tensor.Shape{1, 2, 3}, 1, 2, 3, 4, 5, 6)
	perm := y.Transpose(2, 0, 1)
	assert.Equal(t, tensor.Shape{3, 1, 2}, perm.Shape())
	assert.Equal(t, []float32{1, 4, 2, 5, 3, 6}, perm.Data())
	assert.False(t, perm.Raw().SharesStorage(y.Raw()))
}

func TestCPUBackend_UnsqueezeExpand(t *testing.T) {
	b := newTestBackend()
	x := f32(b, tensor.Shape{3}, 1, 2, 3)

	u := x.Unsqueeze(0)
	assert.Equal(t, tensor.Shape{1, 3}, u.Shape())
	assert.Equal(t, tensor.Shape{3, 1}, x.Unsqueeze(-1).Shape())

	e := u.Expand(tensor.Shape{2, 3})
	assert.Equal(t, []float32{1, 2, 3, 1, 2, 3}, e.Data())
	assert.Panics(t, func() { x.Expand(tensor.Shape{2, 4}) })
}

func TestCPUBackend_NarrowCat(t *testing.T) {
	b := newTestBackend()
	x := f32(b, tensor.Shape{2, 3}, 1, 2, 3, 4, 5, 6)

	n := x.Narrow(1, 0, 2)
	assert.Equal(t, tensor.Shape{2, 2}, n.Shape())
	assert.Equal(t, []float32{1, 2, 4, 5}, n.Data())
	assert.Equal(t, []float32{4, 5, 6}, x.Narrow(0, 1, 1).Data())
	assert.Panics(t, func() { x.Narrow(1, 2, 2) })

	c := tensor.Cat([]*tensor.Tensor[float32, *CPUBackend]{n, x.Narrow(1, 2, 1)}, 1)
	assert.Equal(t, x.Data(), c.Data())

	rows := tensor.Cat([]*tensor.Tensor[float32, *CPUBackend]{x, x}, 0)
	assert.Equal(t, tensor.Shape{4, 3}, rows.Shape())
	assert.Equal(t, []float32{1, 2, 3, 4, 5, 6, 1, 2, 3, 4, 5, 6}, rows.Data())
}

func TestCPUBackend_Softmax(t *testing.T) {
	b := newTestBackend()
	inf := float32(math.Inf(-1))

	x := f32(b, tensor.Shape{2, 3}, 1, 2, 3, inf, inf, inf)
	got := x.Softmax(-1).Data()

	var sum float32
	for _, v := range got[:3] {
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-6)
	assert.Greater(t, got[2], got[1])
	assert.Equal(t, []float32{0, 0, 0}, got[3:])

	partial := f32(b, tensor.Shape{3}, 0, inf, 0).Softmax(0).Data()
	assert.InDeltaSlice(t, []float32{0.5, 0, 0.5}, partial, 1e-6)
}

func TestCPUBackend_Reduce(t *testing.T) {
	b := newTestBackend()
	x := f32(b, tensor.Shape{2, 3}, 1, 2, 3, 4, 5, 6)

	assert.Equal(t, []float32{6, 15}, x.SumDim(1, false).Data())
	assert.Equal(t, tensor.Shape{2, 1}, x.MeanDim(-1, true).Shape())
	assert.Equal(t, []float32{2, 5}, x.MeanDim(-1, true).Data())
	assert.Equal(t, []float32{4, 5, 6}, x.MaxDim(0, false).Data())
}

func TestCPUBackend_Math(t *testing.T) {
	b := newTestBackend()
	x := f32(b, tensor.Shape{3}, -1, 0, 4)

	assert.Equal(t, []float32{0, 0, 4}, x.ReLU().Data())
	assert.InDeltaSlice(t, []float32{0.26894142, 0.5, 0.98201376}, x.Sigmoid().Data(), 1e-6)
	assert.InDeltaSlice(t, []float32{-0.7615942, 0, 0.9993293}, x.Tanh().Data(), 1e-6)
	assert.Equal(t, []float32{1, 2}, f32(b, tensor.Shape{2}, 1, 4).Sqrt().Data())
	assert.Equal(t, []float32{-2, 0, 8}, x.MulScalar(2).Data())
	assert.Equal(t, []float32{0, 1, 5}, x.AddScalar(1).Data())
}

func TestCPUBackend_Embedding(t *testing.T) {
	b := newTestBackend()
	w := f32(b, tensor.Shape{3, 2}, 0, 0, 1, 1, 2, 2)
	ids := tensor.MustFromSlice([]int32{2, 0, 1, 2}, tensor.Shape{2, 2}, b)

	got := w.Embedding(ids)
	assert.Equal(t, tensor.Shape{2, 2, 2}, got.Shape())
	assert.Equal(t, []float32{2, 2, 0, 0, 1, 1, 2, 2}, got.Data())

	bad := tensor.MustFromSlice([]int32{3}, tensor.Shape{1}, b)
	assert.Panics(t, func() { w.Embedding(bad) })
}

func TestCPUBackend_MaskedFillWhere(t *testing.T) {
	b := newTestBackend()
	x := f32(b, tensor.Shape{2, 2}, 1, 2, 3, 4)
	mask := tensor.MustFromSlice([]bool{false, true}, tensor.Shape{1, 2}, b)

	filled := x.MaskedFill(mask, -9)
	assert.Equal(t, []float32{1, -9, 3, -9}, filled.Data())
	assert.Equal(t, []float32{1, 2, 3, 4}, x.Data())

	y := tensor.Zeros[float32](tensor.Shape{2, 2}, b)
	assert.Equal(t, []float32{0, 2, 0, 4}, tensor.Where(mask, x, y).Data())

	assert.Panics(t, func() {
		x.MaskedFill(tensor.MustFromSlice([]bool{true, false, true}, tensor.Shape{3}, b), 0)
	})
}

func TestCPUBackend_CompareAndBoolean(t *testing.T) {
	b := newTestBackend()
	ids := tensor.MustFromSlice([]int32{0, 5, 0, 7}, tensor.Shape{4}, b)

	pad := ids.EqualScalar(0)
	assert.Equal(t, []bool{true, false, true, false}, pad.Data())
	assert.Equal(t, []bool{false, true, false, true}, ids.NotEqualScalar(0).Data())
	assert.Equal(t, []bool{false, true, false, true}, tensor.Not(pad).Data())

	col := tensor.MustFromSlice([]bool{true, false}, tensor.Shape{2, 1}, b)
	row := tensor.MustFromSlice([]bool{false, true}, tensor.Shape{1, 2}, b)
	assert.Equal(t, []bool{true, true, false, true}, tensor.Or(col, row).Data())
}

func TestCPUBackend_Cast(t *testing.T) {
	b := newTestBackend()
	mask := tensor.MustFromSlice([]bool{true, false, true}, tensor.Shape{3}, b)
	assert.Equal(t, []float32{1, 0, 1}, mask.Float32().Data())

	x := f32(b, tensor.Shape{2}, 1.9, -2)
	assert.Equal(t, []int32{1, -2}, x.Int32().Data())

	same := x.Float32()
	assert.False(t, same.Raw().SharesStorage(x.Raw()))
}
