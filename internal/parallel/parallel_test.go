package parallel

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFor(t *testing.T) {
	cfg := Config{Enabled: true, NumWorkers: 4, MinChunkSize: 8}

	var counter int64
	seen := make([]int32, 1000)
	For(len(seen), func(i int) {
		atomic.AddInt64(&counter, 1)
		atomic.AddInt32(&seen[i], 1)
	}, cfg)

	assert.Equal(t, int64(len(seen)), counter)
	for i, v := range seen {
		require.Equalf(t, int32(1), v, "index %d visited %d times", i, v)
	}
}

func TestFor_Sequential(t *testing.T) {
	var order []int
	For(10, func(i int) {
		order = append(order, i)
	}, Sequential())

	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, order)
}

func TestFor_SmallWorkload(t *testing.T) {
	cfg := DefaultConfig()

	var counter int64
	n := cfg.MinChunkSize - 1
	For(n, func(_ int) {
		atomic.AddInt64(&counter, 1)
	}, cfg)

	assert.Equal(t, int64(n), counter)
}

func TestForErr_PropagatesError(t *testing.T) {
	cfg := Config{Enabled: true, NumWorkers: 4, MinChunkSize: 4}
	boom := errors.New("boom")

	err := ForErr(context.Background(), 100, func(i int) error {
		if i == 42 {
			return boom
		}
		return nil
	}, cfg)

	require.ErrorIs(t, err, boom)
}

func TestForErr_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var counter int64
	err := ForErr(ctx, 10, func(_ int) error {
		atomic.AddInt64(&counter, 1)
		return nil
	}, Sequential())

	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, counter)
}

func BenchmarkFor(b *testing.B) {
	n := 10000
	for _, tc := range []struct {
		name string
		cfg  Config
	}{
		{"parallel", DefaultConfig()},
		{"sequential", Sequential()},
	} {
		b.Run(tc.name, func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				var sum int64
				For(n, func(j int) {
					atomic.AddInt64(&sum, int64(j))
				}, tc.cfg)
			}
		})
	}
}
