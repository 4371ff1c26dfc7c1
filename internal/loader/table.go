package loader

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Table is a dense [Rows, Dim] float32 embedding matrix in row-major order.
type Table struct {
	Rows        int
	Dim         int
	Data        []float32
	Fingerprint uint64 // xxhash64 of the little-endian float32 data
	Source      string // file the table was read from, if any
}

// NewTable builds a Table over data and computes its fingerprint.
func NewTable(rows, dim int, data []float32) (*Table, error) {
	if rows <= 0 || dim <= 0 {
		return nil, fmt.Errorf("%w: got %dx%d", ErrNotMatrix, rows, dim)
	}
	if len(data) != rows*dim {
		return nil, fmt.Errorf("table %dx%d needs %d values, got %d", rows, dim, rows*dim, len(data))
	}
	return &Table{Rows: rows, Dim: dim, Data: data, Fingerprint: fingerprint(data)}, nil
}

// Row returns row i without copying.
func (t *Table) Row(i int) []float32 {
	return t.Data[i*t.Dim : (i+1)*t.Dim]
}

func fingerprint(data []float32) uint64 {
	d := xxhash.New()
	var buf [4]byte
	for _, v := range data {
		binary.LittleEndian.PutUint32(buf[:], math.Float32bits(v))
		_, _ = d.Write(buf[:])
	}
	return d.Sum64()
}

// LoadEmbedding reads a table from path, picking the reader by extension.
// tensorName selects a tensor inside a SafeTensors file and is ignored for .npy.
func LoadEmbedding(path, tensorName string) (*Table, error) {
	var (
		table *Table
		err   error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".npy":
		table, err = loadNPYFile(path)
	case ".safetensors":
		table, err = loadSafeTensorsFile(path, tensorName)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	if err != nil {
		return nil, fmt.Errorf("load embedding %s: %w", path, err)
	}
	table.Source = path
	return table, nil
}

func loadNPYFile(path string) (*Table, error) {
	//nolint:gosec // G304: embedding path is user supplied by design
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return ReadNPY(f)
}

func loadSafeTensorsFile(path, tensorName string) (*Table, error) {
	r, err := NewSafeTensorsReader(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()
	return r.LoadTable(tensorName)
}
