package loader

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sbinet/npyio/npy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// npyMatrix encodes a C-ordered 2D array in NPY format version 1.0.
func npyMatrix(descr string, rows, cols int, values []float64) []byte {
	header := fmt.Sprintf("{'descr': '%s', 'fortran_order': False, 'shape': (%d, %d), }", descr, rows, cols)
	// Magic (6) + version (2) + length (2) + header + '\n' must align to 64.
	pad := 64 - (10+len(header)+1)%64
	header += strings.Repeat(" ", pad%64) + "\n"

	var buf bytes.Buffer
	buf.WriteString("\x93NUMPY")
	buf.Write([]byte{1, 0})
	_ = binary.Write(&buf, binary.LittleEndian, uint16(len(header)))
	buf.WriteString(header)
	for _, v := range values {
		if descr == "<f8" {
			_ = binary.Write(&buf, binary.LittleEndian, math.Float64bits(v))
		} else {
			_ = binary.Write(&buf, binary.LittleEndian, math.Float32bits(float32(v)))
		}
	}
	return buf.Bytes()
}

func TestReadNPY(t *testing.T) {
	for _, descr := range []string{"<f4", "<f8"} {
		t.Run(descr, func(t *testing.T) {
			table, err := ReadNPY(bytes.NewReader(npyMatrix(descr, 2, 2, []float64{1, 2, 3, 4})))
			require.NoError(t, err)
			assert.Equal(t, 2, table.Rows)
			assert.Equal(t, 2, table.Dim)
			assert.Equal(t, []float32{1, 2, 3, 4}, table.Data)
		})
	}
}

func TestReadNPY_RejectsVector(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, npy.Write(&buf, []float32{1, 2, 3}))

	_, err := ReadNPY(&buf)
	assert.ErrorIs(t, err, ErrNotMatrix)
}

func TestLoadEmbedding_NPY(t *testing.T) {
	path := filepath.Join(t.TempDir(), "glove.npy")
	require.NoError(t, os.WriteFile(path, npyMatrix("<f4", 3, 2, []float64{0, 0, 1, 1, 2, 2}), 0o600))

	table, err := LoadEmbedding(path, "ignored")
	require.NoError(t, err)
	assert.Equal(t, 3, table.Rows)
	assert.Equal(t, []float32{2, 2}, table.Row(2))
	assert.Equal(t, path, table.Source)
}

func TestLoadEmbedding_UnknownExtension(t *testing.T) {
	_, err := LoadEmbedding("table.csv", "")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestTable_Fingerprint(t *testing.T) {
	a, err := NewTable(1, 2, []float32{1, 2})
	require.NoError(t, err)
	b, err := NewTable(1, 2, []float32{1, 2})
	require.NoError(t, err)
	c, err := NewTable(1, 2, []float32{2, 1})
	require.NoError(t, err)

	assert.Equal(t, a.Fingerprint, b.Fingerprint)
	assert.NotEqual(t, a.Fingerprint, c.Fingerprint)

	_, err = NewTable(0, 2, nil)
	assert.ErrorIs(t, err, ErrNotMatrix)
	_, err = NewTable(2, 2, []float32{1})
	assert.Error(t, err)
}
