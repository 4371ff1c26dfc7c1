package loader

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"slices"

	"github.com/goccy/go-json"
)

// SafeTensors format:
// [8 bytes: header_size (uint64 LE)]
// [header_size bytes: JSON header]
// [tensor data: raw bytes]

// DefaultTensorName is looked up first when no tensor name is given.
const DefaultTensorName = "embedding"

// SafeTensorsDType represents a SafeTensors data type.
type SafeTensorsDType string

// SafeTensors dtypes an embedding table may use.
const (
	SafeTensorsF32 SafeTensorsDType = "F32"
	SafeTensorsF64 SafeTensorsDType = "F64"
)

// SafeTensorInfo describes a tensor in the header.
type SafeTensorInfo struct {
	DType       SafeTensorsDType `json:"dtype"`
	Shape       []int            `json:"shape"`
	DataOffsets [2]int64         `json:"data_offsets"` // [start, end) relative to the data section
}

// SafeTensorsHeader is the JSON header. Tensor entries sit next to the
// optional __metadata__ object, so decoding is done by hand.
type SafeTensorsHeader struct {
	Metadata map[string]string
	Tensors  map[string]SafeTensorInfo
}

// UnmarshalJSON splits __metadata__ from the tensor entries.
func (h *SafeTensorsHeader) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	h.Tensors = make(map[string]SafeTensorInfo, len(raw))
	for key, value := range raw {
		if key == "__metadata__" {
			if err := json.Unmarshal(value, &h.Metadata); err != nil {
				return fmt.Errorf("failed to unmarshal metadata: %w", err)
			}
			continue
		}
		var info SafeTensorInfo
		if err := json.Unmarshal(value, &info); err != nil {
			return fmt.Errorf("failed to unmarshal tensor %s: %w", key, err)
		}
		h.Tensors[key] = info
	}
	return nil
}

// SafeTensorsReader reads tensors from a SafeTensors file.
type SafeTensorsReader struct {
	file       *os.File
	header     SafeTensorsHeader
	dataOffset int64
	dataSize   int64
}

// NewSafeTensorsReader opens path and parses its header.
func NewSafeTensorsReader(path string) (*SafeTensorsReader, error) {
	//nolint:gosec // G304: embedding path is user supplied by design
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	stat, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	var headerSize uint64
	if err := binary.Read(file, binary.LittleEndian, &headerSize); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to read header size: %w", err)
	}
	if headerSize > 100*1024*1024 {
		_ = file.Close()
		return nil, fmt.Errorf("invalid header size: %d (too large)", headerSize)
	}

	headerBytes := make([]byte, headerSize)
	if _, err := io.ReadFull(file, headerBytes); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	var header SafeTensorsHeader
	if err := json.Unmarshal(headerBytes, &header); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to parse header JSON: %w", err)
	}

	dataOffset := int64(8 + headerSize) //nolint:gosec // G115: bounded by the size check above
	return &SafeTensorsReader{
		file:       file,
		header:     header,
		dataOffset: dataOffset,
		dataSize:   stat.Size() - dataOffset,
	}, nil
}

// Close closes the underlying file.
func (r *SafeTensorsReader) Close() error {
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}

// Metadata returns the __metadata__ map.
func (r *SafeTensorsReader) Metadata() map[string]string {
	return r.header.Metadata
}

// TensorNames returns the sorted tensor names.
func (r *SafeTensorsReader) TensorNames() []string {
	names := make([]string, 0, len(r.header.Tensors))
	for name := range r.header.Tensors {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// TensorInfo returns the header entry for name.
func (r *SafeTensorsReader) TensorInfo(name string) (*SafeTensorInfo, error) {
	info, ok := r.header.Tensors[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrTensorNotFound, name)
	}
	return &info, nil
}

// ReadTensorData reads the raw bytes of tensor name.
func (r *SafeTensorsReader) ReadTensorData(name string) ([]byte, error) {
	info, err := r.TensorInfo(name)
	if err != nil {
		return nil, err
	}

	begin, end := info.DataOffsets[0], info.DataOffsets[1]
	if begin < 0 || end < begin || end > r.dataSize {
		return nil, fmt.Errorf("%w: tensor %s has [%d, %d] in a %d byte data section",
			ErrInvalidOffsets, name, begin, end, r.dataSize)
	}
	start, size := r.dataOffset+begin, end-begin

	if _, err := r.file.Seek(start, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to seek to tensor data: %w", err)
	}
	data := make([]byte, size)
	if _, err := io.ReadFull(r.file, data); err != nil {
		return nil, fmt.Errorf("failed to read tensor data: %w", err)
	}
	return data, nil
}

// LoadTable reads a 2D F32/F64 tensor as an embedding table.
//
// With an empty name, DefaultTensorName is tried first, then the file's only
// 2D tensor.
func (r *SafeTensorsReader) LoadTable(name string) (*Table, error) {
	if name == "" {
		resolved, err := r.resolveTableName()
		if err != nil {
			return nil, err
		}
		name = resolved
	}

	info, err := r.TensorInfo(name)
	if err != nil {
		return nil, err
	}
	if len(info.Shape) != 2 {
		return nil, fmt.Errorf("%w: tensor %q has shape %v", ErrNotMatrix, name, info.Shape)
	}
	rows, dim := info.Shape[0], info.Shape[1]

	var width int
	switch info.DType {
	case SafeTensorsF32:
		width = 4
	case SafeTensorsF64:
		width = 8
	default:
		return nil, fmt.Errorf("%w: tensor %q is %s", ErrUnsupportedDType, name, info.DType)
	}
	if rows <= 0 || dim <= 0 || info.DataOffsets[1]-info.DataOffsets[0] != int64(rows)*int64(dim)*int64(width) {
		return nil, fmt.Errorf("%w: tensor %q spans %v for %s shape %v",
			ErrInvalidOffsets, name, info.DataOffsets, info.DType, info.Shape)
	}

	raw, err := r.ReadTensorData(name)
	if err != nil {
		return nil, err
	}

	data := make([]float32, rows*dim)
	for i := range data {
		if width == 4 {
			data[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
		} else {
			data[i] = float32(math.Float64frombits(binary.LittleEndian.Uint64(raw[i*8:])))
		}
	}
	return NewTable(rows, dim, data)
}

func (r *SafeTensorsReader) resolveTableName() (string, error) {
	if _, ok := r.header.Tensors[DefaultTensorName]; ok {
		return DefaultTensorName, nil
	}
	var matrices []string
	for _, name := range r.TensorNames() {
		if len(r.header.Tensors[name].Shape) == 2 {
			matrices = append(matrices, name)
		}
	}
	switch len(matrices) {
	case 1:
		return matrices[0], nil
	case 0:
		return "", fmt.Errorf("%w: no 2D tensor in file", ErrTensorNotFound)
	default:
		return "", fmt.Errorf("%w: %d candidate 2D tensors %v, name one explicitly", ErrTensorNotFound, len(matrices), matrices)
	}
}
