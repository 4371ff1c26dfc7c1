package loader

import (
	"fmt"
	"io"

	"github.com/sbinet/npyio/npy"
)

// ReadNPY decodes a 2D float32 or float64 NumPy array into a Table.
func ReadNPY(r io.Reader) (*Table, error) {
	nr, err := npy.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("read npy header: %w", err)
	}

	descr := nr.Header.Descr
	if len(descr.Shape) != 2 {
		return nil, fmt.Errorf("%w: npy shape %v", ErrNotMatrix, descr.Shape)
	}
	if descr.Fortran {
		return nil, fmt.Errorf("%w: fortran-ordered npy arrays", ErrUnsupportedDType)
	}
	rows, dim := descr.Shape[0], descr.Shape[1]

	var data []float32
	switch descr.Type {
	case "<f4", "f4", "float32":
		data = make([]float32, rows*dim)
		if err := nr.Read(&data); err != nil {
			return nil, fmt.Errorf("read npy data: %w", err)
		}
	case "<f8", "f8", "float64":
		wide := make([]float64, rows*dim)
		if err := nr.Read(&wide); err != nil {
			return nil, fmt.Errorf("read npy data: %w", err)
		}
		data = make([]float32, len(wide))
		for i, v := range wide {
			data[i] = float32(v)
		}
	default:
		return nil, fmt.Errorf("%w: npy dtype %q", ErrUnsupportedDType, descr.Type)
	}

	return NewTable(rows, dim, data)
}
