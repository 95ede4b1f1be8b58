package artifact

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/sbinet/npyio"
	"gonum.org/v1/gonum/mat"

	"github.com/kailas-cloud/prodsearch/internal/domain"
)

var npyMagic = []byte("\x93NUMPY")

// matrix is a decoded 2-D float array in row-major order.
type matrix struct {
	rows, cols int
	data       []float32
}

// readNPY decodes a 2-D little-endian float32 or float64 C-order array of at most size bytes.
// float64 input is narrowed to float32. Non-finite values are rejected.
func readNPY(r io.Reader, size int64) (matrix, error) {
	r, err := downgradeV3(r)
	if err != nil {
		return matrix{}, err
	}
	nr, err := npyio.NewReader(r)
	if err != nil {
		return matrix{}, malformed("read npy header: %v", err)
	}

	descr := nr.Header.Descr
	width := 0
	switch descr.Type {
	case "<f4":
		width = 4
	case "<f8":
		width = 8
	default:
		return matrix{}, malformed("unsupported npy dtype %q (want <f4 or <f8)", descr.Type)
	}
	if descr.Fortran {
		return matrix{}, malformed("npy array must be C-order")
	}
	if len(descr.Shape) != 2 {
		return matrix{}, malformed("npy array must be 2-D, got shape %v", descr.Shape)
	}
	rows, cols := descr.Shape[0], descr.Shape[1]
	if err := checkShape(rows, cols, width, size); err != nil {
		return matrix{}, err
	}

	var data []float32
	if width == 4 {
		data = make([]float32, rows*cols)
		if err := nr.Read(&data); err != nil {
			return matrix{}, malformed("read npy data (%d×%d %s): %v", rows, cols, descr.Type, err)
		}
	} else {
		wide := make([]float64, rows*cols)
		if err := nr.Read(&wide); err != nil {
			return matrix{}, malformed("read npy data (%d×%d %s): %v", rows, cols, descr.Type, err)
		}
		data = make([]float32, len(wide))
		for i, v := range wide {
			data[i] = float32(v)
		}
	}
	if len(data) != rows*cols {
		return matrix{}, malformed("npy data has %d values for shape (%d, %d)", len(data), rows, cols)
	}
	for i, v := range data {
		if f := float64(v); math.IsNaN(f) || math.IsInf(f, 0) {
			return matrix{}, malformed("non-finite value at row %d col %d", i/cols, i%cols)
		}
	}
	return matrix{rows: rows, cols: cols, data: data}, nil
}

// checkShape refuses shapes whose payload cannot fit in size bytes, without overflowing.
func checkShape(rows, cols, width int, size int64) error {
	if rows < 0 || cols < 0 {
		return malformed("negative npy shape (%d, %d)", rows, cols)
	}
	if rows == 0 || cols == 0 {
		return nil
	}
	maxValues := size / int64(width)
	if int64(cols) > maxValues || int64(rows) > maxValues/int64(cols) {
		return malformed("npy shape (%d, %d) exceeds file size %d", rows, cols, size)
	}
	return nil
}

// downgradeV3 relabels a version 3 file as version 2. The layouts only differ
// in the header encoding (utf-8 vs latin-1), which is ASCII for float arrays.
func downgradeV3(r io.Reader) (io.Reader, error) {
	br := bufio.NewReader(r)
	pre, err := br.Peek(len(npyMagic) + 2)
	if err != nil {
		return nil, malformed("read npy preamble: %v", err)
	}
	if !bytes.Equal(pre[:len(npyMagic)], npyMagic) {
		return nil, malformed("not an npy file")
	}
	if pre[len(npyMagic)] != 3 {
		return br, nil
	}
	if _, err := br.Discard(len(pre)); err != nil {
		return nil, malformed("read npy preamble: %v", err)
	}
	head := append(append([]byte{}, npyMagic...), 2, pre[len(npyMagic)+1])
	return io.MultiReader(bytes.NewReader(head), br), nil
}

// writeNPY encodes a row-major float32 matrix as a 2-D npy file.
// npyio writes 2-D arrays from gonum matrices, so values are stored as <f8.
func writeNPY(w io.Writer, rows, cols int, data []float32) error {
	if rows < 1 || cols < 1 {
		return errors.New("npy matrix must have at least one row and one column")
	}
	if len(data) != rows*cols {
		return fmt.Errorf("matrix has %d values for shape (%d, %d)", len(data), rows, cols)
	}
	wide := make([]float64, len(data))
	for i, v := range data {
		wide[i] = float64(v)
	}
	if err := npyio.Write(w, mat.NewDense(rows, cols, wide)); err != nil {
		return fmt.Errorf("write npy: %w", err)
	}
	return nil
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrMalformedArtifact, fmt.Sprintf(format, args...))
}
