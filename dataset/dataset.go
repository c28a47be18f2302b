// Package dataset loads vector datasets from disk and generates synthetic
// ones.
//
// Supported file formats, chosen by extension:
//
//	.csv    one vector per row, optional non-numeric header row
//	.fvecs  per vector: little-endian int32 dimension, then float32 components
//	.bvecs  per vector: little-endian int32 dimension, then uint8 components
//
// Vector identifiers are row positions, starting at zero.
package dataset

import (
	"encoding/binary"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/hupe1980/golsh"
	"github.com/hupe1980/golsh/internal/mmap"
)

var (
	// ErrUnsupportedFormat is returned for unknown file extensions.
	ErrUnsupportedFormat = errors.New("dataset: unsupported format")
	// ErrMalformed is returned when a file does not follow its format.
	ErrMalformed = errors.New("dataset: malformed file")
)

// Load reads at most n vectors from path; n <= 0 reads all of them.
func Load(path string, n int) ([][]float64, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return ReadCSV(f, n)
	case ".fvecs":
		return loadVecs(path, n, 4, func(b []byte) float64 {
			return float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
		})
	case ".bvecs":
		return loadVecs(path, n, 1, func(b []byte) float64 {
			return float64(b[0])
		})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// ReadCSV parses comma-separated vectors from r. A first row that does not
// parse as numbers is treated as a header and skipped.
func ReadCSV(r io.Reader, n int) ([][]float64, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	var (
		out  [][]float64
		line int
	)
	for n <= 0 || len(out) < n {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		line++

		v, err := parseRecord(record)
		if err != nil {
			if line == 1 {
				continue
			}
			return nil, fmt.Errorf("%w: line %d: %w", ErrMalformed, line, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func parseRecord(record []string) ([]float64, error) {
	v := make([]float64, len(record))
	for i, field := range record {
		x, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return nil, err
		}
		v[i] = x
	}
	return v, nil
}

// loadVecs decodes the .fvecs/.bvecs family directly from a read-only mapping.
func loadVecs(path string, n, width int, decode func([]byte) float64) ([][]float64, error) {
	m, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}
	defer m.Close()
	_ = m.Advise(mmap.AccessSequential)

	var out [][]float64
	for off := 0; off < m.Size() && (n <= 0 || len(out) < n); {
		head, err := m.Section(off, 4)
		if err != nil {
			return nil, fmt.Errorf("%w: truncated header at offset %d", ErrMalformed, off)
		}
		dim := int(int32(binary.LittleEndian.Uint32(head)))
		if dim <= 0 {
			return nil, fmt.Errorf("%w: dimension %d at offset %d", ErrMalformed, dim, off)
		}
		off += 4

		body, err := m.Section(off, dim*width)
		if err != nil {
			return nil, fmt.Errorf("%w: truncated vector at offset %d", ErrMalformed, off)
		}
		off += dim * width

		v := make([]float64, dim)
		for i := range v {
			v[i] = decode(body[i*width:])
		}
		out = append(out, v)
	}
	return out, nil
}

// WriteCSV writes vectors as comma-separated rows without a header.
func WriteCSV(w io.Writer, vectors [][]float64) error {
	cw := csv.NewWriter(w)
	var record []string
	for _, v := range vectors {
		record = record[:0]
		for _, x := range v {
			record = append(record, strconv.FormatFloat(x, 'g', -1, 64))
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFvecs writes vectors in the .fvecs format. Components are narrowed to
// float32.
func WriteFvecs(w io.Writer, vectors [][]float64) error {
	var buf []byte
	for _, v := range vectors {
		buf = binary.LittleEndian.AppendUint32(buf[:0], uint32(len(v)))
		for _, x := range v {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(float32(x)))
		}
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	return nil
}

// Points assigns positional identifiers to vectors.
func Points(vectors [][]float64) []golsh.Point {
	points := make([]golsh.Point, len(vectors))
	for i, v := range vectors {
		points[i] = golsh.Point{ID: uint64(i), Vector: v}
	}
	return points
}

// Grid returns the n*n integer lattice in row-major order: vector i*n+j is
// (i, j).
func Grid(n int) [][]float64 {
	out := make([][]float64, 0, n*n)
	for i := range n {
		for j := range n {
			out = append(out, []float64{float64(i), float64(j)})
		}
	}
	return out
}

// Gaussian returns n vectors of dimension dim with independent standard
// normal components drawn from a generator seeded with seed.
func Gaussian(n, dim int, seed uint64) [][]float64 {
	normal := distuv.Normal{Mu: 0, Sigma: 1, Src: rand.NewPCG(seed, seed)}

	data := make([]float64, n*dim)
	for i := range data {
		data[i] = normal.Rand()
	}

	out := make([][]float64, n)
	for i := range out {
		out[i] = data[i*dim : (i+1)*dim : (i+1)*dim]
	}
	return out
}
