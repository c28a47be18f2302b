// Package snapshot persists an index as its parameters plus its dataset.
//
// Hash tables are not stored. Read rebuilds them by replaying Build with the
// recorded seed, which draws exactly the same hash families, so a restored
// index answers every query exactly like the original.
//
// Layout:
//
//	"GLSH" | version u8 | compression u8 | stream
//
// where stream is the compressed payload followed by the CRC32C of the
// uncompressed payload (little endian). All integers are little endian.
package snapshot

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/hupe1980/golsh"
	"github.com/hupe1980/golsh/blobstore"
	"github.com/hupe1980/golsh/distance"
	"github.com/hupe1980/golsh/internal/conv"
	"github.com/hupe1980/golsh/internal/hash"
	"github.com/hupe1980/golsh/resource"
)

const (
	magic   = "GLSH"
	version = 1
)

var (
	// ErrBadMagic is returned when the input is not a snapshot.
	ErrBadMagic = errors.New("snapshot: bad magic")
	// ErrUnsupportedVersion is returned for snapshots written by a newer format.
	ErrUnsupportedVersion = errors.New("snapshot: unsupported version")
	// ErrUnknownCompression is returned for an unknown compression byte.
	ErrUnknownCompression = errors.New("snapshot: unknown compression")
	// ErrChecksum is returned when the payload checksum does not match.
	ErrChecksum = errors.New("snapshot: checksum mismatch")
)

// CompressionType defines the compression algorithm used.
type CompressionType uint8

const (
	// CompressionNone stores the payload as is.
	CompressionNone CompressionType = 0
	// CompressionLZ4 uses the LZ4 frame format (fast).
	CompressionLZ4 CompressionType = 1
	// CompressionZSTD uses zstd (better ratio). This is the default.
	CompressionZSTD CompressionType = 2
)

// ParseCompression maps "none", "lz4" and "zstd" to a CompressionType.
func ParseCompression(name string) (CompressionType, error) {
	switch name {
	case "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd", "":
		return CompressionZSTD, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownCompression, name)
	}
}

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("compression(%d)", uint8(c))
	}
}

// Options controls Write and Save.
type Options struct {
	Compression CompressionType
	// BytesPerSec throttles Save; zero is unlimited.
	BytesPerSec int64
}

// DefaultOptions returns zstd compression.
func DefaultOptions() Options {
	return Options{Compression: CompressionZSTD}
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func compressor(w io.Writer, c CompressionType) (io.WriteCloser, error) {
	switch c {
	case CompressionNone:
		return nopWriteCloser{w}, nil
	case CompressionLZ4:
		return lz4.NewWriter(w), nil
	case CompressionZSTD:
		return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownCompression, c)
	}
}

func decompressor(r io.Reader, c CompressionType) (io.Reader, func(), error) {
	switch c {
	case CompressionNone:
		return r, func() {}, nil
	case CompressionLZ4:
		return lz4.NewReader(r), func() {}, nil
	case CompressionZSTD:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return dec, dec.Close, nil
	default:
		return nil, nil, fmt.Errorf("%w: %d", ErrUnknownCompression, c)
	}
}

// header is the fixed-size part of the payload.
type header struct {
	Metric    uint8
	Built     uint8
	HashCount uint32
	Tables    uint32
	Width     float64
	Seed      uint64
	Dimension uint32
	Count     uint64
}

func newHeader(p golsh.Params, count int, built bool) (header, error) {
	h := header{
		Metric: uint8(p.Metric),
		Width:  p.Width,
		Seed:   p.Seed,
		Count:  uint64(count),
	}
	if built {
		h.Built = 1
	}
	var err error
	if h.HashCount, err = conv.Checked[uint32](p.HashCount); err != nil {
		return header{}, fmt.Errorf("snapshot: m: %w", err)
	}
	if h.Tables, err = conv.Checked[uint32](p.Tables); err != nil {
		return header{}, fmt.Errorf("snapshot: L: %w", err)
	}
	if h.Dimension, err = conv.Checked[uint32](p.Dimension); err != nil {
		return header{}, fmt.Errorf("snapshot: dimension: %w", err)
	}
	return h, nil
}

// Write serializes ix to w.
func Write(w io.Writer, ix *golsh.Index, opts Options) error {
	p := ix.Params()
	h, err := newHeader(p, ix.Len(), ix.Built())
	if err != nil {
		return err
	}

	if _, err := io.WriteString(w, magic); err != nil {
		return err
	}
	if _, err := w.Write([]byte{version, byte(opts.Compression)}); err != nil {
		return err
	}

	cw, err := compressor(w, opts.Compression)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(cw)
	hw := hash.NewWriter(bw)

	if err := binary.Write(hw, binary.LittleEndian, &h); err != nil {
		return err
	}

	buf := make([]byte, 0, 8+8*p.Dimension)
	for pt := range ix.All() {
		buf = binary.LittleEndian.AppendUint64(buf[:0], pt.ID)
		for _, x := range pt.Vector {
			buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(x))
		}
		if _, err := hw.Write(buf); err != nil {
			return err
		}
	}

	if err := binary.Write(bw, binary.LittleEndian, hw.Sum32()); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	return cw.Close()
}

// Read restores an index written by Write. opts are applied after the
// recorded parameters, so they may add a logger or metrics collector; they
// should not change the metric or the seed.
func Read(r io.Reader, opts ...golsh.Option) (*golsh.Index, error) {
	var pre [6]byte
	if _, err := io.ReadFull(r, pre[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrBadMagic
		}
		return nil, err
	}
	if string(pre[:4]) != magic {
		return nil, ErrBadMagic
	}
	if pre[4] != version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, pre[4])
	}

	dr, closeFn, err := decompressor(r, CompressionType(pre[5]))
	if err != nil {
		return nil, err
	}
	defer closeFn()
	br := bufio.NewReader(dr)
	hr := hash.NewReader(br)

	var h header
	if err := binary.Read(hr, binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("snapshot: read header: %w", err)
	}

	metric := distance.Metric(h.Metric)
	if !metric.Valid() {
		return nil, golsh.NewConfigurationError("metric", fmt.Sprintf("unknown metric id %d", h.Metric))
	}

	dim, err := conv.Checked[int](h.Dimension)
	if err != nil {
		return nil, fmt.Errorf("snapshot: dimension: %w", err)
	}
	count, err := conv.Checked[int](h.Count)
	if err != nil {
		return nil, fmt.Errorf("snapshot: count: %w", err)
	}
	points := make([]golsh.Point, 0, min(count, 1<<20))
	scratch := make([]float64, min(dim, readChunk))
	for i := range count {
		var p golsh.Point
		if err := binary.Read(hr, binary.LittleEndian, &p.ID); err != nil {
			return nil, fmt.Errorf("snapshot: read point %d: %w", i, err)
		}
		if p.Vector, err = readVector(hr, dim, scratch); err != nil {
			return nil, fmt.Errorf("snapshot: read point %d: %w", i, err)
		}
		points = append(points, p)
	}

	var sum uint32
	if err := binary.Read(br, binary.LittleEndian, &sum); err != nil {
		return nil, fmt.Errorf("snapshot: read checksum: %w", err)
	}
	if sum != hr.Sum32() {
		return nil, ErrChecksum
	}

	all := append([]golsh.Option{
		golsh.WithMetric(metric),
		golsh.WithSeed(h.Seed),
		golsh.WithDimension(dim),
	}, opts...)
	ix, err := golsh.New(int(h.HashCount), h.Width, int(h.Tables), all...)
	if err != nil {
		return nil, err
	}
	if h.Built == 1 {
		if err := ix.Build(points); err != nil {
			return nil, err
		}
	}
	return ix, nil
}

// Save writes ix to the blob name in store.
func Save(ctx context.Context, store blobstore.BlobStore, name string, ix *golsh.Index, opts Options) error {
	limiter := resource.NewLimiter(opts.BytesPerSec)
	return blobstore.WriteTo(ctx, store, name, func(w io.Writer) error {
		return Write(resource.NewWriter(ctx, w, limiter), ix, opts)
	})
}

// Load restores the index stored in the blob name.
func Load(ctx context.Context, store blobstore.BlobStore, name string, opts ...golsh.Option) (*golsh.Index, error) {
	b, err := store.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer b.Close()
	return Read(blobstore.NewReader(ctx, b), opts...)
}

// readChunk bounds how many components are decoded before the vector grows,
// so a corrupt dimension fails on the missing data instead of allocating it.
const readChunk = 4096

func readVector(r io.Reader, dim int, scratch []float64) ([]float64, error) {
	v := make([]float64, 0, min(dim, readChunk))
	for len(v) < dim {
		chunk := scratch[:min(dim-len(v), len(scratch))]
		if err := binary.Read(r, binary.LittleEndian, chunk); err != nil {
			return nil, err
		}
		v = append(v, chunk...)
	}
	return v, nil
}
