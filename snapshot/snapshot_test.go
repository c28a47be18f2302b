package snapshot

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/golsh"
	"github.com/hupe1980/golsh/blobstore"
	"github.com/hupe1980/golsh/dataset"
	"github.com/hupe1980/golsh/distance"
	"github.com/hupe1980/golsh/testutil"
)

func gaussianIndex(t *testing.T, metric distance.Metric) (*golsh.Index, [][]float64) {
	t.Helper()

	rng := testutil.NewRNG(3)
	vectors := rng.GaussianVectors(300, 6)
	ix, err := golsh.New(3, 2.0, 6, golsh.WithMetric(metric), golsh.WithSeed(99))
	require.NoError(t, err)
	require.NoError(t, ix.Build(dataset.Points(vectors)))

	return ix, rng.GaussianVectors(20, 6)
}

func TestRoundTrip(t *testing.T) {
	for _, c := range []CompressionType{CompressionNone, CompressionLZ4, CompressionZSTD} {
		t.Run(c.String(), func(t *testing.T) {
			ix, queries := gaussianIndex(t, distance.Manhattan)

			var buf bytes.Buffer
			require.NoError(t, Write(&buf, ix, Options{Compression: c}))

			restored, err := Read(&buf)
			require.NoError(t, err)

			assert.Equal(t, ix.Params(), restored.Params())
			assert.Equal(t, ix.Len(), restored.Len())
			assert.True(t, restored.Built())
			assert.Equal(t, ix.Stats(), restored.Stats())

			for _, q := range queries {
				want, err := ix.KNNSearch(q, 5)
				require.NoError(t, err)
				got, err := restored.KNNSearch(q, 5)
				require.NoError(t, err)
				assert.Equal(t, want.IDs(), got.IDs())
				assert.Equal(t, want.BucketContent, got.BucketContent)

				wantKeys, err := ix.Keys(q)
				require.NoError(t, err)
				gotKeys, err := restored.Keys(q)
				require.NoError(t, err)
				assert.Equal(t, wantKeys, gotKeys)
			}
		})
	}
}

func TestCompressionShrinksRedundantData(t *testing.T) {
	ix, err := golsh.New(2, 1.0, 2)
	require.NoError(t, err)
	points := make([]golsh.Point, 500)
	for i := range points {
		points[i] = golsh.Point{ID: uint64(i), Vector: []float64{1, 1, 1, 1}}
	}
	require.NoError(t, ix.Build(points))

	var raw, packed bytes.Buffer
	require.NoError(t, Write(&raw, ix, Options{Compression: CompressionNone}))
	require.NoError(t, Write(&packed, ix, DefaultOptions()))
	assert.Less(t, packed.Len(), raw.Len()/2)
}

func TestUnbuiltIndex(t *testing.T) {
	ix, err := golsh.New(4, 3.0, 8, golsh.WithMetric(distance.Angular), golsh.WithDimension(3))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, ix, DefaultOptions()))

	restored, err := Read(&buf)
	require.NoError(t, err)
	assert.False(t, restored.Built())
	assert.Equal(t, 3, restored.Dimension())
	assert.Equal(t, distance.Angular, restored.Params().Metric)
}

func TestCorruption(t *testing.T) {
	ix, _ := gaussianIndex(t, distance.Euclidean)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, ix, Options{Compression: CompressionNone}))
	data := buf.Bytes()

	t.Run("BadMagic", func(t *testing.T) {
		bad := bytes.Clone(data)
		bad[0] = 'X'
		_, err := Read(bytes.NewReader(bad))
		assert.ErrorIs(t, err, ErrBadMagic)
	})

	t.Run("Empty", func(t *testing.T) {
		_, err := Read(bytes.NewReader(nil))
		assert.ErrorIs(t, err, ErrBadMagic)
	})

	t.Run("Version", func(t *testing.T) {
		bad := bytes.Clone(data)
		bad[4] = version + 1
		_, err := Read(bytes.NewReader(bad))
		assert.ErrorIs(t, err, ErrUnsupportedVersion)
	})

	t.Run("Compression", func(t *testing.T) {
		bad := bytes.Clone(data)
		bad[5] = 9
		_, err := Read(bytes.NewReader(bad))
		assert.ErrorIs(t, err, ErrUnknownCompression)
	})

	t.Run("FlippedPayloadByte", func(t *testing.T) {
		bad := bytes.Clone(data)
		bad[6+38+10] ^= 0x01
		_, err := Read(bytes.NewReader(bad))
		assert.ErrorIs(t, err, ErrChecksum)
	})

	t.Run("OversizedDimension", func(t *testing.T) {
		bad := bytes.Clone(data)
		// Dimension follows metric, built, hash count, tables, width and seed.
		binary.LittleEndian.PutUint32(bad[6+26:], math.MaxUint32)
		_, err := Read(bytes.NewReader(bad))
		require.Error(t, err)
		assert.True(t, errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF), err.Error())
	})

	t.Run("Truncated", func(t *testing.T) {
		_, err := Read(bytes.NewReader(data[:len(data)-20]))
		assert.Error(t, err)
	})
}

func TestParseCompression(t *testing.T) {
	for name, want := range map[string]CompressionType{
		"none": CompressionNone,
		"lz4":  CompressionLZ4,
		"zstd": CompressionZSTD,
		"":     CompressionZSTD,
	} {
		got, err := ParseCompression(name)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseCompression("snappy")
	assert.ErrorIs(t, err, ErrUnknownCompression)
}

func TestStore(t *testing.T) {
	ctx := context.Background()
	ix, queries := gaussianIndex(t, distance.Euclidean)

	stores := map[string]blobstore.BlobStore{
		"memory": blobstore.NewMemoryStore(),
		"local":  blobstore.NewLocalStore(t.TempDir()),
	}
	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, Save(ctx, store, "index.glsh", ix, Options{Compression: CompressionLZ4}))

			metrics := &golsh.BasicMetricsCollector{}
			restored, err := Load(ctx, store, "index.glsh", golsh.WithMetricsCollector(metrics))
			require.NoError(t, err)

			want, err := ix.RangeSearch(queries[0], 2.5)
			require.NoError(t, err)
			got, err := restored.RangeSearch(queries[0], 2.5)
			require.NoError(t, err)
			assert.Equal(t, want.IDs(), got.IDs())
			assert.Equal(t, int64(1), metrics.GetStats().RangeSearchCount)
		})
	}

	t.Run("Missing", func(t *testing.T) {
		_, err := Load(ctx, blobstore.NewMemoryStore(), "nope")
		assert.ErrorIs(t, err, blobstore.ErrNotFound)
	})
}

func TestSaveThrottled(t *testing.T) {
	ctx := context.Background()
	ix, _ := gaussianIndex(t, distance.Euclidean)
	store := blobstore.NewMemoryStore()

	opts := Options{Compression: CompressionZSTD, BytesPerSec: 1 << 30}
	require.NoError(t, Save(ctx, store, "throttled", ix, opts))

	restored, err := Load(ctx, store, "throttled")
	require.NoError(t, err)
	assert.Equal(t, ix.Len(), restored.Len())

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	err = Save(canceled, store, "canceled", ix, Options{Compression: CompressionNone, BytesPerSec: 64})
	assert.Error(t, err)
}
