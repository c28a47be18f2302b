package resource

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLimiter(t *testing.T) {
	assert.Nil(t, NewLimiter(0))
	assert.Nil(t, NewLimiter(-5))
	assert.NotNil(t, NewLimiter(1024))

	var unlimited *Limiter
	assert.NoError(t, unlimited.WaitN(context.Background(), 1<<40))
}

func TestWriter(t *testing.T) {
	t.Run("Unlimited", func(t *testing.T) {
		var buf bytes.Buffer
		w := NewWriter(context.Background(), &buf, nil)
		assert.Same(t, &buf, w)
	})

	t.Run("Paced", func(t *testing.T) {
		// 1000 B/s with a 1000 byte burst: the first 1000 bytes pass
		// immediately, the next 100 wait about 100ms.
		var buf bytes.Buffer
		w := NewWriter(context.Background(), &buf, NewLimiter(1000))

		start := time.Now()
		_, err := w.Write(make([]byte, 1000))
		require.NoError(t, err)
		_, err = w.Write(make([]byte, 100))
		require.NoError(t, err)

		assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
		assert.Equal(t, 1100, buf.Len())
	})

	t.Run("Canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		w := NewWriter(ctx, io.Discard, NewLimiter(10))
		_, err := w.Write(make([]byte, 10))
		require.NoError(t, err)

		cancel()
		_, err = w.Write(make([]byte, 10))
		assert.Error(t, err)
	})
}

func TestReader(t *testing.T) {
	data := bytes.Repeat([]byte("x"), 4096)
	r := NewReader(context.Background(), bytes.NewReader(data), NewLimiter(1<<20))

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	plain := bytes.NewReader(data)
	assert.Same(t, plain, NewReader(context.Background(), plain, nil))
}
