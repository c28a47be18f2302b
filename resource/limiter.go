// Package resource throttles the byte throughput of snapshot and report
// transfers so that large uploads do not saturate a shared link.
package resource

import (
	"context"
	"io"

	"golang.org/x/time/rate"
)

// Limiter bounds IO throughput in bytes per second. A nil *Limiter is
// unlimited.
type Limiter struct {
	lim *rate.Limiter
}

// NewLimiter returns a limiter allowing bytesPerSec bytes per second, or nil
// when bytesPerSec <= 0.
func NewLimiter(bytesPerSec int64) *Limiter {
	if bytesPerSec <= 0 {
		return nil
	}
	burst := int(min(bytesPerSec, 1<<30))
	return &Limiter{lim: rate.NewLimiter(rate.Limit(bytesPerSec), burst)}
}

// WaitN blocks until n bytes may be transferred or ctx is done. Requests
// larger than the burst are split.
func (l *Limiter) WaitN(ctx context.Context, n int) error {
	if l == nil {
		return nil
	}
	burst := l.lim.Burst()
	for n > 0 {
		chunk := min(n, burst)
		if err := l.lim.WaitN(ctx, chunk); err != nil {
			return err
		}
		n -= chunk
	}
	return nil
}

type writer struct {
	ctx context.Context
	w   io.Writer
	l   *Limiter
}

// NewWriter wraps w so that writes are paced by l. A nil l returns w.
func NewWriter(ctx context.Context, w io.Writer, l *Limiter) io.Writer {
	if l == nil {
		return w
	}
	return &writer{ctx: ctx, w: w, l: l}
}

func (w *writer) Write(p []byte) (int, error) {
	if err := w.l.WaitN(w.ctx, len(p)); err != nil {
		return 0, err
	}
	return w.w.Write(p)
}

type reader struct {
	ctx context.Context
	r   io.Reader
	l   *Limiter
}

// NewReader wraps r so that reads are paced by l. A nil l returns r.
func NewReader(ctx context.Context, r io.Reader, l *Limiter) io.Reader {
	if l == nil {
		return r
	}
	return &reader{ctx: ctx, r: r, l: l}
}

// Read charges the limiter for the bytes actually read.
func (r *reader) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	if n > 0 {
		if werr := r.l.WaitN(r.ctx, n); werr != nil {
			return n, werr
		}
	}
	return n, err
}
