package blobstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
)

// ErrAborted is the error seen by an upload whose blob was aborted.
var ErrAborted = errors.New("blobstore: upload aborted")

// RangeFunc fetches the inclusive byte range [off, end] of a remote object.
type RangeFunc func(ctx context.Context, off, end int64) (io.ReadCloser, error)

// RangedBlob is a Blob over an object store that supports ranged GETs. Each
// read issues one request.
type RangedBlob struct {
	size  int64
	fetch RangeFunc
}

// NewRangedBlob returns a blob of the given size backed by fetch.
func NewRangedBlob(size int64, fetch RangeFunc) *RangedBlob {
	return &RangedBlob{size: size, fetch: fetch}
}

// ReadAt follows io.ReaderAt: a short read at the end of the blob returns
// io.EOF with the bytes read.
func (b *RangedBlob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if off < 0 || off >= b.size {
		return 0, io.EOF
	}
	if len(p) == 0 {
		return 0, nil
	}

	end := min(off+int64(len(p)), b.size) - 1
	body, err := b.fetch(ctx, off, end)
	if err != nil {
		return 0, err
	}
	defer func() { _ = body.Close() }()

	want := int(end - off + 1)
	n, err := io.ReadFull(body, p[:want])
	switch {
	case err != nil:
		return n, err
	case want < len(p):
		return n, io.EOF
	default:
		return n, nil
	}
}

// ReadRange streams up to length bytes starting at off.
func (b *RangedBlob) ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error) {
	if off < 0 || off > b.size {
		return nil, io.EOF
	}
	if off == b.size || length <= 0 {
		return io.NopCloser(bytes.NewReader(nil)), nil
	}
	return b.fetch(ctx, off, min(off+length, b.size)-1)
}

// Size returns the object size captured when the blob was opened.
func (b *RangedBlob) Size() int64 { return b.size }

// Close is a no-op; every read closes its own response.
func (b *RangedBlob) Close() error { return nil }

// PipeBlob is a WritableBlob whose writes are streamed into an upload that
// runs in its own goroutine. The upload reads the written bytes from r and
// commits the object when r reaches EOF.
type PipeBlob struct {
	pw   *io.PipeWriter
	done chan error

	mu     sync.Mutex
	closed bool
	err    error
}

// NewPipeBlob starts upload and returns the blob feeding it.
func NewPipeBlob(upload func(r io.Reader) error) *PipeBlob {
	pr, pw := io.Pipe()
	b := &PipeBlob{pw: pw, done: make(chan error, 1)}

	go func() {
		err := upload(pr)
		_ = pr.CloseWithError(err)
		b.done <- err
	}()
	return b
}

func (b *PipeBlob) Write(p []byte) (int, error) {
	return b.pw.Write(p)
}

// Sync is a no-op; the object is committed by Close.
func (b *PipeBlob) Sync() error { return nil }

// Close ends the stream and waits for the upload result. Further calls
// return the same result.
func (b *PipeBlob) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return b.err
	}
	b.closed = true
	if err := b.pw.Close(); err != nil {
		b.err = err
		return err
	}
	b.err = <-b.done
	return b.err
}

// Abort fails the stream with ErrAborted so the upload never commits, and
// waits for it to return.
func (b *PipeBlob) Abort() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	b.err = ErrAborted
	_ = b.pw.CloseWithError(ErrAborted)
	<-b.done
	return nil
}
