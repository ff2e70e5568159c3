// Package telemetry turns build steps into OpenTelemetry spans and forwards them to a renderer.
package telemetry

import (
	"bytes"
	"sync"
	"time"

	"go.trai.ch/zerr"
)

const (
	// DefaultChunkSize is how many bytes of complete lines are held before they are forwarded.
	DefaultChunkSize = 4096
	// DefaultLinger is how long buffered output may wait, partial lines included.
	DefaultLinger = 50 * time.Millisecond
)

// ErrBatcherClosed is returned by Write after Close.
var ErrBatcherClosed = zerr.New("step output is closed")

// LineBatcher groups step output into chunks for the renderer. Chunks end on
// a line break unless output has lingered for the configured time or the
// batcher is closed, so compiler diagnostics arrive whole.
type LineBatcher struct {
	chunkSize int
	linger    time.Duration
	forward   func([]byte)

	mu     sync.Mutex
	buf    bytes.Buffer
	timer  *time.Timer
	closed bool
}

// NewLineBatcher creates a batcher. Non-positive limits use the defaults.
// forward runs with the batcher locked and must not block.
func NewLineBatcher(chunkSize int, linger time.Duration, forward func([]byte)) *LineBatcher {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if linger <= 0 {
		linger = DefaultLinger
	}
	return &LineBatcher{chunkSize: chunkSize, linger: linger, forward: forward}
}

// Write buffers p and forwards the complete lines once a chunk is full.
func (b *LineBatcher) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0, ErrBatcherClosed
	}
	b.buf.Write(p)

	if b.buf.Len() >= b.chunkSize {
		if i := bytes.LastIndexByte(b.buf.Bytes(), '\n'); i >= 0 {
			b.emitLocked(i + 1)
		}
	}
	if b.buf.Len() > 0 && b.timer == nil {
		b.timer = time.AfterFunc(b.linger, b.expire)
	}
	return len(p), nil
}

// Flush forwards everything buffered, partial lines included.
func (b *LineBatcher) Flush() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.emitLocked(b.buf.Len())
}

// Close flushes and rejects further writes. It is safe to call twice.
func (b *LineBatcher) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.emitLocked(b.buf.Len())
	return nil
}

func (b *LineBatcher) expire() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.timer = nil
	b.emitLocked(b.buf.Len())
}

// emitLocked forwards the first n buffered bytes. Callers hold b.mu.
func (b *LineBatcher) emitLocked(n int) {
	if n == 0 {
		return
	}
	chunk := bytes.Clone(b.buf.Next(n))
	if b.buf.Len() == 0 {
		b.buf.Reset()
	}
	if b.forward != nil {
		b.forward(chunk)
	}
}
