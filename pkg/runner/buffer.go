package runner

import (
	"bytes"
	"sync"
)

// cappedBuffer is an append-only writer bounded at cap bytes. Writes past
// the cap are counted but discarded, and the truncation is flagged so the
// process record can say so explicitly. The buffer is frozen once the
// runner finalizes the record; raw bytes are stored untouched, the runner
// never parses target output.
type cappedBuffer struct {
	mu        sync.Mutex
	buf       bytes.Buffer
	cap       int
	truncated bool
}

func newCappedBuffer(capacity int) *cappedBuffer {
	return &cappedBuffer{cap: capacity}
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	remaining := b.cap - b.buf.Len()
	switch {
	case remaining <= 0:
		if len(p) > 0 {
			b.truncated = true
		}
	case len(p) > remaining:
		b.buf.Write(p[:remaining])
		b.truncated = true
	default:
		b.buf.Write(p)
	}
	// Report full consumption so the child never blocks on a full buffer.
	return len(p), nil
}

func (b *cappedBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]byte, b.buf.Len())
	copy(out, b.buf.Bytes())
	return out
}

func (b *cappedBuffer) Truncated() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.truncated
}
