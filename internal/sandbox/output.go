package sandbox

import (
	"bytes"
	"sync"
)

// limitedBuffer collects process output up to a byte cap and silently drops
// the rest, so a print-heavy submission cannot exhaust host memory.
type limitedBuffer struct {
	mu       sync.Mutex
	buf      bytes.Buffer
	limit    int64
	written  int64
	exceeded bool
}

func newLimitedBuffer(limit int64) *limitedBuffer {
	return &limitedBuffer{limit: limit}
}

func (lb *limitedBuffer) Write(p []byte) (int, error) {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	remaining := lb.limit - lb.written
	if remaining <= 0 {
		lb.exceeded = true
		return len(p), nil
	}

	writeLen := int64(len(p))
	if writeLen > remaining {
		writeLen = remaining
		lb.exceeded = true
	}

	n, err := lb.buf.Write(p[:writeLen])
	lb.written += int64(n)
	if err != nil {
		return n, err
	}
	return len(p), nil
}

func (lb *limitedBuffer) String() string {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	return lb.buf.String()
}

func (lb *limitedBuffer) Exceeded() bool {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	return lb.exceeded
}
