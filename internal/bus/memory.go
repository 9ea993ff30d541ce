package bus

import (
	"context"
	"fmt"
	"sync"
)

const memoryBufferSize = 1000

// MemoryBus is an in-process Publisher used for single-node runs and
// tests. Messages are retained per subject up to a fixed cap; older
// messages are dropped first, like a bounded stream.
type MemoryBus struct {
	mu       sync.RWMutex
	messages map[string][][]byte
	closed   bool
}

// NewMemoryBus creates a new in-memory bus
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{
		messages: make(map[string][][]byte),
	}
}

// Publish appends a message to the subject's buffer
func (b *MemoryBus) Publish(ctx context.Context, subject string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return fmt.Errorf("memory bus is closed")
	}

	buf := b.messages[subject]
	cp := make([]byte, len(data))
	copy(cp, data)
	buf = append(buf, cp)
	if len(buf) > memoryBufferSize {
		buf = buf[len(buf)-memoryBufferSize:]
	}
	b.messages[subject] = buf
	return nil
}

// Pending returns the buffered messages for a subject, oldest first
func (b *MemoryBus) Pending(subject string) [][]byte {
	b.mu.RLock()
	defer b.mu.RUnlock()

	buf := b.messages[subject]
	out := make([][]byte, len(buf))
	copy(out, buf)
	return out
}

// Close closes the bus
func (b *MemoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.messages = make(map[string][][]byte)
	return nil
}
