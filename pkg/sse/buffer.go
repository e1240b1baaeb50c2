package sse

import "sync"

///////////////////////////////////////////////////////////////////////////////
// CONSTANTS

// DefaultCapacity is the number of envelopes retained by a Buffer.
const DefaultCapacity = 200

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Buffer retains the most recent envelopes in receive order, newest first.
// Insertion beyond the capacity evicts the oldest envelope; there is no
// other form of mutation or removal. Readers receive copies, so a snapshot
// is never affected by later pushes.
type Buffer struct {
	mu        sync.RWMutex
	capacity  int
	envelopes []Envelope
}

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// NewBuffer creates a buffer retaining up to capacity envelopes. A capacity
// of zero or less uses DefaultCapacity.
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{
		capacity:  capacity,
		envelopes: make([]Envelope, 0, capacity),
	}
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Push inserts an envelope at the head of the buffer, evicting the oldest
// envelope once the capacity is exceeded.
func (b *Buffer) Push(envelope Envelope) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.envelopes) < b.capacity {
		b.envelopes = append(b.envelopes, Envelope{})
	}
	copy(b.envelopes[1:], b.envelopes)
	b.envelopes[0] = envelope
}

// Snapshot returns a copy of the buffer contents, newest first.
func (b *Buffer) Snapshot() []Envelope {
	b.mu.RLock()
	defer b.mu.RUnlock()

	result := make([]Envelope, len(b.envelopes))
	copy(result, b.envelopes)
	return result
}

// Len returns the number of envelopes currently retained.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.envelopes)
}
