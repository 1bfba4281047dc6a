// Package buffer implements the in-memory FIFO staging area that absorbs
// writes between flushes.
package buffer

import (
	"sync"

	"janus/internal/record"
)

// Thresholds configure when a flush should be triggered. Any one of the
// three crossing its limit is sufficient.
type Thresholds struct {
	MaxEvents     int
	MaxBytes      int64
	MaxAgeSeconds int64
}

// eventSize is the in-memory footprint charged per buffered event for the
// byte-threshold check; it tracks the on-disk record size so the threshold
// means roughly "this many bytes on disk", not an arbitrary unit.
const eventSize = int64(record.Size)

// Buffer is a FIFO of encoded events guarded by a single RWMutex. Writers
// take the write lock briefly to append; the flusher takes the write lock
// to drain; readers take the read lock to scan.
type Buffer struct {
	mu         sync.RWMutex
	events     []record.Event
	totalBytes int64
	oldestTS   uint64
	newestTS   uint64
	hasEvents  bool
}

// New returns an empty Buffer.
func New() *Buffer {
	return &Buffer{}
}

// Write appends one event. Write never performs I/O and never flushes
// synchronously; the background flusher is the sole flush trigger under
// normal operation.
func (b *Buffer) Write(e record.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.hasEvents {
		b.oldestTS = e.Timestamp
		b.hasEvents = true
	}
	b.newestTS = e.Timestamp
	b.totalBytes += eventSize
	b.events = append(b.events, e)
}

// Len returns the current number of buffered events.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.events)
}

// ShouldFlush reports whether any threshold has been crossed, given the
// current wall-clock time in epoch milliseconds.
func (b *Buffer) ShouldFlush(nowMS uint64, t Thresholds) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if len(b.events) >= t.MaxEvents {
		return true
	}
	if b.totalBytes >= t.MaxBytes {
		return true
	}
	if b.hasEvents {
		age := int64(0)
		if nowMS > b.oldestTS {
			age = int64(nowMS - b.oldestTS)
		}
		if age >= t.MaxAgeSeconds*1000 {
			return true
		}
	}
	return false
}

// Scan returns every buffered event with ts in [start, end], inclusive.
func (b *Buffer) Scan(start, end uint64) []record.Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var out []record.Event
	for _, e := range b.events {
		if e.Timestamp >= start && e.Timestamp <= end {
			out = append(out, e)
		}
	}
	return out
}

// Drain atomically removes and returns all buffered events, resetting the
// buffer to empty. There are no partial drains: either every event present
// at the time of the call is returned, or (if the buffer was empty) nil is
// returned and nothing changes.
func (b *Buffer) Drain() []record.Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.events) == 0 {
		return nil
	}
	drained := b.events
	b.events = nil
	b.totalBytes = 0
	b.oldestTS = 0
	b.newestTS = 0
	b.hasEvents = false
	return drained
}
