// Package flusher runs the background loop that drains a buffer.Buffer into
// immutable segments once one of its flush thresholds trips.
package flusher

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"janus/internal/buffer"
	"janus/internal/logger"
	"janus/internal/notify"
	"janus/internal/registry"
	"janus/internal/segment"
)

// pollInterval is the flusher's poll cadence: frequent enough that the
// age threshold is honored within roughly 100ms of tripping.
const pollInterval = 100 * time.Millisecond

var log = logger.Named("flusher")

// Flusher owns the background goroutine that watches a Buffer against
// Thresholds and, once tripped, writes a new segment and registers it.
type Flusher struct {
	buf        *buffer.Buffer
	reg        *registry.Registry
	notifier   *notify.Notifier
	baseDir    string
	thresholds buffer.Thresholds
	writeCfg   segment.WriteConfig

	nextID atomic.Uint64

	mu     sync.Mutex
	ticker *time.Ticker
	stopCh chan struct{}
	doneCh chan struct{}
}

// New builds a Flusher. nextSegmentID should be one past the highest
// segment id found during startup recovery, so ids stay strictly
// increasing across restarts.
func New(buf *buffer.Buffer, reg *registry.Registry, notifier *notify.Notifier, baseDir string, thresholds buffer.Thresholds, writeCfg segment.WriteConfig, nextSegmentID uint64) *Flusher {
	f := &Flusher{
		buf:        buf,
		reg:        reg,
		notifier:   notifier,
		baseDir:    baseDir,
		thresholds: thresholds,
		writeCfg:   writeCfg,
	}
	f.nextID.Store(nextSegmentID)
	return f
}

// Start launches the background poll loop. Calling Start more than once
// without an intervening Stop is a no-op.
func (f *Flusher) Start() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ticker != nil {
		return
	}
	f.ticker = time.NewTicker(pollInterval)
	f.stopCh = make(chan struct{})
	f.doneCh = make(chan struct{})
	go f.loop()
}

func (f *Flusher) loop() {
	defer close(f.doneCh)
	for {
		select {
		case <-f.ticker.C:
			f.maybeFlush()
		case <-f.stopCh:
			f.flushFinal()
			return
		}
	}
}

func (f *Flusher) maybeFlush() {
	nowMS := uint64(time.Now().UnixMilli())
	if !f.buf.ShouldFlush(nowMS, f.thresholds) {
		return
	}
	if err := f.flushOnce(); err != nil {
		log.Error("flush failed: %v", err)
	}
}

// flushFinal drains and writes whatever remains, regardless of thresholds,
// on shutdown, so a clean stop never drops buffered events.
func (f *Flusher) flushFinal() {
	if f.buf.Len() == 0 {
		return
	}
	if err := f.flushOnce(); err != nil {
		log.Error("final flush failed: %v", err)
	}
}

func (f *Flusher) flushOnce() error {
	events := f.buf.Drain()
	if len(events) == 0 {
		return nil
	}

	// TODO: if janus ever runs multiple flushers against the same baseDir,
	// this counter needs to move behind a shared allocator (e.g. a lock
	// file or an atomic rename-based claim) to rule out id collisions.
	id := f.nextID.Add(1) - 1
	meta, err := segment.Write(f.baseDir, id, events, f.writeCfg)
	if err != nil {
		return fmt.Errorf("flusher: write segment %d: %w", id, err)
	}
	f.reg.Append(meta)
	log.Info("wrote segment %d (%d records, ts [%d,%d])", id, meta.RecordCount, meta.StartTS, meta.EndTS)

	if f.notifier != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err := f.notifier.Publish(ctx, notify.FlushNotification{
			SegmentID:   id,
			StartTS:     meta.StartTS,
			EndTS:       meta.EndTS,
			RecordCount: meta.RecordCount,
		})
		cancel()
		if err != nil {
			log.Warn("notify failed for segment %d: %v", id, err)
		}
	}
	return nil
}

// Stop halts the poll loop after performing one final synchronous flush of
// any remaining buffered events, then blocks until the loop has exited.
// When the loop is not running (never started, or already stopped), Stop
// performs the final flush directly.
func (f *Flusher) Stop() {
	f.mu.Lock()
	if f.ticker == nil {
		f.mu.Unlock()
		f.flushFinal()
		return
	}
	ticker, stopCh, doneCh := f.ticker, f.stopCh, f.doneCh
	f.ticker = nil
	f.mu.Unlock()

	ticker.Stop()
	close(stopCh)
	<-doneCh
}
