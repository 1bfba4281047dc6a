package flusher

import (
	"path/filepath"
	"testing"
	"time"

	"janus/internal/buffer"
	"janus/internal/record"
	"janus/internal/registry"
	"janus/internal/segment"
)

func TestFlusherFlushesOnEventCountThreshold(t *testing.T) {
	dir := t.TempDir()
	buf := buffer.New()
	reg := registry.New()

	thresholds := buffer.Thresholds{MaxEvents: 5, MaxBytes: 1 << 30, MaxAgeSeconds: 3600}
	writeCfg := segment.WriteConfig{SparseInterval: 1, EntriesPerIndexBlock: 2}

	f := New(buf, reg, nil, dir, thresholds, writeCfg, 0)
	f.Start()
	defer f.Stop()

	for i := uint64(0); i < 5; i++ {
		buf.Write(record.Event{Timestamp: i, Subject: 1, Predicate: 2, Object: 3, Graph: 4})
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if reg.Len() > 0 {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}

	if reg.Len() != 1 {
		t.Fatalf("registry has %d segments, want 1", reg.Len())
	}
	segments := reg.Segments()
	if segments[0].RecordCount != 5 {
		t.Fatalf("RecordCount = %d, want 5", segments[0].RecordCount)
	}
}

func TestFlusherFinalFlushOnStop(t *testing.T) {
	dir := t.TempDir()
	buf := buffer.New()
	reg := registry.New()

	thresholds := buffer.Thresholds{MaxEvents: 1_000_000, MaxBytes: 1 << 30, MaxAgeSeconds: 3600}
	writeCfg := segment.WriteConfig{SparseInterval: 1, EntriesPerIndexBlock: 2}

	f := New(buf, reg, nil, dir, thresholds, writeCfg, 100)
	f.Start()

	buf.Write(record.Event{Timestamp: 1, Subject: 1, Predicate: 1, Object: 1, Graph: 1})
	buf.Write(record.Event{Timestamp: 2, Subject: 1, Predicate: 1, Object: 1, Graph: 1})

	f.Stop()

	if reg.Len() != 1 {
		t.Fatalf("registry has %d segments after Stop, want 1", reg.Len())
	}
	if buf.Len() != 0 {
		t.Fatalf("buffer has %d events after final flush, want 0", buf.Len())
	}
	segments := reg.Segments()
	if segments[0].RecordCount != 2 {
		t.Fatalf("RecordCount = %d, want 2", segments[0].RecordCount)
	}
}

func TestFlusherAssignsSequentialSegmentIDs(t *testing.T) {
	dir := t.TempDir()
	buf := buffer.New()
	reg := registry.New()

	thresholds := buffer.Thresholds{MaxEvents: 2, MaxBytes: 1 << 30, MaxAgeSeconds: 3600}
	writeCfg := segment.WriteConfig{SparseInterval: 1, EntriesPerIndexBlock: 2}

	f := New(buf, reg, nil, dir, thresholds, writeCfg, 7)
	f.Start()
	defer f.Stop()

	for i := uint64(0); i < 2; i++ {
		buf.Write(record.Event{Timestamp: i, Subject: 1, Predicate: 1, Object: 1, Graph: 1})
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && reg.Len() == 0 {
		time.Sleep(20 * time.Millisecond)
	}
	if reg.Len() != 1 {
		t.Fatalf("registry has %d segments, want 1", reg.Len())
	}

	for i := uint64(2); i < 4; i++ {
		buf.Write(record.Event{Timestamp: i, Subject: 1, Predicate: 1, Object: 1, Graph: 1})
	}
	deadline = time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && reg.Len() < 2 {
		time.Sleep(20 * time.Millisecond)
	}
	segments := reg.Segments()
	if len(segments) != 2 {
		t.Fatalf("registry has %d segments, want 2", len(segments))
	}
	if a, b := filepath.Base(segments[0].DataPath), filepath.Base(segments[1].DataPath); a != "segment-7.log" || b != "segment-8.log" {
		t.Fatalf("segment files = %s, %s; want segment-7.log, segment-8.log", a, b)
	}
}
