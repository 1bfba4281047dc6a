package segment

import (
	"os"
	"testing"

	"janus/internal/record"
)

func mkEvent(ts uint64) record.Event {
	return record.Event{Timestamp: ts, Subject: 1, Predicate: 2, Object: uint32(ts), Graph: 4}
}

func TestWriteQueryRoundTrip(t *testing.T) {
	dir := t.TempDir()
	var events []record.Event
	for i := uint64(0); i < 500; i++ {
		events = append(events, mkEvent(i*10))
	}

	meta, err := Write(dir, 1, events, WriteConfig{SparseInterval: 8, EntriesPerIndexBlock: 16})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if meta.RecordCount != 500 {
		t.Fatalf("RecordCount = %d, want 500", meta.RecordCount)
	}
	if meta.StartTS != 0 || meta.EndTS != 4990 {
		t.Fatalf("range = [%d,%d], want [0,4990]", meta.StartTS, meta.EndTS)
	}

	got, err := Query(meta, 100, 200)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 11 { // 100,110,...,200
		t.Fatalf("got %d records, want 11", len(got))
	}
	for i, e := range got {
		want := uint64(100 + i*10)
		if e.Timestamp != want {
			t.Fatalf("got[%d].Timestamp = %d, want %d", i, e.Timestamp, want)
		}
	}
}

func TestQueryOutOfRangeReturnsEmpty(t *testing.T) {
	dir := t.TempDir()
	events := []record.Event{mkEvent(10), mkEvent(20), mkEvent(30)}
	meta, err := Write(dir, 1, events, WriteConfig{SparseInterval: 1, EntriesPerIndexBlock: 2})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := Query(meta, 1000, 2000)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("got %d records, want 0", len(got))
	}
}

func TestWriteRejectsEmpty(t *testing.T) {
	dir := t.TempDir()
	if _, err := Write(dir, 1, nil, WriteConfig{SparseInterval: 1, EntriesPerIndexBlock: 1}); err == nil {
		t.Fatal("expected error writing empty segment")
	}
}

func TestQueryDetectsCorruption(t *testing.T) {
	dir := t.TempDir()
	var events []record.Event
	for i := uint64(0); i < 50; i++ {
		events = append(events, mkEvent(i))
	}
	meta, err := Write(dir, 1, events, WriteConfig{SparseInterval: 4, EntriesPerIndexBlock: 4})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	f, err := os.OpenFile(meta.DataPath, os.O_RDWR, 0)
	if err != nil {
		t.Fatalf("open data file: %v", err)
	}
	if _, err := f.WriteAt([]byte{0xff}, 3); err != nil {
		t.Fatalf("corrupt data file: %v", err)
	}
	f.Close()

	if _, err := Query(meta, 0, 49); err == nil {
		t.Fatal("expected verification error on corrupted segment")
	}
}

func TestDiscoverRebuildsFromFooter(t *testing.T) {
	dir := t.TempDir()
	var events []record.Event
	for i := uint64(0); i < 200; i++ {
		events = append(events, mkEvent(i*5))
	}
	written, err := Write(dir, 42, events, WriteConfig{SparseInterval: 4, EntriesPerIndexBlock: 8})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	discovered, err := Discover(dir, 4)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(discovered) != 1 {
		t.Fatalf("got %d segments, want 1", len(discovered))
	}
	got := discovered[0]
	if got.StartTS != written.StartTS || got.EndTS != written.EndTS {
		t.Fatalf("recovered range [%d,%d], want [%d,%d]", got.StartTS, got.EndTS, written.StartTS, written.EndTS)
	}
	if got.RecordCount != written.RecordCount {
		t.Fatalf("recovered RecordCount = %d, want %d", got.RecordCount, written.RecordCount)
	}

	queried, err := Query(got, 100, 150)
	if err != nil {
		t.Fatalf("Query on recovered metadata: %v", err)
	}
	if len(queried) == 0 {
		t.Fatal("expected non-empty query result on recovered segment")
	}
}

func TestDiscoverFallsBackWithoutFooter(t *testing.T) {
	dir := t.TempDir()
	var events []record.Event
	for i := uint64(0); i < 40; i++ {
		events = append(events, mkEvent(i*2))
	}
	written, err := Write(dir, 7, events, WriteConfig{SparseInterval: 2, EntriesPerIndexBlock: 4})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := os.Remove(written.FooterPath); err != nil {
		t.Fatalf("remove footer: %v", err)
	}

	discovered, err := Discover(dir, 2)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(discovered) != 1 {
		t.Fatalf("got %d segments, want 1", len(discovered))
	}
	if discovered[0].StartTS != written.StartTS {
		t.Fatalf("heuristic StartTS = %d, want %d", discovered[0].StartTS, written.StartTS)
	}
}

func TestDiscoverEmptyDir(t *testing.T) {
	dir := t.TempDir()
	segments, err := Discover(dir, 1)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(segments) != 0 {
		t.Fatalf("got %d segments, want 0", len(segments))
	}
}

func TestDiscoverMissingDir(t *testing.T) {
	segments, err := Discover("/nonexistent/janus/segments/path", 1)
	if err != nil {
		t.Fatalf("Discover on missing dir: %v", err)
	}
	if segments != nil {
		t.Fatalf("got %v, want nil", segments)
	}
}
