package registry

import (
	"testing"

	"janus/internal/segment"
)

func TestAppendKeepsSortedOrder(t *testing.T) {
	r := New()
	r.Append(segment.Metadata{StartTS: 300, EndTS: 400})
	r.Append(segment.Metadata{StartTS: 100, EndTS: 200})
	r.Append(segment.Metadata{StartTS: 500, EndTS: 600})

	got := r.Segments()
	if len(got) != 3 {
		t.Fatalf("got %d segments, want 3", len(got))
	}
	if got[0].StartTS != 100 || got[1].StartTS != 300 || got[2].StartTS != 500 {
		t.Fatalf("not sorted: %v", got)
	}
}

func TestOverlapping(t *testing.T) {
	r := New()
	r.Append(segment.Metadata{StartTS: 0, EndTS: 99})
	r.Append(segment.Metadata{StartTS: 100, EndTS: 199})
	r.Append(segment.Metadata{StartTS: 200, EndTS: 299})

	got := r.Overlapping(50, 150)
	if len(got) != 2 {
		t.Fatalf("got %d overlapping segments, want 2", len(got))
	}
	if got[0].StartTS != 0 || got[1].StartTS != 100 {
		t.Fatalf("wrong overlap set: %v", got)
	}
}

func TestOverlappingNoneMatch(t *testing.T) {
	r := New()
	r.Append(segment.Metadata{StartTS: 0, EndTS: 99})
	if got := r.Overlapping(1000, 2000); len(got) != 0 {
		t.Fatalf("got %d, want 0", len(got))
	}
}

func TestLoadPreservesAndSorts(t *testing.T) {
	r := Load([]segment.Metadata{
		{StartTS: 50, EndTS: 60},
		{StartTS: 10, EndTS: 20},
	})
	if r.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", r.Len())
	}
	got := r.Segments()
	if got[0].StartTS != 10 {
		t.Fatalf("Load did not sort: %v", got)
	}
}
