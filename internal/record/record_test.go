package record

import "testing"

func TestEncodeDecodeRoundTrip(t *testing.T) {
	e := Event{Timestamp: 1717171717171, Subject: 1, Predicate: 2, Object: 3, Graph: 4}
	buf := make([]byte, Size)
	Encode(buf, e)

	got, err := Decode(buf)
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if got != e {
		t.Fatalf("round-trip mismatch: got %+v, want %+v", got, e)
	}
}

func TestDecodeInvalidLength(t *testing.T) {
	if _, err := Decode(make([]byte, Size-1)); err == nil {
		t.Fatal("expected error for short buffer, got nil")
	}
	if _, err := Decode(make([]byte, Size+1)); err == nil {
		t.Fatal("expected error for long buffer, got nil")
	}
}

func TestEncodePanicsOnBadLength(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for bad buffer length")
		}
	}()
	Encode(make([]byte, Size-1), Event{})
}
