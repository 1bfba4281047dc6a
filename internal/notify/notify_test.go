package notify

import (
	"context"
	"testing"
	"time"
)

func TestNewDisabledWithoutAddr(t *testing.T) {
	n, err := New("", "janus-flushes")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if n != nil {
		t.Fatal("expected nil Notifier when addr is empty")
	}
}

func TestNewRequiresChannel(t *testing.T) {
	if _, err := New("127.0.0.1:6379", ""); err == nil {
		t.Fatal("expected error when channel is empty but addr is set")
	}
}

func TestNilNotifierPublishIsNoop(t *testing.T) {
	var n *Notifier
	if err := n.Publish(context.Background(), FlushNotification{SegmentID: 1}); err != nil {
		t.Fatalf("nil Notifier Publish returned error: %v", err)
	}
	if err := n.Close(); err != nil {
		t.Fatalf("nil Notifier Close returned error: %v", err)
	}
}

func TestPublishFailsFastWhenUnreachable(t *testing.T) {
	n, err := New("127.0.0.1:1", "janus-flushes")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer n.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := n.Publish(ctx, FlushNotification{SegmentID: 1, StartTS: 10, EndTS: 20, RecordCount: 5}); err == nil {
		t.Fatal("expected publish error against an unreachable address")
	}
}
