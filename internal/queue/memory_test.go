package queue

import (
	"context"
	"testing"
	"time"
)

func TestMemorySendReceiveDelete(t *testing.T) {
	q := NewMemory()
	ctx := context.Background()

	if err := q.Send(ctx, []byte("one")); err != nil {
		t.Fatalf("Send() error: %v", err)
	}
	if err := q.Send(ctx, []byte("two")); err != nil {
		t.Fatalf("Send() error: %v", err)
	}

	msgs, err := q.Receive(ctx, 10, time.Minute)
	if err != nil {
		t.Fatalf("Receive() error: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("Receive() returned %d messages, want 2", len(msgs))
	}
	if string(msgs[0].Body) != "one" || string(msgs[1].Body) != "two" {
		t.Errorf("bodies out of order: %q, %q", msgs[0].Body, msgs[1].Body)
	}

	// Leased messages are invisible to further receives.
	again, err := q.Receive(ctx, 10, time.Minute)
	if err != nil {
		t.Fatalf("Receive() error: %v", err)
	}
	if len(again) != 0 {
		t.Errorf("leased messages redelivered early: %d", len(again))
	}

	for _, m := range msgs {
		if err := q.Delete(ctx, m.ID); err != nil {
			t.Fatalf("Delete() error: %v", err)
		}
	}
	if q.Len() != 0 {
		t.Errorf("Len() = %d after delete, want 0", q.Len())
	}
}

func TestMemoryReceiveRespectsMax(t *testing.T) {
	q := NewMemory()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := q.Send(ctx, []byte{byte(i)}); err != nil {
			t.Fatalf("Send() error: %v", err)
		}
	}

	msgs, err := q.Receive(ctx, 2, time.Minute)
	if err != nil {
		t.Fatalf("Receive() error: %v", err)
	}
	if len(msgs) != 2 {
		t.Errorf("Receive(max=2) returned %d messages", len(msgs))
	}
}

func TestMemoryLeaseExpiryRedelivers(t *testing.T) {
	q := NewMemory()
	ctx := context.Background()

	now := time.Now()
	q.now = func() time.Time { return now }

	if err := q.Send(ctx, []byte("job")); err != nil {
		t.Fatalf("Send() error: %v", err)
	}

	msgs, err := q.Receive(ctx, 1, time.Minute)
	if err != nil {
		t.Fatalf("Receive() error: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("Receive() returned %d messages, want 1", len(msgs))
	}
	firstID := msgs[0].ID

	// Consumer dies; the lease runs out.
	now = now.Add(2 * time.Minute)

	redelivered, err := q.Receive(ctx, 1, time.Minute)
	if err != nil {
		t.Fatalf("Receive() error: %v", err)
	}
	if len(redelivered) != 1 {
		t.Fatalf("expired message not redelivered")
	}
	if redelivered[0].ID != firstID || string(redelivered[0].Body) != "job" {
		t.Errorf("redelivered message mismatch: %+v", redelivered[0])
	}
}

func TestMemoryDeleteWhileLeased(t *testing.T) {
	q := NewMemory()
	ctx := context.Background()

	now := time.Now()
	q.now = func() time.Time { return now }

	if err := q.Send(ctx, []byte("job")); err != nil {
		t.Fatalf("Send() error: %v", err)
	}
	msgs, _ := q.Receive(ctx, 1, time.Minute)
	if err := q.Delete(ctx, msgs[0].ID); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}

	// Even after the lease window, an acknowledged message must not return.
	now = now.Add(2 * time.Minute)
	redelivered, err := q.Receive(ctx, 1, time.Minute)
	if err != nil {
		t.Fatalf("Receive() error: %v", err)
	}
	if len(redelivered) != 0 {
		t.Errorf("acknowledged message redelivered: %+v", redelivered)
	}
}

func TestMemoryDeleteUnknownID(t *testing.T) {
	q := NewMemory()
	if err := q.Delete(context.Background(), "no-such-id"); err != nil {
		t.Errorf("Delete() of unknown id returned error: %v", err)
	}
}
