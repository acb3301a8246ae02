package queue

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable wraps transport failures on enqueue so callers can tell
// "the queue rejected the send" apart from bad input and retry upstream.
var ErrUnavailable = errors.New("queue unavailable")

// Message is one in-flight work item.
type Message struct {
	ID   string
	Body []byte
}

// Queue is the delivery contract the pipeline depends on, regardless of
// backing technology.
//
// Delivery is at least once: a message may be received again after its
// lease expires, but is never dropped without an explicit Delete. Receive
// returns at most max messages (batch size one is a valid configuration)
// and leases each for the given window. Delete acknowledges exactly one
// message, so one failed item in a batch never blocks acknowledging the
// items that succeeded.
type Queue interface {
	Send(ctx context.Context, body []byte) error
	Receive(ctx context.Context, max int, lease time.Duration) ([]Message, error)
	Delete(ctx context.Context, id string) error
}
