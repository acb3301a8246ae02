package queue

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is an in-process Queue with the same lease semantics as the Redis
// implementation. It backs tests and the single-binary serve mode where the
// worker runs embedded next to the API.
type Memory struct {
	mu      sync.Mutex
	pending []string
	bodies  map[string][]byte
	leases  map[string]time.Time

	now func() time.Time
}

// NewMemory creates an empty in-memory queue.
func NewMemory() *Memory {
	return &Memory{
		bodies: make(map[string][]byte),
		leases: make(map[string]time.Time),
		now:    time.Now,
	}
}

// Send enqueues a copy of body.
func (m *Memory) Send(ctx context.Context, body []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.NewString()
	m.bodies[id] = append([]byte(nil), body...)
	m.pending = append(m.pending, id)
	return nil
}

// Receive returns up to max pending messages, leasing each for the given
// window. Messages whose lease has expired are requeued first, so they are
// eligible for redelivery in the same call.
func (m *Memory) Receive(ctx context.Context, max int, lease time.Duration) ([]Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requeueExpired()

	var msgs []Message
	for len(m.pending) > 0 && len(msgs) < max {
		id := m.pending[0]
		m.pending = m.pending[1:]

		body, ok := m.bodies[id]
		if !ok {
			continue // deleted while pending
		}
		m.leases[id] = m.now().Add(lease)
		msgs = append(msgs, Message{ID: id, Body: body})
	}
	return msgs, nil
}

// Delete acknowledges one message. Deleting an unknown or already-deleted
// message is not an error.
func (m *Memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.bodies, id)
	delete(m.leases, id)
	return nil
}

// Len reports how many messages are pending or leased.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.bodies)
}

func (m *Memory) requeueExpired() {
	now := m.now()
	for id, deadline := range m.leases {
		if deadline.After(now) {
			continue
		}
		delete(m.leases, id)
		if _, ok := m.bodies[id]; ok {
			m.pending = append(m.pending, id)
		}
	}
}
