package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Redis implements Queue on a Redis instance using the reliable-queue
// pattern: message ids travel from a pending list to a per-queue processing
// list on receive, a sorted set tracks lease deadlines, and a reaper moves
// expired ids back to pending. Bodies live in a hash keyed by id, so a
// message is only ever stored once however often it is redelivered.
type Redis struct {
	client *redis.Client

	pendingKey    string
	processingKey string
	leaseKey      string
	bodyKey       string
}

// NewRedis creates a queue on client, namespaced under prefix.
func NewRedis(client *redis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = "wortschatz"
	}
	return &Redis{
		client:        client,
		pendingKey:    prefix + ":pending",
		processingKey: prefix + ":processing",
		leaseKey:      prefix + ":leases",
		bodyKey:       prefix + ":bodies",
	}
}

// receiveScript moves one id from pending to processing and records its
// lease deadline in the same atomic step. An id in the processing list
// therefore always has a lease entry, so the reaper can always find it.
var receiveScript = redis.NewScript(`
local id = redis.call('LMOVE', KEYS[1], KEYS[2], 'RIGHT', 'LEFT')
if not id then
	return false
end
redis.call('ZADD', KEYS[3], ARGV[1], id)
return id
`)

// Send enqueues body. Failures are wrapped in ErrUnavailable.
func (q *Redis) Send(ctx context.Context, body []byte) error {
	id := uuid.NewString()

	pipe := q.client.TxPipeline()
	pipe.HSet(ctx, q.bodyKey, id, body)
	pipe.LPush(ctx, q.pendingKey, id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Receive leases up to max messages for the given window. Each id moves
// to the processing list and gains its lease in one atomic script, so a
// crash mid-receive cannot strand an id without a lease. Expired leases
// are requeued first so redeliveries and fresh messages share one path.
func (q *Redis) Receive(ctx context.Context, max int, lease time.Duration) ([]Message, error) {
	if err := q.requeueExpired(ctx); err != nil {
		return nil, err
	}

	deadline := time.Now().Add(lease)
	var msgs []Message
	for len(msgs) < max {
		id, err := receiveScript.Run(ctx, q.client,
			[]string{q.pendingKey, q.processingKey, q.leaseKey},
			deadline.UnixMilli()).Text()
		if err == redis.Nil {
			break
		}
		if err != nil {
			return msgs, fmt.Errorf("failed to receive message: %w", err)
		}

		body, err := q.client.HGet(ctx, q.bodyKey, id).Bytes()
		if err == redis.Nil {
			// Body was deleted under an expired lease; drop the stale id.
			pipe := q.client.TxPipeline()
			pipe.LRem(ctx, q.processingKey, 1, id)
			pipe.ZRem(ctx, q.leaseKey, id)
			pipe.Exec(ctx)
			continue
		}
		if err != nil {
			// The id already holds its lease, so the reaper redelivers it
			// after the lease expires.
			return msgs, fmt.Errorf("failed to load message body: %w", err)
		}
		msgs = append(msgs, Message{ID: id, Body: body})
	}
	return msgs, nil
}

// Delete acknowledges one message and discards its body.
func (q *Redis) Delete(ctx context.Context, id string) error {
	pipe := q.client.TxPipeline()
	pipe.LRem(ctx, q.processingKey, 0, id)
	pipe.ZRem(ctx, q.leaseKey, id)
	pipe.HDel(ctx, q.bodyKey, id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete message %s: %w", id, err)
	}
	return nil
}

func (q *Redis) requeueExpired(ctx context.Context) error {
	now := time.Now().UnixMilli()
	ids, err := q.client.ZRangeByScore(ctx, q.leaseKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: fmt.Sprintf("%d", now),
	}).Result()
	if err != nil {
		return fmt.Errorf("failed to scan leases: %w", err)
	}

	for _, id := range ids {
		pipe := q.client.TxPipeline()
		pipe.LRem(ctx, q.processingKey, 0, id)
		pipe.ZRem(ctx, q.leaseKey, id)
		pipe.LPush(ctx, q.pendingKey, id)
		if _, err := pipe.Exec(ctx); err != nil {
			return fmt.Errorf("failed to requeue expired message %s: %w", id, err)
		}
	}
	return nil
}
