package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/project-tktt/salary-stats/internal/domain"
	"github.com/redis/go-redis/v9"
)

// Consumer consumes term snapshots from a Redis queue
type Consumer struct {
	client    redis.Cmdable
	queueName string
	timeout   time.Duration
}

// NewConsumer creates a new queue consumer
func NewConsumer(client redis.Cmdable, queueName string, timeout time.Duration) *Consumer {
	if queueName == "" {
		queueName = DefaultQueue
	}
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &Consumer{
		client:    client,
		queueName: queueName,
		timeout:   timeout,
	}
}

// ConsumeBatch consumes up to maxBatch snapshots from the queue.
// BRPOP blocks for the first item, then RPOP drains the rest without waiting.
// An empty batch means the wait timed out.
func (c *Consumer) ConsumeBatch(ctx context.Context, maxBatch int) ([]*domain.TermSnapshot, error) {
	snapshots := make([]*domain.TermSnapshot, 0, maxBatch)

	result, err := c.client.BRPop(ctx, c.timeout, c.queueName).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return snapshots, nil
		}
		return nil, fmt.Errorf("brpop: %w", err)
	}

	if len(result) >= 2 {
		if s, err := decode(result[1]); err == nil {
			snapshots = append(snapshots, s)
		}
	}

	for i := 1; i < maxBatch; i++ {
		result, err := c.client.RPop(ctx, c.queueName).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				break
			}
			return snapshots, fmt.Errorf("rpop: %w", err)
		}

		s, err := decode(result)
		if err != nil {
			continue // skip malformed entries
		}
		snapshots = append(snapshots, s)
	}

	return snapshots, nil
}

func decode(raw string) (*domain.TermSnapshot, error) {
	var s domain.TermSnapshot
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return &s, nil
}
