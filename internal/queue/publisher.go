package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/project-tktt/salary-stats/internal/domain"
	"github.com/redis/go-redis/v9"
)

// DefaultQueue is the Redis list term snapshots are pushed to
const DefaultQueue = "stats:snapshots"

// Publisher pushes term snapshots to a Redis queue
type Publisher struct {
	client    redis.Cmdable
	queueName string
}

// NewPublisher creates a new queue publisher
func NewPublisher(client redis.Cmdable, queueName string) *Publisher {
	if queueName == "" {
		queueName = DefaultQueue
	}
	return &Publisher{
		client:    client,
		queueName: queueName,
	}
}

// Publish pushes a single snapshot to the queue
func (p *Publisher) Publish(ctx context.Context, snapshot *domain.TermSnapshot) error {
	return p.push(ctx, p.client, snapshot)
}

// PublishReport pushes every successfully collected term of a report in one pipeline
func (p *Publisher) PublishReport(ctx context.Context, report *domain.Report) (int, error) {
	snapshots := report.Snapshots()
	switch len(snapshots) {
	case 0:
		return 0, nil
	case 1:
		if err := p.Publish(ctx, snapshots[0]); err != nil {
			return 0, err
		}
		return 1, nil
	}

	pipe := p.client.Pipeline()
	for _, s := range snapshots {
		if err := p.push(ctx, pipe, s); err != nil {
			return 0, err
		}
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("pipeline exec: %w", err)
	}

	return len(snapshots), nil
}

// push queues an LPUSH of snapshot on cmd, which is either the client or a pipeline
func (p *Publisher) push(ctx context.Context, cmd redis.Cmdable, snapshot *domain.TermSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := cmd.LPush(ctx, p.queueName, data).Err(); err != nil {
		return fmt.Errorf("lpush: %w", err)
	}

	return nil
}

// QueueLength returns the current queue length
func (p *Publisher) QueueLength(ctx context.Context) (int64, error) {
	return p.client.LLen(ctx, p.queueName).Result()
}
