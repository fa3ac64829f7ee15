package dedup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Deduplicator remembers the last stored statistics of every (source, term)
// so unchanged snapshots are not indexed again
type Deduplicator struct {
	client     redis.Cmdable
	prefix     string
	defaultTTL time.Duration
}

// NewDeduplicator creates a new Redis-based deduplicator
func NewDeduplicator(client redis.Cmdable, prefix string, defaultTTL time.Duration) *Deduplicator {
	if prefix == "" {
		prefix = "stats:seen"
	}
	if defaultTTL == 0 {
		defaultTTL = 7 * 24 * time.Hour
	}
	return &Deduplicator{
		client:     client,
		prefix:     prefix,
		defaultTTL: defaultTTL,
	}
}

// CheckResult represents the result of checking a snapshot
type CheckResult int

const (
	// ResultNew - term has never been stored
	ResultNew CheckResult = iota
	// ResultUpdated - term was stored with different statistics
	ResultUpdated
	// ResultUnchanged - term was stored with the same statistics
	ResultUnchanged
)

func (r CheckResult) String() string {
	switch r {
	case ResultNew:
		return "new"
	case ResultUpdated:
		return "updated"
	default:
		return "unchanged"
	}
}

// Check compares fingerprint with the one last recorded for source/term
func (d *Deduplicator) Check(ctx context.Context, source, term, fingerprint string) (CheckResult, error) {
	stored, err := d.client.Get(ctx, d.makeKey(source, term)).Result()
	if errors.Is(err, redis.Nil) {
		return ResultNew, nil
	}
	if err != nil {
		return ResultNew, fmt.Errorf("redis get: %w", err)
	}

	if stored != fingerprint {
		return ResultUpdated, nil
	}
	return ResultUnchanged, nil
}

// MarkSeen records fingerprint as the latest statistics for source/term
func (d *Deduplicator) MarkSeen(ctx context.Context, source, term, fingerprint string) error {
	if err := d.client.Set(ctx, d.makeKey(source, term), fingerprint, d.defaultTTL).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (d *Deduplicator) makeKey(source, term string) string {
	return fmt.Sprintf("%s:%s:%s", d.prefix, source, term)
}
