package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/project-tktt/salary-stats/internal/common/dedup"
	"github.com/project-tktt/salary-stats/internal/common/indexer"
	"github.com/project-tktt/salary-stats/internal/domain"
)

// Consumer yields batches of snapshots; an empty batch means nothing arrived in time
type Consumer interface {
	ConsumeBatch(ctx context.Context, maxBatch int) ([]*domain.TermSnapshot, error)
}

// Deduplicator tracks the last stored statistics per source and term
type Deduplicator interface {
	Check(ctx context.Context, source, term, fingerprint string) (dedup.CheckResult, error)
	MarkSeen(ctx context.Context, source, term, fingerprint string) error
}

// Worker moves snapshots from the queue into storage
type Worker struct {
	consumer Consumer
	dedup    Deduplicator
	indexer  indexer.Indexer
	logger   *slog.Logger

	batchSize   int
	concurrency int
}

// Config holds worker configuration
type Config struct {
	Concurrency int
	BatchSize   int
}

// NewWorker creates a new worker. dd may be nil to store every snapshot.
func NewWorker(consumer Consumer, dd Deduplicator, idx indexer.Indexer, cfg Config, logger *slog.Logger) *Worker {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 2
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Worker{
		consumer:    consumer,
		dedup:       dd,
		indexer:     idx,
		logger:      logger.With("component", "worker"),
		batchSize:   cfg.BatchSize,
		concurrency: cfg.Concurrency,
	}
}

// Run starts the worker pool and blocks until ctx is done. Batch failures are
// logged and the snapshots stay unmarked so a later run stores them again.
//
// Check and MarkSeen are not atomic: two workers holding snapshots for the same
// term can both store them. The upsert key is the snapshot ID, so this costs a
// duplicate history row at most.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("starting worker pool", "workers", w.concurrency)

	var wg sync.WaitGroup
	for i := 0; i < w.concurrency; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			w.runSingle(ctx, workerID)
		}(i)
	}

	wg.Wait()
	return ctx.Err()
}

func (w *Worker) runSingle(ctx context.Context, workerID int) {
	log := w.logger.With("worker", workerID)
	log.Debug("worker started")

	for {
		select {
		case <-ctx.Done():
			log.Debug("worker stopping")
			return
		default:
		}

		snapshots, err := w.consumer.ConsumeBatch(ctx, w.batchSize)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Error("consume failed", "error", err)
			continue
		}

		if len(snapshots) == 0 {
			continue
		}

		stored, err := w.Process(ctx, snapshots)
		if err != nil {
			log.Error("index failed", "count", len(snapshots), "error", err)
			continue
		}
		log.Info("batch processed", "received", len(snapshots), "stored", stored)
	}
}

// Process stores the snapshots whose statistics changed since the last stored
// one and returns how many were stored
func (w *Worker) Process(ctx context.Context, snapshots []*domain.TermSnapshot) (int, error) {
	changed := make([]*domain.TermSnapshot, 0, len(snapshots))
	for _, s := range snapshots {
		if w.dedup == nil {
			changed = append(changed, s)
			continue
		}

		result, err := w.dedup.Check(ctx, s.Source, s.Term, s.Fingerprint())
		if err != nil {
			w.logger.Warn("dedup check failed, storing anyway", "term", s.Term, "error", err)
		} else {
			w.logger.Debug("snapshot checked", "source", s.Source, "term", s.Term, "result", result.String())
			if result == dedup.ResultUnchanged {
				continue
			}
		}
		changed = append(changed, s)
	}

	if len(changed) == 0 {
		return 0, nil
	}

	// nothing is marked seen unless every sink accepted the whole batch
	if err := w.indexer.BulkIndex(ctx, changed); err != nil {
		return 0, fmt.Errorf("bulk index: %w", err)
	}

	if w.dedup != nil {
		for _, s := range changed {
			if err := w.dedup.MarkSeen(ctx, s.Source, s.Term, s.Fingerprint()); err != nil {
				w.logger.Warn("mark seen failed", "term", s.Term, "error", err)
			}
		}
	}

	return len(changed), nil
}
