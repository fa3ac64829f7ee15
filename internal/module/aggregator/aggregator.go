package aggregator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/project-tktt/salary-stats/internal/common/normalizer"
	"github.com/project-tktt/salary-stats/internal/domain"
)

// Searcher fetches every listing for a term from one source
type Searcher interface {
	Search(ctx context.Context, term string) (*domain.SearchResult, error)
	Name() domain.JobSource
	Currency() string
}

// TermHandler is called once a term has been collected, successfully or not
type TermHandler func(stats *domain.TermStatistics)

// Config holds aggregator configuration
type Config struct {
	// Concurrency is the number of terms collected at once. 1 keeps collection strictly sequential.
	Concurrency int
	// FailFast aborts the whole run on the first failed term
	FailFast bool
	OnTerm   TermHandler
}

// Aggregator collects per-term salary statistics from a single source
type Aggregator struct {
	searcher   Searcher
	normalizer *normalizer.Normalizer
	config     Config
	logger     *slog.Logger
}

// NewAggregator creates a new aggregator over searcher
func NewAggregator(searcher Searcher, cfg Config, logger *slog.Logger) *Aggregator {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Aggregator{
		searcher:   searcher,
		normalizer: normalizer.NewNormalizer(searcher.Currency()),
		config:     cfg,
		logger:     logger.With("component", "aggregator", "source", string(searcher.Name())),
	}
}

// Run aggregates terms and wraps the table into a report with a fresh run ID
func (a *Aggregator) Run(ctx context.Context, terms []string) (*domain.Report, error) {
	table, err := a.Aggregate(ctx, terms)
	if table == nil {
		return nil, err
	}
	return &domain.Report{
		RunID:       uuid.NewString(),
		Source:      a.searcher.Name(),
		CollectedAt: time.Now().UTC(),
		Table:       table,
	}, err
}

// Aggregate builds a statistics table for terms, in input order.
//
// A term whose fetch fails is recorded with its error and zero counters, and
// the returned error joins every term failure. With FailFast set the first
// failure is returned alone and the table is nil.
func (a *Aggregator) Aggregate(ctx context.Context, terms []string) (*domain.StatisticsTable, error) {
	var (
		results []*domain.TermStatistics
		err     error
	)
	if a.config.Concurrency == 1 || len(terms) <= 1 {
		results, err = a.collectSequential(ctx, terms)
	} else {
		results, err = a.collectConcurrent(ctx, terms)
	}
	if err != nil {
		return nil, err
	}

	table := domain.NewStatisticsTable()
	var errs []error
	for _, stats := range results {
		table.Set(stats)
		if stats.Failed() {
			errs = append(errs, stats.Err)
		}
	}
	return table, errors.Join(errs...)
}

func (a *Aggregator) collectSequential(ctx context.Context, terms []string) ([]*domain.TermStatistics, error) {
	results := make([]*domain.TermStatistics, 0, len(terms))
	for _, term := range terms {
		stats, err := a.collectTerm(ctx, term)
		if err != nil && a.config.FailFast {
			return nil, err
		}
		results = append(results, stats)
	}
	return results, nil
}

func (a *Aggregator) collectConcurrent(ctx context.Context, terms []string) ([]*domain.TermStatistics, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]*domain.TermStatistics, len(terms))
	sem := make(chan struct{}, a.config.Concurrency)

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)

	for i, term := range terms {
		wg.Add(1)
		go func(i int, term string) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				results[i] = a.fail(term, ctx.Err())
				return
			}
			defer func() { <-sem }()

			stats, err := a.collectTerm(ctx, term)
			if err != nil && a.config.FailFast {
				once.Do(func() {
					firstErr = err
					cancel()
				})
			}
			results[i] = stats
		}(i, term)
	}

	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return results, nil
}

// collectTerm fetches all listings for term and reduces them to statistics
func (a *Aggregator) collectTerm(ctx context.Context, term string) (*domain.TermStatistics, error) {
	result, err := a.searcher.Search(ctx, term)
	if err != nil {
		err = fmt.Errorf("%s: term %q: %w", a.searcher.Name(), term, err)
		a.logger.Error("term failed", "term", term, "error", err)
		return a.fail(term, err), err
	}

	stats := a.reduce(result)
	a.logger.Info("term collected",
		"term", term,
		"pages", result.Pages,
		"found", stats.VacanciesFound,
		"processed", stats.VacanciesProcessed,
	)

	if a.config.OnTerm != nil {
		a.config.OnTerm(stats)
	}
	return stats, nil
}

// reduce averages the estimates that could be produced.
// Listings without an estimate are left out of the average entirely.
func (a *Aggregator) reduce(result *domain.SearchResult) *domain.TermStatistics {
	var (
		processed int
		total     float64
	)
	for _, v := range result.Items {
		salary, ok := a.normalizer.Normalize(v)
		if !ok {
			continue
		}
		processed++
		total += salary
	}

	stats := &domain.TermStatistics{
		Term:               result.Term,
		VacanciesFound:     result.Found,
		VacanciesProcessed: processed,
	}
	if processed > 0 {
		avg := int(math.Floor(total / float64(processed)))
		stats.AverageSalary = &avg
	}
	return stats
}

func (a *Aggregator) fail(term string, err error) *domain.TermStatistics {
	stats := &domain.TermStatistics{Term: term, Err: err}
	if a.config.OnTerm != nil {
		a.config.OnTerm(stats)
	}
	return stats
}
