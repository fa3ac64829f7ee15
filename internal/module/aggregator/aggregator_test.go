package aggregator

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/project-tktt/salary-stats/internal/domain"
)

type vacancy struct {
	from, to *float64
	currency string
}

func (v vacancy) VacancyID() string { return "v" }

func (v vacancy) SalaryBounds() (domain.SalaryBounds, bool) {
	if v.currency == "" {
		return domain.SalaryBounds{}, false
	}
	return domain.SalaryBounds{From: v.from, To: v.to, Currency: v.currency}, true
}

func rub(from, to float64) vacancy {
	v := vacancy{currency: "RUR"}
	if from > 0 {
		v.from = &from
	}
	if to > 0 {
		v.to = &to
	}
	return v
}

type fakeSearcher struct {
	mu      sync.Mutex
	results map[string]*domain.SearchResult
	errs    map[string]error
	calls   []string
}

func (f *fakeSearcher) Search(ctx context.Context, term string) (*domain.SearchResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, term)
	f.mu.Unlock()

	if err, ok := f.errs[term]; ok {
		return nil, err
	}
	if res, ok := f.results[term]; ok {
		return res, nil
	}
	return &domain.SearchResult{Term: term}, nil
}

func (f *fakeSearcher) Name() domain.JobSource { return domain.SourceHeadHunter }

func (f *fakeSearcher) Currency() string { return "RUR" }

func TestAggregate_Average(t *testing.T) {
	searcher := &fakeSearcher{results: map[string]*domain.SearchResult{
		"Go": {Term: "Go", Found: 10, Items: []domain.Vacancy{
			rub(100, 0) /* 120 */, rub(0, 250) /* 200 */, rub(250, 350), /* 300 */
		}},
	}}

	table, err := NewAggregator(searcher, Config{}, nil).Aggregate(context.Background(), []string{"Go"})
	require.NoError(t, err)

	stats, ok := table.Get("Go")
	require.True(t, ok)
	assert.Equal(t, 10, stats.VacanciesFound)
	assert.Equal(t, 3, stats.VacanciesProcessed)
	require.NotNil(t, stats.AverageSalary)
	assert.Equal(t, 206, *stats.AverageSalary)
}

func TestAggregate_AverageOfEstimates(t *testing.T) {
	searcher := &fakeSearcher{results: map[string]*domain.SearchResult{
		"Go": {Term: "Go", Found: 3, Items: []domain.Vacancy{
			rub(100, 100), rub(200, 200), rub(300, 300),
		}},
	}}

	table, err := NewAggregator(searcher, Config{}, nil).Aggregate(context.Background(), []string{"Go"})
	require.NoError(t, err)

	stats, _ := table.Get("Go")
	require.NotNil(t, stats.AverageSalary)
	assert.Equal(t, 200, *stats.AverageSalary)
}

func TestAggregate_TruncatesAverage(t *testing.T) {
	searcher := &fakeSearcher{results: map[string]*domain.SearchResult{
		"Go": {Term: "Go", Items: []domain.Vacancy{rub(100, 100), rub(101, 101)}},
	}}

	table, err := NewAggregator(searcher, Config{}, nil).Aggregate(context.Background(), []string{"Go"})
	require.NoError(t, err)

	stats, _ := table.Get("Go")
	assert.Equal(t, 100, *stats.AverageSalary)
}

func TestAggregate_NoEstimates(t *testing.T) {
	usd := 3000.0
	searcher := &fakeSearcher{results: map[string]*domain.SearchResult{
		"PHP": {Term: "PHP", Found: 7, Items: []domain.Vacancy{
			vacancy{},
			vacancy{currency: "RUR"},
			vacancy{from: &usd, to: &usd, currency: "USD"},
		}},
	}}

	table, err := NewAggregator(searcher, Config{}, nil).Aggregate(context.Background(), []string{"PHP"})
	require.NoError(t, err)

	stats, _ := table.Get("PHP")
	assert.Equal(t, 7, stats.VacanciesFound)
	assert.Equal(t, 0, stats.VacanciesProcessed)
	assert.Nil(t, stats.AverageSalary)
}

func TestAggregate_PreservesTermOrder(t *testing.T) {
	terms := []string{"Python", "Go", "PHP"}

	for _, concurrency := range []int{1, 3} {
		searcher := &fakeSearcher{}
		table, err := NewAggregator(searcher, Config{Concurrency: concurrency}, nil).Aggregate(context.Background(), terms)
		require.NoError(t, err)
		assert.Equal(t, terms, table.Terms(), "concurrency %d", concurrency)
	}
}

func TestAggregate_SequentialByDefault(t *testing.T) {
	searcher := &fakeSearcher{}
	_, err := NewAggregator(searcher, Config{}, nil).Aggregate(context.Background(), []string{"Python", "Go", "PHP"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Python", "Go", "PHP"}, searcher.calls)
}

func TestAggregate_IsolatesFailedTerm(t *testing.T) {
	boom := errors.New("connection reset")
	searcher := &fakeSearcher{
		errs: map[string]error{"Go": boom},
		results: map[string]*domain.SearchResult{
			"PHP": {Term: "PHP", Found: 1, Items: []domain.Vacancy{rub(100, 200)}},
		},
	}

	var reported []string
	agg := NewAggregator(searcher, Config{OnTerm: func(s *domain.TermStatistics) {
		reported = append(reported, s.Term)
	}}, nil)

	table, err := agg.Aggregate(context.Background(), []string{"Python", "Go", "PHP"})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	require.NotNil(t, table)

	assert.Equal(t, []string{"Python", "Go", "PHP"}, table.Terms())

	failed, _ := table.Get("Go")
	assert.True(t, failed.Failed())
	assert.Equal(t, 0, failed.VacanciesProcessed)
	assert.Nil(t, failed.AverageSalary)

	ok, _ := table.Get("PHP")
	assert.False(t, ok.Failed())
	assert.Equal(t, 150, *ok.AverageSalary)

	assert.Equal(t, []string{"Python", "Go", "PHP"}, reported)
}

func TestAggregate_FailFast(t *testing.T) {
	boom := errors.New("503")
	searcher := &fakeSearcher{errs: map[string]error{"Go": boom}}

	table, err := NewAggregator(searcher, Config{FailFast: true}, nil).Aggregate(context.Background(), []string{"Python", "Go", "PHP"})
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, table)
	assert.Equal(t, []string{"Python", "Go"}, searcher.calls)
}

func TestAggregate_FailFastConcurrent(t *testing.T) {
	boom := errors.New("503")
	searcher := &fakeSearcher{errs: map[string]error{"Go": boom}}

	table, err := NewAggregator(searcher, Config{FailFast: true, Concurrency: 2}, nil).Aggregate(context.Background(), []string{"Python", "Go", "PHP"})
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, table)
}

func TestRun_BuildsReport(t *testing.T) {
	searcher := &fakeSearcher{}
	report, err := NewAggregator(searcher, Config{}, nil).Run(context.Background(), []string{"Go"})
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, domain.SourceHeadHunter, report.Source)
	assert.False(t, report.CollectedAt.IsZero())
	assert.Equal(t, 1, report.Table.Len())
}
