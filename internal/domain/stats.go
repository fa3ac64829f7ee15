package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// TermStatistics holds salary statistics for one search term
type TermStatistics struct {
	Term               string `json:"term"`
	VacanciesFound     int    `json:"vacancies_found"`
	VacanciesProcessed int    `json:"vacancies_processed"`
	AverageSalary      *int   `json:"average_salary"`

	// Err is set when fetching the term failed; the counters are then zero
	Err error `json:"-"`
}

// Failed reports whether the term could not be collected
func (s *TermStatistics) Failed() bool {
	return s.Err != nil
}

// StatisticsTable maps search terms to statistics, keeping insertion order
type StatisticsTable struct {
	order []string
	stats map[string]*TermStatistics
}

// NewStatisticsTable creates an empty table
func NewStatisticsTable() *StatisticsTable {
	return &StatisticsTable{stats: make(map[string]*TermStatistics)}
}

// Set stores statistics for a term. Re-setting a term keeps its original position.
func (t *StatisticsTable) Set(stats *TermStatistics) {
	if _, ok := t.stats[stats.Term]; !ok {
		t.order = append(t.order, stats.Term)
	}
	t.stats[stats.Term] = stats
}

// Get returns statistics for a term
func (t *StatisticsTable) Get(term string) (*TermStatistics, bool) {
	s, ok := t.stats[term]
	return s, ok
}

// Terms returns the terms in insertion order
func (t *StatisticsTable) Terms() []string {
	terms := make([]string, len(t.order))
	copy(terms, t.order)
	return terms
}

// Entries returns the statistics in insertion order
func (t *StatisticsTable) Entries() []*TermStatistics {
	entries := make([]*TermStatistics, 0, len(t.order))
	for _, term := range t.order {
		entries = append(entries, t.stats[term])
	}
	return entries
}

// Len returns the number of terms in the table
func (t *StatisticsTable) Len() int {
	return len(t.order)
}

// Report is the result of one aggregation run against a single source
type Report struct {
	RunID       string
	Source      JobSource
	CollectedAt time.Time
	Table       *StatisticsTable
}

// Snapshots flattens the report into one snapshot per successfully collected term.
// Failed terms are skipped.
func (r *Report) Snapshots() []*TermSnapshot {
	snapshots := make([]*TermSnapshot, 0, r.Table.Len())
	for _, s := range r.Table.Entries() {
		if s.Failed() {
			continue
		}
		snapshots = append(snapshots, &TermSnapshot{
			ID:                 fmt.Sprintf("%s:%s:%s", r.RunID, r.Source, s.Term),
			RunID:              r.RunID,
			Source:             string(r.Source),
			Term:               s.Term,
			VacanciesFound:     s.VacanciesFound,
			VacanciesProcessed: s.VacanciesProcessed,
			AverageSalary:      s.AverageSalary,
			CollectedAt:        r.CollectedAt,
		})
	}
	return snapshots
}

// TermSnapshot is the statistics for one term at one point in time.
// It is what gets published to the queue and stored by indexers.
type TermSnapshot struct {
	ID                 string    `json:"id"`
	RunID              string    `json:"run_id"`
	Source             string    `json:"source"`
	Term               string    `json:"term"`
	VacanciesFound     int       `json:"vacancies_found"`
	VacanciesProcessed int       `json:"vacancies_processed"`
	AverageSalary      *int      `json:"average_salary"`
	CollectedAt        time.Time `json:"collected_at"`
}

// Fingerprint identifies the statistic values, ignoring run identity and time
func (s *TermSnapshot) Fingerprint() string {
	avg := "-"
	if s.AverageSalary != nil {
		avg = fmt.Sprintf("%d", *s.AverageSalary)
	}
	h := sha256.Sum256([]byte(fmt.Sprintf("%d|%d|%s", s.VacanciesFound, s.VacanciesProcessed, avg)))
	return hex.EncodeToString(h[:16])
}
