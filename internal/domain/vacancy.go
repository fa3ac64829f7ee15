package domain

// JobSource represents a job board API
type JobSource string

const (
	SourceHeadHunter JobSource = "hh"
	SourceSuperJob   JobSource = "superjob"
)

// SalaryBounds holds the salary fields extracted from a listing.
// A nil bound means the listing did not specify it.
type SalaryBounds struct {
	From     *float64
	To       *float64
	Currency string
}

// Vacancy is a single listing returned by a source.
// Only the fields needed to estimate a salary are exposed.
type Vacancy interface {
	// VacancyID returns the source-specific listing identifier
	VacancyID() string
	// SalaryBounds returns the listing's salary fields, false if it has none
	SalaryBounds() (SalaryBounds, bool)
}

// Page is the parsed result of one page request
type Page struct {
	Items   []Vacancy
	Found   int
	HasMore bool
}

// SearchResult is every listing found for a term across all fetched pages
type SearchResult struct {
	Term  string
	Found int // server-reported total from the last page fetched
	Pages int // number of pages actually fetched
	Items []Vacancy
}
