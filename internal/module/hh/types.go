package hh

import (
	"github.com/project-tktt/salary-stats/internal/common/normalizer"
	"github.com/project-tktt/salary-stats/internal/domain"
)

// Config holds hh.ru-specific configuration
type Config struct {
	BaseURL string
	// Area is the hh.ru region identifier ("1" is Moscow)
	Area string
	// Occupation is prepended to every search term
	Occupation string
	PerPage    int
}

// SearchResponse is the hh.ru /vacancies response.
// Pointer fields let ParsePage tell a missing field from a zero value.
type SearchResponse struct {
	Items   *[]Vacancy `json:"items"`
	Found   *int       `json:"found"`
	Pages   *int       `json:"pages"`
	Page    int        `json:"page"`
	PerPage int        `json:"per_page"`
}

// Vacancy represents a single listing from the hh.ru API
type Vacancy struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	AlternateURL string   `json:"alternate_url"`
	Salary       *Salary  `json:"salary"`
	Employer     Employer `json:"employer"`
	Area         Area     `json:"area"`
	PublishedAt  string   `json:"published_at"`
}

// Salary is the optional salary block of a listing
type Salary struct {
	From     *float64 `json:"from"`
	To       *float64 `json:"to"`
	Currency string   `json:"currency"`
	Gross    *bool    `json:"gross"`
}

// Employer represents the company behind a listing
type Employer struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Area represents the listing region
type Area struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (v Vacancy) VacancyID() string {
	return v.ID
}

func (v Vacancy) SalaryBounds() (domain.SalaryBounds, bool) {
	if v.Salary == nil {
		return domain.SalaryBounds{}, false
	}
	return domain.SalaryBounds{
		From:     normalizer.Bound(v.Salary.From),
		To:       normalizer.Bound(v.Salary.To),
		Currency: v.Salary.Currency,
	}, true
}
