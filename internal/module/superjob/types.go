package superjob

import (
	"strconv"

	"github.com/project-tktt/salary-stats/internal/common/normalizer"
	"github.com/project-tktt/salary-stats/internal/domain"
)

// Config holds SuperJob-specific configuration
type Config struct {
	BaseURL string
	// Town is the SuperJob town identifier ("4" is Moscow)
	Town    string
	PerPage int
}

// SearchResponse is the SuperJob /2.0/vacancies/ response.
// Pointer fields let ParsePage tell a missing field from a zero value.
type SearchResponse struct {
	Objects *[]Vacancy `json:"objects"`
	Total   *int       `json:"total"`
	More    *bool      `json:"more"`
}

// Vacancy represents a single listing from the SuperJob API.
// Unspecified payment bounds are published as 0.
type Vacancy struct {
	ID          int      `json:"id"`
	Profession  string   `json:"profession"`
	FirmName    string   `json:"firm_name"`
	PaymentFrom *float64 `json:"payment_from"`
	PaymentTo   *float64 `json:"payment_to"`
	Currency    string   `json:"currency"`
	Town        Town     `json:"town"`
	Link        string   `json:"link"`
}

// Town represents the listing location
type Town struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
}

func (v Vacancy) VacancyID() string {
	return strconv.Itoa(v.ID)
}

func (v Vacancy) SalaryBounds() (domain.SalaryBounds, bool) {
	return domain.SalaryBounds{
		From:     normalizer.Bound(v.PaymentFrom),
		To:       normalizer.Bound(v.PaymentTo),
		Currency: v.Currency,
	}, true
}
