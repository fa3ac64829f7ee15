package hh

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/project-tktt/salary-stats/internal/domain"
	"github.com/project-tktt/salary-stats/internal/module"
)

const (
	DefaultBaseURL    = "https://api.hh.ru"
	DefaultArea       = "1"
	DefaultOccupation = "Программист"
	DefaultPerPage    = 100

	// Currency is the code hh.ru uses for rubles
	Currency = "RUR"
)

// Source implements module.Source for the hh.ru vacancy search API
type Source struct {
	config Config
}

var _ module.Source = (*Source)(nil)

// NewSource creates a new hh.ru source
func NewSource(cfg Config) *Source {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Area == "" {
		cfg.Area = DefaultArea
	}
	if cfg.Occupation == "" {
		cfg.Occupation = DefaultOccupation
	}
	if cfg.PerPage <= 0 {
		cfg.PerPage = DefaultPerPage
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &Source{config: cfg}
}

// Name returns the source identifier
func (s *Source) Name() domain.JobSource {
	return domain.SourceHeadHunter
}

// Currency returns the currency salaries are accepted in
func (s *Source) Currency() string {
	return Currency
}

// NewRequest builds GET /vacancies?text=&area=&per_page=&page=
func (s *Source) NewRequest(ctx context.Context, term string, page int) (*http.Request, error) {
	params := url.Values{}
	params.Set("text", strings.TrimSpace(s.config.Occupation+" "+term))
	params.Set("area", s.config.Area)
	params.Set("per_page", strconv.Itoa(s.config.PerPage))
	params.Set("page", strconv.Itoa(page))

	reqURL := fmt.Sprintf("%s/vacancies?%s", s.config.BaseURL, params.Encode())
	return http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
}

// ParsePage decodes one page. The reported page count is authoritative:
// there are more pages while page < pages-1.
func (s *Source) ParsePage(body []byte, page int) (*domain.Page, error) {
	var resp SearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", module.ErrUnexpectedShape, err)
	}

	switch {
	case resp.Items == nil:
		return nil, fmt.Errorf("%w: missing items", module.ErrUnexpectedShape)
	case resp.Found == nil:
		return nil, fmt.Errorf("%w: missing found", module.ErrUnexpectedShape)
	case resp.Pages == nil:
		return nil, fmt.Errorf("%w: missing pages", module.ErrUnexpectedShape)
	}

	items := make([]domain.Vacancy, 0, len(*resp.Items))
	for _, v := range *resp.Items {
		items = append(items, v)
	}

	return &domain.Page{
		Items:   items,
		Found:   *resp.Found,
		HasMore: page < *resp.Pages-1,
	}, nil
}
