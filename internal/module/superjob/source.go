package superjob

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/project-tktt/salary-stats/internal/domain"
	"github.com/project-tktt/salary-stats/internal/module"
)

const (
	DefaultBaseURL = "https://api.superjob.ru"
	DefaultTown    = "4"
	DefaultPerPage = 100

	// Currency is the code SuperJob uses for rubles
	Currency = "rub"

	secretKeyHeader = "X-Api-App-Id"
)

// ErrMissingSecretKey is returned when no API key is configured
var ErrMissingSecretKey = errors.New("superjob: secret key is required")

// Source implements module.Source for the SuperJob vacancy search API
type Source struct {
	config    Config
	secretKey string
}

var _ module.Source = (*Source)(nil)

// NewSource creates a new SuperJob source authenticated with secretKey
func NewSource(secretKey string, cfg Config) (*Source, error) {
	if secretKey == "" {
		return nil, ErrMissingSecretKey
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Town == "" {
		cfg.Town = DefaultTown
	}
	if cfg.PerPage <= 0 {
		cfg.PerPage = DefaultPerPage
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &Source{config: cfg, secretKey: secretKey}, nil
}

// Name returns the source identifier
func (s *Source) Name() domain.JobSource {
	return domain.SourceSuperJob
}

// Currency returns the currency salaries are accepted in
func (s *Source) Currency() string {
	return Currency
}

// NewRequest builds GET /2.0/vacancies/?town=&keyword=&count=&page=
func (s *Source) NewRequest(ctx context.Context, term string, page int) (*http.Request, error) {
	params := url.Values{}
	params.Set("town", s.config.Town)
	params.Set("keyword", term)
	params.Set("count", strconv.Itoa(s.config.PerPage))
	params.Set("page", strconv.Itoa(page))

	reqURL := fmt.Sprintf("%s/2.0/vacancies/?%s", s.config.BaseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set(secretKeyHeader, s.secretKey)
	return req, nil
}

// ParsePage decodes one page. Pagination continues while the API reports more results.
func (s *Source) ParsePage(body []byte, page int) (*domain.Page, error) {
	var resp SearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", module.ErrUnexpectedShape, err)
	}

	switch {
	case resp.Objects == nil:
		return nil, fmt.Errorf("%w: missing objects", module.ErrUnexpectedShape)
	case resp.Total == nil:
		return nil, fmt.Errorf("%w: missing total", module.ErrUnexpectedShape)
	case resp.More == nil:
		return nil, fmt.Errorf("%w: missing more", module.ErrUnexpectedShape)
	}

	items := make([]domain.Vacancy, 0, len(*resp.Objects))
	for _, v := range *resp.Objects {
		items = append(items, v)
	}

	return &domain.Page{
		Items:   items,
		Found:   *resp.Total,
		HasMore: *resp.More,
	}, nil
}
