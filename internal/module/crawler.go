package module

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/project-tktt/salary-stats/internal/domain"
)

// DefaultMaxPages caps pagination when no limit is configured
const DefaultMaxPages = 50

// ErrUnexpectedShape is returned when a page response is missing required fields
var ErrUnexpectedShape = errors.New("unexpected response shape")

// StatusError is returned when a source answers with a non-success status
type StatusError struct {
	Source     domain.JobSource
	Page       int
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: page %d: unexpected status: %d", e.Source, e.Page, e.StatusCode)
}

// Source is one paginated vacancy search API.
// Each variant shapes its own requests and decides when pagination ends.
type Source interface {
	// Name returns the source identifier
	Name() domain.JobSource
	// Currency returns the currency code salaries must be published in
	Currency() string
	// NewRequest builds the request for one page of results for term
	NewRequest(ctx context.Context, term string, page int) (*http.Request, error)
	// ParsePage decodes a page response and sets Page.HasMore
	ParsePage(body []byte, page int) (*domain.Page, error)
}

// PageHandler is called after each page is fetched
type PageHandler func(term string, page int, p *domain.Page)

// Config holds pagination settings shared by all sources
type Config struct {
	// MaxPages is the maximum number of pages fetched per term
	MaxPages int
	// RequestDelay is the pause between consecutive page requests
	RequestDelay time.Duration
	Timeout      time.Duration
	UserAgent    string
	// OnPage is optional
	OnPage PageHandler
}

// Crawler runs the pagination loop for a single source
type Crawler struct {
	source Source
	client *http.Client
	config Config
	logger *slog.Logger
}

// NewCrawler creates a crawler for source
func NewCrawler(source Source, cfg Config, logger *slog.Logger) *Crawler {
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = DefaultMaxPages
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Crawler{
		source: source,
		client: &http.Client{Timeout: cfg.Timeout},
		config: cfg,
		logger: logger.With("source", string(source.Name())),
	}
}

// Source returns the wrapped source
func (c *Crawler) Source() Source {
	return c.source
}

// Search fetches every page of results for term, one page at a time.
// Any failed page aborts the search; no partial result is returned.
func (c *Crawler) Search(ctx context.Context, term string) (*domain.SearchResult, error) {
	result := &domain.SearchResult{Term: term}

	for page := 0; page < c.config.MaxPages; page++ {
		if page > 0 && c.config.RequestDelay > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.config.RequestDelay):
			}
		}

		c.logger.Debug("fetching page", "term", term, "page", page)

		p, err := c.fetchPage(ctx, term, page)
		if err != nil {
			return nil, fmt.Errorf("fetch %q page %d: %w", term, page, err)
		}

		result.Items = append(result.Items, p.Items...)
		result.Found = p.Found
		result.Pages++

		if c.config.OnPage != nil {
			c.config.OnPage(term, page, p)
		}

		if !p.HasMore {
			c.logger.Debug("reached last page", "term", term, "page", page)
			return result, nil
		}
	}

	c.logger.Warn("page cap reached", "term", term, "max_pages", c.config.MaxPages, "found", result.Found)
	return result, nil
}

// fetchPage fetches and parses a single page
func (c *Crawler) fetchPage(ctx context.Context, term string, page int) (*domain.Page, error) {
	req, err := c.source.NewRequest(ctx, term, page)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Source: c.source.Name(), Page: page, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	p, err := c.source.ParsePage(body, page)
	if err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	return p, nil
}

// Name returns the identifier of the wrapped source
func (c *Crawler) Name() domain.JobSource {
	return c.source.Name()
}

// Currency returns the currency the wrapped source publishes rubles in
func (c *Crawler) Currency() string {
	return c.source.Currency()
}
