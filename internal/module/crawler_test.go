package module_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/project-tktt/salary-stats/internal/domain"
	"github.com/project-tktt/salary-stats/internal/module"
)

type fakeItem struct {
	ID string `json:"id"`
}

func (f fakeItem) VacancyID() string { return f.ID }

func (f fakeItem) SalaryBounds() (domain.SalaryBounds, bool) { return domain.SalaryBounds{}, false }

type fakePage struct {
	Items []fakeItem `json:"items"`
	Found *int       `json:"found"`
	More  bool       `json:"more"`
}

// fakeSource talks to a test server that serves ?page=N
type fakeSource struct {
	baseURL string
}

func (s *fakeSource) Name() domain.JobSource { return "fake" }

func (s *fakeSource) Currency() string { return "RUR" }

func (s *fakeSource) NewRequest(ctx context.Context, term string, page int) (*http.Request, error) {
	return http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/search?text=%s&page=%d", s.baseURL, term, page), nil)
}

func (s *fakeSource) ParsePage(body []byte, page int) (*domain.Page, error) {
	var p fakePage
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", module.ErrUnexpectedShape, err)
	}
	if p.Found == nil {
		return nil, fmt.Errorf("%w: missing found", module.ErrUnexpectedShape)
	}
	items := make([]domain.Vacancy, 0, len(p.Items))
	for _, it := range p.Items {
		items = append(items, it)
	}
	return &domain.Page{Items: items, Found: *p.Found, HasMore: p.More}, nil
}

func intPtr(v int) *int { return &v }

// newPagedServer serves pages[i] for ?page=i and counts requests
func newPagedServer(t *testing.T, pages []fakePage, failPage int) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		if page == failPage {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		if page >= len(pages) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(pages[page])
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestCrawler_Search_ConcatenatesPagesInOrder(t *testing.T) {
	srv, calls := newPagedServer(t, []fakePage{
		{Items: []fakeItem{{ID: "1"}, {ID: "2"}}, Found: intPtr(5), More: true},
		{Items: []fakeItem{{ID: "3"}, {ID: "4"}}, Found: intPtr(5), More: true},
		{Items: []fakeItem{{ID: "5"}}, Found: intPtr(5), More: false},
	}, -1)

	c := module.NewCrawler(&fakeSource{baseURL: srv.URL}, module.Config{}, nil)
	res, err := c.Search(context.Background(), "Go")
	require.NoError(t, err)

	assert.Equal(t, int32(3), atomic.LoadInt32(calls))
	assert.Equal(t, 3, res.Pages)
	assert.Equal(t, 5, res.Found)
	assert.Equal(t, "Go", res.Term)

	ids := make([]string, 0, len(res.Items))
	for _, it := range res.Items {
		ids = append(ids, it.VacancyID())
	}
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, ids)
}

func TestCrawler_Search_FoundFromLastPage(t *testing.T) {
	srv, _ := newPagedServer(t, []fakePage{
		{Items: []fakeItem{{ID: "1"}}, Found: intPtr(50), More: true},
		{Items: []fakeItem{{ID: "2"}}, Found: intPtr(48), More: false},
	}, -1)

	c := module.NewCrawler(&fakeSource{baseURL: srv.URL}, module.Config{}, nil)
	res, err := c.Search(context.Background(), "Go")
	require.NoError(t, err)
	assert.Equal(t, 48, res.Found)
}

func TestCrawler_Search_RespectsMaxPages(t *testing.T) {
	pages := make([]fakePage, 10)
	for i := range pages {
		pages[i] = fakePage{Items: []fakeItem{{ID: strconv.Itoa(i)}}, Found: intPtr(1000), More: true}
	}
	srv, calls := newPagedServer(t, pages, -1)

	c := module.NewCrawler(&fakeSource{baseURL: srv.URL}, module.Config{MaxPages: 4}, nil)
	res, err := c.Search(context.Background(), "Go")
	require.NoError(t, err)

	assert.Equal(t, int32(4), atomic.LoadInt32(calls))
	assert.Len(t, res.Items, 4)
	assert.Equal(t, 1000, res.Found)
}

func TestCrawler_Search_StatusErrorAborts(t *testing.T) {
	srv, calls := newPagedServer(t, []fakePage{
		{Items: []fakeItem{{ID: "1"}}, Found: intPtr(3), More: true},
		{Items: []fakeItem{{ID: "2"}}, Found: intPtr(3), More: true},
		{Items: []fakeItem{{ID: "3"}}, Found: intPtr(3), More: false},
	}, 1)

	c := module.NewCrawler(&fakeSource{baseURL: srv.URL}, module.Config{}, nil)
	res, err := c.Search(context.Background(), "Go")

	require.Error(t, err)
	assert.Nil(t, res)
	assert.Equal(t, int32(2), atomic.LoadInt32(calls))

	var statusErr *module.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
	assert.Equal(t, 1, statusErr.Page)
}

func TestCrawler_Search_ShapeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items": []}`))
	}))
	defer srv.Close()

	c := module.NewCrawler(&fakeSource{baseURL: srv.URL}, module.Config{}, nil)
	_, err := c.Search(context.Background(), "Go")
	assert.ErrorIs(t, err, module.ErrUnexpectedShape)
}

func TestCrawler_Search_CallsOnPage(t *testing.T) {
	srv, _ := newPagedServer(t, []fakePage{
		{Items: []fakeItem{{ID: "1"}}, Found: intPtr(2), More: true},
		{Items: []fakeItem{{ID: "2"}}, Found: intPtr(2), More: false},
	}, -1)

	var seen []int
	c := module.NewCrawler(&fakeSource{baseURL: srv.URL}, module.Config{
		OnPage: func(term string, page int, p *domain.Page) {
			seen = append(seen, page)
		},
	}, nil)

	_, err := c.Search(context.Background(), "Go")
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, seen)
}
