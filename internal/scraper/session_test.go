package scraper_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"go-jobscout/internal/browser"
	"go-jobscout/internal/models"
	"go-jobscout/internal/scraper"
	"go-jobscout/internal/scraper/scrapertest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingBypasser struct {
	calls int
}

func (b *countingBypasser) Bypass(ctx context.Context, _ browser.Page) error {
	b.calls++
	return ctx.Err()
}

func fastPolicy() scraper.RetryPolicy {
	return scraper.RetryPolicy{
		LoadTimeout:       time.Second,
		MaxLoadAttempts:   3,
		Backoff:           time.Millisecond,
		BackoffMax:        2 * time.Millisecond,
		MaxBypassAttempts: 2,
	}
}

func newSession(l browser.Launcher, a scraper.Adapter, logger *slog.Logger, bypass browser.Bypasser) *scraper.Session {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	}
	return scraper.NewSession(l, a, scraper.SessionOptions{
		Policy:   fastPolicy(),
		MaxPages: 10,
		Bypasser: bypass,
		Logger:   logger,
	})
}

func TestState_CapIsHardCeiling(t *testing.T) {
	var st scraper.State
	st.Reset(models.SearchQuery{NumJobs: 2})

	assert.True(t, st.Accept(models.Posting{ID: "1"}))
	assert.False(t, st.Satisfied())
	assert.True(t, st.Accept(models.Posting{ID: "2"}))
	assert.True(t, st.Satisfied(), "flag set by the Nth accept")
	assert.False(t, st.Accept(models.Posting{ID: "3"}))
	assert.Equal(t, 2, st.JobsAccepted())
	assert.True(t, st.Satisfied())

	st.Reset(models.SearchQuery{NumJobs: 1})
	assert.False(t, st.Satisfied())
	assert.Equal(t, 0, st.JobsAccepted())
	assert.Equal(t, 0, st.PagesVisited())
}

func TestState_ZeroCapAcceptsNothing(t *testing.T) {
	var st scraper.State
	st.Reset(models.SearchQuery{JobTitle: "golang"})

	assert.True(t, st.Satisfied())
	assert.False(t, st.Accept(models.Posting{ID: "1"}))
	assert.Equal(t, 0, st.JobsAccepted())
}

func TestState_RepeatedIDIsNotCounted(t *testing.T) {
	var st scraper.State
	st.Reset(models.SearchQuery{NumJobs: 2})

	assert.True(t, st.Accept(models.Posting{ID: "1"}))
	assert.False(t, st.Accept(models.Posting{ID: "1"}))
	assert.False(t, st.Satisfied())
	assert.Equal(t, 1, st.JobsAccepted())

	st.Reset(models.SearchQuery{NumJobs: 2})
	assert.True(t, st.Accept(models.Posting{ID: "1"}), "new query starts with no accepted IDs")
}

func TestSession_ZeroCapLoadsNothing(t *testing.T) {
	adapter := &scrapertest.Adapter{
		Name: "fake",
		Results: map[string][][]scrapertest.Posting{
			"golang": {scrapertest.ResultPage("p1", 3), scrapertest.ResultPage("p2", 3)},
		},
	}
	page := &scrapertest.Page{}
	s := newSession(&scrapertest.Launcher{Page: page}, adapter, nil, nil)

	postings, err := s.Run(context.Background(), []models.SearchQuery{{JobTitle: "golang", NumJobs: 0}})
	require.NoError(t, err)
	assert.Empty(t, postings)
	assert.Empty(t, page.Visited)
}

func TestSession_RepeatedCardDoesNotFillCap(t *testing.T) {
	first := scrapertest.ResultPage("p", 2)
	second := []scrapertest.Posting{first[1], {ID: "x", Company: "C", Title: "Go dev"}}
	adapter := &scrapertest.Adapter{
		Name:    "fake",
		Results: map[string][][]scrapertest.Posting{"golang": {first, second}},
	}
	s := newSession(&scrapertest.Launcher{}, adapter, nil, nil)

	postings, err := s.Run(context.Background(), []models.SearchQuery{{JobTitle: "golang", NumJobs: 3}})
	require.NoError(t, err)
	assert.Equal(t, []string{"p-1", "p-2", "x"}, ids(postings))
}

func TestSession_StopsAtCapAcrossPages(t *testing.T) {
	adapter := &scrapertest.Adapter{
		Name: "fake",
		Results: map[string][][]scrapertest.Posting{
			"golang": {scrapertest.ResultPage("p1", 2), scrapertest.ResultPage("p2", 2), scrapertest.ResultPage("p3", 2)},
		},
	}
	page := &scrapertest.Page{}
	s := newSession(&scrapertest.Launcher{Page: page}, adapter, nil, nil)

	postings, err := s.Run(context.Background(), []models.SearchQuery{{JobTitle: "golang", NumJobs: 3}})
	require.NoError(t, err)
	require.Len(t, postings, 3)
	assert.Equal(t, []string{"p1-1", "p1-2", "p2-1"}, ids(postings))
	// search page plus one next page; the third page is never requested
	assert.Len(t, page.Visited, 2)
	assert.True(t, page.Closed)

	for _, p := range postings {
		assert.Equal(t, "fake", p.Site)
		assert.Equal(t, "golang", p.SearchTitle)
		assert.Empty(t, p.Description, "description only kept when fetch_description is set")
	}
}

func TestSession_PagesExhaustedBeforeCap(t *testing.T) {
	adapter := &scrapertest.Adapter{
		Name:    "fake",
		Results: map[string][][]scrapertest.Posting{"golang": {scrapertest.ResultPage("a", 2)}},
	}
	s := newSession(&scrapertest.Launcher{}, adapter, nil, nil)

	postings, err := s.Run(context.Background(), []models.SearchQuery{{JobTitle: "golang", NumJobs: 10, FetchDescription: true}})
	require.NoError(t, err)
	assert.Len(t, postings, 2)
	assert.Equal(t, "Go, Kubernetes, PostgreSQL", postings[0].Description)
}

func TestSession_GatingOrderIsTraced(t *testing.T) {
	adapter := &scrapertest.Adapter{
		Name: "fake",
		Results: map[string][][]scrapertest.Posting{
			"golang": {{
				{ID: "1", Company: "Acme Staffing", Title: "Java Developer"},
				{ID: "2", Company: "Zeta", Title: "Senior Golang Engineer"},
				{ID: "3", Company: "Zeta", Title: "Golang Engineer"},
			}},
		},
	}
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	s := newSession(&scrapertest.Launcher{}, adapter, logger, nil)

	postings, err := s.Run(context.Background(), []models.SearchQuery{{
		JobTitle:          "golang",
		NumJobs:           5,
		IncludeWords:      []string{"golang"},
		ExcludeWords:      []string{"senior"},
		ExcludedCompanies: []string{"Acme Staffing"},
	}})
	require.NoError(t, err)
	assert.Equal(t, []string{"3"}, ids(postings))

	out := buf.String()
	assert.Contains(t, out, `"reason":"excluded_company","keyword":"Acme Staffing","id":"1"`)
	assert.NotContains(t, out, `"reason":"missing_include_keyword","keyword":"","id":"1"`)
	assert.Contains(t, out, `"reason":"excluded_keyword","keyword":"senior","id":"2"`)
}

func TestSession_ExtractionErrorSkipsUnit(t *testing.T) {
	page := scrapertest.ResultPage("x", 3)
	page[1].Err = scraper.ErrExtraction{Site: "fake", Unit: "x-2", Err: browser.ErrNoElement}
	adapter := &scrapertest.Adapter{Name: "fake", Results: map[string][][]scrapertest.Posting{"golang": {page}}}
	s := newSession(&scrapertest.Launcher{}, adapter, nil, nil)

	postings, err := s.Run(context.Background(), []models.SearchQuery{{JobTitle: "golang", NumJobs: 5}})
	require.NoError(t, err)
	assert.Equal(t, []string{"x-1", "x-3"}, ids(postings))
}

func TestSession_NavigationRetryIsBounded(t *testing.T) {
	timeout := fmt.Errorf("%w: goto", browser.ErrLoadTimeout)
	page := &scrapertest.Page{NavigateErrs: []error{timeout, timeout, timeout, timeout}}
	adapter := &scrapertest.Adapter{Name: "fake", Results: map[string][][]scrapertest.Posting{"golang": {scrapertest.ResultPage("a", 1)}}}
	s := newSession(&scrapertest.Launcher{Page: page}, adapter, nil, nil)

	postings, err := s.Run(context.Background(), []models.SearchQuery{{JobTitle: "golang", NumJobs: 1}})
	require.Error(t, err)
	assert.Empty(t, postings)

	var nav scraper.ErrNavigation
	require.True(t, errors.As(err, &nav))
	assert.Equal(t, 3, nav.Attempts)
	assert.ErrorIs(t, err, browser.ErrLoadTimeout)
	assert.True(t, scraper.IsSessionFatal(err))
	assert.Len(t, page.Visited, 3, "identical navigation retried up to the bound")
	assert.True(t, page.Closed, "browser released on failure")
}

func TestSession_NavigationRecoversAfterTimeout(t *testing.T) {
	page := &scrapertest.Page{NavigateErrs: []error{browser.ErrLoadTimeout}}
	adapter := &scrapertest.Adapter{Name: "fake", Results: map[string][][]scrapertest.Posting{"golang": {scrapertest.ResultPage("a", 2)}}}
	s := newSession(&scrapertest.Launcher{Page: page}, adapter, nil, nil)

	postings, err := s.Run(context.Background(), []models.SearchQuery{{JobTitle: "golang", NumJobs: 2}})
	require.NoError(t, err)
	assert.Len(t, postings, 2)
	require.Len(t, page.Visited, 2)
	assert.Equal(t, page.Visited[0], page.Visited[1])
}

func TestSession_BlockedBeyondCeilingIsTerminal(t *testing.T) {
	page := &scrapertest.Page{Titles: []string{"Just a moment...", "Just a moment...", "Just a moment...", "Just a moment..."}}
	adapter := &scrapertest.Adapter{Name: "fake", Results: map[string][][]scrapertest.Posting{"golang": {scrapertest.ResultPage("a", 1)}}}
	bypass := &countingBypasser{}
	s := newSession(&scrapertest.Launcher{Page: page}, adapter, nil, bypass)

	_, err := s.Run(context.Background(), []models.SearchQuery{{JobTitle: "golang", NumJobs: 1}})
	var blocked scraper.ErrBlocked
	require.True(t, errors.As(err, &blocked))
	assert.Equal(t, 2, blocked.Attempts)
	assert.Equal(t, 2, bypass.calls)
	assert.True(t, page.Closed)
}

func TestSession_BlockedClearsAfterBypass(t *testing.T) {
	page := &scrapertest.Page{Titles: []string{"請稍候...", "Golang jobs"}}
	adapter := &scrapertest.Adapter{Name: "fake", Results: map[string][][]scrapertest.Posting{"golang": {scrapertest.ResultPage("a", 1)}}}
	bypass := &countingBypasser{}
	s := newSession(&scrapertest.Launcher{Page: page}, adapter, nil, bypass)

	postings, err := s.Run(context.Background(), []models.SearchQuery{{JobTitle: "golang", NumJobs: 1}})
	require.NoError(t, err)
	assert.Len(t, postings, 1)
	assert.Equal(t, 1, bypass.calls)
}

func TestSession_FatalErrorKeepsFinishedQueries(t *testing.T) {
	// first query: search page only; second query: every load times out
	page := &scrapertest.Page{NavigateErrs: []error{nil, browser.ErrLoadTimeout, browser.ErrLoadTimeout, browser.ErrLoadTimeout}}
	adapter := &scrapertest.Adapter{
		Name: "fake",
		Results: map[string][][]scrapertest.Posting{
			"golang": {scrapertest.ResultPage("g", 2)},
			"rust":   {scrapertest.ResultPage("r", 2)},
		},
	}
	s := newSession(&scrapertest.Launcher{Page: page}, adapter, nil, nil)

	postings, err := s.Run(context.Background(), []models.SearchQuery{
		{JobTitle: "golang", NumJobs: 2},
		{JobTitle: "rust", NumJobs: 2},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `query "rust"`)
	assert.Equal(t, []string{"g-1", "g-2"}, ids(postings))
	assert.True(t, page.Closed)
}

func TestSession_DedupesAcrossQueries(t *testing.T) {
	shared := scrapertest.ResultPage("s", 2)
	second := []scrapertest.Posting{shared[1], {ID: "only", Company: "C", Title: "Go dev"}}
	second[0].Location = "Toronto"
	adapter := &scrapertest.Adapter{
		Name: "fake",
		Results: map[string][][]scrapertest.Posting{
			"golang":  {shared},
			"backend": {second},
		},
	}
	s := newSession(&scrapertest.Launcher{}, adapter, nil, nil)

	postings, err := s.Run(context.Background(), []models.SearchQuery{
		{JobTitle: "golang", NumJobs: 5},
		{JobTitle: "backend", NumJobs: 5},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"s-1", "s-2", "only"}, ids(postings))
	assert.Equal(t, "Toronto", postings[1].Location, "last seen wins")
}

func TestSession_CancelBetweenUnits(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	adapter := &scrapertest.Adapter{
		Name:    "fake",
		Results: map[string][][]scrapertest.Posting{"golang": {scrapertest.ResultPage("a", 3)}},
		Hook: func(_ context.Context, u scraper.Unit) {
			if u.ID == "a-2" {
				cancel()
			}
		},
	}
	page := &scrapertest.Page{}
	s := newSession(&scrapertest.Launcher{Page: page}, adapter, nil, nil)

	postings, err := s.Run(ctx, []models.SearchQuery{{JobTitle: "golang", NumJobs: 3}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, postings)
	assert.True(t, page.Closed)
}

func TestSession_LaunchFailure(t *testing.T) {
	adapter := &scrapertest.Adapter{Name: "fake"}
	s := newSession(&scrapertest.Launcher{LaunchErr: errors.New("no chromium")}, adapter, nil, nil)

	_, err := s.Run(context.Background(), []models.SearchQuery{{JobTitle: "golang", NumJobs: 1}})
	assert.ErrorContains(t, err, "no chromium")
}

func TestRegistry_ValidateTask(t *testing.T) {
	reg := scraper.NewRegistry(&scrapertest.Adapter{Name: "fake", UnsupportedTitle: "bad"})

	assert.NoError(t, reg.ValidateTask(models.Task{Site: "FAKE", Queries: []models.SearchQuery{{JobTitle: "ok"}}}))

	err := reg.ValidateTask(models.Task{Site: "monster"})
	assert.ErrorIs(t, err, scraper.ErrUnknownSite)

	err = reg.ValidateTask(models.Task{Site: "fake", Queries: []models.SearchQuery{{JobTitle: "bad"}}})
	var unsupported scraper.ErrUnsupportedFilter
	assert.True(t, errors.As(err, &unsupported))

	// a URL override skips the adapter's filter mapping
	assert.NoError(t, reg.ValidateTask(models.Task{Site: "fake", Queries: []models.SearchQuery{{JobTitle: "bad", CustomURL: "https://x.test"}}}))
}

func ids(postings []models.Posting) []string {
	out := make([]string, len(postings))
	for i, p := range postings {
		out[i] = p.ID
	}
	return out
}
