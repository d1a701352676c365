package itviec

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"go-jobscout/internal/browser"
	"go-jobscout/internal/models"
	"go-jobscout/internal/scraper"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSearchURL(t *testing.T) {
	s := NewITviecScraper("", nil)
	tests := []struct {
		name  string
		query models.SearchQuery
		want  string
	}{
		{"keyword only", models.SearchQuery{JobTitle: "Golang Developer"}, "https://itviec.com/it-jobs/golang-developer"},
		{"known city", models.SearchQuery{JobTitle: "golang", Location: "Ho Chi Minh, Vietnam"}, "https://itviec.com/it-jobs/golang/ho-chi-minh-hcm"},
		{"other city", models.SearchQuery{JobTitle: "golang", Location: "Can Tho"}, "https://itviec.com/it-jobs/golang/can-tho"},
		{
			"filters",
			models.SearchQuery{JobTitle: "go", ExpLevel: models.ExpEntry, Workplace: models.WorkplaceRemote, HoursWithin: 24},
			"https://itviec.com/it-jobs/go?job_level_names%5B%5D=Fresher&working_model_names%5B%5D=Remote",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.BuildSearchURL(tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, q := range []models.SearchQuery{
		{JobTitle: "go", JobType: models.JobTypeContract},
		{JobTitle: "go", ExpLevel: models.ExpExecutive},
	} {
		_, err := s.BuildSearchURL(q)
		var unsupported scraper.ErrUnsupportedFilter
		assert.True(t, errors.As(err, &unsupported), "%+v", q)
	}
}

const resultsPage = `<html><head><title>Golang jobs | ITviec</title></head><body>
<div class="job-card" data-search--job-selection-job-slug-value="golang-developer-zeta-0101">
	<h3>Golang Developer</h3>
	<span class="text-rich-grey">Zeta</span>
	<div class="text-rich-grey" title="At office">At office</div>
	<div class="text-rich-grey" title="Ho Chi Minh">Ho Chi Minh</div>
</div>
<div class="job-card" data-search--job-selection-job-slug-value="senior-go-acme-0202">
	<h3>Senior Go Engineer</h3>
	<a class="text-rich-grey" href="/companies/acme">Acme</a>
</div>
<div class="job-card"><h3>Sponsored</h3></div>
<div class="d-none" data-jobs--filter-target="searchNoInfo">No jobs</div>
</body></html>`

func newITviec(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/it-jobs/golang", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, resultsPage)
	})
	mux.HandleFunc("/it-jobs/golang-developer-zeta-0101", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><title>Golang Developer</title></head><body>
<section class="job-description">Build Go services.</section>
<section class="job-experiences">3 years of Go.</section></body></html>`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestITviecScraper_Session(t *testing.T) {
	srv := newITviec(t)
	session := scraper.NewSession(browser.NewStaticLauncher(srv.Client(), ""), NewITviecScraper(srv.URL, nil), scraper.SessionOptions{
		Policy: scraper.RetryPolicy{MaxLoadAttempts: 1},
	})

	got, err := session.Run(context.Background(), []models.SearchQuery{{
		JobTitle:         "golang",
		NumJobs:          5,
		FetchDescription: true,
		ExcludeWords:     []string{"senior"},
	}})
	require.NoError(t, err)
	require.Len(t, got, 1)

	p := got[0]
	assert.Equal(t, "golang-developer-zeta-0101", p.ID)
	assert.Equal(t, "itviec", p.Site)
	assert.Equal(t, "Golang Developer", p.Title)
	assert.Equal(t, "Zeta", p.Company)
	assert.Equal(t, "Ho Chi Minh", p.Location)
	assert.Equal(t, srv.URL+"/it-jobs/golang-developer-zeta-0101", p.URL)
	assert.Equal(t, "Build Go services.\n\n3 years of Go.", p.Description)
}

func TestITviecScraper_EmptyState(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><title>ITviec</title></head><body>
<div data-jobs--filter-target="searchNoInfo">No jobs</div>
<div class="job-card" data-search--job-selection-job-slug-value="suggested-1"><h3>Suggested</h3></div>
</body></html>`)
	}))
	defer srv.Close()

	ctx := context.Background()
	page, err := browser.NewStaticLauncher(srv.Client(), "").Launch(ctx)
	require.NoError(t, err)
	nav := scraper.NewNavigator(page, site, scraper.RetryPolicy{MaxLoadAttempts: 1}, nil, nil, nil, nil)
	require.NoError(t, nav.Load(ctx, srv.URL+"/it-jobs/cobol"))

	units, err := NewITviecScraper(srv.URL, nil).Units(ctx, nav, &scraper.State{})
	require.NoError(t, err)
	assert.Empty(t, units)
}
