package linkedin

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go-jobscout/internal/browser"
	"go-jobscout/internal/models"
	"go-jobscout/internal/scraper"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSearchURL(t *testing.T) {
	s := NewLinkedInScraper("", nil)

	tests := []struct {
		name  string
		query models.SearchQuery
		want  string
	}{
		{
			name:  "title and location only",
			query: models.SearchQuery{JobTitle: "golang developer", Location: "Toronto, Ontario"},
			want:  "https://www.linkedin.com/jobs/search/?keywords=golang+developer&location=Toronto%2C+Ontario",
		},
		{
			name: "all filters",
			query: models.SearchQuery{
				JobTitle:    "backend",
				Location:    "Canada",
				HoursWithin: 24,
				ExpLevel:    models.ExpMidSenior,
				JobType:     models.JobTypeFullTime,
				Workplace:   models.WorkplaceHybrid,
			},
			want: "https://www.linkedin.com/jobs/search/?f_E=4&f_JT=F&f_TPR=r86400&f_WT=3&keywords=backend&location=Canada",
		},
		{
			name:  "internship remote",
			query: models.SearchQuery{JobTitle: "go", ExpLevel: models.ExpInternship, Workplace: models.WorkplaceRemote},
			want:  "https://www.linkedin.com/jobs/search/?f_E=1&f_WT=2&keywords=go",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.BuildSearchURL(tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			again, _ := s.BuildSearchURL(tt.query)
			assert.Equal(t, got, again, "same query, same url")
		})
	}
}

func TestBuildSearchURL_UnsupportedValue(t *testing.T) {
	s := NewLinkedInScraper("", nil)
	_, err := s.BuildSearchURL(models.SearchQuery{JobTitle: "go", ExpLevel: models.ExpLevel("wizard")})
	var unsupported scraper.ErrUnsupportedFilter
	require.True(t, errors.As(err, &unsupported))
	assert.Equal(t, "experience level", unsupported.Field)
}

const resultsHTML = `<html><head><title>Golang jobs | LinkedIn</title></head><body>
<div class="scaffold-layout__list"><div><ul>
	<li class="scaffold-layout__list-item" data-occludable-job-id="101"><a class="job-card-container__link" href="/jobs/view/101/?trk=x">Golang Developer</a></li>
	<li class="scaffold-layout__list-item"><div>promoted</div></li>
	<li class="scaffold-layout__list-item" data-occludable-job-id="102"><a class="job-card-container__link" href="/jobs/view/102/">Go Engineer</a></li>
</ul></div></div>
</body></html>`

func detailHTML(title, company string) string {
	return fmt.Sprintf(`<html><head><title>%s</title></head><body>
<div class="job-details-jobs-unified-top-card__company-name"><a href="/company/x">%s</a></div>
<div class="job-details-jobs-unified-top-card__job-title"><h1><a href="#">%s</a></h1></div>
<div class="job-details-jobs-unified-top-card__primary-description-container"><div><span>Toronto, ON</span> · 2 days ago</div></div>
<div id="job-details">We use Go and Kubernetes.</div>
</body></html>`, title, company, title)
}

func newLinkedIn(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/jobs/search/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, resultsHTML)
	})
	mux.HandleFunc("/jobs/view/101/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, detailHTML("Golang Developer", "Zeta"))
	})
	mux.HandleFunc("/jobs/view/102/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, detailHTML("Go Engineer", "Acme Staffing"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestLinkedInScraper_SessionOnStaticPages(t *testing.T) {
	srv := newLinkedIn(t)
	adapter := NewLinkedInScraper(srv.URL, nil)
	session := scraper.NewSession(browser.NewStaticLauncher(srv.Client(), ""), adapter, scraper.SessionOptions{
		Policy:   scraper.RetryPolicy{LoadTimeout: time.Second, MaxLoadAttempts: 1},
		MaxPages: 3,
	})

	postings, err := session.Run(context.Background(), []models.SearchQuery{{
		JobTitle:          "golang",
		NumJobs:           5,
		FetchDescription:  true,
		ExcludedCompanies: []string{"Acme Staffing"},
	}})
	require.NoError(t, err)
	require.Len(t, postings, 1)

	p := postings[0]
	assert.Equal(t, "101", p.ID)
	assert.Equal(t, "linkedin", p.Site)
	assert.Equal(t, "golang", p.SearchTitle)
	assert.Equal(t, "Golang Developer", p.Title)
	assert.Equal(t, "Zeta", p.Company)
	assert.Equal(t, "Toronto, ON", p.Location)
	assert.Equal(t, srv.URL+"/jobs/view/101", p.URL)
	assert.Equal(t, "We use Go and Kubernetes.", p.Description)
}

func TestLinkedInScraper_UnitsSkipCardsWithoutID(t *testing.T) {
	srv := newLinkedIn(t)
	ctx := context.Background()
	page, _ := browser.NewStaticLauncher(srv.Client(), "").Launch(ctx)
	nav := scraper.NewNavigator(page, site, scraper.RetryPolicy{MaxLoadAttempts: 1}, nil, nil, nil, nil)
	require.NoError(t, nav.Load(ctx, srv.URL+"/jobs/search/"))

	units, err := NewLinkedInScraper(srv.URL, nil).Units(ctx, nav, &scraper.State{})
	require.NoError(t, err)
	require.Len(t, units, 2)
	assert.Equal(t, "101", units[0].ID)
	assert.Equal(t, "102", units[1].ID)
}
