// Package scrapertest provides in-memory browsers and adapters for session and
// orchestrator tests.
package scrapertest

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"go-jobscout/internal/browser"
	"go-jobscout/internal/models"
	"go-jobscout/internal/scraper"
)

// Page is a scriptable browser.Page. NavigateErrs and Titles are consumed one per call;
// once exhausted, navigation succeeds and the title is "Results".
type Page struct {
	mu           sync.Mutex
	NavigateErrs []error
	Titles       []string
	Visited      []string
	Closed       bool
	current      string
}

func (p *Page) Navigate(ctx context.Context, u string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	p.Visited = append(p.Visited, u)
	if len(p.NavigateErrs) > 0 {
		err := p.NavigateErrs[0]
		p.NavigateErrs = p.NavigateErrs[1:]
		if err != nil {
			return err
		}
	}
	p.current = u
	return nil
}

func (p *Page) WaitReady(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

func (p *Page) Title() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.Titles) > 0 {
		t := p.Titles[0]
		p.Titles = p.Titles[1:]
		return t, nil
	}
	return "Results", nil
}

func (p *Page) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

func (p *Page) Query(string) ([]browser.Element, error) {
	return nil, nil
}

func (p *Page) Scroll(ctx context.Context, _ string) error {
	return ctx.Err()
}

func (p *Page) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Closed = true
	return nil
}

// Launcher hands out Page (or a fresh one per launch when Page is nil).
type Launcher struct {
	Page      *Page
	LaunchErr error
	Launches  int
	Pages     []*Page
}

func (l *Launcher) Launch(ctx context.Context) (browser.Page, error) {
	if l.LaunchErr != nil {
		return nil, l.LaunchErr
	}
	l.Launches++
	p := l.Page
	if p == nil {
		p = &Page{}
	}
	l.Pages = append(l.Pages, p)
	return p, nil
}

// Posting is one scripted search result. A non-nil Err makes extraction fail.
type Posting struct {
	ID          string
	Company     string
	Title       string
	Location    string
	Description string
	Err         error
}

// Adapter serves Results[query title][page] as result pages.
type Adapter struct {
	Name    string
	Results map[string][][]Posting
	// Hook runs before each extraction, e.g. to cancel a context mid-page.
	Hook func(ctx context.Context, u scraper.Unit)
	// UnsupportedTitle makes BuildSearchURL fail for that job title.
	UnsupportedTitle string
}

func (a *Adapter) Site() string {
	return a.Name
}

func (a *Adapter) BuildSearchURL(q models.SearchQuery) (string, error) {
	if a.UnsupportedTitle != "" && q.JobTitle == a.UnsupportedTitle {
		return "", scraper.ErrUnsupportedFilter{Site: a.Name, Field: "job title", Value: q.JobTitle}
	}
	return fmt.Sprintf("https://%s.test/search?q=%s", a.Name, url.QueryEscape(q.JobTitle)), nil
}

func (a *Adapter) pages(st *scraper.State) [][]Posting {
	return a.Results[st.Query().JobTitle]
}

func (a *Adapter) Units(_ context.Context, _ *scraper.Navigator, st *scraper.State) ([]scraper.Unit, error) {
	pages := a.pages(st)
	idx := st.PagesVisited()
	if idx >= len(pages) {
		return nil, nil
	}
	units := make([]scraper.Unit, len(pages[idx]))
	for i, p := range pages[idx] {
		units[i] = scraper.Unit{ID: p.ID}
	}
	return units, nil
}

func (a *Adapter) Extract(ctx context.Context, nav *scraper.Navigator, st *scraper.State, u scraper.Unit) (models.Posting, error) {
	if a.Hook != nil {
		a.Hook(ctx, u)
	}
	for _, page := range a.pages(st) {
		for _, p := range page {
			if p.ID != u.ID {
				continue
			}
			if p.Err != nil {
				return models.Posting{}, p.Err
			}
			return models.Posting{
				ID:          p.ID,
				Company:     p.Company,
				Title:       p.Title,
				Location:    p.Location,
				Description: p.Description,
				URL:         fmt.Sprintf("https://%s.test/jobs/%s", a.Name, p.ID),
			}, nil
		}
	}
	return models.Posting{}, scraper.ErrExtraction{Site: a.Name, Unit: u.ID, Err: browser.ErrNoElement}
}

func (a *Adapter) NextPage(ctx context.Context, nav *scraper.Navigator, st *scraper.State) (bool, error) {
	if st.PagesVisited() >= len(a.pages(st)) {
		return false, nil
	}
	next := fmt.Sprintf("https://%s.test/search?q=%s&page=%d", a.Name, url.QueryEscape(st.Query().JobTitle), st.PagesVisited()+1)
	if err := nav.Load(ctx, next); err != nil {
		return false, err
	}
	return true, nil
}

// ResultPage builds a results page of n postings with IDs prefix-1..prefix-n.
func ResultPage(prefix string, n int) []Posting {
	out := make([]Posting, n)
	for i := range out {
		out[i] = Posting{
			ID:          fmt.Sprintf("%s-%d", prefix, i+1),
			Company:     fmt.Sprintf("Company %s %d", prefix, i+1),
			Title:       fmt.Sprintf("Golang Developer %s %d", prefix, i+1),
			Location:    "Remote",
			Description: "Go, Kubernetes, PostgreSQL",
		}
	}
	return out
}
