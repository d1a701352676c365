// Package scraper holds the site adapter contract, the per-query session state and
// the session controller that drives adapters over one browser.
package scraper

import (
	"context"

	"go-jobscout/internal/browser"
	"go-jobscout/internal/models"
)

// Unit is one result entry on a search page: an element, a site job ID, or both.
type Unit struct {
	ID      string
	Element browser.Element
}

// Adapter is implemented once per site. Adapters never touch the browser directly;
// every navigation goes through the Navigator so retry and anti-bot rules apply.
type Adapter interface {
	// Site is the lower-case site name used for history and reports.
	Site() string
	// BuildSearchURL is a pure function of q and static site settings.
	BuildSearchURL(q models.SearchQuery) (string, error)
	// Units lists the result entries of the page currently loaded.
	Units(ctx context.Context, nav *Navigator, st *State) ([]Unit, error)
	// Extract reads one unit into an ungated posting.
	Extract(ctx context.Context, nav *Navigator, st *State, u Unit) (models.Posting, error)
	// NextPage moves to the following results page; false means there is none.
	NextPage(ctx context.Context, nav *Navigator, st *State) (bool, error)
}

// SearchURL returns the query's URL override, or the adapter-built URL.
func SearchURL(a Adapter, q models.SearchQuery) (string, error) {
	if q.CustomURL != "" {
		return q.CustomURL, nil
	}
	return a.BuildSearchURL(q)
}

// State is the per-query session state. Reset starts a new query; nothing else
// clears the satisfied flag.
type State struct {
	query     models.SearchQuery
	accepted  []models.Posting
	ids       map[string]struct{}
	pages     int
	satisfied bool

	// NextURL is scratch space for adapters that paginate by URL.
	NextURL string
}

// Reset binds q as the current query and zeroes all counters. A query whose
// num_jobs is below one is satisfied from the start and accepts nothing.
func (s *State) Reset(q models.SearchQuery) {
	s.query = q
	s.accepted = nil
	s.ids = map[string]struct{}{}
	s.pages = 0
	s.satisfied = q.NumJobs < 1
	s.NextURL = ""
}

func (s *State) Query() models.SearchQuery {
	return s.query
}

// Accept records p unless the cap is already reached or p's ID was already accepted
// for this query, and reports whether p was kept. The satisfied flag is set by the
// call that reaches num_jobs.
func (s *State) Accept(p models.Posting) bool {
	if s.satisfied {
		return false
	}
	if _, dup := s.ids[p.ID]; dup {
		return false
	}
	if s.ids == nil {
		s.ids = map[string]struct{}{}
	}
	s.ids[p.ID] = struct{}{}
	s.accepted = append(s.accepted, p)
	if len(s.accepted) >= s.query.NumJobs {
		s.satisfied = true
	}
	return true
}

func (s *State) Satisfied() bool {
	return s.satisfied
}

func (s *State) JobsAccepted() int {
	return len(s.accepted)
}

func (s *State) PagesVisited() int {
	return s.pages
}

func (s *State) visitPage() {
	s.pages++
}

// Postings returns a copy of the postings accepted for the current query.
func (s *State) Postings() []models.Posting {
	out := make([]models.Posting, len(s.accepted))
	copy(out, s.accepted)
	return out
}
