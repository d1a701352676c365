package scraper

import (
	"fmt"
	"sort"
	"strings"

	"go-jobscout/internal/models"
)

// Registry maps site names to adapters.
type Registry struct {
	adapters map[string]Adapter
}

func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[string]Adapter, len(adapters))}
	for _, a := range adapters {
		r.adapters[strings.ToLower(a.Site())] = a
	}
	return r
}

// Get looks a site up case-insensitively.
func (r *Registry) Get(site string) (Adapter, bool) {
	a, ok := r.adapters[strings.ToLower(strings.TrimSpace(site))]
	return a, ok
}

// Sites lists registered site names in sorted order.
func (r *Registry) Sites() []string {
	sites := make([]string, 0, len(r.adapters))
	for s := range r.adapters {
		sites = append(sites, s)
	}
	sort.Strings(sites)
	return sites
}

// ValidateTask resolves t's site and builds every query URL once, so unknown sites and
// unsupported filter values fail before a browser is started.
func (r *Registry) ValidateTask(t models.Task) error {
	a, ok := r.Get(t.Site)
	if !ok {
		return fmt.Errorf("%w %q (known: %s)", ErrUnknownSite, t.Site, strings.Join(r.Sites(), ", "))
	}
	for i, q := range t.Queries {
		if _, err := SearchURL(a, q); err != nil {
			return fmt.Errorf("%s query %d (%q): %w", a.Site(), i+1, q.JobTitle, err)
		}
	}
	return nil
}
