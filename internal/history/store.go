// Package history is the cross-run dedup ledger: per site, every posting ID that
// ever made it into a report. Entries are only ever added.
package history

import (
	"context"
	"errors"
	"strings"
)

// Set is the loaded history of one site.
type Set map[string]struct{}

func (s Set) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Store persists one Set per site.
type Store interface {
	// Load returns every ID recorded for site. Missing storage is an empty set.
	Load(ctx context.Context, site string) (Set, error)
	// Append records ids for site. IDs already present are ignored, so calls may overlap.
	Append(ctx context.Context, site string, ids []string) error
	Close() error
}

var errNoSite = errors.New("history: empty site name")

func siteKey(site string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(site))
	if s == "" {
		return "", errNoSite
	}
	return s, nil
}

// cleanIDs trims ids and drops blanks and repeats, keeping order.
func cleanIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
