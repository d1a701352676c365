// Package filter holds the title/company gating rules applied to every extracted posting.
package filter

import (
	"strings"

	"go-jobscout/internal/models"
)

// Reason names the rule that decided a candidate.
type Reason string

const (
	ReasonAccepted        Reason = "accepted"
	ReasonExcludedCompany Reason = "excluded_company"
	ReasonMissingInclude  Reason = "missing_include_keyword"
	ReasonExcludedKeyword Reason = "excluded_keyword"
)

// Decision is the outcome of Evaluate. Keyword is the matching exclude word or company.
type Decision struct {
	Accepted bool
	Reason   Reason
	Keyword  string
}

// Evaluate applies the gating rules in their fixed order and stops at the first match:
// excluded company, then missing include keyword, then excluded keyword.
func Evaluate(q models.SearchQuery, company, title string) Decision {
	company = strings.TrimSpace(company)
	for _, c := range q.ExcludedCompanies {
		if strings.TrimSpace(c) == company && company != "" {
			return Decision{Reason: ReasonExcludedCompany, Keyword: c}
		}
	}

	if include := nonBlank(q.IncludeWords); len(include) > 0 && !containsAny(title, include) {
		return Decision{Reason: ReasonMissingInclude}
	}

	for _, kw := range q.ExcludeWords {
		if ContainsFold(title, kw) {
			return Decision{Reason: ReasonExcludedKeyword, Keyword: kw}
		}
	}

	return Decision{Accepted: true, Reason: ReasonAccepted}
}

// nonBlank drops empty and whitespace-only words; they match nothing.
func nonBlank(words []string) []string {
	var out []string
	for _, w := range words {
		if strings.TrimSpace(w) != "" {
			out = append(out, w)
		}
	}
	return out
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if ContainsFold(text, w) {
			return true
		}
	}
	return false
}
