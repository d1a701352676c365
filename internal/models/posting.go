package models

import (
	"sort"
	"strings"
	"time"
)

// Comment is the classifier's label for a posting. Empty means classification was skipped.
type Comment string

const (
	CommentNone     Comment = ""
	CommentGood     Comment = "good"
	CommentModerate Comment = "moderate"
	CommentPoor     Comment = "poor"
)

// Posting is one scraped job. Identity is (Site, ID).
type Posting struct {
	ID          string  `json:"id"`
	Site        string  `json:"site"`
	SearchTitle string  `json:"search_title"`
	Company     string  `json:"company"`
	Title       string  `json:"title"`
	Location    string  `json:"location"`
	URL         string  `json:"url"`
	Description string  `json:"description,omitempty"`
	Validated   bool    `json:"validated"`
	Comment     Comment `json:"comment,omitempty"`
}

// Key returns the cross-site identity of the posting.
func (p Posting) Key() string {
	return p.Site + "/" + p.ID
}

// RunResult is the merged, ordered output of one run.
type RunResult struct {
	RunID      string        `json:"run_id"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Postings   []Posting     `json:"postings"`
	Tasks      []TaskSummary `json:"tasks"`
}

// TaskSummary counts what happened to one task's postings at each stage.
type TaskSummary struct {
	Site        string        `json:"site"`
	Scraped     int           `json:"scraped"`
	AlreadySeen int           `json:"already_seen"`
	Dropped     int           `json:"dropped"`
	Reported    int           `json:"reported"`
	Duration    time.Duration `json:"duration"`
	Error       string        `json:"error,omitempty"`
}

// Len returns the number of postings in the result.
func (r RunResult) Len() int {
	return len(r.Postings)
}

// SortPostings orders postings by site, then search title, then company.
// Ties keep their input order.
func SortPostings(postings []Posting) {
	sort.SliceStable(postings, func(i, j int) bool {
		a, b := postings[i], postings[j]
		if a.Site != b.Site {
			return a.Site < b.Site
		}
		if a.SearchTitle != b.SearchTitle {
			return a.SearchTitle < b.SearchTitle
		}
		return strings.Compare(a.Company, b.Company) < 0
	})
}
