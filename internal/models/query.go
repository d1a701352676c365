package models

import (
	"fmt"
	"strings"
)

// ExpLevel is a seniority filter understood by the site adapters.
type ExpLevel string

const (
	ExpAny        ExpLevel = ""
	ExpInternship ExpLevel = "internship"
	ExpEntry      ExpLevel = "entry"
	ExpAssociate  ExpLevel = "associate"
	ExpMidSenior  ExpLevel = "mid-senior"
	ExpDirector   ExpLevel = "director"
	ExpExecutive  ExpLevel = "executive"
)

// JobType is an employment-type filter.
type JobType string

const (
	JobTypeAny        JobType = ""
	JobTypeFullTime   JobType = "full-time"
	JobTypePartTime   JobType = "part-time"
	JobTypeContract   JobType = "contract"
	JobTypeTemporary  JobType = "temporary"
	JobTypeInternship JobType = "internship"
	JobTypeOther      JobType = "other"
)

// Workplace is an on-site/remote filter.
type Workplace string

const (
	WorkplaceAny    Workplace = ""
	WorkplaceOnSite Workplace = "on-site"
	WorkplaceRemote Workplace = "remote"
	WorkplaceHybrid Workplace = "hybrid"
)

var expLevels = []ExpLevel{ExpInternship, ExpEntry, ExpAssociate, ExpMidSenior, ExpDirector, ExpExecutive}

var jobTypes = []JobType{JobTypeFullTime, JobTypePartTime, JobTypeContract, JobTypeTemporary, JobTypeInternship, JobTypeOther}

var workplaces = []Workplace{WorkplaceOnSite, WorkplaceRemote, WorkplaceHybrid}

func canon(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "_", "-")
	return strings.ReplaceAll(s, " ", "-")
}

// ParseExpLevel accepts "", "Mid Senior", "mid_senior", ... and rejects anything unknown.
func ParseExpLevel(s string) (ExpLevel, error) {
	c := canon(s)
	if c == "" {
		return ExpAny, nil
	}
	for _, l := range expLevels {
		if string(l) == c {
			return l, nil
		}
	}
	return ExpAny, fmt.Errorf("unknown experience level %q", s)
}

// ParseJobType accepts "", "Full Time", "full_time", ... and rejects anything unknown.
func ParseJobType(s string) (JobType, error) {
	c := canon(s)
	if c == "" {
		return JobTypeAny, nil
	}
	for _, t := range jobTypes {
		if string(t) == c {
			return t, nil
		}
	}
	return JobTypeAny, fmt.Errorf("unknown job type %q", s)
}

// ParseWorkplace accepts "", "On Site", "onsite", "remote", "hybrid".
func ParseWorkplace(s string) (Workplace, error) {
	c := canon(s)
	if c == "onsite" {
		c = string(WorkplaceOnSite)
	}
	if c == "" {
		return WorkplaceAny, nil
	}
	for _, w := range workplaces {
		if string(w) == c {
			return w, nil
		}
	}
	return WorkplaceAny, fmt.Errorf("unknown workplace %q", s)
}

// SearchQuery is one parameterised search. Treat it as a value: adapters and the
// session never modify it after construction.
type SearchQuery struct {
	JobTitle          string
	Location          string
	NumJobs           int
	HoursWithin       int // 0 means no recency window
	IncludeWords      []string
	ExcludeWords      []string
	ExcludedCompanies []string
	FetchDescription  bool
	ExpLevel          ExpLevel
	JobType           JobType
	Workplace         Workplace
	CustomURL         string
}

// Profile is the candidate description handed to the classifier.
type Profile struct {
	WorkExperience string
	Skills         string
}

// Task is one site plus its query batch.
type Task struct {
	Site      string
	LLMFilter bool
	Profile   Profile
	Queries   []SearchQuery
}
