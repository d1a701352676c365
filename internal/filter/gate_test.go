package filter

import (
	"testing"

	"go-jobscout/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestEvaluate(t *testing.T) {
	q := models.SearchQuery{
		IncludeWords:      []string{"golang", "Go "},
		ExcludeWords:      []string{"senior", "Lead"},
		ExcludedCompanies: []string{"Acme Staffing"},
	}

	tests := []struct {
		name    string
		company string
		title   string
		want    Decision
	}{
		{
			name:    "accepted",
			company: "Zeta",
			title:   "Junior Golang Developer",
			want:    Decision{Accepted: true, Reason: ReasonAccepted},
		},
		{
			name:    "company wins over missing include",
			company: "Acme Staffing",
			title:   "Java Developer",
			want:    Decision{Reason: ReasonExcludedCompany, Keyword: "Acme Staffing"},
		},
		{
			name:    "company wins over exclude keyword",
			company: "Acme Staffing",
			title:   "Senior Golang Engineer",
			want:    Decision{Reason: ReasonExcludedCompany, Keyword: "Acme Staffing"},
		},
		{
			name:    "include checked before exclude",
			company: "Zeta",
			title:   "Senior Java Engineer",
			want:    Decision{Reason: ReasonMissingInclude},
		},
		{
			name:    "exclude keyword is case insensitive",
			company: "Zeta",
			title:   "GOLANG TEAM LEAD",
			want:    Decision{Reason: ReasonExcludedKeyword, Keyword: "Lead"},
		},
		{
			name:    "company match is exact",
			company: "Acme",
			title:   "Golang Developer",
			want:    Decision{Accepted: true, Reason: ReasonAccepted},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(q, tt.company, tt.title))
		})
	}
}

func TestEvaluate_EmptyRulesAcceptEverything(t *testing.T) {
	d := Evaluate(models.SearchQuery{}, "", "")
	assert.True(t, d.Accepted)
}

func TestContainsFold(t *testing.T) {
	assert.True(t, ContainsFold("Kỹ sư Phần mềm", "PHẦN MỀM"))
	assert.False(t, ContainsFold("Backend", ""))
	assert.False(t, ContainsFold("Backend", "frontend"))
}

func TestEvaluate_BlankIncludeWordsAreIgnored(t *testing.T) {
	d := Evaluate(models.SearchQuery{IncludeWords: []string{"", "  "}}, "Acme", "Go Developer")
	assert.True(t, d.Accepted)

	d = Evaluate(models.SearchQuery{IncludeWords: []string{"", "rust"}}, "Acme", "Go Developer")
	assert.Equal(t, ReasonMissingInclude, d.Reason)
}
