package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnums(t *testing.T) {
	exp, err := ParseExpLevel(" Mid Senior ")
	require.NoError(t, err)
	assert.Equal(t, ExpMidSenior, exp)

	exp, err = ParseExpLevel("")
	require.NoError(t, err)
	assert.Equal(t, ExpAny, exp)

	_, err = ParseExpLevel("guru")
	assert.Error(t, err)

	jt, err := ParseJobType("FULL_TIME")
	require.NoError(t, err)
	assert.Equal(t, JobTypeFullTime, jt)

	_, err = ParseJobType("gig")
	assert.Error(t, err)

	for in, want := range map[string]Workplace{"onsite": WorkplaceOnSite, "On Site": WorkplaceOnSite, "remote": WorkplaceRemote, "": WorkplaceAny} {
		got, err := ParseWorkplace(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err = ParseWorkplace("moon")
	assert.Error(t, err)
}

func TestSortPostings(t *testing.T) {
	postings := []Posting{
		{ID: "5", Site: "linkedin", SearchTitle: "go", Company: "Acme"},
		{ID: "4", Site: "indeed", SearchTitle: "rust", Company: "Acme"},
		{ID: "3", Site: "indeed", SearchTitle: "go", Company: "Zeta"},
		{ID: "2", Site: "indeed", SearchTitle: "go", Company: "Beta"},
		{ID: "1", Site: "indeed", SearchTitle: "go", Company: "Beta"},
	}
	SortPostings(postings)

	var ids []string
	for _, p := range postings {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"2", "1", "3", "4", "5"}, ids, "ties keep input order")
}

func TestPostingKey(t *testing.T) {
	a := Posting{ID: "42", Site: "indeed"}
	b := Posting{ID: "42", Site: "linkedin"}
	assert.NotEqual(t, a.Key(), b.Key())
	assert.Equal(t, "indeed/42", a.Key())
}
