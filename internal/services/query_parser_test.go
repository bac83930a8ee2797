package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alfredoptarigan/rag-candidates/internal/models"
)

func newTestParser() *QueryParser {
	return NewQueryParser(DefaultQueryParsingConfig())
}

func TestParseYearsOfJava(t *testing.T) {
	q := newTestParser().Parse("Who has 5+ years of Java experience?")

	require.NotNil(t, q.MinYearsExperience)
	assert.Equal(t, 5, *q.MinYearsExperience)
	assert.Equal(t, []string{"Java"}, q.RequiredTechnologies)
	assert.Nil(t, q.MinSeniorityLevel)
	assert.Equal(t, models.IntentGeneral, q.QueryIntent)
	assert.Equal(t, "Who has 5+ years of Java experience?", q.QueryText)
}

func TestParseListAllReact(t *testing.T) {
	q := newTestParser().Parse("list all React developers")

	assert.Equal(t, models.IntentListAll, q.QueryIntent)
	assert.Equal(t, []string{"React"}, q.RequiredTechnologies)
}

func TestParsePlainQuestion(t *testing.T) {
	q := newTestParser().Parse("Tell me something interesting about the pool")

	assert.Equal(t, models.IntentGeneral, q.QueryIntent)
	assert.Empty(t, q.RequiredTechnologies)
	assert.Nil(t, q.MinSeniorityLevel)
	assert.Nil(t, q.MinYearsExperience)
}

func TestParseIntentOrder(t *testing.T) {
	p := newTestParser()

	tests := map[string]models.QueryIntent{
		"Who is the best Go engineer":             models.IntentFindBest,
		"Show me candidates with Docker":          models.IntentListAll,
		"Compare Ana and Bruno":                   models.IntentCompare,
		"Explain the ranking":                     models.IntentExplain,
		"best of all":                             models.IntentFindBest,
		"what is the difference between them":     models.IntentCompare,
		"candidates with good communication, pls": models.IntentGeneral,
	}
	for text, want := range tests {
		assert.Equal(t, want, p.Parse(text).QueryIntent, text)
	}
}

func TestParseTechnologies(t *testing.T) {
	p := newTestParser()

	tests := []struct {
		text string
		want []string
	}{
		{"Need a Node.js and k8s person", []string{"Kubernetes", "Node.js"}},
		{"c# or dotnet folks", []string{".NET", "C#"}},
		{"typescript, ts or js", []string{"JavaScript", "TypeScript"}},
		{"someone who knows javascript", []string{"JavaScript"}},
		{"postgres and mongo on aws", []string{"AWS", "MongoDB", "PostgreSQL"}},
		{"vue.js frontend", []string{"Vue"}},
		{"java, java and more java", []string{"Java"}},
		{"gcp experience", []string{"Google Cloud"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, p.Parse(tt.text).RequiredTechnologies, tt.text)
	}
}

func TestParseSeniority(t *testing.T) {
	p := newTestParser()

	tests := map[string]models.SeniorityLevel{
		"a junior developer":          models.SeniorityJunior,
		"Senior backend engineers":    models.SenioritySenior,
		"looking for a tech lead":     models.SeniorityLead,
		"principal engineer":          models.SeniorityPrincipal,
		"an intern for summer":        models.SeniorityIntern,
		"an entry-level QA":           models.SeniorityJunior,
		"solution architect":          models.SeniorityStaff,
		"staff engineer with k8s":     models.SeniorityPrincipal,
		"intermediate python person":  models.SeniorityMid,
		"mid-level React dev, please": models.SeniorityMid,
	}
	for text, want := range tests {
		got := p.Parse(text).MinSeniorityLevel
		require.NotNil(t, got, text)
		assert.Equal(t, want, *got, text)
	}
}

func TestParseExperience(t *testing.T) {
	p := newTestParser()

	tests := map[string]int{
		"at least 3 years with Go":       3,
		"minimum 2 yrs":                  2,
		"10 years of experience in SQL":  10,
		"someone with 7yrs":              7,
		"8+ Years in fintech":            8,
		"min 4 year of exp, then 9 more": 4,
	}
	for text, want := range tests {
		got := p.Parse(text).MinYearsExperience
		require.NotNil(t, got, text)
		assert.Equal(t, want, *got, text)
	}

	assert.Nil(t, p.Parse("twenty years").MinYearsExperience)
}

func TestParserUsesInjectedTables(t *testing.T) {
	cfg := QueryParsingConfig{
		Intents:            []IntentKeywords{{Intent: models.IntentCompare, Keywords: []string{"pick"}}},
		SeniorityTokens:    []SeniorityToken{{Token: "guru", Level: models.SeniorityStaff}},
		TechnologySynonyms: []TechnologySynonym{{Token: "rb", Canonical: "Ruby"}},
	}
	q := NewQueryParser(cfg).Parse("pick a guru who writes rb for 5 years")

	assert.Equal(t, models.IntentCompare, q.QueryIntent)
	require.NotNil(t, q.MinSeniorityLevel)
	assert.Equal(t, models.SeniorityStaff, *q.MinSeniorityLevel)
	assert.Equal(t, []string{"Ruby"}, q.RequiredTechnologies)
	assert.Nil(t, q.MinYearsExperience)
}

func TestIsLeadershipQuery(t *testing.T) {
	p := newTestParser()

	assert.True(t, IsLeadershipQuery(p.Parse("who is the best fit")))
	assert.True(t, IsLeadershipQuery(p.Parse("engineering manager with Go")))
	assert.False(t, IsLeadershipQuery(p.Parse("Python developers")))
}
