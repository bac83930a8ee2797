package services

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alfredoptarigan/rag-candidates/internal/models"
)

func intPtr(n int) *int { return &n }

func seniorityPtr(l models.SeniorityLevel) *models.SeniorityLevel { return &l }

func boolPtr(b bool) *bool { return &b }

func TestBuildCandidateFilters(t *testing.T) {
	b := NewFilterBuilder()

	assert.Empty(t, b.BuildCandidateFilters(models.ParsedQuery{}))

	filters := b.BuildCandidateFilters(models.ParsedQuery{
		MinSeniorityLevel:  seniorityPtr(models.SeniorityLead),
		MinYearsExperience: intPtr(5),
	})
	require.Len(t, filters, 2)

	out, err := json.Marshal(filters)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"seniority_level":{"$in":["Lead","Principal","Staff"]}},{"years_experience":{"$gte":5}}]`, string(out))
}

func TestBuildTechnologyFilter(t *testing.T) {
	b := NewFilterBuilder()

	assert.Nil(t, b.BuildTechnologyFilter(models.ParsedQuery{}))

	f := b.BuildTechnologyFilter(models.ParsedQuery{RequiredTechnologies: []string{"Java", "React"}})
	require.NotNil(t, f)
	out, err := json.Marshal(f)
	require.NoError(t, err)
	assert.JSONEq(t, `{"$and":[{"type":"skill"},{"skill_name":{"$in":["Java","React"]}}]}`, string(out))
}

func TestBuildSearchFilterTechnologyReplacesEverything(t *testing.T) {
	b := NewFilterBuilder()
	q := models.ParsedQuery{
		RequiredTechnologies: []string{"Go"},
		MinYearsExperience:   intPtr(3),
	}
	f := b.BuildSearchFilter(q, &models.ChatFilters{Prepared: boolPtr(true)})
	require.NotNil(t, f)

	out, err := json.Marshal(f)
	require.NoError(t, err)
	assert.JSONEq(t, `{"$and":[{"type":"skill"},{"skill_name":{"$in":["Go"]}}]}`, string(out))
}

func TestBuildSearchFilterComposition(t *testing.T) {
	b := NewFilterBuilder()

	assert.Nil(t, b.BuildSearchFilter(models.ParsedQuery{}, nil))
	assert.Nil(t, b.BuildSearchFilter(models.ParsedQuery{}, &models.ChatFilters{}))

	single := b.BuildSearchFilter(models.ParsedQuery{}, &models.ChatFilters{Prepared: boolPtr(true)})
	require.NotNil(t, single)
	out, err := json.Marshal(single)
	require.NoError(t, err)
	assert.JSONEq(t, `{"prepared":true}`, string(out))

	all := b.BuildSearchFilter(
		models.ParsedQuery{MinYearsExperience: intPtr(2)},
		&models.ChatFilters{
			Prepared:     boolPtr(false),
			EnglishMin:   "B2",
			CandidateIDs: []string{"c-1", "c-2"},
		},
	)
	require.NotNil(t, all)
	out, err = json.Marshal(all)
	require.NoError(t, err)
	assert.JSONEq(t, `{"$and":[
		{"prepared":false},
		{"english_level_num":{"$gte":4}},
		{"candidate_id":{"$in":["c-1","c-2"]}},
		{"years_experience":{"$gte":2}}
	]}`, string(out))
}

func TestFilterAggregatedCandidates(t *testing.T) {
	b := NewFilterBuilder()
	candidates := []models.AggregatedCandidate{
		{CandidateID: "senior-7", Metadata: models.Metadata{
			models.FieldSeniorityLevel:  models.String("Senior"),
			models.FieldYearsExperience: models.Int(7),
		}},
		{CandidateID: "junior-2", Metadata: models.Metadata{
			models.FieldSeniorityLevel:  models.String("Junior"),
			models.FieldYearsExperience: models.Int(2),
		}},
		{CandidateID: "weird", Metadata: models.Metadata{
			models.FieldSeniorityLevel:  models.String("Rockstar"),
			models.FieldYearsExperience: models.String("ten"),
		}},
		{CandidateID: "lead-string-years", Metadata: models.Metadata{
			models.FieldSeniorityLevel:  models.String("lead"),
			models.FieldYearsExperience: models.String("12"),
		}},
		{CandidateID: "empty"},
	}

	q := models.ParsedQuery{MinSeniorityLevel: seniorityPtr(models.SeniorityMid), MinYearsExperience: intPtr(5)}
	filtered := b.FilterAggregatedCandidates(candidates, q)

	ids := make([]string, 0, len(filtered))
	for _, c := range filtered {
		ids = append(ids, c.CandidateID)
	}
	assert.Equal(t, []string{"senior-7", "lead-string-years"}, ids)

	again := b.FilterAggregatedCandidates(filtered, q)
	assert.Equal(t, filtered, again)

	assert.Len(t, b.FilterAggregatedCandidates(candidates, models.ParsedQuery{}), len(candidates))
}

func TestBuildSearchFilterEnglishLevelSpellings(t *testing.T) {
	b := NewFilterBuilder()
	cases := map[string]string{
		"b2":         `{"english_level_num":{"$gte":4}}`,
		"fluent":     `{"english_level_num":{"$gte":5}}`,
		"NATIVE":     `{"english_level_num":{"$gte":6}}`,
		"Proficient": `{"english_level_num":{"$gte":0}}`,
	}
	for level, want := range cases {
		f := b.BuildSearchFilter(models.ParsedQuery{}, &models.ChatFilters{EnglishMin: level})
		require.NotNil(t, f, level)
		out, err := json.Marshal(f)
		require.NoError(t, err)
		assert.JSONEq(t, want, string(out), level)
	}
}
