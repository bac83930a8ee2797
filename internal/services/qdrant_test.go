package services

import (
	"testing"

	"github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alfredoptarigan/rag-candidates/internal/models"
)

func TestToQdrantFilter(t *testing.T) {
	f := models.And(
		models.Eq(models.FieldPrepared, models.Bool(true)),
		models.Gte(models.FieldEnglishLevelNum, 4),
		models.And(
			models.InStrings(models.FieldSeniorityLevel, []string{"Senior", "Lead"}),
			models.Eq(models.FieldType, models.String(models.TypeSkill)),
		),
	)

	qf, err := toQdrantFilter(&f)
	require.NoError(t, err)
	require.Len(t, qf.GetMust(), 4)

	prepared := qf.GetMust()[0].GetField()
	assert.Equal(t, models.FieldPrepared, prepared.GetKey())
	assert.True(t, prepared.GetMatch().GetBoolean())

	english := qf.GetMust()[1].GetField()
	assert.Equal(t, models.FieldEnglishLevelNum, english.GetKey())
	assert.Equal(t, 4.0, english.GetRange().GetGte())

	seniority := qf.GetMust()[2].GetField()
	assert.Equal(t, []string{"Senior", "Lead"}, seniority.GetMatch().GetKeywords().GetStrings())

	typ := qf.GetMust()[3].GetField()
	assert.Equal(t, models.TypeSkill, typ.GetMatch().GetKeyword())
}

func TestToQdrantFilterLeavesAndErrors(t *testing.T) {
	qf, err := toQdrantFilter(nil)
	require.NoError(t, err)
	assert.Nil(t, qf)

	years := models.Eq(models.FieldYearsExperience, models.Int(5))
	qf, err = toQdrantFilter(&years)
	require.NoError(t, err)
	assert.Equal(t, int64(5), qf.GetMust()[0].GetField().GetMatch().GetInteger())

	ids := models.In(models.FieldCandidateID, []models.Value{models.Int(1), models.Int(2)})
	qf, err = toQdrantFilter(&ids)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, qf.GetMust()[0].GetField().GetMatch().GetIntegers().GetIntegers())

	mixed := models.In(models.FieldCandidateID, []models.Value{models.String("a"), models.Int(2)})
	qf, err = toQdrantFilter(&mixed)
	require.NoError(t, err)
	assert.Len(t, qf.GetMust()[0].GetFilter().GetShould(), 2)

	bad := models.Eq(models.FieldType, models.List())
	_, err = toQdrantFilter(&bad)
	assert.Error(t, err)
}

func TestHitFromPayload(t *testing.T) {
	payload := qdrant.NewValueMap(map[string]any{
		payloadDocument:             "Java (High)",
		payloadPointID:              "cand-1:skill:0",
		models.FieldCandidateID:     "cand-1",
		models.FieldYearsExperience: int64(7),
		models.FieldPrimarySkills:   []any{"Java", "Go"},
		models.FieldPrepared:        true,
	})

	hit := hitFromPayload(qdrantPointID("cand-1:skill:0"), payload, 0.87)
	assert.Equal(t, "cand-1:skill:0", hit.ID)
	assert.Equal(t, "Java (High)", hit.Document)
	assert.Equal(t, 0.87, hit.Score)

	years, ok := hit.Metadata[models.FieldYearsExperience].AsInt()
	require.True(t, ok)
	assert.Equal(t, 7, years)

	skills, ok := hit.Metadata[models.FieldPrimarySkills].AsStringList()
	require.True(t, ok)
	assert.Equal(t, []string{"Java", "Go"}, skills)

	_, hasDoc := hit.Metadata[payloadDocument]
	assert.False(t, hasDoc)
}

func TestQdrantPointIDIsDeterministic(t *testing.T) {
	assert.Equal(t, qdrantPointID("a").GetUuid(), qdrantPointID("a").GetUuid())
	assert.NotEqual(t, qdrantPointID("a").GetUuid(), qdrantPointID("b").GetUuid())
}
