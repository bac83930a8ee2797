package services

import (
	"strings"

	"alfredoptarigan/rag-candidates/internal/models"
)

// FilterBuilder translates a parsed query into metadata filters and re-checks
// aggregated candidates in memory.
type FilterBuilder struct {
	candidateIDField string
	seniorityField   string
	yearsField       string
	skillNameField   string
	typeField        string
	typeSkill        string
}

func NewFilterBuilder() *FilterBuilder {
	return &FilterBuilder{
		candidateIDField: models.FieldCandidateID,
		seniorityField:   models.FieldSeniorityLevel,
		yearsField:       models.FieldYearsExperience,
		skillNameField:   models.FieldSkillName,
		typeField:        models.FieldType,
		typeSkill:        models.TypeSkill,
	}
}

// BuildCandidateFilters returns the seniority and experience leaves for the query.
func (b *FilterBuilder) BuildCandidateFilters(q models.ParsedQuery) []models.Filter {
	var filters []models.Filter
	if q.MinSeniorityLevel != nil {
		filters = append(filters, models.InStrings(b.seniorityField, models.SenioritiesAtLeast(*q.MinSeniorityLevel)))
	}
	if q.MinYearsExperience != nil {
		filters = append(filters, models.Gte(b.yearsField, float64(*q.MinYearsExperience)))
	}
	return filters
}

// BuildTechnologyFilter restricts the search to skill chunks naming one of the required technologies.
func (b *FilterBuilder) BuildTechnologyFilter(q models.ParsedQuery) *models.Filter {
	if len(q.RequiredTechnologies) == 0 {
		return nil
	}
	f := models.And(
		models.Eq(b.typeField, models.String(b.typeSkill)),
		models.InStrings(b.skillNameField, q.RequiredTechnologies),
	)
	return &f
}

// BuildSearchFilter composes the filter sent to the vector store. A technology filter
// replaces everything else; otherwise explicit request filters come first, then the
// query-derived ones.
func (b *FilterBuilder) BuildSearchFilter(q models.ParsedQuery, explicit *models.ChatFilters) *models.Filter {
	if tech := b.BuildTechnologyFilter(q); tech != nil {
		return tech
	}

	var conditions []models.Filter
	if explicit != nil {
		if explicit.Prepared != nil {
			conditions = append(conditions, models.Eq(models.FieldPrepared, models.Bool(*explicit.Prepared)))
		}
		if strings.TrimSpace(explicit.EnglishMin) != "" {
			level := models.EnglishLevelToNum(explicit.EnglishMin)
			conditions = append(conditions, models.Gte(models.FieldEnglishLevelNum, float64(level)))
		}
		if len(explicit.CandidateIDs) > 0 {
			conditions = append(conditions, models.InStrings(b.candidateIDField, explicit.CandidateIDs))
		}
	}
	conditions = append(conditions, b.BuildCandidateFilters(q)...)

	return models.Combine(conditions)
}

// FilterAggregatedCandidates keeps candidates whose metadata satisfies the query's
// seniority and experience minimums. Missing or unparseable values never qualify.
func (b *FilterBuilder) FilterAggregatedCandidates(candidates []models.AggregatedCandidate, q models.ParsedQuery) []models.AggregatedCandidate {
	out := make([]models.AggregatedCandidate, 0, len(candidates))
	for _, c := range candidates {
		if b.meetsSeniority(c.Metadata, q.MinSeniorityLevel) && b.meetsExperience(c.Metadata, q.MinYearsExperience) {
			out = append(out, c)
		}
	}
	return out
}

func (b *FilterBuilder) meetsSeniority(m models.Metadata, min *models.SeniorityLevel) bool {
	if min == nil {
		return true
	}
	raw, ok := m.GetString(b.seniorityField)
	if !ok {
		return false
	}
	level, ok := models.ParseSeniorityLevel(raw)
	return ok && level >= *min
}

func (b *FilterBuilder) meetsExperience(m models.Metadata, min *int) bool {
	if min == nil {
		return true
	}
	v, ok := m.Get(b.yearsField)
	if !ok {
		return false
	}
	years, ok := v.AsInt()
	return ok && years >= *min
}
