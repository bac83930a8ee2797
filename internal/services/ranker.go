package services

import (
	"math"
	"sort"
	"strings"

	"alfredoptarigan/rag-candidates/internal/models"
)

type RankingWeights struct {
	TechnicalMatch             float64
	SeniorityMatch             float64
	LeadershipSignals          float64
	ExperienceMatch            float64
	LeadershipKeywordThreshold int
	MaxSeniorityDelta          int
	MaxLeadershipContribution  float64
}

func DefaultRankingWeights() RankingWeights {
	return RankingWeights{
		TechnicalMatch:             0.40,
		SeniorityMatch:             0.25,
		LeadershipSignals:          0.20,
		ExperienceMatch:            0.15,
		LeadershipKeywordThreshold: 2,
		MaxSeniorityDelta:          2,
		MaxLeadershipContribution:  0.5,
	}
}

// experienceWindow is the number of surplus years that earns a full experience score.
const experienceWindow = 10.0

type CandidateRanker struct {
	weights RankingWeights
}

func NewCandidateRanker(weights RankingWeights) *CandidateRanker {
	return &CandidateRanker{weights: weights}
}

// Rank scores every candidate and orders them by total score, highest first. Equal
// totals keep their input order.
func (r *CandidateRanker) Rank(candidates []models.AggregatedCandidate, q models.ParsedQuery) []models.RankedCandidate {
	leadershipRelevant := IsLeadershipQuery(q)

	ranked := make([]models.RankedCandidate, 0, len(candidates))
	for _, c := range candidates {
		rc := models.RankedCandidate{
			AggregatedCandidate: c,
			TechnicalScore:      clamp01(r.technicalScore(c, q)),
			SeniorityScore:      clamp01(r.seniorityScore(c, q)),
			ExperienceScore:     clamp01(r.experienceScore(c, q)),
		}
		if leadershipRelevant {
			rc.LeadershipScore = clamp01(r.leadershipScore(c))
		}
		rc.TotalScore = rc.TechnicalScore*r.weights.TechnicalMatch +
			rc.SeniorityScore*r.weights.SeniorityMatch +
			rc.LeadershipScore*r.weights.LeadershipSignals +
			rc.ExperienceScore*r.weights.ExperienceMatch
		ranked = append(ranked, rc)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].TotalScore > ranked[j].TotalScore
	})
	return ranked
}

func (r *CandidateRanker) technicalScore(c models.AggregatedCandidate, q models.ParsedQuery) float64 {
	if len(q.RequiredTechnologies) == 0 {
		return 1.0
	}
	v, ok := c.Metadata.Get(models.FieldPrimarySkills)
	if !ok {
		return 0
	}
	skills, ok := v.AsStringList()
	if !ok || len(skills) == 0 {
		return 0
	}
	for i := range skills {
		skills[i] = strings.ToLower(skills[i])
	}

	matched := 0
	for _, tech := range q.RequiredTechnologies {
		needle := strings.ToLower(tech)
		for _, skill := range skills {
			if strings.Contains(skill, needle) {
				matched++
				break
			}
		}
	}
	return math.Min(1.0, float64(matched)/float64(len(q.RequiredTechnologies)))
}

func (r *CandidateRanker) seniorityScore(c models.AggregatedCandidate, q models.ParsedQuery) float64 {
	if q.MinSeniorityLevel == nil {
		return 1.0
	}
	raw, ok := c.Metadata.GetString(models.FieldSeniorityLevel)
	if !ok {
		return 0
	}
	level, ok := models.ParseSeniorityLevel(raw)
	if !ok || level < *q.MinSeniorityLevel {
		return 0
	}

	excess := int(level - *q.MinSeniorityLevel)
	if r.weights.MaxSeniorityDelta <= 0 {
		if excess == 0 {
			return 1.0
		}
		return 0
	}
	return float64(min(excess, r.weights.MaxSeniorityDelta)) / float64(r.weights.MaxSeniorityDelta)
}

// leadershipScore counts keyword occurrences across all retrieved text, not distinct keywords.
func (r *CandidateRanker) leadershipScore(c models.AggregatedCandidate) float64 {
	text := strings.ToLower(strings.Join(c.Documents, " "))
	count := 0
	for _, kw := range leadershipKeywords {
		count += strings.Count(text, kw)
	}
	if count < r.weights.LeadershipKeywordThreshold {
		return 0
	}
	return math.Min(r.weights.MaxLeadershipContribution, 1.0)
}

func (r *CandidateRanker) experienceScore(c models.AggregatedCandidate, q models.ParsedQuery) float64 {
	if q.MinYearsExperience == nil {
		return 1.0
	}
	v, ok := c.Metadata.Get(models.FieldYearsExperience)
	if !ok {
		return 0
	}
	years, ok := v.AsInt()
	if !ok || years < *q.MinYearsExperience {
		return 0
	}
	return math.Min(float64(years-*q.MinYearsExperience)/experienceWindow, 1.0)
}

func clamp01(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
