package services

import "alfredoptarigan/rag-candidates/internal/models"

// CandidateAggregator groups chunk hits by candidate.
type CandidateAggregator struct {
	idField   string
	typeField string
}

func NewCandidateAggregator(idField string) *CandidateAggregator {
	if idField == "" {
		idField = models.FieldCandidateID
	}
	return &CandidateAggregator{idField: idField, typeField: models.FieldType}
}

// Aggregate merges hits per candidate in first-seen order. Metadata from the first hit
// wins; keys it lacks are filled from later hits. Hits without an id are grouped under
// "unknown".
func (a *CandidateAggregator) Aggregate(hits []models.SearchHit) []models.AggregatedCandidate {
	index := make(map[string]int)
	var out []models.AggregatedCandidate

	for _, hit := range hits {
		id, ok := hit.Metadata.GetString(a.idField)
		if !ok {
			id = models.UnknownValue
		}

		section, ok := hit.Metadata.GetString(a.typeField)
		if !ok {
			section = models.UnknownValue
		}

		i, seen := index[id]
		if !seen {
			index[id] = len(out)
			out = append(out, models.AggregatedCandidate{
				CandidateID: id,
				Metadata:    hit.Metadata.Clone(),
			})
			i = len(out) - 1
		} else {
			if out[i].Metadata == nil {
				out[i].Metadata = models.Metadata{}
			}
			for k, v := range hit.Metadata {
				if _, exists := out[i].Metadata[k]; !exists {
					out[i].Metadata[k] = v
				}
			}
		}

		c := &out[i]
		c.Documents = append(c.Documents, hit.Document)
		c.Sections = append(c.Sections, section)
		c.AllScores = append(c.AllScores, hit.Score)
	}

	for i := range out {
		out[i].MaxScore = maxScore(out[i].AllScores)
	}
	return out
}

func maxScore(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	best := scores[0]
	for _, s := range scores[1:] {
		if s > best {
			best = s
		}
	}
	return best
}
