package models

import "strings"

type SeniorityLevel int

const (
	SeniorityIntern SeniorityLevel = iota
	SeniorityJunior
	SeniorityMid
	SenioritySenior
	SeniorityLead
	SeniorityPrincipal
	SeniorityStaff
)

var seniorityNames = []string{"Intern", "Junior", "Mid", "Senior", "Lead", "Principal", "Staff"}

func (s SeniorityLevel) String() string {
	if s < SeniorityIntern || s > SeniorityStaff {
		return "Unknown"
	}
	return seniorityNames[s]
}

// ParseSeniorityLevel maps a level name to its ordinal, ignoring case and surrounding space.
func ParseSeniorityLevel(raw string) (SeniorityLevel, bool) {
	raw = strings.TrimSpace(raw)
	for i, name := range seniorityNames {
		if strings.EqualFold(raw, name) {
			return SeniorityLevel(i), true
		}
	}
	return 0, false
}

// SenioritiesAtLeast lists the level names with an ordinal at or above min.
func SenioritiesAtLeast(min SeniorityLevel) []string {
	if min < SeniorityIntern {
		min = SeniorityIntern
	}
	var out []string
	for i := int(min); i < len(seniorityNames); i++ {
		out = append(out, seniorityNames[i])
	}
	return out
}

type QueryIntent string

const (
	IntentFindBest QueryIntent = "find_best"
	IntentListAll  QueryIntent = "list_all"
	IntentCompare  QueryIntent = "compare"
	IntentExplain  QueryIntent = "explain"
	IntentGeneral  QueryIntent = "general"
)

// ParsedQuery is the structured form of one question.
type ParsedQuery struct {
	QueryText            string          `json:"query_text"`
	QueryIntent          QueryIntent     `json:"query_intent"`
	RequiredTechnologies []string        `json:"required_technologies"`
	MinSeniorityLevel    *SeniorityLevel `json:"min_seniority_level,omitempty"`
	MinYearsExperience   *int            `json:"min_years_experience,omitempty"`
}

// SearchHit is one chunk returned by the vector store, best-first.
type SearchHit struct {
	ID       string
	Document string
	Metadata Metadata
	Score    float64
}

// AggregatedCandidate merges every hit that belongs to one candidate.
type AggregatedCandidate struct {
	CandidateID string
	Documents   []string
	Sections    []string
	Metadata    Metadata
	MaxScore    float64
	AllScores   []float64
}

type RankedCandidate struct {
	AggregatedCandidate
	TechnicalScore  float64
	SeniorityScore  float64
	LeadershipScore float64
	ExperienceScore float64
	TotalScore      float64
}

// Metadata field names and type labels written at index time and read at query time.
const (
	FieldType            = "type"
	FieldCandidateID     = "candidate_id"
	FieldFullname        = "fullname"
	FieldEnglishLevel    = "english_level"
	FieldEnglishLevelNum = "english_level_num"
	FieldSeniorityLevel  = "seniority_level"
	FieldYearsExperience = "years_experience"
	FieldRelevantYears   = "relevant_years"
	FieldMainIndustry    = "main_industry"
	FieldPrimarySkills   = "primary_skills"
	FieldSkillName       = "skill_name"
	FieldSkillLevel      = "skill_level"
	FieldPrepared        = "prepared"
	FieldChunkIndex      = "chunk_index"

	TypeCandidate = "candidate"
	TypeSkill     = "skill"
	TypeResume    = "resume"

	UnknownValue = "unknown"
)

// EnglishLevelToNum maps CEFR levels and their common aliases to 1..6. Anything else is 0.
func EnglishLevelToNum(level string) int {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "A1":
		return 1
	case "A2", "BASIC":
		return 2
	case "B1", "CONVERSATIONAL":
		return 3
	case "B2":
		return 4
	case "C1", "FLUENT", "ADVANCED":
		return 5
	case "C2", "NATIVE":
		return 6
	default:
		return 0
	}
}
