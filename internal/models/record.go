package models

import "strings"

// CandidateRecord is the resume analysis document stored as one JSON file per candidate.
type CandidateRecord struct {
	Summary              string                `json:"Summary"`
	SchemaVersion        string                `json:"schemaVersion,omitempty"`
	GeneratedAt          string                `json:"generatedAt,omitempty"`
	Source               string                `json:"source,omitempty"`
	GeneralInfo          *GeneralInfo          `json:"GeneralInfo,omitempty"`
	SkillMatrix          []Skill               `json:"SkillMatrix,omitempty"`
	KeywordCoverage      *KeywordCoverage      `json:"KeywordCoverage,omitempty"`
	Languages            []Language            `json:"Languages,omitempty"`
	Scores               *Scores               `json:"Scores,omitempty"`
	Relevance            *Relevance            `json:"Relevance,omitempty"`
	ClarityAndFormatting *ClarityAndFormatting `json:"ClarityAndFormatting,omitempty"`
	Strengths            []string              `json:"Strengths,omitempty"`
	AreasToImprove       []string              `json:"AreasToImprove,omitempty"`
	Tips                 []string              `json:"Tips,omitempty"`
	CleanedResumeText    string                `json:"CleanedResumeText,omitempty"`
}

type GeneralInfo struct {
	CandidateID        string   `json:"CandidateId,omitempty"`
	Fullname           string   `json:"Fullname,omitempty"`
	TitleDetected      string   `json:"TitleDetected,omitempty"`
	TitlePredicted     string   `json:"TitlePredicted,omitempty"`
	SeniorityLevel     string   `json:"SeniorityLevel,omitempty"`
	YearsExperience    *int     `json:"YearsExperience,omitempty"`
	RelevantYears      *int     `json:"RelevantYears,omitempty"`
	IndustryMatch      string   `json:"IndustryMatch,omitempty"`
	TrajectoryPattern  string   `json:"TrajectoryPattern,omitempty"`
	MainIndustry       string   `json:"MainIndustry,omitempty"`
	EnglishLevel       string   `json:"EnglishLevel,omitempty"`
	OtherLanguages     []string `json:"OtherLanguages,omitempty"`
	Location           string   `json:"Location,omitempty"`
	RemoteWork         string   `json:"RemoteWork,omitempty"`
	Availability       string   `json:"Availability,omitempty"`
	SalaryExpectations string   `json:"SalaryExpectations,omitempty"`
	NoticePeriod       string   `json:"NoticePeriod,omitempty"`
}

type Skill struct {
	Name            string `json:"Name,omitempty"`
	Category        string `json:"Category,omitempty"`
	Level           string `json:"Level,omitempty"`
	YearsExperience *int   `json:"YearsExperience,omitempty"`
	Evidence        string `json:"Evidence,omitempty"`
	IsRelevant      *bool  `json:"IsRelevant,omitempty"`
}

// IsStrong reports whether the skill level is High or Very High.
func (s Skill) IsStrong() bool {
	switch strings.TrimSpace(s.Level) {
	case "High", "Very High", "VeryHigh":
		return true
	default:
		return false
	}
}

type KeywordCoverage struct {
	RequiredKeywords    []string `json:"RequiredKeywords,omitempty"`
	FoundKeywords       []string `json:"FoundKeywords,omitempty"`
	MissingKeywords     []string `json:"MissingKeywords,omitempty"`
	CoveragePercentage  *float64 `json:"CoveragePercentage,omitempty"`
	AlternativeKeywords []string `json:"AlternativeKeywords,omitempty"`
}

type Language struct {
	Name        string `json:"Name,omitempty"`
	Proficiency string `json:"Proficiency,omitempty"`
	Evidence    string `json:"Evidence,omitempty"`
}

type Scores struct {
	OverallScore     *float64 `json:"OverallScore,omitempty"`
	TechnicalScore   *float64 `json:"TechnicalScore,omitempty"`
	ExperienceScore  *float64 `json:"ExperienceScore,omitempty"`
	LanguageScore    *float64 `json:"LanguageScore,omitempty"`
	CulturalFitScore *float64 `json:"CulturalFitScore,omitempty"`
	OverallFitLevel  string   `json:"OverallFitLevel,omitempty"`
}

type Relevance struct {
	JobTitleMatch         string   `json:"JobTitleMatch,omitempty"`
	IndustryMatch         string   `json:"IndustryMatch,omitempty"`
	TechnologyMatch       string   `json:"TechnologyMatch,omitempty"`
	ExperienceMatch       string   `json:"ExperienceMatch,omitempty"`
	LocationMatch         string   `json:"LocationMatch,omitempty"`
	RemoteWorkMatch       string   `json:"RemoteWorkMatch,omitempty"`
	OverallRelevanceScore *float64 `json:"OverallRelevanceScore,omitempty"`
}

type ClarityAndFormatting struct {
	FormattingQuality string   `json:"FormattingQuality,omitempty"`
	ClarityScore      string   `json:"ClarityScore,omitempty"`
	FormattingIssues  []string `json:"FormattingIssues,omitempty"`
	ClarityIssues     []string `json:"ClarityIssues,omitempty"`
	Suggestions       []string `json:"Suggestions,omitempty"`
}

// Candidate pairs a parsed record with its stable id and the raw JSON it came from.
type Candidate struct {
	ID     string
	Record CandidateRecord
	Raw    []byte
}

// DisplayName returns the recorded full name unless it is empty or just repeats the id.
func (c Candidate) DisplayName() (string, bool) {
	if c.Record.GeneralInfo == nil {
		return "", false
	}
	name := strings.TrimSpace(c.Record.GeneralInfo.Fullname)
	if name == "" || name == c.ID {
		return "", false
	}
	return name, true
}

func (c Candidate) TitleHint() string {
	info := c.Record.GeneralInfo
	if info == nil {
		return ""
	}
	if info.TitleDetected != "" {
		return info.TitleDetected
	}
	return info.TitlePredicted
}

func (c Candidate) Seniority() (SeniorityLevel, bool) {
	if c.Record.GeneralInfo == nil {
		return 0, false
	}
	return ParseSeniorityLevel(c.Record.GeneralInfo.SeniorityLevel)
}

// Prepared marks candidates scored at least 60 overall or rated Mid and above.
func (c Candidate) Prepared() bool {
	if s := c.Record.Scores; s != nil && s.OverallScore != nil && *s.OverallScore >= 60 {
		return true
	}
	level, ok := c.Seniority()
	return ok && level >= SeniorityMid
}
