package models

type ChatFilters struct {
	Prepared     *bool    `json:"prepared,omitempty"`
	EnglishMin   string   `json:"englishMin,omitempty" validate:"omitempty,max=32"`
	CandidateIDs []string `json:"candidateIds,omitempty" validate:"omitempty,dive,required"`
}

type ChatRequest struct {
	Question string       `json:"question" validate:"required,min=3,max=2000"`
	Filters  *ChatFilters `json:"filters,omitempty"`
}

type ChatSource struct {
	CandidateID string  `json:"candidateId"`
	Section     string  `json:"section"`
	Content     string  `json:"content"`
	Score       float64 `json:"score"`
}

type SelectedCandidate struct {
	Fullname    string `json:"fullname,omitempty"`
	CandidateID string `json:"candidate_id"`
	Rank        int    `json:"rank"`
}

// LLMJustification is the JSON object the model is asked to produce.
type LLMJustification struct {
	SelectedCandidate *SelectedCandidate `json:"selected_candidate,omitempty"`
	Justification     string             `json:"justification"`
}

type RankingEntry struct {
	Rank            int     `json:"rank"`
	CandidateID     string  `json:"candidate_id"`
	TechnicalScore  float64 `json:"technical_score"`
	SeniorityScore  float64 `json:"seniority_score"`
	LeadershipScore float64 `json:"leadership_score"`
	ExperienceScore float64 `json:"experience_score"`
	TotalScore      float64 `json:"total_score"`
}

type ChatMetadata struct {
	Justification     string             `json:"justification"`
	SelectedCandidate *SelectedCandidate `json:"selected_candidate"`
	ParsedQuery       *ParsedQuery       `json:"parsed_query,omitempty"`
	Ranking           []RankingEntry     `json:"ranking,omitempty"`
	ChatLogID         string             `json:"chat_log_id,omitempty"`
}

type ChatResult struct {
	Answer   string        `json:"answer"`
	Sources  []ChatSource  `json:"sources"`
	Metadata *ChatMetadata `json:"metadata,omitempty"`
}

type UploadResponse struct {
	ID          string `json:"id"`
	CandidateID string `json:"candidate_id"`
	RecordFile  string `json:"record_file"`
	ResumeFile  string `json:"resume_file,omitempty"`
}

type IndexResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type IndexRunResponse struct {
	ID           string     `json:"id"`
	Status       string     `json:"status"`
	Collection   string     `json:"collection"`
	Result       *IndexInfo `json:"result,omitempty"`
	ErrorMessage *string    `json:"error_message,omitempty"`
}

type HealthResponse struct {
	Status      string `json:"status"`
	Collection  string `json:"collection"`
	Points      int    `json:"points"`
	VectorStore string `json:"vector_store"`
}
