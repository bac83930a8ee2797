package models

import (
	"time"

	"github.com/google/uuid"
)

// CandidateFile records an uploaded candidate record and its optional resume PDF.
type CandidateFile struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	CandidateID    string    `gorm:"type:text;not null;index" json:"candidate_id"`
	RecordPath     string    `gorm:"type:text" json:"record_path"`
	ResumePath     *string   `gorm:"type:text" json:"resume_path,omitempty"`
	OriginalResume *string   `gorm:"type:text" json:"original_resume,omitempty"`
	CreatedAt      time.Time `gorm:"type:timestamp;default:now()" json:"created_at"`
}

func (f *CandidateFile) TableName() string {
	return "candidate_files"
}

type ChatOutcome string

const (
	OutcomeAnswered     ChatOutcome = "answered"
	OutcomeNoCandidates ChatOutcome = "no_candidates"
	OutcomeFailed       ChatOutcome = "failed"
)

// ChatLog is one persisted question and how it was answered.
type ChatLog struct {
	ID                  uuid.UUID   `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Question            string      `gorm:"type:text;not null" json:"question"`
	Outcome             ChatOutcome `gorm:"type:text;not null" json:"outcome"`
	SelectedCandidateID *string     `gorm:"type:text" json:"selected_candidate_id,omitempty"`
	CandidateCount      int         `json:"candidate_count"`
	HitCount            int         `json:"hit_count"`
	Answer              *string     `gorm:"type:text" json:"answer,omitempty"`
	ErrorMessage        *string     `gorm:"type:text" json:"error_message,omitempty"`
	LatencyMs           int64       `json:"latency_ms"`
	CreatedAt           time.Time   `gorm:"type:timestamp;default:now()" json:"created_at"`
}

func (l *ChatLog) TableName() string {
	return "chat_logs"
}
