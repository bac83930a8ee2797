package models

import (
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// IndexRun tracks one asynchronous index build.
type IndexRun struct {
	ID           uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Collection   string     `gorm:"type:text;not null" json:"collection"`
	Status       JobStatus  `gorm:"not null;default:'queued'" json:"status"`
	Candidates   *int       `json:"candidates,omitempty"`
	Chunks       *int       `json:"chunks,omitempty"`
	Points       *int       `json:"points,omitempty"`
	Provider     *string    `gorm:"type:text" json:"provider,omitempty"`
	ErrorMessage *string    `gorm:"type:text" json:"error_message,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	CreatedAt    time.Time  `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (IndexRun) TableName() string {
	return "index_runs"
}

// IndexInfo summarises a finished build.
type IndexInfo struct {
	Candidates int    `json:"candidates"`
	Chunks     int    `json:"chunks"`
	Points     int    `json:"points"`
	Provider   string `json:"provider"`
}
