package repositories

import (
	"fmt"

	"gorm.io/gorm"

	"alfredoptarigan/rag-candidates/internal/models"
)

type CandidateFileRepository interface {
	Create(file *models.CandidateFile) error
	FindByCandidateID(candidateID string) ([]models.CandidateFile, error)
}

type candidateFileRepository struct {
	db *gorm.DB
}

func NewCandidateFileRepository(db *gorm.DB) CandidateFileRepository {
	return &candidateFileRepository{db: db}
}

// Create implements CandidateFileRepository.
func (r *candidateFileRepository) Create(file *models.CandidateFile) error {
	if err := r.db.Create(file).Error; err != nil {
		return fmt.Errorf("failed to create candidate file: %w", err)
	}
	return nil
}

// FindByCandidateID returns every upload for the candidate, newest first.
func (r *candidateFileRepository) FindByCandidateID(candidateID string) ([]models.CandidateFile, error) {
	var files []models.CandidateFile
	err := r.db.
		Where("candidate_id = ?", candidateID).
		Order("created_at DESC").
		Find(&files).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find candidate files: %w", err)
	}
	return files, nil
}
