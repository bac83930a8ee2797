package repositories

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"alfredoptarigan/rag-candidates/internal/models"
)

var ErrNotFound = errors.New("record not found")

type IndexRunRepository interface {
	Create(run *models.IndexRun) error
	FindByID(id uuid.UUID) (*models.IndexRun, error)
	Claim(id uuid.UUID) (bool, error)
	UpdateResult(id uuid.UUID, info *models.IndexInfo) error
	UpdateError(id uuid.UUID, errorMsg string) error
	FindPendingJobs(limit int) ([]models.IndexRun, error)
}

type indexRunRepository struct {
	db *gorm.DB
}

func NewIndexRunRepository(db *gorm.DB) IndexRunRepository {
	return &indexRunRepository{db: db}
}

func (r *indexRunRepository) Create(run *models.IndexRun) error {
	if err := r.db.Create(run).Error; err != nil {
		return fmt.Errorf("failed to create index run: %w", err)
	}
	return nil
}

func (r *indexRunRepository) FindByID(id uuid.UUID) (*models.IndexRun, error) {
	var run models.IndexRun
	if err := r.db.Where("id = ?", id).First(&run).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("index run %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find index run: %w", err)
	}
	return &run, nil
}

// Claim moves a queued run to processing. It reports false when the run was not queued.
func (r *indexRunRepository) Claim(id uuid.UUID) (bool, error) {
	result := r.db.Model(&models.IndexRun{}).
		Where("id = ? AND status = ?", id, models.StatusQueued).
		Updates(map[string]interface{}{
			"status":     models.StatusProcessing,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return false, fmt.Errorf("failed to claim index run: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *indexRunRepository) UpdateResult(id uuid.UUID, info *models.IndexInfo) error {
	now := time.Now()
	return r.update(id, map[string]interface{}{
		"status":       models.StatusCompleted,
		"candidates":   info.Candidates,
		"chunks":       info.Chunks,
		"points":       info.Points,
		"provider":     info.Provider,
		"completed_at": now,
		"updated_at":   now,
	})
}

func (r *indexRunRepository) UpdateError(id uuid.UUID, errorMsg string) error {
	now := time.Now()
	return r.update(id, map[string]interface{}{
		"status":        models.StatusFailed,
		"error_message": errorMsg,
		"completed_at":  now,
		"updated_at":    now,
	})
}

func (r *indexRunRepository) FindPendingJobs(limit int) ([]models.IndexRun, error) {
	var runs []models.IndexRun
	err := r.db.
		Where("status = ?", models.StatusQueued).
		Order("created_at ASC").
		Limit(limit).
		Find(&runs).Error

	if err != nil {
		return nil, fmt.Errorf("failed to find pending jobs: %w", err)
	}
	return runs, nil
}

func (r *indexRunRepository) update(id uuid.UUID, updates map[string]interface{}) error {
	result := r.db.Model(&models.IndexRun{}).
		Where("id = ?", id).
		Updates(updates)

	if result.Error != nil {
		return fmt.Errorf("failed to update index run: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("index run %s: %w", id, ErrNotFound)
	}
	return nil
}
