package repositories

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"alfredoptarigan/rag-candidates/internal/models"
)

type ChatLogRepository interface {
	Create(entry *models.ChatLog) error
	FindByID(id uuid.UUID) (*models.ChatLog, error)
}

type chatLogRepository struct {
	db *gorm.DB
}

func NewChatLogRepository(db *gorm.DB) ChatLogRepository {
	return &chatLogRepository{db: db}
}

func (r *chatLogRepository) Create(entry *models.ChatLog) error {
	if err := r.db.Create(entry).Error; err != nil {
		return fmt.Errorf("failed to create chat log: %w", err)
	}
	return nil
}

func (r *chatLogRepository) FindByID(id uuid.UUID) (*models.ChatLog, error) {
	var entry models.ChatLog
	if err := r.db.Where("id = ?", id).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("chat log %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find chat log: %w", err)
	}
	return &entry, nil
}
