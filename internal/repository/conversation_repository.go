package repository

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"ragserver/internal/model"
)

type ConversationRepository struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

func (r *ConversationRepository) Create(conversation *model.Conversation) error {
	if err := r.db.Create(conversation).Error; err != nil {
		return fmt.Errorf("create conversation failed: %w", err)
	}
	return nil
}

// List returns conversations ordered by most recently updated.
func (r *ConversationRepository) List(limit int) ([]model.Conversation, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var conversations []model.Conversation
	if err := r.db.Order("updated_at DESC").Limit(limit).Find(&conversations).Error; err != nil {
		return nil, fmt.Errorf("list conversations failed: %w", err)
	}
	return conversations, nil
}

func (r *ConversationRepository) GetByID(id string) (*model.Conversation, error) {
	var conversation model.Conversation
	if err := r.db.Where("id = ?", id).First(&conversation).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get conversation failed: %w", err)
	}
	return &conversation, nil
}

func (r *ConversationRepository) UpdateTitle(id, title string) (bool, error) {
	result := r.db.Model(&model.Conversation{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"title": title, "updated_at": time.Now()})
	if result.Error != nil {
		return false, fmt.Errorf("update conversation title failed: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}
