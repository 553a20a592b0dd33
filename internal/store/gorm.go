package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"ragserver/internal/model"
	"ragserver/internal/repository"
)

// GormConversationStore is the durable variant, backed by MySQL.
type GormConversationStore struct {
	db               *gorm.DB
	conversationRepo *repository.ConversationRepository
	messageRepo      *repository.MessageRepository
}

func NewGormConversationStore(db *gorm.DB) *GormConversationStore {
	return &GormConversationStore{
		db:               db,
		conversationRepo: repository.NewConversationRepository(db),
		messageRepo:      repository.NewMessageRepository(db),
	}
}

func (s *GormConversationStore) Create(ctx context.Context, title string) (*model.Conversation, error) {
	now := time.Now()
	conversation := &model.Conversation{
		ID:        uuid.NewString(),
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.conversationRepo.Create(conversation); err != nil {
		return nil, err
	}
	conversation.Messages = []model.Message{}
	return conversation, nil
}

func (s *GormConversationStore) List(ctx context.Context, limit int) ([]model.Conversation, error) {
	return s.conversationRepo.List(limit)
}

func (s *GormConversationStore) Get(ctx context.Context, id string) (*model.Conversation, error) {
	conversation, err := s.conversationRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if conversation == nil {
		return nil, ErrNotFound
	}
	messages, err := s.messageRepo.ListByConversationID(id)
	if err != nil {
		return nil, err
	}
	if messages == nil {
		messages = []model.Message{}
	}
	conversation.Messages = messages
	return conversation, nil
}

func (s *GormConversationStore) UpdateTitle(ctx context.Context, id, title string) error {
	updated, err := s.conversationRepo.UpdateTitle(id, title)
	if err != nil {
		return err
	}
	if !updated {
		return ErrNotFound
	}
	return nil
}

func (s *GormConversationStore) Delete(ctx context.Context, id string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ?", id).Delete(&model.Conversation{})
		if result.Error != nil {
			return fmt.Errorf("delete conversation failed: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		if err := tx.Where("conversation_id = ?", id).Delete(&model.Message{}).Error; err != nil {
			return fmt.Errorf("delete conversation messages failed: %w", err)
		}
		return nil
	})
}

func (s *GormConversationStore) AppendTurn(ctx context.Context, conversationID string, userMsg, assistantMsg *model.Message, newTitle string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var conversation model.Conversation
		if err := tx.Where("id = ?", conversationID).First(&conversation).Error; err != nil {
			return fmt.Errorf("load conversation for append failed: %w", err)
		}

		if err := tx.Create(userMsg).Error; err != nil {
			return fmt.Errorf("append user message failed: %w", err)
		}
		if err := tx.Create(assistantMsg).Error; err != nil {
			return fmt.Errorf("append assistant message failed: %w", err)
		}

		updates := map[string]interface{}{"updated_at": time.Now()}
		if newTitle != "" {
			updates["title"] = newTitle
		}
		if err := tx.Model(&model.Conversation{}).Where("id = ?", conversationID).Updates(updates).Error; err != nil {
			return fmt.Errorf("touch conversation failed: %w", err)
		}
		return nil
	})
}

func (s *GormConversationStore) Durable() bool { return true }

// GormChunkStore persists the corpus in MySQL; scoring happens in memory.
type GormChunkStore struct {
	chunkRepo    *repository.ChunkRepository
	documentRepo *repository.DocumentRepository
	dimension    int
}

func NewGormChunkStore(db *gorm.DB, dimension int) *GormChunkStore {
	return &GormChunkStore{
		chunkRepo:    repository.NewChunkRepository(db),
		documentRepo: repository.NewDocumentRepository(db),
		dimension:    dimension,
	}
}

func (s *GormChunkStore) ListChunks(ctx context.Context) ([]model.Chunk, error) {
	return s.chunkRepo.ListAll()
}

func (s *GormChunkStore) AddDocument(ctx context.Context, doc *model.Document, chunks []model.Chunk) error {
	if err := s.documentRepo.Create(doc); err != nil {
		return err
	}
	return s.chunkRepo.CreateBatch(chunks)
}

func (s *GormChunkStore) Stats(ctx context.Context) (*IndexStats, error) {
	chunkCount, err := s.chunkRepo.Count()
	if err != nil {
		return nil, err
	}
	docCount, err := s.documentRepo.Count()
	if err != nil {
		return nil, err
	}
	return &IndexStats{
		TotalChunks:    int(chunkCount),
		TotalDocuments: int(docCount),
		Dimension:      s.dimension,
	}, nil
}
