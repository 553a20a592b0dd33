package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"ragserver/internal/model"
)

// MemoryConversationStore is the no-persistence fallback used when no MySQL
// DSN is configured. Same contract as the durable store, nothing survives a
// restart.
type MemoryConversationStore struct {
	mu            sync.RWMutex
	conversations map[string]*model.Conversation
	order         []string
}

func NewMemoryConversationStore() *MemoryConversationStore {
	return &MemoryConversationStore{
		conversations: make(map[string]*model.Conversation),
	}
}

func (s *MemoryConversationStore) Create(ctx context.Context, title string) (*model.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	conversation := &model.Conversation{
		ID:        uuid.NewString(),
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
		Messages:  []model.Message{},
	}
	s.conversations[conversation.ID] = conversation
	s.order = append(s.order, conversation.ID)
	return copyConversation(conversation), nil
}

func (s *MemoryConversationStore) List(ctx context.Context, limit int) ([]model.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}
	list := make([]model.Conversation, 0, len(s.conversations))
	for _, id := range s.order {
		c := s.conversations[id]
		cp := *c
		cp.Messages = nil
		list = append(list, cp)
	}
	// most recently updated first
	for i := 0; i < len(list); i++ {
		for j := i + 1; j < len(list); j++ {
			if list[j].UpdatedAt.After(list[i].UpdatedAt) {
				list[i], list[j] = list[j], list[i]
			}
		}
	}
	if len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (s *MemoryConversationStore) Get(ctx context.Context, id string) (*model.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conversation, ok := s.conversations[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyConversation(conversation), nil
}

func (s *MemoryConversationStore) UpdateTitle(ctx context.Context, id, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conversation, ok := s.conversations[id]
	if !ok {
		return ErrNotFound
	}
	conversation.Title = title
	conversation.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryConversationStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.conversations[id]; !ok {
		return ErrNotFound
	}
	delete(s.conversations, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *MemoryConversationStore) AppendTurn(ctx context.Context, conversationID string, userMsg, assistantMsg *model.Message, newTitle string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conversation, ok := s.conversations[conversationID]
	if !ok {
		return ErrNotFound
	}
	conversation.Messages = append(conversation.Messages, *userMsg, *assistantMsg)
	if newTitle != "" {
		conversation.Title = newTitle
	}
	conversation.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryConversationStore) Durable() bool { return false }

func copyConversation(c *model.Conversation) *model.Conversation {
	cp := *c
	cp.Messages = make([]model.Message, len(c.Messages))
	copy(cp.Messages, c.Messages)
	return &cp
}

// MemoryChunkStore keeps the corpus in process memory, insertion order
// preserved so retrieval tie-breaking stays deterministic.
type MemoryChunkStore struct {
	mu        sync.RWMutex
	chunks    []model.Chunk
	documents int
	dimension int
	nextID    uint
}

func NewMemoryChunkStore(dimension int) *MemoryChunkStore {
	return &MemoryChunkStore{dimension: dimension, nextID: 1}
}

func (s *MemoryChunkStore) ListChunks(ctx context.Context) ([]model.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Chunk, len(s.chunks))
	copy(out, s.chunks)
	return out, nil
}

func (s *MemoryChunkStore) AddDocument(ctx context.Context, doc *model.Document, chunks []model.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	for i := range chunks {
		chunks[i].ID = s.nextID
		s.nextID++
		s.chunks = append(s.chunks, chunks[i])
	}
	s.documents++
	return nil
}

func (s *MemoryChunkStore) Stats(ctx context.Context) (*IndexStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return &IndexStats{
		TotalChunks:    len(s.chunks),
		TotalDocuments: s.documents,
		Dimension:      s.dimension,
	}, nil
}
