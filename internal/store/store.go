// Package store holds the persistence interfaces the services are written
// against, with a MySQL-backed variant and an in-memory variant. The
// variant is chosen once at bootstrap, never per request.
package store

import (
	"context"
	"errors"

	"ragserver/internal/model"
)

var ErrNotFound = errors.New("not found")

// ConversationStore persists conversations and their message pairs.
// AppendTurn is atomic: the user and assistant messages, the optional title
// rewrite, and the updated_at bump land together or not at all.
type ConversationStore interface {
	Create(ctx context.Context, title string) (*model.Conversation, error)
	List(ctx context.Context, limit int) ([]model.Conversation, error)
	// Get returns the conversation with its messages, or ErrNotFound.
	Get(ctx context.Context, id string) (*model.Conversation, error)
	UpdateTitle(ctx context.Context, id, title string) error
	Delete(ctx context.Context, id string) error
	AppendTurn(ctx context.Context, conversationID string, userMsg, assistantMsg *model.Message, newTitle string) error
	// Durable reports whether the store survives process restarts.
	Durable() bool
}

// ChunkStore owns the indexed corpus.
type ChunkStore interface {
	ListChunks(ctx context.Context) ([]model.Chunk, error)
	AddDocument(ctx context.Context, doc *model.Document, chunks []model.Chunk) error
	Stats(ctx context.Context) (*IndexStats, error)
}

type IndexStats struct {
	TotalChunks    int `json:"total_chunks"`
	TotalDocuments int `json:"total_documents"`
	Dimension      int `json:"dimension"`
}
