package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"ragserver/internal/ai"
	"ragserver/internal/model"
	"ragserver/internal/rag"
	"ragserver/internal/store"
)

const (
	defaultDocumentTitle  = "Uploaded Document"
	defaultDocumentSource = "user_upload"
)

type IndexService struct {
	chunks           store.ChunkStore
	embedder         embedAPI
	embCfg           ai.EmbeddingConfig
	chunkSize        int
	chunkOverlap     int
	batchSize        int
	maxDocumentChars int
}

type IndexResult struct {
	DocID         string `json:"doc_id"`
	ChunksIndexed int    `json:"chunks_indexed"`
}

func NewIndexService(
	chunks store.ChunkStore,
	embedder embedAPI,
	embCfg ai.EmbeddingConfig,
	chunkSize, chunkOverlap, batchSize, maxDocumentChars int,
) *IndexService {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if chunkOverlap < 0 {
		chunkOverlap = 150
	}
	if batchSize <= 0 {
		batchSize = 10
	}
	if maxDocumentChars <= 0 {
		maxDocumentChars = 2 << 20
	}
	return &IndexService{
		chunks:           chunks,
		embedder:         embedder,
		embCfg:           embCfg,
		chunkSize:        chunkSize,
		chunkOverlap:     chunkOverlap,
		batchSize:        batchSize,
		maxDocumentChars: maxDocumentChars,
	}
}

// Index chunks the text, embeds each chunk in batches, and stores the
// document with its chunks.
func (s *IndexService) Index(ctx context.Context, text, title, source string) (*IndexResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: document text is empty", rag.ErrValidation)
	}
	if len(text) > s.maxDocumentChars {
		return nil, fmt.Errorf("%w: document exceeds %d chars", rag.ErrValidation, s.maxDocumentChars)
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = defaultDocumentTitle
	}
	source = strings.TrimSpace(source)
	if source == "" {
		source = defaultDocumentSource
	}

	pieces := rag.SplitText(text, s.chunkSize, s.chunkOverlap)
	// the embedder refuses blank input, so all-whitespace chunks are
	// dropped here rather than failing the whole document
	kept := make([]string, 0, len(pieces))
	for _, p := range pieces {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	pieces = kept
	if len(pieces) == 0 {
		return nil, fmt.Errorf("%w: no chunks produced", rag.ErrValidation)
	}

	var embeddings [][]float32
	for i := 0; i < len(pieces); i += s.batchSize {
		end := i + s.batchSize
		if end > len(pieces) {
			end = len(pieces)
		}
		batch, err := s.embedder.EmbedBatch(ctx, s.embCfg, pieces[i:end])
		if err != nil {
			return nil, fmt.Errorf("%w: %v", rag.ErrEmbeddingService, err)
		}
		embeddings = append(embeddings, batch...)
	}
	if len(embeddings) != len(pieces) {
		return nil, fmt.Errorf("%w: embedding count mismatch", rag.ErrEmbeddingService)
	}

	doc := &model.Document{
		ID:         uuid.NewString(),
		Title:      title,
		Source:     source,
		ChunkCount: len(pieces),
	}
	chunks := make([]model.Chunk, len(pieces))
	for i := range pieces {
		chunks[i] = model.Chunk{
			DocumentID: doc.ID,
			Content:    pieces[i],
			Source:     source,
			Title:      title,
			Position:   i,
		}
		chunks[i].SetEmbedding(embeddings[i])
	}

	if err := s.chunks.AddDocument(ctx, doc, chunks); err != nil {
		return nil, fmt.Errorf("%w: %v", rag.ErrPersistence, err)
	}

	return &IndexResult{
		DocID:         doc.ID,
		ChunksIndexed: len(chunks),
	}, nil
}

func (s *IndexService) Stats(ctx context.Context) (*store.IndexStats, error) {
	stats, err := s.chunks.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", rag.ErrRetrieval, err)
	}
	return stats, nil
}
