package app

import (
	"context"
	"errors"
	"strings"
	"testing"

	"ragserver/internal/ai"
	"ragserver/internal/rag"
)

func TestIndexValidation(t *testing.T) {
	chunks := seededChunkStore()
	svc := NewIndexService(chunks, &fakeEmbed{vec: []float32{1, 0}}, ai.EmbeddingConfig{}, 1000, 150, 10, 100)

	if _, err := svc.Index(context.Background(), "  ", "", ""); !errors.Is(err, rag.ErrValidation) {
		t.Errorf("empty text: got %v, want ErrValidation", err)
	}
	if _, err := svc.Index(context.Background(), strings.Repeat("x", 101), "", ""); !errors.Is(err, rag.ErrValidation) {
		t.Errorf("oversized text: got %v, want ErrValidation", err)
	}
}

func TestIndexChunksAndStores(t *testing.T) {
	chunks := seededChunkStore()
	svc := NewIndexService(chunks, &fakeEmbed{vec: []float32{1, 0}}, ai.EmbeddingConfig{}, 1000, 150, 2, 0)

	text := strings.Repeat("a", 2500)
	result, err := svc.Index(context.Background(), text, "", "")
	if err != nil {
		t.Fatalf("Index: %v", err)
	}
	if result.DocID == "" {
		t.Error("doc id missing")
	}
	if result.ChunksIndexed != 3 {
		t.Errorf("chunks_indexed %d, want 3", result.ChunksIndexed)
	}

	stored, _ := chunks.ListChunks(context.Background())
	if len(stored) != 3 {
		t.Fatalf("store has %d chunks", len(stored))
	}
	for i, c := range stored {
		if c.Title != "Uploaded Document" || c.Source != "user_upload" {
			t.Errorf("chunk %d defaults not applied: %+v", i, c)
		}
		if c.Position != i {
			t.Errorf("chunk %d position %d", i, c.Position)
		}
		if c.DocumentID != result.DocID {
			t.Errorf("chunk %d document id %q", i, c.DocumentID)
		}
		if len(c.EmbeddingVector()) == 0 {
			t.Errorf("chunk %d missing embedding", i)
		}
	}
}

func TestIndexDropsBlankChunks(t *testing.T) {
	chunks := seededChunkStore()
	svc := NewIndexService(chunks, &fakeEmbed{vec: []float32{1, 0}}, ai.EmbeddingConfig{}, 10, 2, 10, 0)

	// the whitespace run is wider than a chunk window, so splitting
	// yields all-blank chunks in the middle
	text := "abcdefghij" + strings.Repeat(" ", 30) + "tail tail!"
	result, err := svc.Index(context.Background(), text, "", "")
	if err != nil {
		t.Fatalf("Index: %v", err)
	}
	if result.ChunksIndexed != 4 {
		t.Errorf("chunks_indexed %d, want 4", result.ChunksIndexed)
	}

	stored, _ := chunks.ListChunks(context.Background())
	if len(stored) != result.ChunksIndexed {
		t.Fatalf("store has %d chunks, response says %d", len(stored), result.ChunksIndexed)
	}
	for i, c := range stored {
		if strings.TrimSpace(c.Content) == "" {
			t.Errorf("chunk %d is blank", i)
		}
		if c.Position != i {
			t.Errorf("chunk %d position %d", i, c.Position)
		}
	}
}

func TestIndexEmbeddingFailure(t *testing.T) {
	chunks := seededChunkStore()
	svc := NewIndexService(chunks, &fakeEmbed{err: errors.New("quota")}, ai.EmbeddingConfig{}, 1000, 150, 10, 0)

	_, err := svc.Index(context.Background(), "some text", "t", "s")
	if !errors.Is(err, rag.ErrEmbeddingService) {
		t.Fatalf("got %v, want ErrEmbeddingService", err)
	}
	stored, _ := chunks.ListChunks(context.Background())
	if len(stored) != 0 {
		t.Errorf("partial write after embedding failure: %d chunks", len(stored))
	}
}

func TestIndexStats(t *testing.T) {
	chunks := seededChunkStore("a", "b")
	svc := NewIndexService(chunks, &fakeEmbed{vec: []float32{1, 0}}, ai.EmbeddingConfig{}, 1000, 150, 10, 0)

	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalChunks != 2 || stats.TotalDocuments != 1 {
		t.Errorf("stats %+v", stats)
	}
}
