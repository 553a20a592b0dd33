package rag

import (
	"context"
	"errors"
	"testing"

	"ragserver/internal/model"
)

type stubLister struct {
	chunks []model.Chunk
	err    error
}

func (s *stubLister) ListChunks(ctx context.Context) ([]model.Chunk, error) {
	return s.chunks, s.err
}

func chunkWithVec(id uint, content string, vec []float32) model.Chunk {
	c := model.Chunk{ID: id, Content: content}
	c.SetEmbedding(vec)
	return c
}

func TestRetrieveOrdersByDescendingSimilarity(t *testing.T) {
	lister := &stubLister{chunks: []model.Chunk{
		chunkWithVec(1, "orthogonal", []float32{0, 1}),
		chunkWithVec(2, "exact", []float32{1, 0}),
		chunkWithVec(3, "diagonal", []float32{0.7, 0.7}),
	}}
	r := NewRetriever(lister)

	got, err := r.Retrieve(context.Background(), []float32{1, 0}, 3)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	wantOrder := []uint{2, 3, 1}
	if len(got) != len(wantOrder) {
		t.Fatalf("got %d chunks, want %d", len(got), len(wantOrder))
	}
	for i, id := range wantOrder {
		if got[i].Chunk.ID != id {
			t.Errorf("position %d: got chunk %d, want %d", i, got[i].Chunk.ID, id)
		}
	}
	for i := 1; i < len(got); i++ {
		if got[i].Score > got[i-1].Score {
			t.Errorf("scores not non-increasing at %d: %v > %v", i, got[i].Score, got[i-1].Score)
		}
	}
}

func TestRetrieveLimitsToK(t *testing.T) {
	lister := &stubLister{chunks: []model.Chunk{
		chunkWithVec(1, "a", []float32{1, 0}),
		chunkWithVec(2, "b", []float32{0.9, 0.1}),
		chunkWithVec(3, "c", []float32{0.8, 0.2}),
	}}
	r := NewRetriever(lister)

	got, err := r.Retrieve(context.Background(), []float32{1, 0}, 2)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d chunks, want 2", len(got))
	}
}

func TestRetrieveTiesKeepInsertionOrder(t *testing.T) {
	lister := &stubLister{chunks: []model.Chunk{
		chunkWithVec(1, "first", []float32{1, 0}),
		chunkWithVec(2, "second", []float32{1, 0}),
		chunkWithVec(3, "third", []float32{1, 0}),
	}}
	r := NewRetriever(lister)

	got, err := r.Retrieve(context.Background(), []float32{1, 0}, 3)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	for i, id := range []uint{1, 2, 3} {
		if got[i].Chunk.ID != id {
			t.Errorf("tie at position %d: got chunk %d, want %d", i, got[i].Chunk.ID, id)
		}
	}
}

func TestRetrieveEmptyIndex(t *testing.T) {
	r := NewRetriever(&stubLister{})
	got, err := r.Retrieve(context.Background(), []float32{1, 0}, 5)
	if err != nil {
		t.Fatalf("empty index should not error, got %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("got %d chunks, want 0", len(got))
	}
}

func TestRetrieveInvalidK(t *testing.T) {
	r := NewRetriever(&stubLister{})
	_, err := r.Retrieve(context.Background(), []float32{1, 0}, 0)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("got %v, want ErrValidation", err)
	}
}

func TestRetrieveStoreError(t *testing.T) {
	r := NewRetriever(&stubLister{err: errors.New("db gone")})
	_, err := r.Retrieve(context.Background(), []float32{1, 0}, 5)
	if !errors.Is(err, ErrRetrieval) {
		t.Fatalf("got %v, want ErrRetrieval", err)
	}
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float32
	}{
		{"identical", []float32{1, 0}, []float32{1, 0}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"empty", nil, nil, 0},
		{"mismatched", []float32{1}, []float32{1, 0}, 0},
		{"zero vector", []float32{0, 0}, []float32{1, 0}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			if diff := got - tt.want; diff > 1e-6 || diff < -1e-6 {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
