package rag

import (
	"context"
	"errors"
	"testing"

	"ragserver/internal/ai"
	"ragserver/internal/model"
)

type stubRerankAPI struct {
	results []ai.RerankResult
	err     error
	called  bool
}

func (s *stubRerankAPI) Rerank(ctx context.Context, cfg ai.RerankConfig, query string, documents []string, topN int) ([]ai.RerankResult, error) {
	s.called = true
	return s.results, s.err
}

func candidates(n int) []ScoredChunk {
	out := make([]ScoredChunk, n)
	for i := range out {
		out[i] = ScoredChunk{
			Chunk: model.Chunk{ID: uint(i + 1), Content: "chunk"},
			Score: float32(n-i) / float32(n),
		}
	}
	return out
}

func TestRerankReordersByRelevance(t *testing.T) {
	api := &stubRerankAPI{results: []ai.RerankResult{
		{Index: 2, Score: 0.95},
		{Index: 0, Score: 0.40},
	}}
	r := NewReranker(api, ai.RerankConfig{BaseURL: "http://rerank", Model: "m"})

	got := r.Rerank(context.Background(), "q", candidates(3), 2)
	if len(got) != 2 {
		t.Fatalf("got %d results, want 2", len(got))
	}
	if got[0].Chunk.ID != 3 || got[1].Chunk.ID != 1 {
		t.Errorf("got order [%d %d], want [3 1]", got[0].Chunk.ID, got[1].Chunk.ID)
	}
	if got[0].RerankScore != 0.95 {
		t.Errorf("rerank score not carried: got %v", got[0].RerankScore)
	}
}

func TestRerankFallsBackOnError(t *testing.T) {
	api := &stubRerankAPI{err: errors.New("service down")}
	r := NewReranker(api, ai.RerankConfig{BaseURL: "http://rerank", Model: "m"})

	in := candidates(5)
	got := r.Rerank(context.Background(), "q", in, 3)
	if len(got) != 3 {
		t.Fatalf("got %d results, want 3", len(got))
	}
	for i := range got {
		if got[i].Chunk.ID != in[i].Chunk.ID {
			t.Errorf("fallback changed order at %d: got %d, want %d", i, got[i].Chunk.ID, in[i].Chunk.ID)
		}
	}
}

func TestRerankUnconfiguredSkipsService(t *testing.T) {
	api := &stubRerankAPI{}
	r := NewReranker(api, ai.RerankConfig{})

	got := r.Rerank(context.Background(), "q", candidates(4), 2)
	if api.called {
		t.Fatal("rerank service called despite empty base URL")
	}
	if len(got) != 2 || got[0].Chunk.ID != 1 || got[1].Chunk.ID != 2 {
		t.Fatalf("unconfigured rerank should keep retrieval order, got %+v", got)
	}
}

func TestRerankOutputSize(t *testing.T) {
	r := NewReranker(&stubRerankAPI{err: errors.New("x")}, ai.RerankConfig{BaseURL: "http://r"})

	if got := r.Rerank(context.Background(), "q", candidates(2), 5); len(got) != 2 {
		t.Errorf("topK beyond input: got %d, want 2", len(got))
	}
	if got := r.Rerank(context.Background(), "q", nil, 5); got != nil {
		t.Errorf("empty candidates: got %+v, want nil", got)
	}
}

func TestRerankIgnoresOutOfRangeIndexes(t *testing.T) {
	api := &stubRerankAPI{results: []ai.RerankResult{
		{Index: 9, Score: 0.9},
		{Index: 1, Score: 0.8},
	}}
	r := NewReranker(api, ai.RerankConfig{BaseURL: "http://rerank"})

	got := r.Rerank(context.Background(), "q", candidates(3), 2)
	if len(got) != 1 || got[0].Chunk.ID != 2 {
		t.Fatalf("got %+v, want only chunk 2", got)
	}
}
