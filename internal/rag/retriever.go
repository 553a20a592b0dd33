package rag

import (
	"context"
	"fmt"
	"math"
	"sort"

	"ragserver/internal/model"
)

// ChunkLister is the slice of the chunk store the retriever needs.
type ChunkLister interface {
	ListChunks(ctx context.Context) ([]model.Chunk, error)
}

type Retriever struct {
	chunks ChunkLister
}

func NewRetriever(chunks ChunkLister) *Retriever {
	return &Retriever{chunks: chunks}
}

// Retrieve returns up to k chunks ordered by descending cosine similarity to
// the query vector. An empty index yields an empty result, not an error.
// Ties keep store order so results are deterministic for a fixed index state.
func (r *Retriever) Retrieve(ctx context.Context, queryVec []float32, k int) ([]ScoredChunk, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: top_k must be positive", ErrValidation)
	}

	all, err := r.chunks.ListChunks(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRetrieval, err)
	}
	if len(all) == 0 {
		return nil, nil
	}

	scored := make([]ScoredChunk, len(all))
	for i := range all {
		scored[i] = ScoredChunk{
			Chunk: all[i],
			Score: CosineSimilarity(queryVec, all[i].EmbeddingVector()),
		}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if k > len(scored) {
		k = len(scored)
	}
	return scored[:k], nil
}

// CosineSimilarity returns 0 for empty or mismatched vectors.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA <= 0 || normB <= 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
