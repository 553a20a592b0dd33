package rag

import (
	"context"
	"log"

	"ragserver/internal/ai"
)

type rerankAPI interface {
	Rerank(ctx context.Context, cfg ai.RerankConfig, query string, documents []string, topN int) ([]ai.RerankResult, error)
}

type Reranker struct {
	client rerankAPI
	cfg    ai.RerankConfig
}

func NewReranker(client rerankAPI, cfg ai.RerankConfig) *Reranker {
	return &Reranker{client: client, cfg: cfg}
}

// Rerank reorders candidates by cross-encoder relevance and truncates to
// topK. It fails open: if the rerank service is unavailable or errors, the
// retriever's original ordering is kept, truncated to topK. Availability
// wins over precision here, so this path never returns an error.
func (r *Reranker) Rerank(ctx context.Context, query string, candidates []ScoredChunk, topK int) []ScoredChunk {
	if len(candidates) == 0 {
		return nil
	}
	if topK <= 0 || topK > len(candidates) {
		topK = len(candidates)
	}
	if r.cfg.BaseURL == "" {
		return candidates[:topK]
	}

	texts := make([]string, len(candidates))
	for i := range candidates {
		texts[i] = candidates[i].Chunk.Content
	}

	results, err := r.client.Rerank(ctx, r.cfg, query, texts, topK)
	if err != nil {
		log.Printf("rerank failed, falling back to retrieval order: %v", err)
		return candidates[:topK]
	}
	if len(results) == 0 {
		return candidates[:topK]
	}

	reranked := make([]ScoredChunk, 0, len(results))
	for _, res := range results {
		if res.Index < 0 || res.Index >= len(candidates) {
			continue
		}
		sc := candidates[res.Index]
		sc.RerankScore = res.Score
		reranked = append(reranked, sc)
	}
	if len(reranked) == 0 {
		return candidates[:topK]
	}
	if len(reranked) > topK {
		reranked = reranked[:topK]
	}
	return reranked
}
