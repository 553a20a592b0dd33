package rag

import "ragserver/internal/model"

// ScoredChunk is a retrieval candidate with its similarity score and,
// after reranking, its cross-encoder relevance score.
type ScoredChunk struct {
	Chunk       model.Chunk
	Score       float32
	RerankScore float64
}

// GenerationResult is the generator's output for one turn.
type GenerationResult struct {
	Answer    string
	Citations []model.Citation
	HasAnswer bool
	Usage     model.TokenUsage
}
