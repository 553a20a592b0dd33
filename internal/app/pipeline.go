package app

import (
	"context"
	"fmt"

	"ragserver/internal/ai"
	"ragserver/internal/model"
	"ragserver/internal/rag"
)

type embedAPI interface {
	Embed(ctx context.Context, cfg ai.EmbeddingConfig, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, cfg ai.EmbeddingConfig, texts []string) ([][]float32, error)
}

// Pipeline runs one query through embed, retrieve, rerank, citation binding
// and generation. Every stage is a blocking call; each depends on the
// previous stage's output. Stateless across calls.
type Pipeline struct {
	embedder      embedAPI
	embCfg        ai.EmbeddingConfig
	retriever     *rag.Retriever
	reranker      *rag.Reranker
	generator     *rag.Generator
	topKRetrieval int
	topKRerank    int
}

// PipelineResult is the ephemeral outcome of one pipeline run.
type PipelineResult struct {
	Answer      string
	Citations   []model.Citation
	HasAnswer   bool
	Usage       model.TokenUsage
	SourcesUsed int
}

func NewPipeline(
	embedder embedAPI,
	embCfg ai.EmbeddingConfig,
	retriever *rag.Retriever,
	reranker *rag.Reranker,
	generator *rag.Generator,
	topKRetrieval, topKRerank int,
) *Pipeline {
	if topKRetrieval <= 0 {
		topKRetrieval = 10
	}
	if topKRerank <= 0 {
		topKRerank = 5
	}
	return &Pipeline{
		embedder:      embedder,
		embCfg:        embCfg,
		retriever:     retriever,
		reranker:      reranker,
		generator:     generator,
		topKRetrieval: topKRetrieval,
		topKRerank:    topKRerank,
	}
}

func (p *Pipeline) Run(ctx context.Context, query string, history []model.Message) (*PipelineResult, error) {
	queryVec, err := p.embedder.Embed(ctx, p.embCfg, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", rag.ErrEmbeddingService, err)
	}

	candidates, err := p.retriever.Retrieve(ctx, queryVec, p.topKRetrieval)
	if err != nil {
		return nil, err
	}

	ranked := p.reranker.Rerank(ctx, query, candidates, p.topKRerank)

	citations, byNumber := rag.BindCitations(ranked)

	gen, err := p.generator.Generate(ctx, query, history, ranked, citations, byNumber)
	if err != nil {
		return nil, err
	}

	return &PipelineResult{
		Answer:      gen.Answer,
		Citations:   gen.Citations,
		HasAnswer:   gen.HasAnswer,
		Usage:       gen.Usage,
		SourcesUsed: len(ranked),
	}, nil
}
