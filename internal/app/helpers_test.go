package app

import (
	"context"
	"strings"

	"ragserver/internal/ai"
	"ragserver/internal/model"
	"ragserver/internal/rag"
	"ragserver/internal/store"
)

type fakeEmbed struct {
	vec []float32
	err error
}

func (f *fakeEmbed) Embed(ctx context.Context, cfg ai.EmbeddingConfig, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.vec, nil
}

func (f *fakeEmbed) EmbedBatch(ctx context.Context, cfg ai.EmbeddingConfig, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = f.vec
	}
	return out, nil
}

// fakeChat answers generation prompts with content and QA-pair prompts
// with qaJSON.
type fakeChat struct {
	content string
	qaJSON  string
	err     error
	calls   int
}

func (f *fakeChat) Complete(ctx context.Context, cfg ai.ChatConfig, messages []ai.ChatMessage) (*ai.ChatResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	content := f.content
	if len(messages) > 0 && strings.HasPrefix(messages[0].Content, "You are an expert at creating evaluation") {
		content = f.qaJSON
	}
	return &ai.ChatResult{
		Content: content,
		Usage:   ai.Usage{PromptTokens: 20, CompletionTokens: 10, TotalTokens: 30},
	}, nil
}

func seededChunkStore(contents ...string) *store.MemoryChunkStore {
	chunks := store.NewMemoryChunkStore(2)
	if len(contents) == 0 {
		return chunks
	}
	cs := make([]model.Chunk, len(contents))
	for i, content := range contents {
		cs[i] = model.Chunk{Content: content, Source: "test", Title: "Test"}
		cs[i].SetEmbedding([]float32{1, 0})
	}
	_ = chunks.AddDocument(context.Background(), &model.Document{Title: "Test"}, cs)
	return chunks
}

func newTestPipeline(chunks store.ChunkStore, chat *fakeChat) *Pipeline {
	retriever := rag.NewRetriever(chunks)
	// empty rerank base URL keeps retrieval order without network calls
	reranker := rag.NewReranker(ai.NewOpenAICompatibleClient(), ai.RerankConfig{})
	generator := rag.NewGenerator(chat, ai.ChatConfig{}, 0)
	return NewPipeline(&fakeEmbed{vec: []float32{1, 0}}, ai.EmbeddingConfig{}, retriever, reranker, generator, 10, 5)
}
