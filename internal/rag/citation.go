package rag

import "ragserver/internal/model"

const citationTextLimit = 500

// BindCitations assigns citation numbers 1..N to the ranked chunks and
// returns the number-to-chunk lookup. Pure function: same ranked input,
// same numbering, no external calls.
func BindCitations(ranked []ScoredChunk) ([]model.Citation, map[int]model.Chunk) {
	citations := make([]model.Citation, 0, len(ranked))
	byNumber := make(map[int]model.Chunk, len(ranked))
	for i, sc := range ranked {
		number := i + 1
		citations = append(citations, model.Citation{
			Number: number,
			Text:   truncateRunes(sc.Chunk.Content, citationTextLimit),
			Source: sc.Chunk.Source,
			Title:  sc.Chunk.Title,
		})
		byNumber[number] = sc.Chunk
	}
	return citations, byNumber
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
