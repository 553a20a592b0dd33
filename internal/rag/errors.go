package rag

import "errors"

// Stage failure taxonomy. Each sentinel aborts the turn when it surfaces;
// the rerank stage has no sentinel because it falls back to retrieval
// order instead of failing.
var (
	ErrEmbeddingService  = errors.New("embedding service failed")
	ErrRetrieval         = errors.New("retrieval failed")
	ErrGenerationService = errors.New("generation service failed")
	ErrPersistence       = errors.New("persistence failed")
	ErrValidation        = errors.New("invalid input")
)
