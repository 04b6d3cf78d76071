package model

import (
	"context"
	"fmt"
)

// EmbeddingDim is the output dimensionality of embed-english-v3.0.
const EmbeddingDim = 1024

// InputType selects the embedding task hint. Queries and documents are
// embedded asymmetrically, so storing with InputQuery (or searching with
// InputDocument) degrades retrieval quality silently.
type InputType string

const (
	InputQuery    InputType = "search_query"
	InputDocument InputType = "search_document"
)

// EmbedderInterface produces fixed-dimension embedding vectors for text.
type EmbedderInterface interface {
	// Embed returns one vector per non-blank input text, in input order.
	// Blank texts are dropped before the provider call; if nothing remains
	// the provider is not called and the result is empty.
	Embed(ctx context.Context, texts []string, input InputType) ([][]float32, error)

	// EmbedOne embeds a single search query.
	EmbedOne(ctx context.Context, text string) ([]float32, error)
}

// EmbeddingError wraps any failure of the embedding provider. Request-path
// callers abort context retrieval on it; background indexing logs and drops.
type EmbeddingError struct {
	Err error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding failed: %v", e.Err)
}

func (e *EmbeddingError) Unwrap() error {
	return e.Err
}
