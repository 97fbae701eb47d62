package driven

import (
	"context"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// PostProcessor processes document content to produce chunks.
// PostProcessors are chained in a pipeline.
type PostProcessor interface {
	// Name returns the processor name for logging and configuration.
	Name() string

	// Process takes a document and returns chunks.
	// A processor that creates chunks (e.g., chunker) receives nil.
	Process(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error)
}

// Splitter turns documents into chunks.
type Splitter interface {
	// Split chunks every document in order. Pure apart from fresh chunk IDs.
	Split(ctx context.Context, docs []domain.Document) ([]domain.Chunk, error)
}
