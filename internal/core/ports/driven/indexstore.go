package driven

import (
	"context"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// IndexSnapshot is the persisted state of a vector index.
// Chunks are in insertion order and each carries its embedding.
type IndexSnapshot struct {
	// Dimensions is the embedding size shared by every chunk.
	Dimensions int

	// Model is the embedding model that produced the vectors.
	Model string

	// Chunks holds the indexed chunks with embeddings attached.
	Chunks []domain.Chunk
}

// IndexStore persists index snapshots to durable storage.
type IndexStore interface {
	// Exists reports whether a snapshot is present at dir.
	Exists(dir string) bool

	// Save writes the snapshot atomically: after it returns either the
	// full snapshot is on disk or the previous one remains.
	Save(ctx context.Context, dir string, snapshot *IndexSnapshot) error

	// Load reads a snapshot. Returns domain.ErrNotFound when absent and
	// domain.ErrCorruptIndex when present but unreadable.
	Load(ctx context.Context, dir string) (*IndexSnapshot, error)
}
