package driven

import (
	"context"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// DocumentLoader reads source documents.
type DocumentLoader interface {
	// Load walks root and returns one document per recognised file.
	// Returns domain.ErrNotFound if root does not exist.
	Load(ctx context.Context, root string) ([]domain.Document, error)

	// LoadFiles reads the given files, ignoring unrecognised extensions.
	LoadFiles(ctx context.Context, paths []string) ([]domain.Document, error)
}

// SourceWatcher reports changes to source files as they happen.
type SourceWatcher interface {
	// Watch starts watching and returns a channel of changes. The channel
	// is closed when ctx is cancelled or the watcher is closed.
	Watch(ctx context.Context) (<-chan domain.FileChange, error)

	// Close stops watching and releases resources.
	Close() error
}
