package driven

import (
	"context"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// Normaliser rewrites a loaded document into plain text before chunking.
// Each normaliser handles a fixed set of file extensions.
type Normaliser interface {
	// Extensions returns the lower-case extensions handled, dot included.
	Extensions() []string

	// Normalise replaces doc.Content with its plain text and may set a
	// better title. The input is not modified.
	Normalise(ctx context.Context, doc domain.Document) (domain.Document, error)
}
