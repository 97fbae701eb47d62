package driving

import (
	"context"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// ChatService answers questions over the indexed documents.
type ChatService interface {
	// Ask retrieves passages for query, generates an answer conditioned on
	// them and the conversation so far, and records the turn.
	Ask(ctx context.Context, query string) (*domain.Answer, error)

	// Search retrieves the k closest chunks without generating an answer.
	Search(ctx context.Context, query string, k int) ([]domain.RetrievalResult, error)

	// Reset clears the conversation memory.
	Reset()

	// History returns the recorded turns, oldest first.
	History() []domain.Turn

	// Ingest applies file changes to the index and saves it. Created and
	// updated files replace any chunks previously indexed for them; deleted
	// files have their chunks dropped.
	Ingest(ctx context.Context, changes []domain.FileChange) (*domain.IngestResult, error)

	// State reports the bootstrap state of the index.
	State() domain.IndexState

	// Stats describes the loaded index.
	Stats() domain.IndexStats
}
