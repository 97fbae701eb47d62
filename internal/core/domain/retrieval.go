package domain

// RetrievalResult is a chunk ranked against a query.
// Results are transient and consumed by prompt assembly.
type RetrievalResult struct {
	// Chunk is the matched chunk.
	Chunk Chunk

	// Score is the squared L2 distance to the query. Smaller is closer.
	Score float64
}

// Answer is the outcome of a single ask transaction.
type Answer struct {
	// Text is the generated answer.
	Text string

	// Sources are the chunks the answer was conditioned on, closest first.
	Sources []RetrievalResult
}

// IndexState is the bootstrap state of the vector index.
type IndexState string

// Bootstrap states.
const (
	IndexStateEmpty    IndexState = "empty"
	IndexStateBuilding IndexState = "building"
	IndexStateReady    IndexState = "ready"
	IndexStateFatal    IndexState = "fatal"
)

// String returns the string representation.
func (s IndexState) String() string {
	return string(s)
}

// IndexStats describes a loaded vector index.
type IndexStats struct {
	// Path is the index directory.
	Path string

	// Chunks is the number of indexed chunks.
	Chunks int

	// Dimensions is the embedding size, zero while empty.
	Dimensions int

	// Model is the embedding model that produced the vectors.
	Model string

	// State is the bootstrap state.
	State IndexState
}

// IngestResult summarises an incremental ingest.
type IngestResult struct {
	// Documents is the number of documents loaded.
	Documents int

	// Added is the number of chunks indexed.
	Added int

	// Removed is the number of stale chunks dropped.
	Removed int

	// Failed lists files that could not be loaded. Their chunks are
	// left as they were.
	Failed []string
}
