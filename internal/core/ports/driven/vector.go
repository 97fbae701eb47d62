package driven

// VectorIndex is a nearest-neighbour oracle over fixed-dimension vectors.
// It holds no chunk data; callers map IDs back to chunks.
// Implementations are not safe for concurrent mutation; the owning
// service serialises access.
type VectorIndex interface {
	// Add inserts vectors in order. All vectors must share the index dimensionality.
	Add(ids []string, vectors [][]float32) error

	// Search returns up to k hits ordered by ascending distance.
	// Ties keep insertion order.
	Search(query []float32, k int) ([]VectorHit, error)

	// Remove deletes vectors by ID and returns how many were removed.
	Remove(ids []string) int

	// Len returns the number of indexed vectors.
	Len() int

	// Dimensions returns the vector size, zero while empty.
	Dimensions() int

	// Reset removes every vector.
	Reset()
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// Distance is the squared Euclidean distance to the query.
	Distance float64
}
