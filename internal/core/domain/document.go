package domain

import "time"

// Document is a text file loaded from the data directory.
// Documents are transient: they are discarded once chunked.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// URI is the absolute path the document was read from.
	URI string

	// Title is the file's base name.
	Title string

	// Content is the full decoded text.
	Content string

	// Metadata contains arbitrary key-value pairs.
	Metadata map[string]any

	// CreatedAt is when the document was loaded.
	CreatedAt time.Time

	// UpdatedAt is the file modification time.
	UpdatedAt time.Time
}

// Chunk is a bounded substring of a Document.
// Chunks are immutable once created apart from the embedding attached
// during indexing; the vector index owns them after insertion.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Source is the origin path of the parent document.
	Source string

	// Content is the text content of this chunk.
	Content string

	// Position is the ordinal position within the document.
	Position int

	// Start is the rune offset of the chunk within the document.
	Start int

	// End is the exclusive rune offset of the chunk end.
	End int

	// Overlap is the number of leading runes repeated from the previous chunk.
	Overlap int

	// Embedding is the vector representation for semantic search.
	Embedding []float32

	// Metadata contains chunk-specific key-value pairs.
	Metadata map[string]any
}

// Len returns the chunk length in runes.
func (c Chunk) Len() int {
	return c.End - c.Start
}

// HasEmbedding reports whether a vector is attached.
func (c Chunk) HasEmbedding() bool {
	return len(c.Embedding) > 0
}
