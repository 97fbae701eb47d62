package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// Callers wrap them with the failing stage, e.g.
// fmt.Errorf("search: %w", ErrUninitializedIndex), and match with errors.Is.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrConfiguration indicates invalid settings such as a chunk overlap
	// that is not smaller than the chunk size. Fatal at startup.
	ErrConfiguration = errors.New("configuration error")

	// ErrMissingCredential indicates a provider credential was neither
	// configured nor present in the environment. It also matches ErrConfiguration.
	ErrMissingCredential = fmt.Errorf("%w: missing credential", ErrConfiguration)

	// ErrDocumentLoad indicates a document could not be read or decoded.
	ErrDocumentLoad = errors.New("document load failed")

	// ErrCorruptIndex indicates a persisted index exists but cannot be read.
	ErrCorruptIndex = errors.New("corrupt index")

	// ErrUninitializedIndex indicates a search before any add or load.
	ErrUninitializedIndex = errors.New("index not initialised")

	// ErrInvalidQuery indicates an empty or whitespace-only question.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrEmbedding indicates the embedding provider failed.
	ErrEmbedding = errors.New("embedding failed")

	// ErrGeneration indicates the generation provider failed.
	ErrGeneration = errors.New("generation failed")

	// ErrNoIndexAvailable indicates there is neither a persisted index
	// nor any source document to build one from.
	ErrNoIndexAvailable = errors.New("no index available")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")
)
