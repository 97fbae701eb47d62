package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat/internal/logger"
)

// VectorStore owns the vector index lifecycle: loading, embedding and
// adding chunks, persisting and searching.
//
// Mutations take the write lock; Search, Save and the accessors take the
// read lock. Embedding happens before any lock is taken.
type VectorStore struct {
	index    driven.VectorIndex
	store    driven.IndexStore
	embedder driven.EmbeddingService

	batchSize int
	limiter   *rate.Limiter

	mu          sync.RWMutex
	chunks      map[string]domain.Chunk
	order       []string
	model       string
	initialised bool
}

// VectorStoreOption configures a VectorStore.
type VectorStoreOption func(*VectorStore)

// WithBatchSize sets how many chunks are embedded per request.
func WithBatchSize(n int) VectorStoreOption {
	return func(v *VectorStore) {
		if n > 0 {
			v.batchSize = n
		}
	}
}

// WithRateLimit caps embedding requests per second. Zero disables the limit.
func WithRateLimit(perSecond float64) VectorStoreOption {
	return func(v *VectorStore) {
		if perSecond > 0 {
			v.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// NewVectorStore creates an uninitialised store. Call LoadOrInit or Add
// before Search.
func NewVectorStore(
	index driven.VectorIndex,
	store driven.IndexStore,
	embedder driven.EmbeddingService,
	opts ...VectorStoreOption,
) *VectorStore {
	v := &VectorStore{
		index:     index,
		store:     store,
		embedder:  embedder,
		batchSize: domain.DefaultEmbedBatchSize,
		chunks:    make(map[string]domain.Chunk),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// LoadOrInit loads the index persisted at path and reports whether one was
// found. A missing index leaves the store untouched and uninitialised.
func (v *VectorStore) LoadOrInit(ctx context.Context, path string) (bool, error) {
	defer logger.Stage("load index")()

	snapshot, err := v.store.Load(ctx, path)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load index: %w", err)
	}

	if dims := v.embedder.Dimensions(); dims > 0 && snapshot.Dimensions > 0 && dims != snapshot.Dimensions {
		return false, fmt.Errorf("%w: index at %s has %d dimensions, embedding model %s produces %d",
			domain.ErrCorruptIndex, path, snapshot.Dimensions, v.embedder.ModelName(), dims)
	}
	if snapshot.Model != "" && snapshot.Model != v.embedder.ModelName() {
		logger.Warn("index was built with %s, querying with %s", snapshot.Model, v.embedder.ModelName())
	}

	chunks := make(map[string]domain.Chunk, len(snapshot.Chunks))
	order := make([]string, 0, len(snapshot.Chunks))
	ids := make([]string, 0, len(snapshot.Chunks))
	vectors := make([][]float32, 0, len(snapshot.Chunks))
	for _, c := range snapshot.Chunks {
		if _, dup := chunks[c.ID]; dup {
			return false, fmt.Errorf("%w: duplicate chunk %s", domain.ErrCorruptIndex, c.ID)
		}
		chunks[c.ID] = c
		order = append(order, c.ID)
		ids = append(ids, c.ID)
		vectors = append(vectors, c.Embedding)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	v.index.Reset()
	if err := v.index.Add(ids, vectors); err != nil {
		v.index.Reset()
		v.chunks = make(map[string]domain.Chunk)
		v.order = nil
		v.model = ""
		v.initialised = false
		return false, fmt.Errorf("%w: %w", domain.ErrCorruptIndex, err)
	}
	v.chunks = chunks
	v.order = order
	v.model = snapshot.Model
	v.initialised = true

	logger.Debug("loaded %d chunks (%d dimensions) from %s", len(order), snapshot.Dimensions, path)
	return true, nil
}

// Add embeds chunks lacking an embedding and inserts them. The insert is all
// or nothing: a duplicate ID or a vector of the wrong size leaves the index
// unchanged. Adding an empty slice initialises an empty index.
func (v *VectorStore) Add(ctx context.Context, chunks []domain.Chunk) error {
	_, err := v.Replace(ctx, nil, chunks)
	return err
}

// Replace drops every chunk whose Source is in sources, or lies below one of
// them when it names a directory, and inserts chunks as one step under the
// write lock. Embedding happens first, so a provider
// failure leaves the index unchanged. Returns the number of chunks dropped.
func (v *VectorStore) Replace(ctx context.Context, sources []string, chunks []domain.Chunk) (int, error) {
	pending := make([]domain.Chunk, len(chunks))
	copy(pending, chunks)

	if err := v.embedMissing(ctx, pending); err != nil {
		return 0, err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	stale := v.idsForSources(sources)
	ids, vectors, err := v.validate(pending, stale)
	if err != nil {
		return 0, err
	}

	removed := v.removeLocked(stale)
	if len(ids) > 0 {
		if err := v.index.Add(ids, vectors); err != nil {
			return removed, fmt.Errorf("add vectors: %w", err)
		}
	}
	for _, c := range pending {
		v.chunks[c.ID] = c
		v.order = append(v.order, c.ID)
	}
	if v.model == "" {
		v.model = v.embedder.ModelName()
	}
	v.initialised = true

	logger.Debug("indexed %d chunks, dropped %d, %d total", len(pending), removed, len(v.order))
	return removed, nil
}

// validate checks pending chunks against the index. IDs about to be dropped
// may be reused (caller must hold the write lock).
func (v *VectorStore) validate(pending []domain.Chunk, stale map[string]struct{}) ([]string, [][]float32, error) {
	dims := v.index.Dimensions()
	seen := make(map[string]struct{}, len(pending))
	ids := make([]string, len(pending))
	vectors := make([][]float32, len(pending))
	for i, c := range pending {
		if _, exists := v.chunks[c.ID]; exists {
			if _, going := stale[c.ID]; !going {
				return nil, nil, fmt.Errorf("%w: chunk %s is already indexed", domain.ErrInvalidInput, c.ID)
			}
		}
		if _, dup := seen[c.ID]; dup {
			return nil, nil, fmt.Errorf("%w: chunk %s appears twice", domain.ErrInvalidInput, c.ID)
		}
		seen[c.ID] = struct{}{}

		if dims == 0 {
			dims = len(c.Embedding)
		}
		if len(c.Embedding) == 0 || len(c.Embedding) != dims {
			return nil, nil, fmt.Errorf("%w: chunk %s has %d dimensions, index has %d",
				domain.ErrEmbedding, c.ID, len(c.Embedding), dims)
		}
		ids[i] = c.ID
		vectors[i] = c.Embedding
	}
	return ids, vectors, nil
}

// embedMissing fills in embeddings in batches, waiting on the rate limiter
// before each request.
func (v *VectorStore) embedMissing(ctx context.Context, chunks []domain.Chunk) error {
	var missing []int
	for i := range chunks {
		if !chunks[i].HasEmbedding() {
			missing = append(missing, i)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	defer logger.Stage(fmt.Sprintf("embed %d chunks", len(missing)))()

	for start := 0; start < len(missing); start += v.batchSize {
		end := min(start+v.batchSize, len(missing))
		batch := missing[start:end]

		if v.limiter != nil {
			if err := v.limiter.Wait(ctx); err != nil {
				return fmt.Errorf("embed: %w", err)
			}
		}

		texts := make([]string, len(batch))
		for j, idx := range batch {
			texts[j] = chunks[idx].Content
		}
		vectors, err := v.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed: %w", err)
		}
		if len(vectors) != len(batch) {
			return fmt.Errorf("embed: %w: got %d vectors for %d texts", domain.ErrEmbedding, len(vectors), len(batch))
		}
		for j, idx := range batch {
			chunks[idx].Embedding = vectors[j]
		}
	}
	return nil
}

// RemoveSource drops every chunk whose Source is source or lies below it,
// and returns how many were removed.
func (v *VectorStore) RemoveSource(source string) int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.removeLocked(v.idsForSources([]string{source}))
}

// Reset empties the store and marks it uninitialised.
func (v *VectorStore) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.index.Reset()
	v.chunks = make(map[string]domain.Chunk)
	v.order = nil
	v.model = ""
	v.initialised = false
}

func (v *VectorStore) idsForSources(sources []string) map[string]struct{} {
	if len(sources) == 0 {
		return nil
	}
	want := make(map[string]struct{}, len(sources))
	prefixes := make([]string, 0, len(sources))
	for _, s := range sources {
		want[s] = struct{}{}
		if !strings.HasSuffix(s, string(filepath.Separator)) {
			s += string(filepath.Separator)
		}
		prefixes = append(prefixes, s)
	}
	ids := make(map[string]struct{})
	for _, id := range v.order {
		if underAny(v.chunks[id].Source, want, prefixes) {
			ids[id] = struct{}{}
		}
	}
	return ids
}

func underAny(source string, exact map[string]struct{}, prefixes []string) bool {
	if _, ok := exact[source]; ok {
		return true
	}
	for _, p := range prefixes {
		if strings.HasPrefix(source, p) {
			return true
		}
	}
	return false
}

func (v *VectorStore) removeLocked(ids map[string]struct{}) int {
	if len(ids) == 0 {
		return 0
	}
	list := make([]string, 0, len(ids))
	kept := v.order[:0]
	for _, id := range v.order {
		if _, drop := ids[id]; drop {
			list = append(list, id)
			delete(v.chunks, id)
			continue
		}
		kept = append(kept, id)
	}
	v.order = kept
	return v.index.Remove(list)
}

// Save persists the index atomically.
func (v *VectorStore) Save(ctx context.Context, path string) error {
	defer logger.Stage("save index")()

	snapshot, err := v.snapshot()
	if err != nil {
		return err
	}
	if err := v.store.Save(ctx, path, snapshot); err != nil {
		return fmt.Errorf("save index: %w", err)
	}
	logger.Debug("saved %d chunks to %s", len(snapshot.Chunks), path)
	return nil
}

func (v *VectorStore) snapshot() (*driven.IndexSnapshot, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if !v.initialised {
		return nil, fmt.Errorf("save index: %w", domain.ErrUninitializedIndex)
	}
	snapshot := &driven.IndexSnapshot{
		Dimensions: v.index.Dimensions(),
		Model:      v.model,
		Chunks:     make([]domain.Chunk, 0, len(v.order)),
	}
	for _, id := range v.order {
		snapshot.Chunks = append(snapshot.Chunks, v.chunks[id])
	}
	return snapshot, nil
}

// Search embeds query and returns up to k chunks by ascending distance.
// Ties keep insertion order. k larger than the index returns every entry.
func (v *VectorStore) Search(ctx context.Context, query string, k int) ([]domain.RetrievalResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("search: %w: k must be positive, got %d", domain.ErrInvalidInput, k)
	}
	if !v.IsInitialised() {
		return nil, fmt.Errorf("search: %w", domain.ErrUninitializedIndex)
	}

	vector, err := v.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	v.mu.RLock()
	defer v.mu.RUnlock()

	if v.index.Len() == 0 {
		return []domain.RetrievalResult{}, nil
	}
	hits, err := v.index.Search(vector, k)
	if err != nil {
		return nil, fmt.Errorf("search: %w: %w", domain.ErrEmbedding, err)
	}

	results := make([]domain.RetrievalResult, 0, len(hits))
	for _, hit := range hits {
		chunk, ok := v.chunks[hit.ChunkID]
		if !ok {
			continue
		}
		results = append(results, domain.RetrievalResult{Chunk: chunk, Score: hit.Distance})
	}
	return results, nil
}

// IsInitialised reports whether the index has been loaded or added to.
func (v *VectorStore) IsInitialised() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.initialised
}

// Len returns the number of indexed chunks.
func (v *VectorStore) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.order)
}

// Dimensions returns the embedding size, zero while empty.
func (v *VectorStore) Dimensions() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.index.Dimensions()
}

// Model returns the embedding model the index was built with.
func (v *VectorStore) Model() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.model
}
