package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat/internal/logger"
)

// Bootstrap brings a VectorStore to READY: it loads the persisted index or,
// when there is none, builds one from the data directory.
//
//	EMPTY --load succeeds--> READY
//	EMPTY --not found, docs available--> BUILDING --chunk, embed, add, save--> READY
//	EMPTY --not found, no docs--> FATAL (ErrNoIndexAvailable)
//
// A corrupt index is FATAL; it is never rebuilt implicitly.
type Bootstrap struct {
	store    *VectorStore
	loader   driven.DocumentLoader
	splitter driven.Splitter

	mu    sync.RWMutex
	state domain.IndexState
}

// NewBootstrap creates a bootstrap in the EMPTY state.
func NewBootstrap(store *VectorStore, loader driven.DocumentLoader, splitter driven.Splitter) *Bootstrap {
	return &Bootstrap{
		store:    store,
		loader:   loader,
		splitter: splitter,
		state:    domain.IndexStateEmpty,
	}
}

// Run loads the index at indexDir or builds it from dataDir.
func (b *Bootstrap) Run(ctx context.Context, dataDir, indexDir string) error {
	logger.Section("Bootstrap")
	b.setState(domain.IndexStateEmpty)

	found, err := b.store.LoadOrInit(ctx, indexDir)
	if err != nil {
		b.setState(domain.IndexStateFatal)
		return fmt.Errorf("bootstrap: %w", err)
	}
	if found {
		logger.Info("Loaded index from %s (%d chunks)", indexDir, b.store.Len())
		b.setState(domain.IndexStateReady)
		return nil
	}

	logger.Debug("no index at %s, building from %s", indexDir, dataDir)
	return b.build(ctx, dataDir, indexDir)
}

// Rebuild ignores any persisted index and builds a new one from dataDir.
// The saved file is replaced atomically, so a failed rebuild keeps the old index on disk.
func (b *Bootstrap) Rebuild(ctx context.Context, dataDir, indexDir string) error {
	logger.Section("Rebuild")
	b.store.Reset()
	b.setState(domain.IndexStateEmpty)
	return b.build(ctx, dataDir, indexDir)
}

func (b *Bootstrap) build(ctx context.Context, dataDir, indexDir string) error {
	docs, err := b.loader.Load(ctx, dataDir)
	if errors.Is(err, domain.ErrNotFound) {
		b.setState(domain.IndexStateFatal)
		return fmt.Errorf("bootstrap: %w: no index at %s and data directory %s does not exist",
			domain.ErrNoIndexAvailable, indexDir, dataDir)
	}
	if err != nil {
		b.setState(domain.IndexStateFatal)
		return fmt.Errorf("bootstrap: load documents: %w", err)
	}

	docs = nonEmpty(docs)
	if len(docs) == 0 {
		b.setState(domain.IndexStateFatal)
		return fmt.Errorf("bootstrap: %w: no index at %s and no documents in %s",
			domain.ErrNoIndexAvailable, indexDir, dataDir)
	}

	b.setState(domain.IndexStateBuilding)
	logger.Info("Building index from %d documents in %s", len(docs), dataDir)

	chunks, err := b.splitter.Split(ctx, docs)
	if err != nil {
		b.setState(domain.IndexStateFatal)
		return fmt.Errorf("bootstrap: chunk: %w", err)
	}
	logger.Debug("split %d documents into %d chunks", len(docs), len(chunks))

	if err := b.store.Add(ctx, chunks); err != nil {
		b.setState(domain.IndexStateFatal)
		return fmt.Errorf("bootstrap: %w", err)
	}
	if err := b.store.Save(ctx, indexDir); err != nil {
		b.setState(domain.IndexStateFatal)
		return fmt.Errorf("bootstrap: %w", err)
	}

	logger.Info("Index ready: %d chunks saved to %s", b.store.Len(), indexDir)
	b.setState(domain.IndexStateReady)
	return nil
}

// State returns the current bootstrap state.
func (b *Bootstrap) State() domain.IndexState {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state
}

func (b *Bootstrap) setState(s domain.IndexState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != s {
		logger.Debug("index state %s -> %s", b.state, s)
	}
	b.state = s
}

func nonEmpty(docs []domain.Document) []domain.Document {
	out := docs[:0:0]
	for _, d := range docs {
		if strings.TrimSpace(d.Content) != "" {
			out = append(out, d)
		}
	}
	return out
}
