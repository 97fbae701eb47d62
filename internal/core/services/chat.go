package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat/internal/core/ports/driving"
	"github.com/custodia-labs/ragchat/internal/logger"
)

// Ensure ChatService implements the interface.
var _ driving.ChatService = (*ChatService)(nil)

// contextSeparator joins retrieved passages in the prompt.
const contextSeparator = "\n\n"

// ChatDeps are the collaborators a ChatService orchestrates.
type ChatDeps struct {
	Store    *VectorStore
	Loader   driven.DocumentLoader
	Splitter driven.Splitter
	LLM      driven.LLMService
	Memory   driven.ConversationMemory
	Prompts  driven.PromptStore
}

// ChatConfig holds per-service settings.
type ChatConfig struct {
	// DataDir is the source document directory.
	DataDir string

	// IndexDir is where the index is persisted.
	IndexDir string

	// K is the number of chunks retrieved per question.
	K int

	// Generate is passed to every LLM call.
	Generate driven.GenerateOptions

	// Rebuild ignores any persisted index and builds a new one from DataDir.
	Rebuild bool
}

// ChatConfigFrom derives a ChatConfig from application settings.
func ChatConfigFrom(settings *domain.AppSettings) ChatConfig {
	return ChatConfig{
		DataDir:  settings.Storage.DataDir,
		IndexDir: settings.Storage.IndexDir,
		K:        settings.Retrieval.K,
		Generate: driven.GenerateOptions{
			MaxTokens:   settings.LLM.MaxTokens,
			Temperature: settings.LLM.Temperature,
		},
	}
}

// ChatService is the retrieval-augmented question answering orchestrator.
// It owns the vector store and the conversation memory. Ask, Reset and
// Ingest are serialised: one request is in flight at a time.
type ChatService struct {
	deps      ChatDeps
	cfg       ChatConfig
	bootstrap *Bootstrap

	mu sync.Mutex
}

// NewChatService validates its inputs and bootstraps the index. On failure
// no service is returned; a missing index with no documents yields
// domain.ErrNoIndexAvailable.
func NewChatService(ctx context.Context, deps ChatDeps, cfg ChatConfig) (*ChatService, error) {
	if deps.Store == nil || deps.Loader == nil || deps.Splitter == nil ||
		deps.LLM == nil || deps.Memory == nil || deps.Prompts == nil {
		return nil, fmt.Errorf("%w: chat service is missing a dependency", domain.ErrConfiguration)
	}
	if cfg.K <= 0 {
		return nil, fmt.Errorf("%w: retrieval k must be positive, got %d", domain.ErrConfiguration, cfg.K)
	}

	c := &ChatService{
		deps:      deps,
		cfg:       cfg,
		bootstrap: NewBootstrap(deps.Store, deps.Loader, deps.Splitter),
	}
	run := c.bootstrap.Run
	if cfg.Rebuild {
		run = c.bootstrap.Rebuild
	}
	if err := run(ctx, cfg.DataDir, cfg.IndexDir); err != nil {
		return nil, err
	}
	return c, nil
}

// Ask answers query from retrieved passages and the conversation so far.
// A generation failure is returned as is and the turn is not recorded.
func (c *ChatService) Ask(ctx context.Context, query string) (*domain.Answer, error) {
	question := strings.TrimSpace(query)
	if question == "" {
		return nil, fmt.Errorf("ask: %w", domain.ErrInvalidQuery)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	logger.Section("Ask")

	done := logger.Stage("retrieve")
	sources, err := c.deps.Store.Search(ctx, question, c.cfg.K)
	done()
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}
	logger.Debug("retrieved %d chunks", len(sources))

	prompt, err := c.buildPrompt(sources, question)
	if err != nil {
		return nil, err
	}

	done = logger.Stage("generate")
	text, err := c.deps.LLM.Generate(ctx, prompt, c.cfg.Generate)
	done()
	if err != nil {
		if errors.Is(err, domain.ErrGeneration) {
			return nil, fmt.Errorf("generate: %w", err)
		}
		return nil, fmt.Errorf("generate: %w: %w", domain.ErrGeneration, err)
	}
	text = strings.TrimSpace(text)

	c.deps.Memory.Append(question, text)

	return &domain.Answer{Text: text, Sources: sources}, nil
}

// buildPrompt fills the answer template with the passages, the rendered
// memory and the question. An empty result set leaves the context empty.
func (c *ChatService) buildPrompt(sources []domain.RetrievalResult, question string) (string, error) {
	template, err := c.deps.Prompts.Load(driven.PromptRAGAnswer)
	if err != nil {
		return "", fmt.Errorf("load prompt: %w", err)
	}

	passages := make([]string, len(sources))
	for i, s := range sources {
		passages[i] = s.Chunk.Content
	}
	r := strings.NewReplacer(
		driven.PlaceholderContext, strings.Join(passages, contextSeparator),
		driven.PlaceholderHistory, c.deps.Memory.Fragment(),
		driven.PlaceholderQuestion, question,
	)
	return r.Replace(template), nil
}

// Search retrieves the k closest chunks without generating an answer.
func (c *ChatService) Search(ctx context.Context, query string, k int) ([]domain.RetrievalResult, error) {
	question := strings.TrimSpace(query)
	if question == "" {
		return nil, fmt.Errorf("search: %w", domain.ErrInvalidQuery)
	}
	return c.deps.Store.Search(ctx, question, k)
}

// Reset clears the conversation memory.
func (c *ChatService) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deps.Memory.Clear()
	logger.Debug("conversation memory cleared")
}

// History returns the recorded turns, oldest first.
func (c *ChatService) History() []domain.Turn {
	return c.deps.Memory.Turns()
}

// Ingest applies file changes to the index and saves it.
//
// When a path appears more than once the last change wins. A path that is
// gone from disk is treated as deleted, and deleting a directory drops
// every file below it. Files that fail to load are listed in
// IngestResult.Failed and keep their existing chunks.
func (c *ChatService) Ingest(ctx context.Context, changes []domain.FileChange) (*domain.IngestResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	logger.Section("Ingest")

	paths, latest, err := latestChanges(changes)
	if err != nil {
		return nil, err
	}

	result := &domain.IngestResult{}
	var (
		sources []string
		docs    []domain.Document
	)
	for _, path := range paths {
		if latest[path] == domain.ChangeDeleted {
			sources = append(sources, path)
			continue
		}

		loaded, err := c.deps.Loader.LoadFiles(ctx, []string{path})
		switch {
		case err == nil:
			sources = append(sources, path)
			docs = append(docs, loaded...)
		case ctx.Err() != nil:
			return nil, fmt.Errorf("ingest: %w", ctx.Err())
		case errors.Is(err, fs.ErrNotExist):
			logger.Debug("%s is gone, dropping it", path)
			sources = append(sources, path)
		default:
			logger.Warn("skipping %s: %v", path, err)
			result.Failed = append(result.Failed, path)
		}
	}
	result.Documents = len(docs)

	if len(sources) == 0 {
		return result, nil
	}

	chunks, err := c.deps.Splitter.Split(ctx, docs)
	if err != nil {
		return nil, fmt.Errorf("ingest: chunk: %w", err)
	}

	removed, err := c.deps.Store.Replace(ctx, sources, chunks)
	if err != nil {
		return nil, fmt.Errorf("ingest: %w", err)
	}
	result.Added = len(chunks)
	result.Removed = removed

	if result.Added == 0 && result.Removed == 0 {
		return result, nil
	}
	if err := c.deps.Store.Save(ctx, c.cfg.IndexDir); err != nil {
		return nil, fmt.Errorf("ingest: %w", err)
	}

	logger.Info("Ingested %d documents: %d chunks added, %d removed", result.Documents, result.Added, result.Removed)
	return result, nil
}

// latestChanges returns the distinct absolute paths in first-seen order
// with the last change recorded for each.
func latestChanges(changes []domain.FileChange) ([]string, map[string]domain.ChangeType, error) {
	paths := make([]string, 0, len(changes))
	latest := make(map[string]domain.ChangeType, len(changes))
	for _, change := range changes {
		abs, err := filepath.Abs(change.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("ingest: %w: %s: %w", domain.ErrInvalidInput, change.Path, err)
		}
		if _, ok := latest[abs]; !ok {
			paths = append(paths, abs)
		}
		latest[abs] = change.Type
	}
	return paths, latest, nil
}

// State reports the bootstrap state of the index.
func (c *ChatService) State() domain.IndexState {
	return c.bootstrap.State()
}

// Stats describes the loaded index.
func (c *ChatService) Stats() domain.IndexStats {
	return domain.IndexStats{
		Path:       c.cfg.IndexDir,
		Chunks:     c.deps.Store.Len(),
		Dimensions: c.deps.Store.Dimensions(),
		Model:      c.deps.Store.Model(),
		State:      c.bootstrap.State(),
	}
}
