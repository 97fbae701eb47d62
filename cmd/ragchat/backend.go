package main

import (
	"context"
	"fmt"

	"github.com/custodia-labs/ragchat/internal/adapters/driven/ai"
	"github.com/custodia-labs/ragchat/internal/adapters/driven/config/file"
	"github.com/custodia-labs/ragchat/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ragchat/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/ragchat/internal/adapters/driven/tokenizer/tiktoken"
	"github.com/custodia-labs/ragchat/internal/adapters/driven/vector/flat"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/cli"
	"github.com/custodia-labs/ragchat/internal/connectors/filesystem"
	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat/internal/core/ports/driving"
	"github.com/custodia-labs/ragchat/internal/core/services"
	"github.com/custodia-labs/ragchat/internal/normalisers"
	"github.com/custodia-labs/ragchat/internal/postprocessors"
)

// backend wires concrete adapters into the services the CLI runs.
type backend struct{}

var _ cli.Backend = (*backend)(nil)

func (b *backend) Settings(path string) (driving.SettingsService, string, error) {
	var (
		store *file.ConfigStore
		err   error
	)
	if path != "" {
		store, err = file.NewConfigStoreAt(path)
	} else {
		store, err = file.NewConfigStore("")
	}
	if err != nil {
		return nil, "", err
	}
	return services.NewSettingsService(store, ai.NewConfigValidator()), store.Path(), nil
}

func (b *backend) Chat(ctx context.Context, s *domain.AppSettings, rebuild bool) (driving.ChatService, func(), error) {
	clients, err := ai.Init(ctx, s, false)
	if err != nil {
		return nil, nil, err
	}

	chat, err := newChat(ctx, s, clients, rebuild)
	if err != nil {
		clients.Close()
		return nil, nil, err
	}
	return chat, clients.Close, nil
}

func newChat(ctx context.Context, s *domain.AppSettings, clients *ai.InitResult, rebuild bool) (*services.ChatService, error) {
	store := services.NewVectorStore(
		flat.New(),
		sqlite.NewIndexStore(),
		clients.EmbeddingService,
		services.WithBatchSize(s.Embedding.BatchSize),
		services.WithRateLimit(s.Embedding.RequestsPerSecond),
	)

	splitter, err := postprocessors.NewSplitter(s.Chunking)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
	}

	mem, err := newMemory(s.Memory, s.LLM.Model)
	if err != nil {
		return nil, err
	}

	promptDir, err := file.DefaultPromptDir()
	if err != nil {
		return nil, err
	}
	prompts, err := file.NewPromptStore(promptDir)
	if err != nil {
		return nil, err
	}

	cfg := services.ChatConfigFrom(s)
	cfg.Rebuild = rebuild
	return services.NewChatService(ctx, services.ChatDeps{
		Store:    store,
		Loader:   newLoader(s),
		Splitter: splitter,
		LLM:      clients.LLMService,
		Memory:   mem,
		Prompts:  prompts,
	}, cfg)
}

func newMemory(s domain.MemorySettings, model string) (*memory.ConversationMemory, error) {
	opts := []memory.ConversationOption{memory.WithMaxTurns(s.MaxTurns)}
	if s.MaxTokens > 0 {
		counter, err := tiktoken.New(model)
		if err != nil {
			return nil, fmt.Errorf("token counter: %w", err)
		}
		opts = append(opts, memory.WithMaxTokens(s.MaxTokens, counter))
	}
	return memory.NewConversationMemory(opts...), nil
}

func newLoader(s *domain.AppSettings) *filesystem.Loader {
	return filesystem.NewLoader(
		filesystem.WithExtensions(s.Documents.Extensions...),
		filesystem.WithDecodePolicy(s.Documents.OnDecodeError),
		filesystem.WithNormalisers(normalisers.Defaults()...),
	)
}

func (b *backend) Watcher(s *domain.AppSettings) (driven.SourceWatcher, error) {
	return filesystem.NewWatcher(s.Storage.DataDir, newLoader(s)), nil
}
