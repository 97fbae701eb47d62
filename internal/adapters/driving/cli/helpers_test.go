package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat/internal/core/ports/driving"
)

// MockChatService implements driving.ChatService for CLI tests.
type MockChatService struct {
	AskFunc    func(ctx context.Context, query string) (*domain.Answer, error)
	SearchFunc func(ctx context.Context, query string, k int) ([]domain.RetrievalResult, error)
	IngestFunc func(ctx context.Context, changes []domain.FileChange) (*domain.IngestResult, error)
	StatsValue domain.IndexStats

	mu       sync.Mutex
	asked    []string
	searches []int
	ingested [][]domain.FileChange
	resets   int
}

func (m *MockChatService) Ask(ctx context.Context, query string) (*domain.Answer, error) {
	m.mu.Lock()
	m.asked = append(m.asked, query)
	m.mu.Unlock()
	if m.AskFunc != nil {
		return m.AskFunc(ctx, query)
	}
	return &domain.Answer{Text: "answer: " + query}, nil
}

func (m *MockChatService) Search(ctx context.Context, query string, k int) ([]domain.RetrievalResult, error) {
	m.mu.Lock()
	m.searches = append(m.searches, k)
	m.mu.Unlock()
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, query, k)
	}
	return nil, nil
}

func (m *MockChatService) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets++
}

func (m *MockChatService) History() []domain.Turn { return nil }

func (m *MockChatService) Ingest(ctx context.Context, changes []domain.FileChange) (*domain.IngestResult, error) {
	m.mu.Lock()
	m.ingested = append(m.ingested, changes)
	m.mu.Unlock()
	if m.IngestFunc != nil {
		return m.IngestFunc(ctx, changes)
	}
	return &domain.IngestResult{Documents: len(changes), Added: len(changes)}, nil
}

func (m *MockChatService) State() domain.IndexState { return domain.IndexStateReady }

func (m *MockChatService) Stats() domain.IndexStats { return m.StatsValue }

func (m *MockChatService) Asked() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.asked...)
}

func (m *MockChatService) Ingested() [][]domain.FileChange {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]domain.FileChange(nil), m.ingested...)
}

// MockSettingsService implements driving.SettingsService for CLI tests.
type MockSettingsService struct {
	Settings    domain.AppSettings
	Values      map[string]string
	Overrides   map[string]any
	ValidateErr error
	PingErr     error
	SetErr      error
}

func NewMockSettingsService() *MockSettingsService {
	return &MockSettingsService{
		Settings: domain.DefaultAppSettings(),
		Values: map[string]string{
			"chunking.chunk_size": "1000",
			"retrieval.k":         "4",
			"storage.data_dir":    "./data",
		},
		Overrides: make(map[string]any),
	}
}

func (m *MockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.Settings
	return &s, nil
}

func (m *MockSettingsService) Save(settings *domain.AppSettings) error {
	m.Settings = *settings
	return nil
}

func (m *MockSettingsService) Set(key, raw string) error {
	if m.SetErr != nil {
		return m.SetErr
	}
	if _, ok := m.Values[key]; !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	m.Values[key] = raw
	return nil
}

func (m *MockSettingsService) Lookup(key string) (string, error) {
	v, ok := m.Values[key]
	if !ok {
		return "", fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	return v, nil
}

func (m *MockSettingsService) Keys() []string {
	keys := make([]string, 0, len(m.Values))
	for k := range m.Values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (m *MockSettingsService) Override(key string, value any) error {
	m.Overrides[key] = value
	return nil
}

func (m *MockSettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	m.Settings.Embedding.Provider = provider
	m.Settings.Embedding.Model = model
	m.Settings.Embedding.APIKey = apiKey
	return nil
}

func (m *MockSettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	m.Settings.LLM.Provider = provider
	m.Settings.LLM.Model = model
	m.Settings.LLM.APIKey = apiKey
	return nil
}

func (m *MockSettingsService) Validate() error { return m.ValidateErr }

func (m *MockSettingsService) GetDefaults() domain.AppSettings { return domain.DefaultAppSettings() }

func (m *MockSettingsService) ValidateEmbeddingConfig() error { return m.PingErr }

func (m *MockSettingsService) ValidateLLMConfig() error { return m.PingErr }

// MockWatcher implements driven.SourceWatcher for CLI tests.
type MockWatcher struct {
	Changes chan domain.FileChange
	closed  bool
}

func (w *MockWatcher) Watch(context.Context) (<-chan domain.FileChange, error) {
	return w.Changes, nil
}

func (w *MockWatcher) Close() error {
	w.closed = true
	return nil
}

// MockBackend implements Backend for CLI tests.
type MockBackend struct {
	SettingsSvc *MockSettingsService
	ChatSvc     *MockChatService
	WatcherImpl *MockWatcher
	SettingsErr error
	ChatErr     error

	chatCalls int
	rebuild   bool
	closed    int
}

func (b *MockBackend) Settings(string) (driving.SettingsService, string, error) {
	if b.SettingsErr != nil {
		return nil, "", b.SettingsErr
	}
	return b.SettingsSvc, "/home/test/.ragchat/config.toml", nil
}

func (b *MockBackend) Chat(_ context.Context, _ *domain.AppSettings, rebuild bool) (driving.ChatService, func(), error) {
	b.chatCalls++
	b.rebuild = rebuild
	if b.ChatErr != nil {
		return nil, nil, b.ChatErr
	}
	return b.ChatSvc, func() { b.closed++ }, nil
}

func (b *MockBackend) Watcher(*domain.AppSettings) (driven.SourceWatcher, error) {
	return b.WatcherImpl, nil
}

var _ Backend = (*MockBackend)(nil)

// setupTestServices installs a mock backend and returns it with a cleanup
// that restores package state between tests.
func setupTestServices() (*MockBackend, func()) {
	b := &MockBackend{
		SettingsSvc: NewMockSettingsService(),
		ChatSvc:     &MockChatService{},
		WatcherImpl: &MockWatcher{Changes: make(chan domain.FileChange, 8)},
	}
	original := backend
	backend = b

	return b, func() {
		backend = original
		settingsService = nil
		configFile = ""
		resetCommands(rootCmd)
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	}
}

// resetCommands restores every flag under cmd to its default and drops the
// context cobra caches on each command after it runs.
func resetCommands(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	cmd.SetContext(nil) //nolint:staticcheck // cobra treats nil as unset
	for _, c := range cmd.Commands() {
		resetCommands(c)
	}
}

// executeCommand runs the root command with args and stdin, returning
// what was written to stdout and stderr.
func executeCommand(stdin string, args ...string) (string, string, error) {
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	var in io.Reader = strings.NewReader(stdin)
	rootCmd.SetIn(in)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}
