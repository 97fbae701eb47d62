package services

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// EnvAPIKey is the credential consulted for any remote provider when neither
// an explicit key nor the provider's own variable is set.
//
//nolint:gosec // G101: environment variable name, not a credential.
const EnvAPIKey = "RAGCHAT_API_KEY"

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyChunkSize       = "chunking.chunk_size"
	keyChunkOverlap    = "chunking.overlap"
	keyRetrievalK      = "retrieval.k"
	keyDataDir         = "storage.data_dir"
	keyIndexDir        = "storage.index_dir"
	keyExtensions      = "documents.extensions"
	keyOnDecodeError   = "documents.on_decode_error"
	keyEmbedProvider   = "embedding.provider"
	keyEmbedModel      = "embedding.model"
	keyEmbedBaseURL    = "embedding.base_url"
	keyEmbedAPIKey     = "embedding.api_key"
	keyEmbedTimeout    = "embedding.timeout"
	keyEmbedBatchSize  = "embedding.batch_size"
	keyEmbedRate       = "embedding.requests_per_second"
	keyLLMProvider     = "llm.provider"
	keyLLMModel        = "llm.model"
	keyLLMBaseURL      = "llm.base_url"
	keyLLMAPIKey       = "llm.api_key"
	keyLLMTimeout      = "llm.timeout"
	keyLLMMaxTokens    = "llm.max_tokens"
	keyLLMTemperature  = "llm.temperature"
	keyMemoryMaxTurns  = "memory.max_turns"
	keyMemoryMaxTokens = "memory.max_tokens"
)

type settingKind int

const (
	kindString settingKind = iota
	kindInt
	kindFloat
	kindDuration
	kindList
	kindProvider
	kindSecret
)

// settingKinds lists every key the settings service understands.
var settingKinds = map[string]settingKind{
	keyChunkSize:       kindInt,
	keyChunkOverlap:    kindInt,
	keyRetrievalK:      kindInt,
	keyDataDir:         kindString,
	keyIndexDir:        kindString,
	keyExtensions:      kindList,
	keyOnDecodeError:   kindString,
	keyEmbedProvider:   kindProvider,
	keyEmbedModel:      kindString,
	keyEmbedBaseURL:    kindString,
	keyEmbedAPIKey:     kindSecret,
	keyEmbedTimeout:    kindDuration,
	keyEmbedBatchSize:  kindInt,
	keyEmbedRate:       kindFloat,
	keyLLMProvider:     kindProvider,
	keyLLMModel:        kindString,
	keyLLMBaseURL:      kindString,
	keyLLMAPIKey:       kindSecret,
	keyLLMTimeout:      kindDuration,
	keyLLMMaxTokens:    kindInt,
	keyLLMTemperature:  kindFloat,
	keyMemoryMaxTurns:  kindInt,
	keyMemoryMaxTokens: kindInt,
}

// fieldKeys maps validator namespaces back to config keys for error messages.
var fieldKeys = map[string]string{
	"Chunking.ChunkSize":          keyChunkSize,
	"Chunking.Overlap":            keyChunkOverlap,
	"Retrieval.K":                 keyRetrievalK,
	"Storage.DataDir":             keyDataDir,
	"Storage.IndexDir":            keyIndexDir,
	"Documents.Extensions":        keyExtensions,
	"Documents.OnDecodeError":     keyOnDecodeError,
	"Embedding.Provider":          keyEmbedProvider,
	"Embedding.Model":             keyEmbedModel,
	"Embedding.Timeout":           keyEmbedTimeout,
	"Embedding.BatchSize":         keyEmbedBatchSize,
	"Embedding.RequestsPerSecond": keyEmbedRate,
	"LLM.Provider":                keyLLMProvider,
	"LLM.Model":                   keyLLMModel,
	"LLM.Timeout":                 keyLLMTimeout,
	"LLM.MaxTokens":               keyLLMMaxTokens,
	"LLM.Temperature":             keyLLMTemperature,
	"Memory.MaxTurns":             keyMemoryMaxTurns,
	"Memory.MaxTokens":            keyMemoryMaxTokens,
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	getenv      func(string) string
	validate    *validator.Validate

	mu        sync.RWMutex
	overrides map[string]any
}

// SettingsOption configures a SettingsService.
type SettingsOption func(*SettingsService)

// WithGetenv replaces the environment lookup used for credentials.
func WithGetenv(getenv func(string) string) SettingsOption {
	return func(s *SettingsService) {
		s.getenv = getenv
	}
}

// NewSettingsService creates a new settings service.
func NewSettingsService(
	configStore driven.ConfigStore,
	aiValidator driven.AIConfigValidator,
	opts ...SettingsOption,
) *SettingsService {
	s := &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		getenv:      os.Getenv,
		validate:    newSettingsValidator(),
		overrides:   make(map[string]any),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func newSettingsValidator() *validator.Validate {
	v := validator.New()
	// Registration only fails on an empty tag or nil func.
	_ = v.RegisterValidation("ai_provider", func(fl validator.FieldLevel) bool {
		return domain.AIProvider(fl.Field().String()).IsValid()
	})
	_ = v.RegisterValidation("embedding_provider", func(fl validator.FieldLevel) bool {
		return domain.AIProvider(fl.Field().String()).SupportsEmbedding()
	})
	return v
}

// Get returns the effective settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	return s.build(nil)
}

// build layers defaults, the config store, overrides and extra.
func (s *SettingsService) build(extra map[string]any) (*domain.AppSettings, error) {
	r := &layeredReader{s: s, extra: extra}
	d := domain.DefaultAppSettings()

	embedProvider := domain.AIProvider(r.str(keyEmbedProvider, d.Embedding.Provider.String()))
	llmProvider := domain.AIProvider(r.str(keyLLMProvider, d.LLM.Provider.String()))

	settings := &domain.AppSettings{
		Chunking: domain.ChunkSettings{
			ChunkSize: r.int(keyChunkSize, d.Chunking.ChunkSize),
			Overlap:   r.int(keyChunkOverlap, d.Chunking.Overlap),
		},
		Retrieval: domain.RetrievalSettings{
			K: r.int(keyRetrievalK, d.Retrieval.K),
		},
		Storage: domain.StorageSettings{
			DataDir:  r.str(keyDataDir, d.Storage.DataDir),
			IndexDir: r.str(keyIndexDir, d.Storage.IndexDir),
		},
		Documents: domain.DocumentSettings{
			Extensions:    r.list(keyExtensions, d.Documents.Extensions),
			OnDecodeError: domain.DecodePolicy(r.str(keyOnDecodeError, string(d.Documents.OnDecodeError))),
		},
		Embedding: domain.EmbeddingSettings{
			Provider:          embedProvider,
			Model:             r.str(keyEmbedModel, domain.DefaultEmbeddingModels()[embedProvider]),
			BaseURL:           r.str(keyEmbedBaseURL, ""),
			APIKey:            s.resolveCredential(embedProvider, r.str(keyEmbedAPIKey, "")),
			Timeout:           r.duration(keyEmbedTimeout, d.Embedding.Timeout),
			BatchSize:         r.int(keyEmbedBatchSize, d.Embedding.BatchSize),
			RequestsPerSecond: r.float(keyEmbedRate, d.Embedding.RequestsPerSecond),
		},
		LLM: domain.LLMSettings{
			Provider:    llmProvider,
			Model:       r.str(keyLLMModel, domain.DefaultLLMModels()[llmProvider]),
			BaseURL:     r.str(keyLLMBaseURL, ""),
			APIKey:      s.resolveCredential(llmProvider, r.str(keyLLMAPIKey, "")),
			Timeout:     r.duration(keyLLMTimeout, d.LLM.Timeout),
			MaxTokens:   r.int(keyLLMMaxTokens, d.LLM.MaxTokens),
			Temperature: r.float(keyLLMTemperature, d.LLM.Temperature),
		},
		Memory: domain.MemorySettings{
			MaxTurns:  r.int(keyMemoryMaxTurns, d.Memory.MaxTurns),
			MaxTokens: r.int(keyMemoryMaxTokens, d.Memory.MaxTokens),
		},
	}

	if len(r.errs) > 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrConfiguration, strings.Join(r.errs, "; "))
	}
	if err := s.check(settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// check runs struct validation and maps failures to config keys.
func (s *SettingsService) check(settings *domain.AppSettings) error {
	err := s.validate.Struct(settings)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		ns := strings.TrimPrefix(e.StructNamespace(), "AppSettings.")
		if i := strings.Index(ns, "["); i >= 0 {
			ns = ns[:i]
		}
		key := fieldKeys[ns]
		if key == "" {
			key = ns
		}
		msgs = append(msgs, describeFailure(key, e))
	}
	return fmt.Errorf("%w: %s", domain.ErrConfiguration, strings.Join(msgs, "; "))
}

func describeFailure(key string, e validator.FieldError) string {
	switch e.Tag() {
	case "ltfield":
		return fmt.Sprintf("%s must be smaller than %s", key, keyChunkSize)
	case "ai_provider":
		return fmt.Sprintf("%s: unknown provider %q", key, e.Value())
	case "embedding_provider":
		return fmt.Sprintf("%s: provider %q does not offer embeddings", key, e.Value())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", key, e.Param())
	case "required", "min":
		return fmt.Sprintf("%s must be set", key)
	case "startswith":
		return fmt.Sprintf("%s entries must start with %q", key, e.Param())
	default:
		if e.Param() != "" {
			return fmt.Sprintf("%s failed %s=%s (got %v)", key, e.Tag(), e.Param(), e.Value())
		}
		return fmt.Sprintf("%s failed %s", key, e.Tag())
	}
}

// resolveCredential returns the explicit key, then the provider's variable,
// then RAGCHAT_API_KEY. Local providers never need one.
func (s *SettingsService) resolveCredential(provider domain.AIProvider, explicit string) string {
	if explicit != "" {
		return explicit
	}
	if !provider.RequiresAPIKey() {
		return ""
	}
	if env := provider.CredentialEnv(); env != "" {
		if v := s.getenv(env); v != "" {
			return v
		}
	}
	return s.getenv(EnvAPIKey)
}

// Save persists application settings.
// Resolved credentials are not written back unless they were configured explicitly.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	if err := s.check(settings); err != nil {
		return err
	}

	values := []struct {
		key   string
		value any
	}{
		{keyChunkSize, settings.Chunking.ChunkSize},
		{keyChunkOverlap, settings.Chunking.Overlap},
		{keyRetrievalK, settings.Retrieval.K},
		{keyDataDir, settings.Storage.DataDir},
		{keyIndexDir, settings.Storage.IndexDir},
		{keyExtensions, settings.Documents.Extensions},
		{keyOnDecodeError, string(settings.Documents.OnDecodeError)},
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyEmbedTimeout, settings.Embedding.Timeout.String()},
		{keyEmbedBatchSize, settings.Embedding.BatchSize},
		{keyEmbedRate, settings.Embedding.RequestsPerSecond},
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyLLMTimeout, settings.LLM.Timeout.String()},
		{keyLLMMaxTokens, settings.LLM.MaxTokens},
		{keyLLMTemperature, settings.LLM.Temperature},
		{keyMemoryMaxTurns, settings.Memory.MaxTurns},
		{keyMemoryMaxTokens, settings.Memory.MaxTokens},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	if s.isExplicitKey(keyEmbedAPIKey, settings.Embedding.Provider, settings.Embedding.APIKey) {
		if err := s.configStore.Set(keyEmbedAPIKey, settings.Embedding.APIKey); err != nil {
			return fmt.Errorf("save %s: %w", keyEmbedAPIKey, err)
		}
	}
	if s.isExplicitKey(keyLLMAPIKey, settings.LLM.Provider, settings.LLM.APIKey) {
		if err := s.configStore.Set(keyLLMAPIKey, settings.LLM.APIKey); err != nil {
			return fmt.Errorf("save %s: %w", keyLLMAPIKey, err)
		}
	}
	return nil
}

// isExplicitKey reports whether apiKey differs from what the environment would supply.
func (s *SettingsService) isExplicitKey(key string, provider domain.AIProvider, apiKey string) bool {
	if apiKey == "" {
		return false
	}
	if s.configStore.GetString(key) != "" {
		return true
	}
	return apiKey != s.resolveCredential(provider, "")
}

// Set parses raw for a known key and persists it. The resulting settings
// must validate.
func (s *SettingsService) Set(key, raw string) error {
	value, err := parseSetting(key, raw)
	if err != nil {
		return err
	}

	if _, err := s.build(map[string]any{key: value}); err != nil {
		return err
	}
	if err := s.configStore.Set(key, value); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Lookup returns the effective value of a known key as text.
// Credentials are masked.
func (s *SettingsService) Lookup(key string) (string, error) {
	kind, ok := settingKinds[key]
	if !ok {
		return "", fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	settings, err := s.Get()
	if err != nil {
		return "", err
	}

	var value any
	switch key {
	case keyChunkSize:
		value = settings.Chunking.ChunkSize
	case keyChunkOverlap:
		value = settings.Chunking.Overlap
	case keyRetrievalK:
		value = settings.Retrieval.K
	case keyDataDir:
		value = settings.Storage.DataDir
	case keyIndexDir:
		value = settings.Storage.IndexDir
	case keyExtensions:
		value = strings.Join(settings.Documents.Extensions, ",")
	case keyOnDecodeError:
		value = settings.Documents.OnDecodeError
	case keyEmbedProvider:
		value = settings.Embedding.Provider
	case keyEmbedModel:
		value = settings.Embedding.Model
	case keyEmbedBaseURL:
		value = settings.Embedding.BaseURL
	case keyEmbedAPIKey:
		value = settings.Embedding.APIKey
	case keyEmbedTimeout:
		value = settings.Embedding.Timeout
	case keyEmbedBatchSize:
		value = settings.Embedding.BatchSize
	case keyEmbedRate:
		value = settings.Embedding.RequestsPerSecond
	case keyLLMProvider:
		value = settings.LLM.Provider
	case keyLLMModel:
		value = settings.LLM.Model
	case keyLLMBaseURL:
		value = settings.LLM.BaseURL
	case keyLLMAPIKey:
		value = settings.LLM.APIKey
	case keyLLMTimeout:
		value = settings.LLM.Timeout
	case keyLLMMaxTokens:
		value = settings.LLM.MaxTokens
	case keyLLMTemperature:
		value = settings.LLM.Temperature
	case keyMemoryMaxTurns:
		value = settings.Memory.MaxTurns
	case keyMemoryMaxTokens:
		value = settings.Memory.MaxTokens
	}

	text := fmt.Sprint(value)
	if kind == kindSecret {
		text = maskSecret(text)
	}
	return text, nil
}

// Keys returns every known setting key in sorted order.
func (s *SettingsService) Keys() []string {
	keys := make([]string, 0, len(settingKinds))
	for k := range settingKinds {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Override sets a value for this process only.
func (s *SettingsService) Override(key string, value any) error {
	if _, ok := settingKinds[key]; !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides[key] = value
	return nil
}

// SetEmbeddingProvider configures the embedding provider.
// An empty model selects the provider default.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.SupportsEmbedding() {
		return fmt.Errorf("%w: provider %s does not support embeddings", domain.ErrConfiguration, provider)
	}
	if model == "" {
		model = domain.DefaultEmbeddingModels()[provider]
	}
	if s.resolveCredential(provider, apiKey) == "" && provider.RequiresAPIKey() {
		return missingCredential("embedding", provider)
	}

	settings, err := s.build(map[string]any{keyEmbedProvider: provider.String(), keyEmbedModel: model})
	if err != nil {
		return err
	}

	settings.Embedding.BaseURL = providerBaseURL(provider, settings.Embedding.BaseURL)
	if apiKey != "" {
		settings.Embedding.APIKey = apiKey
	}
	return s.Save(settings)
}

// SetLLMProvider configures the LLM provider.
// An empty model selects the provider default.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid LLM provider: %s", domain.ErrConfiguration, provider)
	}
	if model == "" {
		model = domain.DefaultLLMModels()[provider]
	}
	if s.resolveCredential(provider, apiKey) == "" && provider.RequiresAPIKey() {
		return missingCredential("llm", provider)
	}

	settings, err := s.build(map[string]any{keyLLMProvider: provider.String(), keyLLMModel: model})
	if err != nil {
		return err
	}

	settings.LLM.BaseURL = providerBaseURL(provider, settings.LLM.BaseURL)
	if apiKey != "" {
		settings.LLM.APIKey = apiKey
	}
	return s.Save(settings)
}

// providerBaseURL keeps a custom endpoint for local providers and clears it
// for cloud ones, whose adapters know their own endpoints.
func providerBaseURL(provider domain.AIProvider, current string) string {
	if provider.IsLocal() {
		if current == "" {
			return "http://localhost:11434"
		}
		return current
	}
	return ""
}

// Validate checks settings and credentials.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	if !settings.Embedding.IsConfigured() {
		return missingCredential("embedding", settings.Embedding.Provider)
	}
	if !settings.LLM.IsConfigured() {
		return missingCredential("llm", settings.LLM.Provider)
	}
	return nil
}

func missingCredential(section string, provider domain.AIProvider) error {
	return fmt.Errorf("%w: %s provider %s needs %s.api_key, %s or %s",
		domain.ErrMissingCredential, section, provider, section, provider.CredentialEnv(), EnvAPIKey)
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// parseSetting converts raw text to the stored type for key.
func parseSetting(key, raw string) (any, error) {
	kind, ok := settingKinds[key]
	if !ok {
		return nil, fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	raw = strings.TrimSpace(raw)

	switch kind {
	case kindInt:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s expects an integer, got %q", domain.ErrInvalidInput, key, raw)
		}
		return n, nil
	case kindFloat:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s expects a number, got %q", domain.ErrInvalidInput, key, raw)
		}
		return f, nil
	case kindDuration:
		if _, err := time.ParseDuration(raw); err != nil {
			return nil, fmt.Errorf("%w: %s expects a duration such as 30s, got %q", domain.ErrInvalidInput, key, raw)
		}
		return raw, nil
	case kindList:
		var items []string
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				items = append(items, part)
			}
		}
		return items, nil
	case kindProvider:
		if !domain.AIProvider(raw).IsValid() {
			return nil, fmt.Errorf("%w: %s: unknown provider %q", domain.ErrInvalidInput, key, raw)
		}
		return raw, nil
	default:
		return raw, nil
	}
}

func maskSecret(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 8 {
		return "****"
	}
	return "****" + secret[len(secret)-4:]
}

// layeredReader reads a key from extra, then overrides, then the config
// store, collecting type errors.
type layeredReader struct {
	s     *SettingsService
	extra map[string]any
	errs  []string
}

func (r *layeredReader) value(key string) (any, bool) {
	if v, ok := r.extra[key]; ok {
		return v, true
	}
	r.s.mu.RLock()
	v, ok := r.s.overrides[key]
	r.s.mu.RUnlock()
	if ok {
		return v, true
	}
	return r.s.configStore.Get(key)
}

func (r *layeredReader) fail(key, want string, got any) {
	r.errs = append(r.errs, fmt.Sprintf("%s expects %s, got %v", key, want, got))
}

func (r *layeredReader) str(key, def string) string {
	v, ok := r.value(key)
	if !ok {
		return def
	}
	switch s := v.(type) {
	case string:
		if s == "" {
			return def
		}
		return s
	case fmt.Stringer:
		return s.String()
	default:
		r.fail(key, "a string", v)
		return def
	}
}

func (r *layeredReader) int(key string, def int) int {
	v, ok := r.value(key)
	if !ok {
		return def
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		if n == float64(int(n)) {
			return int(n)
		}
	}
	r.fail(key, "an integer", v)
	return def
}

func (r *layeredReader) float(key string, def float64) float64 {
	v, ok := r.value(key)
	if !ok {
		return def
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	r.fail(key, "a number", v)
	return def
}

func (r *layeredReader) duration(key string, def time.Duration) time.Duration {
	v, ok := r.value(key)
	if !ok {
		return def
	}
	switch d := v.(type) {
	case time.Duration:
		return d
	case string:
		if d == "" {
			return def
		}
		parsed, err := time.ParseDuration(d)
		if err == nil {
			return parsed
		}
	case int64:
		// Bare integers are seconds.
		return time.Duration(d) * time.Second
	case int:
		return time.Duration(d) * time.Second
	}
	r.fail(key, "a duration", v)
	return def
}

func (r *layeredReader) list(key string, def []string) []string {
	v, ok := r.value(key)
	if !ok {
		return def
	}
	switch l := v.(type) {
	case []string:
		return l
	case []any:
		out := make([]string, 0, len(l))
		for _, item := range l {
			str, ok := item.(string)
			if !ok {
				r.fail(key, "a list of strings", v)
				return def
			}
			out = append(out, str)
		}
		return out
	case string:
		return []string{l}
	}
	r.fail(key, "a list of strings", v)
	return def
}
