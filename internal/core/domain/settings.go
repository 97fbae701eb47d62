package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or generation.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is the OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderDashScope is Alibaba DashScope through its OpenAI-compatible endpoint.
	AIProviderDashScope AIProvider = "dashscope"

	// AIProviderAnthropic is the Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderGemini is the Google Gemini API.
	AIProviderGemini AIProvider = "gemini"
)

// DashScopeBaseURL is the OpenAI-compatible DashScope endpoint.
const DashScopeBaseURL = "https://dashscope.aliyuncs.com/compatible-mode/v1"

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderDashScope, AIProviderAnthropic, AIProviderGemini:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p.IsValid() && !p.IsLocal()
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// SupportsEmbedding returns true if the provider offers an embedding API.
func (p AIProvider) SupportsEmbedding() bool {
	return p.IsValid() && p != AIProviderAnthropic
}

// CredentialEnv returns the environment variable consulted when no API key
// is configured explicitly. Empty for local providers.
func (p AIProvider) CredentialEnv() string {
	switch p {
	case AIProviderOpenAI:
		return "OPENAI_API_KEY"
	case AIProviderDashScope:
		return "DASHSCOPE_API_KEY"
	case AIProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case AIProviderGemini:
		return "GEMINI_API_KEY"
	default:
		return ""
	}
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderDashScope:
		return "DashScope (cloud, OpenAI compatible)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	case AIProviderGemini:
		return "Gemini (cloud)"
	default:
		return unknownDescription
	}
}

// DecodePolicy controls what happens when a document is not valid UTF-8.
type DecodePolicy string

// Decode policies.
const (
	// DecodePolicyAbort fails the whole load with ErrDocumentLoad.
	DecodePolicyAbort DecodePolicy = "abort"

	// DecodePolicySkip logs a warning and leaves the file out.
	DecodePolicySkip DecodePolicy = "skip"
)

// IsValid returns true if the policy is recognised.
func (p DecodePolicy) IsValid() bool {
	return p == DecodePolicyAbort || p == DecodePolicySkip
}

// ChunkSettings controls how documents are split.
type ChunkSettings struct {
	// ChunkSize bounds each chunk's length in characters.
	ChunkSize int `validate:"gt=0"`

	// Overlap is the number of characters repeated at the start of the next chunk.
	Overlap int `validate:"gte=0,ltfield=ChunkSize"`
}

// RetrievalSettings controls search.
type RetrievalSettings struct {
	// K is the number of chunks retrieved per question.
	K int `validate:"gt=0"`
}

// StorageSettings locates documents and the persisted index.
type StorageSettings struct {
	// DataDir is the directory tree holding source documents.
	DataDir string `validate:"required"`

	// IndexDir is the directory the vector index is persisted to.
	IndexDir string `validate:"required"`
}

// DocumentSettings controls document loading.
type DocumentSettings struct {
	// Extensions lists the recognised file extensions, including the dot.
	Extensions []string `validate:"min=1,dive,startswith=."`

	// OnDecodeError selects the decode failure policy.
	OnDecodeError DecodePolicy `validate:"oneof=abort skip"`
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider `validate:"embedding_provider"`

	// Model is the embedding model name.
	Model string `validate:"required"`

	// BaseURL overrides the API endpoint.
	BaseURL string

	// APIKey is the resolved credential.
	APIKey string

	// Timeout bounds each request.
	Timeout time.Duration `validate:"gte=0"`

	// BatchSize is the number of texts sent per embedding request.
	BatchSize int `validate:"gte=0"`

	// RequestsPerSecond limits embedding requests, zero means unlimited.
	RequestsPerSecond float64 `validate:"gte=0"`
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.SupportsEmbedding() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds generation provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider `validate:"ai_provider"`

	// Model is the LLM model name.
	Model string `validate:"required"`

	// BaseURL overrides the API endpoint.
	BaseURL string

	// APIKey is the resolved credential.
	APIKey string

	// Timeout bounds each request.
	Timeout time.Duration `validate:"gte=0"`

	// MaxTokens caps the generated answer, zero leaves the provider default.
	MaxTokens int `validate:"gte=0"`

	// Temperature controls randomness.
	Temperature float64 `validate:"gte=0,lte=2"`
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// MemorySettings caps conversation memory. Zero values mean unbounded.
type MemorySettings struct {
	// MaxTurns keeps only the newest turns.
	MaxTurns int `validate:"gte=0"`

	// MaxTokens drops the oldest turns until the rendered history fits.
	MaxTokens int `validate:"gte=0"`
}

// AppSettings holds all application settings.
type AppSettings struct {
	Chunking  ChunkSettings
	Retrieval RetrievalSettings
	Storage   StorageSettings
	Documents DocumentSettings
	Embedding EmbeddingSettings
	LLM       LLMSettings
	Memory    MemorySettings
}

// Default setting values.
const (
	DefaultChunkSize      = 500
	DefaultChunkOverlap   = 50
	DefaultRetrievalK     = 4
	DefaultDataDir        = "./data"
	DefaultIndexDir       = "./vector_stores"
	DefaultEmbedBatchSize = 16
)

// DefaultAppSettings returns settings with sensible defaults.
// Providers default to DashScope, whose credential comes from DASHSCOPE_API_KEY.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Chunking: ChunkSettings{
			ChunkSize: DefaultChunkSize,
			Overlap:   DefaultChunkOverlap,
		},
		Retrieval: RetrievalSettings{K: DefaultRetrievalK},
		Storage: StorageSettings{
			DataDir:  DefaultDataDir,
			IndexDir: DefaultIndexDir,
		},
		Documents: DocumentSettings{
			Extensions:    []string{".txt"},
			OnDecodeError: DecodePolicyAbort,
		},
		Embedding: EmbeddingSettings{
			Provider:  AIProviderDashScope,
			Model:     DefaultEmbeddingModels()[AIProviderDashScope],
			BatchSize: DefaultEmbedBatchSize,
		},
		LLM: LLMSettings{
			Provider: AIProviderDashScope,
			Model:    DefaultLLMModels()[AIProviderDashScope],
		},
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderDashScope,
		AIProviderGemini,
	}
}

// AllLLMProviders returns providers that support generation.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderDashScope,
		AIProviderAnthropic,
		AIProviderGemini,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "nomic-embed-text",
		AIProviderOpenAI:    "text-embedding-3-small",
		AIProviderDashScope: "text-embedding-v2",
		AIProviderGemini:    "text-embedding-004",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderDashScope: "qwen-max",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
		AIProviderGemini:    "gemini-1.5-flash",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
		// DashScope models
		"text-embedding-v1": 1536,
		"text-embedding-v2": 1536,
		"text-embedding-v3": 1024,
		// Gemini models
		"text-embedding-004": 768,
	}
}

// PipelineConfig holds post-processor pipeline configuration.
// Uses generic map-based config so new processors can be added
// without modifying this struct.
type PipelineConfig struct {
	// Processors is the ordered list of processor names to run.
	Processors []string

	// ProcessorConfigs holds per-processor configuration as generic maps.
	ProcessorConfigs map[string]map[string]any
}

// GetProcessorConfig returns config for a specific processor, or nil if not set.
func (c *PipelineConfig) GetProcessorConfig(name string) map[string]any {
	if c.ProcessorConfigs == nil {
		return nil
	}
	return c.ProcessorConfigs[name]
}

// PipelineConfigFor returns the default pipeline with the given chunk settings.
func PipelineConfigFor(chunking ChunkSettings) PipelineConfig {
	return PipelineConfig{
		Processors: []string{"chunker"},
		ProcessorConfigs: map[string]map[string]any{
			"chunker": {
				"chunk_size": chunking.ChunkSize,
				"overlap":    chunking.Overlap,
			},
		},
	}
}
