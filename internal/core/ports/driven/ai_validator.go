package driven

import "github.com/custodia-labs/ragchat/internal/core/domain"

// AIConfigValidator validates AI provider configurations by testing connectivity.
type AIConfigValidator interface {
	// ValidateEmbedding pings the configured embedding provider.
	ValidateEmbedding(config *domain.EmbeddingSettings) error

	// ValidateLLM pings the configured LLM provider.
	ValidateLLM(config *domain.LLMSettings) error
}
