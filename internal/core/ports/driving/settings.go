package driving

import "github.com/custodia-labs/ragchat/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get returns the effective settings: defaults, then the config file,
	// then overrides. Credentials are filled from the environment when not
	// configured. Invalid values fail with domain.ErrConfiguration.
	Get() (*domain.AppSettings, error)

	// Save persists application settings.
	Save(settings *domain.AppSettings) error

	// Set parses raw for a known key and persists it.
	Set(key, raw string) error

	// Lookup returns the effective value of a known key as text.
	Lookup(key string) (string, error)

	// Keys returns every known setting key.
	Keys() []string

	// Override sets a value for this process only, taking precedence over the config file.
	Override(key string, value any) error

	// SetEmbeddingProvider configures the embedding provider.
	SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error

	// SetLLMProvider configures the LLM provider.
	SetLLMProvider(provider domain.AIProvider, model, apiKey string) error

	// Validate checks settings and fails with domain.ErrMissingCredential
	// when a remote provider has no credential.
	Validate() error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings

	// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
	ValidateEmbeddingConfig() error

	// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
	ValidateLLMConfig() error
}
