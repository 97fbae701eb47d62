package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	openaiembed "github.com/custodia-labs/ragchat/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/ragchat/internal/core/domain"
)

func TestInitResult_Close(t *testing.T) {
	result := &InitResult{}
	// Should not panic
	result.Close()
}

func TestCreateEmbeddingService(t *testing.T) {
	tests := []struct {
		name     string
		settings *domain.EmbeddingSettings
		wantNil  bool
		wantErr  bool
	}{
		{name: "nil settings returns nil", settings: nil, wantNil: true},
		{name: "unconfigured settings returns nil", settings: &domain.EmbeddingSettings{}, wantNil: true},
		{
			name:     "ollama provider creates service",
			settings: &domain.EmbeddingSettings{Provider: domain.AIProviderOllama, Model: "nomic-embed-text"},
		},
		{
			name:     "openai provider creates service",
			settings: &domain.EmbeddingSettings{Provider: domain.AIProviderOpenAI, APIKey: "k", Model: "text-embedding-3-small"},
		},
		{
			name:     "dashscope provider creates service",
			settings: &domain.EmbeddingSettings{Provider: domain.AIProviderDashScope, APIKey: "k", Model: "text-embedding-v2"},
		},
		{
			name:     "gemini provider creates service",
			settings: &domain.EmbeddingSettings{Provider: domain.AIProviderGemini, APIKey: "k"},
		},
		{
			name:     "openai without key is not configured",
			settings: &domain.EmbeddingSettings{Provider: domain.AIProviderOpenAI},
			wantNil:  true,
		},
		{
			name:     "anthropic provider returns error",
			settings: &domain.EmbeddingSettings{Provider: domain.AIProviderAnthropic, APIKey: "k"},
			wantNil:  true,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateEmbeddingService(context.Background(), tt.settings)
			if svc != nil {
				defer svc.Close()
			}

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantNil, svc == nil)
		})
	}
}

func TestCreateLLMService(t *testing.T) {
	tests := []struct {
		name     string
		settings *domain.LLMSettings
		wantNil  bool
	}{
		{name: "nil settings returns nil", settings: nil, wantNil: true},
		{name: "unconfigured settings returns nil", settings: &domain.LLMSettings{}, wantNil: true},
		{name: "unknown provider returns nil", settings: &domain.LLMSettings{Provider: "unknown", APIKey: "k"}, wantNil: true},
		{name: "ollama", settings: &domain.LLMSettings{Provider: domain.AIProviderOllama}},
		{name: "openai", settings: &domain.LLMSettings{Provider: domain.AIProviderOpenAI, APIKey: "k"}},
		{name: "dashscope", settings: &domain.LLMSettings{Provider: domain.AIProviderDashScope, APIKey: "k", Model: "qwen-turbo"}},
		{name: "anthropic", settings: &domain.LLMSettings{Provider: domain.AIProviderAnthropic, APIKey: "k"}},
		{name: "gemini", settings: &domain.LLMSettings{Provider: domain.AIProviderGemini, APIKey: "k"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateLLMService(context.Background(), tt.settings)
			require.NoError(t, err)
			if svc != nil {
				defer svc.Close()
			}
			assert.Equal(t, tt.wantNil, svc == nil)
		})
	}
}

func TestBaseURL(t *testing.T) {
	assert.Equal(t, domain.DashScopeBaseURL, baseURL(domain.AIProviderDashScope, ""))
	assert.Equal(t, "http://proxy", baseURL(domain.AIProviderDashScope, "http://proxy"))
	assert.Equal(t, "", baseURL(domain.AIProviderOpenAI, ""))
}

func TestCreateOpenAIEmbedding_KnownDimensions(t *testing.T) {
	svc, err := createOpenAIEmbedding(&domain.EmbeddingSettings{
		Provider: domain.AIProviderDashScope,
		APIKey:   "k",
		Model:    "text-embedding-v2",
	})
	require.NoError(t, err)

	embed, ok := svc.(*openaiembed.EmbeddingService)
	require.True(t, ok)
	assert.Equal(t, 1536, embed.Dimensions())
}

func TestInit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"models":[]}`))
	}))
	defer srv.Close()

	t.Run("creates and pings both services", func(t *testing.T) {
		settings := domain.DefaultAppSettings()
		settings.Embedding = domain.EmbeddingSettings{Provider: domain.AIProviderOllama, BaseURL: srv.URL}
		settings.LLM = domain.LLMSettings{Provider: domain.AIProviderOllama, BaseURL: srv.URL}

		result, err := Init(context.Background(), &settings, true)
		require.NoError(t, err)
		defer result.Close()

		assert.NotNil(t, result.EmbeddingService)
		assert.NotNil(t, result.LLMService)
	})

	t.Run("unconfigured embedding provider", func(t *testing.T) {
		settings := domain.DefaultAppSettings()
		settings.Embedding.APIKey = ""

		_, err := Init(context.Background(), &settings, false)
		assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	})

	t.Run("unconfigured LLM provider", func(t *testing.T) {
		settings := domain.DefaultAppSettings()
		settings.Embedding = domain.EmbeddingSettings{Provider: domain.AIProviderOllama, BaseURL: srv.URL}
		settings.LLM.APIKey = ""

		_, err := Init(context.Background(), &settings, false)
		assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
	})

	t.Run("unreachable provider fails ping", func(t *testing.T) {
		dead := httptest.NewServer(http.NotFoundHandler())
		url := dead.URL
		dead.Close()

		settings := domain.DefaultAppSettings()
		settings.Embedding = domain.EmbeddingSettings{Provider: domain.AIProviderOllama, BaseURL: url}
		settings.LLM = domain.LLMSettings{Provider: domain.AIProviderOllama, BaseURL: url}

		_, err := Init(context.Background(), &settings, true)
		assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	})
}
