package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

func TestBackend_SettingsAtPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	svc, resolved, err := (&backend{}).Settings(path)
	require.NoError(t, err)
	assert.Equal(t, path, resolved)

	settings, err := svc.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultRetrievalK, settings.Retrieval.K)
}

func TestBackend_Watcher(t *testing.T) {
	s := domain.DefaultAppSettings()
	s.Storage.DataDir = t.TempDir()

	w, err := (&backend{}).Watcher(&s)
	require.NoError(t, err)
	require.NotNil(t, w)
	assert.NoError(t, w.Close())
}

func TestBackend_ChatUnknownProvider(t *testing.T) {
	s := domain.DefaultAppSettings()
	s.Embedding.Provider = "nope"

	_, _, err := (&backend{}).Chat(t.Context(), &s, false)
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}
