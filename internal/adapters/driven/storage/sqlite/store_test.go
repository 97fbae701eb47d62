package sqlite

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
)

func testSnapshot() *driven.IndexSnapshot {
	return &driven.IndexSnapshot{
		Dimensions: 3,
		Model:      "test-embed",
		Chunks: []domain.Chunk{
			{
				ID: "c1", DocumentID: "d1", Source: "/data/a.txt", Content: "alpha",
				Position: 0, Start: 0, End: 5, Overlap: 0,
				Embedding: []float32{0.1, 0.2, 0.3},
				Metadata:  map[string]any{"source": "/data/a.txt", "title": "a.txt"},
			},
			{
				ID: "c2", DocumentID: "d1", Source: "/data/a.txt", Content: "phabet",
				Position: 1, Start: 2, End: 8, Overlap: 3,
				Embedding: []float32{-1, 0, 1.5},
			},
			{
				ID: "c0", DocumentID: "d2", Source: "/data/b.txt", Content: "知识",
				Position: 0, Start: 0, End: 2,
				Embedding: []float32{3.25, -0.5, 0},
			},
		},
	}
}

func TestIndexStore_ImplementsInterface(t *testing.T) {
	var _ driven.IndexStore = (*IndexStore)(nil)
}

func TestIndexStore_SaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := NewIndexStore()
	ctx := context.Background()
	snap := testSnapshot()

	require.NoError(t, store.Save(ctx, dir, snap))
	assert.True(t, store.Exists(dir))

	loaded, err := store.Load(ctx, dir)
	require.NoError(t, err)

	assert.Equal(t, 3, loaded.Dimensions)
	assert.Equal(t, "test-embed", loaded.Model)
	require.Len(t, loaded.Chunks, 3)
	for i := range snap.Chunks {
		want, got := snap.Chunks[i], loaded.Chunks[i]
		assert.Equal(t, want.ID, got.ID, "insertion order must be preserved")
		assert.Equal(t, want.DocumentID, got.DocumentID)
		assert.Equal(t, want.Source, got.Source)
		assert.Equal(t, want.Content, got.Content)
		assert.Equal(t, want.Position, got.Position)
		assert.Equal(t, want.Start, got.Start)
		assert.Equal(t, want.End, got.End)
		assert.Equal(t, want.Overlap, got.Overlap)
		assert.Equal(t, want.Embedding, got.Embedding)
	}
	assert.Equal(t, "a.txt", loaded.Chunks[0].Metadata["title"])
}

func TestIndexStore_EmptySnapshot(t *testing.T) {
	dir := t.TempDir()
	store := NewIndexStore()

	require.NoError(t, store.Save(context.Background(), dir, &driven.IndexSnapshot{}))

	loaded, err := store.Load(context.Background(), dir)
	require.NoError(t, err)
	assert.Empty(t, loaded.Chunks)
	assert.Zero(t, loaded.Dimensions)
}

func TestIndexStore_LoadMissing(t *testing.T) {
	store := NewIndexStore()
	dir := filepath.Join(t.TempDir(), "nope")

	_, err := store.Load(context.Background(), dir)

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.False(t, store.Exists(dir))
}

func TestIndexStore_LoadGarbageIsCorrupt(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(Path(dir), []byte("definitely not a database file, just some text"), 0600))

	_, err := NewIndexStore().Load(context.Background(), dir)

	assert.ErrorIs(t, err, domain.ErrCorruptIndex)
}

func TestIndexStore_LoadMissingSchemaIsCorrupt(t *testing.T) {
	dir := t.TempDir()
	db, err := sql.Open("sqlite", Path(dir))
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE unrelated (x INTEGER)`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = NewIndexStore().Load(context.Background(), dir)

	assert.ErrorIs(t, err, domain.ErrCorruptIndex)
}

func TestIndexStore_LoadTruncatedVectorIsCorrupt(t *testing.T) {
	dir := t.TempDir()
	store := NewIndexStore()
	require.NoError(t, store.Save(context.Background(), dir, testSnapshot()))

	db, err := sql.Open("sqlite", Path(dir))
	require.NoError(t, err)
	_, err = db.Exec(`UPDATE chunks SET embedding = X'0000' WHERE id = 'c2'`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = store.Load(context.Background(), dir)

	assert.ErrorIs(t, err, domain.ErrCorruptIndex)
}

func TestIndexStore_SaveReplacesPreviousSnapshot(t *testing.T) {
	dir := t.TempDir()
	store := NewIndexStore()
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, dir, testSnapshot()))

	smaller := testSnapshot()
	smaller.Chunks = smaller.Chunks[:1]
	require.NoError(t, store.Save(ctx, dir, smaller))

	loaded, err := store.Load(ctx, dir)
	require.NoError(t, err)
	assert.Len(t, loaded.Chunks, 1)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestIndexStore_FailedSaveKeepsPreviousSnapshot(t *testing.T) {
	dir := t.TempDir()
	store := NewIndexStore()
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, dir, testSnapshot()))

	bad := testSnapshot()
	bad.Chunks[1].Embedding = []float32{1}
	err := store.Save(ctx, dir, bad)
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	loaded, err := store.Load(ctx, dir)
	require.NoError(t, err)
	assert.Len(t, loaded.Chunks, 3)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestIndexStore_SaveNil(t *testing.T) {
	err := NewIndexStore().Save(context.Background(), t.TempDir(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestFloat32Codec(t *testing.T) {
	in := []float32{0, 1.5, -2.25, 3.4028235e38}

	assert.Equal(t, in, bytesToFloat32Slice(float32SliceToBytes(in)))
	assert.Nil(t, bytesToFloat32Slice(nil))
	assert.Empty(t, float32SliceToBytes(nil))
}
