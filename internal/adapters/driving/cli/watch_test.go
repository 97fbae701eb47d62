package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// syncBuffer guards a buffer written by the watch loop and read by the test.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestWatchCmd_Flags(t *testing.T) {
	f := watchCmd.Flags().Lookup("debounce")
	require.NotNil(t, f)
	assert.Equal(t, "500ms", f.DefValue)
}

func TestWatchLoop_BatchesChanges(t *testing.T) {
	chat := &MockChatService{}
	changes := make(chan domain.FileChange, 3)
	changes <- domain.FileChange{Type: domain.ChangeCreated, Path: "/d/a.txt"}
	changes <- domain.FileChange{Type: domain.ChangeUpdated, Path: "/d/a.txt"}
	changes <- domain.FileChange{Type: domain.ChangeDeleted, Path: "/d/b.txt"}
	close(changes)

	out := new(bytes.Buffer)
	watchCmd.SetOut(out)
	defer watchCmd.SetOut(nil)

	err := watchLoop(context.Background(), watchCmd, chat, changes, time.Hour)

	require.NoError(t, err)
	batches := chat.Ingested()
	require.Len(t, batches, 1)
	assert.Len(t, batches[0], 3)
	assert.Contains(t, out.String(), "Indexed 3 documents: 3 chunks added, 0 removed")
}

func TestWatchLoop_FlushesAfterDebounce(t *testing.T) {
	chat := &MockChatService{}
	changes := make(chan domain.FileChange)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := &syncBuffer{}
	watchCmd.SetOut(out)
	defer watchCmd.SetOut(nil)

	done := make(chan error, 1)
	go func() { done <- watchLoop(ctx, watchCmd, chat, changes, 10*time.Millisecond) }()

	changes <- domain.FileChange{Type: domain.ChangeCreated, Path: "/d/a.txt"}
	assert.Eventually(t, func() bool { return len(chat.Ingested()) == 1 }, time.Second, 5*time.Millisecond)

	changes <- domain.FileChange{Type: domain.ChangeUpdated, Path: "/d/a.txt"}
	assert.Eventually(t, func() bool { return len(chat.Ingested()) == 2 }, time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestWatchLoop_SkipsQuietBatches(t *testing.T) {
	chat := &MockChatService{IngestFunc: func(context.Context, []domain.FileChange) (*domain.IngestResult, error) {
		return &domain.IngestResult{}, nil
	}}
	changes := make(chan domain.FileChange, 1)
	changes <- domain.FileChange{Type: domain.ChangeUpdated, Path: "/d/a.txt"}
	close(changes)

	out := new(bytes.Buffer)
	watchCmd.SetOut(out)
	defer watchCmd.SetOut(nil)

	require.NoError(t, watchLoop(context.Background(), watchCmd, chat, changes, time.Hour))
	assert.Empty(t, out.String())
}

func TestWatchLoop_ReportsFailedFiles(t *testing.T) {
	chat := &MockChatService{IngestFunc: func(context.Context, []domain.FileChange) (*domain.IngestResult, error) {
		return &domain.IngestResult{Documents: 1, Added: 2, Failed: []string{"/d/bad.txt"}}, nil
	}}
	changes := make(chan domain.FileChange, 2)
	changes <- domain.FileChange{Type: domain.ChangeCreated, Path: "/d/good.txt"}
	changes <- domain.FileChange{Type: domain.ChangeCreated, Path: "/d/bad.txt"}
	close(changes)

	out, errOut := new(bytes.Buffer), new(bytes.Buffer)
	watchCmd.SetOut(out)
	watchCmd.SetErr(errOut)
	defer watchCmd.SetOut(nil)
	defer watchCmd.SetErr(nil)

	require.NoError(t, watchLoop(context.Background(), watchCmd, chat, changes, time.Hour))
	assert.Contains(t, out.String(), "Indexed 1 documents: 2 chunks added, 0 removed")
	assert.Contains(t, errOut.String(), "Skipped /d/bad.txt: could not be loaded")
}

func TestWatchLoop_RecoverableErrors(t *testing.T) {
	for _, target := range []error{domain.ErrDocumentLoad, domain.ErrEmbedding, domain.ErrInvalidInput} {
		t.Run(target.Error(), func(t *testing.T) {
			chat := &MockChatService{IngestFunc: func(context.Context, []domain.FileChange) (*domain.IngestResult, error) {
				return nil, fmt.Errorf("ingest: %w", target)
			}}
			changes := make(chan domain.FileChange, 1)
			changes <- domain.FileChange{Type: domain.ChangeCreated, Path: "/d/bad.txt"}
			close(changes)

			errOut := new(bytes.Buffer)
			watchCmd.SetErr(errOut)
			defer watchCmd.SetErr(nil)

			err := watchLoop(context.Background(), watchCmd, chat, changes, time.Hour)

			require.NoError(t, err)
			assert.Contains(t, errOut.String(), "Error: ingest: ")
		})
	}
}

func TestWatchLoop_FatalError(t *testing.T) {
	diskFull := errors.New("disk full")
	chat := &MockChatService{IngestFunc: func(context.Context, []domain.FileChange) (*domain.IngestResult, error) {
		return nil, diskFull
	}}
	changes := make(chan domain.FileChange, 1)
	changes <- domain.FileChange{Type: domain.ChangeCreated, Path: "/d/a.txt"}
	close(changes)

	err := watchLoop(context.Background(), watchCmd, chat, changes, time.Hour)

	assert.ErrorIs(t, err, diskFull)
}

func TestWatchLoop_CancelledBeforeFlush(t *testing.T) {
	chat := &MockChatService{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := watchLoop(ctx, watchCmd, chat, make(chan domain.FileChange), time.Hour)

	require.NoError(t, err)
	assert.Empty(t, chat.Ingested())
}

func TestWatchCmd_Run(t *testing.T) {
	b, cleanup := setupTestServices()
	defer cleanup()
	b.ChatSvc.StatsValue = domain.IndexStats{Chunks: 5}
	b.WatcherImpl.Changes <- domain.FileChange{Type: domain.ChangeCreated, Path: "/d/new.txt"}
	close(b.WatcherImpl.Changes)

	out, _, err := executeCommand("", "watch", "--debounce", "1h")

	require.NoError(t, err)
	assert.Contains(t, out, "(5 chunks indexed)")
	assert.Contains(t, out, "Indexed 1 documents")
	assert.True(t, b.WatcherImpl.closed)
	assert.Len(t, b.ChatSvc.Ingested(), 1)
}
