package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driving"
)

var watchDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Keep the index in sync with the data directory",
	Long: `Watches the data directory and re-indexes documents as they are created,
modified or deleted. Changes arriving close together are applied in one
batch and the index is saved after each batch.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 500*time.Millisecond, "delay before applying a batch of changes")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	chat, closeFn, err := openChat(cmd, false)
	if err != nil {
		return err
	}
	defer closeFn()

	settings, err := settingsService.Get()
	if err != nil {
		return err
	}
	watcher, err := backend.Watcher(settings)
	if err != nil {
		return err
	}
	defer watcher.Close()

	ctx := cmd.Context()
	changes, err := watcher.Watch(ctx)
	if err != nil {
		return err
	}

	cmd.Printf("Watching %s (%d chunks indexed). Press Ctrl+C to stop.\n",
		settings.Storage.DataDir, chat.Stats().Chunks)
	return watchLoop(ctx, cmd, chat, changes, watchDebounce)
}

// watchLoop batches changes until the stream is quiet for debounce, then
// ingests the batch. Per-file failures are reported and watching continues.
func watchLoop(
	ctx context.Context,
	cmd *cobra.Command,
	chat driving.ChatService,
	changes <-chan domain.FileChange,
	debounce time.Duration,
) error {
	var (
		pending []domain.FileChange
		fire    <-chan time.Time
	)

	flush := func() error {
		if len(pending) == 0 {
			return nil
		}
		batch := pending
		pending = nil

		result, err := chat.Ingest(ctx, batch)
		if err != nil {
			if errorsIsAny(err, domain.ErrDocumentLoad, domain.ErrEmbedding, domain.ErrInvalidInput) {
				cmd.PrintErrf("Error: %v\n", err)
				return nil
			}
			return err
		}
		if result.Added > 0 || result.Removed > 0 {
			cmd.Printf("Indexed %d documents: %d chunks added, %d removed\n",
				result.Documents, result.Added, result.Removed)
		}
		for _, path := range result.Failed {
			cmd.PrintErrf("Skipped %s: could not be loaded\n", path)
		}
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case change, ok := <-changes:
			if !ok {
				return flush()
			}
			pending = append(pending, change)
			fire = time.After(debounce)
		case <-fire:
			fire = nil
			if err := flush(); err != nil {
				return err
			}
		}
	}
}
