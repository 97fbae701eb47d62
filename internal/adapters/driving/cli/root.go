// Package cli implements the ragchat command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat/internal/core/ports/driving"
	"github.com/custodia-labs/ragchat/internal/logger"
)

// Backend builds the services commands run against.
type Backend interface {
	// Settings opens the settings service backed by the config file at
	// path, or the default location when path is empty. It also returns
	// the resolved config file path.
	Settings(path string) (driving.SettingsService, string, error)

	// Chat creates the AI clients and bootstraps the index. With rebuild
	// set, any persisted index is ignored and rebuilt from the data
	// directory. The returned function releases the clients.
	Chat(ctx context.Context, settings *domain.AppSettings, rebuild bool) (driving.ChatService, func(), error)

	// Watcher reports document changes under the data directory.
	Watcher(settings *domain.AppSettings) (driven.SourceWatcher, error)
}

// Setting keys the global flags override.
const (
	keyDataDir  = "storage.data_dir"
	keyIndexDir = "storage.index_dir"
	keyTopK     = "retrieval.k"
)

var (
	version = "dev"

	backend         Backend
	settingsService driving.SettingsService
	configFile      string

	verbose    bool
	configPath string
	dataDir    string
	indexDir   string
	topK       int
)

var rootCmd = &cobra.Command{
	Use:   "ragchat",
	Short: "Chat with your documents",
	Long: `ragchat answers questions about a directory of text documents.

Documents are split into overlapping chunks, embedded and stored in a local
vector index. Each question retrieves the closest chunks and passes them,
with the conversation so far, to a language model.

Run without a command to start an interactive chat.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	RunE:              runChat,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&verbose, "verbose", "v", false, "print pipeline stages and timings to stderr")
	flags.StringVar(&configPath, "config", "", "config file (default ~/.ragchat/config.toml)")
	flags.StringVar(&dataDir, "data-dir", "", "directory of source documents")
	flags.StringVar(&indexDir, "index-dir", "", "directory the vector index is stored in")
	flags.IntVarP(&topK, "top-k", "k", 0, "number of chunks retrieved per question")
}

// SetBackend sets the service builder used by commands.
func SetBackend(b Backend) {
	backend = b
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// setup opens settings and applies flag overrides before any command runs.
func setup(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	logger.SetOutput(cmd.ErrOrStderr())

	if backend == nil {
		return nil
	}

	svc, path, err := backend.Settings(configPath)
	if err != nil {
		return fmt.Errorf("opening settings: %w", err)
	}
	settingsService = svc
	configFile = path

	overrides := []struct {
		flag  string
		key   string
		value any
	}{
		{"data-dir", keyDataDir, dataDir},
		{"index-dir", keyIndexDir, indexDir},
		{"top-k", keyTopK, topK},
	}
	for _, o := range overrides {
		if !cmd.Flags().Changed(o.flag) {
			continue
		}
		if err := settingsService.Override(o.key, o.value); err != nil {
			return fmt.Errorf("--%s: %w", o.flag, err)
		}
	}
	return nil
}

// openChat resolves settings and bootstraps a chat service. Missing
// credentials fail here, before any index work starts.
func openChat(cmd *cobra.Command, rebuild bool) (driving.ChatService, func(), error) {
	if backend == nil || settingsService == nil {
		return nil, nil, errors.New("chat service not configured")
	}
	if err := settingsService.Validate(); err != nil {
		return nil, nil, err
	}
	settings, err := settingsService.Get()
	if err != nil {
		return nil, nil, err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	chat, closeFn, err := backend.Chat(ctx, settings, rebuild)
	if err != nil {
		return nil, nil, err
	}
	if closeFn == nil {
		closeFn = func() {}
	}
	return chat, closeFn, nil
}
