package cli

import (
	"github.com/spf13/cobra"
)

var indexRebuild bool

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Load or build the vector index",
	Long: `Loads the vector index from the index directory, building it from the
data directory when none exists.

With --rebuild the persisted index is ignored and a new one is built from
the data directory. The file on disk is replaced only once the new index
has been saved.`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().BoolVar(&indexRebuild, "rebuild", false, "rebuild the index from the data directory")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, _ []string) error {
	chat, closeFn, err := openChat(cmd, indexRebuild)
	if err != nil {
		return err
	}
	defer closeFn()

	stats := chat.Stats()
	cmd.Printf("Index %s: %d chunks", stats.State, stats.Chunks)
	if stats.Dimensions > 0 {
		cmd.Printf(", %d dimensions", stats.Dimensions)
	}
	if stats.Model != "" {
		cmd.Printf(", model %s", stats.Model)
	}
	cmd.Printf("\nPath: %s\n", stats.Path)
	return nil
}
