package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driving"
)

// REPL commands.
const (
	cmdExit  = "exit"
	cmdQuit  = "quit"
	cmdReset = "reset"
)

var askJSON bool

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat",
	Long: `Start an interactive question and answer session over your documents.

The index is loaded from the index directory, or built from the data
directory when none exists yet.

Commands:
  reset        - forget the conversation so far
  exit, quit   - leave the chat`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a single question",
	Long: `Answer one question from the indexed documents and exit.
All arguments are joined to form the question.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(askCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	chat, closeFn, err := openChat(cmd, false)
	if err != nil {
		return err
	}
	defer closeFn()

	in := cmd.InOrStdin()
	interactive := isTerminal(in)
	if interactive {
		stats := chat.Stats()
		cmd.Printf("Loaded %d chunks from %s. Type %q to leave, %q to start over.\n\n",
			stats.Chunks, stats.Path, cmdExit, cmdReset)
	}
	return repl(cmd.Context(), cmd, chat, in, interactive)
}

// repl reads questions line by line until EOF or an exit command.
// Failed questions are reported and the loop continues.
func repl(ctx context.Context, cmd *cobra.Command, chat driving.ChatService, in io.Reader, prompt bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		if prompt {
			cmd.Print("> ")
		}
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())

		switch strings.ToLower(line) {
		case "":
			continue
		case cmdExit, cmdQuit:
			return nil
		case cmdReset:
			chat.Reset()
			cmd.Println("Conversation cleared.")
			continue
		}

		answer, err := chat.Ask(ctx, line)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			cmd.PrintErrf("Error: %v\n", err)
			continue
		}
		printAnswer(cmd, answer)
	}
	return scanner.Err()
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := strings.Join(args, " ")
	if strings.TrimSpace(question) == "" {
		return fmt.Errorf("ask: %w", domain.ErrInvalidQuery)
	}

	chat, closeFn, err := openChat(cmd, false)
	if err != nil {
		return err
	}
	defer closeFn()

	answer, err := chat.Ask(cmd.Context(), question)
	if err != nil {
		return err
	}

	if askJSON {
		return outputJSON(cmd, answerJSON{
			Answer:  answer.Text,
			Sources: toSourceJSON(answer.Sources),
		})
	}
	printAnswer(cmd, answer)
	return nil
}

func printAnswer(cmd *cobra.Command, answer *domain.Answer) {
	cmd.Println(answer.Text)
	if len(answer.Sources) == 0 {
		cmd.Println()
		return
	}
	cmd.Println()
	cmd.Println("Sources:")
	for i, s := range answer.Sources {
		cmd.Printf("  [%d] %s #%d (%.4f)\n", i+1, s.Chunk.Source, s.Chunk.Position, s.Score)
	}
	cmd.Println()
}

type answerJSON struct {
	Answer  string       `json:"answer"`
	Sources []sourceJSON `json:"sources"`
}

type sourceJSON struct {
	Source   string  `json:"source"`
	Position int     `json:"position"`
	Distance float64 `json:"distance"`
	Content  string  `json:"content"`
}

func toSourceJSON(results []domain.RetrievalResult) []sourceJSON {
	out := make([]sourceJSON, len(results))
	for i, r := range results {
		out[i] = sourceJSON{
			Source:   r.Chunk.Source,
			Position: r.Chunk.Position,
			Distance: r.Score,
			Content:  r.Chunk.Content,
		}
	}
	return out
}

func outputJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

// isTerminal reports whether r is an interactive terminal.
func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// errorsIsAny reports whether err matches any of targets.
func errorsIsAny(err error, targets ...error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}
