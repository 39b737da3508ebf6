package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bookwyrm-labs/bookwyrm-cli/internal/logger"
)

var askCmd = &cobra.Command{
	Use:   "ask [book-id] [question]",
	Short: "Ask a question about a book",
	Long: `Answers a natural-language question about the book using hybrid
retrieval (semantic and keyword) over its indexed text. Each question
is independent; no conversation state is kept between calls.`,
	Args: cobra.ExactArgs(2),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if queryService == nil {
		return errors.New("query service not configured")
	}

	ctx := context.Background()

	// The vector index lives in process memory, so each invocation
	// rebuilds the book's index before retrieving.
	if indexerService != nil {
		logger.Debug("indexing book %s for retrieval", args[0])
		if err := indexerService.IndexBook(ctx, args[0]); err != nil {
			return fmt.Errorf("index book: %w", err)
		}
	}

	answer, err := queryService.Ask(ctx, args[0], args[1])
	if err != nil {
		return fmt.Errorf("ask: %w", err)
	}

	cmd.Println(answer.Text)

	if verbose && len(answer.Sources) > 0 {
		cmd.Println("\nSources:")
		for _, src := range answer.Sources {
			cmd.Printf("  chapter %d (%s, %.3f)\n", src.Chunk.ChapterNumber, src.Origin, src.Score)
		}
	}
	return nil
}
