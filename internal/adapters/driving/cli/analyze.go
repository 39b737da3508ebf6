package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [book-id]",
	Short: "Run the analysis pass for a book",
	Long: `Runs every analysis stage for the book in order: the running
chapter-by-chapter summary, the character roster, event segmentation,
the relationship graph, metadata inference and retrieval indexing.

Requires a configured LLM provider; indexing additionally requires an
embedding provider. Run 'bookwyrm settings' to configure them.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if analysisService == nil {
		return errors.New("analysis service not configured")
	}

	if err := analysisService.Analyze(context.Background(), args[0]); err != nil {
		return fmt.Errorf("analyze book: %w", err)
	}

	cmd.Println("Analysis complete.")
	return nil
}
