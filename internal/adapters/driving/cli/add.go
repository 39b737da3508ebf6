package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bookwyrm-labs/bookwyrm-cli/internal/logger"
)

var (
	addTitle   string
	addAuthor  string
	addAnalyze bool
)

var addCmd = &cobra.Command{
	Use:   "add [path]",
	Short: "Ingest a book from a directory of chapter files",
	Long: `Reads ordered chapter files (.txt or .md) from a directory and
registers them as a new book. Files are ordered by name, so a numeric
prefix like 01_arrival.txt fixes the chapter sequence.

Pass --analyze to immediately run the analysis pass on the new book.`,
	Args: cobra.ExactArgs(1),
	RunE: runAdd,
}

func init() {
	addCmd.Flags().StringVar(&addTitle, "title", "", "book title (default: derived from the directory name)")
	addCmd.Flags().StringVar(&addAuthor, "author", "", "book author")
	addCmd.Flags().BoolVar(&addAnalyze, "analyze", false, "run the analysis pass after ingesting")
	rootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	if libraryService == nil {
		return errors.New("library service not configured")
	}

	ctx := context.Background()

	input, err := bookLoader.Load(ctx, args[0])
	if err != nil {
		return fmt.Errorf("load book: %w", err)
	}
	if addTitle != "" {
		input.Title = addTitle
	}
	if addAuthor != "" {
		input.Author = addAuthor
	}

	book, err := libraryService.AddBook(ctx, input)
	if err != nil {
		return fmt.Errorf("add book: %w", err)
	}

	cmd.Printf("Added %q (%d chapters)\n", book.Title, len(input.Chapters))
	cmd.Printf("ID: %s\n", book.ID)

	if !addAnalyze {
		cmd.Printf("\nRun 'bookwyrm analyze %s' to build its summary, roster and events.\n", book.ID)
		return nil
	}

	logger.Section("Analysis")
	if analysisService == nil {
		return errors.New("analysis service not configured")
	}
	if err := analysisService.Analyze(ctx, book.ID); err != nil {
		return fmt.Errorf("analyze book: %w", err)
	}
	cmd.Println("Analysis complete.")
	return nil
}
