package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bookwyrm-labs/bookwyrm-cli/internal/core/domain"
)

var booksJSON bool

var booksCmd = &cobra.Command{
	Use:   "books",
	Short: "List books in the library",
	Args:  cobra.NoArgs,
	RunE:  runBooks,
}

var bookCmd = &cobra.Command{
	Use:   "book",
	Short: "Inspect or remove one book",
}

var bookShowCmd = &cobra.Command{
	Use:   "show [book-id]",
	Short: "Show a book's details and inferred metadata",
	Args:  cobra.ExactArgs(1),
	RunE:  runBookShow,
}

var bookDeleteCmd = &cobra.Command{
	Use:   "delete [book-id]",
	Short: "Delete a book and everything derived from it",
	Args:  cobra.ExactArgs(1),
	RunE:  runBookDelete,
}

var bookCharactersCmd = &cobra.Command{
	Use:   "characters [book-id]",
	Short: "List a book's finalized character roster",
	Args:  cobra.ExactArgs(1),
	RunE:  runBookCharacters,
}

var bookRelationshipsCmd = &cobra.Command{
	Use:   "relationships [book-id]",
	Short: "List a book's character relationships",
	Args:  cobra.ExactArgs(1),
	RunE:  runBookRelationships,
}

var bookEventsCmd = &cobra.Command{
	Use:   "events [book-id] [chapter]",
	Short: "List a chapter's events",
	Args:  cobra.ExactArgs(2),
	RunE:  runBookEvents,
}

var summaryBefore int

var bookSummaryCmd = &cobra.Command{
	Use:   "summary [book-id]",
	Short: "Print a book's running summary",
	Long: `Prints the chapter-by-chapter running summary. With --before N,
prints only the part covering chapters strictly before chapter N,
which is what readers at chapter N are shown to avoid spoilers.`,
	Args: cobra.ExactArgs(1),
	RunE: runBookSummary,
}

func init() {
	booksCmd.Flags().BoolVar(&booksJSON, "json", false, "output as JSON")
	bookSummaryCmd.Flags().IntVar(&summaryBefore, "before", 0, "limit to chapters strictly before this one")

	bookCmd.AddCommand(bookShowCmd, bookDeleteCmd, bookCharactersCmd,
		bookRelationshipsCmd, bookEventsCmd, bookSummaryCmd)
	rootCmd.AddCommand(booksCmd, bookCmd)
}

func runBooks(cmd *cobra.Command, _ []string) error {
	if libraryService == nil {
		return errors.New("library service not configured")
	}

	books, err := libraryService.ListBooks(context.Background())
	if err != nil {
		return fmt.Errorf("list books: %w", err)
	}

	if booksJSON {
		data, err := json.MarshalIndent(books, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal books: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(books) == 0 {
		cmd.Println("No books yet. Add one with 'bookwyrm add <path>'.")
		return nil
	}

	for _, book := range books {
		line := book.Title
		if book.Author != "" {
			line += " by " + book.Author
		}
		cmd.Printf("%s\n  %s\n", line, book.ID)
	}
	return nil
}

func runBookShow(cmd *cobra.Command, args []string) error {
	if libraryService == nil {
		return errors.New("library service not configured")
	}

	ctx := context.Background()
	book, err := libraryService.GetBook(ctx, args[0])
	if err != nil {
		return describeNotFound(err, "book", args[0])
	}

	cmd.Printf("Title:  %s\n", book.Title)
	if book.Author != "" {
		cmd.Printf("Author: %s\n", book.Author)
	}
	cmd.Printf("ID:     %s\n", book.ID)
	cmd.Printf("Added:  %s\n", book.CreatedAt.Format("2006-01-02"))

	if book.Metadata == nil {
		cmd.Println("\nNot analysed yet. Run 'bookwyrm analyze' to infer metadata.")
		return nil
	}

	m := book.Metadata
	cmd.Printf("\nGenres:   %s\n", strings.Join(m.Genres, ", "))
	cmd.Printf("Period:   %s\n", m.TimePeriod)
	cmd.Printf("Setting:  %s\n", m.Setting)
	cmd.Printf("Synopsis: %s\n", m.Synopsis)
	if len(m.Moods) > 0 {
		moods := make([]string, len(m.Moods))
		for i, mood := range m.Moods {
			moods[i] = mood.String()
		}
		cmd.Printf("Moods:    %s\n", strings.Join(moods, ", "))
	}
	return nil
}

func runBookDelete(cmd *cobra.Command, args []string) error {
	if libraryService == nil {
		return errors.New("library service not configured")
	}

	if err := libraryService.DeleteBook(context.Background(), args[0]); err != nil {
		return describeNotFound(err, "book", args[0])
	}
	cmd.Println("Deleted.")
	return nil
}

func runBookCharacters(cmd *cobra.Command, args []string) error {
	if libraryService == nil {
		return errors.New("library service not configured")
	}

	characters, err := libraryService.ListCharacters(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("list characters: %w", err)
	}
	if len(characters) == 0 {
		cmd.Println("No characters. Run 'bookwyrm analyze' first.")
		return nil
	}

	for _, c := range characters {
		cmd.Printf("%s (%s)\n", c.Name, c.Role)
		if c.Bio != "" {
			cmd.Printf("  %s\n", c.Bio)
		}
		if len(c.ChaptersAppeared) > 0 {
			cmd.Printf("  Appears in chapters %s\n", joinInts(c.ChaptersAppeared))
		}
	}
	return nil
}

func runBookRelationships(cmd *cobra.Command, args []string) error {
	if libraryService == nil {
		return errors.New("library service not configured")
	}

	relationships, err := libraryService.ListRelationships(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("list relationships: %w", err)
	}
	if len(relationships) == 0 {
		cmd.Println("No relationships. Run 'bookwyrm analyze' first.")
		return nil
	}

	for _, r := range relationships {
		cmd.Printf("%s - %s: %s\n", r.Source, r.Target, r.Label)
	}
	return nil
}

func runBookEvents(cmd *cobra.Command, args []string) error {
	if libraryService == nil {
		return errors.New("library service not configured")
	}

	chapter, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid chapter number %q", args[1])
	}

	events, err := libraryService.ListEvents(context.Background(), args[0], chapter)
	if err != nil {
		return fmt.Errorf("list events: %w", err)
	}
	if len(events) == 0 {
		cmd.Println("No events. Run 'bookwyrm analyze' first.")
		return nil
	}

	for _, e := range events {
		cmd.Printf("%d. %s (through paragraph %d)\n", e.Number, e.Label, e.LastParagraph)
		if e.Synopsis != "" {
			cmd.Printf("   %s\n", e.Synopsis)
		}
	}
	return nil
}

func runBookSummary(cmd *cobra.Command, args []string) error {
	if libraryService == nil {
		return errors.New("library service not configured")
	}

	ctx := context.Background()

	if summaryBefore > 0 {
		summary, err := libraryService.SummaryBefore(ctx, args[0], summaryBefore)
		if err != nil {
			return describeNotFound(err, "book", args[0])
		}
		if summary == "" {
			cmd.Println("Nothing to show before that chapter.")
			return nil
		}
		cmd.Println(summary)
		return nil
	}

	book, err := libraryService.GetBook(ctx, args[0])
	if err != nil {
		return describeNotFound(err, "book", args[0])
	}
	if book.Summary == "" {
		cmd.Println("No summary yet. Run 'bookwyrm analyze' first.")
		return nil
	}
	cmd.Println(book.Summary)
	return nil
}

// describeNotFound turns domain.ErrNotFound into a message naming the
// entity, passing other errors through.
func describeNotFound(err error, kind, id string) error {
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("%s %q not found", kind, id)
	}
	return err
}

// joinInts formats ints as a comma-separated list.
func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ", ")
}
