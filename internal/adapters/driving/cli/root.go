// Package cli provides the command-line interface for Bookwyrm.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/bookwyrm-labs/bookwyrm-cli/internal/adapters/driven/ai"
	"github.com/bookwyrm-labs/bookwyrm-cli/internal/adapters/driven/config/file"
	dirloader "github.com/bookwyrm-labs/bookwyrm-cli/internal/adapters/driven/ingest/dir"
	"github.com/bookwyrm-labs/bookwyrm-cli/internal/adapters/driven/scenes/disk"
	"github.com/bookwyrm-labs/bookwyrm-cli/internal/adapters/driven/storage/sqlite"
	vectormem "github.com/bookwyrm-labs/bookwyrm-cli/internal/adapters/driven/vector/memory"
	"github.com/bookwyrm-labs/bookwyrm-cli/internal/core/domain"
	"github.com/bookwyrm-labs/bookwyrm-cli/internal/core/ports/driven"
	"github.com/bookwyrm-labs/bookwyrm-cli/internal/core/ports/driving"
	"github.com/bookwyrm-labs/bookwyrm-cli/internal/core/services"
	"github.com/bookwyrm-labs/bookwyrm-cli/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Package-level services, wired in initServices and consumed by the
// command handlers. Tests swap these for mocks.
var (
	libraryService  driving.LibraryService
	analysisService driving.AnalysisPipeline
	queryService    driving.QueryService
	sceneService    driving.SceneService
	indexerService  *services.IndexerService
	bookLoader      driven.BookLoader
	configStore     driven.ConfigStore
	settings        domain.Settings

	// closeFuncs tears down adapters after the command finishes.
	closeFuncs []func() error
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "bookwyrm",
	Short: "Analyse books and ask questions about them",
	Long: `Bookwyrm ingests books chapter by chapter and derives a running
summary, a character roster, per-chapter events and scene images.
Once analysed, a book can be queried with natural-language questions
answered via hybrid retrieval over its indexed text.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose)

		// A .env in the working directory supplies API keys in dev setups.
		if err := godotenv.Load(); err == nil {
			logger.Debug("loaded .env file")
		}

		return initServices()
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		teardown()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		teardown()
		os.Exit(1)
	}
}

// initServices wires the adapters and core services. AI services that
// fail to initialise are reported and left nil; commands that need them
// fail with a pointed error instead.
func initServices() error {
	cfg, err := file.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("init config store: %w", err)
	}
	configStore = cfg

	loaded, err := cfg.LoadSettings(context.Background())
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	settings = *loaded
	applyEnvOverrides(&settings)

	bookStore, err := sqlite.NewStore(settings.DataDir)
	if err != nil {
		return fmt.Errorf("init book store: %w", err)
	}
	closeFuncs = append(closeFuncs, bookStore.Close)
	logger.Debug("book store ready at %s", bookStore.Path())

	sceneStore, err := disk.NewSceneStore(settings.DataDir)
	if err != nil {
		return fmt.Errorf("init scene store: %w", err)
	}

	promptStore, err := file.NewPromptStore("", services.DefaultPrompts())
	if err != nil {
		return fmt.Errorf("init prompt store: %w", err)
	}

	aiResult := ai.Initialize(settings)
	for _, warning := range aiResult.Warnings {
		logger.Warn("%s", warning)
	}
	closeFuncs = append(closeFuncs, func() error {
		aiResult.Close()
		return nil
	})

	vectorIndex := vectormem.NewVectorIndex()
	closeFuncs = append(closeFuncs, vectorIndex.Close)

	summary := services.NewSummaryService(bookStore, aiResult.LLMService)
	roster := services.NewRosterService(bookStore, aiResult.LLMService)
	events := services.NewEventService(bookStore, aiResult.LLMService)
	relationships := services.NewRelationshipService(bookStore, aiResult.LLMService)
	metadata := services.NewMetadataService(bookStore, aiResult.LLMService)
	indexer := services.NewIndexerService(bookStore, vectorIndex, aiResult.EmbeddingService)
	retriever := services.NewHybridRetriever(vectorIndex, aiResult.EmbeddingService)
	query := services.NewQueryService(bookStore, retriever, aiResult.LLMService)
	scene := services.NewSceneService(bookStore, aiResult.LLMService, aiResult.ImageSynthesizer, sceneStore)

	for _, aware := range []driven.PromptStoreAware{
		summary, roster, events, relationships, metadata, query, scene,
	} {
		aware.SetPromptStore(promptStore)
	}

	libraryService = services.NewLibraryService(bookStore)
	analysisService = services.NewAnalysisService(summary, roster, events, relationships, metadata, indexer)
	queryService = query
	sceneService = scene
	indexerService = indexer
	bookLoader = dirloader.NewLoader()

	return nil
}

// applyEnvOverrides lets environment variables supply API keys so they
// stay out of the config file.
func applyEnvOverrides(s *domain.Settings) {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		if s.Embedding.APIKey == "" {
			s.Embedding.APIKey = key
		}
		if s.LLM.APIKey == "" {
			s.LLM.APIKey = key
		}
		if s.Image.APIKey == "" {
			s.Image.APIKey = key
		}
	}
}

// teardown closes adapters in reverse wiring order.
func teardown() {
	for i := len(closeFuncs) - 1; i >= 0; i-- {
		if err := closeFuncs[i](); err != nil {
			logger.Debug("teardown: %v", err)
		}
	}
	closeFuncs = nil
}
