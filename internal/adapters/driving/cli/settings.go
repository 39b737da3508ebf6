package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bookwyrm-labs/bookwyrm-cli/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change provider settings",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current settings",
	Args:  cobra.NoArgs,
	RunE:  runSettingsShow,
}

var (
	setLLMProvider   string
	setLLMModel      string
	setLLMBaseURL    string
	setLLMAPIKey     string
	setEmbedProvider string
	setEmbedModel    string
	setEmbedBaseURL  string
	setEmbedAPIKey   string
	setImageProvider string
	setImageModel    string
	setImageAPIKey   string
	setDataDir       string
)

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change settings",
	Long: `Updates provider settings. Only the flags you pass are changed.

API keys can also be supplied via the OPENAI_API_KEY environment
variable or a .env file, keeping them out of the config file.`,
	Args: cobra.NoArgs,
	RunE: runSettingsSet,
}

func init() {
	flags := settingsSetCmd.Flags()
	flags.StringVar(&setLLMProvider, "llm-provider", "", "LLM provider (ollama or openai)")
	flags.StringVar(&setLLMModel, "llm-model", "", "LLM model name")
	flags.StringVar(&setLLMBaseURL, "llm-base-url", "", "LLM API base URL")
	flags.StringVar(&setLLMAPIKey, "llm-api-key", "", "LLM API key")
	flags.StringVar(&setEmbedProvider, "embedding-provider", "", "embedding provider (ollama or openai)")
	flags.StringVar(&setEmbedModel, "embedding-model", "", "embedding model name")
	flags.StringVar(&setEmbedBaseURL, "embedding-base-url", "", "embedding API base URL")
	flags.StringVar(&setEmbedAPIKey, "embedding-api-key", "", "embedding API key")
	flags.StringVar(&setImageProvider, "image-provider", "", "image provider (openai)")
	flags.StringVar(&setImageModel, "image-model", "", "image model name")
	flags.StringVar(&setImageAPIKey, "image-api-key", "", "image API key")
	flags.StringVar(&setDataDir, "data-dir", "", "directory for local state")

	settingsCmd.AddCommand(settingsShowCmd, settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	cmd.Printf("LLM:       %s\n", describeProvider(settings.LLM.Provider.String(), settings.LLM.Model, settings.LLM.APIKey))
	cmd.Printf("Embedding: %s\n", describeProvider(settings.Embedding.Provider.String(), settings.Embedding.Model, settings.Embedding.APIKey))
	cmd.Printf("Image:     %s\n", describeProvider(settings.Image.Provider.String(), settings.Image.Model, settings.Image.APIKey))
	if settings.DataDir != "" {
		cmd.Printf("Data dir:  %s\n", settings.DataDir)
	}
	return nil
}

func runSettingsSet(cmd *cobra.Command, _ []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	ctx := context.Background()
	current, err := configStore.LoadSettings(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	applyProvider(&current.LLM.Provider, setLLMProvider)
	applyString(&current.LLM.Model, setLLMModel)
	applyString(&current.LLM.BaseURL, setLLMBaseURL)
	applyString(&current.LLM.APIKey, setLLMAPIKey)

	applyProvider(&current.Embedding.Provider, setEmbedProvider)
	applyString(&current.Embedding.Model, setEmbedModel)
	applyString(&current.Embedding.BaseURL, setEmbedBaseURL)
	applyString(&current.Embedding.APIKey, setEmbedAPIKey)

	applyProvider(&current.Image.Provider, setImageProvider)
	applyString(&current.Image.Model, setImageModel)
	applyString(&current.Image.APIKey, setImageAPIKey)

	applyString(&current.DataDir, setDataDir)

	for _, p := range []domain.AIProvider{current.LLM.Provider, current.Embedding.Provider, current.Image.Provider} {
		if p != "" && !p.IsValid() {
			return fmt.Errorf("unknown provider %q", p)
		}
	}

	if err := configStore.SaveSettings(ctx, current); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}

	cmd.Println("Settings saved.")
	return nil
}

func applyString(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}

func applyProvider(dst *domain.AIProvider, value string) {
	if value != "" {
		*dst = domain.AIProvider(strings.ToLower(value))
	}
}

// describeProvider renders one provider line, masking the API key.
func describeProvider(provider, model, apiKey string) string {
	if provider == "" {
		return "not configured"
	}
	out := provider
	if model != "" {
		out += " / " + model
	}
	if apiKey != "" {
		out += " (api key set)"
	}
	return out
}
