package file

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/bookwyrm-labs/bookwyrm-cli/internal/core/domain"
	"github.com/bookwyrm-labs/bookwyrm-cli/internal/core/ports/driven"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore is a file-based implementation of driven.ConfigStore using TOML.
type ConfigStore struct {
	mu       sync.Mutex
	filePath string
}

// settingsFile is the on-disk TOML layout.
type settingsFile struct {
	DataDir   string          `toml:"data_dir,omitempty"`
	Embedding aiSettingsTable `toml:"embedding"`
	LLM       aiSettingsTable `toml:"llm"`
	Image     aiSettingsTable `toml:"image"`
}

// aiSettingsTable is one provider block in the TOML file.
type aiSettingsTable struct {
	Provider string `toml:"provider,omitempty"`
	Model    string `toml:"model,omitempty"`
	BaseURL  string `toml:"base_url,omitempty"`
	APIKey   string `toml:"api_key,omitempty"`
}

// NewConfigStore creates a new TOML-based config store.
// If configDir is empty, defaults to ~/.bookwyrm/config.toml.
func NewConfigStore(configDir string) (*ConfigStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		configDir = filepath.Join(home, ".bookwyrm")
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, err
	}

	return &ConfigStore{
		filePath: filepath.Join(configDir, "config.toml"),
	}, nil
}

// LoadSettings reads settings from the TOML file. A missing file yields
// zero-value settings, not an error.
func (s *ConfigStore) LoadSettings(_ context.Context) (*domain.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return &domain.Settings{}, nil
		}
		return nil, err
	}

	var file settingsFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, err
	}

	return &domain.Settings{
		DataDir: file.DataDir,
		Embedding: domain.EmbeddingSettings{
			Provider: domain.AIProvider(file.Embedding.Provider),
			Model:    file.Embedding.Model,
			BaseURL:  file.Embedding.BaseURL,
			APIKey:   file.Embedding.APIKey,
		},
		LLM: domain.LLMSettings{
			Provider: domain.AIProvider(file.LLM.Provider),
			Model:    file.LLM.Model,
			BaseURL:  file.LLM.BaseURL,
			APIKey:   file.LLM.APIKey,
		},
		Image: domain.ImageSettings{
			Provider: domain.AIProvider(file.Image.Provider),
			Model:    file.Image.Model,
			BaseURL:  file.Image.BaseURL,
			APIKey:   file.Image.APIKey,
		},
	}, nil
}

// SaveSettings writes the settings to the TOML file.
func (s *ConfigStore) SaveSettings(_ context.Context, settings *domain.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	file := settingsFile{
		DataDir: settings.DataDir,
		Embedding: aiSettingsTable{
			Provider: settings.Embedding.Provider.String(),
			Model:    settings.Embedding.Model,
			BaseURL:  settings.Embedding.BaseURL,
			APIKey:   settings.Embedding.APIKey,
		},
		LLM: aiSettingsTable{
			Provider: settings.LLM.Provider.String(),
			Model:    settings.LLM.Model,
			BaseURL:  settings.LLM.BaseURL,
			APIKey:   settings.LLM.APIKey,
		},
		Image: aiSettingsTable{
			Provider: settings.Image.Provider.String(),
			Model:    settings.Image.Model,
			BaseURL:  settings.Image.BaseURL,
			APIKey:   settings.Image.APIKey,
		},
	}

	data, err := toml.Marshal(file)
	if err != nil {
		return err
	}

	// Restricted permissions: the file may hold API keys
	return os.WriteFile(s.filePath, data, 0600)
}

// Path returns the configuration file path.
func (s *ConfigStore) Path() string {
	return s.filePath
}
