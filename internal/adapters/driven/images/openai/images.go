// Package openai provides an image synthesis adapter using the OpenAI
// images API.
package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bookwyrm-labs/bookwyrm-cli/internal/core/ports/driven"
)

// Ensure ImageService implements the interface.
var _ driven.ImageSynthesizer = (*ImageService)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "dall-e-3"
	DefaultSize    = "1024x1024"
	DefaultTimeout = 180 * time.Second
)

// Config holds configuration for the OpenAI image service.
type Config struct {
	// APIKey is the OpenAI API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.openai.com/v1).
	BaseURL string

	// Model is the image model to use (default: dall-e-3).
	Model string

	// Size is the generated image size (default: 1024x1024).
	Size string

	// Timeout is the request timeout (default: 180s, image models are slow).
	Timeout time.Duration
}

// ImageService renders images using the OpenAI images API.
type ImageService struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
	size    string
}

// imageRequest is the OpenAI /images/generations request format.
// b64_json keeps the image in the response instead of a short-lived URL.
type imageRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	N              int    `json:"n"`
	Size           string `json:"size"`
	ResponseFormat string `json:"response_format"`
}

// imageResponse is the OpenAI /images/generations response format.
type imageResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// NewImageService creates a new OpenAI image service.
func NewImageService(cfg Config) (*ImageService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &ImageService{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		size:    nonEmpty(cfg.Size, DefaultSize),
	}, nil
}

func nonEmpty(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

// Synthesize renders the prompt and returns the PNG bytes.
func (s *ImageService) Synthesize(ctx context.Context, prompt string) ([]byte, error) {
	reqBody := imageRequest{
		Model:          s.model,
		Prompt:         prompt,
		N:              1,
		Size:           s.size,
		ResponseFormat: "b64_json",
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		s.baseURL+"/images/generations",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var imgResp imageResponse
	if err := json.Unmarshal(body, &imgResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if imgResp.Error != nil {
		return nil, fmt.Errorf("openai error: %s", imgResp.Error.Message)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openai error (status %d): %s", resp.StatusCode, string(body))
	}

	if len(imgResp.Data) == 0 {
		return nil, fmt.Errorf("openai: no image returned")
	}

	image, err := base64.StdEncoding.DecodeString(imgResp.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	return image, nil
}

// Close releases resources.
func (s *ImageService) Close() error {
	return nil
}
