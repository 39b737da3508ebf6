package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bookwyrm-labs/bookwyrm-cli/internal/core/domain"
	"github.com/bookwyrm-labs/bookwyrm-cli/internal/core/ports/driven"
	"github.com/bookwyrm-labs/bookwyrm-cli/internal/logger"
)

// defaultRelationshipsPrompt is the fallback prompt when no PromptStore is configured.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
const defaultRelationshipsPrompt = `You are a literature expert. Your task is to extract relationships between characters using only the book context provided, and output only the structured relationship list.
Source and target MUST be character names that appear in CONTEXT 2. The label must be a short relationship label suitable for an edge in a network graph (e.g., 'friends', 'rivals', 'mentor', 'family', 'allies', 'enemy'). Do not invent new characters. Only include clear and meaningful relationships, if they exist. If direction is unclear, keep it symmetric (just one edge).`

// relationshipsSchema constrains the extraction call to a flat edge list.
const relationshipsSchema = `{
	"type": "object",
	"properties": {
		"relationships": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"source": {"type": "string"},
					"target": {"type": "string"},
					"label": {"type": "string"}
				},
				"required": ["source", "target", "label"],
				"additionalProperties": false
			}
		}
	},
	"required": ["relationships"],
	"additionalProperties": false
}`

// relationshipPayload mirrors one edge in the extraction response.
type relationshipPayload struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label"`
}

// relationshipListPayload is the full extraction response shape.
type relationshipListPayload struct {
	Relationships []relationshipPayload `json:"relationships"`
}

// RelationshipService derives the character relationship graph once the
// roster is finalized. The graph is stored as a flat edge list keyed by
// character names; edges whose endpoints do not resolve to roster
// members are dropped.
type RelationshipService struct {
	bookStore   driven.BookStore
	llm         driven.LLMService
	promptStore driven.PromptStore
}

// NewRelationshipService creates a new relationship service.
func NewRelationshipService(bookStore driven.BookStore, llm driven.LLMService) *RelationshipService {
	return &RelationshipService{
		bookStore: bookStore,
		llm:       llm,
	}
}

// SetPromptStore sets the prompt store for loading customisable prompts.
func (s *RelationshipService) SetPromptStore(store driven.PromptStore) {
	s.promptStore = store
}

// ExtractRelationships derives and persists the book's relationship
// edges from the running summary and the finalized roster.
func (s *RelationshipService) ExtractRelationships(ctx context.Context, bookID string) ([]domain.Relationship, error) {
	logger.Section("Relationship Extraction")

	book, err := s.bookStore.GetBook(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("get book %s: %w", bookID, err)
	}

	characters, err := s.bookStore.ListCharacters(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("list characters: %w", err)
	}
	if len(characters) == 0 {
		return nil, fmt.Errorf("book %s has no finalized roster: %w", bookID, domain.ErrAnalysisIncomplete)
	}

	if s.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}

	template := loadPrompt(s.promptStore, driven.PromptRelationships, defaultRelationshipsPrompt)

	messages := []driven.ChatMessage{
		{Role: "system", Content: template},
		{Role: "user", Content: fmt.Sprintf(
			"BOOK TITLE: %s\n\nCONTEXT 1 (book summary, chapter-by-chapter):\n%s\n\nCONTEXT 2 (major characters with attributes):\n%s",
			book.Title, book.Summary, characterContext(characters))},
	}

	raw, err := s.llm.ChatStructured(ctx, messages, driven.Schema{
		Name:       "relationship_list",
		Definition: json.RawMessage(relationshipsSchema),
	})
	if err != nil {
		return nil, fmt.Errorf("extract relationships: %w: %w", domain.ErrOracleFailure, err)
	}

	var payload relationshipListPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("extract relationships: %w: %w", domain.ErrMalformedOutput, err)
	}

	names := make(map[string]bool, len(characters))
	for _, c := range characters {
		names[c.Name] = true
	}

	relationships := make([]domain.Relationship, 0, len(payload.Relationships))
	for _, p := range payload.Relationships {
		if !names[p.Source] || !names[p.Target] {
			logger.Warn("Dropping relationship %q -> %q: endpoint not in roster", p.Source, p.Target)
			continue
		}
		relationships = append(relationships, domain.Relationship{
			BookID: bookID,
			Source: p.Source,
			Target: p.Target,
			Label:  p.Label,
		})
	}

	if err := s.bookStore.ReplaceRelationships(ctx, bookID, relationships); err != nil {
		return nil, fmt.Errorf("save relationships: %w", err)
	}

	logger.Info("Relationships extracted: %d edges", len(relationships))
	return relationships, nil
}

// characterContext renders the roster in the human-readable form the
// relationship and scene prompts expect.
func characterContext(characters []domain.Character) string {
	parts := make([]string, 0, len(characters))
	for _, c := range characters {
		parts = append(parts, fmt.Sprintf(
			"Name: %s\nRole: %s\nAge: %s\nGender: %s\n\nPersonality:\n%s\n\nAppearance:\n%s\n\nBio:\n%s",
			c.Name, c.Role, orUnknown(c.Age), orUnknown(c.Gender),
			orUnknown(c.Personality), orUnknown(c.Appearance), orUnknown(c.Bio)))
	}
	return strings.Join(parts, "\n\n")
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "unknown"
	}
	return s
}
