package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bookwyrm-labs/bookwyrm-cli/internal/core/domain"
	"github.com/bookwyrm-labs/bookwyrm-cli/internal/core/ports/driven"
	"github.com/bookwyrm-labs/bookwyrm-cli/internal/logger"
)

// RosterCapacity is the maximum number of characters the in-flight
// roster may hold at any point in the fold.
const RosterCapacity = 6

// defaultRosterUpdatePrompt is the fallback prompt when no PromptStore is configured.
// Placeholders: book title, then roster capacity three times.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
const defaultRosterUpdatePrompt = `Your task is to identify fictional characters from the book '%s', extracting and summarizing their information chapter by chapter. You will receive the full text of the current chapter and a running list of characters identified from the previous chapters. Analyse the current chapter to (1) add new characters and (2) update the information for characters in the running list only if you find new information about them.
There can be at most %d characters in the list. Keep adding new characters while it contains fewer than %d. If you find a new relevant character in the current chapter and the running list is full, REPLACE the existing character with the LOWEST confidence_score with the new character ONLY if you think they are more relevant than that existing character; OTHERWISE ignore the new character.
Your goal is to return only the updated list after making all changes relevant to the new chapter. If you do not know some attribute of a character, set it to ' '. If the current chapter is not a story chapter but a preface or something similar, return the list unchanged.
Return only the updated list as a clear, human-readable summary using the pseudo-structured format below for each list element. Keep it concise but detailed:

CHARACTER 1:
    name: <name>
    role: <protagonist | antagonist | supporting character>
    age: <age>
    gender: <gender>
    personality: <4 lines describing personality>
    appearance: <5 lines describing physical appearance. A reader should be able to visualise the character from this alone>
    bio: <4-line biography>
    chapters_appeared: [<list of chapter numbers>]
    confidence_score: <score between 0 and 1 describing how confident you are that this character is relevant to the story>`

// defaultRosterFinalizePrompt is the fallback prompt when no PromptStore is configured.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
const defaultRosterFinalizePrompt = `Character information for the main fictional characters of a book has been identified and summarised chapter by chapter and is provided below. Return the structured character list containing that information. Ignore the confidence score.`

// rosterSchema constrains the finalize call. The confidence field is
// accepted here because the roster text carries it, but it is dropped
// when entries convert to persisted characters.
const rosterSchema = `{
	"type": "object",
	"properties": {
		"characters": {
			"type": "array",
			"maxItems": 6,
			"items": {
				"type": "object",
				"properties": {
					"name": {"type": "string"},
					"role": {"type": "string", "enum": ["protagonist", "antagonist", "supporting character"]},
					"age": {"type": "string"},
					"gender": {"type": "string"},
					"personality": {"type": "string"},
					"appearance": {"type": "string"},
					"bio": {"type": "string"},
					"chapters_appeared": {"type": "array", "items": {"type": "integer"}},
					"confidence_score": {"type": "number", "minimum": 0, "maximum": 1}
				},
				"required": ["name", "role"],
				"additionalProperties": false
			}
		}
	},
	"required": ["characters"],
	"additionalProperties": false
}`

// rosterEntryPayload mirrors one roster entry in the finalize response.
type rosterEntryPayload struct {
	Name             string  `json:"name"`
	Role             string  `json:"role"`
	Age              string  `json:"age"`
	Gender           string  `json:"gender"`
	Personality      string  `json:"personality"`
	Appearance       string  `json:"appearance"`
	Bio              string  `json:"bio"`
	ChaptersAppeared []int   `json:"chapters_appeared"`
	Confidence       float64 `json:"confidence_score"`
}

// rosterPayload is the full finalize response shape.
type rosterPayload struct {
	Characters []rosterEntryPayload `json:"characters"`
}

// RosterService maintains the capacity-bounded character roster across
// a forward pass over chapters. The in-flight state is the model's own
// human-readable roster text, taken verbatim as the new state each
// chapter; eviction is driven by the transient confidence score carried
// in that text.
type RosterService struct {
	bookStore   driven.BookStore
	llm         driven.LLMService
	promptStore driven.PromptStore
}

// NewRosterService creates a new roster service.
func NewRosterService(bookStore driven.BookStore, llm driven.LLMService) *RosterService {
	return &RosterService{
		bookStore: bookStore,
		llm:       llm,
	}
}

// SetPromptStore sets the prompt store for loading customisable prompts.
func (s *RosterService) SetPromptStore(store driven.PromptStore) {
	s.promptStore = store
}

// ExtractCharacters runs the roster fold over the book's chapters,
// finalizes the result into structured records and persists them.
func (s *RosterService) ExtractCharacters(ctx context.Context, bookID string) ([]domain.Character, error) {
	rosterText, err := s.BuildRoster(ctx, bookID)
	if err != nil {
		return nil, err
	}

	characters, err := s.Finalize(ctx, bookID, rosterText)
	if err != nil {
		return nil, err
	}

	if err := s.bookStore.ReplaceCharacters(ctx, bookID, characters); err != nil {
		return nil, fmt.Errorf("save characters: %w", err)
	}

	return characters, nil
}

// BuildRoster folds over the book's chapters in ascending order and
// returns the final human-readable roster text. The first chapter is
// skipped, matching the summary fold. Each step presents the model with
// the current roster (confidence scores included) and one chapter; the
// model returns a complete replacement roster, never a diff.
func (s *RosterService) BuildRoster(ctx context.Context, bookID string) (string, error) {
	logger.Section("Roster Fold")

	book, chapters, err := loadBookWithChapters(ctx, s.bookStore, bookID)
	if err != nil {
		return "", err
	}

	if s.llm == nil {
		return "", domain.ErrLLMUnavailable
	}

	template := loadPrompt(s.promptStore, driven.PromptRosterUpdate, defaultRosterUpdatePrompt)
	system := fmt.Sprintf(template, book.Title, RosterCapacity, RosterCapacity)

	rosterText := ""
	for i := range chapters {
		if i == 0 {
			continue
		}

		messages := []driven.ChatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: fmt.Sprintf(
				"PREVIOUSLY IDENTIFIED CHARACTERS:\n%s\n\nCURRENT CHAPTER TEXT:\n%s\n\nUPDATED LIST OF CHARACTERS:",
				rosterText, chapters[i].PlainText())},
		}

		updated, err := s.llm.Chat(ctx, messages, driven.ChatOptions{Temperature: 0.3})
		if err != nil {
			return rosterText, fmt.Errorf("roster update for chapter %d: %w: %w",
				chapters[i].Number, domain.ErrOracleFailure, err)
		}

		rosterText = updated
		logger.Debug("Roster after chapter %d: %d chars", chapters[i].Number, len(rosterText))
	}

	return rosterText, nil
}

// Finalize re-parses the final roster text into strict structured
// records via a schema-constrained call, dropping the confidence field.
// Entries beyond the roster capacity are discarded, and unrecognised
// roles fall back to supporting character.
func (s *RosterService) Finalize(ctx context.Context, bookID, rosterText string) ([]domain.Character, error) {
	if s.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}

	template := loadPrompt(s.promptStore, driven.PromptRosterFinalize, defaultRosterFinalizePrompt)

	messages := []driven.ChatMessage{
		{Role: "system", Content: template},
		{Role: "user", Content: "SUMMARY OF PREVIOUSLY IDENTIFIED CHARACTERS:\n" + rosterText},
	}

	raw, err := s.llm.ChatStructured(ctx, messages, driven.Schema{
		Name:       "character_list",
		Definition: json.RawMessage(rosterSchema),
	})
	if err != nil {
		return nil, fmt.Errorf("finalize roster: %w: %w", domain.ErrOracleFailure, err)
	}

	var payload rosterPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("finalize roster: %w: %w", domain.ErrMalformedOutput, err)
	}

	if len(payload.Characters) > RosterCapacity {
		logger.Warn("Roster finalize returned %d entries, truncating to %d",
			len(payload.Characters), RosterCapacity)
		payload.Characters = payload.Characters[:RosterCapacity]
	}

	characters := make([]domain.Character, 0, len(payload.Characters))
	for _, p := range payload.Characters {
		role := domain.CharacterRole(p.Role)
		if !role.IsValid() {
			logger.Warn("Character %q has unrecognised role %q, using supporting character", p.Name, p.Role)
			role = domain.RoleSupporting
		}

		entry := domain.RosterEntry{
			Name:             p.Name,
			Role:             role,
			Age:              p.Age,
			Gender:           p.Gender,
			Personality:      p.Personality,
			Appearance:       p.Appearance,
			Bio:              p.Bio,
			ChaptersAppeared: p.ChaptersAppeared,
			Confidence:       p.Confidence,
		}
		characters = append(characters, entry.Character(bookID))
	}

	logger.Info("Roster finalized: %d characters", len(characters))
	return characters, nil
}
