package services

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/bookwyrm-labs/bookwyrm-cli/internal/core/domain"
	"github.com/bookwyrm-labs/bookwyrm-cli/internal/core/ports/driven"
	"github.com/bookwyrm-labs/bookwyrm-cli/internal/core/ports/driving"
	"github.com/bookwyrm-labs/bookwyrm-cli/internal/logger"
)

// Ensure SceneService implements the interface.
var _ driving.SceneService = (*SceneService)(nil)

// defaultSceneDescriptionPrompt is the fallback prompt when no PromptStore is configured.
// The single placeholder is the book title.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
const defaultSceneDescriptionPrompt = `You are an expert prompt engineer. Your role is to write a text prompt which will be used as input to an image generation model. The text prompt describes a scene from a chapter of the book '%s'. You have been given the part of the chapter where the event occurs along with a short description of the event. Generate a prompt for an image generation model that describes the scene using this event information. Be as descriptive as possible with characters, background and actions, since the image model will only have your prompt and no information on the book. Use only the information provided. CONTEXT 1 is a chapter-by-chapter summary of the book up to the chapter where the event occurs. CONTEXT 2 is a list of the major characters in the book; if a character from the list is present in the event, include their name. Output only the image generation prompt and nothing else. The art style should be: 'detailed fantasy storybook illustration, warm lighting, expressive'.`

// SceneService resolves rendered scene images for events. The cache key
// is the literal (book, chapter, event) id tuple rather than a content
// hash: regenerated analysis under the same ids serves the cached
// image, which is the accepted price of idempotent re-fetch. Concurrent
// misses for one key are coalesced so synthesis runs at most once.
type SceneService struct {
	bookStore   driven.BookStore
	llm         driven.LLMService
	images      driven.ImageSynthesizer
	scenes      driven.SceneStore
	promptStore driven.PromptStore

	group singleflight.Group
}

// NewSceneService creates a new scene service. The images parameter is
// optional: without a synthesizer every miss resolves to the
// placeholder reference.
func NewSceneService(
	bookStore driven.BookStore,
	llm driven.LLMService,
	images driven.ImageSynthesizer,
	scenes driven.SceneStore,
) *SceneService {
	return &SceneService{
		bookStore: bookStore,
		llm:       llm,
		images:    images,
		scenes:    scenes,
	}
}

// SetPromptStore sets the prompt store for loading customisable prompts.
func (s *SceneService) SetPromptStore(store driven.PromptStore) {
	s.promptStore = store
}

// Scene returns a stable reference to the event's scene image, building
// and caching it on first access. Missing entities surface as
// ErrNotFound; any failure past that point resolves to the placeholder
// reference instead of an error, because image generation must never
// fail the read path.
func (s *SceneService) Scene(ctx context.Context, bookID string, chapterNumber, eventNumber int) (string, error) {
	key := driven.SceneKey{BookID: bookID, ChapterNumber: chapterNumber, EventNumber: eventNumber}

	ref, err, _ := s.group.Do(fmt.Sprintf("%s/%d/%d", bookID, chapterNumber, eventNumber),
		func() (any, error) {
			return s.resolve(ctx, key)
		})
	if err != nil {
		return "", err
	}
	return ref.(string), nil
}

func (s *SceneService) resolve(ctx context.Context, key driven.SceneKey) (string, error) {
	if ref, ok, err := s.scenes.Get(ctx, key); err == nil && ok {
		logger.Debug("Scene cache hit: %v", key)
		return ref, nil
	}

	book, err := s.bookStore.GetBook(ctx, key.BookID)
	if err != nil {
		return "", fmt.Errorf("get book %s: %w", key.BookID, err)
	}
	chapter, err := s.bookStore.GetChapter(ctx, key.BookID, key.ChapterNumber)
	if err != nil {
		return "", fmt.Errorf("get chapter %d: %w", key.ChapterNumber, err)
	}
	event, err := s.bookStore.GetEvent(ctx, key.BookID, key.ChapterNumber, key.EventNumber)
	if err != nil {
		return "", fmt.Errorf("get event %d: %w", key.EventNumber, err)
	}

	logger.Debug("Scene cache miss: %v, building", key)

	prompt, err := s.describeScene(ctx, book, chapter, event)
	if err != nil {
		logger.Warn("Scene description failed for %v: %v", key, err)
		return s.scenes.Placeholder(), nil
	}

	if s.images == nil {
		logger.Debug("No image synthesizer configured, using placeholder")
		return s.scenes.Placeholder(), nil
	}

	image, err := s.images.Synthesize(ctx, prompt)
	if err != nil {
		logger.Warn("Scene synthesis failed for %v: %v", key, err)
		return s.scenes.Placeholder(), nil
	}

	ref, err := s.scenes.Put(ctx, key, image)
	if err != nil {
		logger.Warn("Scene store failed for %v: %v", key, err)
		return s.scenes.Placeholder(), nil
	}

	logger.Info("Scene built: %v -> %s", key, ref)
	return ref, nil
}

// Portrait returns a stable reference to the character's portrait
// image, building and caching it on first access. The same failure
// policy as Scene applies: an unknown character surfaces as
// ErrNotFound, everything after that resolves to the placeholder.
func (s *SceneService) Portrait(ctx context.Context, bookID, characterName string) (string, error) {
	key := driven.PortraitKey{BookID: bookID, CharacterName: characterName}

	ref, err, _ := s.group.Do("portrait/"+bookID+"/"+characterName,
		func() (any, error) {
			return s.resolvePortrait(ctx, key)
		})
	if err != nil {
		return "", err
	}
	return ref.(string), nil
}

func (s *SceneService) resolvePortrait(ctx context.Context, key driven.PortraitKey) (string, error) {
	if ref, ok, err := s.scenes.GetPortrait(ctx, key); err == nil && ok {
		logger.Debug("Portrait cache hit: %v", key)
		return ref, nil
	}

	character, err := s.bookStore.GetCharacter(ctx, key.BookID, key.CharacterName)
	if err != nil {
		return "", fmt.Errorf("get character %q: %w", key.CharacterName, err)
	}

	logger.Debug("Portrait cache miss: %v, building", key)

	if s.images == nil {
		logger.Debug("No image synthesizer configured, using placeholder")
		return s.scenes.Placeholder(), nil
	}

	image, err := s.images.Synthesize(ctx, portraitPrompt(character))
	if err != nil {
		logger.Warn("Portrait synthesis failed for %v: %v", key, err)
		return s.scenes.Placeholder(), nil
	}

	ref, err := s.scenes.PutPortrait(ctx, key, image)
	if err != nil {
		logger.Warn("Portrait store failed for %v: %v", key, err)
		return s.scenes.Placeholder(), nil
	}

	logger.Info("Portrait built: %v -> %s", key, ref)
	return ref, nil
}

// portraitPrompt builds the image prompt directly from the roster
// record. Unlike scenes there is no description step: the roster's
// appearance and personality fields already describe the character.
func portraitPrompt(c *domain.Character) string {
	return fmt.Sprintf(
		"Your role is to generate the portrait of a fictional character from a book. Details about the character are provided below. Use these details to generate image: Portrait of %s, %s, role: %s. Physical appearance: %s. Personality: %s. Art style of generated image: detailed fantasy storybook illustration, warm lighting, expressive portrait.",
		c.Name,
		orUnspecified(c.Gender, "unspecified gender"),
		orUnspecified(c.Role.String(), "unspecified role"),
		orUnspecified(c.Appearance, "unspecified appearance"),
		orUnspecified(c.Personality, "unspecified personality"))
}

func orUnspecified(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

// describeScene builds the image prompt from the event's label and
// synopsis, the literal text slice its anchors address, the book's
// inferred setting, the character roster and the running summary
// truncated to chapters strictly before this one.
func (s *SceneService) describeScene(
	ctx context.Context, book *domain.Book, chapter *domain.Chapter, event *domain.Event,
) (string, error) {
	if s.llm == nil {
		return "", domain.ErrLLMUnavailable
	}

	genres, period, setting := "unspecified", "unspecified", "unspecified"
	if book.Metadata != nil {
		genres = strings.Join(book.Metadata.Genres, ", ")
		period = book.Metadata.TimePeriod
		setting = book.Metadata.Setting
	}

	characters, err := s.bookStore.ListCharacters(ctx, book.ID)
	if err != nil {
		return "", fmt.Errorf("list characters: %w", err)
	}

	template := loadPrompt(s.promptStore, driven.PromptSceneDescription, defaultSceneDescriptionPrompt)

	messages := []driven.ChatMessage{
		{Role: "system", Content: fmt.Sprintf(template, book.Title)},
		{Role: "user", Content: fmt.Sprintf(
			"MAIN EVENT INFORMATION FOR GENERATION:\nEvent label: %s\nEvent synopsis: %s\nEvent extract from book:\n\n%s\n\nBook setting:\n\nThe book's events occur primarily in the %s time period. The primary setting of the book is %s and the main genres of the book are %s.\n\nEXTRA CONTEXT FOR MAIN EVENT INFORMATION:\nCONTEXT 1:\n%s\n\nCONTEXT 2:\n%s\n\nPROMPT FOR IMAGE GENERATION:",
			event.Label, event.Synopsis, chapter.EventText(event.Number),
			period, setting, genres,
			book.SummaryBefore(chapter.Number), characterContext(characters))},
	}

	prompt, err := s.llm.Chat(ctx, messages, driven.ChatOptions{Temperature: 0.5})
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrOracleFailure, err)
	}
	return strings.TrimSpace(prompt), nil
}
