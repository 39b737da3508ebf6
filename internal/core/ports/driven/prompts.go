package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files, embed them in the binary,
// or fetch them from a remote configuration service.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// Returns the prompt content and any error encountered.
	// If the prompt is not found, implementations should return a sensible default
	// or an error, depending on whether the prompt is required.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names used throughout the application.
// These constants define the contract between prompt consumers and providers.
const (
	// PromptSummariseChapter digests one chapter against the running summary.
	// The template expects %s (book title) placeholders; see the embedded default.
	PromptSummariseChapter = "summarise_chapter"

	// PromptRosterUpdate updates the in-flight character roster from one chapter.
	// The template expects %s (book title) and %d (roster capacity) placeholders.
	PromptRosterUpdate = "roster_update"

	// PromptRosterFinalize parses the final roster text into structured records.
	PromptRosterFinalize = "roster_finalize"

	// PromptSegmentEvents splits a numbered chapter into events.
	PromptSegmentEvents = "segment_events"

	// PromptRelationships extracts the character relationship graph.
	PromptRelationships = "relationships"

	// PromptBookMetadata infers book metadata from the finished summary.
	// The template expects a %s (book title) placeholder.
	PromptBookMetadata = "book_metadata"

	// PromptSceneDescription turns an event into an image generation prompt.
	// The template expects a %s (book title) placeholder.
	PromptSceneDescription = "scene_description"

	// PromptAnswerSystem is the system prompt for question answering.
	// The template expects a %s (retrieved context) placeholder.
	PromptAnswerSystem = "answer_system"
)

// PromptStoreAware is an optional interface for services that can use custom prompts.
// Services implementing this interface can have their prompt templates customised
// by injecting a PromptStore after construction.
type PromptStoreAware interface {
	// SetPromptStore sets the prompt store for loading customisable prompts.
	// If not set, the service should use hardcoded default prompts.
	SetPromptStore(store PromptStore)
}
