package services

import "github.com/bookwyrm-labs/bookwyrm-cli/internal/core/ports/driven"

// DefaultPrompts returns the compiled-in prompt templates keyed by
// well-known name. Prompt stores use this to seed user-editable files;
// the services fall back to these when no store is wired.
func DefaultPrompts() map[string]string {
	return map[string]string{
		driven.PromptSummariseChapter: defaultSummariseChapterPrompt,
		driven.PromptRosterUpdate:     defaultRosterUpdatePrompt,
		driven.PromptRosterFinalize:   defaultRosterFinalizePrompt,
		driven.PromptSegmentEvents:    defaultSegmentEventsPrompt,
		driven.PromptRelationships:    defaultRelationshipsPrompt,
		driven.PromptBookMetadata:     defaultBookMetadataPrompt,
		driven.PromptSceneDescription: defaultSceneDescriptionPrompt,
		driven.PromptAnswerSystem:     defaultAnswerSystemPrompt,
	}
}
