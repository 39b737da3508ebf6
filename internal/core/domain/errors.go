package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrOracleFailure indicates a transport, quota or schema-conformance
	// failure from the language model. Analysis stages do not retry; the
	// error propagates to whoever started the stage.
	ErrOracleFailure = errors.New("oracle failure")

	// ErrMalformedOutput indicates model output that violates an invariant
	// this core enforces and for which no safe local default exists.
	ErrMalformedOutput = errors.New("malformed model output")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// Analysis and question answering are disabled without it.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Indexing and semantic retrieval are disabled without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrVectorIndexUnavailable indicates the embedding index is not configured.
	// Both retrieval strategies read from it, so retrieval is disabled.
	ErrVectorIndexUnavailable = errors.New("vector index unavailable")

	// ErrAnalysisIncomplete indicates a derived artifact was requested
	// before the ingestion pass that produces it has run.
	ErrAnalysisIncomplete = errors.New("analysis incomplete")
)
