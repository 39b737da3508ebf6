// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
//
// These are the capabilities the core consumes but does not implement:
// the language model, the embedding service, the embedding index, the
// book store, image synthesis and the scene cache. Adapters under
// internal/adapters/driven implement them.
package driven
