// Package domain defines the core business entities for Bookwyrm.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Book: An ingested book with its derived artifacts
//   - Chapter: One paragraph-addressed chapter of a book
//   - Character: A roster member persisted after analysis
//   - Event: A contiguous span of chapter paragraphs
//   - Chunk: A retrieval unit stored in the embedding index
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
