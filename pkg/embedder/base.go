// Package embedder provides interfaces for text embedding providers.
//
// The embedding gateway turns memory content and search queries into
// fixed-dimension vectors for the index. Batch calls preserve input order:
// vector i always corresponds to text i.
package embedder

import "context"

// Provider defines the interface for embedding providers.
type Provider interface {
	// Embed converts a single text into a vector embedding.
	Embed(ctx context.Context, text string) ([]float64, error)

	// EmbedBatch converts multiple texts into vector embeddings in one
	// call, preserving input order. Preferred on the write path where a
	// conversation yields several facts at once.
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)

	// Dimensions returns the dimension of the vectors this provider
	// produces.
	Dimensions() int

	// Close closes the provider and releases resources.
	Close() error
}
