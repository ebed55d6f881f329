// Package vectorindex provides interfaces and types for the embedding
// index.
//
// The index is a derived, rebuildable projection of the record store: one
// entry per non-deleted memory, keyed by the memory ID and tagged with the
// patient ID for scoping. Losing that pairing is a consistency defect.
package vectorindex

import "context"

// Metadata keys attached to every index entry.
const (
	// MetaPatientID scopes entries to a patient. Every read and write
	// must carry it; patient isolation depends entirely on this tag.
	MetaPatientID = "patient_id"

	// MetaCategory records the memory category of the entry.
	MetaCategory = "category"
)

// Hit is a single nearest-neighbor match.
type Hit struct {
	// ID is the memory identifier of the matched entry.
	ID string

	// Distance is a bounded distance in [0,2]; 0 means identical.
	// Relevance is derived as max(0, 1 - distance/2).
	Distance float64

	// Metadata is the entry's metadata at query time.
	Metadata map[string]string
}

// Index defines the interface for vector index backends.
type Index interface {
	// Add inserts an entry under the given ID.
	Add(ctx context.Context, id string, vector []float64, metadata map[string]string) error

	// Update replaces the entry's vector and metadata in place, keeping
	// the same ID.
	Update(ctx context.Context, id string, vector []float64, metadata map[string]string) error

	// Delete removes the entry with the given ID. Removing a missing
	// entry is not an error.
	Delete(ctx context.Context, id string) error

	// Query returns up to k nearest entries matching the metadata
	// filter, closest first. An empty index yields an empty result.
	Query(ctx context.Context, vector []float64, k int, where map[string]string) ([]Hit, error)

	// Close closes the index and releases resources.
	Close() error
}
