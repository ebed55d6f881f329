// Package recordstore provides interfaces and types for relational memory
// storage backends.
//
// The record store is the system of record for memory content. It defines
// the RecordStore interface that all backends (SQLite, PostgreSQL, MySQL)
// must satisfy. Embeddings live in the vector index, not here.
package recordstore

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no non-deleted record matches the given ID.
var ErrNotFound = errors.New("record not found")

// Record is a memory row as stored in the relational backend.
//
// This type is defined in the recordstore package to avoid circular
// dependencies with the core package. It mirrors the core.Memory structure.
type Record struct {
	// ID is the unique identifier of the record.
	ID string

	// PatientID identifies the patient who owns this record.
	PatientID string

	// Category is the memory category value.
	Category string

	// Priority is the memory priority value.
	Priority string

	// Content is the fact text.
	Content string

	// Metadata contains additional structured information, stored as JSON.
	Metadata map[string]interface{}

	// CreatedAt is when the record was created.
	CreatedAt time.Time

	// UpdatedAt is when the record content was last updated.
	UpdatedAt time.Time

	// DeletedAt is the soft-delete marker (nil for live records).
	DeletedAt *time.Time
}

// PatientCounts aggregates non-deleted record counts for one patient.
type PatientCounts struct {
	// Total is the number of non-deleted records.
	Total int

	// Critical is the number of non-deleted critical-priority records.
	Critical int

	// ByCategory maps category value to non-deleted record count.
	ByCategory map[string]int
}

// GetByIDsOptions contains filters for GetByIDs.
type GetByIDsOptions struct {
	// Category restricts results to a single category when non-empty.
	Category string
}

// RecordStore defines the interface for relational storage backends.
//
// All implementations must exclude soft-deleted rows from reads and order
// multi-row results server-side: priority rank ascending (critical=1,
// high=2, normal=3), then creation time descending.
type RecordStore interface {
	// Insert inserts a new record.
	Insert(ctx context.Context, record *Record) error

	// GetByIDs retrieves the non-deleted records among the given IDs,
	// optionally filtered by category, ordered by priority rank then
	// recency.
	GetByIDs(ctx context.Context, ids []string, opts *GetByIDsOptions) ([]*Record, error)

	// Update replaces the content of a non-deleted record and refreshes
	// its updated_at timestamp. Returns ErrNotFound if no such record
	// exists. Category and priority are never changed.
	Update(ctx context.Context, id string, content string) (*Record, error)

	// Delete soft-deletes a record by setting deleted_at. Returns
	// ErrNotFound if the record does not exist or is already deleted.
	Delete(ctx context.Context, id string) error

	// CountByPatient returns total, critical, and per-category counts of
	// the patient's non-deleted records.
	CountByPatient(ctx context.Context, patientID string) (*PatientCounts, error)

	// RecentByCategory returns up to limit non-deleted records of the
	// given category created at or after since, newest first.
	RecentByCategory(ctx context.Context, patientID, category string, since time.Time, limit int) ([]*Record, error)

	// Close closes the store and releases resources.
	Close() error
}
