// Package core provides the memory manager and domain types for
// patient-scoped care memories.
package core

import (
	"errors"
	"fmt"
)

// Predefined errors for common failure scenarios.
var (
	// ErrNotFound indicates that a requested memory does not exist or is
	// soft-deleted.
	ErrNotFound = errors.New("memory not found")

	// ErrInvalidConfig indicates that the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrInvalidInput indicates that the provided input is invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrExtractionFailed indicates that the extraction service call failed.
	ErrExtractionFailed = errors.New("memory extraction failed")

	// ErrEmbeddingFailed indicates that embedding generation failed.
	ErrEmbeddingFailed = errors.New("embedding generation failed")

	// ErrStorageOperation indicates that a record store operation failed.
	ErrStorageOperation = errors.New("record store operation failed")

	// ErrVectorIndexOperation indicates that a vector index operation failed.
	ErrVectorIndexOperation = errors.New("vector index operation failed")
)

// MemoryError wraps errors with operation context.
//
// It records which operation failed so a caller can tell the failing stage
// apart (extraction, embedding, record store, vector index).
//
// Example:
//
//	err := &MemoryError{
//	    Op:  "AddMemory",
//	    Err: ErrEmbeddingFailed,
//	}
//	// Error() returns: "caremem: AddMemory: embedding generation failed"
type MemoryError struct {
	// Op is the name of the operation that failed.
	Op string

	// Err is the underlying error.
	Err error
}

// Error returns a formatted error message.
//
// The format is: "caremem: <Op>: <Err>"
func (e *MemoryError) Error() string {
	return fmt.Sprintf("caremem: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
//
// This allows using errors.Is() and errors.As() with MemoryError.
func (e *MemoryError) Unwrap() error {
	return e.Err
}

// NewMemoryError creates a new MemoryError wrapping the given error.
//
// If err is nil, returns nil. This allows safe error wrapping:
//
//	if err != nil {
//	    return NewMemoryError("AddMemory", err)
//	}
func NewMemoryError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &MemoryError{
		Op:  op,
		Err: err,
	}
}
