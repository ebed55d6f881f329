// Package extractor provides interfaces for fact extraction providers.
//
// An extraction provider turns free-form caregiver conversation text into
// discrete, storable facts. Providers return only well-formed facts; entries
// the model produced that fail validation are dropped individually rather
// than failing the whole extraction.
package extractor

import (
	"context"
	"fmt"
	"strings"
)

// Valid fact categories, mirroring the memory taxonomy.
var validCategories = map[string]bool{
	"medical_history": true,
	"allergy":         true,
	"medication":      true,
	"preference":      true,
	"observation":     true,
	"appointment":     true,
}

// Valid fact priorities.
var validPriorities = map[string]bool{
	"critical": true,
	"high":     true,
	"normal":   true,
}

// MaxContentLength is the maximum fact content length in characters.
const MaxContentLength = 2000

// Fact is a single extracted fact.
type Fact struct {
	// Category classifies the fact (allergy, medication, ...).
	Category string `json:"category"`

	// Priority indicates clinical importance (critical, high, normal).
	Priority string `json:"priority"`

	// Content is the fact text, 1 to 2000 characters.
	Content string `json:"content"`

	// Metadata carries optional scalar attributes of the fact.
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Validate checks that the fact is well formed. A fact is valid when its
// category and priority are known values, its content is non-empty and
// within the length bound, and its metadata values are scalars.
func (f *Fact) Validate() error {
	if !validCategories[f.Category] {
		return fmt.Errorf("invalid category: %q", f.Category)
	}

	if !validPriorities[f.Priority] {
		return fmt.Errorf("invalid priority: %q", f.Priority)
	}

	content := strings.TrimSpace(f.Content)
	if content == "" {
		return fmt.Errorf("content must not be empty")
	}
	if len([]rune(f.Content)) > MaxContentLength {
		return fmt.Errorf("content exceeds %d characters", MaxContentLength)
	}

	for key, value := range f.Metadata {
		switch value.(type) {
		case string, bool, float64, int, int64, nil:
		default:
			return fmt.Errorf("metadata value for %q must be a scalar", key)
		}
	}

	return nil
}

// Provider defines the interface for fact extraction providers.
type Provider interface {
	// Extract extracts facts from a conversation, an ordered sequence of
	// message turns. An empty result means the conversation contained
	// nothing worth remembering; it is not an error.
	Extract(ctx context.Context, conversation []string) ([]*Fact, error)

	// Close closes the provider and releases resources.
	Close() error
}
