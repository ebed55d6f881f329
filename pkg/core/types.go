// Package core provides the memory manager and domain types for
// patient-scoped care memories.
package core

import "time"

// MemoryCategory classifies what kind of fact a memory records.
type MemoryCategory string

const (
	// CategoryMedicalHistory covers conditions and diagnoses.
	CategoryMedicalHistory MemoryCategory = "medical_history"

	// CategoryAllergy covers allergies. Always safety critical.
	CategoryAllergy MemoryCategory = "allergy"

	// CategoryMedication covers current medications and dosages.
	CategoryMedication MemoryCategory = "medication"

	// CategoryPreference covers dietary and comfort preferences.
	CategoryPreference MemoryCategory = "preference"

	// CategoryObservation covers caregiver notes.
	CategoryObservation MemoryCategory = "observation"

	// CategoryAppointment covers medical appointments.
	CategoryAppointment MemoryCategory = "appointment"
)

// Valid reports whether the category is a known value.
func (c MemoryCategory) Valid() bool {
	switch c {
	case CategoryMedicalHistory, CategoryAllergy, CategoryMedication,
		CategoryPreference, CategoryObservation, CategoryAppointment:
		return true
	}
	return false
}

// Priority is the safety-relevance tier of a memory.
//
// Priority controls both the write path (critical facts go through the
// contradiction-checked validated path) and the read path (critical facts
// sort before merely similar ones).
type Priority string

const (
	// PriorityCritical is for allergies and critical medications.
	PriorityCritical Priority = "critical"

	// PriorityHigh is for medical conditions.
	PriorityHigh Priority = "high"

	// PriorityNormal is for preferences and observations.
	PriorityNormal Priority = "normal"
)

// Valid reports whether the priority is a known value.
func (p Priority) Valid() bool {
	switch p {
	case PriorityCritical, PriorityHigh, PriorityNormal:
		return true
	}
	return false
}

// Rank returns the sort rank of the priority: critical=1, high=2, normal=3.
// Lower ranks sort first in search results.
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 1
	case PriorityHigh:
		return 2
	default:
		return 3
	}
}

// MaxContentLength is the upper bound on memory content, in characters.
const MaxContentLength = 2000

// Memory is a single structured fact about a patient, persisted until
// soft-deleted.
//
// The relational record store is the system of record for a Memory; the
// vector index holds a derived embedding entry under the same ID, tagged
// with the patient ID for scoping.
type Memory struct {
	// ID is the opaque unique identifier, generated at creation.
	ID string `json:"id"`

	// PatientID scopes the memory. All reads and writes filter on it.
	PatientID string `json:"patient_id"`

	// Category classifies the fact. Immutable after creation.
	Category MemoryCategory `json:"category"`

	// Priority is derived once at extraction time. Immutable.
	Priority Priority `json:"priority"`

	// Content is the fact text, 1-2000 characters. Mutable via update.
	Content string `json:"content"`

	// Metadata holds additional context (dosage, frequency, dates).
	// Values are scalars: string, number, or boolean.
	Metadata map[string]interface{} `json:"metadata,omitempty"`

	// CreatedAt is set once at creation.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is refreshed on every content mutation.
	UpdatedAt time.Time `json:"updated_at"`

	// DeletedAt marks a soft-deleted memory. Never cleared once set.
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// ExtractedMemory is a transient fact proposed by the extraction service.
// It is never persisted directly; it either becomes a new Memory or, on the
// validated path, triggers an update of an existing one.
type ExtractedMemory struct {
	Category MemoryCategory         `json:"category"`
	Priority Priority               `json:"priority"`
	Content  string                 `json:"content"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// MemorySearchResult pairs a memory with its relevance score for one query.
// Assembled at query time only, never stored.
type MemorySearchResult struct {
	Memory *Memory `json:"memory"`

	// RelevanceScore is the normalized vector similarity in [0,1].
	// It is carried for consumers but is not the sort key; priority and
	// recency dominate the final ordering.
	RelevanceScore float64 `json:"relevance_score"`
}

// AddMemoryResult reports the outcome of adding memories from a
// conversation.
type AddMemoryResult struct {
	// MemoriesCreated counts processed facts, including facts that
	// resolved to an update of an existing memory.
	MemoriesCreated int `json:"memories_created"`

	// MemoryIDs lists the affected memory IDs in processing order.
	MemoryIDs []string `json:"memory_ids"`
}

// SearchMemoryResult is an ordered page of search hits.
type SearchMemoryResult struct {
	Results []*MemorySearchResult `json:"results"`
	Total   int                   `json:"total"`
}

// PatientSummary is the aggregate view of a patient's active memories.
type PatientSummary struct {
	PatientID        string `json:"patient_id"`
	TotalMemories    int    `json:"total_memories"`
	CriticalMemories int    `json:"critical_memories"`

	// MemoriesByCategory counts non-deleted memories per category.
	MemoriesByCategory map[string]int `json:"memories_by_category"`

	// RecentObservations holds up to 10 observation memories created in
	// the last 30 days, newest first.
	RecentObservations []*Memory `json:"recent_observations"`
}
