package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/homecare-labs/caremem-go/pkg/embedder"
	"github.com/homecare-labs/caremem-go/pkg/extractor"
	"github.com/homecare-labs/caremem-go/pkg/recordstore"
	"github.com/homecare-labs/caremem-go/pkg/utils/logging"
	"github.com/homecare-labs/caremem-go/pkg/vectorindex"
)

// Thresholds and windows of the write and summary paths.
const (
	// contradictionScoreThreshold gates the validated write path: an
	// existing memory only counts as a contradiction target when its
	// relevance to the candidate exceeds this score.
	contradictionScoreThreshold = 0.9

	// contradictionCandidates is how many same-category memories the
	// validated path inspects.
	contradictionCandidates = 2

	// observationWindow is the lookback for recent observations in a
	// patient summary.
	observationWindow = 30 * 24 * time.Hour

	// observationLimit caps recent observations in a patient summary.
	observationLimit = 10
)

// Manager orchestrates the memory lifecycle: extraction, embedding, the
// dual write to record store and vector index, retrieval, and aggregation.
//
// Writes are atomic per fact, not per conversation. A failing fact aborts
// the call and surfaces the error; earlier facts of the same conversation
// stay committed.
type Manager struct {
	records   recordstore.RecordStore
	index     vectorindex.Index
	extractor extractor.Provider
	embedder  embedder.Provider
	logger    *slog.Logger
}

// NewManager creates a manager from its four collaborators.
func NewManager(records recordstore.RecordStore, index vectorindex.Index, ext extractor.Provider, emb embedder.Provider) (*Manager, error) {
	if records == nil || index == nil || ext == nil || emb == nil {
		return nil, NewMemoryError("NewManager", fmt.Errorf("%w: all components are required", ErrInvalidConfig))
	}
	return &Manager{
		records:   records,
		index:     index,
		extractor: ext,
		embedder:  emb,
		logger:    logging.Default(),
	}, nil
}

// AddMemory extracts facts from a conversation, an ordered sequence of
// caregiver message turns, and stores them for the patient. Critical facts
// go through the validated path, which may resolve to an update of an
// existing contradicted memory instead of an insert.
//
// The result counts every processed fact, updates included, and lists the
// affected memory IDs in processing order. A conversation with nothing
// worth remembering yields a zero result, not an error.
func (m *Manager) AddMemory(ctx context.Context, patientID string, conversation []string) (*AddMemoryResult, error) {
	if strings.TrimSpace(patientID) == "" {
		return nil, NewMemoryError("AddMemory", fmt.Errorf("%w: patient_id is required", ErrInvalidInput))
	}
	if len(conversation) == 0 {
		return nil, NewMemoryError("AddMemory", fmt.Errorf("%w: conversation must have at least one message", ErrInvalidInput))
	}

	facts, err := m.extractor.Extract(ctx, conversation)
	if err != nil {
		return nil, NewMemoryError("AddMemory", fmt.Errorf("%w: %v", ErrExtractionFailed, err))
	}

	result := &AddMemoryResult{
		MemoryIDs: []string{},
	}
	if len(facts) == 0 {
		return result, nil
	}

	contents := make([]string, len(facts))
	for i, fact := range facts {
		contents[i] = fact.Content
	}

	embeddings, err := m.embedder.EmbedBatch(ctx, contents)
	if err != nil {
		return nil, NewMemoryError("AddMemory", fmt.Errorf("%w: %v", ErrEmbeddingFailed, err))
	}

	for i, fact := range facts {
		extracted := factToExtractedMemory(fact)

		if extracted.Priority == PriorityCritical {
			id, updated, err := m.resolveContradiction(ctx, patientID, extracted, embeddings[i])
			if err != nil {
				return nil, NewMemoryError("AddMemory", err)
			}
			if updated {
				result.MemoriesCreated++
				result.MemoryIDs = append(result.MemoryIDs, id)
				continue
			}
		}

		id, err := m.insertMemory(ctx, patientID, extracted, embeddings[i])
		if err != nil {
			return nil, NewMemoryError("AddMemory", err)
		}

		result.MemoriesCreated++
		result.MemoryIDs = append(result.MemoryIDs, id)
	}

	return result, nil
}

// resolveContradiction runs the validated write path for a critical fact.
// It inspects the top same-category memories of the patient in their
// priority-then-recency order; when the first one is both highly similar
// and contradicted by the candidate, that memory is updated in place.
// Returns the updated memory ID and true when that happened; an error on
// this path fails the whole call.
func (m *Manager) resolveContradiction(ctx context.Context, patientID string, extracted *ExtractedMemory, embedding []float64) (string, bool, error) {
	candidates, err := m.searchByVector(ctx, patientID, embedding, contradictionCandidates, extracted.Category)
	if err != nil {
		return "", false, err
	}
	if len(candidates) == 0 {
		return "", false, nil
	}

	top := candidates[0]
	if top.RelevanceScore <= contradictionScoreThreshold {
		return "", false, nil
	}
	if !IsContradiction(extracted, top.Memory) {
		return "", false, nil
	}

	m.logger.Info("contradiction detected, updating existing memory",
		slog.String("patient_id", patientID),
		slog.String("memory_id", top.Memory.ID),
		slog.String("category", string(extracted.Category)),
	)

	if _, err := m.UpdateMemory(ctx, top.Memory.ID, extracted.Content); err != nil {
		return "", false, err
	}

	return top.Memory.ID, true, nil
}

// insertMemory writes one fact as a new memory: record row first, then the
// index entry. If the index write fails the row is soft-deleted again so the
// stores stay paired.
func (m *Manager) insertMemory(ctx context.Context, patientID string, extracted *ExtractedMemory, embedding []float64) (string, error) {
	now := time.Now().UTC()
	memory := &Memory{
		ID:        uuid.NewString(),
		PatientID: patientID,
		Category:  extracted.Category,
		Priority:  extracted.Priority,
		Content:   extracted.Content,
		Metadata:  extracted.Metadata,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := m.records.Insert(ctx, memoryToRecord(memory)); err != nil {
		return "", fmt.Errorf("%w: %v", ErrStorageOperation, err)
	}

	if err := m.index.Add(ctx, memory.ID, embedding, indexMetadata(memory)); err != nil {
		if delErr := m.records.Delete(ctx, memory.ID); delErr != nil {
			m.logger.Error("failed to roll back record after index failure",
				slog.String("memory_id", memory.ID),
				slog.String("error", delErr.Error()),
			)
		}
		return "", fmt.Errorf("%w: %v", ErrVectorIndexOperation, err)
	}

	return memory.ID, nil
}

// SearchMemory performs semantic retrieval over the patient's memories.
//
// Candidates come from the vector index; the final ordering is priority rank
// first, then recency. Relevance scores are carried on the results but do
// not drive the ordering.
func (m *Manager) SearchMemory(ctx context.Context, patientID, query string, opts ...SearchOption) (*SearchMemoryResult, error) {
	if strings.TrimSpace(patientID) == "" {
		return nil, NewMemoryError("SearchMemory", fmt.Errorf("%w: patient_id is required", ErrInvalidInput))
	}
	if strings.TrimSpace(query) == "" {
		return nil, NewMemoryError("SearchMemory", fmt.Errorf("%w: query is required", ErrInvalidInput))
	}

	options := newSearchOptions(opts...)
	if options.limit < MinSearchLimit || options.limit > MaxSearchLimit {
		return nil, NewMemoryError("SearchMemory", fmt.Errorf("%w: limit must be between %d and %d", ErrInvalidInput, MinSearchLimit, MaxSearchLimit))
	}
	if options.category != "" && !options.category.Valid() {
		return nil, NewMemoryError("SearchMemory", fmt.Errorf("%w: unknown category %q", ErrInvalidInput, options.category))
	}

	embedding, err := m.embedder.Embed(ctx, query)
	if err != nil {
		return nil, NewMemoryError("SearchMemory", fmt.Errorf("%w: %v", ErrEmbeddingFailed, err))
	}

	results, err := m.searchByVector(ctx, patientID, embedding, options.limit, options.category)
	if err != nil {
		return nil, NewMemoryError("SearchMemory", err)
	}

	return &SearchMemoryResult{
		Results: results,
		Total:   len(results),
	}, nil
}

// searchByVector retrieves up to k memories nearest to the embedding,
// scoped to the patient and optionally one category. Results come back in
// priority-then-recency order with relevance scores attached.
func (m *Manager) searchByVector(ctx context.Context, patientID string, embedding []float64, k int, category MemoryCategory) ([]*MemorySearchResult, error) {
	where := map[string]string{
		vectorindex.MetaPatientID: patientID,
	}
	if category != "" {
		where[vectorindex.MetaCategory] = string(category)
	}

	hits, err := m.index.Query(ctx, embedding, k, where)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVectorIndexOperation, err)
	}
	if len(hits) == 0 {
		return []*MemorySearchResult{}, nil
	}

	ids := make([]string, len(hits))
	scores := make(map[string]float64, len(hits))
	for i, hit := range hits {
		ids[i] = hit.ID
		scores[hit.ID] = relevanceScore(hit.Distance)
	}

	getOpts := &recordstore.GetByIDsOptions{}
	if category != "" {
		getOpts.Category = string(category)
	}

	records, err := m.records.GetByIDs(ctx, ids, getOpts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageOperation, err)
	}

	// The record store already orders by priority rank then recency and
	// drops soft-deleted rows, so index entries without a live row simply
	// fall out here.
	results := make([]*MemorySearchResult, 0, len(records))
	for _, record := range records {
		if len(results) == k {
			break
		}
		results = append(results, &MemorySearchResult{
			Memory:         recordToMemory(record),
			RelevanceScore: scores[record.ID],
		})
	}

	return results, nil
}

// UpdateMemory replaces the content of an existing memory and refreshes its
// index entry. Category, priority, and patient binding never change.
func (m *Manager) UpdateMemory(ctx context.Context, memoryID, content string) (*Memory, error) {
	if strings.TrimSpace(memoryID) == "" {
		return nil, NewMemoryError("UpdateMemory", fmt.Errorf("%w: memory_id is required", ErrInvalidInput))
	}
	if strings.TrimSpace(content) == "" {
		return nil, NewMemoryError("UpdateMemory", fmt.Errorf("%w: content is required", ErrInvalidInput))
	}
	if len([]rune(content)) > MaxContentLength {
		return nil, NewMemoryError("UpdateMemory", fmt.Errorf("%w: content exceeds %d characters", ErrInvalidInput, MaxContentLength))
	}

	embedding, err := m.embedder.Embed(ctx, content)
	if err != nil {
		return nil, NewMemoryError("UpdateMemory", fmt.Errorf("%w: %v", ErrEmbeddingFailed, err))
	}

	record, err := m.records.Update(ctx, memoryID, content)
	if err != nil {
		if errors.Is(err, recordstore.ErrNotFound) {
			return nil, NewMemoryError("UpdateMemory", ErrNotFound)
		}
		return nil, NewMemoryError("UpdateMemory", fmt.Errorf("%w: %v", ErrStorageOperation, err))
	}

	memory := recordToMemory(record)

	if err := m.index.Update(ctx, memory.ID, embedding, indexMetadata(memory)); err != nil {
		return nil, NewMemoryError("UpdateMemory", fmt.Errorf("%w: %v", ErrVectorIndexOperation, err))
	}

	return memory, nil
}

// DeleteMemory soft-deletes a memory and removes its index entry.
func (m *Manager) DeleteMemory(ctx context.Context, memoryID string) error {
	if strings.TrimSpace(memoryID) == "" {
		return NewMemoryError("DeleteMemory", fmt.Errorf("%w: memory_id is required", ErrInvalidInput))
	}

	if err := m.records.Delete(ctx, memoryID); err != nil {
		if errors.Is(err, recordstore.ErrNotFound) {
			return NewMemoryError("DeleteMemory", ErrNotFound)
		}
		return NewMemoryError("DeleteMemory", fmt.Errorf("%w: %v", ErrStorageOperation, err))
	}

	if err := m.index.Delete(ctx, memoryID); err != nil {
		return NewMemoryError("DeleteMemory", fmt.Errorf("%w: %v", ErrVectorIndexOperation, err))
	}

	return nil
}

// GetPatientSummary aggregates the patient's active memories: totals,
// per-category counts, and recent observations from the last 30 days.
func (m *Manager) GetPatientSummary(ctx context.Context, patientID string) (*PatientSummary, error) {
	if strings.TrimSpace(patientID) == "" {
		return nil, NewMemoryError("GetPatientSummary", fmt.Errorf("%w: patient_id is required", ErrInvalidInput))
	}

	counts, err := m.records.CountByPatient(ctx, patientID)
	if err != nil {
		return nil, NewMemoryError("GetPatientSummary", fmt.Errorf("%w: %v", ErrStorageOperation, err))
	}

	since := time.Now().UTC().Add(-observationWindow)
	recent, err := m.records.RecentByCategory(ctx, patientID, string(CategoryObservation), since, observationLimit)
	if err != nil {
		return nil, NewMemoryError("GetPatientSummary", fmt.Errorf("%w: %v", ErrStorageOperation, err))
	}

	observations := make([]*Memory, 0, len(recent))
	for _, record := range recent {
		observations = append(observations, recordToMemory(record))
	}

	return &PatientSummary{
		PatientID:          patientID,
		TotalMemories:      counts.Total,
		CriticalMemories:   counts.Critical,
		MemoriesByCategory: counts.ByCategory,
		RecentObservations: observations,
	}, nil
}

// Close closes all underlying components. The first error is returned but
// every component gets a close attempt.
func (m *Manager) Close() error {
	var firstErr error
	for _, closer := range []func() error{
		m.extractor.Close,
		m.embedder.Close,
		m.index.Close,
		m.records.Close,
	} {
		if err := closer(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// relevanceScore converts a bounded vector distance in [0,2] into a
// relevance score in [0,1].
func relevanceScore(distance float64) float64 {
	score := 1.0 - distance/2.0
	if score < 0 {
		return 0
	}
	return score
}

// indexMetadata builds the index entry metadata for a memory.
func indexMetadata(memory *Memory) map[string]string {
	return map[string]string{
		vectorindex.MetaPatientID: memory.PatientID,
		vectorindex.MetaCategory:  string(memory.Category),
	}
}
