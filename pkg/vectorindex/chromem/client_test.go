package chromem_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homecare-labs/caremem-go/pkg/vectorindex"
	"github.com/homecare-labs/caremem-go/pkg/vectorindex/chromem"
)

func setupTestIndex(t *testing.T) *chromem.Client {
	t.Helper()

	client, err := chromem.NewClient(&chromem.Config{
		CollectionName: "test_memories",
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = client.Close()
	})

	return client
}

func metadata(patientID, category string) map[string]string {
	return map[string]string{
		vectorindex.MetaPatientID: patientID,
		vectorindex.MetaCategory:  category,
	}
}

func TestAddAndQuery(t *testing.T) {
	index := setupTestIndex(t)
	ctx := context.Background()

	require.NoError(t, index.Add(ctx, "mem-1", []float64{1, 0, 0}, metadata("patient-1", "allergy")))
	require.NoError(t, index.Add(ctx, "mem-2", []float64{0, 1, 0}, metadata("patient-1", "observation")))

	hits, err := index.Query(ctx, []float64{1, 0, 0}, 2, map[string]string{
		vectorindex.MetaPatientID: "patient-1",
	})
	require.NoError(t, err)
	require.Len(t, hits, 2)

	// Closest first; identical vector has distance ~0.
	assert.Equal(t, "mem-1", hits[0].ID)
	assert.InDelta(t, 0.0, hits[0].Distance, 1e-6)
	assert.Equal(t, "mem-2", hits[1].ID)
	assert.Greater(t, hits[1].Distance, hits[0].Distance)
	assert.Equal(t, "allergy", hits[0].Metadata[vectorindex.MetaCategory])
}

func TestQueryPatientFilter(t *testing.T) {
	index := setupTestIndex(t)
	ctx := context.Background()

	require.NoError(t, index.Add(ctx, "mem-1", []float64{1, 0, 0}, metadata("patient-1", "observation")))
	require.NoError(t, index.Add(ctx, "mem-2", []float64{1, 0, 0}, metadata("patient-2", "observation")))

	hits, err := index.Query(ctx, []float64{1, 0, 0}, 5, map[string]string{
		vectorindex.MetaPatientID: "patient-1",
	})
	require.NoError(t, err)

	require.Len(t, hits, 1)
	assert.Equal(t, "mem-1", hits[0].ID)
}

func TestQueryCategoryFilter(t *testing.T) {
	index := setupTestIndex(t)
	ctx := context.Background()

	require.NoError(t, index.Add(ctx, "mem-1", []float64{1, 0, 0}, metadata("patient-1", "allergy")))
	require.NoError(t, index.Add(ctx, "mem-2", []float64{1, 0, 0}, metadata("patient-1", "preference")))

	hits, err := index.Query(ctx, []float64{1, 0, 0}, 5, map[string]string{
		vectorindex.MetaPatientID: "patient-1",
		vectorindex.MetaCategory:  "allergy",
	})
	require.NoError(t, err)

	require.Len(t, hits, 1)
	assert.Equal(t, "mem-1", hits[0].ID)
}

func TestQueryEmptyIndex(t *testing.T) {
	index := setupTestIndex(t)

	hits, err := index.Query(context.Background(), []float64{1, 0, 0}, 3, nil)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestQueryClampsLimit(t *testing.T) {
	index := setupTestIndex(t)
	ctx := context.Background()

	require.NoError(t, index.Add(ctx, "mem-1", []float64{1, 0, 0}, metadata("patient-1", "observation")))

	// Asking for more results than stored entries must not fail.
	hits, err := index.Query(ctx, []float64{1, 0, 0}, 10, nil)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestUpdateReplacesEntry(t *testing.T) {
	index := setupTestIndex(t)
	ctx := context.Background()

	require.NoError(t, index.Add(ctx, "mem-1", []float64{1, 0, 0}, metadata("patient-1", "medication")))
	require.NoError(t, index.Update(ctx, "mem-1", []float64{0, 1, 0}, metadata("patient-1", "medication")))

	hits, err := index.Query(ctx, []float64{0, 1, 0}, 5, nil)
	require.NoError(t, err)

	// Still a single entry, now matching the new vector exactly.
	require.Len(t, hits, 1)
	assert.Equal(t, "mem-1", hits[0].ID)
	assert.InDelta(t, 0.0, hits[0].Distance, 1e-6)
}

func TestDelete(t *testing.T) {
	index := setupTestIndex(t)
	ctx := context.Background()

	require.NoError(t, index.Add(ctx, "mem-1", []float64{1, 0, 0}, metadata("patient-1", "observation")))
	require.NoError(t, index.Delete(ctx, "mem-1"))

	hits, err := index.Query(ctx, []float64{1, 0, 0}, 5, nil)
	require.NoError(t, err)
	assert.Empty(t, hits)
}
