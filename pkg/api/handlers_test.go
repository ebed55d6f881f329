package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homecare-labs/caremem-go/pkg/api"
	"github.com/homecare-labs/caremem-go/pkg/core"
)

// stubService records calls and returns canned responses.
type stubService struct {
	addResult    *core.AddMemoryResult
	searchResult *core.SearchMemoryResult
	memory       *core.Memory
	summary      *core.PatientSummary
	err          error

	gotPatientID    string
	gotConversation []string
	gotQuery        string
	gotMemoryID     string
	gotContent      string
	gotOptCount     int
}

func (s *stubService) AddMemory(ctx context.Context, patientID string, conversation []string) (*core.AddMemoryResult, error) {
	s.gotPatientID, s.gotConversation = patientID, conversation
	return s.addResult, s.err
}

func (s *stubService) SearchMemory(ctx context.Context, patientID, query string, opts ...core.SearchOption) (*core.SearchMemoryResult, error) {
	s.gotPatientID, s.gotQuery, s.gotOptCount = patientID, query, len(opts)
	return s.searchResult, s.err
}

func (s *stubService) UpdateMemory(ctx context.Context, memoryID, content string) (*core.Memory, error) {
	s.gotMemoryID, s.gotContent = memoryID, content
	return s.memory, s.err
}

func (s *stubService) DeleteMemory(ctx context.Context, memoryID string) error {
	s.gotMemoryID = memoryID
	return s.err
}

func (s *stubService) GetPatientSummary(ctx context.Context, patientID string) (*core.PatientSummary, error) {
	s.gotPatientID = patientID
	return s.summary, s.err
}

func doRequest(t *testing.T, service api.Service, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	api.New(service).ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := doRequest(t, &stubService{}, http.MethodGet, "/api/v1/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestAddMemory(t *testing.T) {
	service := &stubService{
		addResult: &core.AddMemoryResult{
			MemoriesCreated: 2,
			MemoryIDs:       []string{"id-1", "id-2"},
		},
	}

	rec := doRequest(t, service, http.MethodPost, "/api/v1/memories",
		`{"patient_id": "patient-1", "conversation": ["visit notes", "patient asked for tea"]}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "patient-1", service.gotPatientID)
	assert.Equal(t, []string{"visit notes", "patient asked for tea"}, service.gotConversation)

	var body core.AddMemoryResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.MemoriesCreated)
	assert.Equal(t, []string{"id-1", "id-2"}, body.MemoryIDs)
}

func TestAddMemoryValidation(t *testing.T) {
	rec := doRequest(t, &stubService{}, http.MethodPost, "/api/v1/memories",
		`{"patient_id": "", "conversation": ["note"]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Empty conversation is rejected before the service runs.
	rec = doRequest(t, &stubService{}, http.MethodPost, "/api/v1/memories",
		`{"patient_id": "patient-1", "conversation": []}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, &stubService{}, http.MethodPost, "/api/v1/memories",
		`{"patient_id": "patient-1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, &stubService{}, http.MethodPost, "/api/v1/memories", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchMemory(t *testing.T) {
	service := &stubService{
		searchResult: &core.SearchMemoryResult{
			Results: []*core.MemorySearchResult{
				{
					Memory: &core.Memory{
						ID:        "id-1",
						PatientID: "patient-1",
						Category:  core.CategoryAllergy,
						Priority:  core.PriorityCritical,
						Content:   "Allergic to penicillin",
						CreatedAt: time.Now().UTC(),
						UpdatedAt: time.Now().UTC(),
					},
					RelevanceScore: 0.93,
				},
			},
			Total: 1,
		},
	}

	rec := doRequest(t, service, http.MethodPost, "/api/v1/memories/search",
		`{"patient_id": "patient-1", "query": "allergies", "limit": 5, "category_filter": "allergy"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "patient-1", service.gotPatientID)
	assert.Equal(t, "allergies", service.gotQuery)
	assert.Equal(t, 2, service.gotOptCount)

	var body core.SearchMemoryResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Total)
	assert.Equal(t, "id-1", body.Results[0].Memory.ID)
	assert.InDelta(t, 0.93, body.Results[0].RelevanceScore, 1e-9)
}

func TestSearchMemoryOmittedLimitUsesDefault(t *testing.T) {
	service := &stubService{searchResult: &core.SearchMemoryResult{Results: []*core.MemorySearchResult{}}}

	rec := doRequest(t, service, http.MethodPost, "/api/v1/memories/search",
		`{"patient_id": "patient-1", "query": "tea"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	// No limit and no category means no options passed down.
	assert.Equal(t, 0, service.gotOptCount)
}

func TestSearchMemoryLimitValidation(t *testing.T) {
	for _, limit := range []string{"0", "11", "-1"} {
		rec := doRequest(t, &stubService{}, http.MethodPost, "/api/v1/memories/search",
			`{"patient_id": "patient-1", "query": "q", "limit": `+limit+`}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "limit %s", limit)
	}
}

func TestSearchMemoryServiceValidationError(t *testing.T) {
	service := &stubService{
		err: core.NewMemoryError("SearchMemory", core.ErrInvalidInput),
	}

	rec := doRequest(t, service, http.MethodPost, "/api/v1/memories/search",
		`{"patient_id": "patient-1", "query": "q", "category_filter": "bogus"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateMemory(t *testing.T) {
	service := &stubService{
		memory: &core.Memory{
			ID:      "id-1",
			Content: "Metformin 1000mg",
		},
	}

	rec := doRequest(t, service, http.MethodPatch, "/api/v1/memories/id-1",
		`{"content": "Metformin 1000mg"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "id-1", service.gotMemoryID)
	assert.Equal(t, "Metformin 1000mg", service.gotContent)
}

func TestUpdateMemoryNotFound(t *testing.T) {
	service := &stubService{
		err: core.NewMemoryError("UpdateMemory", core.ErrNotFound),
	}

	rec := doRequest(t, service, http.MethodPatch, "/api/v1/memories/missing",
		`{"content": "new content"}`)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateMemoryBlankContent(t *testing.T) {
	rec := doRequest(t, &stubService{}, http.MethodPatch, "/api/v1/memories/id-1",
		`{"content": ""}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteMemory(t *testing.T) {
	service := &stubService{}

	rec := doRequest(t, service, http.MethodDelete, "/api/v1/memories/id-1", "")

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "id-1", service.gotMemoryID)
}

func TestDeleteMemoryNotFound(t *testing.T) {
	service := &stubService{
		err: core.NewMemoryError("DeleteMemory", core.ErrNotFound),
	}

	rec := doRequest(t, service, http.MethodDelete, "/api/v1/memories/missing", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPatientSummary(t *testing.T) {
	service := &stubService{
		summary: &core.PatientSummary{
			PatientID:          "patient-1",
			TotalMemories:      5,
			CriticalMemories:   1,
			MemoriesByCategory: map[string]int{"allergy": 1, "observation": 4},
			RecentObservations: []*core.Memory{},
		},
	}

	rec := doRequest(t, service, http.MethodGet, "/api/v1/patients/patient-1/summary", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "patient-1", service.gotPatientID)

	var body core.PatientSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 5, body.TotalMemories)
	assert.Equal(t, 1, body.CriticalMemories)
}

func TestInternalError(t *testing.T) {
	service := &stubService{
		err: core.NewMemoryError("GetPatientSummary", core.ErrStorageOperation),
	}

	rec := doRequest(t, service, http.MethodGet, "/api/v1/patients/patient-1/summary", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
