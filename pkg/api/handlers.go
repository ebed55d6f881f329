package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cohesivestack/valgo"
	"github.com/go-chi/chi/v5"

	"github.com/homecare-labs/caremem-go/pkg/core"
	"github.com/homecare-labs/caremem-go/pkg/utils/logging"
)

type addMemoryRequest struct {
	PatientID    string   `json:"patient_id"`
	Conversation []string `json:"conversation"`
}

type searchMemoryRequest struct {
	PatientID string `json:"patient_id"`
	Query     string `json:"query"`

	// Limit is optional; absent means the service default.
	Limit    *int   `json:"limit,omitempty"`
	Category string `json:"category_filter,omitempty"`
}

type updateMemoryRequest struct {
	Content string `json:"content"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAddMemory(w http.ResponseWriter, r *http.Request) {
	var req addMemoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	val := valgo.Is(
		valgo.String(req.PatientID, "patient_id").Not().Blank(),
		valgo.Number(len(req.Conversation), "conversation").GreaterThan(0),
	)
	if !val.Valid() {
		writeValidationError(w, val)
		return
	}

	result, err := s.service.AddMemory(r.Context(), req.PatientID, req.Conversation)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

func (s *Server) handleSearchMemory(w http.ResponseWriter, r *http.Request) {
	var req searchMemoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	val := valgo.Is(
		valgo.String(req.PatientID, "patient_id").Not().Blank(),
		valgo.String(req.Query, "query").Not().Blank(),
	)
	if req.Limit != nil {
		val = val.Is(valgo.Number(*req.Limit, "limit").Between(core.MinSearchLimit, core.MaxSearchLimit))
	}
	if !val.Valid() {
		writeValidationError(w, val)
		return
	}

	var opts []core.SearchOption
	if req.Limit != nil {
		opts = append(opts, core.WithLimit(*req.Limit))
	}
	if req.Category != "" {
		opts = append(opts, core.WithCategoryFilter(core.MemoryCategory(req.Category)))
	}

	result, err := s.service.SearchMemory(r.Context(), req.PatientID, req.Query, opts...)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleUpdateMemory(w http.ResponseWriter, r *http.Request) {
	memoryID := chi.URLParam(r, "id")

	var req updateMemoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	val := valgo.Is(
		valgo.String(req.Content, "content").Not().Blank().MaxLength(core.MaxContentLength),
	)
	if !val.Valid() {
		writeValidationError(w, val)
		return
	}

	memory, err := s.service.UpdateMemory(r.Context(), memoryID, req.Content)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, memory)
}

func (s *Server) handleDeleteMemory(w http.ResponseWriter, r *http.Request) {
	memoryID := chi.URLParam(r, "id")

	if err := s.service.DeleteMemory(r.Context(), memoryID); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePatientSummary(w http.ResponseWriter, r *http.Request) {
	patientID := chi.URLParam(r, "patient_id")

	summary, err := s.service.GetPatientSummary(r.Context(), patientID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// writeServiceError maps domain errors to HTTP status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		writeError(w, http.StatusNotFound, "memory not found")
	case errors.Is(err, core.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		logging.Default().Error("request failed", "error", err.Error())
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Default().Error("failed to encode response", "error", err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeValidationError(w http.ResponseWriter, val *valgo.Validation) {
	writeJSON(w, http.StatusBadRequest, map[string]interface{}{
		"error":   "validation failed",
		"details": val.Error(),
	})
}
