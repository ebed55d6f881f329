// Package api provides the HTTP interface over the memory manager.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/homecare-labs/caremem-go/pkg/core"
	"github.com/homecare-labs/caremem-go/pkg/utils/logging"
)

// Service is the memory operations surface the HTTP layer depends on.
// *core.Manager satisfies it; tests substitute a stub.
type Service interface {
	AddMemory(ctx context.Context, patientID string, conversation []string) (*core.AddMemoryResult, error)
	SearchMemory(ctx context.Context, patientID, query string, opts ...core.SearchOption) (*core.SearchMemoryResult, error)
	UpdateMemory(ctx context.Context, memoryID, content string) (*core.Memory, error)
	DeleteMemory(ctx context.Context, memoryID string) error
	GetPatientSummary(ctx context.Context, patientID string) (*core.PatientSummary, error)
}

// Server is the HTTP API server.
type Server struct {
	router  *chi.Mux
	service Service
}

// New creates a new API server around the given service.
func New(service Service) *Server {
	r := chi.NewRouter()

	s := &Server{
		router:  r,
		service: service,
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Route("/memories", func(r chi.Router) {
			r.Post("/", s.handleAddMemory)
			r.Post("/search", s.handleSearchMemory)
			r.Patch("/{id}", s.handleUpdateMemory)
			r.Delete("/{id}", s.handleDeleteMemory)
		})

		r.Get("/patients/{patient_id}/summary", s.handlePatientSummary)
	})

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.Default().Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
