// Package chi exposes the HTTP API: question answering, context
// retrieval, ingestion control, health, and metrics.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docqa/internal/domain"
	logpkg "github.com/kailas-cloud/docqa/internal/logger"
	askuc "github.com/kailas-cloud/docqa/internal/usecase/ask"
	healthuc "github.com/kailas-cloud/docqa/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/docqa/internal/usecase/ingest"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Error response codes.
const (
	codeBadRequest       = "bad_request"
	codeValidationFailed = "validation_failed"
	codeIngestRunning    = "ingest_already_running"
	codeEmbeddingError   = "embedding_provider_error"
	codeGenerationError  = "generation_error"
	codeStoreError       = "store_error"
	codeInternalError    = "internal_error"
)

// Server handles the HTTP API.
type Server struct {
	ask           *askuc.Service
	ingest        *ingestuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	ask *askuc.Service,
	ingest *ingestuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		ask:    ask,
		ingest: ingest,
		health: health,
		logger: logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidQuestion, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrIngestRunning, http.StatusConflict, codeIngestRunning),
		sentinelHandler(domain.ErrEmbeddingProvider, http.StatusBadGateway, codeEmbeddingError),
		sentinelHandler(domain.ErrGeneration, http.StatusBadGateway, codeGenerationError),
		sentinelHandler(domain.ErrStore, http.StatusBadGateway, codeStoreError),
	}
	return s
}

// Routes mounts all handlers on a router.
func (s *Server) Routes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/ask", s.Ask)
		r.Post("/retrieve", s.Retrieve)
		r.Post("/ingest", s.Ingest)
		r.Get("/status", s.Status)
	})
	r.Get("/healthz", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

type questionRequest struct {
	Question string `json:"question"`
}

type sourceRef struct {
	Name       string  `json:"name"`
	Score      float64 `json:"score"`
	ChunkIndex int     `json:"chunk_index"`
}

type askResponse struct {
	Answer     string      `json:"answer"`
	Sources    []sourceRef `json:"sources"`
	MatchCount int         `json:"match_count"`
}

type retrieveResponse struct {
	Context    string      `json:"context"`
	Sources    []sourceRef `json:"sources"`
	MatchCount int         `json:"match_count"`
}

// Ask handles POST /api/v1/ask.
func (s *Server) Ask(w http.ResponseWriter, r *http.Request) {
	var req questionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	answer, err := s.ask.Ask(r.Context(), req.Question)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, askResponse{
		Answer:     answer.Text,
		Sources:    sourcesToRefs(answer.Sources),
		MatchCount: answer.MatchCount,
	})
}

// Retrieve handles POST /api/v1/retrieve.
func (s *Server) Retrieve(w http.ResponseWriter, r *http.Request) {
	var req questionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	result, err := s.ask.Retrieve(r.Context(), req.Question)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, retrieveResponse{
		Context:    result.Context,
		Sources:    sourcesToRefs(result.Sources),
		MatchCount: result.MatchCount,
	})
}

// Ingest handles POST /api/v1/ingest. The run executes in the background;
// the handler returns immediately. A run already in progress yields 409.
func (s *Server) Ingest(w http.ResponseWriter, r *http.Request) {
	if s.ingest.Running() {
		writeError(w, http.StatusConflict, codeIngestRunning, domain.ErrIngestRunning.Error())
		return
	}

	go func() {
		// Detached from the request context: closing the HTTP connection
		// must not abort a half-finished indexing run.
		if _, err := s.ingest.Run(context.WithoutCancel(r.Context())); err != nil &&
			!errors.Is(err, domain.ErrIngestRunning) {
			s.logger.Error("background ingestion failed", zap.Error(err))
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}

type statusResponse struct {
	Running    bool           `json:"running"`
	LastReport *reportPayload `json:"last_report,omitempty"`
}

type reportPayload struct {
	Scanned  int    `json:"scanned"`
	Ingested int    `json:"ingested"`
	Skipped  int    `json:"skipped"`
	Failed   int    `json:"failed"`
	Chunks   int    `json:"chunks"`
	Duration string `json:"duration"`
}

// Status handles GET /api/v1/status.
func (s *Server) Status(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{Running: s.ingest.Running()}
	if rep := s.ingest.LastReport(); rep != nil {
		resp.LastReport = &reportPayload{
			Scanned:  rep.Scanned,
			Ingested: rep.Ingested,
			Skipped:  rep.Skipped,
			Failed:   rep.Failed,
			Chunks:   rep.Chunks,
			Duration: rep.Duration.Round(time.Millisecond).String(),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// HealthCheck handles GET /healthz.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func sourcesToRefs(sources []domain.SourceRef) []sourceRef {
	refs := make([]sourceRef, len(sources))
	for i, src := range sources {
		refs[i] = sourceRef{
			Name:       src.Name,
			Score:      src.Score,
			ChunkIndex: src.ChunkIndex,
		}
	}
	return refs
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"code":    code,
		"message": message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidQuestion,
		domain.ErrIngestRunning,
		domain.ErrEmbeddingProvider,
		domain.ErrGeneration,
		domain.ErrStore,
		domain.ErrDocumentNotFound,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logpkg.FromContext(r.Context())
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
