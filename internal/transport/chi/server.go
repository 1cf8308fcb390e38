// Package chi exposes the neurapipe HTTP API: document enrichment, score
// normalization, and hybrid ranking.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/cortexa-labs/neurapipe/internal/domain"
	dombatch "github.com/cortexa-labs/neurapipe/internal/domain/batch"
	"github.com/cortexa-labs/neurapipe/internal/domain/document"
	logpkg "github.com/cortexa-labs/neurapipe/internal/logger"
	enrichuc "github.com/cortexa-labs/neurapipe/internal/usecase/enrich"
	healthuc "github.com/cortexa-labs/neurapipe/internal/usecase/health"
	hybriduc "github.com/cortexa-labs/neurapipe/internal/usecase/hybrid"
)

// Error codes returned in ErrorResponse.Code.
const (
	CodeBadRequest       = "bad_request"
	CodeValidationFailed = "validation_failed"
	CodeUnknownPipeline  = "unknown_pipeline"
	CodeUnknownStrategy  = "unknown_strategy"
	CodeBatchTooLarge    = "batch_too_large"
	CodeInferenceError   = "inference_error"
	CodeIntegrityError   = "integrity_error"
	CodeUnauthorized     = "unauthorized"
)

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// Server routes HTTP requests to the use case services.
type Server struct {
	enrich *enrichuc.Service
	hybrid *hybriduc.Service
	health *healthuc.Service
	logger *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(
	enrich *enrichuc.Service,
	hybrid *hybriduc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	return &Server{enrich: enrich, hybrid: hybrid, health: health, logger: logger}
}

// Routes mounts all API routes on the router.
func (s *Server) Routes(r chi.Router) {
	r.Post("/v1/pipelines/{pipeline}/enrich", s.enrichDocument)
	r.Post("/v1/pipelines/{pipeline}/enrich_bulk", s.enrichBulk)
	r.Post("/v1/scores/normalize", s.normalizeScores)
	r.Post("/v1/search/rank", s.rankHybrid)
	r.Get("/health", s.healthCheck)
}

type enrichRequest struct {
	Document map[string]any `json:"document"`
}

type enrichResponse struct {
	Document map[string]any `json:"document"`
}

// enrichDocument handles POST /v1/pipelines/{pipeline}/enrich.
func (s *Server) enrichDocument(w http.ResponseWriter, r *http.Request) {
	var req enrichRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Document == nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "document is required")
		return
	}

	pipeline := chi.URLParam(r, "pipeline")
	doc, err := s.enrich.Enrich(r.Context(), pipeline, document.New(req.Document))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	logpkg.FromContext(r.Context()).Debug("Document enriched", zap.String("pipeline", pipeline))
	writeJSON(w, http.StatusOK, enrichResponse{Document: doc.Source()})
}

type enrichBulkRequest struct {
	Documents []map[string]any `json:"documents"`
}

type bulkItem struct {
	Index  int    `json:"index"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type enrichBulkResponse struct {
	Items     []bulkItem       `json:"items"`
	Documents []map[string]any `json:"documents"`
}

// enrichBulk handles POST /v1/pipelines/{pipeline}/enrich_bulk.
// Failed documents are reported per item and returned unmodified; whether to
// skip or abort on failure is the caller's policy.
func (s *Server) enrichBulk(w http.ResponseWriter, r *http.Request) {
	var req enrichBulkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if len(req.Documents) == 0 {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "documents is required")
		return
	}

	docs := make([]*document.Document, len(req.Documents))
	for i, source := range req.Documents {
		docs[i] = document.New(source)
	}

	pipeline := chi.URLParam(r, "pipeline")
	results, err := s.enrich.EnrichBulk(r.Context(), pipeline, docs)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	logpkg.FromContext(r.Context()).Debug("Bulk enriched",
		zap.String("pipeline", pipeline),
		zap.Int("documents", len(docs)),
	)

	resp := enrichBulkResponse{
		Items:     make([]bulkItem, len(results)),
		Documents: make([]map[string]any, len(docs)),
	}
	for i, res := range results {
		item := bulkItem{Index: res.Index(), Status: string(res.Status())}
		if res.Status() == dombatch.StatusError {
			item.Error = res.Err().Error()
		}
		resp.Items[i] = item
		resp.Documents[i] = docs[i].Source()
	}
	writeJSON(w, http.StatusOK, resp)
}

type normalizeRequest struct {
	RawScore      *float64  `json:"raw_score,omitempty"`
	PopulationMin *float64  `json:"population_min,omitempty"`
	PopulationMax *float64  `json:"population_max,omitempty"`
	Scores        []float64 `json:"scores,omitempty"`
	Strategy      string    `json:"strategy,omitempty"`
}

type normalizeResponse struct {
	Normalized    *float64  `json:"normalized,omitempty"`
	Population    []float64 `json:"population,omitempty"`
	PopulationMin float64   `json:"population_min"`
	PopulationMax float64   `json:"population_max"`
}

// normalizeScores handles POST /v1/scores/normalize in two forms: a single
// raw score with its population min/max, or a whole score population.
func (s *Server) normalizeScores(w http.ResponseWriter, r *http.Request) {
	var req normalizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	switch {
	case req.RawScore != nil:
		if req.PopulationMin == nil || req.PopulationMax == nil {
			writeError(w, http.StatusBadRequest, CodeBadRequest,
				"population_min and population_max are required with raw_score")
			return
		}
		normalized, err := s.hybrid.Normalize(req.Strategy, *req.RawScore, *req.PopulationMin, *req.PopulationMax)
		if err != nil {
			s.handleDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, normalizeResponse{
			Normalized:    &normalized,
			PopulationMin: *req.PopulationMin,
			PopulationMax: *req.PopulationMax,
		})
	case len(req.Scores) > 0:
		normalized, err := s.hybrid.NormalizePopulation(req.Strategy, req.Scores)
		if err != nil {
			s.handleDomainError(w, err)
			return
		}
		pop := hybriduc.NewPopulation(req.Scores)
		writeJSON(w, http.StatusOK, normalizeResponse{
			Population:    normalized,
			PopulationMin: pop.Min,
			PopulationMax: pop.Max,
		})
	default:
		writeError(w, http.StatusBadRequest, CodeBadRequest, "raw_score or scores is required")
	}
}

type rankRequest struct {
	Sources  [][]docScore `json:"sources"`
	Strategy string       `json:"strategy,omitempty"`
	Combiner string       `json:"combiner,omitempty"`
	TopK     int          `json:"top_k,omitempty"`
}

type docScore struct {
	DocID string  `json:"doc_id"`
	Score float64 `json:"score"`
}

type rankResponse struct {
	Results []docScore `json:"results"`
}

// rankHybrid handles POST /v1/search/rank.
func (s *Server) rankHybrid(w http.ResponseWriter, r *http.Request) {
	var req rankRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if len(req.Sources) == 0 {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "sources is required")
		return
	}

	sources := make([][]hybriduc.DocScore, len(req.Sources))
	for i, src := range req.Sources {
		sources[i] = make([]hybriduc.DocScore, len(src))
		for j, ds := range src {
			sources[i][j] = hybriduc.DocScore{DocID: ds.DocID, Score: ds.Score}
		}
	}

	ranked, err := s.hybrid.Rank(req.Strategy, req.Combiner, sources, req.TopK)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	resp := rankResponse{Results: make([]docScore, len(ranked))}
	for i, rd := range ranked {
		resp.Results[i] = docScore{DocID: rd.DocID, Score: rd.Score}
	}
	writeJSON(w, http.StatusOK, resp)
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// healthCheck handles GET /health.
func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	resp := healthResponse{Status: string(report.Status), Checks: make(map[string]string, len(report.Checks))}
	for name, check := range report.Checks {
		resp.Checks[name] = string(check)
	}

	code := http.StatusOK
	if report.Status != healthuc.Healthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, resp)
}

// handleDomainError maps domain errors to HTTP responses.
func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	var vErr *domain.ValidationError
	switch {
	case errors.As(err, &vErr):
		writeErrorField(w, http.StatusBadRequest, CodeValidationFailed, vErr.Error(), vErr.Field)
	case errors.Is(err, domain.ErrUnknownPipeline):
		writeError(w, http.StatusNotFound, CodeUnknownPipeline, err.Error())
	case errors.Is(err, domain.ErrUnknownStrategy):
		writeError(w, http.StatusBadRequest, CodeUnknownStrategy, err.Error())
	case errors.Is(err, domain.ErrBatchTooLarge):
		writeError(w, http.StatusBadRequest, CodeBatchTooLarge, err.Error())
	case errors.Is(err, domain.ErrIntegrity):
		writeError(w, http.StatusBadGateway, CodeIntegrityError, err.Error())
	case errors.Is(err, domain.ErrGateway):
		writeError(w, http.StatusBadGateway, CodeInferenceError, err.Error())
	default:
		s.logger.Error("Unhandled error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

func writeErrorField(w http.ResponseWriter, status int, code, message, field string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message, Field: field})
}
