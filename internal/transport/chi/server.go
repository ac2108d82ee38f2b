// Package chi exposes the ranking engine over HTTP.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kognita/dimrank/internal/domain"
	logpkg "github.com/kognita/dimrank/internal/logger"
	healthuc "github.com/kognita/dimrank/internal/usecase/health"
)

// ErrorCode is a machine-readable error code returned to clients.
type ErrorCode string

// Error codes returned by the API.
const (
	CodeBadRequest             ErrorCode = "bad_request"
	CodeInvalidRequest         ErrorCode = "invalid_request"
	CodeUnauthorized           ErrorCode = "unauthorized"
	CodeUnknownProfile         ErrorCode = "unknown_profile"
	CodeCandidateFetchFailed   ErrorCode = "candidate_fetch_failed"
	CodeEmbeddingProviderError ErrorCode = "embedding_provider_error"
	CodeInternalError          ErrorCode = "internal_error"
)

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// Ranker executes rank calls (ISP).
type Ranker interface {
	Rank(ctx context.Context, req domain.RankRequest) (domain.RankResult, error)
}

// ProfileLister enumerates configured scoring profiles (ISP).
type ProfileLister interface {
	Profiles() []domain.Profile
}

// HealthReporter aggregates component health (ISP).
type HealthReporter interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server is the HTTP API server.
type Server struct {
	rank          Ranker
	profiles      ProfileLister
	health        HealthReporter
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(rank Ranker, profiles ProfileLister, health HealthReporter, logger *zap.Logger) *Server {
	s := &Server{
		rank:     rank,
		profiles: profiles,
		health:   health,
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, CodeInvalidRequest),
		sentinelHandler(domain.ErrUnknownProfile, http.StatusNotFound, CodeUnknownProfile),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, CodeEmbeddingProviderError),
		sentinelHandler(domain.ErrCandidateFetch, http.StatusBadGateway, CodeCandidateFetchFailed),
	}
	return s
}

// Register mounts the API routes on the router.
func (s *Server) Register(r chi.Router) {
	r.Post("/v1/rank", s.RankQuery)
	r.Get("/v1/profiles", s.ListProfiles)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// RankRequestBody is the JSON body of POST /v1/rank.
type RankRequestBody struct {
	Query   string `json:"query"`
	Count   int    `json:"count,omitempty"`
	Profile string `json:"profile,omitempty"`
}

// RankedResult is one entry of the rank response, ordered by score.
type RankedResult struct {
	ID          string  `json:"id"`
	Content     string  `json:"content,omitempty"`
	Score       float64 `json:"score"`
	Similarity  float64 `json:"similarity"`
	Alignment   float64 `json:"alignment"`
	Recency     float64 `json:"recency"`
	Confidence  float64 `json:"confidence"`
	Profile     string  `json:"profile,omitempty"`
	Explanation string  `json:"explanation,omitempty"`
}

// RankResponse is the JSON body of a successful rank call. QueryIntent
// and ParseConfidence are absent when the degraded path skipped parsing.
type RankResponse struct {
	Results         []RankedResult `json:"results"`
	ProfileUsed     string         `json:"profile_used"`
	Degraded        bool           `json:"degraded"`
	QueryIntent     string         `json:"query_intent,omitempty"`
	ParseConfidence float64        `json:"parse_confidence,omitempty"`
}

// RankQuery handles POST /v1/rank.
func (s *Server) RankQuery(w http.ResponseWriter, r *http.Request) {
	var body RankRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	req, err := domain.NewRankRequest(body.Query, body.Count, body.Profile)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	res, err := s.rank.Rank(r.Context(), req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, rankResultToResponse(res))
}

// ProfileInfo describes one configured scoring profile.
type ProfileInfo struct {
	ID         string             `json:"id"`
	Weights    FactorWeightsInfo  `json:"weights"`
	Dimensions map[string]float64 `json:"dimensions,omitempty"`
}

// FactorWeightsInfo is the factor weight vector of a profile.
type FactorWeightsInfo struct {
	Similarity float64 `json:"similarity"`
	Alignment  float64 `json:"alignment"`
	Recency    float64 `json:"recency"`
	Confidence float64 `json:"confidence"`
}

// ProfileListResponse is the JSON body of GET /v1/profiles.
type ProfileListResponse struct {
	Profiles []ProfileInfo `json:"profiles"`
}

// ListProfiles handles GET /v1/profiles.
func (s *Server) ListProfiles(w http.ResponseWriter, r *http.Request) {
	profiles := s.profiles.Profiles()

	items := make([]ProfileInfo, len(profiles))
	for i, p := range profiles {
		items[i] = profileToInfo(p)
	}

	writeJSON(w, http.StatusOK, ProfileListResponse{Profiles: items})
}

// HealthResponse is the JSON body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// HealthCheck handles GET /health. A downgraded ranking engine reports
// degraded but keeps the 200 status: the service still answers queries.
// Only a failing component check turns the endpoint 503.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	httpStatus := http.StatusOK
	for name, result := range report.Checks {
		checks[name] = string(result)
		if result == healthuc.CheckError {
			httpStatus = http.StatusServiceUnavailable
		}
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func rankResultToResponse(res domain.RankResult) RankResponse {
	results := make([]RankedResult, len(res.Results))
	for i, c := range res.Results {
		results[i] = RankedResult{
			ID:          c.Chunk.ID,
			Content:     c.Chunk.Content,
			Score:       c.Score,
			Similarity:  c.Similarity,
			Alignment:   c.Alignment,
			Recency:     c.Recency,
			Confidence:  c.Confidence,
			Profile:     c.Profile,
			Explanation: c.Explanation,
		}
	}
	return RankResponse{
		Results:         results,
		ProfileUsed:     res.ProfileUsed,
		Degraded:        res.Degraded,
		QueryIntent:     string(res.Intent),
		ParseConfidence: res.ParseConfidence,
	}
}

func profileToInfo(p domain.Profile) ProfileInfo {
	w := p.Weights()
	info := ProfileInfo{
		ID: p.ID(),
		Weights: FactorWeightsInfo{
			Similarity: w.Similarity,
			Alignment:  w.Alignment,
			Recency:    w.Recency,
			Confidence: w.Confidence,
		},
	}
	if len(p.Multipliers()) > 0 {
		info.Dimensions = p.Multipliers()
	}
	return info
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidRequest,
		domain.ErrUnknownProfile,
		domain.ErrCandidateFetch,
		domain.ErrEmbeddingProviderError,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	// Prefer the request-scoped logger so the request_id travels along.
	reqLogger := logpkg.FromContext(r.Context())
	reqLogger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
