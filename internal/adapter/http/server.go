// Package http exposes the analysis REST API plus health, readiness, and
// metrics endpoints.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/deforestation-alerts/internal/domain"
	"github.com/couchcryptid/deforestation-alerts/internal/job"
)

// maxBodyBytes bounds request bodies; analysis submissions are tiny.
const maxBodyBytes = 1 << 20

// AnalysisService runs and re-models analyses.
type AnalysisService interface {
	Submit(ctx context.Context, req job.SubmitRequest) domain.AnalysisJob
	Remodel(ctx context.Context, id, scenarioKey string) (domain.AnalysisJob, domain.ScenarioDelta, error)
	CheckReadiness(ctx context.Context) error
}

// JobReader reads job snapshots from the registry.
type JobReader interface {
	Get(id string) (domain.AnalysisJob, error)
	List() []domain.AnalysisJob
}

// Options carries the server's collaborators and request limits.
type Options struct {
	Service AnalysisService
	Jobs    JobReader

	// Geocoder resolves region names; nil disables name-based submissions.
	Geocoder domain.Geocoder

	// MaxBBoxDegrees bounds the submitted region extent on each axis.
	MaxBBoxDegrees float64

	Logger *slog.Logger
}

// Server exposes the analysis API over HTTP.
type Server struct {
	httpServer *http.Server
	service    AnalysisService
	jobs       JobReader
	geocoder   domain.Geocoder
	maxExtent  float64
	logger     *slog.Logger
}

// NewServer creates an HTTP server with the analysis routes plus /healthz,
// /readyz, and /metrics.
func NewServer(addr string, opts Options) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		service:   opts.Service,
		jobs:      opts.Jobs,
		geocoder:  opts.Geocoder,
		maxExtent: opts.MaxBBoxDegrees,
		logger:    opts.Logger,
	}

	mux.HandleFunc("POST /api/analyses", s.handleSubmit)
	mux.HandleFunc("GET /api/analyses", s.handleList)
	mux.HandleFunc("GET /api/analyses/{id}", s.handleGet)
	mux.HandleFunc("GET /api/analyses/{id}/status", s.handleStatus)
	mux.HandleFunc("GET /api/analyses/{id}/geojson", s.handleGeoJSON)
	mux.HandleFunc("POST /api/analyses/{id}/intervention", s.handleIntervention)

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// --- request/response shapes ---

type submitRequest struct {
	// Exactly one of BBox and RegionName must be provided.
	BBox       *domain.BBox `json:"bbox,omitempty"`
	RegionName string       `json:"region_name,omitempty"`

	Before *dateWindow `json:"before,omitempty"`
	After  *dateWindow `json:"after,omitempty"`

	BiomeHint string `json:"biome_hint,omitempty"`
}

type dateWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type statusResponse struct {
	AnalysisID string          `json:"analysis_id"`
	State      domain.JobState `json:"state"`
	Progress   int             `json:"progress"`
	Error      string          `json:"error,omitempty"`
}

type interventionRequest struct {
	Scenario string `json:"scenario"`
}

type interventionResponse struct {
	domain.AnalysisJob
	Delta domain.ScenarioDelta `json:"scenario_delta"`
}

// --- handlers ---

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	region, ok := s.resolveRegion(w, r, req)
	if !ok {
		return
	}

	hint, err := domain.ParseBiome(req.BiomeHint)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	before, after := defaultWindows(domain.Now())
	if req.Before != nil {
		before = domain.DateWindow(*req.Before)
	}
	if req.After != nil {
		after = domain.DateWindow(*req.After)
	}

	created := s.service.Submit(r.Context(), job.SubmitRequest{
		Region:    region,
		Before:    before,
		After:     after,
		BiomeHint: hint,
	})
	w.Header().Set("Location", "/api/analyses/"+created.ID)
	writeJSON(w, http.StatusAccepted, created)
}

// resolveRegion turns the submitted bbox or region name into validated
// bounds, writing the error response itself when it fails.
func (s *Server) resolveRegion(w http.ResponseWriter, r *http.Request, req submitRequest) (domain.BBox, bool) {
	switch {
	case req.BBox != nil && req.RegionName != "":
		writeError(w, http.StatusBadRequest, "provide either bbox or region_name, not both")
		return domain.BBox{}, false
	case req.BBox != nil:
		if err := s.validateBBox(*req.BBox); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return domain.BBox{}, false
		}
		return *req.BBox, true
	case req.RegionName != "":
		if s.geocoder == nil {
			writeError(w, http.StatusServiceUnavailable, "region name lookup is not configured")
			return domain.BBox{}, false
		}
		bounds, err := s.geocoder.RegionBounds(r.Context(), req.RegionName)
		if errors.Is(err, domain.ErrRegionNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return domain.BBox{}, false
		}
		if err != nil {
			s.logger.Error("geocode failed", "region", req.RegionName, "error", err)
			writeError(w, http.StatusBadGateway, "region name lookup failed")
			return domain.BBox{}, false
		}
		bounds = clampExtent(bounds, s.maxExtent)
		return bounds, true
	default:
		writeError(w, http.StatusBadRequest, "bbox or region_name is required")
		return domain.BBox{}, false
	}
}

func (s *Server) handleList(w http.ResponseWriter, _ *http.Request) {
	jobs := s.jobs.List()
	summaries := make([]statusResponse, len(jobs))
	for i, j := range jobs {
		summaries[i] = statusResponse{AnalysisID: j.ID, State: j.State, Progress: j.Progress, Error: j.Error}
	}
	writeJSON(w, http.StatusOK, map[string]any{"analyses": summaries, "count": len(summaries)})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	j, ok := s.lookupJob(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, j)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	j, ok := s.lookupJob(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{AnalysisID: j.ID, State: j.State, Progress: j.Progress, Error: j.Error})
}

func (s *Server) handleGeoJSON(w http.ResponseWriter, r *http.Request) {
	j, ok := s.lookupJob(w, r)
	if !ok {
		return
	}
	if j.State != domain.JobCompleted {
		writeError(w, http.StatusConflict, fmt.Sprintf("analysis is %s", j.State))
		return
	}
	writeJSON(w, http.StatusOK, featureCollection(j))
}

func (s *Server) handleIntervention(w http.ResponseWriter, r *http.Request) {
	var req interventionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, delta, err := s.service.Remodel(r.Context(), r.PathValue("id"), req.Scenario)
	switch {
	case errors.Is(err, domain.ErrJobNotFound):
		writeError(w, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, domain.ErrJobNotComplete):
		writeError(w, http.StatusConflict, err.Error())
		return
	case errors.Is(err, domain.ErrUnknownScenario):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		s.logger.Error("remodel failed", "analysis_id", r.PathValue("id"), "error", err)
		writeError(w, http.StatusInternalServerError, "re-modeling failed")
		return
	}
	writeJSON(w, http.StatusOK, interventionResponse{AnalysisJob: updated, Delta: delta})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.service.CheckReadiness(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// --- helpers ---

func (s *Server) lookupJob(w http.ResponseWriter, r *http.Request) (domain.AnalysisJob, bool) {
	j, err := s.jobs.Get(r.PathValue("id"))
	if errors.Is(err, domain.ErrJobNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return domain.AnalysisJob{}, false
	}
	return j, true
}

func (s *Server) validateBBox(b domain.BBox) error {
	if !b.Valid() {
		return errors.New("bbox must have west < east and south < north")
	}
	if b.South < -90 || b.North > 90 || b.West < -180 || b.East > 180 {
		return errors.New("bbox must be within WGS-84 bounds")
	}
	if b.East-b.West > s.maxExtent || b.North-b.South > s.maxExtent {
		return fmt.Errorf("bbox extent exceeds %.2f degrees per axis", s.maxExtent)
	}
	return nil
}

// clampExtent shrinks an oversized geocoded box around its center so region
// name lookups for whole states still produce an analyzable area.
func clampExtent(b domain.BBox, maxExtent float64) domain.BBox {
	lon, lat := b.Center()
	if b.East-b.West > maxExtent {
		b.West = lon - maxExtent/2
		b.East = lon + maxExtent/2
	}
	if b.North-b.South > maxExtent {
		b.South = lat - maxExtent/2
		b.North = lat + maxExtent/2
	}
	return b
}

// defaultWindows picks a recent 30-day window and its counterpart one year
// earlier, matching typical change detection cadence.
func defaultWindows(now time.Time) (before, after domain.DateWindow) {
	after = domain.DateWindow{Start: now.AddDate(0, 0, -30), End: now}
	before = domain.DateWindow{Start: now.AddDate(-1, 0, -30), End: now.AddDate(-1, 0, 0)}
	return before, after
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
