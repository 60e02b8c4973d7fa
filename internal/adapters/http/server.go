// Package http exposes a read-and-run surface over a loaded pipeline: health,
// profile listing, graph inspection with mermaid rendering, Prometheus
// metrics, and on-demand execution.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pbarbosa/espalier/internal/presentation/graph"
	"github.com/pbarbosa/espalier/pkg/domain"
	"github.com/pbarbosa/espalier/pkg/ports"
	"github.com/pbarbosa/espalier/pkg/profile"
)

// Runner executes a loaded pipeline under a named profile.
type Runner interface {
	Run(ctx context.Context, pipeline *ports.Pipeline, profileName string) (*domain.ExecutionResult, error)
}

// Server serves a single loaded pipeline.
type Server struct {
	pipeline *ports.Pipeline
	runner   Runner
	profiles *profile.Registry
	logger   *slog.Logger

	mu         sync.Mutex
	lastResult *domain.ExecutionResult
}

// NewHandler creates the HTTP handler for the pipeline.
func NewHandler(pipeline *ports.Pipeline, runner Runner, profiles *profile.Registry, logger *slog.Logger) http.Handler {
	s := &Server{
		pipeline: pipeline,
		runner:   runner,
		profiles: profiles,
		logger:   logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/profiles", s.handleProfiles)
	r.Get("/graph", s.handleGraph)
	r.Get("/graph/mermaid", s.handleMermaid)
	r.Post("/run", s.handleRun)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"pipeline": s.pipeline.Name,
		"nodes":    s.pipeline.Graph.Len(),
	})
}

func (s *Server) handleProfiles(w http.ResponseWriter, r *http.Request) {
	type profileView struct {
		Name        string `json:"name"`
		MaxRetries  int    `json:"max_retries"`
		Timeout     string `json:"timeout,omitempty"`
		RunTimeout  string `json:"run_timeout,omitempty"`
		FailFast    bool   `json:"fail_fast"`
		Description string `json:"description,omitempty"`
	}

	views := make([]profileView, 0)
	for _, p := range s.profiles.Profiles() {
		v := profileView{
			Name:        p.Name,
			MaxRetries:  p.MaxRetries,
			FailFast:    p.FailFast,
			Description: p.Description,
		}
		if p.Timeout > 0 {
			v.Timeout = p.Timeout.String()
		}
		if p.RunTimeout > 0 {
			v.RunTimeout = p.RunTimeout.String()
		}
		views = append(views, v)
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	type edgeView struct {
		Source string `json:"source"`
		Target string `json:"target"`
	}
	type nodeView struct {
		ID    string   `json:"id"`
		Needs []string `json:"needs,omitempty"`
	}

	g := s.pipeline.Graph
	nodes := make([]nodeView, 0, g.Len())
	for _, n := range g.Nodes() {
		nodes = append(nodes, nodeView{ID: n.ID, Needs: g.Predecessors(n.ID)})
	}
	edges := make([]edgeView, 0)
	for _, e := range g.Edges() {
		edges = append(edges, edgeView{Source: e.Source, Target: e.Target})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"pipeline": s.pipeline.Name,
		"nodes":    nodes,
		"edges":    edges,
	})
}

func (s *Server) handleMermaid(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	overlay := graph.OverlayFromResult(s.lastResult)
	s.mu.Unlock()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(graph.GenerateMermaid(s.pipeline.Graph, overlay)))
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	profileName := r.URL.Query().Get("profile")
	if profileName == "" {
		profileName = s.pipeline.Profile
	}

	result, err := s.runner.Run(r.Context(), s.pipeline, profileName)
	if err != nil {
		s.logger.Error("run failed", "pipeline", s.pipeline.Name, "err", err)
		status := http.StatusInternalServerError
		if result == nil {
			// Structural problem (unknown profile, invalid graph, busy graph).
			status = http.StatusBadRequest
		}
		writeJSON(w, status, map[string]any{"error": err.Error()})
		return
	}
	s.mu.Lock()
	s.lastResult = result
	s.mu.Unlock()

	type outcomeView struct {
		Status   string `json:"status"`
		Attempts int    `json:"attempts"`
		Duration string `json:"duration"`
		Error    string `json:"error,omitempty"`
	}
	outcomes := make(map[string]outcomeView, len(result.Outcomes))
	for id, o := range result.Outcomes {
		v := outcomeView{
			Status:   string(o.Status),
			Attempts: o.Attempts,
			Duration: o.Duration.String(),
		}
		if o.Err != nil {
			v.Error = o.Err.Error()
		}
		outcomes[id] = v
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":         result.Success,
		"succeeded":       result.Succeeded,
		"failed":          result.Failed,
		"skipped":         result.Skipped,
		"duration":        result.Duration.String(),
		"max_concurrency": result.MaxConcurrency,
		"outcomes":        outcomes,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
