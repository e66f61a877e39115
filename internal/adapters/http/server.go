// Package http exposes the workflow engine over a REST API: graph creation,
// execution, run inspection and transform discovery.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aretw0/arbor/internal/runtime"
	"github.com/aretw0/arbor/pkg/conditions"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/aretw0/arbor/pkg/registry"
)

// Server wires the engine's stores and registry behind HTTP handlers. All
// collaborators are injected; the server holds no global state.
type Server struct {
	graphs        ports.GraphStore
	runs          ports.RunStore
	registry      *registry.Registry
	logger        *slog.Logger
	hooks         domain.LifecycleHooks
	maxIterations int
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the structured logger used by the handlers and executors.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithLifecycleHooks attaches hooks to every executor started by the run
// endpoints. Used to feed metrics collectors.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(s *Server) { s.hooks = hooks }
}

// WithMaxIterations overrides the iteration cap applied to API-triggered runs.
func WithMaxIterations(n int) Option {
	return func(s *Server) { s.maxIterations = n }
}

// NewServer creates a Server over the given stores and transform registry.
func NewServer(graphs ports.GraphStore, runs ports.RunStore, reg *registry.Registry, opts ...Option) *Server {
	s := &Server{
		graphs:        graphs,
		runs:          runs,
		registry:      reg,
		logger:        slog.Default(),
		maxIterations: runtime.DefaultMaxIterations,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the chi router for the API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", s.handleHealth)

	r.Post("/graphs", s.handleCreateGraph)
	r.Get("/graphs", s.handleListGraphs)
	r.Get("/graphs/{graphID}", s.handleGetGraph)
	r.Post("/graphs/{graphID}/run", s.handleRunGraph)
	r.Get("/graphs/{graphID}/runs", s.handleListGraphRuns)

	r.Get("/runs", s.handleListRuns)
	r.Get("/runs/{runID}", s.handleGetRun)

	r.Get("/tools", s.handleListTools)

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// -- Request / response bodies --

type nodeInput struct {
	Name        string `json:"name"`
	Transform   string `json:"transform,omitempty"`
	Description string `json:"description,omitempty"`
}

type edgeInput struct {
	FromNode    string `json:"from_node"`
	ToNode      string `json:"to_node"`
	Condition   string `json:"condition,omitempty"`
	Description string `json:"description,omitempty"`
}

type graphCreateRequest struct {
	Name       string      `json:"name"`
	EntryPoint string      `json:"entry_point"`
	Nodes      []nodeInput `json:"nodes"`
	Edges      []edgeInput `json:"edges"`
}

type graphCreateResponse struct {
	GraphID    string    `json:"graph_id"`
	Name       string    `json:"name"`
	CreatedAt  time.Time `json:"created_at"`
	Nodes      []string  `json:"nodes"`
	EntryPoint string    `json:"entry_point"`
}

type graphRunRequest struct {
	InitialState domain.State `json:"initial_state"`
}

type logEntryResponse struct {
	StepID     string    `json:"step_id"`
	NodeName   string    `json:"node_name"`
	Timestamp  time.Time `json:"timestamp"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	DurationMS float64   `json:"duration_ms"`
}

type graphRunResponse struct {
	RunID        string             `json:"run_id"`
	GraphID      string             `json:"graph_id"`
	Status       string             `json:"status"`
	FinalState   domain.State       `json:"final_state"`
	VisitedNodes []string           `json:"visited_nodes"`
	Logs         []logEntryResponse `json:"logs"`
	CreatedAt    time.Time          `json:"created_at"`
	CompletedAt  *time.Time         `json:"completed_at,omitempty"`
	Error        string             `json:"error,omitempty"`
}

type runStateResponse struct {
	RunID        string             `json:"run_id"`
	GraphID      string             `json:"graph_id"`
	Status       string             `json:"status"`
	CurrentState domain.State       `json:"current_state"`
	VisitedNodes []string           `json:"visited_nodes"`
	Logs         []logEntryResponse `json:"logs"`
}

type toolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// -- Handlers --

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleCreateGraph(w http.ResponseWriter, r *http.Request) {
	var req graphCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.logger.Warn("create graph: invalid request body", "err", err)
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	graph := domain.NewGraph(req.Name)
	for _, n := range req.Nodes {
		fn := s.resolveTransform(n)
		if err := graph.AddNode(n.Name, fn, n.Description); err != nil {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	for _, e := range req.Edges {
		var cond domain.Condition
		if e.Condition != "" {
			compiled, err := conditions.Compile(e.Condition)
			if err != nil {
				s.respondError(w, http.StatusBadRequest, err.Error())
				return
			}
			cond = compiled
		}
		if err := graph.AddEdge(e.FromNode, e.ToNode, cond, e.Description); err != nil {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if req.EntryPoint != "" {
		if err := graph.SetEntryPoint(req.EntryPoint); err != nil {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if err := graph.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.graphs.Save(r.Context(), graph); err != nil {
		s.logger.Error("create graph: save failed", "err", err, "graph_id", graph.ID)
		s.respondError(w, http.StatusInternalServerError, "failed to store graph")
		return
	}

	s.logger.Info("graph created", "graph_id", graph.ID, "name", graph.Name)

	names := make([]string, 0, len(graph.Nodes()))
	for _, n := range graph.Nodes() {
		names = append(names, n.Name)
	}
	s.respond(w, http.StatusCreated, graphCreateResponse{
		GraphID:    graph.ID,
		Name:       graph.Name,
		CreatedAt:  graph.CreatedAt,
		Nodes:      names,
		EntryPoint: graph.EntryPoint(),
	})
}

// resolveTransform binds an API-defined node to a registered transform. The
// explicit transform name wins, then the node name itself; unregistered nodes
// fall back to a passthrough that records which node ran last.
func (s *Server) resolveTransform(n nodeInput) domain.Transform {
	if n.Transform != "" {
		if fn, ok := s.registry.Get(n.Transform); ok {
			return fn
		}
	}
	if fn, ok := s.registry.Get(n.Name); ok {
		return fn
	}
	name := n.Name
	return func(ctx context.Context, state domain.State) (domain.State, error) {
		return domain.State{"last_node": name}, nil
	}
}

func (s *Server) handleGetGraph(w http.ResponseWriter, r *http.Request) {
	graphID := chi.URLParam(r, "graphID")
	graph, err := s.graphs.Get(r.Context(), graphID)
	if err != nil {
		if errors.Is(err, domain.ErrGraphNotFound) {
			s.respondError(w, http.StatusNotFound, "graph not found")
			return
		}
		s.logger.Error("get graph failed", "err", err, "graph_id", graphID)
		s.respondError(w, http.StatusInternalServerError, "failed to load graph")
		return
	}

	names := make([]string, 0, len(graph.Nodes()))
	for _, n := range graph.Nodes() {
		names = append(names, n.Name)
	}
	edges := make([]map[string]string, 0, len(graph.Edges()))
	for _, e := range graph.Edges() {
		edges = append(edges, map[string]string{
			"from":        e.From,
			"to":          e.To,
			"description": e.Description,
		})
	}
	s.respond(w, http.StatusOK, map[string]any{
		"graph_id":    graph.ID,
		"name":        graph.Name,
		"created_at":  graph.CreatedAt,
		"nodes":       names,
		"edges":       edges,
		"entry_point": graph.EntryPoint(),
	})
}

func (s *Server) handleListGraphs(w http.ResponseWriter, r *http.Request) {
	graphs, err := s.graphs.List(r.Context())
	if err != nil {
		s.logger.Error("list graphs failed", "err", err)
		s.respondError(w, http.StatusInternalServerError, "failed to list graphs")
		return
	}

	out := make([]map[string]any, 0, len(graphs))
	for _, g := range graphs {
		out = append(out, map[string]any{
			"graph_id":   g.ID,
			"name":       g.Name,
			"created_at": g.CreatedAt,
			"node_count": len(g.Nodes()),
			"edge_count": len(g.Edges()),
		})
	}
	s.respond(w, http.StatusOK, map[string]any{"count": len(out), "graphs": out})
}

func (s *Server) handleRunGraph(w http.ResponseWriter, r *http.Request) {
	graphID := chi.URLParam(r, "graphID")

	var req graphRunRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.logger.Warn("run graph: invalid request body", "err", err)
			s.respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	graph, err := s.graphs.Get(r.Context(), graphID)
	if err != nil {
		if errors.Is(err, domain.ErrGraphNotFound) {
			s.respondError(w, http.StatusNotFound, "graph not found")
			return
		}
		s.logger.Error("run graph: load failed", "err", err, "graph_id", graphID)
		s.respondError(w, http.StatusInternalServerError, "failed to load graph")
		return
	}

	exec := runtime.NewExecutor(graph,
		runtime.WithLogger(s.logger),
		runtime.WithLifecycleHooks(s.hooks),
		runtime.WithMaxIterations(s.maxIterations),
	)
	run, execErr := exec.Execute(r.Context(), req.InitialState)
	if run == nil {
		// Structural failure: no run was started.
		s.respondError(w, http.StatusBadRequest, execErr.Error())
		return
	}

	if err := s.runs.Save(r.Context(), run); err != nil {
		s.logger.Error("run graph: save failed", "err", err, "run_id", run.RunID)
		s.respondError(w, http.StatusInternalServerError, "failed to store run")
		return
	}

	// Failed runs are reported through the response body, not an HTTP error:
	// the finalized run record carries the failure details.
	if execErr != nil {
		s.logger.Warn("graph run failed", "run_id", run.RunID, "err", execErr)
	} else {
		s.logger.Info("graph run completed", "run_id", run.RunID, "graph_id", graphID)
	}

	s.respond(w, http.StatusOK, graphRunResponse{
		RunID:        run.RunID,
		GraphID:      run.GraphID,
		Status:       string(run.Status),
		FinalState:   run.State,
		VisitedNodes: run.VisitedNodes,
		Logs:         mapLogs(run.Logs),
		CreatedAt:    run.CreatedAt,
		CompletedAt:  run.CompletedAt,
		Error:        run.Error,
	})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	run, err := s.runs.Get(r.Context(), runID)
	if err != nil {
		if errors.Is(err, domain.ErrRunNotFound) {
			s.respondError(w, http.StatusNotFound, "run not found")
			return
		}
		s.logger.Error("get run failed", "err", err, "run_id", runID)
		s.respondError(w, http.StatusInternalServerError, "failed to load run")
		return
	}

	s.respond(w, http.StatusOK, runStateResponse{
		RunID:        run.RunID,
		GraphID:      run.GraphID,
		Status:       string(run.Status),
		CurrentState: run.State,
		VisitedNodes: run.VisitedNodes,
		Logs:         mapLogs(run.Logs),
	})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.runs.List(r.Context())
	if err != nil {
		s.logger.Error("list runs failed", "err", err)
		s.respondError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	s.respond(w, http.StatusOK, map[string]any{
		"count": len(runs),
		"runs":  mapRunSummaries(runs),
	})
}

func (s *Server) handleListGraphRuns(w http.ResponseWriter, r *http.Request) {
	graphID := chi.URLParam(r, "graphID")
	if _, err := s.graphs.Get(r.Context(), graphID); err != nil {
		if errors.Is(err, domain.ErrGraphNotFound) {
			s.respondError(w, http.StatusNotFound, "graph not found")
			return
		}
		s.logger.Error("list graph runs: load failed", "err", err, "graph_id", graphID)
		s.respondError(w, http.StatusInternalServerError, "failed to load graph")
		return
	}

	runs, err := s.runs.ListByGraph(r.Context(), graphID)
	if err != nil {
		s.logger.Error("list graph runs failed", "err", err, "graph_id", graphID)
		s.respondError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	s.respond(w, http.StatusOK, map[string]any{
		"count":    len(runs),
		"graph_id": graphID,
		"runs":     mapRunSummaries(runs),
	})
}

func (s *Server) handleListTools(w http.ResponseWriter, r *http.Request) {
	listed := s.registry.List()
	tools := make([]toolInfo, 0, len(listed))
	for name, desc := range listed {
		tools = append(tools, toolInfo{Name: name, Description: desc})
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i].Name < tools[j].Name })
	s.respond(w, http.StatusOK, map[string]any{"tools": tools})
}

// -- Helpers --

func mapLogs(logs []domain.LogEntry) []logEntryResponse {
	out := make([]logEntryResponse, len(logs))
	for i, l := range logs {
		out[i] = logEntryResponse{
			StepID:     l.StepID,
			NodeName:   l.NodeName,
			Timestamp:  l.Timestamp,
			Status:     string(l.Status),
			Error:      l.Error,
			DurationMS: float64(l.Duration) / float64(time.Millisecond),
		}
	}
	return out
}

func mapRunSummaries(runs []*domain.Run) []map[string]any {
	out := make([]map[string]any, 0, len(runs))
	for _, run := range runs {
		out = append(out, map[string]any{
			"run_id":       run.RunID,
			"graph_id":     run.GraphID,
			"status":       string(run.Status),
			"created_at":   run.CreatedAt,
			"completed_at": run.CompletedAt,
			"node_count":   len(run.VisitedNodes),
		})
	}
	return out
}

func (s *Server) respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, msg string) {
	s.respond(w, status, errorResponse{Error: msg})
}
