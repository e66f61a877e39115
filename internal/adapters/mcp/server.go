// Package mcp exposes the workflow engine to MCP clients: agents can list
// graphs, trigger runs and inspect run records over stdio or SSE.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/arbor/internal/runtime"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/aretw0/arbor/pkg/registry"
)

// Server wraps the engine's stores and registry as an MCP server.
type Server struct {
	graphs    ports.GraphStore
	runs      ports.RunStore
	registry  *registry.Registry
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// NewServer creates an MCP server over the given stores and registry.
func NewServer(name, version string, graphs ports.GraphStore, runs ports.RunStore, reg *registry.Registry, opts ...Option) *Server {
	s := &Server{
		graphs:    graphs,
		runs:      runs,
		registry:  reg,
		logger:    slog.Default(),
		mcpServer: server.NewMCPServer(name, version),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and blocks until the
// context is cancelled or the listener fails.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("shutdown signal received, stopping MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_graphs",
		mcp.WithDescription("List all registered workflow graphs."),
	), s.handleListGraphs)

	s.mcpServer.AddTool(mcp.NewTool("get_graph",
		mcp.WithDescription("Get the definition of a workflow graph."),
		mcp.WithString("graph_id", mcp.Required(), mcp.Description("The graph ID")),
	), s.handleGetGraph)

	s.mcpServer.AddTool(mcp.NewTool("run_graph",
		mcp.WithDescription("Execute a workflow graph and return the finished run record."),
		mcp.WithString("graph_id", mcp.Required(), mcp.Description("The graph ID")),
		mcp.WithString("initial_state", mcp.Description("JSON object used as the initial workflow state (optional)")),
	), s.handleRunGraph)

	s.mcpServer.AddTool(mcp.NewTool("get_run",
		mcp.WithDescription("Get the record of a past workflow run, including its step log."),
		mcp.WithString("run_id", mcp.Required(), mcp.Description("The run ID")),
	), s.handleGetRun)

	s.mcpServer.AddTool(mcp.NewTool("list_tools",
		mcp.WithDescription("List the transform functions graphs can bind nodes to."),
	), s.handleListTools)
}

func (s *Server) handleListGraphs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	graphs, err := s.graphs.List(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list graphs failed: %v", err)), nil
	}

	out := make([]map[string]any, 0, len(graphs))
	for _, g := range graphs {
		out = append(out, map[string]any{
			"graph_id":    g.ID,
			"name":        g.Name,
			"node_count":  len(g.Nodes()),
			"entry_point": g.EntryPoint(),
		})
	}
	return jsonResult(out)
}

func (s *Server) handleGetGraph(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	graphID, err := request.RequireString("graph_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	graph, err := s.graphs.Get(ctx, graphID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("get graph failed: %v", err)), nil
	}
	return jsonResult(describeGraph(graph))
}

func (s *Server) handleRunGraph(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	graphID, err := request.RequireString("graph_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	initial := domain.State{}
	if raw := request.GetString("initial_state", ""); raw != "" {
		if err := json.Unmarshal([]byte(raw), &initial); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid initial_state: %v", err)), nil
		}
	}

	graph, err := s.graphs.Get(ctx, graphID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("get graph failed: %v", err)), nil
	}

	exec := runtime.NewExecutor(graph, runtime.WithLogger(s.logger))
	run, execErr := exec.Execute(ctx, initial)
	if run == nil {
		return mcp.NewToolResultError(fmt.Sprintf("run failed: %v", execErr)), nil
	}

	if err := s.runs.Save(ctx, run); err != nil {
		s.logger.Error("MCP run_graph: save failed", "err", err, "run_id", run.RunID)
	}
	if execErr != nil {
		s.logger.Warn("MCP run_graph: run failed", "run_id", run.RunID, "err", execErr)
	}

	return jsonResult(run)
}

func (s *Server) handleGetRun(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	runID, err := request.RequireString("run_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	run, err := s.runs.Get(ctx, runID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("get run failed: %v", err)), nil
	}
	return jsonResult(run)
}

func (s *Server) handleListTools(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.registry.List())
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource("arbor://graphs", "Registered Workflow Graphs",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		graphs, err := s.graphs.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list graphs: %w", err)
		}

		out := make([]map[string]any, 0, len(graphs))
		for _, g := range graphs {
			out = append(out, describeGraph(g))
		}
		jsonBytes, _ := json.Marshal(out)

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "arbor://graphs",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}

func describeGraph(g *domain.Graph) map[string]any {
	nodes := make([]map[string]string, 0, len(g.Nodes()))
	for _, n := range g.Nodes() {
		nodes = append(nodes, map[string]string{
			"name":        n.Name,
			"description": n.Description,
		})
	}
	edges := make([]map[string]string, 0, len(g.Edges()))
	for _, e := range g.Edges() {
		edges = append(edges, map[string]string{
			"from":        e.From,
			"to":          e.To,
			"description": e.Description,
		})
	}
	return map[string]any{
		"graph_id":    g.ID,
		"name":        g.Name,
		"created_at":  g.CreatedAt,
		"nodes":       nodes,
		"edges":       edges,
		"entry_point": g.EntryPoint(),
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode failed: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}
