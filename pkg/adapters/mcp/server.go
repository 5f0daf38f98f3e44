package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/drills"
	"github.com/aretw0/drills/internal/logging"
	"github.com/aretw0/drills/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mitchellh/mapstructure"
)

// BestURI names the best-known records resource.
const BestURI = "drills://best"

// Environment is the session surface the MCP server drives.
type Environment interface {
	Reset(ctx context.Context) (domain.Observation, error)
	Step(ctx context.Context, action int) (domain.StepResult, error)
	Records() domain.Records
	Catalog() domain.Catalog
	State() domain.SessionState
}

// ResetResponse is the result of the reset tool.
type ResetResponse struct {
	Observation []float64      `json:"observation" jsonschema_description:"Feature vector of the initial design"`
	Episode     int            `json:"episode" jsonschema_description:"Number of the episode just started"`
	Metrics     domain.Metrics `json:"metrics" jsonschema_description:"Metrics of the initial run"`
}

// StepResponse is the result of the step tool.
type StepResponse struct {
	Observation    []float64      `json:"observation" jsonschema_description:"Feature vector after the transformation"`
	Reward         float64        `json:"reward" jsonschema_description:"Shaped reward of the step"`
	Done           bool           `json:"done" jsonschema_description:"Whether the episode reached its horizon"`
	Transformation string         `json:"transformation" jsonschema_description:"Transformation applied"`
	Iteration      int            `json:"iteration" jsonschema_description:"Steps taken in the episode"`
	Metrics        domain.Metrics `json:"metrics" jsonschema_description:"Metrics of the new design"`
}

// CatalogResponse describes the action and observation spaces.
type CatalogResponse struct {
	Transformations []string `json:"transformations" jsonschema_description:"Action index to transformation"`
	Features        []string `json:"features" jsonschema_description:"Observation index to feature name"`
}

// StepArgs are the arguments of the step tool. Exactly one is required.
type StepArgs struct {
	Action         *int   `mapstructure:"action"`
	Transformation string `mapstructure:"transformation"`
}

// Server exposes one session as an MCP server. Tool calls are serialized.
type Server struct {
	mu        sync.Mutex
	env       Environment
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the server.
type Option func(*Server)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(env Environment, opts ...Option) *Server {
	s := &Server{
		env:       env,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("drills-mcp", strings.TrimSpace(drills.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

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
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("reset",
		mcp.WithDescription("Start a new episode from the original design and return the initial observation."),
		mcp.WithOutputSchema[ResetResponse](),
	), mcp.NewStructuredToolHandler(s.handleReset))

	s.mcpServer.AddTool(mcp.NewTool("step",
		mcp.WithDescription("Apply one transformation, re-run synthesis and return the observation and reward."),
		mcp.WithNumber("action", mcp.Description("Catalog index of the transformation")),
		mcp.WithString("transformation", mcp.Description("Transformation name, as an alternative to action")),
		mcp.WithOutputSchema[StepResponse](),
	), mcp.NewStructuredToolHandler(s.handleStep))

	s.mcpServer.AddTool(mcp.NewTool("catalog",
		mcp.WithDescription("List the transformations (actions) and observation features."),
		mcp.WithOutputSchema[CatalogResponse](),
	), mcp.NewStructuredToolHandler(s.handleCatalog))

	s.mcpServer.AddTool(mcp.NewTool("best_known",
		mcp.WithDescription("Return the best-known records of the session."),
		mcp.WithOutputSchema[domain.Records](),
	), mcp.NewStructuredToolHandler(s.handleBest))

	s.mcpServer.AddTool(mcp.NewTool("state",
		mcp.WithDescription("Return the episode position, applied sequence and latest metrics."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		s.mu.Lock()
		state := s.env.State()
		s.mu.Unlock()
		jsonBytes, err := json.Marshal(state)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("encode failed: %v", err)), nil
		}
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})
}

func (s *Server) handleReset(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (ResetResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	obs, err := s.env.Reset(ctx)
	if err != nil {
		s.logger.Error("MCP reset failed", "error", err)
		return ResetResponse{}, fmt.Errorf("reset failed: %w", err)
	}
	state := s.env.State()
	return ResetResponse{Observation: obs.Vector(), Episode: state.Episode, Metrics: state.Metrics}, nil
}

func (s *Server) handleStep(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (StepResponse, error) {
	var sa StepArgs
	if err := decodeArgs(args, &sa); err != nil {
		return StepResponse{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	action, err := s.resolveAction(sa)
	if err != nil {
		return StepResponse{}, err
	}
	res, err := s.env.Step(ctx, action)
	if err != nil {
		s.logger.Warn("MCP step failed", "action", action, "error", err)
		return StepResponse{}, fmt.Errorf("step failed: %w", err)
	}
	return StepResponse{
		Observation:    res.Observation.Vector(),
		Reward:         res.Reward,
		Done:           res.Done,
		Transformation: res.Transformation,
		Iteration:      s.env.State().Iteration,
		Metrics:        res.Metrics,
	}, nil
}

func (s *Server) resolveAction(sa StepArgs) (int, error) {
	switch {
	case sa.Action != nil && sa.Transformation != "":
		return 0, fmt.Errorf("%w: pass either action or transformation", domain.ErrConfiguration)
	case sa.Action != nil:
		return *sa.Action, nil
	case sa.Transformation != "":
		idx, ok := s.env.Catalog().IndexOf(sa.Transformation)
		if !ok {
			return 0, fmt.Errorf("%w: unknown transformation %q", domain.ErrBounds, sa.Transformation)
		}
		return idx, nil
	}
	return 0, fmt.Errorf("%w: action or transformation is required", domain.ErrConfiguration)
}

func (s *Server) handleCatalog(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (CatalogResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return CatalogResponse{Transformations: s.env.Catalog().Names(), Features: domain.FeatureNames}, nil
}

func (s *Server) handleBest(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (domain.Records, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.env.Records(), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(BestURI, "Best-known records",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		s.mu.Lock()
		records := s.env.Records()
		s.mu.Unlock()
		jsonBytes, err := json.Marshal(records)
		if err != nil {
			return nil, fmt.Errorf("failed to encode records: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      BestURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}

// decodeArgs decodes tool arguments leniently: JSON numbers arrive as
// float64 and clients may send numbers as strings.
func decodeArgs(args map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(args); err != nil {
		return fmt.Errorf("%w: invalid arguments: %v", domain.ErrConfiguration, err)
	}
	return nil
}
