package server

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/cyclopcam/logs"

	"github.com/tkzzzzzz6/dino-x/internal/analytics"
	"github.com/tkzzzzzz6/dino-x/internal/applog"
	"github.com/tkzzzzzz6/dino-x/internal/config"
	"github.com/tkzzzzzz6/dino-x/internal/imaging"
	"github.com/tkzzzzzz6/dino-x/internal/metrics"
	"github.com/tkzzzzzz6/dino-x/internal/overlay"
)

// ServerName is reported to clients during initialize.
const ServerName = "dinox-mcp"

// maxRequestSize bounds one JSON-RPC line. Inline base64 images make
// requests much larger than the usual tool call.
const maxRequestSize = 64 * 1024 * 1024

// Server handles MCP protocol communication
type Server struct {
	cache     *imaging.ImageCache
	composer  *overlay.Composer
	analytics *analytics.Aggregator
	metrics   *metrics.Metrics
	defaults  overlay.Options
	version   string
	log       logs.Log
}

// Options configures a Server. Every field may be left zero.
type Options struct {
	Config  config.Config
	Log     logs.Log
	Metrics *metrics.Metrics
	Version string
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// New creates a new MCP server instance. The analytics aggregator lives as
// long as the server, so one process is one analytics session.
func New(opts Options) *Server {
	cfg := opts.Config
	if cfg.MaxHistory == 0 && cfg.Overlay == (overlay.Options{}) {
		cfg = config.Default()
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}

	s := &Server{
		cache:     imaging.NewImageCache(),
		composer:  overlay.NewComposer(opts.Log),
		analytics: analytics.NewAggregator(cfg.MaxHistory),
		metrics:   opts.Metrics,
		defaults:  cfg.Overlay,
		version:   opts.Version,
		log:       applog.NewPrefix(opts.Log, "[server]"),
	}

	if s.metrics != nil {
		if err := s.metrics.Register(analytics.NewCollector(metrics.Namespace, s.analytics)); err != nil {
			s.log.Warnf("Analytics metrics not registered: %v", err)
		}
		s.composer.Observe = func(r overlay.StageResult) {
			s.metrics.ObserveStage(string(r.Stage), r.Status.String())
		}
	}
	return s
}

// Analytics returns the session's aggregator.
func (s *Server) Analytics() *analytics.Aggregator {
	return s.analytics
}

// Run starts the MCP server, reading from stdin and writing to stdout
func (s *Server) Run() error {
	return s.Serve(os.Stdin, os.Stdout)
}

// Serve answers newline-delimited JSON-RPC requests from in until it is
// exhausted. Lines that are not valid JSON are logged and skipped.
func (s *Server) Serve(in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, maxRequestSize)

	encoder := json.NewEncoder(out)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			s.log.Errorf("Failed to parse request: %v", err)
			if s.metrics != nil {
				s.metrics.ParseErrors.Add(1)
			}
			continue
		}

		resp := s.handleRequest(&req)
		if resp != nil {
			if err := encoder.Encode(resp); err != nil {
				s.log.Errorf("Failed to encode response: %v", err)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}

	return nil
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(req *MCPRequest) *MCPResponse {
	start := time.Now()
	resp := s.route(req)
	if s.metrics != nil {
		s.metrics.Requests.Add(1)
		if resp != nil && resp.Error != nil {
			s.metrics.RequestErrors.Add(1)
		}
		s.metrics.CachedImages.Store(int64(s.cache.Len()))
	}
	s.log.Debugf("%s handled in %v", req.Method, time.Since(start))
	return resp
}

func (s *Server) route(req *MCPRequest) *MCPResponse {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &MCPError{
				Code:    -32601,
				Message: fmt.Sprintf("Method not found: %s", req.Method),
			},
		}
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    ServerName,
				"version": s.version,
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
