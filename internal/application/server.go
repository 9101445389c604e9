package application

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"mcp-tool-server/internal/domain"
)

// ProtocolVersion is the MCP protocol revision advertised in initialize.
const ProtocolVersion = "2024-11-05"

// Server is the MCP JSON-RPC front end.
// It implements the protocol methods and hands tools/call to the Dispatcher.
type Server struct {
	transport  domain.Transport
	dispatcher *Dispatcher
	config     *domain.Config
	logger     *StructuredLogger

	inflight sync.WaitGroup
}

// NewServer creates a new MCP server instance.
// The transport may be nil when requests arrive through HandleRequest only.
func NewServer(
	transport domain.Transport,
	dispatcher *Dispatcher,
	config *domain.Config,
	logger *StructuredLogger,
) *Server {
	if logger == nil {
		logger = NewStructuredLogger(nil)
	}
	return &Server{
		transport:  transport,
		dispatcher: dispatcher,
		config:     config,
		logger:     logger,
	}
}

// Start starts the transport and begins processing incoming requests.
func (s *Server) Start(ctx context.Context) error {
	if s.transport == nil {
		return fmt.Errorf("server has no transport")
	}

	if err := s.transport.Start(ctx); err != nil {
		s.logger.LogError("failed to start transport", err, map[string]interface{}{
			"transport_type": s.config.Transport.Type,
		})
		return fmt.Errorf("failed to start transport: %w", err)
	}

	s.logger.LogInfo("server started", map[string]interface{}{
		"transport_type": s.config.Transport.Type,
		"tools":          s.dispatcher.Registry().Len(),
	})

	s.processRequests(ctx)
	return nil
}

// processRequests reads requests until the transport closes or ctx is cancelled.
// Each request is handled in its own goroutine.
func (s *Server) processRequests(ctx context.Context) {
	reqChan := s.transport.Receive()

	for {
		select {
		case <-ctx.Done():
			s.logger.LogInfo("server shutting down", nil)
			return
		case req, ok := <-reqChan:
			if !ok {
				s.logger.LogInfo("transport input closed", nil)
				return
			}

			s.inflight.Add(1)
			go func() {
				defer s.inflight.Done()
				s.serve(ctx, req)
			}()
		}
	}
}

// serve handles one request and sends its response, if any.
func (s *Server) serve(ctx context.Context, req *domain.Request) {
	response := s.HandleRequest(ctx, req)
	if response == nil {
		return
	}

	if err := s.transport.Send(response); err != nil {
		s.logger.LogError("failed to send response", err, map[string]interface{}{
			"request_id": req.ID,
		})
	}
}

// HandleRequest processes a single JSON-RPC request and returns its response.
// Notifications return nil.
func (s *Server) HandleRequest(ctx context.Context, req *domain.Request) *domain.Response {
	s.logger.LogDebug("received request", map[string]interface{}{
		"method":     req.Method,
		"request_id": req.ID,
	})

	if err := s.validateRequest(req); err != nil {
		if req.IsNotification() {
			s.logger.LogWarn("dropping invalid notification", map[string]interface{}{
				"method": req.Method,
				"error":  err.Error(),
			})
			return nil
		}
		return domain.NewErrorMessage(req.ID, domain.InvalidRequest, "Invalid Request", err.Error())
	}

	var response *domain.Response

	switch req.Method {
	case "initialize":
		response = s.handleInitialize(req)
	case "notifications/initialized", "notifications/cancelled":
		return nil
	case "ping":
		response = s.result(req, map[string]interface{}{})
	case "tools/list":
		response = s.handleToolsList(req)
	case "tools/call":
		response = s.handleToolsCall(ctx, req)
	default:
		response = domain.NewErrorMessage(req.ID, domain.MethodNotFound, "Method not found", fmt.Sprintf("unknown method: %s", req.Method))
	}

	if req.IsNotification() {
		return nil
	}
	return response
}

// validateRequest validates the basic structure of a JSON-RPC request.
func (s *Server) validateRequest(req *domain.Request) error {
	if req.JSONRPC != domain.JSONRPCVersion {
		return fmt.Errorf("invalid jsonrpc version: %s", req.JSONRPC)
	}

	if req.Method == "" {
		return fmt.Errorf("method is required")
	}

	return nil
}

// handleInitialize handles the MCP initialize method.
func (s *Server) handleInitialize(req *domain.Request) *domain.Response {
	if params, ok := req.Params.(map[string]interface{}); ok {
		if info, ok := params["clientInfo"].(map[string]interface{}); ok {
			s.logger.LogInfo("client connected", map[string]interface{}{
				"client_name":    info["name"],
				"client_version": info["version"],
			})
		}
	}

	return s.result(req, map[string]interface{}{
		"protocolVersion": ProtocolVersion,
		"capabilities": map[string]interface{}{
			"tools": map[string]interface{}{
				"listChanged": false,
			},
		},
		"serverInfo": map[string]interface{}{
			"name":    s.config.Server.Name,
			"version": s.config.Server.Version,
		},
	})
}

// handleToolsList returns every registered tool.
func (s *Server) handleToolsList(req *domain.Request) *domain.Response {
	return s.result(req, map[string]interface{}{
		"tools": s.dispatcher.Registry().ListTools(),
	})
}

// handleToolsCall dispatches a tool call. Tool failures are reported inside
// the envelope; only malformed params produce a JSON-RPC error.
func (s *Server) handleToolsCall(ctx context.Context, req *domain.Request) *domain.Response {
	toolReq, err := ParseToolRequest(req.Params)
	if err != nil {
		return domain.NewErrorMessage(req.ID, domain.InvalidParams, "Invalid params", err.Error())
	}

	return s.result(req, s.dispatcher.Dispatch(ctx, toolReq))
}

// ParseToolRequest decodes tools/call params into a ToolRequest.
func ParseToolRequest(params interface{}) (*domain.ToolRequest, error) {
	if params == nil {
		return nil, fmt.Errorf("params is required for tools/call")
	}

	// Round-trip through JSON so both decoded maps and typed structs are accepted.
	jsonData, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal params: %w", err)
	}

	var toolReq domain.ToolRequest
	if err := json.Unmarshal(jsonData, &toolReq); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tool request: %w", err)
	}

	if toolReq.Name == "" {
		return nil, fmt.Errorf("tool name is required")
	}

	if toolReq.Arguments == nil {
		toolReq.Arguments = make(map[string]interface{})
	}

	return &toolReq, nil
}

func (s *Server) result(req *domain.Request, result interface{}) *domain.Response {
	return &domain.Response{
		JSONRPC: domain.JSONRPCVersion,
		ID:      req.ID,
		Result:  result,
	}
}

// Close waits for in-flight requests and shuts down the transport.
func (s *Server) Close() error {
	s.logger.LogInfo("closing server", nil)
	s.inflight.Wait()

	if s.transport == nil {
		return nil
	}
	return s.transport.Close()
}
