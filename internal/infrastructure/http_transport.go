package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"mcp-tool-server/internal/domain"
)

// MaxRequestBodySize is the maximum allowed size for request bodies (1MB).
const MaxRequestBodySize = 1 << 20

// RPCHandler answers one JSON-RPC request; nil means no response (notification).
type RPCHandler interface {
	HandleRequest(ctx context.Context, req *domain.Request) *domain.Response
}

// ToolDispatcher turns a tool request into an envelope.
type ToolDispatcher interface {
	Dispatch(ctx context.Context, req *domain.ToolRequest) *domain.ToolResponse
}

// ToolCatalog lists registered tools.
type ToolCatalog interface {
	ListTools() []domain.ToolDefinition
}

// HTTPTransportConfig holds the HTTP transport's dependencies.
type HTTPTransportConfig struct {
	Addr       string
	RPC        RPCHandler
	Dispatcher ToolDispatcher
	Catalog    ToolCatalog
	Logger     *slog.Logger
}

// HTTPTransport serves MCP over plain HTTP request/response.
//
//	GET  /health     liveness
//	POST /mcp        one JSON-RPC request, JSON-RPC response
//	GET  /mcp/tools  tool catalog
//	POST /mcp/call   {"name", "arguments"} -> envelope
type HTTPTransport struct {
	router     *chi.Mux
	server     *http.Server
	rpc        RPCHandler
	dispatcher ToolDispatcher
	catalog    ToolCatalog
	logger     *slog.Logger
}

// NewHTTPTransport creates the transport and its routes.
func NewHTTPTransport(cfg HTTPTransportConfig) *HTTPTransport {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	t := &HTTPTransport{
		router:     chi.NewRouter(),
		rpc:        cfg.RPC,
		dispatcher: cfg.Dispatcher,
		catalog:    cfg.Catalog,
		logger:     logger.With("component", "http"),
	}

	t.router.Use(middleware.RequestID)
	t.router.Use(middleware.RealIP)
	t.router.Use(t.requestLogger)
	t.router.Use(middleware.Recoverer)

	t.router.Get("/health", t.handleHealth)

	t.router.Route("/mcp", func(r chi.Router) {
		r.Use(limitBody)
		r.Post("/", t.handleRPC)
		r.Get("/tools", t.handleListTools)
		r.Post("/call", t.handleCall)
	})

	t.server = &http.Server{
		Addr:              cfg.Addr,
		Handler:           t.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return t
}

// Router exposes the root HTTP handler.
func (t *HTTPTransport) Router() http.Handler {
	return t.router
}

// Start serves until Close is called or ctx is cancelled.
func (t *HTTPTransport) Start(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		t.Close()
	}()

	t.logger.Info("listening", "addr", t.server.Addr)
	if err := t.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Close gracefully shuts down the HTTP server.
func (t *HTTPTransport) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return t.server.Shutdown(ctx)
}

func (t *HTTPTransport) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (t *HTTPTransport) handleRPC(w http.ResponseWriter, r *http.Request) {
	var req domain.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusOK, domain.NewErrorMessage(nil, domain.ParseError, "Parse error", err.Error()))
		return
	}

	resp := t.rpc.HandleRequest(r.Context(), &req)
	if resp == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (t *HTTPTransport) handleListTools(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"tools": t.catalog.ListTools(),
	})
}

func (t *HTTPTransport) handleCall(w http.ResponseWriter, r *http.Request) {
	var req domain.ToolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "tool name is required"})
		return
	}
	if req.Arguments == nil {
		req.Arguments = make(map[string]interface{})
	}

	writeJSON(w, http.StatusOK, t.dispatcher.Dispatch(r.Context(), &req))
}

// requestLogger logs each request through slog once it completes.
func (t *HTTPTransport) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		t.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"remote", r.RemoteAddr,
			"request_id", middleware.GetReqID(r.Context()),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
