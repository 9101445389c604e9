package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/fatih/color"

	"mcp-tool-server/internal/application"
	"mcp-tool-server/internal/domain"
	"mcp-tool-server/internal/infrastructure"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "", "Path to a YAML or TOML configuration file")
	listTools := flag.Bool("list-tools", false, "Print the registered tools and exit")
	flag.Parse()

	if err := run(*configPath, *listTools); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error: %v", err))
		os.Exit(1)
	}
}

func run(configPath string, listTools bool) error {
	config, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(config.Logging, os.Stderr)
	slog.SetDefault(logger)

	if listTools {
		reg, err := catalog(config)
		if err != nil {
			return err
		}
		printTools(os.Stdout, reg.ListTools())
		return nil
	}

	srv, err := newApp(config, application.NewStructuredLogger(logger))
	if err != nil {
		return err
	}
	defer srv.Close()

	// Create context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.Serve(ctx)
}

// loadConfig reads path, or returns defaults when no path is given.
func loadConfig(path string) (*domain.Config, error) {
	if path == "" {
		return domain.DefaultConfig(), nil
	}
	config, err := domain.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return config, nil
}

// app holds the composed server.
type app struct {
	config     *domain.Config
	logger     *application.StructuredLogger
	registry   *application.Registry
	dispatcher *application.Dispatcher
	audit      *infrastructure.AuditStore
}

// newApp wires the registry, dispatcher, and optional audit store from config.
// The registry is sealed before newApp returns.
func newApp(config *domain.Config, logger *application.StructuredLogger) (*app, error) {
	a := &app{
		config:   config,
		logger:   logger,
		registry: application.NewRegistry(),
	}

	deps := builtinDeps(config)

	var auditor domain.Auditor
	if config.Audit.Enabled {
		store, err := infrastructure.NewAuditStore(config.Audit.Path)
		if err != nil {
			return nil, fmt.Errorf("opening audit store: %w", err)
		}
		a.audit = store
		auditor = store
		deps.Invocations = store
		logger.LogInfo("audit log enabled", map[string]interface{}{"path": config.Audit.Path})
	}

	if err := application.RegisterBuiltins(a.registry, deps); err != nil {
		a.Close()
		return nil, err
	}
	a.registry.Seal()

	a.dispatcher = application.NewDispatcher(application.DispatcherConfig{
		Registry: a.registry,
		Timeout:  config.Dispatch.Timeout,
		Auditor:  auditor,
		Logger:   logger.With(map[string]interface{}{"component": "dispatcher"}),
	})

	return a, nil
}

// builtinDeps returns the built-in tool collaborators that need no open resources.
func builtinDeps(config *domain.Config) application.BuiltinDeps {
	deps := application.BuiltinDeps{
		Config:    config,
		Fetcher:   infrastructure.NewFetchClient(nil, config.Server.Name+"/"+config.Server.Version),
		StartedAt: time.Now(),
	}
	if config.Cache.TTL > 0 {
		deps.Cache = infrastructure.NewCache(config.Cache.TTL, config.Cache.MaxEntries)
	}
	return deps
}

var errAuditNotOpened = errors.New("audit store is not open")

// unopenedAudit stands in for the audit store when only the catalog is needed.
type unopenedAudit struct{}

func (unopenedAudit) RecentInvocations(ctx context.Context, tool string, limit int) ([]domain.InvocationRecord, error) {
	return nil, errAuditNotOpened
}

// catalog builds the sealed registry that newApp would serve, without opening
// the audit database.
func catalog(config *domain.Config) (*application.Registry, error) {
	reg := application.NewRegistry()

	deps := builtinDeps(config)
	if config.Audit.Enabled {
		deps.Invocations = unopenedAudit{}
	}

	if err := application.RegisterBuiltins(reg, deps); err != nil {
		return nil, err
	}
	reg.Seal()
	return reg, nil
}

// Serve runs the configured transport until ctx is cancelled or input ends.
func (a *app) Serve(ctx context.Context) error {
	switch a.config.Transport.Type {
	case "stdio":
		server := application.NewServer(domain.NewStdioTransport(), a.dispatcher, a.config, a.logger)
		return a.serve(ctx, server.Start, server.Close)
	case "http":
		server := application.NewServer(nil, a.dispatcher, a.config, a.logger)
		transport := infrastructure.NewHTTPTransport(infrastructure.HTTPTransportConfig{
			Addr:       a.config.Transport.HTTP.Addr(),
			RPC:        server,
			Dispatcher: a.dispatcher,
			Catalog:    a.registry,
			Logger:     a.logger.Slog(),
		})
		return a.serve(ctx, transport.Start, transport.Close)
	default:
		return fmt.Errorf("invalid transport type: %s", a.config.Transport.Type)
	}
}

// serve blocks in start until it returns or ctx is cancelled, then calls closeFn.
func (a *app) serve(ctx context.Context, start func(context.Context) error, closeFn func() error) error {
	a.logger.LogInfo("starting MCP server", map[string]interface{}{
		"transport": a.config.Transport.Type,
		"tools":     a.registry.Len(),
		"timeout":   a.dispatcher.Timeout().String(),
	})

	errChan := make(chan error, 1)
	go func() {
		errChan <- start(ctx)
	}()

	var err error
	select {
	case <-ctx.Done():
		a.logger.LogInfo("initiating graceful shutdown", nil)
	case err = <-errChan:
		if err != nil {
			a.logger.LogError("server error", err, nil)
		}
	}

	if closeErr := closeFn(); closeErr != nil && !errors.Is(closeErr, domain.ErrTransportClosed) {
		a.logger.LogError("error during server shutdown", closeErr, nil)
	}

	a.logger.LogInfo("server shutdown complete", nil)
	return err
}

// Close releases the audit store.
func (a *app) Close() {
	if a.audit != nil {
		if err := a.audit.Close(); err != nil {
			a.logger.LogError("failed to close audit store", err, nil)
		}
	}
}

// printTools writes the tool catalog in a human-readable form.
func printTools(w io.Writer, tools []domain.ToolDefinition) {
	name := color.New(color.FgCyan, color.Bold)
	arg := color.New(color.FgGreen)
	gray := color.New(color.FgHiBlack)

	for _, tool := range tools {
		name.Fprint(w, tool.Name)
		fmt.Fprintf(w, "  %s\n", tool.Description)

		required := make(map[string]bool, len(tool.InputSchema.Required))
		for _, r := range tool.InputSchema.Required {
			required[r] = true
		}

		for _, prop := range sortedKeys(tool.InputSchema.Properties) {
			typ := ""
			if p, ok := tool.InputSchema.Properties[prop].(map[string]interface{}); ok {
				typ, _ = p["type"].(string)
			}
			fmt.Fprint(w, "    ")
			arg.Fprint(w, prop)
			gray.Fprintf(w, " (%s", typ)
			if required[prop] {
				gray.Fprint(w, ", required")
			}
			gray.Fprintln(w, ")")
		}
	}
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
