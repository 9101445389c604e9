package application

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"mcp-tool-server/internal/domain"
)

// Tool name constants for the built-in tools
const (
	ToolEcho              = "echo"
	ToolServerInfo        = "server_info"
	ToolSleep             = "sleep"
	ToolFetchURL          = "fetch_url"
	ToolRecentInvocations = "recent_invocations"
)

// MaxSleepSeconds bounds the sleep tool.
const MaxSleepSeconds = 300

// InvocationReader reads back recorded invocations.
type InvocationReader interface {
	RecentInvocations(ctx context.Context, tool string, limit int) ([]domain.InvocationRecord, error)
}

// BuiltinDeps are the collaborators of the built-in tools. Nil members
// disable the tools that need them.
type BuiltinDeps struct {
	Config      *domain.Config
	Fetcher     domain.Fetcher
	Invocations InvocationReader
	Cache       ResultCache
	StartedAt   time.Time
}

// BuiltinHandler implements the tools shipped with the server.
type BuiltinHandler struct {
	deps BuiltinDeps
}

// NewBuiltinHandler creates a new BuiltinHandler instance.
func NewBuiltinHandler(deps BuiltinDeps) *BuiltinHandler {
	if deps.StartedAt.IsZero() {
		deps.StartedAt = time.Now()
	}
	return &BuiltinHandler{deps: deps}
}

// RegisterBuiltins registers every built-in tool whose dependencies are present.
func RegisterBuiltins(reg *Registry, deps BuiltinDeps) error {
	h := NewBuiltinHandler(deps)

	tools := []struct {
		def     domain.ToolDefinition
		args    domain.ArgumentSchema
		handler domain.ToolHandler
		enabled bool
	}{
		{
			def: domain.ToolDefinition{
				Name:        ToolEcho,
				Description: "Return the given text unchanged",
			},
			args: domain.ArgumentSchema{
				"text": {Type: domain.ArgString, Required: true, Description: "Text to echo back"},
			},
			handler: domain.HandlerFunc(h.echo),
			enabled: true,
		},
		{
			def: domain.ToolDefinition{
				Name:        ToolServerInfo,
				Description: "Describe this server: name, version, uptime and registered tools",
			},
			args:    domain.ArgumentSchema{},
			handler: domain.HandlerFunc(func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
				return h.serverInfo(reg), nil
			}),
			enabled: true,
		},
		{
			def: domain.ToolDefinition{
				Name:        ToolSleep,
				Description: "Wait for the given number of seconds, then report the elapsed time",
			},
			args: domain.ArgumentSchema{
				"seconds": {Type: domain.ArgNumber, Required: true, Description: fmt.Sprintf("Seconds to wait (0-%d)", MaxSleepSeconds)},
			},
			handler: domain.HandlerFunc(h.sleep),
			enabled: true,
		},
		{
			def: domain.ToolDefinition{
				Name:        ToolFetchURL,
				Description: "Fetch an http or https URL and return its body as text",
			},
			args: domain.ArgumentSchema{
				"url":       {Type: domain.ArgString, Required: true, Description: "The URL to fetch"},
				"max_bytes": {Type: domain.ArgInteger, Description: "Maximum body size to return"},
			},
			handler: NewCachedHandler(ToolFetchURL, domain.HandlerFunc(h.fetchURL), deps.Cache),
			enabled: deps.Fetcher != nil,
		},
		{
			def: domain.ToolDefinition{
				Name:        ToolRecentInvocations,
				Description: "List the most recent tool invocations recorded by the audit log",
			},
			args: domain.ArgumentSchema{
				"limit": {Type: domain.ArgInteger, Description: "Maximum number of invocations to return (default 20)"},
				"tool":  {Type: domain.ArgString, Description: "Only return invocations of this tool"},
			},
			handler: domain.HandlerFunc(h.recentInvocations),
			enabled: deps.Invocations != nil,
		},
	}

	for _, tool := range tools {
		if !tool.enabled {
			continue
		}
		if err := reg.Register(tool.def, tool.args, tool.handler); err != nil {
			return fmt.Errorf("registering built-in tools: %w", err)
		}
	}

	return nil
}

// echo returns its text argument.
func (h *BuiltinHandler) echo(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	text, err := getStringParam(args, "text", true)
	if err != nil {
		return nil, err
	}
	return text, nil
}

type serverInfo struct {
	Name      string   `json:"name"`
	Version   string   `json:"version"`
	Transport string   `json:"transport,omitempty"`
	GoVersion string   `json:"goVersion"`
	Uptime    string   `json:"uptime"`
	Tools     []string `json:"tools"`
}

func (h *BuiltinHandler) serverInfo(reg *Registry) serverInfo {
	info := serverInfo{
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.deps.StartedAt).Round(time.Second).String(),
	}

	if cfg := h.deps.Config; cfg != nil {
		info.Name = cfg.Server.Name
		info.Version = cfg.Server.Version
		info.Transport = cfg.Transport.Type
	}

	for _, def := range reg.ListTools() {
		info.Tools = append(info.Tools, def.Name)
	}

	return info
}

// sleep waits for the requested duration or until ctx is done.
func (h *BuiltinHandler) sleep(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	seconds, err := getNumberParam(args, "seconds", true, 0)
	if err != nil {
		return nil, err
	}
	if seconds < 0 || seconds > MaxSleepSeconds {
		return nil, fmt.Errorf("seconds must be between 0 and %d", MaxSleepSeconds)
	}

	start := time.Now()
	timer := time.NewTimer(time.Duration(seconds * float64(time.Second)))
	defer timer.Stop()

	select {
	case <-timer.C:
		return fmt.Sprintf("slept for %s", time.Since(start).Round(time.Millisecond)), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// fetchURL retrieves a document through the configured Fetcher.
func (h *BuiltinHandler) fetchURL(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	url, err := getStringParam(args, "url", true)
	if err != nil {
		return nil, err
	}

	maxBytes, err := getIntParam(args, "max_bytes", false, 0)
	if err != nil {
		return nil, err
	}
	if maxBytes < 0 {
		return nil, fmt.Errorf("max_bytes must not be negative")
	}

	result, err := h.deps.Fetcher.Fetch(ctx, url, int64(maxBytes))
	if err != nil {
		return nil, err
	}

	blocks := []domain.ContentBlock{domain.TextBlock(result.Body)}
	if result.Truncated {
		blocks = append(blocks, domain.TextBlock(fmt.Sprintf("[truncated to %d bytes]", len(result.Body))))
	}

	return domain.NewSuccessResponse(blocks...)
}

// recentInvocations reads the audit log, newest first.
func (h *BuiltinHandler) recentInvocations(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	limit, err := getIntParam(args, "limit", false, 0)
	if err != nil {
		return nil, err
	}
	tool, err := getStringParam(args, "tool", false)
	if err != nil {
		return nil, err
	}

	records, err := h.deps.Invocations.RecentInvocations(ctx, tool, limit)
	if err != nil {
		return nil, err
	}
	return formatInvocations(records), nil
}

func formatInvocations(records []domain.InvocationRecord) string {
	if len(records) == 0 {
		return "No invocations recorded."
	}

	var b strings.Builder
	for _, rec := range records {
		fmt.Fprintf(&b, "%s  %-20s %-10s %6dms",
			rec.CreatedAt.Format(time.RFC3339), rec.ToolName, rec.Outcome, rec.Duration.Milliseconds())
		if rec.IsError && rec.Message != "" {
			fmt.Fprintf(&b, "  %s", rec.Message)
		}
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}
