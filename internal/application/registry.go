package application

import (
	"fmt"
	"regexp"
	"sort"
	"sync/atomic"

	"mcp-tool-server/internal/domain"
)

// toolNamePattern is the accepted tool name syntax.
var toolNamePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

// Registry maps tool names to their descriptors.
//
// Registration happens during startup composition; Seal closes that phase.
// After Seal the registry is read-only, so Resolve and ListTools take no lock.
// Register must not be called concurrently with itself or with dispatch.
type Registry struct {
	tools  map[string]*domain.ToolDescriptor
	sealed atomic.Bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]*domain.ToolDescriptor),
	}
}

// Register stores a tool descriptor built from the definition, schema, and handler.
// The definition's InputSchema is derived from args when it has no properties.
// Returns a *domain.DuplicateToolError if the name is already registered; the
// existing descriptor is left untouched.
func (r *Registry) Register(def domain.ToolDefinition, args domain.ArgumentSchema, handler domain.ToolHandler) error {
	if r.sealed.Load() {
		return fmt.Errorf("register %q: %w", def.Name, domain.ErrRegistrySealed)
	}
	if def.Name == "" {
		return fmt.Errorf("tool name is required")
	}
	if !toolNamePattern.MatchString(def.Name) {
		return fmt.Errorf("invalid tool name %q: must start with a letter and contain only letters, digits, and underscores", def.Name)
	}
	if handler == nil {
		return fmt.Errorf("tool %q: handler is required", def.Name)
	}
	if err := args.Validate(); err != nil {
		return fmt.Errorf("tool %q: %w", def.Name, err)
	}
	if _, exists := r.tools[def.Name]; exists {
		return &domain.DuplicateToolError{Name: def.Name}
	}

	schema := make(domain.ArgumentSchema, len(args))
	for name, spec := range args {
		schema[name] = spec
	}

	if len(def.InputSchema.Properties) == 0 {
		def.InputSchema = schema.JSONSchema()
	}

	r.tools[def.Name] = &domain.ToolDescriptor{
		Definition: def,
		Arguments:  schema,
		Handler:    handler,
	}

	return nil
}

// MustRegister is Register for static tool tables; it panics on error.
func (r *Registry) MustRegister(def domain.ToolDefinition, args domain.ArgumentSchema, handler domain.ToolHandler) {
	if err := r.Register(def, args, handler); err != nil {
		panic(err)
	}
}

// Seal ends the registration phase.
func (r *Registry) Seal() {
	r.sealed.Store(true)
}

// Sealed reports whether Seal has been called.
func (r *Registry) Sealed() bool {
	return r.sealed.Load()
}

// Resolve returns the descriptor registered under name.
// Returns a *domain.UnknownToolError if no such tool exists.
func (r *Registry) Resolve(name string) (*domain.ToolDescriptor, error) {
	desc, exists := r.tools[name]
	if !exists {
		return nil, &domain.UnknownToolError{Name: name}
	}
	return desc, nil
}

// ListTools returns all tool definitions sorted by name.
// This is used for MCP tool discovery (tools/list method).
func (r *Registry) ListTools() []domain.ToolDefinition {
	tools := make([]domain.ToolDefinition, 0, len(r.tools))
	for _, desc := range r.tools {
		tools = append(tools, desc.Definition)
	}

	sort.Slice(tools, func(i, j int) bool {
		return tools[i].Name < tools[j].Name
	})

	return tools
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	return len(r.tools)
}
