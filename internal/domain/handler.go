package domain

import (
	"context"
)

// ToolHandler implements the behavior behind one registered tool.
type ToolHandler interface {
	// Handle executes the tool with validated arguments.
	// The result may be a *ToolResponse, a string, one or more ContentBlocks,
	// or any JSON-encodable value. The handler should stop when ctx is done.
	Handle(ctx context.Context, args map[string]interface{}) (interface{}, error)
}

// HandlerFunc adapts an ordinary function to ToolHandler.
type HandlerFunc func(ctx context.Context, args map[string]interface{}) (interface{}, error)

// Handle calls f(ctx, args).
func (f HandlerFunc) Handle(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	return f(ctx, args)
}

// ToolDescriptor binds a tool definition to its argument schema and handler.
// Descriptors are created at registration time and never modified afterward.
type ToolDescriptor struct {
	Definition ToolDefinition
	Arguments  ArgumentSchema
	Handler    ToolHandler
}

// Name returns the registered tool name.
func (d *ToolDescriptor) Name() string {
	return d.Definition.Name
}

// Auditor records the outcome of each invocation.
// Implementations must be safe for concurrent use.
type Auditor interface {
	RecordInvocation(ctx context.Context, record InvocationRecord) error
}
