package domain

import (
	"fmt"
)

// ContentTypeText is the only content block type produced by the server.
const ContentTypeText = "text"

// ToolDefinition represents an MCP tool definition.
// This describes a tool that can be called by MCP clients.
type ToolDefinition struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	InputSchema JSONSchema `json:"inputSchema"`
}

// ToolRequest represents an MCP tool call request.
// This is the request format when a client invokes a tool.
type ToolRequest struct {
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments"`
}

// ToolResponse is the envelope returned for every tool call.
// When IsError is set, Content[0].Text carries the error message.
type ToolResponse struct {
	Content []ContentBlock `json:"content"`
	IsError bool           `json:"isError,omitempty"`
}

// ContentBlock represents a piece of content in the response.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// JSONSchema represents a JSON Schema for tool input validation.
// It is published in tools/list and derived from an ArgumentSchema.
type JSONSchema struct {
	Type       string                 `json:"type"`
	Properties map[string]interface{} `json:"properties,omitempty"`
	Required   []string               `json:"required,omitempty"`
}

// TextBlock builds a text content block.
func TextBlock(text string) ContentBlock {
	return ContentBlock{Type: ContentTypeText, Text: text}
}

// NewSuccessResponse builds a success envelope from one or more blocks.
// Returns ErrEmptyContent when no blocks are given.
func NewSuccessResponse(blocks ...ContentBlock) (*ToolResponse, error) {
	if len(blocks) == 0 {
		return nil, ErrEmptyContent
	}

	content := make([]ContentBlock, len(blocks))
	copy(content, blocks)

	return &ToolResponse{Content: content}, nil
}

// NewTextResponse builds a success envelope holding a single text block.
func NewTextResponse(text string) *ToolResponse {
	return &ToolResponse{
		Content: []ContentBlock{TextBlock(text)},
	}
}

// NewErrorResponse builds an error envelope with exactly one text block.
func NewErrorResponse(message string) *ToolResponse {
	return &ToolResponse{
		Content: []ContentBlock{TextBlock(message)},
		IsError: true,
	}
}

// Validate checks the envelope invariant: at least one block, every block typed.
func (r *ToolResponse) Validate() error {
	if r == nil {
		return fmt.Errorf("%w: nil envelope", ErrEmptyContent)
	}
	if len(r.Content) == 0 {
		return ErrEmptyContent
	}
	for i, block := range r.Content {
		if block.Type == "" {
			return fmt.Errorf("content block %d has no type", i)
		}
	}
	return nil
}

// Text returns the text of the first content block, or "" for an empty envelope.
func (r *ToolResponse) Text() string {
	if r == nil || len(r.Content) == 0 {
		return ""
	}
	return r.Content[0].Text
}
