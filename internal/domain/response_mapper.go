package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Errors returned by MapResult for handler results that cannot form an envelope.
var (
	ErrNoResult        = errors.New("handler returned no result")
	ErrMalformedResult = errors.New("handler returned a malformed envelope")
)

// MapResult converts a handler's return value into a success envelope.
// A well-formed *ToolResponse is used as-is, strings and content blocks are
// wrapped, and any other value is JSON-encoded into a single text block.
func MapResult(result interface{}) (*ToolResponse, error) {
	switch v := result.(type) {
	case nil:
		return nil, ErrNoResult
	case *ToolResponse:
		if v == nil {
			return nil, ErrNoResult
		}
		if err := v.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResult, err)
		}
		return v, nil
	case ToolResponse:
		if err := v.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResult, err)
		}
		return &v, nil
	case string:
		return NewTextResponse(v), nil
	case ContentBlock:
		return NewSuccessResponse(v)
	case []ContentBlock:
		resp, err := NewSuccessResponse(v...)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResult, err)
		}
		return resp, nil
	case []byte:
		return NewTextResponse(string(v)), nil
	case json.RawMessage:
		return NewTextResponse(string(v)), nil
	case fmt.Stringer:
		return NewTextResponse(v.String()), nil
	}

	jsonBytes, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal handler result: %w", err)
	}

	return NewTextResponse(string(jsonBytes)), nil
}
