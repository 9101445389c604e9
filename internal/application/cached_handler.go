package application

import (
	"context"
	"encoding/json"
	"fmt"

	"mcp-tool-server/internal/domain"
)

// ResultCache stores handler results by key. Implementations must be safe for
// concurrent use.
type ResultCache interface {
	Get(key string) (interface{}, bool)
	Set(key string, value interface{})
}

// CachedHandler memoizes successful results of a deterministic tool.
// Errors are never cached.
type CachedHandler struct {
	tool  string
	next  domain.ToolHandler
	cache ResultCache
}

// NewCachedHandler wraps next. A nil cache returns next unchanged.
func NewCachedHandler(tool string, next domain.ToolHandler, cache ResultCache) domain.ToolHandler {
	if cache == nil {
		return next
	}
	return &CachedHandler{tool: tool, next: next, cache: cache}
}

// Handle returns the cached result for args or calls the wrapped handler.
func (h *CachedHandler) Handle(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	key, err := cacheKey(h.tool, args)
	if err != nil {
		return h.next.Handle(ctx, args)
	}

	if value, ok := h.cache.Get(key); ok {
		return value, nil
	}

	value, err := h.next.Handle(ctx, args)
	if err != nil {
		return nil, err
	}

	h.cache.Set(key, value)
	return value, nil
}

// cacheKey is the tool name plus the arguments' JSON encoding, which sorts map keys.
func cacheKey(tool string, args map[string]interface{}) (string, error) {
	data, err := json.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("encoding cache key: %w", err)
	}
	return tool + ":" + string(data), nil
}
