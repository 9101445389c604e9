package application

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"mcp-tool-server/internal/domain"
)

// maxErrorMessageLength bounds the handler message included in an error envelope.
const maxErrorMessageLength = 512

// Error envelope messages.
const (
	msgUnknownTool     = "Unknown tool: %s"
	msgMissingArgument = "Missing required argument: %s"
	msgTypeMismatch    = "Invalid type for %s: expected %s, got %s"
	msgTimeout         = "Tool execution timed out"
	msgHandlerFailure  = "Tool execution failed: %s"
)

// FormatError converts any dispatch failure into an error envelope.
func FormatError(err error) *domain.ToolResponse {
	return domain.NewErrorResponse(errorMessage(err))
}

func errorMessage(err error) string {
	var (
		unknown  *domain.UnknownToolError
		missing  *domain.MissingArgumentError
		mismatch *domain.TypeMismatchError
	)

	switch {
	case err == nil:
		return fmt.Sprintf(msgHandlerFailure, "unknown error")
	case errors.As(err, &unknown):
		return fmt.Sprintf(msgUnknownTool, unknown.Name)
	case errors.As(err, &missing):
		return fmt.Sprintf(msgMissingArgument, missing.Name)
	case errors.As(err, &mismatch):
		return fmt.Sprintf(msgTypeMismatch, mismatch.Name, mismatch.Expected, mismatch.Actual)
	case errors.Is(err, domain.ErrTimeout):
		return msgTimeout
	default:
		return fmt.Sprintf(msgHandlerFailure, sanitizeMessage(err.Error()))
	}
}

// absPathPattern matches absolute unix paths such as /home/u/src/pkg/file.go:42.
var absPathPattern = regexp.MustCompile(`(?:^|[\s("'=])(/[^\s:()"']+)`)

// sanitizeMessage keeps only the top-level message: the first line, with
// absolute paths reduced to their base name, bounded in length.
func sanitizeMessage(msg string) string {
	if idx := strings.IndexAny(msg, "\r\n"); idx >= 0 {
		msg = msg[:idx]
	}
	if idx := strings.Index(msg, "goroutine "); idx >= 0 {
		msg = msg[:idx]
	}

	msg = absPathPattern.ReplaceAllStringFunc(msg, func(match string) string {
		idx := strings.Index(match, "/")
		return match[:idx] + filepath.Base(match[idx:])
	})

	msg = strings.TrimSpace(msg)
	if msg == "" {
		return "internal error"
	}

	if len(msg) > maxErrorMessageLength {
		msg = strings.ToValidUTF8(msg[:maxErrorMessageLength], "") + "..."
	}

	return msg
}
