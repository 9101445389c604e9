package application

import (
	"strings"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"mcp-tool-server/internal/domain"
)

// TestProperty_DispatchEnvelopes verifies that every dispatch yields a well-formed envelope.
func TestProperty_DispatchEnvelopes(t *testing.T) {
	d := newTestDispatcher(t, time.Second, nil, nil)

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("unregistered tools are reported as unknown", prop.ForAll(
		func(name string) bool {
			if name == "echo" {
				return true
			}
			resp := call(d, name, nil)
			return resp.IsError &&
				strings.HasPrefix(resp.Text(), "Unknown tool:") &&
				resp.Validate() == nil
		},
		gen.AnyString(),
	))

	properties.Property("echo returns its text unchanged", prop.ForAll(
		func(text string) bool {
			resp := call(d, "echo", map[string]interface{}{"text": text})
			return !resp.IsError && len(resp.Content) == 1 && resp.Text() == text
		},
		gen.AnyString(),
	))

	properties.Property("a missing required argument is always named", prop.ForAll(
		func(extra string) bool {
			resp := call(d, "echo", map[string]interface{}{"other": extra})
			return resp.IsError && resp.Text() == "Missing required argument: text"
		},
		gen.AlphaString(),
	))

	properties.Property("non-string text is a type mismatch", prop.ForAll(
		func(n int) bool {
			resp := call(d, "echo", map[string]interface{}{"text": float64(n)})
			return resp.IsError && strings.HasPrefix(resp.Text(), "Invalid type for text: expected string")
		},
		gen.Int(),
	))

	properties.TestingRun(t)
}

// TestProperty_FormatErrorAlwaysSingleBlock verifies the error envelope shape for arbitrary messages.
func TestProperty_FormatErrorAlwaysSingleBlock(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("formatted errors have one bounded text block", prop.ForAll(
		func(msg string) bool {
			resp := FormatError(&domain.HandlerFailureError{Tool: "t", Err: errorString(msg)})
			return resp.IsError &&
				len(resp.Content) == 1 &&
				strings.HasPrefix(resp.Text(), "Tool execution failed: ") &&
				!strings.Contains(resp.Text(), "\n") &&
				len(resp.Text()) <= len("Tool execution failed: ")+maxErrorMessageLength+3
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}

type errorString string

func (e errorString) Error() string { return string(e) }
