package application

import (
	"sort"

	"mcp-tool-server/internal/domain"
)

// ValidateArguments checks a request against the descriptor's argument schema.
//
// Required arguments are checked first, in sorted name order, then every
// present argument with a declared type is type-checked. Keys absent from the
// schema pass through unchanged. The returned map is a shallow copy, so the
// handler never holds the caller's map.
func ValidateArguments(req *domain.ToolRequest, desc *domain.ToolDescriptor) (map[string]interface{}, error) {
	args := req.Arguments

	for _, name := range desc.Arguments.RequiredNames() {
		if _, ok := args[name]; !ok {
			return nil, &domain.MissingArgumentError{Name: name}
		}
	}

	keys := make([]string, 0, len(args))
	for key := range args {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	validated := make(map[string]interface{}, len(args))
	for _, key := range keys {
		value := args[key]
		if spec, declared := desc.Arguments[key]; declared && !spec.Type.Matches(value) {
			return nil, &domain.TypeMismatchError{
				Name:     key,
				Expected: spec.Type,
				Actual:   domain.TypeOf(value),
			}
		}
		validated[key] = value
	}

	return validated, nil
}
