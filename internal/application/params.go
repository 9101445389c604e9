package application

import (
	"math"

	"mcp-tool-server/internal/domain"
)

// getStringParam extracts a string parameter from the arguments map.
// Returns an error if the parameter is required but missing or not a string.
func getStringParam(args map[string]interface{}, name string, required bool) (string, error) {
	value, exists := args[name]
	if !exists {
		if required {
			return "", &domain.MissingArgumentError{Name: name}
		}
		return "", nil
	}

	strValue, ok := value.(string)
	if !ok {
		return "", &domain.TypeMismatchError{Name: name, Expected: domain.ArgString, Actual: domain.TypeOf(value)}
	}

	return strValue, nil
}

// getIntParam extracts an integer parameter from the arguments map.
// Returns an error if the parameter is required but missing, or if it exists
// but is not an integral number.
func getIntParam(args map[string]interface{}, name string, required bool, fallback int) (int, error) {
	value, exists := args[name]
	if !exists {
		if required {
			return 0, &domain.MissingArgumentError{Name: name}
		}
		return fallback, nil
	}

	// Handle both float64 (from JSON) and int
	switch v := value.(type) {
	case float64:
		if v == math.Trunc(v) && !math.IsInf(v, 0) {
			return int(v), nil
		}
	case int:
		return v, nil
	case int64:
		return int(v), nil
	}

	return 0, &domain.TypeMismatchError{Name: name, Expected: domain.ArgInteger, Actual: domain.TypeOf(value)}
}

// getNumberParam extracts a numeric parameter from the arguments map.
func getNumberParam(args map[string]interface{}, name string, required bool, fallback float64) (float64, error) {
	value, exists := args[name]
	if !exists {
		if required {
			return 0, &domain.MissingArgumentError{Name: name}
		}
		return fallback, nil
	}

	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	}

	return 0, &domain.TypeMismatchError{Name: name, Expected: domain.ArgNumber, Actual: domain.TypeOf(value)}
}
