package domain

import (
	"fmt"
	"math"
	"sort"
)

// ArgType is the primitive type tag declared for a tool argument.
type ArgType string

const (
	ArgString  ArgType = "string"
	ArgNumber  ArgType = "number"
	ArgInteger ArgType = "integer"
	ArgBoolean ArgType = "boolean"
	ArgObject  ArgType = "object"
	ArgArray   ArgType = "array"
)

// Valid reports whether t is one of the known type tags.
func (t ArgType) Valid() bool {
	switch t {
	case ArgString, ArgNumber, ArgInteger, ArgBoolean, ArgObject, ArgArray:
		return true
	default:
		return false
	}
}

// ArgumentSpec declares one tool argument.
type ArgumentSpec struct {
	Type        ArgType
	Required    bool
	Description string
}

// ArgumentSchema maps argument names to their declarations.
type ArgumentSchema map[string]ArgumentSpec

// Validate rejects unknown type tags and empty argument names.
func (s ArgumentSchema) Validate() error {
	for _, name := range s.names() {
		if name == "" {
			return fmt.Errorf("argument name must not be empty")
		}
		if spec := s[name]; !spec.Type.Valid() {
			return fmt.Errorf("argument %q has invalid type %q", name, spec.Type)
		}
	}
	return nil
}

// RequiredNames returns the required argument names in sorted order.
func (s ArgumentSchema) RequiredNames() []string {
	var required []string
	for _, name := range s.names() {
		if s[name].Required {
			required = append(required, name)
		}
	}
	return required
}

// JSONSchema converts the tagged schema to the JSON Schema published in tools/list.
func (s ArgumentSchema) JSONSchema() JSONSchema {
	properties := make(map[string]interface{}, len(s))
	for name, spec := range s {
		prop := map[string]interface{}{
			"type": string(spec.Type),
		}
		if spec.Description != "" {
			prop["description"] = spec.Description
		}
		properties[name] = prop
	}

	return JSONSchema{
		Type:       "object",
		Properties: properties,
		Required:   s.RequiredNames(),
	}
}

func (s ArgumentSchema) names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TypeOf reports the JSON type name of a decoded argument value.
// Integral numbers report "integer"; Matches treats them as numbers too.
func TypeOf(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case string:
		return string(ArgString)
	case bool:
		return string(ArgBoolean)
	case float64:
		if isIntegral(v) {
			return string(ArgInteger)
		}
		return string(ArgNumber)
	case float32:
		if isIntegral(float64(v)) {
			return string(ArgInteger)
		}
		return string(ArgNumber)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return string(ArgInteger)
	case map[string]interface{}:
		return string(ArgObject)
	case []interface{}, []string, []map[string]interface{}:
		return string(ArgArray)
	default:
		return fmt.Sprintf("%T", value)
	}
}

// Matches reports whether value satisfies the declared type.
func (t ArgType) Matches(value interface{}) bool {
	actual := TypeOf(value)
	if t == ArgNumber && actual == string(ArgInteger) {
		return true
	}
	return actual == string(t)
}

func isIntegral(f float64) bool {
	return !math.IsInf(f, 0) && !math.IsNaN(f) && f == math.Trunc(f)
}
