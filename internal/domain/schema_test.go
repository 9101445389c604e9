package domain

import (
	"reflect"
	"testing"
)

func TestTypeOf(t *testing.T) {
	tests := []struct {
		value interface{}
		want  string
	}{
		{nil, "null"},
		{"x", "string"},
		{"", "string"},
		{true, "boolean"},
		{float64(5), "integer"},
		{float64(-2), "integer"},
		{5.5, "number"},
		{float32(1.25), "number"},
		{7, "integer"},
		{int64(7), "integer"},
		{map[string]interface{}{}, "object"},
		{[]interface{}{1}, "array"},
		{[]string{"a"}, "array"},
		{struct{}{}, "struct {}"},
	}

	for _, tt := range tests {
		if got := TypeOf(tt.value); got != tt.want {
			t.Errorf("TypeOf(%#v) = %q, want %q", tt.value, got, tt.want)
		}
	}
}

func TestArgType_Matches(t *testing.T) {
	tests := []struct {
		name  string
		typ   ArgType
		value interface{}
		want  bool
	}{
		{"string accepts string", ArgString, "hi", true},
		{"string rejects number", ArgString, float64(5), false},
		{"number accepts integer", ArgNumber, float64(5), true},
		{"number accepts fraction", ArgNumber, 5.5, true},
		{"integer accepts integral float", ArgInteger, float64(5), true},
		{"integer rejects fraction", ArgInteger, 5.5, false},
		{"boolean accepts bool", ArgBoolean, false, true},
		{"boolean rejects string", ArgBoolean, "true", false},
		{"object accepts map", ArgObject, map[string]interface{}{"a": 1}, true},
		{"object rejects array", ArgObject, []interface{}{}, false},
		{"array accepts slice", ArgArray, []interface{}{}, true},
		{"null matches nothing", ArgString, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.typ.Matches(tt.value); got != tt.want {
				t.Errorf("%s.Matches(%#v) = %v, want %v", tt.typ, tt.value, got, tt.want)
			}
		})
	}
}

func TestArgumentSchema_Validate(t *testing.T) {
	if err := (ArgumentSchema{"a": {Type: ArgString}}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := (ArgumentSchema{}).Validate(); err != nil {
		t.Errorf("empty schema should be valid: %v", err)
	}
	if err := (ArgumentSchema{"a": {Type: "date"}}).Validate(); err == nil {
		t.Error("expected error for unknown type tag")
	}
	if err := (ArgumentSchema{"": {Type: ArgString}}).Validate(); err == nil {
		t.Error("expected error for empty argument name")
	}
}

func TestArgumentSchema_RequiredNames(t *testing.T) {
	schema := ArgumentSchema{
		"zeta":  {Type: ArgString, Required: true},
		"alpha": {Type: ArgNumber, Required: true},
		"mid":   {Type: ArgBoolean},
	}

	got := schema.RequiredNames()
	want := []string{"alpha", "zeta"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("RequiredNames() = %v, want %v", got, want)
	}
}

func TestArgumentSchema_JSONSchema(t *testing.T) {
	schema := ArgumentSchema{
		"text":  {Type: ArgString, Required: true, Description: "Text to echo"},
		"count": {Type: ArgInteger},
	}

	js := schema.JSONSchema()

	if js.Type != "object" {
		t.Errorf("expected object schema, got %q", js.Type)
	}
	if !reflect.DeepEqual(js.Required, []string{"text"}) {
		t.Errorf("unexpected required list %v", js.Required)
	}

	text, ok := js.Properties["text"].(map[string]interface{})
	if !ok {
		t.Fatalf("text property missing: %#v", js.Properties)
	}
	if text["type"] != "string" || text["description"] != "Text to echo" {
		t.Errorf("unexpected text property %#v", text)
	}

	count := js.Properties["count"].(map[string]interface{})
	if _, has := count["description"]; has {
		t.Error("empty description should be omitted")
	}
}
