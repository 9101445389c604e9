package domain

import (
	"math"
	"sort"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestProperty_NumericTypes verifies the integer/number relationship for decoded JSON numbers.
func TestProperty_NumericTypes(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("integral numbers satisfy integer and number", prop.ForAll(
		func(n int32) bool {
			v := float64(n)
			return ArgInteger.Matches(v) && ArgNumber.Matches(v) && TypeOf(v) == "integer"
		},
		gen.Int32(),
	))

	properties.Property("fractional numbers satisfy number but not integer", prop.ForAll(
		func(f float64) bool {
			if f == math.Trunc(f) {
				return true
			}
			return ArgNumber.Matches(f) && !ArgInteger.Matches(f)
		},
		gen.Float64Range(-1e6, 1e6),
	))

	properties.Property("strings never satisfy non-string types", prop.ForAll(
		func(s string) bool {
			return ArgString.Matches(s) &&
				!ArgNumber.Matches(s) &&
				!ArgInteger.Matches(s) &&
				!ArgBoolean.Matches(s) &&
				!ArgObject.Matches(s) &&
				!ArgArray.Matches(s)
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}

// TestProperty_Envelopes verifies envelope invariants for arbitrary text.
func TestProperty_Envelopes(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("error envelopes hold exactly one text block", prop.ForAll(
		func(msg string) bool {
			resp := NewErrorResponse(msg)
			return resp.IsError &&
				len(resp.Content) == 1 &&
				resp.Content[0].Type == ContentTypeText &&
				resp.Text() == msg &&
				resp.Validate() == nil
		},
		gen.AnyString(),
	))

	properties.Property("string results map to a single unchanged text block", prop.ForAll(
		func(s string) bool {
			resp, err := MapResult(s)
			return err == nil && !resp.IsError && len(resp.Content) == 1 && resp.Text() == s
		},
		gen.AnyString(),
	))

	properties.Property("success envelopes keep block order", prop.ForAll(
		func(texts []string) bool {
			if len(texts) == 0 {
				_, err := NewSuccessResponse()
				return err != nil
			}
			blocks := make([]ContentBlock, len(texts))
			for i, s := range texts {
				blocks[i] = TextBlock(s)
			}
			resp, err := NewSuccessResponse(blocks...)
			if err != nil || len(resp.Content) != len(texts) {
				return false
			}
			for i, s := range texts {
				if resp.Content[i].Text != s {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.AlphaString()),
	))

	properties.TestingRun(t)
}

// TestProperty_RequiredNamesSorted verifies that required names come back sorted and complete.
func TestProperty_RequiredNamesSorted(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("RequiredNames is sorted and counts required specs", prop.ForAll(
		func(names []string, flags []bool) bool {
			schema := ArgumentSchema{}
			for i, name := range names {
				schema[name] = ArgumentSpec{Type: ArgString, Required: i < len(flags) && flags[i]}
			}

			expected := 0
			for _, spec := range schema {
				if spec.Required {
					expected++
				}
			}

			got := schema.RequiredNames()
			return sort.StringsAreSorted(got) && len(got) == expected
		},
		gen.SliceOf(gen.Identifier()),
		gen.SliceOf(gen.Bool()),
	))

	properties.TestingRun(t)
}
