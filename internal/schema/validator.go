// Package schema validates raw tool argument payloads against each tool's
// declared argument schema and normalizes them into native Go types. Nothing
// reaches query construction without passing through here first.
package schema

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/clinreg/registry-mcp/internal/registry"
)

// ValidationError reports a malformed or missing argument. It names the
// offending field and the shape the schema expects, and aborts the call
// before any query construction happens.
type ValidationError struct {
	Tool     string
	Field    string
	Expected string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: invalid arguments: %s", e.Tool, e.Expected)
	}
	return fmt.Sprintf("%s: argument %q: expected %s", e.Tool, e.Field, e.Expected)
}

// Validator holds one compiled JSON Schema per registered tool.
type Validator struct {
	compiled map[string]*jsonschema.Schema
}

// NewValidator compiles the argument schema of every tool in the registry.
// Definitions are static, so a compile failure is a programming error and
// surfaces at startup.
func NewValidator(reg *registry.Registry) (*Validator, error) {
	v := &Validator{compiled: make(map[string]*jsonschema.Schema)}
	for _, td := range reg.List() {
		c := jsonschema.NewCompiler()
		var doc any
		if err := json.Unmarshal(td.SchemaJSON(), &doc); err != nil {
			return nil, fmt.Errorf("schema for %s: %w", td.Name, err)
		}
		resource := td.Name + ".json"
		if err := c.AddResource(resource, doc); err != nil {
			return nil, fmt.Errorf("schema for %s: %w", td.Name, err)
		}
		sch, err := c.Compile(resource)
		if err != nil {
			return nil, fmt.Errorf("schema for %s: %w", td.Name, err)
		}
		v.compiled[td.Name] = sch
	}
	return v, nil
}

// Validate checks raw against the tool's declared schema and returns a
// normalized argument map holding only declared fields with native types
// (string, int, bool). Undeclared fields are ignored, not rejected.
func (v *Validator) Validate(td *registry.ToolDefinition, raw map[string]any) (map[string]any, error) {
	if raw == nil {
		raw = map[string]any{}
	}

	sch, ok := v.compiled[td.Name]
	if !ok {
		return nil, fmt.Errorf("no compiled schema for tool %s", td.Name)
	}
	if err := sch.Validate(anyMap(raw)); err != nil {
		return nil, diagnose(td, raw, err)
	}

	return normalize(td, raw)
}

// anyMap re-types the payload so the validator sees a plain map[string]any
// even when callers hand richer concrete value types.
func anyMap(raw map[string]any) any {
	out := make(map[string]any, len(raw))
	for k, val := range raw {
		switch tv := val.(type) {
		case int:
			out[k] = float64(tv)
		case int64:
			out[k] = float64(tv)
		case json.Number:
			f, err := tv.Float64()
			if err == nil {
				out[k] = f
			} else {
				out[k] = tv.String()
			}
		default:
			out[k] = val
		}
	}
	return out
}

// diagnose turns a jsonschema failure into a ValidationError naming the first
// offending declared field. Falls back to the raw validator message when the
// mismatch is not attributable to a single field.
func diagnose(td *registry.ToolDefinition, raw map[string]any, err error) error {
	for _, f := range td.Fields {
		val, present := raw[f.Name]
		if !present {
			if f.Required {
				return &ValidationError{Tool: td.Name, Field: f.Name, Expected: string(f.Kind) + " (required)"}
			}
			continue
		}
		if exp := fieldMismatch(f, val); exp != "" {
			return &ValidationError{Tool: td.Name, Field: f.Name, Expected: exp}
		}
	}
	return &ValidationError{Tool: td.Name, Expected: err.Error()}
}

// fieldMismatch returns the expected-shape description when val does not fit
// the declared field, or "" when it does.
func fieldMismatch(f registry.Field, val any) string {
	switch f.Kind {
	case registry.KindString:
		s, ok := val.(string)
		if !ok {
			return "string"
		}
		if len(f.Enum) > 0 && !contains(f.Enum, s) {
			return fmt.Sprintf("one of %v", f.Enum)
		}
	case registry.KindInteger:
		if _, ok := asInt(val); !ok {
			return "integer"
		}
	case registry.KindBoolean:
		if _, ok := val.(bool); !ok {
			return "boolean"
		}
	}
	return ""
}

// normalize extracts the declared fields into native Go types.
func normalize(td *registry.ToolDefinition, raw map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(td.Fields))
	for _, f := range td.Fields {
		val, present := raw[f.Name]
		if !present || val == nil {
			continue
		}
		switch f.Kind {
		case registry.KindString:
			s, ok := val.(string)
			if !ok {
				return nil, &ValidationError{Tool: td.Name, Field: f.Name, Expected: "string"}
			}
			out[f.Name] = s
		case registry.KindInteger:
			n, ok := asInt(val)
			if !ok {
				return nil, &ValidationError{Tool: td.Name, Field: f.Name, Expected: "integer"}
			}
			out[f.Name] = n
		case registry.KindBoolean:
			b, ok := val.(bool)
			if !ok {
				return nil, &ValidationError{Tool: td.Name, Field: f.Name, Expected: "boolean"}
			}
			out[f.Name] = b
		}
	}
	return out, nil
}

// asInt accepts the numeric representations a JSON decode can produce and
// rejects non-integral values.
func asInt(val any) (int, bool) {
	switch n := val.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if math.Trunc(n) != n || math.IsInf(n, 0) || math.IsNaN(n) {
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	default:
		return 0, false
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
