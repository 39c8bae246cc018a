package registry

import "encoding/json"

// FieldKind is the set of primitive argument types a tool may declare.
type FieldKind string

const (
	KindString  FieldKind = "string"
	KindInteger FieldKind = "integer"
	KindBoolean FieldKind = "boolean"
)

// Field declares a single argument a tool accepts. The order of fields in a
// ToolDefinition is the order the query builder walks them in, independent of
// the caller's payload ordering.
type Field struct {
	Name        string
	Kind        FieldKind
	Required    bool
	Enum        []string // only meaningful for KindString
	Description string
}

// ToolDefinition describes one callable tool: its name, argument schema and
// default row limit. Definitions are built once at process start and never
// mutated.
type ToolDefinition struct {
	Name         string
	Description  string
	Fields       []Field
	DefaultLimit int
}

// Field returns the declared field with the given name, or nil.
func (td *ToolDefinition) Field(name string) *Field {
	for i := range td.Fields {
		if td.Fields[i].Name == name {
			return &td.Fields[i]
		}
	}
	return nil
}

// SchemaJSON renders the tool's argument schema as a JSON Schema document,
// the shape both the validator compiles and the MCP tool listing advertises.
func (td *ToolDefinition) SchemaJSON() json.RawMessage {
	properties := make(map[string]any, len(td.Fields))
	var required []string
	for _, f := range td.Fields {
		prop := map[string]any{"type": string(f.Kind)}
		if f.Description != "" {
			prop["description"] = f.Description
		}
		if len(f.Enum) > 0 {
			prop["enum"] = f.Enum
		}
		properties[f.Name] = prop
		if f.Required {
			required = append(required, f.Name)
		}
	}
	doc := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		doc["required"] = required
	}
	raw, _ := json.Marshal(doc)
	return raw
}
