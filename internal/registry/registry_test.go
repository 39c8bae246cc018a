package registry

import (
	"encoding/json"
	"testing"
)

func TestNew_NineTools(t *testing.T) {
	r := New()
	want := map[string]int{
		"query_sql":           500,
		"search_patients":     50,
		"get_patient_details": 1,
		"build_cohort":        200,
		"registry_overview":   1,
		"demographics":        50,
		"enrollment_trends":   200,
		"data_intersections":  10,
		"chart_from_sql":      500,
	}
	if len(r.List()) != len(want) {
		t.Fatalf("expected %d tools, got %d", len(want), len(r.List()))
	}
	for name, limit := range want {
		td := r.Get(name)
		if td == nil {
			t.Fatalf("tool %s not registered", name)
		}
		if td.DefaultLimit != limit {
			t.Fatalf("tool %s: expected default limit %d, got %d", name, limit, td.DefaultLimit)
		}
	}
}

func TestGet_UnknownReturnsNil(t *testing.T) {
	if New().Get("delete_patients") != nil {
		t.Fatal("unregistered name must return nil")
	}
}

func TestListOrderStable(t *testing.T) {
	a, b := New().List(), New().List()
	for i := range a {
		if a[i].Name != b[i].Name {
			t.Fatalf("registration order differs at %d: %s vs %s", i, a[i].Name, b[i].Name)
		}
	}
}

func TestSchemaJSON_RequiredAndEnums(t *testing.T) {
	r := New()

	var querySchema struct {
		Type       string         `json:"type"`
		Properties map[string]any `json:"properties"`
		Required   []string       `json:"required"`
	}
	if err := json.Unmarshal(r.Get("query_sql").SchemaJSON(), &querySchema); err != nil {
		t.Fatal(err)
	}
	if querySchema.Type != "object" {
		t.Fatalf("expected object schema, got %q", querySchema.Type)
	}
	if len(querySchema.Required) != 1 || querySchema.Required[0] != "sql" {
		t.Fatalf("expected sql required, got %v", querySchema.Required)
	}
	if _, ok := querySchema.Properties["limit"]; !ok {
		t.Fatal("limit property missing")
	}

	var chartSchema struct {
		Properties map[string]struct {
			Enum []string `json:"enum"`
		} `json:"properties"`
	}
	if err := json.Unmarshal(r.Get("chart_from_sql").SchemaJSON(), &chartSchema); err != nil {
		t.Fatal(err)
	}
	if len(chartSchema.Properties["mark"].Enum) != 5 {
		t.Fatalf("expected 5 mark values, got %v", chartSchema.Properties["mark"].Enum)
	}
	if len(chartSchema.Properties["x_type"].Enum) != 4 {
		t.Fatalf("expected 4 x_type values, got %v", chartSchema.Properties["x_type"].Enum)
	}
}

func TestSchemaJSON_NoArgTools(t *testing.T) {
	var s struct {
		Type       string         `json:"type"`
		Properties map[string]any `json:"properties"`
		Required   []string       `json:"required"`
	}
	if err := json.Unmarshal(New().Get("registry_overview").SchemaJSON(), &s); err != nil {
		t.Fatal(err)
	}
	if s.Type != "object" || len(s.Required) != 0 {
		t.Fatalf("no-arg tool schema unexpected: %+v", s)
	}
}

func TestFieldLookup(t *testing.T) {
	td := New().Get("build_cohort")
	if td.Field("has_genomics") == nil {
		t.Fatal("has_genomics field missing")
	}
	if td.Field("has_genomics").Kind != KindBoolean {
		t.Fatal("has_genomics must be boolean")
	}
	if td.Field("nonexistent") != nil {
		t.Fatal("unknown field must return nil")
	}
}
