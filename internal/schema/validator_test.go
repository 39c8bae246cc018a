package schema

import (
	"errors"
	"testing"

	"github.com/clinreg/registry-mcp/internal/registry"
)

func newValidator(t *testing.T) (*Validator, *registry.Registry) {
	t.Helper()
	reg := registry.New()
	v, err := NewValidator(reg)
	if err != nil {
		t.Fatal(err)
	}
	return v, reg
}

func TestValidate_NormalizesDeclaredFields(t *testing.T) {
	v, reg := newValidator(t)
	args, err := v.Validate(reg.Get("search_patients"), map[string]any{
		"gender":  "Female",
		"age_min": float64(40), // JSON numbers decode as float64
		"limit":   float64(10),
	})
	if err != nil {
		t.Fatal(err)
	}
	if args["gender"] != "Female" {
		t.Fatalf("expected gender preserved, got %v", args["gender"])
	}
	if args["age_min"] != 40 {
		t.Fatalf("expected native int 40, got %T %v", args["age_min"], args["age_min"])
	}
	if args["limit"] != 10 {
		t.Fatalf("expected native int 10, got %T %v", args["limit"], args["limit"])
	}
}

func TestValidate_IgnoresUndeclaredFields(t *testing.T) {
	v, reg := newValidator(t)
	args, err := v.Validate(reg.Get("search_patients"), map[string]any{
		"gender":   "Male",
		"verbose":  true,
		"page":     float64(3),
		"metadata": map[string]any{"a": 1},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(args) != 1 {
		t.Fatalf("expected only declared fields, got %v", args)
	}
}

func TestValidate_RejectsWrongType(t *testing.T) {
	v, reg := newValidator(t)
	_, err := v.Validate(reg.Get("search_patients"), map[string]any{
		"age_min": "forty",
	})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if vErr.Field != "age_min" {
		t.Fatalf("expected offending field age_min, got %q", vErr.Field)
	}
	if vErr.Expected != "integer" {
		t.Fatalf("expected shape integer, got %q", vErr.Expected)
	}
}

func TestValidate_RejectsNonIntegralNumber(t *testing.T) {
	v, reg := newValidator(t)
	_, err := v.Validate(reg.Get("search_patients"), map[string]any{
		"age_min": 40.5,
	})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestValidate_RejectsMissingRequired(t *testing.T) {
	v, reg := newValidator(t)
	_, err := v.Validate(reg.Get("query_sql"), map[string]any{})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if vErr.Field != "sql" {
		t.Fatalf("expected offending field sql, got %q", vErr.Field)
	}
}

func TestValidate_RejectsBooleanAsString(t *testing.T) {
	v, reg := newValidator(t)
	_, err := v.Validate(reg.Get("build_cohort"), map[string]any{
		"has_diabetes": "true",
	})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if vErr.Field != "has_diabetes" {
		t.Fatalf("expected offending field has_diabetes, got %q", vErr.Field)
	}
	if vErr.Expected != "boolean" {
		t.Fatalf("expected shape boolean, got %q", vErr.Expected)
	}
}

func TestValidate_EnumEnforced(t *testing.T) {
	v, reg := newValidator(t)
	_, err := v.Validate(reg.Get("chart_from_sql"), map[string]any{
		"sql":  "SELECT 1",
		"mark": "sparkline",
	})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if vErr.Field != "mark" {
		t.Fatalf("expected offending field mark, got %q", vErr.Field)
	}

	args, err := v.Validate(reg.Get("chart_from_sql"), map[string]any{
		"sql":  "SELECT 1",
		"mark": "line",
	})
	if err != nil {
		t.Fatal(err)
	}
	if args["mark"] != "line" {
		t.Fatalf("expected mark normalized, got %v", args["mark"])
	}
}

func TestValidate_NilPayload(t *testing.T) {
	v, reg := newValidator(t)
	args, err := v.Validate(reg.Get("registry_overview"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(args) != 0 {
		t.Fatalf("expected empty args, got %v", args)
	}
}

func TestValidate_AcceptsIntTyped(t *testing.T) {
	// callers invoking in-process may hand native ints rather than JSON floats
	v, reg := newValidator(t)
	args, err := v.Validate(reg.Get("build_cohort"), map[string]any{
		"age_min": 30,
		"age_max": 60,
	})
	if err != nil {
		t.Fatal(err)
	}
	if args["age_min"] != 30 || args["age_max"] != 60 {
		t.Fatalf("expected native ints, got %v", args)
	}
}
