package chart

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestBuild_Defaults(t *testing.T) {
	rows := []map[string]any{{"gender": "Female", "n": 12}}
	spec := Build(rows, Params{X: "gender", Y: "n"})

	if spec.Mark != "bar" {
		t.Fatalf("expected bar default, got %q", spec.Mark)
	}
	if spec.Title != "Chart" {
		t.Fatalf("expected Chart default title, got %q", spec.Title)
	}
	if spec.Encoding.X.Type != "ordinal" || spec.Encoding.Y.Type != "quantitative" {
		t.Fatalf("unexpected encoding types: x=%s y=%s", spec.Encoding.X.Type, spec.Encoding.Y.Type)
	}
	if spec.Encoding.Color != nil {
		t.Fatal("color channel must be absent when not requested")
	}
	if len(spec.Data.Values) != 1 {
		t.Fatalf("expected embedded rows, got %d", len(spec.Data.Values))
	}
}

func TestBuild_ExplicitParams(t *testing.T) {
	spec := Build(nil, Params{
		Title: "Enrollment by month",
		Mark:  "line",
		X:     "month",
		Y:     "enrolled",
		XType: "temporal",
		YType: "quantitative",
		Color: "gender",
	})
	if spec.Mark != "line" || spec.Encoding.X.Type != "temporal" {
		t.Fatalf("explicit params not honored: %+v", spec)
	}
	if spec.Encoding.Color == nil || spec.Encoding.Color.Type != "nominal" {
		t.Fatalf("color channel must be nominal, got %+v", spec.Encoding.Color)
	}
}

func TestBuild_SerializesWithSchemaURL(t *testing.T) {
	raw, err := json.Marshal(Build(nil, Params{X: "a", Y: "b"}))
	if err != nil {
		t.Fatal(err)
	}
	s := string(raw)
	if !strings.Contains(s, `"$schema":"https://vega.github.io/schema/vega-lite/v5.json"`) {
		t.Fatalf("schema URL missing: %s", s)
	}
	if strings.Contains(s, `"color"`) {
		t.Fatalf("omitted color channel leaked into JSON: %s", s)
	}
}
