// Package chart assembles declarative Vega-Lite v5 specifications from query
// results. It only builds the spec object; rendering belongs to the client.
package chart

const schemaURL = "https://vega.github.io/schema/vega-lite/v5.json"

// Channel encodes one axis or color channel: a result column and its
// semantic type.
type Channel struct {
	Field string `json:"field"`
	Type  string `json:"type"`
}

// Data embeds the result rows directly in the spec.
type Data struct {
	Values []map[string]any `json:"values"`
}

// Encoding holds the x/y/color channels. Color is optional.
type Encoding struct {
	X     *Channel `json:"x,omitempty"`
	Y     *Channel `json:"y,omitempty"`
	Color *Channel `json:"color,omitempty"`
}

// Spec is a Vega-Lite v5 chart specification with embedded data.
type Spec struct {
	Schema      string   `json:"$schema"`
	Description string   `json:"description"`
	Title       string   `json:"title"`
	Data        Data     `json:"data"`
	Mark        string   `json:"mark"`
	Encoding    Encoding `json:"encoding"`
}

// Params are the caller-supplied chart arguments, already validated.
type Params struct {
	Title string
	Mark  string
	X     string
	Y     string
	XType string
	YType string
	Color string
}

// Build derives a Spec deterministically from rows and params. Missing
// arguments take the documented defaults: bar mark, ordinal x, quantitative y.
func Build(rows []map[string]any, p Params) *Spec {
	if p.Mark == "" {
		p.Mark = "bar"
	}
	if p.XType == "" {
		p.XType = "ordinal"
	}
	if p.YType == "" {
		p.YType = "quantitative"
	}
	if p.Title == "" {
		p.Title = "Chart"
	}

	spec := &Spec{
		Schema:      schemaURL,
		Description: "Generated chart",
		Title:       p.Title,
		Data:        Data{Values: rows},
		Mark:        p.Mark,
		Encoding: Encoding{
			X: &Channel{Field: p.X, Type: p.XType},
			Y: &Channel{Field: p.Y, Type: p.YType},
		},
	}
	if p.Color != "" {
		spec.Encoding.Color = &Channel{Field: p.Color, Type: "nominal"}
	}
	return spec
}
