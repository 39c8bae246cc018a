// Package registry holds the fixed table of tool definitions exposed by the
// server. The table is assembled once at startup and read-only thereafter;
// tool names, argument fields and default limits are part of the external
// contract and must not drift.
package registry

import "sort"

// MaxLimit is the hard ceiling on returned rows, regardless of caller request.
const MaxLimit = 2000

var limitField = Field{
	Name:        "limit",
	Kind:        KindInteger,
	Description: "Maximum rows to return",
}

// Registry is the immutable name → definition table.
type Registry struct {
	tools map[string]*ToolDefinition
	order []string
}

// New builds the registry with the nine registry tools.
func New() *Registry {
	r := &Registry{tools: make(map[string]*ToolDefinition)}
	for _, td := range definitions() {
		r.tools[td.Name] = td
		r.order = append(r.order, td.Name)
	}
	return r
}

// Get returns the definition for name, or nil if the tool is not registered.
func (r *Registry) Get(name string) *ToolDefinition {
	return r.tools[name]
}

// List returns all definitions in registration order.
func (r *Registry) List() []*ToolDefinition {
	out := make([]*ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

// Names returns the sorted tool names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func definitions() []*ToolDefinition {
	return []*ToolDefinition{
		{
			Name:         "query_sql",
			Description:  "Run a read-only SQL query (SELECT/WITH only) against the registry database",
			DefaultLimit: 500,
			Fields: []Field{
				{Name: "sql", Kind: KindString, Required: true, Description: "SQL statement; must start with SELECT or WITH"},
				limitField,
			},
		},
		{
			Name:         "search_patients",
			Description:  "Search enrolled patients by name/ID text, gender and age range",
			DefaultLimit: 50,
			Fields: []Field{
				{Name: "search", Kind: KindString, Description: "Free text matched against patient name and DNA ID"},
				{Name: "gender", Kind: KindString, Description: "Gender to match (case-insensitive)"},
				{Name: "age_min", Kind: KindInteger, Description: "Minimum age, inclusive"},
				{Name: "age_max", Kind: KindInteger, Description: "Maximum age, inclusive"},
				limitField,
			},
		},
		{
			Name:         "get_patient_details",
			Description:  "Fetch the full clinical record for one patient by DNA ID",
			DefaultLimit: 1,
			Fields: []Field{
				{Name: "dna_id", Kind: KindString, Required: true, Description: "Patient DNA ID"},
			},
		},
		{
			Name:         "build_cohort",
			Description:  "Build a patient cohort from demographic, comorbidity and data-availability filters",
			DefaultLimit: 200,
			Fields: []Field{
				{Name: "age_min", Kind: KindInteger, Description: "Minimum age, inclusive"},
				{Name: "age_max", Kind: KindInteger, Description: "Maximum age, inclusive"},
				{Name: "gender", Kind: KindString, Description: "Gender to match (case-insensitive)"},
				{Name: "has_diabetes", Kind: KindBoolean, Description: "Filter on diagnosed diabetes mellitus"},
				{Name: "has_hypertension", Kind: KindBoolean, Description: "Filter on diagnosed hypertension"},
				{Name: "has_echo", Kind: KindBoolean, Description: "Filter on echocardiogram availability"},
				{Name: "has_mri", Kind: KindBoolean, Description: "Filter on cardiac MRI availability"},
				{Name: "has_imaging", Kind: KindBoolean, Description: "Filter on any imaging modality (echo or MRI)"},
				{Name: "has_labs", Kind: KindBoolean, Description: "Filter on lab results availability (HbA1c or troponin)"},
				{Name: "has_family_history", Kind: KindBoolean, Description: "Filter on family history of sudden death or premature CAD"},
				{Name: "region", Kind: KindString, Description: "Free text matched against nationality and city fields"},
				{Name: "has_genomics", Kind: KindBoolean, Description: "Filter on genomic variant data availability"},
				limitField,
			},
		},
		{
			Name:         "registry_overview",
			Description:  "Registry-wide headline counts: totals, gender split, average age, imaging coverage",
			DefaultLimit: 1,
		},
		{
			Name:         "demographics",
			Description:  "Age-bucketed gender distribution and top nationalities",
			DefaultLimit: 50,
		},
		{
			Name:         "enrollment_trends",
			Description:  "Monthly and cumulative enrollment counts",
			DefaultLimit: 200,
		},
		{
			Name:         "data_intersections",
			Description:  "Patient counts per combination of available data modalities",
			DefaultLimit: 10,
		},
		{
			Name:         "chart_from_sql",
			Description:  "Run a read-only SQL query and wrap the rows in a Vega-Lite chart spec",
			DefaultLimit: 500,
			Fields: []Field{
				{Name: "sql", Kind: KindString, Required: true, Description: "SQL statement; must start with SELECT or WITH"},
				{Name: "title", Kind: KindString, Description: "Chart title"},
				{Name: "mark", Kind: KindString, Enum: []string{"bar", "line", "point", "area", "arc"}, Description: "Vega-Lite mark type (default bar)"},
				{Name: "x", Kind: KindString, Description: "Column for the x encoding"},
				{Name: "y", Kind: KindString, Description: "Column for the y encoding"},
				{Name: "x_type", Kind: KindString, Enum: []string{"quantitative", "ordinal", "nominal", "temporal"}, Description: "Semantic type of x (default ordinal)"},
				{Name: "y_type", Kind: KindString, Enum: []string{"quantitative", "ordinal", "nominal", "temporal"}, Description: "Semantic type of y (default quantitative)"},
				{Name: "color", Kind: KindString, Description: "Optional column for the color encoding"},
				limitField,
			},
		},
	}
}
