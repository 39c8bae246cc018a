// Package query turns validated filter arguments into parameterized SQL
// plans, enforces the read-only safety gate, and executes finished plans
// against the shared connection pool.
//
// Filter→clause mappings are data-driven: each filtered tool owns an ordered
// clause table, and every entry is either a bound-parameter template or a
// literal selector restricted to boolean-typed arguments. Values from string
// and integer arguments never enter statement text.
package query

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/clinreg/registry-mcp/internal/registry"
)

// Plan is a finished statement template plus its ordered bound parameters.
// The number of distinct positional placeholders always equals len(Params),
// and parameters appear in the same left-to-right order as their first
// placeholder occurrence. Plans are never mutated after construction.
type Plan struct {
	Statement string
	Params    []any
}

// clauseEntry maps one logical filter to one WHERE fragment.
//
// Exactly one of the two shapes is populated:
//   - bound: template contains the marker {p}, replaced with the next
//     positional placeholder; extract produces the single bound parameter.
//     The marker may repeat, sharing the one parameter across columns.
//   - literal: trueSQL/falseSQL are fixed fragments selected by the boolean
//     argument value. Only KindBoolean entries may take this shape; the
//     two-valued domain is what makes literal embedding safe here.
type clauseEntry struct {
	arg      string
	kind     registry.FieldKind
	template string
	extract  func(v any) any
	trueSQL  string
	falseSQL string
}

func (c clauseEntry) isLiteral() bool { return c.trueSQL != "" || c.falseSQL != "" }

// checkClauseTable rejects malformed entries. Called from package tests so a
// future filter addition cannot route string input through the literal path.
func checkClauseTable(table []clauseEntry) error {
	for _, c := range table {
		switch {
		case c.isLiteral():
			if c.kind != registry.KindBoolean {
				return fmt.Errorf("clause %s: literal embedding requires boolean kind, got %s", c.arg, c.kind)
			}
			if c.extract != nil || c.template != "" {
				return fmt.Errorf("clause %s: literal entry must not carry template or extractor", c.arg)
			}
			if c.trueSQL == "" || c.falseSQL == "" {
				return fmt.Errorf("clause %s: literal entry needs both true and false fragments", c.arg)
			}
		default:
			if c.extract == nil || !strings.Contains(c.template, "{p}") {
				return fmt.Errorf("clause %s: bound entry needs a {p} template and an extractor", c.arg)
			}
		}
	}
	return nil
}

// searchPatientsClauses is walked in declaration order, not caller order.
var searchPatientsClauses = []clauseEntry{
	{
		arg:      "search",
		kind:     registry.KindString,
		template: "(LOWER(name) LIKE {p} OR CAST(dna_id AS TEXT) LIKE {p})",
		extract:  likeParam,
	},
	{
		arg:      "gender",
		kind:     registry.KindString,
		template: "LOWER(gender) = {p}",
		extract:  lowerParam,
	},
	{
		arg:      "age_min",
		kind:     registry.KindInteger,
		template: "age >= {p}",
		extract:  rawParam,
	},
	{
		arg:      "age_max",
		kind:     registry.KindInteger,
		template: "age <= {p}",
		extract:  rawParam,
	},
}

// cohortClauses is walked in declaration order, not caller order.
var cohortClauses = []clauseEntry{
	{
		arg:      "age_min",
		kind:     registry.KindInteger,
		template: "age >= {p}",
		extract:  rawParam,
	},
	{
		arg:      "age_max",
		kind:     registry.KindInteger,
		template: "age <= {p}",
		extract:  rawParam,
	},
	{
		arg:      "gender",
		kind:     registry.KindString,
		template: "LOWER(gender) = {p}",
		extract:  lowerParam,
	},
	{
		arg:      "has_diabetes",
		kind:     registry.KindBoolean,
		trueSQL:  "COALESCE(diabetes_mellitus, false) = true",
		falseSQL: "COALESCE(diabetes_mellitus, false) = false",
	},
	{
		arg:      "has_hypertension",
		kind:     registry.KindBoolean,
		trueSQL:  "COALESCE(high_blood_pressure, false) = true",
		falseSQL: "COALESCE(high_blood_pressure, false) = false",
	},
	{
		arg:      "has_echo",
		kind:     registry.KindBoolean,
		trueSQL:  "(echo_ef IS NOT NULL) = true",
		falseSQL: "(echo_ef IS NOT NULL) = false",
	},
	{
		arg:      "has_mri",
		kind:     registry.KindBoolean,
		trueSQL:  "(mri_ef IS NOT NULL) = true",
		falseSQL: "(mri_ef IS NOT NULL) = false",
	},
	{
		arg:      "has_imaging",
		kind:     registry.KindBoolean,
		trueSQL:  "(mri_ef IS NOT NULL OR echo_ef IS NOT NULL) = true",
		falseSQL: "(mri_ef IS NOT NULL OR echo_ef IS NOT NULL) = false",
	},
	{
		arg:      "has_labs",
		kind:     registry.KindBoolean,
		trueSQL:  "(hba1c IS NOT NULL OR troponin_i IS NOT NULL) = true",
		falseSQL: "(hba1c IS NOT NULL OR troponin_i IS NOT NULL) = false",
	},
	{
		arg:      "has_family_history",
		kind:     registry.KindBoolean,
		trueSQL:  "(COALESCE(history_sudden_death, false) OR COALESCE(history_premature_cad, false)) = true",
		falseSQL: "(COALESCE(history_sudden_death, false) OR COALESCE(history_premature_cad, false)) = false",
	},
	{
		arg:      "region",
		kind:     registry.KindString,
		template: "(LOWER(nationality) LIKE {p} OR LOWER(current_city_category) LIKE {p} OR LOWER(current_city) LIKE {p})",
		extract:  likeParam,
	},
	{
		arg:      "has_genomics",
		kind:     registry.KindBoolean,
		trueSQL:  "EXISTS (SELECT 1 FROM patient_genomic_variants v WHERE v.dna_id = patients.dna_id)",
		falseSQL: "NOT EXISTS (SELECT 1 FROM patient_genomic_variants v WHERE v.dna_id = patients.dna_id)",
	},
}

func rawParam(v any) any { return v }

func lowerParam(v any) any { return strings.ToLower(v.(string)) }

func likeParam(v any) any { return "%" + strings.ToLower(v.(string)) + "%" }

const searchPatientsBase = "SELECT dna_id, name, age, gender, enrollment_date FROM patients"

const cohortBase = "SELECT dna_id, name, age, gender, diabetes_mellitus, high_blood_pressure, " +
	"echo_ef, mri_ef, enrollment_date FROM patients"

// enrollmentOrder pins result order so identical calls yield identical rows.
const enrollmentOrder = "ORDER BY enrollment_date DESC, dna_id"

// BuildSearchPatients builds the search_patients plan from validated args.
func BuildSearchPatients(args map[string]any) *Plan {
	return buildFiltered(searchPatientsBase, enrollmentOrder, searchPatientsClauses, args)
}

// BuildCohort builds the build_cohort plan from validated args.
func BuildCohort(args map[string]any) *Plan {
	return buildFiltered(cohortBase, enrollmentOrder, cohortClauses, args)
}

// BuildPatientDetails builds the single-row lookup for get_patient_details.
func BuildPatientDetails(dnaID string) *Plan {
	return &Plan{
		Statement: patientDetailsSQL,
		Params:    []any{dnaID},
	}
}

// buildFiltered walks the clause table in order, appending one WHERE fragment
// per present filter. The WHERE clause is omitted entirely when no filter
// matched. No LIMIT is attached here; that is the safety gate's job.
func buildFiltered(base, orderBy string, table []clauseEntry, args map[string]any) *Plan {
	var frags []string
	var params []any

	for _, c := range table {
		v, present := args[c.arg]
		if !present {
			continue
		}
		if c.isLiteral() {
			b := v.(bool)
			if b {
				frags = append(frags, c.trueSQL)
			} else {
				frags = append(frags, c.falseSQL)
			}
			continue
		}
		if s, ok := v.(string); ok && s == "" {
			// empty text filters match everything; skip the clause
			continue
		}
		params = append(params, c.extract(v))
		placeholder := "$" + strconv.Itoa(len(params))
		frags = append(frags, strings.ReplaceAll(c.template, "{p}", placeholder))
	}

	stmt := base
	if len(frags) > 0 {
		stmt += " WHERE " + strings.Join(frags, " AND ")
	}
	stmt += " " + orderBy

	return &Plan{Statement: stmt, Params: params}
}
