// Package dispatch routes tool invocations: it looks up the tool definition,
// validates arguments, runs the tool's query builder through the safety gate
// and executor, and shapes the response envelope. One call, one full result
// or one error — never both, never partial.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clinreg/registry-mcp/internal/chart"
	"github.com/clinreg/registry-mcp/internal/query"
	"github.com/clinreg/registry-mcp/internal/registry"
	"github.com/clinreg/registry-mcp/internal/schema"
	"github.com/clinreg/registry-mcp/internal/storage"
)

// UnknownToolError names a tool that is not in the fixed registry. Raised
// before any validation or database work happens.
type UnknownToolError struct {
	Tool string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool: %s", e.Tool)
}

// Dispatcher holds the fixed tool table and the per-call pipeline
// dependencies. Stateless across calls; safe for concurrent use.
type Dispatcher struct {
	reg       *registry.Registry
	validator *schema.Validator
	exec      query.Executor
	writer    storage.EventWriter
	logger    *zap.Logger
}

// New creates a Dispatcher. The executor is the only component that touches
// the database; the writer receives one audit event per call and must not
// block.
func New(reg *registry.Registry, validator *schema.Validator, exec query.Executor, writer storage.EventWriter, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		reg:       reg,
		validator: validator,
		exec:      exec,
		writer:    writer,
		logger:    logger,
	}
}

// Call invokes the named tool with the raw argument payload and returns the
// response envelope to be serialized as a single JSON payload.
func (d *Dispatcher) Call(ctx context.Context, tool string, raw map[string]any) (any, error) {
	start := time.Now()

	td := d.reg.Get(tool)
	if td == nil {
		err := &UnknownToolError{Tool: tool}
		d.audit(tool, raw, 0, 0, start, err)
		return nil, err
	}

	args, err := d.validator.Validate(td, raw)
	if err != nil {
		d.audit(tool, raw, 0, 0, start, err)
		return nil, err
	}

	result, rowCount, limit, err := d.invoke(ctx, td, args)
	d.audit(tool, raw, rowCount, limit, start, err)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (d *Dispatcher) invoke(ctx context.Context, td *registry.ToolDefinition, args map[string]any) (any, int, int, error) {
	switch td.Name {
	case "query_sql":
		return d.runRows(ctx, &query.Plan{Statement: stringArg(args, "sql")}, args, td)

	case "search_patients":
		return d.runRows(ctx, query.BuildSearchPatients(args), args, td)

	case "get_patient_details":
		return d.runFirstRow(ctx, query.BuildPatientDetails(stringArg(args, "dna_id")), td)

	case "build_cohort":
		return d.runRows(ctx, query.BuildCohort(args), args, td)

	case "registry_overview":
		return d.runFirstRow(ctx, query.BuildRegistryOverview(), td)

	case "demographics":
		return d.runDemographics(ctx, td)

	case "enrollment_trends":
		return d.runEnrollmentTrends(ctx, td)

	case "data_intersections":
		return d.runRows(ctx, query.BuildDataIntersections(), args, td)

	case "chart_from_sql":
		return d.runChart(ctx, args, td)

	default:
		// every registered tool has a case above; a miss is a wiring bug
		return nil, 0, 0, fmt.Errorf("tool %s registered but not routed", td.Name)
	}
}

// runPlan pushes a plan through the safety gate and the executor.
func (d *Dispatcher) runPlan(ctx context.Context, plan *query.Plan, requested, fallback int) ([]map[string]any, int, error) {
	stmt, limit, err := query.Enforce(plan.Statement, requested, fallback)
	if err != nil {
		return nil, 0, err
	}
	rows, err := d.exec.Query(ctx, stmt, plan.Params)
	if err != nil {
		return nil, limit, err
	}
	return rows, limit, nil
}

func (d *Dispatcher) runRows(ctx context.Context, plan *query.Plan, args map[string]any, td *registry.ToolDefinition) (any, int, int, error) {
	rows, limit, err := d.runPlan(ctx, plan, intArg(args, "limit"), td.DefaultLimit)
	if err != nil {
		return nil, 0, limit, err
	}
	return rowsEnvelope(rows), len(rows), limit, nil
}

// runFirstRow serves the single-row tools: the first row, or a null sentinel
// when nothing matched. An empty match is a result, not an error.
func (d *Dispatcher) runFirstRow(ctx context.Context, plan *query.Plan, td *registry.ToolDefinition) (any, int, int, error) {
	rows, limit, err := d.runPlan(ctx, plan, 0, td.DefaultLimit)
	if err != nil {
		return nil, 0, limit, err
	}
	if len(rows) == 0 {
		return nil, 0, limit, nil
	}
	return rows[0], 1, limit, nil
}

func (d *Dispatcher) runDemographics(ctx context.Context, td *registry.ToolDefinition) (any, int, int, error) {
	ages, limit, err := d.runPlan(ctx, query.BuildDemographicsAges(), 0, td.DefaultLimit)
	if err != nil {
		return nil, 0, limit, err
	}
	origins, _, err := d.runPlan(ctx, query.BuildDemographicsOrigin(), 0, td.DefaultLimit)
	if err != nil {
		return nil, 0, limit, err
	}
	envelope := map[string]any{
		"age_gender":  ages,
		"nationality": origins,
	}
	return envelope, len(ages) + len(origins), limit, nil
}

// runEnrollmentTrends adds a client-side running total to the month rows.
func (d *Dispatcher) runEnrollmentTrends(ctx context.Context, td *registry.ToolDefinition) (any, int, int, error) {
	rows, limit, err := d.runPlan(ctx, query.BuildEnrollmentTrends(), 0, td.DefaultLimit)
	if err != nil {
		return nil, 0, limit, err
	}
	var cumulative int64
	for _, row := range rows {
		cumulative += asInt64(row["enrolled"])
		row["cumulative"] = cumulative
	}
	return rowsEnvelope(rows), len(rows), limit, nil
}

func (d *Dispatcher) runChart(ctx context.Context, args map[string]any, td *registry.ToolDefinition) (any, int, int, error) {
	plan := &query.Plan{Statement: stringArg(args, "sql")}
	rows, limit, err := d.runPlan(ctx, plan, intArg(args, "limit"), td.DefaultLimit)
	if err != nil {
		return nil, 0, limit, err
	}
	spec := chart.Build(rows, chart.Params{
		Title: stringArg(args, "title"),
		Mark:  stringArg(args, "mark"),
		X:     stringArg(args, "x"),
		Y:     stringArg(args, "y"),
		XType: stringArg(args, "x_type"),
		YType: stringArg(args, "y_type"),
		Color: stringArg(args, "color"),
	})
	envelope := map[string]any{
		"spec":  spec,
		"rows":  rows,
		"count": len(rows),
	}
	return envelope, len(rows), limit, nil
}

func rowsEnvelope(rows []map[string]any) map[string]any {
	return map[string]any{
		"rows":  rows,
		"count": len(rows),
	}
}

func (d *Dispatcher) audit(tool string, raw map[string]any, rowCount, limit int, start time.Time, callErr error) {
	if d.writer == nil {
		return
	}
	argsJSON, _ := json.Marshal(raw)
	event := &storage.ToolCallEvent{
		RequestID:      uuid.New().String(),
		Timestamp:      time.Now(),
		ToolName:       tool,
		ArgumentsJSON:  string(argsJSON),
		Outcome:        outcome(callErr),
		RowCount:       int32(rowCount),
		EffectiveLimit: int32(limit),
		LatencyMs:      float32(float64(time.Since(start)) / float64(time.Millisecond)),
	}
	if callErr != nil {
		event.ErrorDetail = callErr.Error()
	}
	d.writer.Write(event)
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	var validationErr *schema.ValidationError
	var unsafeErr *query.UnsafeQueryError
	var unknownErr *UnknownToolError
	var execErr *query.ExecutionError
	switch {
	case errors.As(err, &validationErr):
		return "validation_error"
	case errors.As(err, &unsafeErr):
		return "unsafe_query"
	case errors.As(err, &unknownErr):
		return "unknown_tool"
	case errors.As(err, &execErr):
		return "execution_error"
	default:
		return "error"
	}
}

func stringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

func intArg(args map[string]any, key string) int {
	n, _ := args[key].(int)
	return n
}

func asInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int32:
		return int64(n)
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}
