package query

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// ExecutionError carries a database-reported failure. The driver message is
// preserved verbatim for diagnosability; nothing is retried or reclassified.
type ExecutionError struct {
	Err error
}

func (e *ExecutionError) Error() string {
	return "query execution failed: " + e.Err.Error()
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// Executor runs a finished statement with its ordered parameters and returns
// rows in database-native order. The sole component touching I/O.
type Executor interface {
	Query(ctx context.Context, stmt string, params []any) ([]map[string]any, error)
}

// PoolExecutor executes statements against a shared pgx connection pool.
// One connection is acquired per statement and released on every exit path.
type PoolExecutor struct {
	pool    *pgxpool.Pool
	timeout time.Duration
	logger  *zap.Logger
}

// NewPoolExecutor creates a PoolExecutor. A zero timeout disables the
// per-statement deadline.
func NewPoolExecutor(pool *pgxpool.Pool, timeout time.Duration, logger *zap.Logger) *PoolExecutor {
	return &PoolExecutor{pool: pool, timeout: timeout, logger: logger}
}

func (e *PoolExecutor) Query(ctx context.Context, stmt string, params []any) ([]map[string]any, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	conn, err := e.pool.Acquire(ctx)
	if err != nil {
		return nil, &ExecutionError{Err: err}
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, stmt, params...)
	if err != nil {
		return nil, &ExecutionError{Err: err}
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	out := make([]map[string]any, 0, 16)
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, &ExecutionError{Err: err}
		}
		row := make(map[string]any, len(fields))
		for i, f := range fields {
			row[string(f.Name)] = values[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, &ExecutionError{Err: err}
	}

	e.logger.Debug("query executed",
		zap.Int("rows", len(out)),
		zap.Int("params", len(params)),
	)
	return out, nil
}
