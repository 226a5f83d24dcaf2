package text2sql

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/datachat-io/datachat-engine/pkg/apperrors"
	"github.com/datachat-io/datachat-engine/pkg/logging"
	"github.com/datachat-io/datachat-engine/pkg/models"
)

// DefaultRowLimit caps result sets when the query carries no LIMIT of its own.
const DefaultRowLimit = 1000

var limitPattern = regexp.MustCompile(`(?i)\bLIMIT\s+\d+`)

// Executor runs cleaned, validated queries read-only against the backing
// store with an EXPLAIN pre-flight and a row cap.
type Executor struct {
	pool     *pgxpool.Pool
	rowLimit int
	logger   *zap.Logger
}

// NewExecutor creates an executor. A rowLimit of 0 or less uses
// DefaultRowLimit. If logger is nil, a no-op logger is used.
func NewExecutor(pool *pgxpool.Pool, rowLimit int, logger *zap.Logger) *Executor {
	if rowLimit <= 0 {
		rowLimit = DefaultRowLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{pool: pool, rowLimit: rowLimit, logger: logger.Named("executor")}
}

// Execute runs the query and returns its rows with column names. The same
// capped text is used for the EXPLAIN pre-flight and the real run; if the
// pre-flight fails, the real query is never sent. The connection is released
// on every exit path.
func (e *Executor) Execute(ctx context.Context, query string) (*models.QueryResult, error) {
	capped := e.applyRowCap(query)

	conn, err := e.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	// Pre-flight: plan the exact text we are about to run.
	explainRows, err := conn.Query(ctx, "EXPLAIN "+strings.TrimSuffix(strings.TrimSpace(capped), ";"))
	if err != nil {
		e.logger.Warn("Query rejected by pre-flight",
			zap.String("query", logging.SanitizeQuery(capped)),
			zap.String("error", logging.SanitizeError(err)))
		return nil, fmt.Errorf("%w: %v", apperrors.ErrExecution, err)
	}
	explainRows.Close()
	if err := explainRows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrExecution, err)
	}

	start := time.Now()
	rows, err := conn.Query(ctx, capped)
	if err != nil {
		e.logger.Warn("Query failed",
			zap.String("query", logging.SanitizeQuery(capped)),
			zap.String("error", logging.SanitizeError(err)))
		return nil, fmt.Errorf("%w: %v", apperrors.ErrExecution, err)
	}
	defer rows.Close()

	fieldDescs := rows.FieldDescriptions()
	columns := make([]string, len(fieldDescs))
	for i, fd := range fieldDescs {
		columns[i] = string(fd.Name)
	}

	var resultRows []map[string]any
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("%w: read row: %v", apperrors.ErrExecution, err)
		}
		row := make(map[string]any, len(columns))
		for i, col := range columns {
			row[col] = values[i]
		}
		resultRows = append(resultRows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrExecution, err)
	}

	elapsed := time.Since(start).Milliseconds()
	e.logger.Info("Query executed",
		zap.String("query", logging.SanitizeQuery(capped)),
		zap.Int("rows", len(resultRows)),
		zap.Int64("elapsed_ms", elapsed))

	if resultRows == nil {
		resultRows = []map[string]any{}
	}
	return &models.QueryResult{
		Columns:         columns,
		Rows:            resultRows,
		ExecutionTimeMs: elapsed,
	}, nil
}

// applyRowCap appends a LIMIT to uncapped SELECT statements. Non-SELECT
// text and queries with their own LIMIT pass through unchanged; the
// validator has already rejected anything dangerous.
func (e *Executor) applyRowCap(query string) string {
	trimmed := strings.TrimSpace(query)
	upper := strings.ToUpper(trimmed)
	if !strings.HasPrefix(upper, "SELECT") && !strings.HasPrefix(upper, "WITH") {
		return query
	}
	if limitPattern.MatchString(trimmed) {
		return query
	}
	trimmed = strings.TrimRight(trimmed, "; \t\n\r")
	return fmt.Sprintf("%s LIMIT %d;", trimmed, e.rowLimit)
}
