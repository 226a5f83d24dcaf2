package ingest

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// maxTableNameBytes is PostgreSQL's identifier length limit.
const maxTableNameBytes = 63

// Store creates physical tables for parsed datasets and bulk-loads their rows.
type Store struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewStore creates a store. If logger is nil, a no-op logger is used.
func NewStore(pool *pgxpool.Pool, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{pool: pool, logger: logger.Named("ingest_store")}
}

// PhysicalTableName builds the backing table name for a dataset table:
// "ds_<short dataset id>_<cleaned name>", truncated to the identifier limit.
func PhysicalTableName(datasetID uuid.UUID, name string) string {
	short := strings.ReplaceAll(datasetID.String(), "-", "")[:8]
	cleaned := CleanColumnNames([]string{name})[0]
	full := fmt.Sprintf("ds_%s_%s", short, cleaned)
	if len(full) > maxTableNameBytes {
		full = full[:maxTableNameBytes]
		full = strings.TrimRight(full, "_")
	}
	return full
}

// CreateAndLoad creates the physical table and bulk-loads the parsed rows,
// converting each cell to its inferred type. Returns the number of rows
// loaded. Runs in a transaction so a failed load leaves no half-built table.
func (s *Store) CreateAndLoad(ctx context.Context, tableName string, table *Table) (int64, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	ddl := buildCreateTable(tableName, table.Columns, table.Types)
	if _, err := tx.Exec(ctx, ddl); err != nil {
		return 0, fmt.Errorf("create table: %w", err)
	}

	typed := make([][]any, len(table.Rows))
	for i, row := range table.Rows {
		converted := make([]any, len(table.Columns))
		for j := range table.Columns {
			converted[j] = convertCell(row[j], table.Types[j])
		}
		typed[i] = converted
	}

	count, err := tx.CopyFrom(ctx,
		pgx.Identifier{tableName},
		table.Columns,
		pgx.CopyFromRows(typed))
	if err != nil {
		return 0, fmt.Errorf("copy rows: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	s.logger.Info("Dataset table loaded",
		zap.String("table", tableName),
		zap.Int64("rows", count))
	return count, nil
}

// Drop removes a dataset's physical table. Used when a dataset is deleted.
func (s *Store) Drop(ctx context.Context, tableName string) error {
	query := fmt.Sprintf("DROP TABLE IF EXISTS %s", pgx.Identifier{tableName}.Sanitize())
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("drop table %s: %w", tableName, err)
	}
	return nil
}

// buildCreateTable renders the CREATE TABLE statement with quoted
// identifiers.
func buildCreateTable(tableName string, columns, types []string) string {
	defs := make([]string, len(columns))
	for i, col := range columns {
		defs[i] = fmt.Sprintf("%s %s", pgx.Identifier{col}.Sanitize(), types[i])
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)",
		pgx.Identifier{tableName}.Sanitize(), strings.Join(defs, ", "))
}

// convertCell parses a raw cell into the Go value matching the column's SQL
// type. Empty cells become NULL; unparseable cells in typed columns also
// become NULL rather than aborting the load.
func convertCell(raw, sqlType string) any {
	v := strings.TrimSpace(raw)
	if v == "" {
		return nil
	}

	switch sqlType {
	case TypeBigint:
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
		return nil
	case TypeDouble:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		return nil
	case TypeBoolean:
		switch strings.ToLower(v) {
		case "true", "yes":
			return true
		case "false", "no":
			return false
		}
		return nil
	case TypeTimestamp:
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return t
			}
		}
		return nil
	default:
		return v
	}
}
