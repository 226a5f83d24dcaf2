// Package schema reads the backing store's catalog into a SchemaSnapshot.
package schema

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/datachat-io/datachat-engine/pkg/models"
)

// Introspector builds point-in-time snapshots of all user tables.
// A snapshot is rebuilt for every question; nothing is cached here.
type Introspector struct {
	pool            *pgxpool.Pool
	sampleRows      int
	distinctCap     int
	excludePrefixes []string
	logger          *zap.Logger
}

// Config tunes snapshot construction.
type Config struct {
	// SampleRows is how many sample rows to capture per table.
	SampleRows int
	// DistinctValueCap is the per-column cardinality above which the value
	// inventory is skipped entirely.
	DistinctValueCap int
	// ExcludePrefixes are table-name prefixes treated as framework-internal.
	ExcludePrefixes []string
}

// NewIntrospector creates an introspector over the given pool.
// If logger is nil, a no-op logger is used.
func NewIntrospector(pool *pgxpool.Pool, cfg Config, logger *zap.Logger) *Introspector {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SampleRows <= 0 {
		cfg.SampleRows = 3
	}
	if cfg.DistinctValueCap <= 0 {
		cfg.DistinctValueCap = 100
	}
	return &Introspector{
		pool:            pool,
		sampleRows:      cfg.SampleRows,
		distinctCap:     cfg.DistinctValueCap,
		excludePrefixes: cfg.ExcludePrefixes,
		logger:          logger.Named("introspector"),
	}
}

// Snapshot reads the catalog and produces a snapshot of every user table in
// the public schema, minus the excluded prefixes. A failure inside one table
// never aborts the snapshot: the table is still present with an Error marker
// and empty fields. The connection is acquired for the duration of the call
// and always released.
func (in *Introspector) Snapshot(ctx context.Context) (models.SchemaSnapshot, error) {
	conn, err := in.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tables, err := in.listTables(ctx, conn)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}

	snapshot := in.buildSnapshot(tables, func(table string) (*models.TableInfo, error) {
		return in.introspectTable(ctx, conn, table)
	})

	in.logger.Debug("Snapshot built", zap.Int("tables", len(snapshot)))
	return snapshot, nil
}

// buildSnapshot introspects each table through the given function. A failure
// for one table never removes it from the snapshot: it stays present with an
// Error marker and empty fields so callers treat it as schema-less, not
// absent.
func (in *Introspector) buildSnapshot(tables []string, introspect func(table string) (*models.TableInfo, error)) models.SchemaSnapshot {
	snapshot := make(models.SchemaSnapshot, len(tables))
	for _, table := range tables {
		info, err := introspect(table)
		if err != nil {
			in.logger.Warn("Table introspection failed",
				zap.String("table", table),
				zap.Error(err))
			snapshot[table] = models.TableInfo{
				Columns:      []models.Column{},
				Sample:       []map[string]any{},
				ForeignKeys:  []models.ForeignKey{},
				UniqueValues: map[string]models.ValueInventory{},
				Error:        err.Error(),
			}
			continue
		}
		snapshot[table] = *info
	}
	return snapshot
}

// listTables returns the user tables of the public schema, excluding
// framework-internal prefixes.
func (in *Introspector) listTables(ctx context.Context, conn *pgxpool.Conn) ([]string, error) {
	const query = `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_type = 'BASE TABLE'
		  AND table_schema = 'public'
		ORDER BY table_name
	`

	rows, err := conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table: %w", err)
		}
		if in.isExcluded(name) {
			continue
		}
		tables = append(tables, name)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tables: %w", err)
	}

	return tables, nil
}

func (in *Introspector) isExcluded(table string) bool {
	for _, prefix := range in.excludePrefixes {
		if strings.HasPrefix(table, prefix) {
			return true
		}
	}
	return false
}

// introspectTable gathers columns, sample rows, foreign keys, and value
// inventories for one table.
func (in *Introspector) introspectTable(ctx context.Context, conn *pgxpool.Conn, table string) (*models.TableInfo, error) {
	columns, err := in.fetchColumns(ctx, conn, table)
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}

	info := &models.TableInfo{
		Columns:      columns,
		Sample:       []map[string]any{},
		ForeignKeys:  []models.ForeignKey{},
		UniqueValues: map[string]models.ValueInventory{},
	}

	// Sample rows and foreign keys are nice-to-have context; a failure there
	// degrades the snapshot for this table but does not mark it broken.
	sample, err := in.fetchSample(ctx, conn, table)
	if err != nil {
		in.logger.Warn("Sample fetch failed", zap.String("table", table), zap.Error(err))
	} else {
		info.Sample = sample
	}

	fks, err := in.fetchForeignKeys(ctx, conn, table)
	if err != nil {
		in.logger.Warn("Foreign key fetch failed", zap.String("table", table), zap.Error(err))
	} else {
		info.ForeignKeys = fks
	}

	for _, col := range columns {
		inventory, err := in.fetchValueInventory(ctx, conn, table, col)
		if err != nil {
			in.logger.Warn("Value inventory fetch failed",
				zap.String("table", table),
				zap.String("column", col.Name),
				zap.Error(err))
			continue
		}
		if inventory != nil {
			info.UniqueValues[col.Name] = *inventory
		}
	}

	return info, nil
}

// fetchColumns lists columns with their catalog type strings, in ordinal order.
func (in *Introspector) fetchColumns(ctx context.Context, conn *pgxpool.Conn, table string) ([]models.Column, error) {
	const query = `
		SELECT column_name, data_type
		FROM information_schema.columns
		WHERE table_schema = 'public' AND table_name = $1
		ORDER BY ordinal_position
	`

	rows, err := conn.Query(ctx, query, table)
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer rows.Close()

	var columns []models.Column
	for rows.Next() {
		var c models.Column
		if err := rows.Scan(&c.Name, &c.DataType); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		columns = append(columns, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate columns: %w", err)
	}

	if len(columns) == 0 {
		return nil, fmt.Errorf("table %q has no columns in catalog", table)
	}

	return columns, nil
}

// fetchSample reads up to sampleRows rows as column-name keyed maps.
func (in *Introspector) fetchSample(ctx context.Context, conn *pgxpool.Conn, table string) ([]map[string]any, error) {
	query := fmt.Sprintf("SELECT * FROM %s LIMIT %d",
		pgx.Identifier{table}.Sanitize(), in.sampleRows)

	rows, err := conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query sample: %w", err)
	}
	defer rows.Close()

	fieldDescs := rows.FieldDescriptions()
	names := make([]string, len(fieldDescs))
	for i, fd := range fieldDescs {
		names[i] = string(fd.Name)
	}

	sample := make([]map[string]any, 0, in.sampleRows)
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("read sample values: %w", err)
		}
		rowMap := make(map[string]any, len(names))
		for i, name := range names {
			rowMap[name] = values[i]
		}
		sample = append(sample, rowMap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sample: %w", err)
	}

	return sample, nil
}

// fetchForeignKeys returns the foreign key constraints declared on the table.
func (in *Introspector) fetchForeignKeys(ctx context.Context, conn *pgxpool.Conn, table string) ([]models.ForeignKey, error) {
	const query = `
		SELECT
			tc.constraint_name,
			kcu.column_name,
			ccu.table_name AS referred_table,
			ccu.column_name AS referred_column
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		JOIN information_schema.constraint_column_usage ccu
			ON tc.constraint_name = ccu.constraint_name
			AND tc.table_schema = ccu.table_schema
		WHERE tc.constraint_type = 'FOREIGN KEY'
		  AND tc.table_schema = 'public'
		  AND tc.table_name = $1
		ORDER BY tc.constraint_name, kcu.ordinal_position
	`

	rows, err := conn.Query(ctx, query, table)
	if err != nil {
		return nil, fmt.Errorf("query foreign keys: %w", err)
	}
	defer rows.Close()

	// Group columns by constraint to support composite keys.
	byConstraint := make(map[string]*models.ForeignKey)
	var order []string
	for rows.Next() {
		var constraint, column, referredTable, referredColumn string
		if err := rows.Scan(&constraint, &column, &referredTable, &referredColumn); err != nil {
			return nil, fmt.Errorf("scan foreign key: %w", err)
		}
		fk, ok := byConstraint[constraint]
		if !ok {
			fk = &models.ForeignKey{ReferredTable: referredTable}
			byConstraint[constraint] = fk
			order = append(order, constraint)
		}
		fk.ConstrainedColumns = append(fk.ConstrainedColumns, column)
		fk.ReferredColumns = append(fk.ReferredColumns, referredColumn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate foreign keys: %w", err)
	}

	fks := make([]models.ForeignKey, 0, len(order))
	for _, constraint := range order {
		fks = append(fks, *byConstraint[constraint])
	}
	return fks, nil
}

// fetchValueInventory returns the distinct non-null values of a column, or
// nil when the column's cardinality exceeds the cap. The cap is probed per
// column; high-cardinality columns are omitted entirely rather than truncated.
func (in *Introspector) fetchValueInventory(ctx context.Context, conn *pgxpool.Conn, table string, col models.Column) (*models.ValueInventory, error) {
	tableRef := pgx.Identifier{table}.Sanitize()
	colRef := pgx.Identifier{col.Name}.Sanitize()

	// Probe: count distinct values up to cap+1 so the cap check never scans
	// the full cardinality of a huge column.
	probe := fmt.Sprintf(`
		SELECT COUNT(*) FROM (
			SELECT DISTINCT %s FROM %s WHERE %s IS NOT NULL LIMIT %d
		) AS _probe
	`, colRef, tableRef, colRef, in.distinctCap+1)

	var distinct int
	if err := conn.QueryRow(ctx, probe).Scan(&distinct); err != nil {
		return nil, fmt.Errorf("probe cardinality: %w", err)
	}
	if distinct == 0 || distinct > in.distinctCap {
		return nil, nil
	}

	query := fmt.Sprintf(`
		SELECT DISTINCT %s::text
		FROM %s
		WHERE %s IS NOT NULL
		ORDER BY 1
		LIMIT %d
	`, colRef, tableRef, colRef, in.distinctCap)

	rows, err := conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("fetch distinct values: %w", err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var val string
		if err := rows.Scan(&val); err != nil {
			return nil, fmt.Errorf("scan distinct value: %w", err)
		}
		if strings.TrimSpace(val) == "" {
			continue
		}
		values = append(values, val)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate distinct values: %w", err)
	}

	if len(values) == 0 {
		return nil, nil
	}

	return &models.ValueInventory{
		Values: values,
		Type:   col.DataType,
		Count:  len(values),
	}, nil
}
