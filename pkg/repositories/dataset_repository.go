// Package repositories provides data access for the engine's own records.
package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/datachat-io/datachat-engine/pkg/apperrors"
	"github.com/datachat-io/datachat-engine/pkg/database"
	"github.com/datachat-io/datachat-engine/pkg/models"
)

// DatasetRepository provides data access for uploaded datasets and their
// tables.
type DatasetRepository interface {
	Create(ctx context.Context, dataset *models.Dataset) error
	Get(ctx context.Context, id uuid.UUID) (*models.Dataset, error)
	List(ctx context.Context) ([]*models.Dataset, error)
	Delete(ctx context.Context, id uuid.UUID) error

	AddTable(ctx context.Context, table *models.DatasetTable) error
	AddColumns(ctx context.Context, columns []*models.DatasetColumn) error
	ListTables(ctx context.Context, datasetID uuid.UUID) ([]*models.DatasetTable, error)
}

type datasetRepository struct {
	db *database.DB
}

// NewDatasetRepository creates a dataset repository.
func NewDatasetRepository(db *database.DB) DatasetRepository {
	return &datasetRepository{db: db}
}

var _ DatasetRepository = (*datasetRepository)(nil)

func (r *datasetRepository) Create(ctx context.Context, dataset *models.Dataset) error {
	if dataset.ID == uuid.Nil {
		dataset.ID = uuid.New()
	}

	query := `
		INSERT INTO datachat_datasets (id, name, file_type)
		VALUES ($1, $2, $3)
		RETURNING created_at`

	err := r.db.QueryRow(ctx, query, dataset.ID, dataset.Name, dataset.FileType).
		Scan(&dataset.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create dataset: %w", err)
	}
	return nil
}

func (r *datasetRepository) Get(ctx context.Context, id uuid.UUID) (*models.Dataset, error) {
	query := `
		SELECT id, name, file_type, created_at
		FROM datachat_datasets
		WHERE id = $1`

	var dataset models.Dataset
	err := r.db.QueryRow(ctx, query, id).
		Scan(&dataset.ID, &dataset.Name, &dataset.FileType, &dataset.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get dataset: %w", err)
	}
	return &dataset, nil
}

func (r *datasetRepository) List(ctx context.Context) ([]*models.Dataset, error) {
	query := `
		SELECT id, name, file_type, created_at
		FROM datachat_datasets
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list datasets: %w", err)
	}
	defer rows.Close()

	var datasets []*models.Dataset
	for rows.Next() {
		var dataset models.Dataset
		if err := rows.Scan(&dataset.ID, &dataset.Name, &dataset.FileType, &dataset.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan dataset: %w", err)
		}
		datasets = append(datasets, &dataset)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating datasets: %w", err)
	}
	return datasets, nil
}

func (r *datasetRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM datachat_datasets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete dataset: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *datasetRepository) AddTable(ctx context.Context, table *models.DatasetTable) error {
	if table.ID == uuid.Nil {
		table.ID = uuid.New()
	}

	query := `
		INSERT INTO datachat_dataset_tables (id, dataset_id, table_name, original_name, row_count, column_count)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`

	err := r.db.QueryRow(ctx, query,
		table.ID, table.DatasetID, table.TableName, table.OriginalName,
		table.RowCount, table.ColumnCount).
		Scan(&table.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create dataset table: %w", err)
	}
	return nil
}

func (r *datasetRepository) AddColumns(ctx context.Context, columns []*models.DatasetColumn) error {
	for _, col := range columns {
		if col.ID == uuid.Nil {
			col.ID = uuid.New()
		}
		_, err := r.db.Exec(ctx, `
			INSERT INTO datachat_dataset_columns (id, table_id, column_name, data_type, nullable)
			VALUES ($1, $2, $3, $4, $5)`,
			col.ID, col.TableID, col.ColumnName, col.DataType, col.Nullable)
		if err != nil {
			return fmt.Errorf("failed to create dataset column %s: %w", col.ColumnName, err)
		}
	}
	return nil
}

func (r *datasetRepository) ListTables(ctx context.Context, datasetID uuid.UUID) ([]*models.DatasetTable, error) {
	query := `
		SELECT id, dataset_id, table_name, original_name, row_count, column_count, created_at
		FROM datachat_dataset_tables
		WHERE dataset_id = $1
		ORDER BY created_at`

	rows, err := r.db.Query(ctx, query, datasetID)
	if err != nil {
		return nil, fmt.Errorf("failed to list dataset tables: %w", err)
	}
	defer rows.Close()

	var tables []*models.DatasetTable
	for rows.Next() {
		var table models.DatasetTable
		err := rows.Scan(&table.ID, &table.DatasetID, &table.TableName,
			&table.OriginalName, &table.RowCount, &table.ColumnCount, &table.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dataset table: %w", err)
		}
		tables = append(tables, &table)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating dataset tables: %w", err)
	}
	return tables, nil
}
