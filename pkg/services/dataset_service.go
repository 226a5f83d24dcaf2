// Package services orchestrates ingestion and question answering over the
// repositories and the pipeline.
package services

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/datachat-io/datachat-engine/pkg/ingest"
	"github.com/datachat-io/datachat-engine/pkg/models"
	"github.com/datachat-io/datachat-engine/pkg/repositories"
)

// DatasetService handles dataset upload, listing, and deletion.
type DatasetService interface {
	Upload(ctx context.Context, filename string, file io.Reader) (*models.Dataset, []*models.DatasetTable, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Dataset, []*models.DatasetTable, error)
	List(ctx context.Context) ([]*models.Dataset, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// TableStore creates and drops the physical tables backing a dataset.
// Satisfied by *ingest.Store.
type TableStore interface {
	CreateAndLoad(ctx context.Context, tableName string, table *ingest.Table) (int64, error)
	Drop(ctx context.Context, tableName string) error
}

type datasetService struct {
	datasets repositories.DatasetRepository
	store    TableStore
	logger   *zap.Logger
}

// NewDatasetService creates a dataset service.
func NewDatasetService(datasets repositories.DatasetRepository, store TableStore, logger *zap.Logger) DatasetService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &datasetService{datasets: datasets, store: store, logger: logger.Named("dataset_service")}
}

var _ DatasetService = (*datasetService)(nil)

// Upload parses the file (CSV or XLSX by extension), creates one physical
// table per sheet, bulk-loads the rows, and records the dataset with its
// tables and columns.
func (s *datasetService) Upload(ctx context.Context, filename string, file io.Reader) (*models.Dataset, []*models.DatasetTable, error) {
	stem, fileType, err := splitFilename(filename)
	if err != nil {
		return nil, nil, err
	}

	var parsed []*ingest.Table
	switch fileType {
	case "csv":
		table, err := ingest.ReadCSV(file, stem)
		if err != nil {
			return nil, nil, fmt.Errorf("read %s: %w", filename, err)
		}
		parsed = []*ingest.Table{table}
	case "xlsx":
		parsed, err = ingest.ReadXLSX(file)
		if err != nil {
			return nil, nil, fmt.Errorf("read %s: %w", filename, err)
		}
	}

	dataset := &models.Dataset{ID: uuid.New(), Name: stem, FileType: fileType}
	if err := s.datasets.Create(ctx, dataset); err != nil {
		return nil, nil, err
	}

	var created []*models.DatasetTable
	for _, table := range parsed {
		physical := ingest.PhysicalTableName(dataset.ID, table.Name)

		rowCount, err := s.store.CreateAndLoad(ctx, physical, table)
		if err != nil {
			s.cleanup(ctx, dataset.ID, created)
			return nil, nil, fmt.Errorf("load table %q: %w", table.Name, err)
		}

		dt := &models.DatasetTable{
			ID:           uuid.New(),
			DatasetID:    dataset.ID,
			TableName:    physical,
			OriginalName: table.Name,
			RowCount:     rowCount,
			ColumnCount:  len(table.Columns),
		}
		if err := s.datasets.AddTable(ctx, dt); err != nil {
			s.cleanup(ctx, dataset.ID, created)
			return nil, nil, err
		}

		columns := make([]*models.DatasetColumn, len(table.Columns))
		for i, col := range table.Columns {
			columns[i] = &models.DatasetColumn{
				ID:         uuid.New(),
				TableID:    dt.ID,
				ColumnName: col,
				DataType:   table.Types[i],
				Nullable:   true,
			}
		}
		if err := s.datasets.AddColumns(ctx, columns); err != nil {
			s.cleanup(ctx, dataset.ID, created)
			return nil, nil, err
		}

		created = append(created, dt)
	}

	s.logger.Info("Dataset uploaded",
		zap.String("dataset_id", dataset.ID.String()),
		zap.String("name", dataset.Name),
		zap.Int("tables", len(created)))
	return dataset, created, nil
}

func (s *datasetService) Get(ctx context.Context, id uuid.UUID) (*models.Dataset, []*models.DatasetTable, error) {
	dataset, err := s.datasets.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	tables, err := s.datasets.ListTables(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return dataset, tables, nil
}

func (s *datasetService) List(ctx context.Context) ([]*models.Dataset, error) {
	return s.datasets.List(ctx)
}

// Delete drops the dataset's physical tables, then removes its records.
func (s *datasetService) Delete(ctx context.Context, id uuid.UUID) error {
	tables, err := s.datasets.ListTables(ctx, id)
	if err != nil {
		return err
	}
	for _, table := range tables {
		if err := s.store.Drop(ctx, table.TableName); err != nil {
			return err
		}
	}
	return s.datasets.Delete(ctx, id)
}

// cleanup removes partially created physical tables and the dataset record
// after a failed upload. Errors here are logged, not surfaced; the original
// failure is what the caller needs to see.
func (s *datasetService) cleanup(ctx context.Context, datasetID uuid.UUID, created []*models.DatasetTable) {
	for _, table := range created {
		if err := s.store.Drop(ctx, table.TableName); err != nil {
			s.logger.Warn("Cleanup drop failed", zap.String("table", table.TableName), zap.Error(err))
		}
	}
	if err := s.datasets.Delete(ctx, datasetID); err != nil {
		s.logger.Warn("Cleanup delete failed", zap.String("dataset_id", datasetID.String()), zap.Error(err))
	}
}

// splitFilename returns the name stem and the supported file type.
func splitFilename(filename string) (string, string, error) {
	lower := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(lower, ".csv"):
		return strings.TrimSuffix(filename, filename[len(filename)-4:]), "csv", nil
	case strings.HasSuffix(lower, ".xlsx"):
		return strings.TrimSuffix(filename, filename[len(filename)-5:]), "xlsx", nil
	default:
		return "", "", fmt.Errorf("unsupported file type: %s (want .csv or .xlsx)", filename)
	}
}
