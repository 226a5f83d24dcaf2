package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/datachat-io/datachat-engine/pkg/ingest"
	"github.com/datachat-io/datachat-engine/pkg/models"
	"github.com/datachat-io/datachat-engine/pkg/repositories"
)

// mockDatasetRepo implements repositories.DatasetRepository with function
// fields; unset methods panic so tests only stub what they use.
type mockDatasetRepo struct {
	CreateFunc     func(ctx context.Context, dataset *models.Dataset) error
	GetFunc        func(ctx context.Context, id uuid.UUID) (*models.Dataset, error)
	ListFunc       func(ctx context.Context) ([]*models.Dataset, error)
	DeleteFunc     func(ctx context.Context, id uuid.UUID) error
	AddTableFunc   func(ctx context.Context, table *models.DatasetTable) error
	AddColumnsFunc func(ctx context.Context, columns []*models.DatasetColumn) error
	ListTablesFunc func(ctx context.Context, datasetID uuid.UUID) ([]*models.DatasetTable, error)
}

var _ repositories.DatasetRepository = (*mockDatasetRepo)(nil)

func (m *mockDatasetRepo) Create(ctx context.Context, d *models.Dataset) error { return m.CreateFunc(ctx, d) }
func (m *mockDatasetRepo) Get(ctx context.Context, id uuid.UUID) (*models.Dataset, error) {
	return m.GetFunc(ctx, id)
}
func (m *mockDatasetRepo) List(ctx context.Context) ([]*models.Dataset, error) { return m.ListFunc(ctx) }
func (m *mockDatasetRepo) Delete(ctx context.Context, id uuid.UUID) error      { return m.DeleteFunc(ctx, id) }
func (m *mockDatasetRepo) AddTable(ctx context.Context, t *models.DatasetTable) error {
	return m.AddTableFunc(ctx, t)
}
func (m *mockDatasetRepo) AddColumns(ctx context.Context, c []*models.DatasetColumn) error {
	return m.AddColumnsFunc(ctx, c)
}
func (m *mockDatasetRepo) ListTables(ctx context.Context, id uuid.UUID) ([]*models.DatasetTable, error) {
	return m.ListTablesFunc(ctx, id)
}

// mockQueryRepo implements repositories.QueryRepository.
type mockQueryRepo struct {
	CreateFunc        func(ctx context.Context, record *models.QueryRecord) error
	ListByDatasetFunc func(ctx context.Context, datasetID uuid.UUID, limit int) ([]*models.QueryRecord, error)
}

var _ repositories.QueryRepository = (*mockQueryRepo)(nil)

func (m *mockQueryRepo) Create(ctx context.Context, r *models.QueryRecord) error {
	return m.CreateFunc(ctx, r)
}
func (m *mockQueryRepo) ListByDataset(ctx context.Context, id uuid.UUID, limit int) ([]*models.QueryRecord, error) {
	return m.ListByDatasetFunc(ctx, id, limit)
}

// mockTableStore implements TableStore.
type mockTableStore struct {
	CreateAndLoadFunc func(ctx context.Context, tableName string, table *ingest.Table) (int64, error)
	DropFunc          func(ctx context.Context, tableName string) error
	dropped           []string
}

var _ TableStore = (*mockTableStore)(nil)

func (m *mockTableStore) CreateAndLoad(ctx context.Context, name string, table *ingest.Table) (int64, error) {
	return m.CreateAndLoadFunc(ctx, name, table)
}
func (m *mockTableStore) Drop(ctx context.Context, name string) error {
	m.dropped = append(m.dropped, name)
	if m.DropFunc != nil {
		return m.DropFunc(ctx, name)
	}
	return nil
}

// mockSnapshotProvider implements SnapshotProvider.
type mockSnapshotProvider struct {
	SnapshotFunc func(ctx context.Context) (models.SchemaSnapshot, error)
}

func (m *mockSnapshotProvider) Snapshot(ctx context.Context) (models.SchemaSnapshot, error) {
	return m.SnapshotFunc(ctx)
}

// mockAnswerer implements QuestionAnswerer.
type mockAnswerer struct {
	AnswerFunc func(ctx context.Context, question string, snapshot models.SchemaSnapshot) models.QueryOutcome
}

func (m *mockAnswerer) Answer(ctx context.Context, question string, snapshot models.SchemaSnapshot) models.QueryOutcome {
	return m.AnswerFunc(ctx, question, snapshot)
}

// mockSummarizer implements Summarizer.
type mockSummarizer struct {
	SummarizeFunc func(ctx context.Context, question, sqlQuery string, result *models.QueryResult) string
}

func (m *mockSummarizer) Summarize(ctx context.Context, question, sqlQuery string, result *models.QueryResult) string {
	if m.SummarizeFunc != nil {
		return m.SummarizeFunc(ctx, question, sqlQuery, result)
	}
	return "summary"
}
