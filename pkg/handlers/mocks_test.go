package handlers

import (
	"context"
	"io"

	"github.com/google/uuid"

	"github.com/datachat-io/datachat-engine/pkg/models"
	"github.com/datachat-io/datachat-engine/pkg/services"
)

// mockDatasetService implements services.DatasetService with function fields.
type mockDatasetService struct {
	UploadFunc func(ctx context.Context, filename string, file io.Reader) (*models.Dataset, []*models.DatasetTable, error)
	GetFunc    func(ctx context.Context, id uuid.UUID) (*models.Dataset, []*models.DatasetTable, error)
	ListFunc   func(ctx context.Context) ([]*models.Dataset, error)
	DeleteFunc func(ctx context.Context, id uuid.UUID) error
}

var _ services.DatasetService = (*mockDatasetService)(nil)

func (m *mockDatasetService) Upload(ctx context.Context, filename string, file io.Reader) (*models.Dataset, []*models.DatasetTable, error) {
	return m.UploadFunc(ctx, filename, file)
}

func (m *mockDatasetService) Get(ctx context.Context, id uuid.UUID) (*models.Dataset, []*models.DatasetTable, error) {
	return m.GetFunc(ctx, id)
}

func (m *mockDatasetService) List(ctx context.Context) ([]*models.Dataset, error) {
	return m.ListFunc(ctx)
}

func (m *mockDatasetService) Delete(ctx context.Context, id uuid.UUID) error {
	return m.DeleteFunc(ctx, id)
}

// mockQueryService implements services.QueryService with function fields.
type mockQueryService struct {
	AskFunc     func(ctx context.Context, datasetID uuid.UUID, question string) (*services.Answer, error)
	HistoryFunc func(ctx context.Context, datasetID uuid.UUID, limit int) ([]*models.QueryRecord, error)
}

var _ services.QueryService = (*mockQueryService)(nil)

func (m *mockQueryService) Ask(ctx context.Context, datasetID uuid.UUID, question string) (*services.Answer, error) {
	return m.AskFunc(ctx, datasetID, question)
}

func (m *mockQueryService) History(ctx context.Context, datasetID uuid.UUID, limit int) ([]*models.QueryRecord, error) {
	return m.HistoryFunc(ctx, datasetID, limit)
}
