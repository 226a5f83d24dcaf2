package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datachat-io/datachat-engine/pkg/models"
)

func TestAskSuccess(t *testing.T) {
	datasetID := uuid.New()
	repo := &mockDatasetRepo{
		ListTablesFunc: func(_ context.Context, id uuid.UUID) ([]*models.DatasetTable, error) {
			return []*models.DatasetTable{{TableName: "ds_abc_sales"}}, nil
		},
	}
	var recorded *models.QueryRecord
	queryRepo := &mockQueryRepo{
		CreateFunc: func(_ context.Context, r *models.QueryRecord) error {
			recorded = r
			return nil
		},
	}
	provider := &mockSnapshotProvider{
		SnapshotFunc: func(_ context.Context) (models.SchemaSnapshot, error) {
			return models.SchemaSnapshot{
				"ds_abc_sales": {Columns: []models.Column{{Name: "amount", DataType: "numeric"}}},
				"other_table":  {},
			}, nil
		},
	}
	var seenSnapshot models.SchemaSnapshot
	answerer := &mockAnswerer{
		AnswerFunc: func(_ context.Context, question string, snapshot models.SchemaSnapshot) models.QueryOutcome {
			seenSnapshot = snapshot
			return models.QueryOutcome{
				Success:         true,
				SQLQuery:        "SELECT SUM(amount) FROM ds_abc_sales;",
				Columns:         []string{"sum"},
				Rows:            []map[string]any{{"sum": 35}},
				ExecutionTimeMs: 12,
				Stage:           models.StageExecuted,
			}
		},
	}
	svc := NewQueryService(repo, queryRepo, provider, answerer, &mockSummarizer{}, nil)

	answer, err := svc.Ask(context.Background(), datasetID, "total sales?")

	require.NoError(t, err)
	assert.True(t, answer.Outcome.Success)
	assert.Equal(t, "summary", answer.Summary)
	require.NotNil(t, answer.Chart)

	// Snapshot handed to the pipeline is restricted to the dataset's tables.
	assert.Len(t, seenSnapshot, 1)
	assert.Contains(t, seenSnapshot, "ds_abc_sales")

	require.NotNil(t, recorded)
	assert.Equal(t, datasetID, recorded.DatasetID)
	assert.Equal(t, "total sales?", recorded.Question)
	assert.True(t, recorded.Success)
	require.NotNil(t, recorded.ExecutionTimeMs)
	assert.Equal(t, int64(12), *recorded.ExecutionTimeMs)
}

func TestAskPipelineFailureRecordedNotErrored(t *testing.T) {
	repo := &mockDatasetRepo{
		ListTablesFunc: func(_ context.Context, _ uuid.UUID) ([]*models.DatasetTable, error) {
			return []*models.DatasetTable{{TableName: "ds_abc_sales"}}, nil
		},
	}
	var recorded *models.QueryRecord
	queryRepo := &mockQueryRepo{
		CreateFunc: func(_ context.Context, r *models.QueryRecord) error {
			recorded = r
			return nil
		},
	}
	provider := &mockSnapshotProvider{
		SnapshotFunc: func(_ context.Context) (models.SchemaSnapshot, error) {
			return models.SchemaSnapshot{"ds_abc_sales": {}}, nil
		},
	}
	answerer := &mockAnswerer{
		AnswerFunc: func(_ context.Context, _ string, _ models.SchemaSnapshot) models.QueryOutcome {
			return models.QueryOutcome{
				Success:  false,
				SQLQuery: "SELECT nope FROM ds_abc_sales;",
				Error:    "column \"nope\" does not exist",
				Stage:    models.StageRefined,
				Refined:  true,
			}
		},
	}
	summarizer := &mockSummarizer{
		SummarizeFunc: func(_ context.Context, _, _ string, _ *models.QueryResult) string {
			t.Fatal("Summarize should not run for a failed outcome")
			return ""
		},
	}
	svc := NewQueryService(repo, queryRepo, provider, answerer, summarizer, nil)

	answer, err := svc.Ask(context.Background(), uuid.New(), "bad question")

	require.NoError(t, err)
	assert.False(t, answer.Outcome.Success)
	assert.Empty(t, answer.Summary)
	assert.Nil(t, answer.Chart)

	require.NotNil(t, recorded)
	assert.False(t, recorded.Success)
	assert.Equal(t, "column \"nope\" does not exist", recorded.ErrorMessage)
	assert.Nil(t, recorded.ExecutionTimeMs)
}

func TestAskNoTables(t *testing.T) {
	repo := &mockDatasetRepo{
		ListTablesFunc: func(_ context.Context, _ uuid.UUID) ([]*models.DatasetTable, error) {
			return nil, nil
		},
	}
	svc := NewQueryService(repo, &mockQueryRepo{}, &mockSnapshotProvider{}, &mockAnswerer{}, &mockSummarizer{}, nil)

	_, err := svc.Ask(context.Background(), uuid.New(), "anything")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "has no tables")
}

func TestAskIntrospectionError(t *testing.T) {
	repo := &mockDatasetRepo{
		ListTablesFunc: func(_ context.Context, _ uuid.UUID) ([]*models.DatasetTable, error) {
			return []*models.DatasetTable{{TableName: "ds_abc_sales"}}, nil
		},
	}
	provider := &mockSnapshotProvider{
		SnapshotFunc: func(_ context.Context) (models.SchemaSnapshot, error) {
			return nil, errors.New("connection refused")
		},
	}
	svc := NewQueryService(repo, &mockQueryRepo{}, provider, &mockAnswerer{}, &mockSummarizer{}, nil)

	_, err := svc.Ask(context.Background(), uuid.New(), "anything")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "introspect schema")
}

func TestAskRecordFailureIsNotFatal(t *testing.T) {
	repo := &mockDatasetRepo{
		ListTablesFunc: func(_ context.Context, _ uuid.UUID) ([]*models.DatasetTable, error) {
			return []*models.DatasetTable{{TableName: "ds_abc_sales"}}, nil
		},
	}
	queryRepo := &mockQueryRepo{
		CreateFunc: func(_ context.Context, _ *models.QueryRecord) error {
			return errors.New("insert failed")
		},
	}
	provider := &mockSnapshotProvider{
		SnapshotFunc: func(_ context.Context) (models.SchemaSnapshot, error) {
			return models.SchemaSnapshot{"ds_abc_sales": {}}, nil
		},
	}
	answerer := &mockAnswerer{
		AnswerFunc: func(_ context.Context, _ string, _ models.SchemaSnapshot) models.QueryOutcome {
			return models.QueryOutcome{
				Success:  true,
				SQLQuery: "SELECT 1;",
				Columns:  []string{"?column?"},
				Rows:     []map[string]any{{"?column?": 1}},
				Stage:    models.StageExecuted,
			}
		},
	}
	svc := NewQueryService(repo, queryRepo, provider, answerer, &mockSummarizer{}, nil)

	answer, err := svc.Ask(context.Background(), uuid.New(), "anything")

	require.NoError(t, err)
	assert.True(t, answer.Outcome.Success)
}

func TestHistoryDelegates(t *testing.T) {
	datasetID := uuid.New()
	want := []*models.QueryRecord{{Question: "q1"}, {Question: "q2"}}
	queryRepo := &mockQueryRepo{
		ListByDatasetFunc: func(_ context.Context, id uuid.UUID, limit int) ([]*models.QueryRecord, error) {
			assert.Equal(t, datasetID, id)
			assert.Equal(t, 50, limit)
			return want, nil
		},
	}
	svc := NewQueryService(&mockDatasetRepo{}, queryRepo, &mockSnapshotProvider{}, &mockAnswerer{}, &mockSummarizer{}, nil)

	got, err := svc.History(context.Background(), datasetID, 50)

	require.NoError(t, err)
	assert.Equal(t, want, got)
}
