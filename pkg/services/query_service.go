package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/datachat-io/datachat-engine/pkg/analysis"
	"github.com/datachat-io/datachat-engine/pkg/models"
	"github.com/datachat-io/datachat-engine/pkg/repositories"
)

// Answer is the full response to one question: the pipeline outcome plus
// the explanation and chart suggestion for successful results.
type Answer struct {
	Outcome models.QueryOutcome `json:"outcome"`
	Summary string              `json:"summary,omitempty"`
	Chart   *analysis.ChartSpec `json:"chart,omitempty"`
}

// QueryService answers questions against one dataset and records the history.
type QueryService interface {
	Ask(ctx context.Context, datasetID uuid.UUID, question string) (*Answer, error)
	History(ctx context.Context, datasetID uuid.UUID, limit int) ([]*models.QueryRecord, error)
}

// SnapshotProvider reads the live catalog. Satisfied by *schema.Introspector.
type SnapshotProvider interface {
	Snapshot(ctx context.Context) (models.SchemaSnapshot, error)
}

// QuestionAnswerer runs the question-to-SQL pipeline. Satisfied by
// *text2sql.Pipeline.
type QuestionAnswerer interface {
	Answer(ctx context.Context, question string, snapshot models.SchemaSnapshot) models.QueryOutcome
}

// Summarizer explains a successful result. Satisfied by *analysis.Analyzer.
type Summarizer interface {
	Summarize(ctx context.Context, question, sqlQuery string, result *models.QueryResult) string
}

type queryService struct {
	datasets     repositories.DatasetRepository
	queries      repositories.QueryRepository
	introspector SnapshotProvider
	pipeline     QuestionAnswerer
	analyzer     Summarizer
	logger       *zap.Logger
}

// NewQueryService creates a query service.
func NewQueryService(
	datasets repositories.DatasetRepository,
	queries repositories.QueryRepository,
	introspector SnapshotProvider,
	pipeline QuestionAnswerer,
	analyzer Summarizer,
	logger *zap.Logger,
) QueryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &queryService{
		datasets:     datasets,
		queries:      queries,
		introspector: introspector,
		pipeline:     pipeline,
		analyzer:     analyzer,
		logger:       logger.Named("query_service"),
	}
}

var _ QueryService = (*queryService)(nil)

// Ask introspects the live catalog, restricts the snapshot to the dataset's
// tables, runs the pipeline, and records the attempt. Pipeline failures are
// recorded and returned inside the Answer; only infrastructure failures
// (introspection, persistence) surface as errors.
func (s *queryService) Ask(ctx context.Context, datasetID uuid.UUID, question string) (*Answer, error) {
	tables, err := s.datasets.ListTables(ctx, datasetID)
	if err != nil {
		return nil, err
	}
	if len(tables) == 0 {
		return nil, fmt.Errorf("dataset %s has no tables", datasetID)
	}

	full, err := s.introspector.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("introspect schema: %w", err)
	}

	names := make([]string, len(tables))
	for i, table := range tables {
		names[i] = table.TableName
	}
	snapshot := full.Restrict(names)

	outcome := s.pipeline.Answer(ctx, question, snapshot)

	record := &models.QueryRecord{
		DatasetID:    datasetID,
		Question:     question,
		SQLQuery:     outcome.SQLQuery,
		Success:      outcome.Success,
		ErrorMessage: outcome.Error,
	}
	if outcome.Success {
		elapsed := outcome.ExecutionTimeMs
		record.ExecutionTimeMs = &elapsed
	}
	if err := s.queries.Create(ctx, record); err != nil {
		s.logger.Warn("Failed to record query", zap.Error(err))
	}

	answer := &Answer{Outcome: outcome}
	if outcome.Success {
		result := &models.QueryResult{
			Columns:         outcome.Columns,
			Rows:            outcome.Rows,
			ExecutionTimeMs: outcome.ExecutionTimeMs,
		}
		answer.Summary = s.analyzer.Summarize(ctx, question, outcome.SQLQuery, result)
		chart := analysis.SuggestChart(result)
		answer.Chart = &chart
	}
	return answer, nil
}

func (s *queryService) History(ctx context.Context, datasetID uuid.UUID, limit int) ([]*models.QueryRecord, error) {
	return s.queries.ListByDataset(ctx, datasetID, limit)
}
