package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/datachat-io/datachat-engine/pkg/database"
	"github.com/datachat-io/datachat-engine/pkg/models"
)

// QueryRepository persists the history of asked questions, successes and
// failures alike.
type QueryRepository interface {
	Create(ctx context.Context, record *models.QueryRecord) error
	ListByDataset(ctx context.Context, datasetID uuid.UUID, limit int) ([]*models.QueryRecord, error)
}

type queryRepository struct {
	db *database.DB
}

// NewQueryRepository creates a query history repository.
func NewQueryRepository(db *database.DB) QueryRepository {
	return &queryRepository{db: db}
}

var _ QueryRepository = (*queryRepository)(nil)

func (r *queryRepository) Create(ctx context.Context, record *models.QueryRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	query := `
		INSERT INTO datachat_queries (id, dataset_id, question, sql_query, success, error_message, execution_time_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`

	err := r.db.QueryRow(ctx, query,
		record.ID, record.DatasetID, record.Question, record.SQLQuery,
		record.Success, record.ErrorMessage, record.ExecutionTimeMs).
		Scan(&record.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create query record: %w", err)
	}
	return nil
}

func (r *queryRepository) ListByDataset(ctx context.Context, datasetID uuid.UUID, limit int) ([]*models.QueryRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	query := `
		SELECT id, dataset_id, question, sql_query, success, error_message, execution_time_ms, created_at
		FROM datachat_queries
		WHERE dataset_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, datasetID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list query records: %w", err)
	}
	defer rows.Close()

	var records []*models.QueryRecord
	for rows.Next() {
		var record models.QueryRecord
		err := rows.Scan(&record.ID, &record.DatasetID, &record.Question,
			&record.SQLQuery, &record.Success, &record.ErrorMessage,
			&record.ExecutionTimeMs, &record.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan query record: %w", err)
		}
		records = append(records, &record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating query records: %w", err)
	}
	return records, nil
}
