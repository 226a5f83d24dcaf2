package models

import (
	"time"

	"github.com/google/uuid"
)

// Dataset is one uploaded file.
type Dataset struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	FileType  string    `json:"file_type"` // "csv" or "xlsx"
	CreatedAt time.Time `json:"created_at"`
}

// DatasetTable is one database table created from a dataset.
type DatasetTable struct {
	ID           uuid.UUID `json:"id"`
	DatasetID    uuid.UUID `json:"dataset_id"`
	TableName    string    `json:"table_name"`    // physical name, ds_<id>_<name>
	OriginalName string    `json:"original_name"` // sheet or file stem as uploaded
	RowCount     int64     `json:"row_count"`
	ColumnCount  int       `json:"column_count"`
	CreatedAt    time.Time `json:"created_at"`
}

// DatasetColumn is one column of a dataset table.
type DatasetColumn struct {
	ID         uuid.UUID `json:"id"`
	TableID    uuid.UUID `json:"table_id"`
	ColumnName string    `json:"column_name"`
	DataType   string    `json:"data_type"`
	Nullable   bool      `json:"nullable"`
}

// QueryRecord is the persisted history of one question, successful or not.
// Failures keep the attempted SQL so users can see what was tried.
type QueryRecord struct {
	ID              uuid.UUID `json:"id"`
	DatasetID       uuid.UUID `json:"dataset_id"`
	Question        string    `json:"question"`
	SQLQuery        string    `json:"sql_query"`
	Success         bool      `json:"success"`
	ErrorMessage    string    `json:"error_message,omitempty"`
	ExecutionTimeMs *int64    `json:"execution_time_ms,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}
