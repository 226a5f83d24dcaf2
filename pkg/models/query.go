package models

// Stage identifies where in its lifecycle a query attempt is, or where it
// terminally failed.
type Stage string

const (
	StageScreened  Stage = "screened"
	StageGenerated Stage = "generated"
	StageCleaned   Stage = "cleaned"
	StageValidated Stage = "validated"
	StageExecuted  Stage = "executed"
	StageRefined   Stage = "refined"
)

// QueryResult holds the rows returned by a successful execution.
type QueryResult struct {
	Columns         []string         `json:"columns"`
	Rows            []map[string]any `json:"rows"`
	ExecutionTimeMs int64            `json:"execution_time_ms"`
}

// QueryOutcome is the terminal state of one question: either rows plus the
// SQL that produced them, or a plain-language error plus the last SQL
// attempted (if any). Never both.
type QueryOutcome struct {
	Success         bool             `json:"success"`
	SQLQuery        string           `json:"sql_query,omitempty"`
	Columns         []string         `json:"columns,omitempty"`
	Rows            []map[string]any `json:"rows,omitempty"`
	ExecutionTimeMs int64            `json:"execution_time_ms,omitempty"`
	Error           string           `json:"error,omitempty"`
	Stage           Stage            `json:"stage"`
	Refined         bool             `json:"refined"`
}
