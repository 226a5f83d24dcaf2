package models

// Confidence is the qualitative strength of a detected value match.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// MatchType records which rule produced a value match. The declaration order
// is the matching priority: exact > phrase > partial > contained.
type MatchType string

const (
	MatchExact     MatchType = "exact"
	MatchPhrase    MatchType = "phrase"
	MatchPartial   MatchType = "partial"
	MatchContained MatchType = "contained"
)

// ValueMatch is one detected match between the question and a column value.
type ValueMatch struct {
	Value      string     `json:"value"`
	Confidence Confidence `json:"confidence"`
	MatchType  MatchType  `json:"match_type"`
}

// ColumnMatches holds all matches found for a single column, plus context
// for the prompt: a few example values and the column's declared type.
type ColumnMatches struct {
	Matches       []ValueMatch `json:"matches"`
	ExampleValues []string     `json:"example_values"`
	LikelyType    string       `json:"likely_type"`
}

// ValueMatchMap maps column name to its matches. Columns with no matches
// are absent.
type ValueMatchMap map[string]ColumnMatches

// SortSpec is the requested result ordering.
type SortSpec struct {
	Column string `json:"column"`
	Order  string `json:"order"`
}

// ColumnFilter is one structured filter the preprocessor extracted.
type ColumnFilter struct {
	Column     string   `json:"column"`
	Values     []string `json:"values"`
	MatchType  string   `json:"match_type"`
	Confidence string   `json:"confidence"`
}

// QuestionMetadata is the structured intent extracted from the free-text
// question. Produced once per question, immutable thereafter. When the
// preprocessor fails, only RawMatches is populated.
type QuestionMetadata struct {
	Intent        string         `json:"intent"`
	Metrics       []string       `json:"metrics"`
	Filters       []string       `json:"filters"`
	TimeContext   string         `json:"time_context"`
	Grouping      []string       `json:"grouping"`
	Sorting       SortSpec       `json:"sorting"`
	Limit         string         `json:"limit"`
	ColumnFilters []ColumnFilter `json:"column_filters"`
	RawMatches    ValueMatchMap  `json:"raw_matches"`
}
