// Package models defines the data types shared across the pipeline.
package models

// Column is one column of a table: catalog name plus the catalog type string.
type Column struct {
	Name     string `json:"name"`
	DataType string `json:"data_type"`
}

// ForeignKey represents one foreign key constraint.
type ForeignKey struct {
	ConstrainedColumns []string `json:"constrained_columns"`
	ReferredTable      string   `json:"referred_table"`
	ReferredColumns    []string `json:"referred_columns"`
}

// ValueInventory holds the known distinct values of a low-cardinality column.
// Columns whose distinct count exceeds the cap are omitted entirely, not
// truncated: a partial inventory would mislead the value matcher.
type ValueInventory struct {
	Values []string `json:"values"`
	Type   string   `json:"type"`
	Count  int      `json:"count"`
}

// TableInfo is the snapshot of one table. If introspection of the table
// failed, Error is set and all other fields are empty; callers must treat
// such a table as schema-less, not absent.
type TableInfo struct {
	Columns      []Column                  `json:"columns"`
	Sample       []map[string]any          `json:"sample"`
	ForeignKeys  []ForeignKey              `json:"foreign_keys"`
	UniqueValues map[string]ValueInventory `json:"unique_values"`
	Error        string                    `json:"error,omitempty"`
}

// SchemaSnapshot maps table name to its introspected state. It is rebuilt on
// every question from the live catalog, read-only after construction, and
// discarded when the request completes.
type SchemaSnapshot map[string]TableInfo

// Restrict returns a snapshot containing only the named tables.
// Used by callers to scope the full-database snapshot to one dataset.
func (s SchemaSnapshot) Restrict(tables []string) SchemaSnapshot {
	out := make(SchemaSnapshot, len(tables))
	for _, name := range tables {
		if info, ok := s[name]; ok {
			out[name] = info
		}
	}
	return out
}
