// Package analysis turns query results into summaries and chart suggestions.
package analysis

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/datachat-io/datachat-engine/pkg/llm"
	"github.com/datachat-io/datachat-engine/pkg/models"
)

// statsSampleRows caps how many rows are rendered into the explanation prompt.
const statsSampleRows = 10

// Analyzer produces plain-language explanations of query results.
type Analyzer struct {
	generator llm.Generator
	logger    *zap.Logger
}

// NewAnalyzer creates an analyzer. If logger is nil, a no-op logger is used.
func NewAnalyzer(generator llm.Generator, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{generator: generator, logger: logger.Named("analyzer")}
}

// ColumnStats are the descriptive statistics of one numeric column.
type ColumnStats struct {
	Column string  `json:"column"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Count  int     `json:"count"`
}

// Summarize returns a short plain-language explanation of the result. It
// tries one model call grounded on the question, the SQL, and descriptive
// statistics; on any failure it falls back to a deterministic summary so the
// caller always gets text.
func (a *Analyzer) Summarize(ctx context.Context, question, sqlQuery string, result *models.QueryResult) string {
	stats := NumericStats(result)
	fallback := deterministicSummary(result, stats)

	prompt := a.buildPrompt(question, sqlQuery, result, stats)
	response, err := a.generator.Generate(ctx, prompt)
	if err != nil {
		a.logger.Warn("Summary generation failed, using fallback", zap.Error(err))
		return fallback
	}
	summary := strings.TrimSpace(response)
	if summary == "" {
		return fallback
	}
	return summary
}

// NumericStats computes min/max/mean for every column whose values are all
// numeric. Columns are returned in name order.
func NumericStats(result *models.QueryResult) []ColumnStats {
	if result == nil || len(result.Rows) == 0 {
		return nil
	}

	var stats []ColumnStats
	for _, col := range result.Columns {
		min, max := math.Inf(1), math.Inf(-1)
		sum := 0.0
		count := 0
		numeric := true

		for _, row := range result.Rows {
			val, ok := row[col]
			if !ok || val == nil {
				continue
			}
			f, ok := asFloat(val)
			if !ok {
				numeric = false
				break
			}
			min = math.Min(min, f)
			max = math.Max(max, f)
			sum += f
			count++
		}

		if numeric && count > 0 {
			stats = append(stats, ColumnStats{
				Column: col,
				Min:    min,
				Max:    max,
				Mean:   sum / float64(count),
				Count:  count,
			})
		}
	}

	sort.Slice(stats, func(i, j int) bool { return stats[i].Column < stats[j].Column })
	return stats
}

// asFloat widens the numeric types pgx hands back for result values.
func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func (a *Analyzer) buildPrompt(question, sqlQuery string, result *models.QueryResult, stats []ColumnStats) string {
	var b strings.Builder
	b.WriteString("Explain this query result to a non-technical user in 2-3 sentences.\n\n")
	fmt.Fprintf(&b, "Question: %s\n", question)
	fmt.Fprintf(&b, "Query: %s\n", sqlQuery)
	fmt.Fprintf(&b, "Result: %d rows, columns: %s\n", len(result.Rows), strings.Join(result.Columns, ", "))

	for _, s := range stats {
		fmt.Fprintf(&b, "Column %s: min=%g max=%g mean=%g\n", s.Column, s.Min, s.Max, s.Mean)
	}

	limit := len(result.Rows)
	if limit > statsSampleRows {
		limit = statsSampleRows
	}
	for i := 0; i < limit; i++ {
		fmt.Fprintf(&b, "Row %d: %v\n", i+1, renderRow(result.Columns, result.Rows[i]))
	}

	b.WriteString("\nDo not mention SQL or the query itself; describe what the data shows.")
	return b.String()
}

func renderRow(columns []string, row map[string]any) string {
	parts := make([]string, 0, len(columns))
	for _, col := range columns {
		parts = append(parts, fmt.Sprintf("%s=%v", col, row[col]))
	}
	return strings.Join(parts, ", ")
}

// deterministicSummary is the non-LLM fallback text.
func deterministicSummary(result *models.QueryResult, stats []ColumnStats) string {
	if result == nil || len(result.Rows) == 0 {
		return "The query returned no rows."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "The query returned %d rows with columns %s.",
		len(result.Rows), strings.Join(result.Columns, ", "))
	for _, s := range stats {
		fmt.Fprintf(&b, " %s ranges from %g to %g (average %g).", s.Column, s.Min, s.Max, s.Mean)
	}
	return b.String()
}
