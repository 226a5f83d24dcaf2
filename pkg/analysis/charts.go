package analysis

import (
	"time"

	"github.com/datachat-io/datachat-engine/pkg/models"
)

// Chart types the frontend knows how to render.
const (
	ChartBar     = "bar"
	ChartLine    = "line"
	ChartScatter = "scatter"
	ChartPie     = "pie"
	ChartTable   = "table"
)

// maxPieSlices is the category count above which a pie chart stops being
// readable and a bar chart is suggested instead.
const maxPieSlices = 6

// ChartSpec tells the caller how to visualize a result.
type ChartSpec struct {
	Type    string `json:"type"`
	XColumn string `json:"x_column,omitempty"`
	YColumn string `json:"y_column,omitempty"`
}

// SuggestChart picks a chart for the result shape:
//   - temporal x + numeric y      -> line
//   - categorical x + numeric y   -> pie for few categories, else bar
//   - two numeric columns         -> scatter
//   - anything else               -> plain table
func SuggestChart(result *models.QueryResult) ChartSpec {
	if result == nil || len(result.Rows) == 0 || len(result.Columns) < 2 {
		return ChartSpec{Type: ChartTable}
	}

	kinds := make(map[string]string, len(result.Columns))
	for _, col := range result.Columns {
		kinds[col] = columnKind(result, col)
	}

	numeric := columnsOfKind(result.Columns, kinds, "numeric")
	temporal := columnsOfKind(result.Columns, kinds, "temporal")
	categorical := columnsOfKind(result.Columns, kinds, "categorical")

	switch {
	case len(temporal) >= 1 && len(numeric) >= 1:
		return ChartSpec{Type: ChartLine, XColumn: temporal[0], YColumn: numeric[0]}
	case len(categorical) >= 1 && len(numeric) >= 1:
		chartType := ChartBar
		if len(result.Rows) <= maxPieSlices {
			chartType = ChartPie
		}
		return ChartSpec{Type: chartType, XColumn: categorical[0], YColumn: numeric[0]}
	case len(numeric) >= 2:
		return ChartSpec{Type: ChartScatter, XColumn: numeric[0], YColumn: numeric[1]}
	default:
		return ChartSpec{Type: ChartTable}
	}
}

func columnsOfKind(ordered []string, kinds map[string]string, kind string) []string {
	var out []string
	for _, col := range ordered {
		if kinds[col] == kind {
			out = append(out, col)
		}
	}
	return out
}

// columnKind classifies a column by its non-null values: "numeric",
// "temporal", "categorical", or "empty".
func columnKind(result *models.QueryResult, col string) string {
	kind := "empty"
	for _, row := range result.Rows {
		val, ok := row[col]
		if !ok || val == nil {
			continue
		}
		var k string
		if _, isNum := asFloat(val); isNum {
			k = "numeric"
		} else if _, isTime := val.(time.Time); isTime {
			k = "temporal"
		} else {
			k = "categorical"
		}
		if kind == "empty" {
			kind = k
		} else if kind != k {
			return "categorical"
		}
	}
	return kind
}
