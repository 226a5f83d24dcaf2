package text2sql

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/datachat-io/datachat-engine/pkg/models"
)

func composerSnapshot() models.SchemaSnapshot {
	return models.SchemaSnapshot{
		"sales": {
			Columns: []models.Column{
				{Name: "region", DataType: "text"},
				{Name: "amount", DataType: "numeric"},
			},
			ForeignKeys: []models.ForeignKey{
				{ConstrainedColumns: []string{"customer_id"}, ReferredTable: "customers", ReferredColumns: []string{"id"}},
			},
			Sample: []map[string]any{
				{"region": "west", "amount": 10},
			},
		},
		"broken": {
			Error: "permission denied",
		},
	}
}

func TestRenderSchema(t *testing.T) {
	text := RenderSchema(composerSnapshot())

	assert.Contains(t, text, "Table sales:")
	assert.Contains(t, text, "region (text)")
	assert.Contains(t, text, "amount (numeric)")
	assert.Contains(t, text, "references customers(id)")
	assert.Contains(t, text, "sample row 1")
	assert.Contains(t, text, "schema unavailable: permission denied")
}

func TestRenderMatchesSections(t *testing.T) {
	matches := models.ValueMatchMap{
		"sales.region": {
			Matches: []models.ValueMatch{
				{Value: "west", Confidence: models.ConfidenceHigh, MatchType: models.MatchExact},
				{Value: "western europe", Confidence: models.ConfidenceLow, MatchType: models.MatchContained},
			},
		},
	}

	text := RenderMatches(matches)

	assert.Contains(t, text, "Strong value matches")
	assert.Contains(t, text, `"west"`)
	assert.Contains(t, text, "Possible value matches")
	assert.Contains(t, text, `"western europe"`)
}

func TestRenderMatchesEmpty(t *testing.T) {
	assert.Empty(t, RenderMatches(nil))
}

func TestRenderMetadata(t *testing.T) {
	md := models.QuestionMetadata{
		Intent:      "aggregation",
		Metrics:     []string{"sum of amount"},
		Grouping:    []string{"region"},
		Sorting:     models.SortSpec{Column: "amount", Order: "desc"},
		Limit:       "5",
		TimeContext: "last quarter",
	}

	text := RenderMetadata(md)

	assert.Contains(t, text, "Intent: aggregation")
	assert.Contains(t, text, "Metrics: sum of amount")
	assert.Contains(t, text, "Group by: region")
	assert.Contains(t, text, "Sort: amount desc")
	assert.Contains(t, text, "Limit: 5")
	assert.Contains(t, text, "Time context: last quarter")
}

func TestRenderMetadataEmpty(t *testing.T) {
	assert.Empty(t, RenderMetadata(models.QuestionMetadata{}))
}

func TestComposeDeterministic(t *testing.T) {
	snapshot := composerSnapshot()
	ranking := RankTables("sales by region", snapshot)
	matches := MatchValues("sales by region", snapshot)
	md := models.QuestionMetadata{Intent: "aggregation"}

	a := Compose("sales by region", snapshot, ranking, matches, md)
	b := Compose("sales by region", snapshot, ranking, matches, md)

	assert.Equal(t, a, b)
}

func TestComposeRendersNoRelevantTableMarker(t *testing.T) {
	prompt := Compose("question", composerSnapshot(), Ranking{None: true}, nil, models.QuestionMetadata{})

	assert.Contains(t, prompt, "no relevant table identified")
	assert.False(t, strings.Contains(prompt, "Likely relevant tables"))
}

func TestComposeEndsWithQuestion(t *testing.T) {
	prompt := Compose("total sales by region", composerSnapshot(), Ranking{None: true}, nil, models.QuestionMetadata{})

	assert.Contains(t, prompt, "Question: total sales by region")
	assert.True(t, strings.HasSuffix(prompt, "SQL:"))
	assert.Contains(t, prompt, "Rules:")
}
