package text2sql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datachat-io/datachat-engine/pkg/models"
)

func matcherSnapshot(values ...string) models.SchemaSnapshot {
	return models.SchemaSnapshot{
		"sales": {
			Columns: []models.Column{
				{Name: "region", DataType: "text"},
			},
			UniqueValues: map[string]models.ValueInventory{
				"region": {Values: values, Type: "text", Count: len(values)},
			},
		},
	}
}

func TestMatchValuesExact(t *testing.T) {
	matches := MatchValues("show sales in west", matcherSnapshot("west", "east"))

	require.Contains(t, matches, "sales.region")
	cm := matches["sales.region"]
	require.Len(t, cm.Matches, 1)
	assert.Equal(t, "west", cm.Matches[0].Value)
	assert.Equal(t, models.ConfidenceHigh, cm.Matches[0].Confidence)
	assert.Equal(t, models.MatchExact, cm.Matches[0].MatchType)
	assert.Equal(t, "text", cm.LikelyType)
}

func TestMatchValuesPhrase(t *testing.T) {
	tests := []struct {
		name     string
		question string
	}{
		{name: "quoted phrase", question: `orders from "north america" last year`},
		{name: "two word window", question: "orders from north america last year"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matches := MatchValues(tt.question, matcherSnapshot("north america", "south america"))

			require.Contains(t, matches, "sales.region")
			m := matches["sales.region"].Matches[0]
			assert.Equal(t, "north america", m.Value)
			assert.Equal(t, models.ConfidenceHigh, m.Confidence)
			assert.Equal(t, models.MatchPhrase, m.MatchType)
		})
	}
}

func TestMatchValuesPartial(t *testing.T) {
	matches := MatchValues("anything about dakota sales", matcherSnapshot("northdakota region"))

	require.Contains(t, matches, "sales.region")
	m := matches["sales.region"].Matches[0]
	assert.Equal(t, models.ConfidenceMedium, m.Confidence)
	assert.Equal(t, models.MatchPartial, m.MatchType)
}

func TestMatchValuesContained(t *testing.T) {
	// "west" appears as a whole word inside the single-word... value list
	// entry "far west" only via the contained rule when the partial rule
	// does not fire first; use a question word that is not a substring
	// match candidate.
	matches := MatchValues("numbers for ops team", matcherSnapshot("global ops"))

	require.Contains(t, matches, "sales.region")
	m := matches["sales.region"].Matches[0]
	assert.Equal(t, "global ops", m.Value)
}

func TestMatchPriorityExactBeatsContained(t *testing.T) {
	// "west" is both an exact question token and a contained substring
	// candidate; the exact rule must win and report it once.
	matches := MatchValues("sales in west region", matcherSnapshot("west"))

	require.Contains(t, matches, "sales.region")
	cm := matches["sales.region"]
	require.Len(t, cm.Matches, 1)
	assert.Equal(t, models.MatchExact, cm.Matches[0].MatchType)
	assert.Equal(t, models.ConfidenceHigh, cm.Matches[0].Confidence)
}

func TestMatchValuesNoMatchOmitsColumn(t *testing.T) {
	matches := MatchValues("completely unrelated question", matcherSnapshot("alpha", "beta"))

	assert.Empty(t, matches)
}

func TestMatchValuesExampleCap(t *testing.T) {
	matches := MatchValues("show alpha", matcherSnapshot("alpha", "b", "c", "d", "e", "f", "g"))

	require.Contains(t, matches, "sales.region")
	assert.Len(t, matches["sales.region"].ExampleValues, 5)
}

func TestContainsWholeWord(t *testing.T) {
	tests := []struct {
		s        string
		w        string
		expected bool
	}{
		{"global ops", "ops", true},
		{"global ops", "glo", false},
		{"ops", "ops", true},
		{"global operations", "ops", false},
		{"a ops b", "ops", true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, containsWholeWord(tt.s, tt.w), "%q in %q", tt.w, tt.s)
	}
}
