package text2sql

import (
	"regexp"
	"sort"
	"strings"

	"github.com/datachat-io/datachat-engine/pkg/models"
)

const maxExampleValues = 5

var quotedPhrasePattern = regexp.MustCompile(`"([^"]+)"|'([^']+)'`)

// MatchValues finds matches between the question and the known values of
// every low-cardinality column in the snapshot. Keys of the result are
// "table.column"; columns with no matches are absent.
//
// Per candidate value the rules run in priority order and the first hit
// wins:
//  1. exact single-word token match        -> high / exact
//  2. quoted substring or 2-3 word window  -> high / phrase
//  3. question word inside multi-word value -> medium / partial
//  4. whole-word substring of the value     -> low / contained
func MatchValues(question string, snapshot models.SchemaSnapshot) models.ValueMatchMap {
	q := strings.ToLower(question)
	words := wordPattern.FindAllString(q, -1)
	wordSet := make(map[string]bool, len(words))
	for _, w := range words {
		wordSet[w] = true
	}
	phrases := questionPhrases(question, words)

	result := make(models.ValueMatchMap)

	tables := make([]string, 0, len(snapshot))
	for name := range snapshot {
		tables = append(tables, name)
	}
	sort.Strings(tables)

	for _, table := range tables {
		info := snapshot[table]
		for _, col := range info.Columns {
			inventory, ok := info.UniqueValues[col.Name]
			if !ok {
				continue
			}

			var matches []models.ValueMatch
			seen := make(map[string]bool)
			for _, value := range inventory.Values {
				lower := strings.ToLower(strings.TrimSpace(value))
				if lower == "" || seen[lower] {
					continue
				}
				if m := matchValue(lower, value, wordSet, phrases, words); m != nil {
					seen[lower] = true
					matches = append(matches, *m)
				}
			}
			if len(matches) == 0 {
				continue
			}

			examples := inventory.Values
			if len(examples) > maxExampleValues {
				examples = examples[:maxExampleValues]
			}
			result[table+"."+col.Name] = models.ColumnMatches{
				Matches:       matches,
				ExampleValues: examples,
				LikelyType:    inventory.Type,
			}
		}
	}

	return result
}

// matchValue applies the four rules in order and returns the first match,
// or nil when none applies.
func matchValue(lower, original string, wordSet map[string]bool, phrases map[string]bool, words []string) *models.ValueMatch {
	if wordSet[lower] {
		return &models.ValueMatch{Value: original, Confidence: models.ConfidenceHigh, MatchType: models.MatchExact}
	}

	if phrases[lower] {
		return &models.ValueMatch{Value: original, Confidence: models.ConfidenceHigh, MatchType: models.MatchPhrase}
	}

	if strings.Contains(lower, " ") {
		for _, w := range words {
			if strings.Contains(lower, w) {
				return &models.ValueMatch{Value: original, Confidence: models.ConfidenceMedium, MatchType: models.MatchPartial}
			}
		}
	}

	for _, w := range words {
		if len(w) >= 3 && containsWholeWord(lower, w) {
			return &models.ValueMatch{Value: original, Confidence: models.ConfidenceLow, MatchType: models.MatchContained}
		}
	}

	return nil
}

// questionPhrases collects the lowercase phrase candidates: quoted substrings
// plus every contiguous 2- and 3-word window of the question.
func questionPhrases(question string, words []string) map[string]bool {
	phrases := make(map[string]bool)
	for _, m := range quotedPhrasePattern.FindAllStringSubmatch(question, -1) {
		for _, group := range m[1:] {
			if group != "" {
				phrases[strings.ToLower(group)] = true
			}
		}
	}
	for size := 2; size <= 3; size++ {
		for i := 0; i+size <= len(words); i++ {
			phrases[strings.Join(words[i:i+size], " ")] = true
		}
	}
	return phrases
}

// containsWholeWord reports whether w occurs in s bounded by spaces or the
// string edges.
func containsWholeWord(s, w string) bool {
	idx := 0
	for {
		i := strings.Index(s[idx:], w)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(w)
		leftOK := start == 0 || s[start-1] == ' '
		rightOK := end == len(s) || s[end] == ' '
		if leftOK && rightOK {
			return true
		}
		idx = start + 1
		if idx >= len(s) {
			return false
		}
	}
}
