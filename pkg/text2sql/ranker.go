// Package text2sql implements the question-to-SQL pipeline: relevance
// ranking, value matching, question preprocessing, prompt composition,
// generation, safe execution, and single-shot refinement.
package text2sql

import (
	"regexp"
	"sort"
	"strings"

	"github.com/jinzhu/inflection"

	"github.com/datachat-io/datachat-engine/pkg/models"
)

const (
	tableNameScore   = 3
	columnNameScore  = 1
	maxRankedTables  = 2
	maxExampleRanked = 3
)

var wordPattern = regexp.MustCompile(`\w+`)

// RankedTable is one shortlisted table with its score and a few example
// columns for the prompt.
type RankedTable struct {
	Name           string
	Score          int
	ExampleColumns []string
}

// Ranking is the ranker's output. None is set when no table scored above
// zero; the composer renders that case explicitly rather than omitting the
// section.
type Ranking struct {
	Tables []RankedTable
	None   bool
}

// stopwords excluded from question keywords. Deliberately short; the ranker
// only needs to avoid scoring glue words like "the" against column names.
var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "by": true, "for": true,
	"from": true, "how": true, "in": true, "is": true, "many": true, "me": true,
	"much": true, "of": true, "on": true, "show": true, "the": true, "to": true,
	"what": true, "where": true, "which": true, "who": true, "with": true,
}

// RankTables scores every table in the snapshot against the question's
// keywords: 3 points per keyword found in the table name's tokens, 1 point
// per keyword found in any column name's tokens. Tables with zero score are
// dropped and the top 2 survive, ties broken by table-name order.
func RankTables(question string, snapshot models.SchemaSnapshot) Ranking {
	keywords := questionKeywords(question)
	if len(keywords) == 0 {
		return Ranking{None: true}
	}

	// Sorted table names keep tie-breaking deterministic.
	names := make([]string, 0, len(snapshot))
	for name := range snapshot {
		names = append(names, name)
	}
	sort.Strings(names)

	var ranked []RankedTable
	for _, name := range names {
		info := snapshot[name]
		tableTokens := tokenSet(name)

		score := 0
		for _, kw := range keywords {
			if tableTokens[kw] {
				score += tableNameScore
			}
			for _, col := range info.Columns {
				if tokenSet(col.Name)[kw] {
					score += columnNameScore
				}
			}
		}
		if score == 0 {
			continue
		}

		examples := make([]string, 0, maxExampleRanked)
		for _, col := range info.Columns {
			if len(examples) == maxExampleRanked {
				break
			}
			examples = append(examples, col.Name)
		}
		ranked = append(ranked, RankedTable{Name: name, Score: score, ExampleColumns: examples})
	}

	if len(ranked) == 0 {
		return Ranking{None: true}
	}

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
	if len(ranked) > maxRankedTables {
		ranked = ranked[:maxRankedTables]
	}
	return Ranking{Tables: ranked}
}

// questionKeywords tokenizes the question, drops stopwords, and adds the
// singular form of each plural keyword so "orders" still hits a table named
// "order".
func questionKeywords(question string) []string {
	seen := make(map[string]bool)
	var keywords []string
	for _, word := range wordPattern.FindAllString(strings.ToLower(question), -1) {
		if stopwords[word] || len(word) < 2 {
			continue
		}
		for _, form := range []string{word, inflection.Singular(word)} {
			if !seen[form] {
				seen[form] = true
				keywords = append(keywords, form)
			}
		}
	}
	return keywords
}

// tokenSet lowercases and word-splits an identifier into a membership set.
// Underscores count as separators so snake_case identifiers match their parts.
func tokenSet(identifier string) map[string]bool {
	set := make(map[string]bool)
	lowered := strings.ReplaceAll(strings.ToLower(identifier), "_", " ")
	for _, tok := range wordPattern.FindAllString(lowered, -1) {
		set[tok] = true
	}
	return set
}
