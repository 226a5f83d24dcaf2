package text2sql

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/datachat-io/datachat-engine/pkg/jsonutil"
	"github.com/datachat-io/datachat-engine/pkg/llm"
	"github.com/datachat-io/datachat-engine/pkg/models"
)

var (
	capitalizedRunPattern = regexp.MustCompile(`\b[A-Z][a-z]+(?:\s+[A-Z][a-z]+)+\b`)
	capitalizedPattern    = regexp.MustCompile(`\b[A-Z][a-z]{2,}\b`)
	acronymPattern        = regexp.MustCompile(`\b[A-Z]{2,}\b`)
)

// Preprocessor extracts structured intent from a free-text question with one
// LLM call, grounded on the value matcher's findings.
type Preprocessor struct {
	generator llm.Generator
	logger    *zap.Logger
}

// NewPreprocessor creates a preprocessor. If logger is nil, a no-op logger
// is used.
func NewPreprocessor(generator llm.Generator, logger *zap.Logger) *Preprocessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Preprocessor{generator: generator, logger: logger.Named("preprocessor")}
}

// preprocessResponse mirrors the JSON the model is asked for. Fields the
// model frequently mistypes (numbers for limits, bare strings for arrays)
// are kept raw and coerced leniently.
type preprocessResponse struct {
	RewrittenQuestion string                `json:"rewritten_question"`
	Intent            string                `json:"intent"`
	Metrics           json.RawMessage       `json:"metrics"`
	Filters           json.RawMessage       `json:"filters"`
	TimeContext       json.RawMessage       `json:"time_context"`
	Grouping          json.RawMessage       `json:"grouping"`
	Sorting           json.RawMessage       `json:"sorting"`
	Limit             json.RawMessage       `json:"limit"`
	ColumnFilters     []models.ColumnFilter `json:"column_filters"`
}

// Preprocess asks the model for structured intent and returns the possibly
// rewritten question plus metadata. It never fails: on any request or parse
// error it returns the original question and metadata carrying only the raw
// value matches, and the pipeline proceeds with that degraded context.
func (p *Preprocessor) Preprocess(ctx context.Context, question string, matches models.ValueMatchMap) (string, models.QuestionMetadata) {
	fallback := models.QuestionMetadata{RawMatches: matches}

	prompt := p.buildPrompt(question, matches)
	response, err := p.generator.Generate(ctx, prompt)
	if err != nil {
		p.logger.Warn("Preprocessing request failed, continuing with raw question", zap.Error(err))
		return question, fallback
	}

	parsed, err := llm.ParseJSONResponse[preprocessResponse](response)
	if err != nil {
		p.logger.Warn("Preprocessing response unparseable, continuing with raw question", zap.Error(err))
		return question, fallback
	}

	metadata := models.QuestionMetadata{
		Intent:        parsed.Intent,
		Metrics:       jsonutil.FlexibleStringSlice(parsed.Metrics),
		Filters:       jsonutil.FlexibleStringSlice(parsed.Filters),
		TimeContext:   jsonutil.FlexibleStringValue(parsed.TimeContext),
		Grouping:      jsonutil.FlexibleStringSlice(parsed.Grouping),
		Sorting:       parseSorting(parsed.Sorting),
		Limit:         jsonutil.FlexibleStringValue(parsed.Limit),
		ColumnFilters: parsed.ColumnFilters,
		RawMatches:    matches,
	}

	rewritten := strings.TrimSpace(parsed.RewrittenQuestion)
	if rewritten == "" {
		rewritten = question
	}

	p.logger.Debug("Question preprocessed",
		zap.String("intent", metadata.Intent),
		zap.Int("column_filters", len(metadata.ColumnFilters)))
	return rewritten, metadata
}

// parseSorting accepts either a {column, order} object or a bare column
// string.
func parseSorting(raw json.RawMessage) models.SortSpec {
	if len(raw) == 0 || string(raw) == "null" {
		return models.SortSpec{}
	}
	var spec models.SortSpec
	if err := json.Unmarshal(raw, &spec); err == nil {
		return spec
	}
	return models.SortSpec{Column: jsonutil.FlexibleStringValue(raw)}
}

func (p *Preprocessor) buildPrompt(question string, matches models.ValueMatchMap) string {
	var b strings.Builder
	b.WriteString("Analyze this data question and extract its structured intent.\n\n")
	fmt.Fprintf(&b, "Question: %s\n", question)

	if terms := keyTerms(question); len(terms) > 0 {
		fmt.Fprintf(&b, "Key terms detected: %s\n", strings.Join(terms, ", "))
	}

	if summary := renderMatchSummary(matches); summary != "" {
		b.WriteString("\nValues from the data that appear in the question:\n")
		b.WriteString(summary)
	}

	b.WriteString(`
Respond with a single JSON object, no prose:
{
  "rewritten_question": "the question restated unambiguously, or the original",
  "intent": "aggregation|lookup|comparison|trend|other",
  "metrics": ["quantities to compute"],
  "filters": ["plain-language filter conditions"],
  "time_context": "time range or period mentioned, or empty",
  "grouping": ["columns or concepts to group by"],
  "sorting": {"column": "", "order": "asc|desc"},
  "limit": "row count requested, or empty",
  "column_filters": [{"column": "table.column", "values": ["v"], "match_type": "exact", "confidence": "high"}]
}`)
	return b.String()
}

// keyTerms finds the question's salient literals: quoted phrases, multi-word
// capitalized runs, standalone capitalized words, and acronyms.
func keyTerms(question string) []string {
	seen := make(map[string]bool)
	var terms []string
	add := func(term string) {
		term = strings.TrimSpace(term)
		if term != "" && !seen[term] {
			seen[term] = true
			terms = append(terms, term)
		}
	}

	for _, m := range quotedPhrasePattern.FindAllStringSubmatch(question, -1) {
		for _, group := range m[1:] {
			add(group)
		}
	}
	for _, m := range capitalizedRunPattern.FindAllString(question, -1) {
		add(m)
	}
	for _, m := range capitalizedPattern.FindAllString(question, -1) {
		add(m)
	}
	for _, m := range acronymPattern.FindAllString(question, -1) {
		add(m)
	}
	return terms
}

// renderMatchSummary formats the value matches for the preprocessing prompt.
func renderMatchSummary(matches models.ValueMatchMap) string {
	if len(matches) == 0 {
		return ""
	}
	keys := make([]string, 0, len(matches))
	for k := range matches {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, key := range keys {
		cm := matches[key]
		for _, m := range cm.Matches {
			fmt.Fprintf(&b, "- %q is a known value of %s (%s match, %s confidence)\n",
				m.Value, key, m.MatchType, m.Confidence)
		}
	}
	return b.String()
}
