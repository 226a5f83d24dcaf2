package text2sql

import (
	"fmt"
	"sort"
	"strings"

	"github.com/datachat-io/datachat-engine/pkg/models"
)

// generationRules is the fixed instruction template appended to every
// generation prompt.
const generationRules = `Rules:
- Produce exactly one PostgreSQL SELECT statement and nothing else.
- Use only the tables and columns listed in the schema.
- Qualify every column with its table name when more than one table is used.
- Every JOIN must have an ON condition using the listed relationships.
- Use SUM/COUNT/AVG/MIN/MAX with GROUP BY for aggregation questions.
- Filter on the exact stored values shown in the match hints, not the user's spelling.
- Handle NULLs explicitly: aggregates already skip NULLs, but comparisons need IS NULL / IS NOT NULL.
- Do not emit INSERT, UPDATE, DELETE, DDL, or multiple statements.`

// Compose assembles the full generation prompt from the schema, the
// relevance shortlist, the value matches, the extracted metadata, and the
// (possibly rewritten) question. Pure formatting, deterministic.
func Compose(question string, snapshot models.SchemaSnapshot, ranking Ranking, matches models.ValueMatchMap, metadata models.QuestionMetadata) string {
	var b strings.Builder

	b.WriteString("You translate questions about a PostgreSQL database into SQL.\n\n")
	b.WriteString("Database schema:\n")
	b.WriteString(RenderSchema(snapshot))

	b.WriteString("\n")
	b.WriteString(renderRanking(ranking))

	if section := RenderMatches(matches); section != "" {
		b.WriteString("\n")
		b.WriteString(section)
	}

	if section := RenderMetadata(metadata); section != "" {
		b.WriteString("\n")
		b.WriteString(section)
	}

	b.WriteString("\n")
	b.WriteString(generationRules)
	fmt.Fprintf(&b, "\n\nQuestion: %s\nSQL:", question)

	return b.String()
}

// RenderSchema formats the snapshot as a textual schema description: per
// table its columns with types, relationships, and sample rows. Tables that
// failed introspection are listed with their error so the model does not
// invent columns for them.
func RenderSchema(snapshot models.SchemaSnapshot) string {
	names := make([]string, 0, len(snapshot))
	for name := range snapshot {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		info := snapshot[name]
		fmt.Fprintf(&b, "Table %s:\n", name)
		if info.Error != "" {
			fmt.Fprintf(&b, "  (schema unavailable: %s)\n", info.Error)
			continue
		}
		for _, col := range info.Columns {
			fmt.Fprintf(&b, "  - %s (%s)\n", col.Name, col.DataType)
		}
		for _, fk := range info.ForeignKeys {
			fmt.Fprintf(&b, "  relationship: %s(%s) references %s(%s)\n",
				name, strings.Join(fk.ConstrainedColumns, ", "),
				fk.ReferredTable, strings.Join(fk.ReferredColumns, ", "))
		}
		for i, row := range info.Sample {
			fmt.Fprintf(&b, "  sample row %d: %s\n", i+1, renderRow(info.Columns, row))
		}
	}
	return b.String()
}

// renderRow formats one sample row in column order.
func renderRow(columns []models.Column, row map[string]any) string {
	parts := make([]string, 0, len(columns))
	for _, col := range columns {
		parts = append(parts, fmt.Sprintf("%s=%v", col.Name, row[col.Name]))
	}
	return strings.Join(parts, ", ")
}

// renderRanking formats the relevance shortlist. The no-match case is
// rendered explicitly so the model knows ranking ran and found nothing.
func renderRanking(ranking Ranking) string {
	if ranking.None {
		return "Relevance hints: no relevant table identified from the question keywords.\n"
	}
	var b strings.Builder
	b.WriteString("Likely relevant tables:\n")
	for _, t := range ranking.Tables {
		fmt.Fprintf(&b, "  - %s (columns include: %s)\n", t.Name, strings.Join(t.ExampleColumns, ", "))
	}
	return b.String()
}

// RenderMatches formats the value matches as strong and possible sections.
// High-confidence matches are instructions; the rest are hints.
func RenderMatches(matches models.ValueMatchMap) string {
	if len(matches) == 0 {
		return ""
	}
	keys := make([]string, 0, len(matches))
	for k := range matches {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var strong, possible []string
	for _, key := range keys {
		cm := matches[key]
		for _, m := range cm.Matches {
			line := fmt.Sprintf("  - %s = %q (%s)", key, m.Value, m.MatchType)
			if m.Confidence == models.ConfidenceHigh {
				strong = append(strong, line)
			} else {
				possible = append(possible, line)
			}
		}
	}

	var b strings.Builder
	if len(strong) > 0 {
		b.WriteString("Strong value matches (filter on these exact stored values):\n")
		b.WriteString(strings.Join(strong, "\n"))
		b.WriteString("\n")
	}
	if len(possible) > 0 {
		b.WriteString("Possible value matches (use if relevant):\n")
		b.WriteString(strings.Join(possible, "\n"))
		b.WriteString("\n")
	}
	return b.String()
}

// RenderMetadata formats the extracted question intent. Empty fields are
// omitted; a fully empty metadata renders as nothing.
func RenderMetadata(md models.QuestionMetadata) string {
	var b strings.Builder
	if md.Intent != "" {
		fmt.Fprintf(&b, "Intent: %s\n", md.Intent)
	}
	if len(md.Metrics) > 0 {
		fmt.Fprintf(&b, "Metrics: %s\n", strings.Join(md.Metrics, ", "))
	}
	if len(md.Filters) > 0 {
		fmt.Fprintf(&b, "Filters: %s\n", strings.Join(md.Filters, "; "))
	}
	if md.TimeContext != "" {
		fmt.Fprintf(&b, "Time context: %s\n", md.TimeContext)
	}
	if len(md.Grouping) > 0 {
		fmt.Fprintf(&b, "Group by: %s\n", strings.Join(md.Grouping, ", "))
	}
	if md.Sorting.Column != "" {
		order := md.Sorting.Order
		if order == "" {
			order = "asc"
		}
		fmt.Fprintf(&b, "Sort: %s %s\n", md.Sorting.Column, order)
	}
	if md.Limit != "" {
		fmt.Fprintf(&b, "Limit: %s\n", md.Limit)
	}
	for _, cf := range md.ColumnFilters {
		fmt.Fprintf(&b, "Column filter: %s in [%s] (%s, %s)\n",
			cf.Column, strings.Join(cf.Values, ", "), cf.MatchType, cf.Confidence)
	}
	if b.Len() == 0 {
		return ""
	}
	return "Extracted question structure:\n" + b.String()
}
