package sql

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/datachat-io/datachat-engine/pkg/models"
)

// ValidationResult is the outcome of static validation. Rejection is a
// normal negative result, not an error.
type ValidationResult struct {
	Valid  bool
	Reason string
}

var (
	// Mutation statements chained after a semicolon, and UNION-based
	// exfiltration. Matched lexically; this is a safety net, not a parser.
	dangerousPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i);\s*DROP\b`),
		regexp.MustCompile(`(?i);\s*DELETE\b`),
		regexp.MustCompile(`(?i);\s*UPDATE\b`),
		regexp.MustCompile(`(?i);\s*INSERT\b`),
		regexp.MustCompile(`(?i);\s*ALTER\b`),
		regexp.MustCompile(`(?i);\s*CREATE\b`),
		regexp.MustCompile(`(?i);\s*TRUNCATE\b`),
		regexp.MustCompile(`(?is)\bUNION\b.*\bSELECT\b`),
	}

	tableRefPattern = regexp.MustCompile(`(?i)\b(?:FROM|JOIN)\s+("?[A-Za-z_]\w*"?)`)
	joinPattern     = regexp.MustCompile(`(?i)\bJOIN\b`)
	onPattern       = regexp.MustCompile(`(?i)\bON\b`)
	selectPattern   = regexp.MustCompile(`(?is)\bSELECT\b\s*(?:DISTINCT\b\s*)?(.*?)\bFROM\b`)
	bareColumn      = regexp.MustCompile(`^[A-Za-z_]\w*$`)
)

// Validate runs static, non-executing checks on a cleaned query against the
// schema snapshot. It rejects dangerous statement patterns, references to
// tables absent from the schema, JOINs without an ON condition, and
// unqualified columns when more than one table is in scope.
func Validate(query string, snapshot models.SchemaSnapshot) ValidationResult {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return ValidationResult{Valid: false, Reason: "empty query"}
	}

	for _, p := range dangerousPatterns {
		if p.MatchString(trimmed) {
			return ValidationResult{Valid: false, Reason: "query contains a potentially dangerous statement pattern"}
		}
	}

	tables := referencedTables(trimmed)
	for _, table := range tables {
		if _, ok := snapshot[table]; !ok {
			return ValidationResult{Valid: false, Reason: fmt.Sprintf("query references unknown table %q", table)}
		}
	}

	if len(joinPattern.FindAllString(trimmed, -1)) > len(onPattern.FindAllString(trimmed, -1)) {
		return ValidationResult{Valid: false, Reason: "JOIN without a matching ON condition"}
	}

	if len(tables) > 1 {
		if col := ambiguousColumn(trimmed); col != "" {
			return ValidationResult{Valid: false, Reason: fmt.Sprintf("column %q is unqualified but multiple tables are in scope", col)}
		}
	}

	return ValidationResult{Valid: true}
}

// referencedTables extracts the table names following FROM and JOIN keywords,
// stripping identifier quoting. Subqueries contribute their inner references
// through the same scan. Duplicates are collapsed, first-seen order kept.
func referencedTables(query string) []string {
	var tables []string
	seen := make(map[string]bool)
	for _, m := range tableRefPattern.FindAllStringSubmatch(query, -1) {
		name := strings.Trim(m[1], `"`)
		lower := strings.ToLower(name)
		// FROM (SELECT ...) subqueries leave the keyword as the captured
		// token; skip SQL keywords that are not table names.
		switch lower {
		case "select", "lateral", "unnest":
			continue
		}
		if !seen[name] {
			seen[name] = true
			tables = append(tables, name)
		}
	}
	return tables
}

// ambiguousColumn returns the first unqualified bare column in the SELECT
// list, or "" when every item is qualified, a function call, an alias
// expression, an operator expression, or a star.
func ambiguousColumn(query string) string {
	m := selectPattern.FindStringSubmatch(query)
	if m == nil {
		return ""
	}
	for _, item := range splitTopLevel(m[1]) {
		item = strings.TrimSpace(item)
		if item == "" || item == "*" {
			continue
		}
		if strings.ContainsAny(item, ".(+-/*%|<>=") {
			continue
		}
		if strings.Contains(item, " ") {
			// Alias expressions ("amount total", "x AS y") resolve their own names.
			continue
		}
		if bareColumn.MatchString(item) {
			return item
		}
	}
	return ""
}

// splitTopLevel splits a SELECT list on commas outside parentheses.
func splitTopLevel(list string) []string {
	var parts []string
	depth := 0
	start := 0
	for i, r := range list {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, list[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, list[start:])
	return parts
}
