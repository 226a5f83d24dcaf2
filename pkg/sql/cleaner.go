// Package sql provides lexical cleaning, static validation, and injection
// screening for generated SQL text.
package sql

import (
	"regexp"
	"strings"
)

var (
	fencePattern = regexp.MustCompile("(?s)```(?:sql)?\\s*(.*?)\\s*```")

	// Identifiers the generator wrapped in single quotes. Postgres treats
	// single quotes as string literals, so quoted identifiers that clearly
	// name a table or column are rewritten to double quotes.
	quotedTableRefPattern = regexp.MustCompile(`(?i)\b(FROM|JOIN)\s+'(\w+)'`)
	quotedDotRefPattern   = regexp.MustCompile(`'(\w+)'(\s*\.)`)
	quotedAliasPattern    = regexp.MustCompile(`(?i)\bAS\s+'(\w+)'`)

	// Multi-character operators come first so ">=" is never split into "> =".
	operatorPattern   = regexp.MustCompile(`\s*(<=|>=|<>|!=|=|<|>)\s*`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// Clean normalizes a candidate SQL string: strips code fencing, converts
// backtick and misplaced single-quote identifier quoting to double quotes,
// normalizes operator spacing and whitespace runs, and guarantees a single
// trailing semicolon. Clean is idempotent and never fails; if anything goes
// wrong internally the input is returned unchanged.
func Clean(query string) (cleaned string) {
	cleaned = query
	defer func() {
		if r := recover(); r != nil {
			cleaned = query
		}
	}()

	q := strings.TrimSpace(query)
	if q == "" {
		return q
	}

	if m := fencePattern.FindStringSubmatch(q); m != nil {
		q = m[1]
	}
	q = strings.TrimPrefix(q, "```sql")
	q = strings.TrimPrefix(q, "```")
	q = strings.TrimSuffix(q, "```")

	q = strings.ReplaceAll(q, "`", `"`)
	q = quotedTableRefPattern.ReplaceAllString(q, `$1 "$2"`)
	q = quotedDotRefPattern.ReplaceAllString(q, `"$1"$2`)
	q = quotedAliasPattern.ReplaceAllString(q, `AS "$1"`)

	q = operatorPattern.ReplaceAllString(q, " $1 ")
	q = whitespacePattern.ReplaceAllString(q, " ")
	q = strings.TrimSpace(q)

	q = strings.TrimRight(q, "; \t\n\r")
	if q == "" {
		return ""
	}
	return q + ";"
}
