// Package ingest loads uploaded tabular files into PostgreSQL tables.
package ingest

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Column types assigned by inference. Everything unparseable stays TEXT.
const (
	TypeBigint    = "BIGINT"
	TypeDouble    = "DOUBLE PRECISION"
	TypeBoolean   = "BOOLEAN"
	TypeTimestamp = "TIMESTAMPTZ"
	TypeText      = "TEXT"
)

var (
	invalidIdentChars = regexp.MustCompile(`[^a-z0-9_]+`)
	underscoreRuns    = regexp.MustCompile(`_+`)
)

// timeLayouts tried in order during type inference.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
	"02.01.2006",
}

// CleanColumnNames normalizes a header row into valid, unique, lowercase
// identifiers. Empty headers become unnamed_column; duplicates get a numeric
// suffix, incremented until the name is free; names starting with a digit get
// a prefix.
func CleanColumnNames(header []string) []string {
	seen := make(map[string]int, len(header))
	cleaned := make([]string, len(header))

	for i, raw := range header {
		name := strings.ToLower(strings.TrimSpace(raw))
		name = invalidIdentChars.ReplaceAllString(name, "_")
		name = underscoreRuns.ReplaceAllString(name, "_")
		name = strings.Trim(name, "_")
		if name == "" {
			name = "unnamed_column"
		}
		if name[0] >= '0' && name[0] <= '9' {
			name = "col_" + name
		}

		base := name
		if n, dup := seen[base]; dup {
			// Keep incrementing past names the header already used, so a
			// header like [a, a_2, a] never assigns a_2 twice.
			for {
				n++
				name = fmt.Sprintf("%s_%d", base, n)
				if _, taken := seen[name]; !taken {
					break
				}
			}
			seen[base] = n
		}
		seen[name] = 1
		cleaned[i] = name
	}

	return cleaned
}

// InferColumnTypes inspects every value of each column and returns a SQL
// type per column. A column gets a non-text type only when every non-empty
// value parses as that type; mixed columns fall back to TEXT.
func InferColumnTypes(rows [][]string, columnCount int) []string {
	types := make([]string, columnCount)
	for col := 0; col < columnCount; col++ {
		types[col] = inferColumn(rows, col)
	}
	return types
}

func inferColumn(rows [][]string, col int) string {
	isInt, isFloat, isBool, isTime := true, true, true, true
	sawValue := false

	for _, row := range rows {
		if col >= len(row) {
			continue
		}
		v := strings.TrimSpace(row[col])
		if v == "" {
			continue
		}
		sawValue = true

		if isInt {
			if _, err := strconv.ParseInt(v, 10, 64); err != nil {
				isInt = false
			}
		}
		if isFloat {
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				isFloat = false
			}
		}
		if isBool && !isBoolLiteral(v) {
			isBool = false
		}
		if isTime && !parsesAsTime(v) {
			isTime = false
		}

		if !isInt && !isFloat && !isBool && !isTime {
			return TypeText
		}
	}

	if !sawValue {
		return TypeText
	}
	switch {
	case isBool:
		return TypeBoolean
	case isInt:
		return TypeBigint
	case isFloat:
		return TypeDouble
	case isTime:
		return TypeTimestamp
	default:
		return TypeText
	}
}

func isBoolLiteral(v string) bool {
	switch strings.ToLower(v) {
	case "true", "false", "yes", "no":
		return true
	}
	return false
}

func parsesAsTime(v string) bool {
	for _, layout := range timeLayouts {
		if _, err := time.Parse(layout, v); err == nil {
			return true
		}
	}
	return false
}
