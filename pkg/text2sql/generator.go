package text2sql

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/datachat-io/datachat-engine/pkg/apperrors"
	"github.com/datachat-io/datachat-engine/pkg/llm"
)

var fenceBlock = regexp.MustCompile("(?s)```(?:sql)?\\s*(.*?)\\s*```")

// SQLGenerator produces candidate SQL from a composed prompt.
type SQLGenerator struct {
	generator llm.Generator
	logger    *zap.Logger
}

// NewSQLGenerator creates a generator. If logger is nil, a no-op logger is
// used.
func NewSQLGenerator(generator llm.Generator, logger *zap.Logger) *SQLGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SQLGenerator{generator: generator, logger: logger.Named("sql_generator")}
}

// GenerateSQL sends the composed prompt and strips fencing artifacts from
// the response. It does not validate semantics; an empty or failed response
// is a generation error.
func (g *SQLGenerator) GenerateSQL(ctx context.Context, prompt string) (string, error) {
	response, err := g.generator.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrGeneration, err)
	}

	query := stripFencing(response)
	if query == "" {
		return "", fmt.Errorf("%w: model returned no SQL", apperrors.ErrGeneration)
	}

	g.logger.Debug("SQL generated", zap.Int("length", len(query)))
	return query, nil
}

// stripFencing removes markdown code fences and a leading "sql" language
// tag from a model response.
func stripFencing(response string) string {
	s := strings.TrimSpace(response)
	if m := fenceBlock.FindStringSubmatch(s); m != nil {
		s = m[1]
	}
	s = strings.TrimPrefix(s, "```sql")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "sql\n")
	return strings.TrimSpace(s)
}
