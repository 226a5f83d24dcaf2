package text2sql

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/datachat-io/datachat-engine/pkg/apperrors"
	"github.com/datachat-io/datachat-engine/pkg/llm"
	sqlclean "github.com/datachat-io/datachat-engine/pkg/sql"
)

// Refiner asks the model to correct a failed query exactly once per
// question.
type Refiner struct {
	generator llm.Generator
	logger    *zap.Logger
}

// NewRefiner creates a refiner. If logger is nil, a no-op logger is used.
func NewRefiner(generator llm.Generator, logger *zap.Logger) *Refiner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Refiner{generator: generator, logger: logger.Named("refiner")}
}

// ShouldRefine reports whether a failed execution warrants the single
// refinement attempt: the error must look like a genuine engine error, not
// an empty-but-valid result. Empty result sets are successes and never
// reach this check; the text guard protects against upstream layers that
// report them as errors.
func ShouldRefine(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "error") || strings.Contains(msg, "exception")
}

// Refine sends the failed query, its error, and the schema description to
// the model and returns a cleaned corrected query. An identical result is
// not short-circuited; the caller retries it regardless, since the original
// failure may have been transient.
func (r *Refiner) Refine(ctx context.Context, question, failedSQL, errText, schemaText string) (string, error) {
	prompt := buildRefinePrompt(question, failedSQL, errText, schemaText)

	response, err := r.generator.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("%w: refinement request: %v", apperrors.ErrGeneration, err)
	}

	refined := sqlclean.Clean(stripFencing(response))
	if refined == "" {
		return "", fmt.Errorf("%w: refinement returned no SQL", apperrors.ErrGeneration)
	}

	r.logger.Info("Query refined",
		zap.Bool("changed", refined != failedSQL))
	return refined, nil
}

func buildRefinePrompt(question, failedSQL, errText, schemaText string) string {
	var b strings.Builder
	b.WriteString("The following PostgreSQL query failed. Correct it.\n\n")
	fmt.Fprintf(&b, "Question: %s\n\n", question)
	fmt.Fprintf(&b, "Failed query:\n%s\n\n", failedSQL)
	fmt.Fprintf(&b, "Database error:\n%s\n\n", errText)
	b.WriteString("Database schema:\n")
	b.WriteString(schemaText)
	b.WriteString("\nRespond with the corrected SELECT statement only, no explanation.")
	return b.String()
}
