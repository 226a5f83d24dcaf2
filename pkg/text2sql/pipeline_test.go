package text2sql

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datachat-io/datachat-engine/pkg/llm"
	"github.com/datachat-io/datachat-engine/pkg/models"
)

// newScriptedGenerator returns each response in order, repeating the last.
func newScriptedGenerator(responses ...string) *llm.MockGenerator {
	mock := llm.NewMockGenerator()
	i := 0
	mock.GenerateFunc = func(ctx context.Context, prompt string) (string, error) {
		resp := responses[i]
		if i < len(responses)-1 {
			i++
		}
		return resp, nil
	}
	return mock
}

func newFailingGenerator(err error) *llm.MockGenerator {
	mock := llm.NewMockGenerator()
	mock.GenerateFunc = func(ctx context.Context, prompt string) (string, error) {
		return "", err
	}
	return mock
}

// stubRunner scripts execution outcomes and records the queries it was given.
type stubRunner struct {
	results []*models.QueryResult
	errs    []error
	calls   int
	queries []string
}

func (s *stubRunner) Execute(ctx context.Context, query string) (*models.QueryResult, error) {
	idx := s.calls
	if idx >= len(s.errs) {
		idx = len(s.errs) - 1
	}
	s.calls++
	s.queries = append(s.queries, query)
	return s.results[idx], s.errs[idx]
}

func pipelineSnapshot() models.SchemaSnapshot {
	return models.SchemaSnapshot{
		"sales": {
			Columns: []models.Column{
				{Name: "region", DataType: "text"},
				{Name: "amount", DataType: "numeric"},
			},
		},
	}
}

// Responses: first call preprocesses, second generates SQL.
const preprocessJSON = `{"intent": "aggregation", "grouping": ["region"]}`

func TestPipelineSuccessfulPath(t *testing.T) {
	gen := newScriptedGenerator(
		preprocessJSON,
		"SELECT region, SUM(amount) FROM sales GROUP BY region;",
	)
	runner := &stubRunner{
		results: []*models.QueryResult{{
			Columns:         []string{"region", "sum"},
			Rows:            []map[string]any{{"region": "west", "sum": 42}},
			ExecutionTimeMs: 7,
		}},
		errs: []error{nil},
	}
	p := NewPipeline(gen, runner, nil)

	outcome := p.Answer(context.Background(), "total sales by region", pipelineSnapshot())

	assert.True(t, outcome.Success)
	assert.Equal(t, "SELECT region, SUM(amount) FROM sales GROUP BY region;", outcome.SQLQuery)
	assert.Equal(t, []string{"region", "sum"}, outcome.Columns)
	require.Len(t, outcome.Rows, 1)
	assert.Equal(t, models.StageExecuted, outcome.Stage)
	assert.False(t, outcome.Refined)
	assert.Equal(t, 1, runner.calls)
	assert.Equal(t, 2, gen.GenerateCalls, "preprocess + generate, no refinement")
}

func TestPipelineGenerationFailure(t *testing.T) {
	gen := newFailingGenerator(errors.New("service down"))
	runner := &stubRunner{results: []*models.QueryResult{nil}, errs: []error{nil}}
	p := NewPipeline(gen, runner, nil)

	outcome := p.Answer(context.Background(), "anything", pipelineSnapshot())

	assert.False(t, outcome.Success)
	assert.Equal(t, models.StageGenerated, outcome.Stage)
	assert.NotEmpty(t, outcome.Error)
	assert.Zero(t, runner.calls, "executor never invoked")
}

func TestPipelineValidationRejection(t *testing.T) {
	gen := newScriptedGenerator(
		preprocessJSON,
		"SELECT * FROM orders;", // table not in schema
	)
	runner := &stubRunner{results: []*models.QueryResult{nil}, errs: []error{nil}}
	p := NewPipeline(gen, runner, nil)

	outcome := p.Answer(context.Background(), "list orders", pipelineSnapshot())

	assert.False(t, outcome.Success)
	assert.Equal(t, models.StageValidated, outcome.Stage)
	assert.Contains(t, outcome.Error, "orders")
	assert.Equal(t, "SELECT * FROM orders;", outcome.SQLQuery)
	assert.Zero(t, runner.calls, "rejected queries never reach the store")
}

func TestPipelineAmbiguousColumnRejected(t *testing.T) {
	snapshot := models.SchemaSnapshot{
		"a": {Columns: []models.Column{{Name: "id", DataType: "bigint"}}},
		"b": {Columns: []models.Column{{Name: "id", DataType: "bigint"}, {Name: "a_id", DataType: "bigint"}}},
	}
	gen := newScriptedGenerator(
		preprocessJSON,
		"SELECT id FROM a JOIN b ON a.id = b.a_id;",
	)
	runner := &stubRunner{results: []*models.QueryResult{nil}, errs: []error{nil}}
	p := NewPipeline(gen, runner, nil)

	outcome := p.Answer(context.Background(), "join question", snapshot)

	assert.False(t, outcome.Success)
	assert.Equal(t, models.StageValidated, outcome.Stage)
	assert.Zero(t, runner.calls)
}

func TestPipelineRefinementRecovers(t *testing.T) {
	gen := newScriptedGenerator(
		preprocessJSON,
		"SELECT regin FROM sales;",
		"SELECT region FROM sales;",
	)
	runner := &stubRunner{
		results: []*models.QueryResult{
			nil,
			{Columns: []string{"region"}, Rows: []map[string]any{{"region": "west"}}},
		},
		errs: []error{
			errors.New(`ERROR: column "regin" does not exist`),
			nil,
		},
	}
	p := NewPipeline(gen, runner, nil)

	outcome := p.Answer(context.Background(), "sales regions", pipelineSnapshot())

	assert.True(t, outcome.Success)
	assert.True(t, outcome.Refined)
	assert.Equal(t, models.StageRefined, outcome.Stage)
	assert.Equal(t, "SELECT region FROM sales;", outcome.SQLQuery)
	assert.Equal(t, 2, runner.calls)
	assert.Equal(t, 3, gen.GenerateCalls, "preprocess + generate + refine")
}

func TestPipelineRefinementSingleShot(t *testing.T) {
	gen := newScriptedGenerator(
		preprocessJSON,
		"SELECT regin FROM sales;",
		"SELECT stil_wrong FROM sales;",
	)
	runner := &stubRunner{
		results: []*models.QueryResult{nil, nil},
		errs: []error{
			errors.New("ERROR: first failure"),
			errors.New("ERROR: second failure"),
		},
	}
	p := NewPipeline(gen, runner, nil)

	outcome := p.Answer(context.Background(), "sales regions", pipelineSnapshot())

	assert.False(t, outcome.Success)
	assert.True(t, outcome.Refined)
	assert.Equal(t, models.StageRefined, outcome.Stage)
	assert.Contains(t, outcome.Error, "second failure", "refined attempt's error is final")
	assert.Equal(t, "SELECT stil_wrong FROM sales;", outcome.SQLQuery)
	assert.Equal(t, 2, runner.calls, "exactly one retry, no loop")
	assert.Equal(t, 3, gen.GenerateCalls, "exactly one refinement call")
}

func TestPipelineIdenticalRefinementStillRetried(t *testing.T) {
	gen := newScriptedGenerator(
		preprocessJSON,
		"SELECT region FROM sales;",
		"SELECT region FROM sales;", // refinement returns the same query
	)
	runner := &stubRunner{
		results: []*models.QueryResult{
			nil,
			{Columns: []string{"region"}, Rows: []map[string]any{}},
		},
		errs: []error{
			errors.New("ERROR: transient failure"),
			nil,
		},
	}
	p := NewPipeline(gen, runner, nil)

	outcome := p.Answer(context.Background(), "sales regions", pipelineSnapshot())

	assert.True(t, outcome.Success)
	assert.True(t, outcome.Refined)
	assert.Equal(t, 2, runner.calls, "identical refined query is still retried")
}

func TestPipelineNonErrorLikeFailureSkipsRefinement(t *testing.T) {
	gen := newScriptedGenerator(
		preprocessJSON,
		"SELECT region FROM sales;",
	)
	runner := &stubRunner{
		results: []*models.QueryResult{nil},
		errs:    []error{errors.New("no rows matched the filter")},
	}
	p := NewPipeline(gen, runner, nil)

	outcome := p.Answer(context.Background(), "sales regions", pipelineSnapshot())

	assert.False(t, outcome.Success)
	assert.False(t, outcome.Refined)
	assert.Equal(t, models.StageExecuted, outcome.Stage)
	assert.Equal(t, 1, runner.calls)
	assert.Equal(t, 2, gen.GenerateCalls, "no refinement call")
}

func TestPipelineInjectionScreen(t *testing.T) {
	gen := llm.NewMockGenerator()
	runner := &stubRunner{results: []*models.QueryResult{nil}, errs: []error{nil}}
	p := NewPipeline(gen, runner, nil)

	outcome := p.Answer(context.Background(), "x'; DROP TABLE sales--", pipelineSnapshot())

	assert.False(t, outcome.Success)
	assert.Equal(t, models.StageScreened, outcome.Stage)
	assert.Zero(t, gen.GenerateCalls, "no model call for rejected questions")
	assert.Zero(t, runner.calls)
}

func TestPipelinePreprocessorFailureStillGenerates(t *testing.T) {
	// First call (preprocess) returns prose, second returns SQL; the
	// pipeline must reach generation with degraded context.
	gen := newScriptedGenerator(
		"I don't understand.",
		"SELECT region FROM sales;",
	)
	runner := &stubRunner{
		results: []*models.QueryResult{{Columns: []string{"region"}, Rows: []map[string]any{}}},
		errs:    []error{nil},
	}
	p := NewPipeline(gen, runner, nil)

	outcome := p.Answer(context.Background(), "sales regions", pipelineSnapshot())

	assert.True(t, outcome.Success)
	require.Len(t, runner.queries, 1)
	assert.True(t, strings.HasPrefix(runner.queries[0], "SELECT region"))
}
