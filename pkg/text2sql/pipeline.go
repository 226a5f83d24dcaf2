package text2sql

import (
	"context"

	"go.uber.org/zap"

	"github.com/datachat-io/datachat-engine/pkg/llm"
	"github.com/datachat-io/datachat-engine/pkg/models"
	sqlcheck "github.com/datachat-io/datachat-engine/pkg/sql"
)

// QueryRunner executes a query against the backing store. Satisfied by
// *Executor; tests substitute a stub.
type QueryRunner interface {
	Execute(ctx context.Context, query string) (*models.QueryResult, error)
}

// Pipeline answers one natural-language question end to end: value matching
// and ranking, preprocessing, generation, cleaning, validation, execution,
// and at most one refinement.
type Pipeline struct {
	preprocessor *Preprocessor
	sqlGen       *SQLGenerator
	refiner      *Refiner
	executor     QueryRunner
	logger       *zap.Logger
}

// NewPipeline wires the pipeline. All three LLM stages share one generator.
// If logger is nil, a no-op logger is used.
func NewPipeline(generator llm.Generator, executor QueryRunner, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		preprocessor: NewPreprocessor(generator, logger),
		sqlGen:       NewSQLGenerator(generator, logger),
		refiner:      NewRefiner(generator, logger),
		executor:     executor,
		logger:       logger.Named("pipeline"),
	}
}

// Answer processes one question against the given snapshot and returns the
// terminal outcome. Failures carry a plain-language message and the last
// SQL attempted; they are results, not errors.
func (p *Pipeline) Answer(ctx context.Context, question string, snapshot models.SchemaSnapshot) models.QueryOutcome {
	if result := sqlcheck.CheckQuestionForInjection(question); result != nil {
		p.logger.Warn("Question rejected by injection screen",
			zap.String("fingerprint", result.Fingerprint))
		return models.QueryOutcome{
			Success: false,
			Error:   "the question contains patterns that are not allowed",
			Stage:   models.StageScreened,
		}
	}

	matches := MatchValues(question, snapshot)
	ranking := RankTables(question, snapshot)
	rewritten, metadata := p.preprocessor.Preprocess(ctx, question, matches)

	prompt := Compose(rewritten, snapshot, ranking, matches, metadata)

	raw, err := p.sqlGen.GenerateSQL(ctx, prompt)
	if err != nil {
		p.logger.Error("SQL generation failed", zap.Error(err))
		return models.QueryOutcome{
			Success: false,
			Error:   "could not generate a query for this question: " + err.Error(),
			Stage:   models.StageGenerated,
		}
	}

	cleaned := sqlcheck.Clean(raw)

	if vr := sqlcheck.Validate(cleaned, snapshot); !vr.Valid {
		p.logger.Warn("Generated query rejected",
			zap.String("reason", vr.Reason))
		return models.QueryOutcome{
			Success:  false,
			SQLQuery: cleaned,
			Error:    "the generated query was rejected: " + vr.Reason,
			Stage:    models.StageValidated,
		}
	}

	result, execErr := p.executor.Execute(ctx, cleaned)
	if execErr == nil {
		return successOutcome(cleaned, result, false)
	}

	if !ShouldRefine(execErr) {
		return failureOutcome(cleaned, execErr, models.StageExecuted, false)
	}

	refined, refineErr := p.refiner.Refine(ctx, question, cleaned, execErr.Error(), RenderSchema(snapshot))
	if refineErr != nil {
		p.logger.Warn("Refinement failed, reporting original error", zap.Error(refineErr))
		return failureOutcome(cleaned, execErr, models.StageExecuted, false)
	}

	// The refined query is retried even when identical to the original;
	// the first failure may have been transient.
	result, execErr = p.executor.Execute(ctx, refined)
	if execErr == nil {
		return successOutcome(refined, result, true)
	}
	return failureOutcome(refined, execErr, models.StageRefined, true)
}

func successOutcome(query string, result *models.QueryResult, refined bool) models.QueryOutcome {
	stage := models.StageExecuted
	if refined {
		stage = models.StageRefined
	}
	return models.QueryOutcome{
		Success:         true,
		SQLQuery:        query,
		Columns:         result.Columns,
		Rows:            result.Rows,
		ExecutionTimeMs: result.ExecutionTimeMs,
		Stage:           stage,
		Refined:         refined,
	}
}

func failureOutcome(query string, err error, stage models.Stage, refined bool) models.QueryOutcome {
	return models.QueryOutcome{
		Success:  false,
		SQLQuery: query,
		Error:    err.Error(),
		Stage:    stage,
		Refined:  refined,
	}
}
