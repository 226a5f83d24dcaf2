package apperrors

import "errors"

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")

	// ErrGeneration indicates the text-generation request failed or returned
	// content that could not be used as SQL.
	ErrGeneration = errors.New("sql generation failed")

	// ErrValidationRejected indicates the generated SQL failed static safety
	// or consistency checks. This is a normal negative result, not a bug.
	ErrValidationRejected = errors.New("sql validation rejected")

	// ErrExecution indicates the backing store rejected or failed the query.
	ErrExecution = errors.New("sql execution failed")

	// ErrRefinementExhausted indicates the single refinement retry also failed.
	ErrRefinementExhausted = errors.New("refinement exhausted")

	// ErrUnsafeQuestion indicates the raw question carried SQL injection
	// fingerprints and was rejected before the pipeline ran.
	ErrUnsafeQuestion = errors.New("question contains SQL injection patterns")
)
