// Package logging builds the root zap logger and provides sanitizers for
// values that may carry credentials or very long SQL.
package logging

import (
	"go.uber.org/zap"
)

// New creates the root logger for the given environment.
// "local" gets human-readable development output; everything else gets
// production JSON.
func New(env string) (*zap.Logger, error) {
	if env == "local" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
