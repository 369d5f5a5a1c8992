// Package logging provides the categorized zap logger used across
// smartcommit. Each pipeline component gets a named child logger so log
// output can be filtered per concern (scan, secrets, generator, apply, ...).
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category names for component loggers.
const (
	CategoryScope     = "scope"
	CategoryScan      = "scan"
	CategorySecrets   = "secrets"
	CategoryPattern   = "pattern"
	CategoryGenerator = "generator"
	CategoryModel     = "model"
	CategoryHeuristic = "heuristic"
	CategoryStore     = "store"
	CategoryApply     = "apply"
	CategoryPush      = "push"
)

// New builds the root logger. Verbose enables debug level; output is
// console-encoded to stderr so it never mixes with command output.
func New(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	} else {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	}
	return cfg.Build()
}

// For returns the category-named child of logger, tolerating a nil parent so
// library code never has to nil-check before logging.
func For(logger *zap.Logger, category string) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger.Named(category)
}
