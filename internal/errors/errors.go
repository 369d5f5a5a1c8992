// Package errors defines the smartcommit error taxonomy. The classification
// drives retry and fallback behavior: model failures are transient or
// malformed and may fall back to the heuristic planner, staleness aborts a
// single commit group, git failures stop the applier, and a secrets
// detection is fatal and must never be absorbed by retry or fallback logic.
package errors

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"

	"smartcommit/internal/types"
)

// New creates a new error with the given message.
func New(message string) error {
	return errors.New(message)
}

// Errorf creates a new formatted error.
func Errorf(format string, args ...any) error {
	return errors.Newf(format, args...)
}

// Wrap wraps an error with a message for better context.
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf wraps an error with a formatted message.
func Wrapf(err error, format string, args ...any) error {
	return errors.Wrapf(err, format, args...)
}

// Is reports whether target is in err's chain.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// SecretsDetectedError is raised when the secrets detector finds leak-prone
// material. It carries every match and must surface to the user with full
// detail regardless of how many retry or fallback layers it crosses.
type SecretsDetectedError struct {
	Matches []types.SecretMatch
}

func (e *SecretsDetectedError) Error() string {
	files := make(map[string]struct{})
	for _, m := range e.Matches {
		files[m.File] = struct{}{}
	}
	names := make([]string, 0, len(files))
	for f := range files {
		names = append(names, f)
	}
	return fmt.Sprintf("potential secrets detected in %d location(s) across: %s",
		len(e.Matches), strings.Join(names, ", "))
}

// NewSecretsDetected creates a SecretsDetectedError from the given matches.
func NewSecretsDetected(matches []types.SecretMatch) *SecretsDetectedError {
	return &SecretsDetectedError{Matches: matches}
}

// IsSecretsDetected reports whether err carries a SecretsDetectedError.
func IsSecretsDetected(err error) bool {
	var se *SecretsDetectedError
	return errors.As(err, &se)
}

// ModelFailureKind classifies model call failures for user-facing messaging
// and retry decisions.
type ModelFailureKind string

const (
	ModelRateLimited ModelFailureKind = "rate-limited"
	ModelServer      ModelFailureKind = "server-error"
	ModelTimeout     ModelFailureKind = "timeout"
	ModelNetwork     ModelFailureKind = "network"
	ModelMalformed   ModelFailureKind = "malformed-output"
)

// ModelError wraps a failed model interaction with its classification.
// Transient kinds (rate-limited, server, timeout, network) are retried with
// backoff; malformed output is retried too, and all kinds fall back to the
// heuristic planner once retries are exhausted.
type ModelError struct {
	Kind ModelFailureKind
	Err  error
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("model failure (%s): %v", e.Kind, e.Err)
}

func (e *ModelError) Unwrap() error { return e.Err }

// Transient reports whether the failure is worth retrying at the transport
// level before falling back.
func (e *ModelError) Transient() bool {
	switch e.Kind {
	case ModelRateLimited, ModelServer, ModelTimeout, ModelNetwork:
		return true
	}
	return false
}

// NewModelError wraps err with the given classification.
func NewModelError(kind ModelFailureKind, err error) *ModelError {
	return &ModelError{Kind: kind, Err: err}
}

// NewMalformed creates a malformed-output model error.
func NewMalformed(format string, args ...any) *ModelError {
	return &ModelError{Kind: ModelMalformed, Err: errors.Newf(format, args...)}
}

// StalenessError aborts a single commit group whose file no longer has
// pending changes at apply time. It is reported, never retried.
type StalenessError struct {
	GroupID string
	File    string
}

func (e *StalenessError) Error() string {
	return fmt.Sprintf("commit group %s is stale: %s has no pending changes", e.GroupID, e.File)
}

// GitError represents a failed git operation. It is fatal to the remaining
// pipeline: the applier stops and reports partial success.
type GitError struct {
	Operation string
	Args      []string
	Output    string
	Err       error
}

func (e *GitError) Error() string {
	msg := fmt.Sprintf("git %s failed", e.Operation)
	if e.Output != "" {
		msg += ": " + e.Output
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *GitError) Unwrap() error { return e.Err }

// NewGitError creates a GitError for the given operation.
func NewGitError(operation string, args []string, err error, output string) *GitError {
	return &GitError{Operation: operation, Args: args, Err: err, Output: strings.TrimSpace(output)}
}

// ProtectedBranchError refuses a forced push to a protected branch. The
// refusal happens before any network call and is never retried.
type ProtectedBranchError struct {
	Branch string
}

func (e *ProtectedBranchError) Error() string {
	return fmt.Sprintf("refusing forced push to protected branch %q", e.Branch)
}
