package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// Process exit codes reported by the CLI.
const (
	ExitOK            = 0
	ExitConfiguration = 1
	ExitReconcile     = 2
	ExitDecompilation = 3
	ExitConcurrentRun = 4
)

// ConfigurationError reports a missing or unusable configuration.
// No repository mutation is attempted after one is raised.
type ConfigurationError struct {
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration error: %s: %v", e.Reason, e.Err)
	}
	return "configuration error: " + e.Reason
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// Configuration wraps err as a ConfigurationError.
func Configuration(reason string, err error) error {
	return &ConfigurationError{Reason: reason, Err: err}
}

// InvalidRangeError reports a version range that cannot be resolved
// against the catalog.
type InvalidRangeError struct {
	MinVersion string
	MaxVersion string
	MissingMin bool
	MissingMax bool
	Reversed   bool
}

func (e *InvalidRangeError) Error() string {
	switch {
	case e.MissingMin && e.MissingMax:
		return fmt.Sprintf("invalid version range: neither minimum version %s nor maximum version %s found in version manifest", e.MinVersion, e.MaxVersion)
	case e.MissingMin:
		return fmt.Sprintf("invalid version range: minimum version %s not found in version manifest", e.MinVersion)
	case e.MissingMax:
		return fmt.Sprintf("invalid version range: maximum version %s not found in version manifest", e.MaxVersion)
	case e.Reversed:
		return fmt.Sprintf("invalid version range: minimum version %s was released after maximum version %s", e.MinVersion, e.MaxVersion)
	default:
		return fmt.Sprintf("invalid version range: %s..%s", e.MinVersion, e.MaxVersion)
	}
}

// RepositoryCorruptError reports repository state the tool refuses to
// repair on its own.
type RepositoryCorruptError struct {
	Reason string
}

func (e *RepositoryCorruptError) Error() string {
	return "repository corrupt: " + e.Reason
}

// Corrupt builds a RepositoryCorruptError from a format string.
func Corrupt(format string, args ...any) error {
	return &RepositoryCorruptError{Reason: fmt.Sprintf(format, args...)}
}

// DecompilationFailedError reports a driver failure for one version.
type DecompilationFailedError struct {
	Version string
	Err     error
}

func (e *DecompilationFailedError) Error() string {
	return fmt.Sprintf("decompilation of version %s failed: %v", e.Version, e.Err)
}

func (e *DecompilationFailedError) Unwrap() error { return e.Err }

// PlanInvariantError means the planner produced a plan that does not
// reproduce its target. It is an internal defect, never an input problem.
type PlanInvariantError struct {
	Reason   string
	Expected []string
	Got      []string
}

func (e *PlanInvariantError) Error() string {
	if e.Expected == nil && e.Got == nil {
		return "plan invariant violated: " + e.Reason
	}
	return fmt.Sprintf("plan invariant violated: %s (expected [%s], simulated [%s])",
		e.Reason, strings.Join(e.Expected, " "), strings.Join(e.Got, " "))
}

// ConcurrentRunError reports that another run holds the state directory lock.
type ConcurrentRunError struct {
	LockPath string
}

func (e *ConcurrentRunError) Error() string {
	return fmt.Sprintf("another run holds the lock %s", e.LockPath)
}

// ExitCode maps an error to the process exit code.
// Unclassified errors fall back to ExitConfiguration.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var (
		cfgErr     *ConfigurationError
		rangeErr   *InvalidRangeError
		corruptErr *RepositoryCorruptError
		decompErr  *DecompilationFailedError
		planErr    *PlanInvariantError
		lockErr    *ConcurrentRunError
	)

	switch {
	case errors.As(err, &lockErr):
		return ExitConcurrentRun
	case errors.As(err, &planErr), errors.As(err, &corruptErr):
		return ExitReconcile
	case errors.As(err, &decompErr):
		return ExitDecompilation
	case errors.As(err, &cfgErr), errors.As(err, &rangeErr):
		return ExitConfiguration
	default:
		return ExitConfiguration
	}
}

// IsFatal reports whether err signals a defect in the tool itself.
func IsFatal(err error) bool {
	var planErr *PlanInvariantError
	return errors.As(err, &planErr)
}
