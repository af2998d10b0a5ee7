// Package errors provides sentinel errors and exit codes for the turtles CLI.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for known conditions.
var (
	// ErrConfigInvalid indicates a descriptor or settings file failed schema
	// validation. Fatal for the whole invocation.
	ErrConfigInvalid = errors.New("invalid configuration")

	// ErrPluginSetNotFound indicates no configured plugin set claims a
	// plugin identifier.
	ErrPluginSetNotFound = errors.New("plugin set not found")

	// ErrAmbiguousPluginSet indicates more than one configured plugin set
	// claims the same plugin identifier.
	ErrAmbiguousPluginSet = errors.New("ambiguous plugin set")

	// ErrPluginNotFound indicates a plugin set's source tree has no source
	// for a claimed plugin identifier.
	ErrPluginNotFound = errors.New("plugin not found")

	// ErrBuildFailed indicates an external build or signing tool exited
	// nonzero.
	ErrBuildFailed = errors.New("build failed")

	// ErrMalformedArtifact indicates a JAR is not a valid archive or lacks
	// the required manifest metadata.
	ErrMalformedArtifact = errors.New("malformed artifact")

	// ErrUnmanagedLayer indicates a version-controlled layer is missing its
	// managed area or the area is inconsistent.
	ErrUnmanagedLayer = errors.New("unmanaged layer")

	// ErrDeployFailed indicates a filesystem copy or check-in error during
	// publication.
	ErrDeployFailed = errors.New("deploy failed")
)

// Exit codes for the turtles CLI.
const (
	// ExitSuccess indicates every requested item succeeded.
	ExitSuccess = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError = 1

	// ExitConfigInvalid indicates configuration loading or validation failed.
	ExitConfigInvalid = 2

	// ExitNotFound indicates a plugin, plugin set, or artifact was not found.
	ExitNotFound = 3

	// ExitBuildFailed indicates at least one build item failed.
	ExitBuildFailed = 4

	// ExitDeployFailed indicates at least one deploy item failed.
	ExitDeployFailed = 5
)

// ExitCodeName returns the name of the exit code.
func ExitCodeName(code int) string {
	switch code {
	case ExitSuccess:
		return "Success"
	case ExitGeneralError:
		return "General Error"
	case ExitConfigInvalid:
		return "Invalid Configuration"
	case ExitNotFound:
		return "Not Found"
	case ExitBuildFailed:
		return "Build Failed"
	case ExitDeployFailed:
		return "Deploy Failed"
	default:
		return "Unknown"
	}
}

// ExitError wraps an error with an exit code.
type ExitError struct {
	Err  error
	Code int

	// Printed records whether the command layer already printed the error,
	// so main does not print it twice.
	Printed bool
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	return e.Err.Error()
}

// Unwrap returns the wrapped error.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given error and exit code.
func NewExitError(err error, code int) *ExitError {
	return &ExitError{Err: err, Code: code}
}

// ExitCodeFromError determines the appropriate exit code for an error.
func ExitCodeFromError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	switch {
	case errors.Is(err, ErrConfigInvalid):
		return ExitConfigInvalid
	case errors.Is(err, ErrPluginSetNotFound),
		errors.Is(err, ErrAmbiguousPluginSet),
		errors.Is(err, ErrPluginNotFound):
		return ExitNotFound
	case errors.Is(err, ErrBuildFailed):
		return ExitBuildFailed
	case errors.Is(err, ErrUnmanagedLayer),
		errors.Is(err, ErrDeployFailed):
		return ExitDeployFailed
	default:
		return ExitGeneralError
	}
}

// WrapConfigInvalid wraps an error with ErrConfigInvalid.
func WrapConfigInvalid(err error, msg string) error {
	return fmt.Errorf("%s: %w: %w", msg, ErrConfigInvalid, err)
}

// WrapBuildFailed wraps an error with ErrBuildFailed.
func WrapBuildFailed(err error, msg string) error {
	return fmt.Errorf("%s: %w: %w", msg, ErrBuildFailed, err)
}

// WrapMalformedArtifact wraps an error with ErrMalformedArtifact.
func WrapMalformedArtifact(err error, msg string) error {
	return fmt.Errorf("%s: %w: %w", msg, ErrMalformedArtifact, err)
}

// WrapDeployFailed wraps an error with ErrDeployFailed.
func WrapDeployFailed(err error, msg string) error {
	return fmt.Errorf("%s: %w: %w", msg, ErrDeployFailed, err)
}
