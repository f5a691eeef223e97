package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ExitCodeFailure is the process status for every failure that does not carry
// its own exit code.
const ExitCodeFailure = 1

// ErrNoChanges is returned when the overlay mutation left nothing to commit.
var ErrNoChanges = errors.New("no changes staged for commit")

// ConfigError reports every missing or invalid required input at once.
type ConfigError struct {
	Missing []string
	Invalid []string
}

func (e *ConfigError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing required input: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "invalid input: "+strings.Join(e.Invalid, "; "))
	}
	return strings.Join(parts, "; ")
}

// CredentialError is returned when the deploy key cannot be materialized.
type CredentialError struct {
	Op  string
	Err error
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("credential %s: %v", e.Op, e.Err)
}

func (e *CredentialError) Unwrap() error { return e.Err }

// VcsError wraps any repository operation failure.
type VcsError struct {
	Op  string
	Err error
}

func (e *VcsError) Error() string {
	return fmt.Sprintf("git %s: %v", e.Op, e.Err)
}

func (e *VcsError) Unwrap() error { return e.Err }

// MutationError is returned when the manifest-editing tool exits non-zero.
type MutationError struct {
	Command  []string
	ExitCode int
	Stderr   string
}

func (e *MutationError) Error() string {
	msg := fmt.Sprintf("%s exited with code %d", strings.Join(e.Command, " "), e.ExitCode)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

// ExitCode maps a run error to the process exit status. A mutation failure
// passes the tool's own exit code through unchanged.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var mutErr *MutationError
	if errors.As(err, &mutErr) && mutErr.ExitCode > 0 {
		return mutErr.ExitCode
	}
	return ExitCodeFailure
}
