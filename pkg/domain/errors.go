package domain

import (
	"errors"
	"fmt"
)

// ErrConfiguration is returned when the session configuration is invalid.
var ErrConfiguration = errors.New("invalid configuration")

// ErrToolExecution is returned when the external tool fails to run or exits non-zero.
var ErrToolExecution = errors.New("tool execution failed")

// ErrParse is returned when a tool report lacks an expected field or holds a non-numeric value.
var ErrParse = errors.New("report parse failed")

// ErrBounds is returned when an action index does not address the catalog.
var ErrBounds = errors.New("action index out of range")

// ErrEpisodeDone is returned when Step is called after the horizon was reached.
var ErrEpisodeDone = errors.New("episode is done, reset required")

// ErrEpisodeNotStarted is returned when Step is called without a successful Reset.
var ErrEpisodeNotStarted = errors.New("episode not started, reset required")

// ErrSessionNotFound is returned when a session ID cannot be found in a registry or store.
var ErrSessionNotFound = errors.New("session not found")

// ConfigError describes an invalid configuration field.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%v: %s", ErrConfiguration, e.Reason)
	}
	return fmt.Sprintf("%v: %s: %s", ErrConfiguration, e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error { return ErrConfiguration }

// ToolExecutionError carries the details of a failed subprocess invocation.
type ToolExecutionError struct {
	Binary   string
	ExitCode int // -1 when the process did not exit normally
	Stderr   string
	Err      error
}

func (e *ToolExecutionError) Error() string {
	msg := fmt.Sprintf("%v: %s", ErrToolExecution, e.Binary)
	if e.ExitCode >= 0 {
		msg += fmt.Sprintf(" (exit %d)", e.ExitCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Stderr != "" {
		msg += ". Stderr: " + e.Stderr
	}
	return msg
}

// Is reports ErrToolExecution as well as the underlying cause (e.g. context.DeadlineExceeded).
func (e *ToolExecutionError) Is(target error) bool {
	return target == ErrToolExecution
}

func (e *ToolExecutionError) Unwrap() error { return e.Err }

// ParseError describes a report field that could not be extracted.
type ParseError struct {
	Label  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%v: field %q: %s", ErrParse, e.Label, e.Reason)
}

func (e *ParseError) Unwrap() error { return ErrParse }

// BoundsError describes an action index outside the catalog.
type BoundsError struct {
	Index int
	Size  int
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("%v: %d not in [0, %d)", ErrBounds, e.Index, e.Size)
}

func (e *BoundsError) Unwrap() error { return ErrBounds }
