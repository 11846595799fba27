package cli

import (
	"errors"
	"fmt"
)

// Exit codes returned by the autopublish command.
const (
	ExitOK       = 0
	ExitError    = 1
	ExitUsage    = 2
	ExitConfig   = 78 // EX_CONFIG
	ExitTempFail = 75 // EX_TEMPFAIL, e.g. a scan already running
)

// ConfigError represents an error in configuration.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("config error: %v", e.Err)
	}
	return fmt.Sprintf("config error in %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// CommandError represents an error from a command execution.
type CommandError struct {
	Command string
	Code    int
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %s failed: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError.
func NewConfigError(path string, err error) *ConfigError {
	return &ConfigError{Path: path, Err: err}
}

// NewCommandError creates a CommandError with exit code ExitError.
func NewCommandError(command string, err error) *CommandError {
	return &CommandError{Command: command, Code: ExitError, Err: err}
}

// NewCommandErrorCode creates a CommandError with a specific exit code.
func NewCommandErrorCode(command string, code int, err error) *CommandError {
	return &CommandError{Command: command, Code: code, Err: err}
}

// ExitCode maps an error returned by a command to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) && cmdErr.Code != 0 {
		return cmdErr.Code
	}
	var cfgErr *ConfigError
	if errors.As(err, &cfgErr) {
		return ExitConfig
	}
	return ExitError
}
