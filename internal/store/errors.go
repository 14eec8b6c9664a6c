package store

import (
	"fmt"
	"path/filepath"
)

// AppErrorCode represents gRPC-style error codes for section store errors.
// codes that don't make sense for a local file, like unauthenticated, are
// skipped.
type AppErrorCode int

const (
	// OK indicates the operation completed successfully.
	OK AppErrorCode = 0

	// InvalidArgument indicates the caller passed a bad name.
	InvalidArgument AppErrorCode = 3

	// NotFound means the requested section does not exist.
	NotFound AppErrorCode = 5

	// AlreadyExists means a section with the target name already exists.
	AlreadyExists AppErrorCode = 6

	// FailedPrecondition indicates the operation would break a store
	// invariant, like removing the home section.
	FailedPrecondition AppErrorCode = 9

	// Internal means reading or writing the file failed.
	Internal AppErrorCode = 13
)

// AppError represents errors from section store operations
type AppError struct {
	Code    AppErrorCode
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// UserMessage is the short text shown in place of the cell that ran the
// failing command
func (e *AppError) UserMessage() string {
	return e.Message
}

// NewApplicationError creates a new application error
func NewApplicationError(code AppErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

func wrapInternal(message string, err error) *AppError {
	return &AppError{Code: Internal, Message: message, Err: err}
}

// Messages shown to the user when a section command fails
const (
	MsgInvalidName    = "Invalid new section name."
	MsgRenameFailed   = "Failed to rename section."
	MsgDeleteHome     = "Cannot delete the home section."
	MsgCreateFailed   = "Failed to create section."
	MsgSectionMissing = "Section not found."
)

// ConfigError reports a section file that cannot be parsed. it is fatal at
// startup.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Remediation is the text shown to the user before exiting
func (e *ConfigError) Remediation() string {
	return fmt.Sprintf("- The configuration file %s has a syntax error!\n\n"+
		"- Please locate it in the working directory and check it,\n"+
		"- or you can delete it to restore the factory settings.\n", filepath.Base(e.Path))
}
