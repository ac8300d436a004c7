package game

import "errors"

// Code is a machine-readable error code.
type Code string

const (
	CodeNotFound             Code = "NOT_FOUND"
	CodeInvalidPhase         Code = "INVALID_PHASE"
	CodeInvalidConfiguration Code = "INVALID_CONFIGURATION"
	CodeInvalidArgument      Code = "INVALID_ARGUMENT"
	CodePermissionDenied     Code = "PERMISSION_DENIED"

	// Task pool errors
	CodeInsufficientTaskPool Code = "INSUFFICIENT_TASK_POOL"
	CodeMissingCommonTask    Code = "MISSING_COMMON_TASK"
	CodeTaskAlreadyCompleted Code = "TASK_ALREADY_COMPLETED"

	// Sabotage errors
	CodeSabotageOnCooldown     Code = "SABOTAGE_ON_COOLDOWN"
	CodeSabotageAlreadyOngoing Code = "SABOTAGE_ALREADY_ONGOING"

	// Voting errors
	CodeAlreadyVoted Code = "ALREADY_VOTED"

	// Concurrency errors
	CodeVersionConflict  Code = "VERSION_CONFLICT"
	CodeTransientFailure Code = "TRANSIENT_FAILURE"
)

// Error is the game error type with structured metadata.
type Error struct {
	Code     Code              // Machine-readable error code
	Message  string            // Internal message (for logs)
	Metadata map[string]string // Additional context for callers building messages
	Cause    error             // Wrapped underlying error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// Sentinels for errors.Is checks.
var (
	ErrNotFound               = &Error{Code: CodeNotFound, Message: "not found"}
	ErrInvalidPhase           = &Error{Code: CodeInvalidPhase, Message: "invalid phase"}
	ErrInvalidConfiguration   = &Error{Code: CodeInvalidConfiguration, Message: "invalid configuration"}
	ErrInvalidArgument        = &Error{Code: CodeInvalidArgument, Message: "invalid argument"}
	ErrPermissionDenied       = &Error{Code: CodePermissionDenied, Message: "permission denied"}
	ErrInsufficientTaskPool   = &Error{Code: CodeInsufficientTaskPool, Message: "insufficient task pool"}
	ErrMissingCommonTask      = &Error{Code: CodeMissingCommonTask, Message: "missing common task"}
	ErrTaskAlreadyCompleted   = &Error{Code: CodeTaskAlreadyCompleted, Message: "task already completed"}
	ErrSabotageOnCooldown     = &Error{Code: CodeSabotageOnCooldown, Message: "sabotage on cooldown"}
	ErrSabotageAlreadyOngoing = &Error{Code: CodeSabotageAlreadyOngoing, Message: "sabotage already ongoing"}
	ErrAlreadyVoted           = &Error{Code: CodeAlreadyVoted, Message: "already voted"}
	ErrVersionConflict        = &Error{Code: CodeVersionConflict, Message: "version conflict"}
	ErrTransientFailure       = &Error{Code: CodeTransientFailure, Message: "transient failure"}
)

// New creates a simple game error with a code and message.
func New(code Code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// WithMetadata creates a game error with metadata for message templating.
func WithMetadata(code Code, message string, metadata map[string]string) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Metadata: metadata,
	}
}

// Wrap creates a game error that wraps an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
