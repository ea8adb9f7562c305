package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType classifies pipeline failures for callers that branch on the
// failure class rather than the message.
type ErrorType int

const (
	// ErrValidation covers rejected input and violated stage
	// preconditions.
	ErrValidation ErrorType = iota
	// ErrUpstreamService covers transcription, translation and speech
	// synthesis backend failures.
	ErrUpstreamService
	// ErrMediaProcessing covers ffmpeg/ffprobe failures.
	ErrMediaProcessing
	// ErrConfiguration covers missing or invalid configuration.
	ErrConfiguration
	// ErrInternal is the catch-all for everything else.
	ErrInternal
)

func (t ErrorType) String() string {
	switch t {
	case ErrValidation:
		return "Validation"
	case ErrUpstreamService:
		return "UpstreamService"
	case ErrMediaProcessing:
		return "MediaProcessing"
	case ErrConfiguration:
		return "Configuration"
	default:
		return "Internal"
	}
}

// Error is the pipeline failure envelope: a class, a message, optional
// key/value context and the underlying cause.
type Error struct {
	Type    ErrorType
	Message string
	Context map[string]any
	Cause   error
}

func NewError(errorType ErrorType, message string) *Error {
	return &Error{
		Type:    errorType,
		Message: message,
		Context: make(map[string]any),
	}
}

func WrapError(cause error, errorType ErrorType, message string) *Error {
	return &Error{
		Type:    errorType,
		Message: message,
		Context: make(map[string]any),
		Cause:   cause,
	}
}

func (e *Error) Error() string {
	var parts []string
	parts = append(parts, fmt.Sprintf("[%s] %s", e.Type.String(), e.Message))

	if len(e.Context) > 0 {
		var ctxParts []string
		for k, v := range e.Context {
			ctxParts = append(ctxParts, fmt.Sprintf("%s=%v", k, v))
		}
		parts = append(parts, fmt.Sprintf("context: %s", strings.Join(ctxParts, ", ")))
	}

	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("cause: %v", e.Cause))
	}

	return strings.Join(parts, " | ")
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func (e *Error) WithContext(key string, value any) *Error {
	e.Context[key] = value
	return e
}

// IsErrorType reports whether err is or wraps a pipeline error of the
// given class.
func IsErrorType(err error, errorType ErrorType) bool {
	var pErr *Error
	if errors.As(err, &pErr) {
		return pErr.Type == errorType
	}
	return false
}
