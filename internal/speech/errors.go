package speech

import (
	"errors"
	"fmt"
)

// Common speech errors
var (
	// ErrEmptyText indicates there is nothing to say after trimming
	ErrEmptyText = errors.New("please enter some text first")

	// ErrInvalidSettings indicates a prosody value is out of range
	ErrInvalidSettings = errors.New("invalid speech settings")

	// ErrUnknownPreset indicates an emotion preset name is not known
	ErrUnknownPreset = errors.New("unknown emotion preset")

	// ErrVoiceNotFound indicates no voice matched a query
	ErrVoiceNotFound = errors.New("voice not found")

	// ErrNoSession indicates there is no live playback session
	ErrNoSession = errors.New("no active playback session")

	// ErrTimeout indicates an operation timed out
	ErrTimeout = errors.New("operation timed out")
)

// EngineError reports a synthesis engine failure on a dispatched chunk. The
// session that produced it has stopped; the remaining chunks were skipped.
type EngineError struct {
	Chunk  int
	Text   string
	Reason error
}

// Error implements the error interface
func (e *EngineError) Error() string {
	return fmt.Sprintf("engine failed on chunk %d (%q): %v", e.Chunk, e.Text, e.Reason)
}

// Unwrap returns the underlying error
func (e *EngineError) Unwrap() error {
	return e.Reason
}

// TTSError represents an engine or audio error with additional context
type TTSError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *TTSError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *TTSError) Unwrap() error {
	return e.Cause
}

// ErrorCode identifies specific error types
type ErrorCode string

const (
	// Engine errors
	ErrorCodeEngineFailure     ErrorCode = "ENGINE_FAILURE"
	ErrorCodeEngineUnavailable ErrorCode = "ENGINE_UNAVAILABLE"
	ErrorCodeEngineTimeout     ErrorCode = "ENGINE_TIMEOUT"

	// Audio errors
	ErrorCodeAudioFailure ErrorCode = "AUDIO_FAILURE"
	ErrorCodeAudioDevice  ErrorCode = "AUDIO_DEVICE"
	ErrorCodeAudioFormat  ErrorCode = "AUDIO_FORMAT"

	// Input errors
	ErrorCodeInvalidInput ErrorCode = "INVALID_INPUT"
	ErrorCodeTextTooLong  ErrorCode = "TEXT_TOO_LONG"
)

// NewTTSError creates a new TTS error with context
func NewTTSError(code ErrorCode, message string, cause error) *TTSError {
	return &TTSError{
		Code:    code,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// WithContext adds context to the error
func (e *TTSError) WithContext(key string, value interface{}) *TTSError {
	e.Context[key] = value
	return e
}

// IsFatal returns true if the error means the engine cannot be used at all
func (e *TTSError) IsFatal() bool {
	switch e.Code {
	case ErrorCodeEngineUnavailable, ErrorCodeAudioDevice:
		return true
	default:
		return false
	}
}

// IsFatal reports whether err carries a fatal TTSError.
func IsFatal(err error) bool {
	var ttsErr *TTSError
	return errors.As(err, &ttsErr) && ttsErr.IsFatal()
}
