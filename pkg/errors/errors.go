package errors

import "errors"

// Error messages
var (
	ErrInvalidLanguageType           = errors.New("invalid language type")
	ErrEngineBusy                    = errors.New("grading pool is saturated, retry later")
	ErrSandboxUnavailable            = errors.New("sandbox backend unavailable")
	ErrUnknownMessageType            = errors.New("invalid queue message type")
	ErrFailedToUnmarshalGradeMessage = errors.New("failed to unmarshal grade message")
	ErrUnknownSandboxBackend         = errors.New("unknown sandbox backend")
	ErrRunRootUnavailable            = errors.New("failed to prepare sandbox run directory")
)
