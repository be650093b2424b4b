package hsmodels

import "errors"

// Error taxonomy shared across the command and firmware services. Callers
// match with errors.Is; HTTP controllers map these onto status codes.
var (
	// ErrNotFound covers missing or inactive devices, unknown commands and
	// unknown firmware versions. Surfaced to the caller, never retried.
	ErrNotFound = errors.New("not found")

	// ErrInvalidPayload means a command payload failed validation for its
	// command type.
	ErrInvalidPayload = errors.New("invalid command payload")

	// ErrUnknownCommandType means the command type is outside the supported set.
	ErrUnknownCommandType = errors.New("unknown command type")

	// ErrInvalidTransition means the requested state change is not allowed
	// from the command's current state.
	ErrInvalidTransition = errors.New("invalid command state transition")

	// ErrInvalidSchedule means a scheduled time is not strictly in the future.
	ErrInvalidSchedule = errors.New("scheduled time must be in the future")

	// ErrRetryExhausted means the command has used all of its retries.
	ErrRetryExhausted = errors.New("maximum retry attempts reached")

	// ErrTransportFailure marks a failed or timed-out broker publish. The
	// command stays pending; the caller still gets a success response.
	ErrTransportFailure = errors.New("transport publish failed")

	// ErrDuplicateVersion means a firmware upload reused an existing version
	// string. Version records are immutable.
	ErrDuplicateVersion = errors.New("firmware version already exists")

	// ErrInvalidVersion means a version string is not valid semantic
	// versioning.
	ErrInvalidVersion = errors.New("invalid version format")
)
