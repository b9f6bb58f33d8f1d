package motion

import "errors"

// Error is the closed taxonomy of failure kinds a public operation can
// return. Negative-integer status codes in the source material map to these
// sentinel values; callers compare with errors.Is rather than switching on
// a raw integer.
type Error struct {
	kind string
}

func (e *Error) Error() string { return e.kind }

// Is reports whether err is this sentinel, directly or wrapped with %w.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return other.kind == e.kind
	}
	return false
}

var (
	// ErrNotImplemented: optional operation unsupported by a backend.
	ErrNotImplemented = &Error{"not implemented"}
	// ErrInvalidArgument: e.g. zero acceleration rate, unsupported resolution.
	ErrInvalidArgument = &Error{"invalid argument"}
	// ErrCanceled: motion command issued while the stepper is disabled.
	ErrCanceled = &Error{"canceled"}
	// ErrIO: hardware transport failure.
	ErrIO = &Error{"io error"}
	// ErrNotReady: underlying device not initialized.
	ErrNotReady = &Error{"not ready"}

	// ErrNoRamp is returned by move/run operations when no ramp is bound.
	ErrNoRamp = &Error{"no ramp bound"}
)
