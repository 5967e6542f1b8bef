package location

import "errors"

// ErrorKind is the closed set of location failure categories.
type ErrorKind string

const (
	KindPermissionDenied    ErrorKind = "PERMISSION_DENIED"
	KindPositionUnavailable ErrorKind = "POSITION_UNAVAILABLE"
	KindTimeout             ErrorKind = "TIMEOUT"
	KindNotSupported        ErrorKind = "NOT_SUPPORTED"
	KindNetworkError        ErrorKind = "NETWORK_ERROR"
	KindUnknown             ErrorKind = "UNKNOWN_ERROR"
)

// Error is a tagged location failure. It wraps an optional underlying cause.
type Error struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return string(e.Kind) + ": " + e.Message + ": " + e.Cause.Error()
	}
	return string(e.Kind) + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// KindOf extracts the error kind, defaulting to KindUnknown for untagged errors.
func KindOf(err error) ErrorKind {
	var le *Error
	if errors.As(err, &le) {
		return le.Kind
	}
	return KindUnknown
}
