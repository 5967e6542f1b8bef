package weather

import "errors"

// ErrorKind is the closed set of weather fetch failure categories. Handlers
// use the kind to pick a status code (timeouts and network errors are
// retryable; validation errors are hard failures).
type ErrorKind string

const (
	KindNetworkError    ErrorKind = "NETWORK_ERROR"
	KindTimeout         ErrorKind = "TIMEOUT"
	KindInvalidResponse ErrorKind = "INVALID_RESPONSE"
	KindAPIError        ErrorKind = "API_ERROR"
	KindValidationError ErrorKind = "VALIDATION_ERROR"
	KindUnknown         ErrorKind = "UNKNOWN_ERROR"
)

// Error is a tagged weather fetch failure with an optional underlying cause.
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
	var we *Error
	if errors.As(err, &we) {
		return we.Kind
	}
	return KindUnknown
}
