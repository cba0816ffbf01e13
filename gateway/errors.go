package gateway

import (
	"errors"
	"fmt"
)

// ErrorKind is a machine-readable identifier for the specific failure.
type ErrorKind string

const (
	ErrDetectionFailed    ErrorKind = "detection_failed"    // Backend gateway detection failed or was rejected.
	ErrSdkLoadFailed      ErrorKind = "sdk_load_failed"     // Vendor SDK/script could not be loaded.
	ErrInvalidCard        ErrorKind = "invalid_card"        // Card rejected by the gateway or the backend.
	ErrValidationError    ErrorKind = "validation_error"    // Local input validation failed before any gateway call.
	ErrTokenizationFailed ErrorKind = "tokenization_failed" // Gateway responded without a usable token.
	ErrClientTokenFailed  ErrorKind = "client_token_failed" // Braintree client token could not be fetched.
	ErrNotSupported       ErrorKind = "not_supported"       // Gateway/scenario combination outside the supported set.
	ErrNotReady           ErrorKind = "not_ready"           // Operation requires a completed initialization.
	ErrNetworkError       ErrorKind = "network_error"       // Transport-level failure or timeout.
	ErrConfigMissing      ErrorKind = "config_missing"      // Required configuration absent or malformed.
)

// PaymentError is the single error type crossing the adapter boundary.
// Adapters normalize every foreign failure (vendor responses, transport
// errors, malformed JSON) into a PaymentError before returning.
type PaymentError struct {
	Kind    ErrorKind
	Gateway GatewayName
	Message string
	Details map[string]any
	cause   error
}

func (e *PaymentError) Error() string {
	if e == nil {
		return ""
	}
	if e.Gateway != "" {
		return fmt.Sprintf("%s: %s: %s", e.Gateway, e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *PaymentError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

type errorOption func(*PaymentError)

// WithGateway tags the error with the gateway it originated from.
func WithGateway(name GatewayName) errorOption {
	return func(pe *PaymentError) {
		pe.Gateway = name
	}
}

// WithDetail attaches one structured detail field.
func WithDetail(key string, value any) errorOption {
	return func(pe *PaymentError) {
		if pe.Details == nil {
			pe.Details = make(map[string]any)
		}
		pe.Details[key] = value
	}
}

// WithCause records the underlying error for errors.Unwrap chains.
func WithCause(err error) errorOption {
	return func(pe *PaymentError) {
		pe.cause = err
	}
}

// NewError builds a PaymentError of the given kind.
func NewError(kind ErrorKind, message string, opts ...errorOption) *PaymentError {
	pe := &PaymentError{Kind: kind, Message: message}
	for _, opt := range opts {
		opt(pe)
	}
	return pe
}

// Errorf builds a PaymentError with a formatted message.
func Errorf(kind ErrorKind, format string, args ...any) *PaymentError {
	return NewError(kind, fmt.Sprintf(format, args...))
}

// KindOf returns the error kind of err, or an empty kind when err is not a
// PaymentError anywhere in its chain.
func KindOf(err error) ErrorKind {
	var pe *PaymentError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}

// AsPaymentError extracts a PaymentError from err's chain.
func AsPaymentError(err error) (*PaymentError, bool) {
	var pe *PaymentError
	ok := errors.As(err, &pe)
	return pe, ok
}
