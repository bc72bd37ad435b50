package errors

import (
	"errors"
	"fmt"
)

// ErrorType classifies failures at the I/O boundary of the pipeline
type ErrorType string

const (
	ErrorTypeTargetNotFound      ErrorType = "target_not_found"
	ErrorTypeUpstreamUnavailable ErrorType = "upstream_unavailable"
	ErrorTypeItemFetchFailed     ErrorType = "item_fetch_failed"
	ErrorTypeInvalidRecord       ErrorType = "invalid_record"
	ErrorTypeExportFailed        ErrorType = "export_failed"
)

// Sentinel values for errors.Is comparisons. Any *Error with the same Type
// matches its sentinel.
var (
	ErrTargetNotFound      = &Error{Type: ErrorTypeTargetNotFound}
	ErrUpstreamUnavailable = &Error{Type: ErrorTypeUpstreamUnavailable}
	ErrItemFetchFailed     = &Error{Type: ErrorTypeItemFetchFailed}
	ErrInvalidRecord       = &Error{Type: ErrorTypeInvalidRecord}
	ErrExportFailed        = &Error{Type: ErrorTypeExportFailed}
)

// Error carries the failure type, the operation and the account it concerns
type Error struct {
	Type     ErrorType
	Op       string
	Identity string
	Err      error
}

func (e *Error) Error() string {
	msg := string(e.Type)
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Identity != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Identity)
	}
	if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on the error type so callers can compare against the sentinels
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Type == e.Type
}

// New builds a typed error
func New(errType ErrorType, op, identity string, err error) *Error {
	return &Error{Type: errType, Op: op, Identity: identity, Err: err}
}

// TargetNotFound reports that the target account does not exist
func TargetNotFound(identity string, err error) error {
	return New(ErrorTypeTargetNotFound, "resolve", identity, err)
}

// UpstreamUnavailable reports a connectivity or rate-limit failure
func UpstreamUnavailable(op, identity string, err error) error {
	return New(ErrorTypeUpstreamUnavailable, op, identity, err)
}

// ItemFetchFailed reports a single follower lookup failure
func ItemFetchFailed(op, identity string, err error) error {
	return New(ErrorTypeItemFetchFailed, op, identity, err)
}

// InvalidRecord reports malformed data reaching feature extraction
func InvalidRecord(identity, reason string) error {
	return New(ErrorTypeInvalidRecord, "extract", identity, errors.New(reason))
}

// ExportFailed reports a persistence failure
func ExportFailed(op string, err error) error {
	return New(ErrorTypeExportFailed, op, "", err)
}

// TypeOf returns the ErrorType of err, or "" if err carries none
func TypeOf(err error) ErrorType {
	var e *Error
	if errors.As(err, &e) {
		return e.Type
	}
	return ""
}

// IsRetryable checks if an error type should be retried
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeUpstreamUnavailable:
		return true
	default:
		return false
	}
}
