// Package apperr holds the error taxonomy shared by the services and the HTTP layer.
package apperr

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

type Kind int

const (
	KindInternal Kind = iota
	KindInvalidInput
	KindNotFound
	KindInsufficientStock
	KindInvalidPrice
	KindUnauthorized
	KindForbidden
	KindUpstream
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "InvalidInput"
	case KindNotFound:
		return "NotFound"
	case KindInsufficientStock:
		return "InsufficientStock"
	case KindInvalidPrice:
		return "InvalidPrice"
	case KindUnauthorized:
		return "Unauthorized"
	case KindForbidden:
		return "Forbidden"
	case KindUpstream:
		return "UpstreamError"
	default:
		return "InternalError"
	}
}

// Error is safe to show to the caller: Message never contains internal
// detail. Err keeps the cause for server-side logging.
type Error struct {
	Kind    Kind
	Message string
	ErrorID string
	Err     error
	status  int
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// WithStatus overrides the default HTTP status of the kind.
func (e *Error) WithStatus(status int) *Error {
	e.status = status
	return e
}

// Status returns the HTTP status for the error.
func (e *Error) Status() int {
	if e.status != 0 {
		return e.status
	}
	switch e.Kind {
	case KindInvalidInput, KindInsufficientStock, KindInvalidPrice:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func InvalidInput(format string, args ...interface{}) *Error {
	return newf(KindInvalidInput, format, args...)
}

func NotFound(format string, args ...interface{}) *Error {
	return newf(KindNotFound, format, args...)
}

func InsufficientStock(format string, args ...interface{}) *Error {
	return newf(KindInsufficientStock, format, args...)
}

func InvalidPrice(format string, args ...interface{}) *Error {
	return newf(KindInvalidPrice, format, args...)
}

func Unauthorized(format string, args ...interface{}) *Error {
	return newf(KindUnauthorized, format, args...)
}

func Forbidden(format string, args ...interface{}) *Error {
	return newf(KindForbidden, format, args...)
}

// Internal wraps a persistence failure. The message embeds errorID so the
// caller can quote it; the cause stays server-side.
func Internal(err error, errorID, message string) *Error {
	return &Error{
		Kind:    KindInternal,
		Message: fmt.Sprintf("%s (errorId=%s)", message, errorID),
		ErrorID: errorID,
		Err:     err,
	}
}

// Upstream wraps a payment provider failure, same rules as Internal.
func Upstream(err error, errorID, message string) *Error {
	return &Error{
		Kind:    KindUpstream,
		Message: fmt.Sprintf("%s (errorId=%s)", message, errorID),
		ErrorID: errorID,
		Err:     err,
	}
}

// As extracts an *Error from the chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns KindInternal for errors outside the taxonomy.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return KindInternal
}
