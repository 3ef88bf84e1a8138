// Package apperr defines the error kinds shared by the protocol, the map
// session and the transports.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Kind classifies an error for callers and transports.
type Kind string

const (
	KindInvalidRequest    Kind = "INVALID_REQUEST"
	KindService           Kind = "SERVICE_ERROR"
	KindMalformedResponse Kind = "MALFORMED_RESPONSE"
	KindInvalidFileFormat Kind = "INVALID_FILE_FORMAT"
	KindRateLimited       Kind = "RATE_LIMITED"
	KindBusy              Kind = "BUSY"
	KindInvalidState      Kind = "INVALID_STATE"
	KindNotFound          Kind = "NOT_FOUND"
)

// Sentinels for errors.Is. A sentinel matches any *Error of the same kind.
var (
	ErrInvalidRequest    = &Error{Kind: KindInvalidRequest}
	ErrService           = &Error{Kind: KindService}
	ErrMalformedResponse = &Error{Kind: KindMalformedResponse}
	ErrInvalidFileFormat = &Error{Kind: KindInvalidFileFormat}
	ErrRateLimited       = &Error{Kind: KindRateLimited}
	ErrBusy              = &Error{Kind: KindBusy}
	ErrInvalidState      = &Error{Kind: KindInvalidState}
	ErrNotFound          = &Error{Kind: KindNotFound}
)

// Error is a classified error.
type Error struct {
	Kind       Kind
	Message    string
	RetryAfter time.Duration
	Cause      error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports kind equality against a sentinel (an *Error with no message).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t.Message != "" || t.Cause != nil {
		return false
	}
	return t.Kind == e.Kind
}

func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// RateLimited builds a rate-limit error carrying the delay the caller should
// wait before trying again.
func RateLimited(retryAfter time.Duration, cause error) *Error {
	return &Error{
		Kind:       KindRateLimited,
		Message:    fmt.Sprintf("rate limited, retry after %s", retryAfter),
		RetryAfter: retryAfter,
		Cause:      cause,
	}
}

// KindOf returns the kind of the outermost *Error in the chain, or
// KindService for unclassified errors.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindService
}

// RetryAfter returns the retry delay carried by a rate-limit error.
func RetryAfter(err error) (time.Duration, bool) {
	var e *Error
	if errors.As(err, &e) && e.Kind == KindRateLimited {
		return e.RetryAfter, true
	}
	return 0, false
}

// HTTPStatus maps an error to a transport status code.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindInvalidRequest, KindInvalidFileFormat:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindBusy, KindInvalidState:
		return http.StatusConflict
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindMalformedResponse:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// UserMessage is the text shown to a person for err. Client-side problems
// keep their detail; upstream failures get a fixed retry hint.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	switch KindOf(err) {
	case KindRateLimited:
		d, _ := RetryAfter(err)
		return fmt.Sprintf("Rate limited by the model service. Wait %d seconds and try again.", int(d.Seconds()))
	case KindService:
		return "The model service failed. Try again."
	case KindMalformedResponse:
		return "The model returned an unusable answer. Try again."
	default:
		return err.Error()
	}
}
