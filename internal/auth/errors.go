package auth

import (
	"errors"
	"net/http"
)

// Kind classifies resolution failures.
type Kind int

const (
	// KindUnauthenticated is a missing, invalid or expired credential.
	KindUnauthenticated Kind = iota + 1
	// KindBadRequest is a valid identity without a resolvable tenant.
	KindBadRequest
	// KindForbidden is a valid identity with insufficient privileges.
	KindForbidden
	// KindInternal is a persistence or otherwise unexpected failure.
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindBadRequest:
		return "bad_request"
	case KindForbidden:
		return "forbidden"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Status returns the HTTP status code of the kind.
func (k Kind) Status() int {
	switch k {
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindBadRequest:
		return http.StatusBadRequest
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified resolution failure. Detail is safe to show to the caller.
type Error struct {
	Kind   Kind
	Detail string
	Cause  error
}

// Sentinels for errors.Is, they match every *Error of their kind.
var (
	ErrUnauthenticated = &Error{Kind: KindUnauthenticated}
	ErrBadRequest      = &Error{Kind: KindBadRequest}
	ErrForbidden       = &Error{Kind: KindForbidden}
	ErrInternal        = &Error{Kind: KindInternal}
)

// ErrMissingIssuanceSecret is returned by the Provisioner in hosted mode without a secret.
var ErrMissingIssuanceSecret = errors.New("missing issuance secret key in hosted mode")

func (e *Error) Error() string {
	if e.Detail == "" {
		return e.Kind.String()
	}

	return e.Detail
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches sentinels by kind and other errors by kind and detail.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	return t.Kind == e.Kind && (t.Detail == "" || t.Detail == e.Detail)
}

// Status returns the HTTP status code for the error.
func (e *Error) Status() int {
	return e.Kind.Status()
}

// Unauthenticated creates a KindUnauthenticated error.
func Unauthenticated(detail string) *Error {
	return &Error{Kind: KindUnauthenticated, Detail: detail}
}

// BadRequest creates a KindBadRequest error.
func BadRequest(detail string) *Error {
	return &Error{Kind: KindBadRequest, Detail: detail}
}

// Forbidden creates a KindForbidden error.
func Forbidden(detail string) *Error {
	return &Error{Kind: KindForbidden, Detail: detail}
}

// Internal creates a KindInternal error. The detail is prefix followed by the cause.
func Internal(prefix string, cause error) *Error {
	detail := prefix
	if cause != nil {
		detail = prefix + ": " + cause.Error()
	}

	return &Error{Kind: KindInternal, Detail: detail, Cause: cause}
}

// KindOf returns the kind of err, KindInternal for errors outside the taxonomy.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return KindInternal
}
