// Package apperr defines the closed set of failures the service layer can
// return. Callers switch on Kind instead of type-testing error values.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUserNotFound
	KindTransactionNotFound
	KindEmailAlreadyInUse
	KindForbidden
	KindInvalidToken
	KindUnauthorized
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUserNotFound:
		return "user_not_found"
	case KindTransactionNotFound:
		return "transaction_not_found"
	case KindEmailAlreadyInUse:
		return "email_already_in_use"
	case KindForbidden:
		return "forbidden"
	case KindInvalidToken:
		return "invalid_token"
	case KindUnauthorized:
		return "unauthorized"
	default:
		return "internal"
	}
}

// Error is the only error type returned by the service layer.
// Subject holds the offending id or email when the kind has one.
type Error struct {
	Kind    Kind
	Message string
	Subject string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Kind == KindInternal {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err, apperr.ErrForbidden)
// works regardless of subject.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Subject == "" || t.Subject == e.Subject)
}

// Kind sentinels for errors.Is.
var (
	ErrInternal            = &Error{Kind: KindInternal}
	ErrValidation          = &Error{Kind: KindValidation}
	ErrUserNotFound        = &Error{Kind: KindUserNotFound}
	ErrTransactionNotFound = &Error{Kind: KindTransactionNotFound}
	ErrEmailAlreadyInUse   = &Error{Kind: KindEmailAlreadyInUse}
	ErrForbidden           = &Error{Kind: KindForbidden}
	ErrInvalidToken        = &Error{Kind: KindInvalidToken}
	ErrUnauthorized        = &Error{Kind: KindUnauthorized}
)

// KindOf reports the kind of err. Anything that is not an *Error is internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

func UserNotFound(userID string) *Error {
	return &Error{Kind: KindUserNotFound, Message: "user not found", Subject: userID}
}

func TransactionNotFound(transactionID string) *Error {
	return &Error{Kind: KindTransactionNotFound, Message: "transaction not found", Subject: transactionID}
}

func EmailAlreadyInUse(email string) *Error {
	return &Error{
		Kind:    KindEmailAlreadyInUse,
		Message: fmt.Sprintf("the e-mail %s is already in use", email),
		Subject: email,
	}
}

func Forbidden() *Error {
	return &Error{Kind: KindForbidden, Message: "you are not allowed to perform this operation"}
}

func InvalidToken(err error) *Error {
	return &Error{Kind: KindInvalidToken, Message: "invalid or expired token", Err: err}
}

func Unauthorized(message string) *Error {
	return &Error{Kind: KindUnauthorized, Message: message}
}

// Internal wraps an unexpected failure. op names the operation that failed.
func Internal(op string, err error) *Error {
	return &Error{Kind: KindInternal, Message: op, Err: err}
}
