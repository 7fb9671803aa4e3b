// Package errs defines the structured error taxonomy shared by the service
// layer and the HTTP transport. Every failure the API can return carries a
// machine-readable Kind next to its human-readable message.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies an error for callers that need to branch on it
// (and for the HTTP layer to pick a status code).
type Kind string

const (
	KindValidation          Kind = "validation"
	KindNotFound            Kind = "not_found"
	KindMembership          Kind = "membership"
	KindSplitMismatch       Kind = "split_mismatch"
	KindPaymentNotConfirmed Kind = "payment_not_confirmed"
	KindOverpayment         Kind = "overpayment"
	KindAdapterUnavailable  Kind = "adapter_unavailable"
	KindInternal            Kind = "internal"
)

// Error is a structured domain error.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New creates an Error with the given kind and formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error that preserves the underlying cause for errors.Is/As.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// Validation reports malformed or missing input, naming the offending field.
func Validation(format string, args ...any) *Error {
	return New(KindValidation, format, args...)
}

// NotFound reports an unknown user, group or expense ID.
func NotFound(format string, args ...any) *Error {
	return New(KindNotFound, format, args...)
}

// Membership reports a participant or payer outside the expense's group.
func Membership(format string, args ...any) *Error {
	return New(KindMembership, format, args...)
}

// SplitMismatch reports supplied shares that do not sum to the total.
func SplitMismatch(format string, args ...any) *Error {
	return New(KindSplitMismatch, format, args...)
}

// PaymentNotConfirmed reports an external payment whose status is not succeeded.
func PaymentNotConfirmed(format string, args ...any) *Error {
	return New(KindPaymentNotConfirmed, format, args...)
}

// Overpayment reports a payment that would push AmountPaid past OwedAmount.
func Overpayment(format string, args ...any) *Error {
	return New(KindOverpayment, format, args...)
}

// AdapterUnavailable reports a failed or timed-out collaborator call.
func AdapterUnavailable(err error, format string, args ...any) *Error {
	return Wrap(KindAdapterUnavailable, err, format, args...)
}

// KindOf returns the Kind of err, or KindInternal if err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
