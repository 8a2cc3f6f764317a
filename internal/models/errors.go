package models

import (
	"errors"
	"fmt"
)

// BookingErrorKind tags expected booking-rule violations so callers can
// render an accurate message instead of a generic failure.
type BookingErrorKind string

const (
	ErrKindNotFound         BookingErrorKind = "NOT_FOUND"
	ErrKindAlreadyBooked    BookingErrorKind = "ALREADY_BOOKED"
	ErrKindBedUnavailable   BookingErrorKind = "BED_UNAVAILABLE"
	ErrKindForbidden        BookingErrorKind = "FORBIDDEN"
	ErrKindAlreadyCancelled BookingErrorKind = "ALREADY_CANCELLED"
	ErrKindInternal         BookingErrorKind = "INTERNAL"
)

// BookingError is a tagged error returned by the allocation engine for
// expected business-rule violations. State is guaranteed unchanged when a
// non-Internal kind is returned.
type BookingError struct {
	Kind    BookingErrorKind
	Message string
	cause   error
}

// Error implements the error interface
func (e *BookingError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap exposes the underlying cause, if any
func (e *BookingError) Unwrap() error {
	return e.cause
}

// NewNotFoundError reports an absent building/room/bed/booking
func NewNotFoundError(what string) *BookingError {
	return &BookingError{Kind: ErrKindNotFound, Message: what + " not found"}
}

// NewAlreadyBookedError reports that the user already holds an active booking
func NewAlreadyBookedError() *BookingError {
	return &BookingError{
		Kind:    ErrKindAlreadyBooked,
		Message: "you already have an active booking; cancel it first to book a new bed",
	}
}

// NewBedUnavailableError reports that the bed was occupied at write time
func NewBedUnavailableError() *BookingError {
	return &BookingError{Kind: ErrKindBedUnavailable, Message: "this bed is already occupied"}
}

// NewForbiddenError reports an ownership mismatch on cancel
func NewForbiddenError() *BookingError {
	return &BookingError{Kind: ErrKindForbidden, Message: "booking belongs to another user"}
}

// NewAlreadyCancelledError reports a cancel on a booking that is no longer active
func NewAlreadyCancelledError() *BookingError {
	return &BookingError{Kind: ErrKindAlreadyCancelled, Message: "booking is already cancelled"}
}

// NewInternalError wraps an unexpected storage or transport failure
func NewInternalError(cause error) *BookingError {
	return &BookingError{Kind: ErrKindInternal, Message: "internal error", cause: cause}
}

// AsBookingError unwraps err into a *BookingError if it is one
func AsBookingError(err error) (*BookingError, bool) {
	var be *BookingError
	if errors.As(err, &be) {
		return be, true
	}
	return nil, false
}
