package mailer

import "time"

// Mailer sends booking lifecycle notifications. Implementations must be
// safe for concurrent use.
type Mailer interface {
	SendBookingConfirmation(to string, data BookingConfirmationData) error
	SendBookingCancellation(to string, data BookingCancellationData) error
}

// BookingConfirmationData holds data for the booking confirmation email
type BookingConfirmationData struct {
	StudentName  string
	BuildingName string
	RoomNumber   string
	BedNumber    int
	BookingID    string
	BookingDate  time.Time
}

// BookingCancellationData holds data for the booking cancellation email
type BookingCancellationData struct {
	StudentName  string
	BuildingName string
	RoomNumber   string
	BedNumber    int
	BookingID    string
	CancelDate   time.Time
}

// Noop is a Mailer that silently drops every message. Used in development
// and in tests.
type Noop struct{}

// SendBookingConfirmation implements Mailer
func (Noop) SendBookingConfirmation(string, BookingConfirmationData) error { return nil }

// SendBookingCancellation implements Mailer
func (Noop) SendBookingCancellation(string, BookingCancellationData) error { return nil }
