package models

import (
	"fmt"
	"time"
)

// BookingStatus represents the lifecycle state of a booking
type BookingStatus string

const (
	BookingStatusActive    BookingStatus = "active"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Booking represents a bed reservation. Building/room/bed names are
// denormalized at booking time so the record stays readable even if the
// building is later renamed.
type Booking struct {
	ID           string        `json:"id" db:"id"`
	UserID       string        `json:"user_id" db:"user_id"`
	UserName     string        `json:"user_name" db:"user_name"`
	BuildingID   string        `json:"building_id" db:"building_id"`
	BuildingName string        `json:"building_name" db:"building_name"`
	RoomID       string        `json:"room_id" db:"room_id"`
	RoomNumber   string        `json:"room_number" db:"room_number"`
	BedID        string        `json:"bed_id" db:"bed_id"`
	BedNumber    int           `json:"bed_number" db:"bed_number"`
	BookingDate  time.Time     `json:"booking_date" db:"booking_date"`
	Status       BookingStatus `json:"status" db:"status"`
	CreatedAt    time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at" db:"updated_at"`
}

// IsActive reports whether the booking still occupies its bed
func (b *Booking) IsActive() bool {
	return b.Status == BookingStatusActive
}

// BookBedCommand carries everything the allocation engine needs to book a
// bed. Identity fields come from the authenticated session, never from a
// client-cached snapshot.
type BookBedCommand struct {
	UserID     string
	UserName   string
	UserEmail  string
	BuildingID string
	RoomID     string
	BedID      string
}

// Validate checks required fields
func (c *BookBedCommand) Validate() error {
	switch {
	case c.UserID == "":
		return fmt.Errorf("user id is required")
	case c.BuildingID == "":
		return fmt.Errorf("building id is required")
	case c.RoomID == "":
		return fmt.Errorf("room id is required")
	case c.BedID == "":
		return fmt.Errorf("bed id is required")
	}
	return nil
}

// CreateBookingRequest is the request body for POST /bookings
type CreateBookingRequest struct {
	BuildingID string `json:"building_id" binding:"required"`
	RoomID     string `json:"room_id" binding:"required"`
	BedID      string `json:"bed_id" binding:"required"`
}

// BookingFilter narrows the administrative bookings listing
type BookingFilter struct {
	BuildingID string
	RoomID     string
	Status     BookingStatus
}

// BookingResponse is the API envelope for a single booking
type BookingResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message,omitempty"`
	Booking *Booking `json:"booking,omitempty"`
	Error   string   `json:"error,omitempty"`
	Code    string   `json:"code,omitempty"`
}

// BookingsResponse is the API envelope for booking lists
type BookingsResponse struct {
	Success  bool      `json:"success"`
	Bookings []Booking `json:"bookings"`
	Error    string    `json:"error,omitempty"`
}
