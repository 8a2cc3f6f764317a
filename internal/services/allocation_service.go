package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/hostelhub/hostel-booking-backend/internal/models"
	"github.com/hostelhub/hostel-booking-backend/pkg/mailer"
)

// BuildingStore is the read surface the allocation engine needs from the
// building hierarchy.
type BuildingStore interface {
	GetByID(id string) (*models.Building, error)
	GetRoom(buildingID, roomID string) (*models.Room, error)
	GetBed(roomID, bedID string) (*models.Bed, error)
}

// BookingStore is the booking read/write surface. BookBed and CancelBooking
// must be atomic with at-most-one-winner semantics under races.
type BookingStore interface {
	GenerateBookingID(now time.Time) (string, error)
	GetByID(id string) (*models.Booking, error)
	GetActiveByUserID(userID string) (*models.Booking, error)
	BookBed(booking *models.Booking) (*models.Booking, error)
	CancelBooking(bookingID string, now time.Time) (*models.Booking, error)
}

// CancelBookingCommand identifies a cancellation request. UserID comes from
// the authenticated session and is checked against the booking owner.
type CancelBookingCommand struct {
	UserID    string
	UserEmail string
	BookingID string
}

// AllocationService is the single component permitted to mutate occupancy
// and booking state. It validates against live store state, executes the
// transition through the store's atomic primitives, and reports expected
// rule violations as tagged BookingErrors with state guaranteed unchanged.
type AllocationService struct {
	buildings BuildingStore
	bookings  BookingStore
	cache     *CacheService
	mailer    mailer.Mailer
	logger    *logrus.Logger
	now       func() time.Time
}

// NewAllocationService creates a new AllocationService
func NewAllocationService(
	buildings BuildingStore,
	bookings BookingStore,
	cache *CacheService,
	m mailer.Mailer,
	logger *logrus.Logger,
) *AllocationService {
	if m == nil {
		m = mailer.Noop{}
	}
	return &AllocationService{
		buildings: buildings,
		bookings:  bookings,
		cache:     cache,
		mailer:    m,
		logger:    logger,
		now:       time.Now,
	}
}

// BookBed books a bed for a user. Preconditions, first failure wins:
// building/room/bed exist, the user holds no active booking, the bed is
// free. The decisive checks run again inside the store transaction, so a
// stale read here can delay a rejection but never corrupt state.
func (s *AllocationService) BookBed(ctx context.Context, cmd models.BookBedCommand) (*models.Booking, error) {
	if err := cmd.Validate(); err != nil {
		return nil, &models.BookingError{Kind: models.ErrKindNotFound, Message: err.Error()}
	}

	building, err := s.buildings.GetByID(cmd.BuildingID)
	if err != nil {
		return nil, notFoundOrInternal(err, "building")
	}

	room, err := s.buildings.GetRoom(cmd.BuildingID, cmd.RoomID)
	if err != nil {
		return nil, notFoundOrInternal(err, "room")
	}

	bed, err := s.buildings.GetBed(cmd.RoomID, cmd.BedID)
	if err != nil {
		return nil, notFoundOrInternal(err, "bed")
	}

	existing, err := s.bookings.GetActiveByUserID(cmd.UserID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if existing != nil {
		return nil, models.NewAlreadyBookedError()
	}

	if bed.IsOccupied {
		return nil, models.NewBedUnavailableError()
	}

	now := s.now()
	bookingID, err := s.bookings.GenerateBookingID(now)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	booking := &models.Booking{
		ID:           bookingID,
		UserID:       cmd.UserID,
		UserName:     cmd.UserName,
		BuildingID:   building.ID,
		BuildingName: building.Name,
		RoomID:       room.ID,
		RoomNumber:   room.Number,
		BedID:        bed.ID,
		BedNumber:    bed.Number,
		BookingDate:  now,
		Status:       models.BookingStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.bookings.BookBed(booking)
	if err != nil {
		if be, ok := models.AsBookingError(err); ok {
			return nil, be
		}
		return nil, models.NewInternalError(err)
	}

	s.cache.InvalidateBuildings(ctx)

	s.logger.WithFields(logrus.Fields{
		"booking_id": created.ID,
		"user_id":    created.UserID,
		"building":   created.BuildingName,
		"room":       created.RoomNumber,
		"bed":        created.BedNumber,
	}).Info("Bed booked")

	s.notifyConfirmation(cmd.UserEmail, created)

	return created, nil
}

// CancelBooking cancels a user's booking. The transition is terminal; a
// repeated cancel reports AlreadyCancelled so client bugs are not masked by
// a silent success.
func (s *AllocationService) CancelBooking(ctx context.Context, cmd CancelBookingCommand) (*models.Booking, error) {
	booking, err := s.bookings.GetByID(cmd.BookingID)
	if err != nil {
		return nil, notFoundOrInternal(err, "booking")
	}

	if booking.UserID != cmd.UserID {
		return nil, models.NewForbiddenError()
	}

	cancelled, err := s.bookings.CancelBooking(cmd.BookingID, s.now())
	if err != nil {
		if be, ok := models.AsBookingError(err); ok {
			return nil, be
		}
		return nil, models.NewInternalError(err)
	}

	s.cache.InvalidateBuildings(ctx)

	s.logger.WithFields(logrus.Fields{
		"booking_id": cancelled.ID,
		"user_id":    cancelled.UserID,
		"bed":        cancelled.BedID,
	}).Info("Booking cancelled")

	s.notifyCancellation(cmd.UserEmail, cancelled)

	return cancelled, nil
}

// notifyConfirmation dispatches the confirmation email without blocking the
// request. Delivery failures are logged, never surfaced.
func (s *AllocationService) notifyConfirmation(email string, booking *models.Booking) {
	if email == "" {
		return
	}
	go func() {
		err := s.mailer.SendBookingConfirmation(email, mailer.BookingConfirmationData{
			StudentName:  booking.UserName,
			BuildingName: booking.BuildingName,
			RoomNumber:   booking.RoomNumber,
			BedNumber:    booking.BedNumber,
			BookingID:    booking.ID,
			BookingDate:  booking.BookingDate,
		})
		if err != nil {
			s.logger.WithError(err).WithField("booking_id", booking.ID).
				Warn("Failed to send booking confirmation email")
		}
	}()
}

func (s *AllocationService) notifyCancellation(email string, booking *models.Booking) {
	if email == "" {
		return
	}
	go func() {
		err := s.mailer.SendBookingCancellation(email, mailer.BookingCancellationData{
			StudentName:  booking.UserName,
			BuildingName: booking.BuildingName,
			RoomNumber:   booking.RoomNumber,
			BedNumber:    booking.BedNumber,
			BookingID:    booking.ID,
			CancelDate:   booking.UpdatedAt,
		})
		if err != nil {
			s.logger.WithError(err).WithField("booking_id", booking.ID).
				Warn("Failed to send booking cancellation email")
		}
	}()
}

// notFoundOrInternal maps a store read error to the taxonomy: missing rows
// become NotFound, everything else is Internal and never retried here.
func notFoundOrInternal(err error, what string) *models.BookingError {
	if errors.Is(err, sql.ErrNoRows) {
		return models.NewNotFoundError(what)
	}
	if be, ok := models.AsBookingError(err); ok {
		return be
	}
	return models.NewInternalError(err)
}
