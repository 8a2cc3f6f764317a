package services

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostelhub/hostel-booking-backend/internal/models"
	"github.com/hostelhub/hostel-booking-backend/pkg/mailer"
)

// fakeStore is an in-memory BuildingStore and BookingStore with the same
// atomicity guarantees as the database layer: every decision and mutation
// happens under one lock, so at most one of two racing bookings commits.
type fakeStore struct {
	mu        sync.Mutex
	buildings map[string]*models.Building
	rooms     map[string]*models.Room
	beds      map[string]*models.Bed
	bookings  map[string]*models.Booking
	seq       int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		buildings: make(map[string]*models.Building),
		rooms:     make(map[string]*models.Room),
		beds:      make(map[string]*models.Bed),
		bookings:  make(map[string]*models.Booking),
	}
}

// addBuilding seeds one building with a single room holding bedCount beds
func (f *fakeStore) addBuilding(buildingID, name, roomID string, bedCount int) {
	f.buildings[buildingID] = &models.Building{
		ID:            buildingID,
		Name:          name,
		TotalRooms:    1,
		TotalBeds:     bedCount,
		AvailableBeds: bedCount,
	}
	f.rooms[roomID] = &models.Room{
		ID:            roomID,
		BuildingID:    buildingID,
		Number:        "001",
		Type:          models.RoomTypeDouble,
		TotalBeds:     bedCount,
		AvailableBeds: bedCount,
	}
	for i := 1; i <= bedCount; i++ {
		bedID := fmt.Sprintf("%s-bed-%d", roomID, i)
		f.beds[bedID] = &models.Bed{ID: bedID, RoomID: roomID, Number: i}
	}
}

func (f *fakeStore) GetByID(id string) (*models.Building, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.buildings[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *b
	return &copied, nil
}

func (f *fakeStore) GetRoom(buildingID, roomID string) (*models.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rooms[roomID]
	if !ok || r.BuildingID != buildingID {
		return nil, sql.ErrNoRows
	}
	copied := *r
	return &copied, nil
}

func (f *fakeStore) GetBed(roomID, bedID string) (*models.Bed, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.beds[bedID]
	if !ok || b.RoomID != roomID {
		return nil, sql.ErrNoRows
	}
	copied := *b
	return &copied, nil
}

func (f *fakeStore) GenerateBookingID(now time.Time) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	return fmt.Sprintf("BK-%s-%06d", now.Format("20060102150405"), f.seq), nil
}

func (f *fakeStore) GetActiveByUserID(userID string) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.activeByUserLocked(userID), nil
}

func (f *fakeStore) activeByUserLocked(userID string) *models.Booking {
	for _, b := range f.bookings {
		if b.UserID == userID && b.Status == models.BookingStatusActive {
			copied := *b
			return &copied
		}
	}
	return nil
}

func (f *fakeStore) BookBed(booking *models.Booking) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	bed, ok := f.beds[booking.BedID]
	if !ok || bed.RoomID != booking.RoomID {
		return nil, models.NewNotFoundError("bed")
	}
	if f.activeByUserLocked(booking.UserID) != nil {
		return nil, models.NewAlreadyBookedError()
	}
	if bed.IsOccupied {
		return nil, models.NewBedUnavailableError()
	}

	bed.IsOccupied = true
	bed.OccupiedBy = &booking.UserID
	bed.OccupiedByName = &booking.UserName
	f.rooms[booking.RoomID].AvailableBeds--
	f.buildings[booking.BuildingID].AvailableBeds--

	copied := *booking
	f.bookings[booking.ID] = &copied
	result := copied
	return &result, nil
}

func (f *fakeStore) CancelBooking(bookingID string, now time.Time) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	booking, ok := f.bookings[bookingID]
	if !ok {
		return nil, models.NewNotFoundError("booking")
	}
	if booking.Status != models.BookingStatusActive {
		return nil, models.NewAlreadyCancelledError()
	}

	booking.Status = models.BookingStatusCancelled
	booking.UpdatedAt = now
	bed := f.beds[booking.BedID]
	bed.IsOccupied = false
	bed.OccupiedBy = nil
	bed.OccupiedByName = nil
	f.rooms[booking.RoomID].AvailableBeds++
	f.buildings[booking.BuildingID].AvailableBeds++

	copied := *booking
	return &copied, nil
}

// bookingStoreAdapter satisfies BookingStore's GetByID using the fake's
// booking map.
type bookingStoreAdapter struct {
	*fakeStore
}

func (a bookingStoreAdapter) GetByID(id string) (*models.Booking, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	b, ok := a.bookings[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *b
	return &copied, nil
}

func newTestService(store *fakeStore) *AllocationService {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewAllocationService(store, bookingStoreAdapter{store}, nil, mailer.Noop{}, logger)
}

func bookCmd(userID, bedID string) models.BookBedCommand {
	return models.BookBedCommand{
		UserID:     userID,
		UserName:   "User " + userID,
		UserEmail:  userID + "@example.com",
		BuildingID: "bldg-1",
		RoomID:     "room-1",
		BedID:      bedID,
	}
}

func TestBookBedSuccess(t *testing.T) {
	store := newFakeStore()
	store.addBuilding("bldg-1", "RK A", "room-1", 2)
	svc := newTestService(store)

	booking, err := svc.BookBed(context.Background(), bookCmd("user-1", "room-1-bed-1"))
	require.NoError(t, err)
	require.NotNil(t, booking)

	assert.Equal(t, models.BookingStatusActive, booking.Status)
	assert.Equal(t, "RK A", booking.BuildingName)
	assert.Equal(t, "001", booking.RoomNumber)
	assert.Equal(t, 1, booking.BedNumber)
	assert.NotEmpty(t, booking.ID)

	assert.True(t, store.beds["room-1-bed-1"].IsOccupied)
	assert.Equal(t, 1, store.rooms["room-1"].AvailableBeds)
	assert.Equal(t, 1, store.buildings["bldg-1"].AvailableBeds)
}

func TestBookBedNotFound(t *testing.T) {
	store := newFakeStore()
	store.addBuilding("bldg-1", "RK A", "room-1", 2)
	svc := newTestService(store)

	tests := []struct {
		name string
		cmd  models.BookBedCommand
	}{
		{"Unknown Building", models.BookBedCommand{UserID: "u", BuildingID: "bldg-404", RoomID: "room-1", BedID: "room-1-bed-1"}},
		{"Unknown Room", models.BookBedCommand{UserID: "u", BuildingID: "bldg-1", RoomID: "room-404", BedID: "room-1-bed-1"}},
		{"Unknown Bed", bookCmd("u", "room-1-bed-404")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			booking, err := svc.BookBed(context.Background(), tt.cmd)
			assert.Nil(t, booking)
			bookingErr, ok := models.AsBookingError(err)
			require.True(t, ok)
			assert.Equal(t, models.ErrKindNotFound, bookingErr.Kind)
		})
	}

	// Failed attempts must leave availability untouched
	assert.Equal(t, 2, store.buildings["bldg-1"].AvailableBeds)
}

func TestBookBedSecondBookingRejected(t *testing.T) {
	store := newFakeStore()
	store.addBuilding("bldg-1", "RK A", "room-1", 2)
	svc := newTestService(store)

	_, err := svc.BookBed(context.Background(), bookCmd("user-1", "room-1-bed-1"))
	require.NoError(t, err)

	booking, err := svc.BookBed(context.Background(), bookCmd("user-1", "room-1-bed-2"))
	assert.Nil(t, booking)
	bookingErr, ok := models.AsBookingError(err)
	require.True(t, ok)
	assert.Equal(t, models.ErrKindAlreadyBooked, bookingErr.Kind)

	assert.False(t, store.beds["room-1-bed-2"].IsOccupied)
	assert.Equal(t, 1, store.buildings["bldg-1"].AvailableBeds)
}

func TestBookBedOccupiedRejected(t *testing.T) {
	store := newFakeStore()
	store.addBuilding("bldg-1", "RK A", "room-1", 2)
	svc := newTestService(store)

	_, err := svc.BookBed(context.Background(), bookCmd("user-1", "room-1-bed-1"))
	require.NoError(t, err)

	booking, err := svc.BookBed(context.Background(), bookCmd("user-2", "room-1-bed-1"))
	assert.Nil(t, booking)
	bookingErr, ok := models.AsBookingError(err)
	require.True(t, ok)
	assert.Equal(t, models.ErrKindBedUnavailable, bookingErr.Kind)
}

func TestBookBedRaceHasOneWinner(t *testing.T) {
	store := newFakeStore()
	store.addBuilding("bldg-1", "RK A", "room-1", 1)
	svc := newTestService(store)

	const racers = 8
	var wg sync.WaitGroup
	errs := make([]error, racers)

	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			userID := fmt.Sprintf("user-%d", i)
			_, errs[i] = svc.BookBed(context.Background(), bookCmd(userID, "room-1-bed-1"))
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
			continue
		}
		bookingErr, ok := models.AsBookingError(err)
		require.True(t, ok)
		assert.Equal(t, models.ErrKindBedUnavailable, bookingErr.Kind)
	}

	assert.Equal(t, 1, winners)
	assert.Equal(t, 0, store.buildings["bldg-1"].AvailableBeds)
	assert.Equal(t, 0, store.rooms["room-1"].AvailableBeds)
}

func TestSameUserRaceHoldsOneBooking(t *testing.T) {
	store := newFakeStore()
	store.addBuilding("bldg-1", "RK A", "room-1", 4)
	svc := newTestService(store)

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			bedID := fmt.Sprintf("room-1-bed-%d", i+1)
			_, errs[i] = svc.BookBed(context.Background(), bookCmd("user-1", bedID))
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		}
	}

	assert.Equal(t, 1, winners)
	assert.Equal(t, 3, store.buildings["bldg-1"].AvailableBeds)
}

func TestCancelBooking(t *testing.T) {
	store := newFakeStore()
	store.addBuilding("bldg-1", "RK A", "room-1", 2)
	svc := newTestService(store)

	booking, err := svc.BookBed(context.Background(), bookCmd("user-1", "room-1-bed-1"))
	require.NoError(t, err)

	t.Run("Forbidden For Non Owner", func(t *testing.T) {
		cancelled, err := svc.CancelBooking(context.Background(), CancelBookingCommand{
			UserID:    "user-2",
			BookingID: booking.ID,
		})
		assert.Nil(t, cancelled)
		bookingErr, ok := models.AsBookingError(err)
		require.True(t, ok)
		assert.Equal(t, models.ErrKindForbidden, bookingErr.Kind)
		assert.True(t, store.beds["room-1-bed-1"].IsOccupied)
	})

	t.Run("Success Releases Bed", func(t *testing.T) {
		cancelled, err := svc.CancelBooking(context.Background(), CancelBookingCommand{
			UserID:    "user-1",
			BookingID: booking.ID,
		})
		require.NoError(t, err)
		assert.Equal(t, models.BookingStatusCancelled, cancelled.Status)

		assert.False(t, store.beds["room-1-bed-1"].IsOccupied)
		assert.Nil(t, store.beds["room-1-bed-1"].OccupiedBy)
		assert.Equal(t, 2, store.rooms["room-1"].AvailableBeds)
		assert.Equal(t, 2, store.buildings["bldg-1"].AvailableBeds)
	})

	t.Run("Second Cancel Rejected", func(t *testing.T) {
		cancelled, err := svc.CancelBooking(context.Background(), CancelBookingCommand{
			UserID:    "user-1",
			BookingID: booking.ID,
		})
		assert.Nil(t, cancelled)
		bookingErr, ok := models.AsBookingError(err)
		require.True(t, ok)
		assert.Equal(t, models.ErrKindAlreadyCancelled, bookingErr.Kind)

		// Counters must not drift past the totals
		assert.Equal(t, 2, store.buildings["bldg-1"].AvailableBeds)
	})

	t.Run("Unknown Booking", func(t *testing.T) {
		cancelled, err := svc.CancelBooking(context.Background(), CancelBookingCommand{
			UserID:    "user-1",
			BookingID: "BK-missing",
		})
		assert.Nil(t, cancelled)
		bookingErr, ok := models.AsBookingError(err)
		require.True(t, ok)
		assert.Equal(t, models.ErrKindNotFound, bookingErr.Kind)
	})
}

func TestCancelThenRebookSameBed(t *testing.T) {
	store := newFakeStore()
	store.addBuilding("bldg-1", "RK A", "room-1", 1)
	svc := newTestService(store)

	first, err := svc.BookBed(context.Background(), bookCmd("user-1", "room-1-bed-1"))
	require.NoError(t, err)

	_, err = svc.BookBed(context.Background(), bookCmd("user-2", "room-1-bed-1"))
	bookingErr, ok := models.AsBookingError(err)
	require.True(t, ok)
	assert.Equal(t, models.ErrKindBedUnavailable, bookingErr.Kind)

	_, err = svc.CancelBooking(context.Background(), CancelBookingCommand{
		UserID:    "user-1",
		BookingID: first.ID,
	})
	require.NoError(t, err)

	second, err := svc.BookBed(context.Background(), bookCmd("user-2", "room-1-bed-1"))
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusActive, second.Status)
	assert.Equal(t, 0, store.buildings["bldg-1"].AvailableBeds)

	// The same user can book again after cancelling
	_, err = svc.CancelBooking(context.Background(), CancelBookingCommand{
		UserID:    "user-2",
		BookingID: second.ID,
	})
	require.NoError(t, err)

	third, err := svc.BookBed(context.Background(), bookCmd("user-1", "room-1-bed-1"))
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, third.ID)
}
