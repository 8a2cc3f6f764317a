package database

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/hostelhub/hostel-booking-backend/internal/models"
)

// BookingRepository handles booking database operations. BookBed and
// CancelBooking are the only writers of occupancy state: the bed flip, the
// booking row and the available-bed counters always change in one
// transaction, so the aggregate counts can never diverge from the beds.
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository creates a new BookingRepository
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

const bookingColumns = `id, user_id, user_name, building_id, building_name,
	room_id, room_number, bed_id, bed_number, booking_date, status,
	created_at, updated_at`

// GenerateBookingID generates a unique booking id.
// Format: BK-YYYYMMDDHHMMSS-XXXXXX (6 char alphanumeric)
// Example: BK-20260115093042-A1B2C3
func (r *BookingRepository) GenerateBookingID(now time.Time) (string, error) {
	timestampStr := now.Format("20060102150405")

	for attempts := 0; attempts < 10; attempts++ {
		randomBytes := make([]byte, 3)
		if _, err := rand.Read(randomBytes); err != nil {
			return "", fmt.Errorf("failed to generate random bytes: %w", err)
		}
		randomStr := strings.ToUpper(hex.EncodeToString(randomBytes))

		newID := fmt.Sprintf("BK-%s-%s", timestampStr, randomStr)

		var count int
		err := r.db.Get(&count, `SELECT COUNT(*) FROM bookings WHERE id = $1`, newID)
		if err != nil {
			return "", fmt.Errorf("failed to check booking id uniqueness: %w", err)
		}

		if count == 0 {
			return newID, nil
		}
	}

	return "", fmt.Errorf("failed to generate unique booking id after 10 attempts")
}

// GetByID retrieves a booking by id
func (r *BookingRepository) GetByID(id string) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.Get(&booking, fmt.Sprintf(
		`SELECT %s FROM bookings WHERE id = $1`, bookingColumns), id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("failed to fetch booking: %w", err)
	}
	return &booking, nil
}

// GetActiveByUserID retrieves the user's active booking, or nil when the
// user holds none.
func (r *BookingRepository) GetActiveByUserID(userID string) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.Get(&booking, fmt.Sprintf(
		`SELECT %s FROM bookings WHERE user_id = $1 AND status = 'active'`, bookingColumns),
		userID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch active booking: %w", err)
	}
	return &booking, nil
}

// ListByUser retrieves all bookings for a user, newest first
func (r *BookingRepository) ListByUser(userID string) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.db.Select(&bookings, fmt.Sprintf(
		`SELECT %s FROM bookings WHERE user_id = $1 ORDER BY booking_date DESC`, bookingColumns),
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user bookings: %w", err)
	}
	return bookings, nil
}

// ListAll retrieves bookings for administrative review, optionally narrowed
// by building, room and status, newest first.
func (r *BookingRepository) ListAll(filter models.BookingFilter) ([]models.Booking, error) {
	query := fmt.Sprintf(`SELECT %s FROM bookings`, bookingColumns)
	var conditions []string
	var args []interface{}

	if filter.BuildingID != "" {
		args = append(args, filter.BuildingID)
		conditions = append(conditions, fmt.Sprintf("building_id = $%d", len(args)))
	}
	if filter.RoomID != "" {
		args = append(args, filter.RoomID)
		conditions = append(conditions, fmt.Sprintf("room_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY booking_date DESC"

	var bookings []models.Booking
	if err := r.db.Select(&bookings, query, args...); err != nil {
		return nil, fmt.Errorf("failed to fetch bookings: %w", err)
	}
	return bookings, nil
}

// CountActive counts active bookings across the hostel
func (r *BookingRepository) CountActive() (int, error) {
	var count int
	err := r.db.Get(&count, `SELECT COUNT(*) FROM bookings WHERE status = 'active'`)
	if err != nil {
		return 0, fmt.Errorf("failed to count active bookings: %w", err)
	}
	return count, nil
}

// BookBed atomically creates an active booking for the given bed. The bed
// row is locked and flipped with a conditional update, so when two requests
// race for the same bed exactly one commits; the loser gets BedUnavailable.
// The per-user rule is checked under the same lock and backed by a partial
// unique index.
func (r *BookingRepository) BookBed(booking *models.Booking) (*models.Booking, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Lock the bed row and re-validate it belongs to the requested
	// room/building. Decisions are made on locked state, never on a
	// client-cached snapshot.
	var bedNumber int
	var isOccupied bool
	err = tx.QueryRow(`
		SELECT b.number, b.is_occupied
		FROM beds b
		JOIN rooms r ON r.id = b.room_id
		WHERE b.id = $1 AND b.room_id = $2 AND r.building_id = $3
		FOR UPDATE OF b`,
		booking.BedID, booking.RoomID, booking.BuildingID,
	).Scan(&bedNumber, &isOccupied)
	if err == sql.ErrNoRows {
		return nil, models.NewNotFoundError("bed")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock bed: %w", err)
	}

	var existingID string
	err = tx.Get(&existingID,
		`SELECT id FROM bookings WHERE user_id = $1 AND status = 'active'`,
		booking.UserID)
	if err == nil {
		return nil, models.NewAlreadyBookedError()
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to check existing booking: %w", err)
	}

	if isOccupied {
		return nil, models.NewBedUnavailableError()
	}

	res, err := tx.Exec(`
		UPDATE beds
		SET is_occupied = TRUE, occupied_by = $1, occupied_by_name = $2
		WHERE id = $3 AND is_occupied = FALSE`,
		booking.UserID, booking.UserName, booking.BedID)
	if err != nil {
		return nil, fmt.Errorf("failed to occupy bed: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return nil, models.NewBedUnavailableError()
	}

	booking.BedNumber = bedNumber
	booking.Status = models.BookingStatusActive

	_, err = tx.Exec(`
		INSERT INTO bookings (
			id, user_id, user_name, building_id, building_name,
			room_id, room_number, bed_id, bed_number, booking_date,
			status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		booking.ID, booking.UserID, booking.UserName, booking.BuildingID, booking.BuildingName,
		booking.RoomID, booking.RoomNumber, booking.BedID, booking.BedNumber, booking.BookingDate,
		booking.Status, booking.CreatedAt, booking.UpdatedAt)
	if err != nil {
		// Two transactions can pass the in-tx active-booking check before
		// either commits; the partial unique indexes decide the loser.
		if bookingErr := uniqueViolationError(err); bookingErr != nil {
			return nil, bookingErr
		}
		return nil, fmt.Errorf("failed to insert booking: %w", err)
	}

	if err := adjustAvailability(tx, booking.RoomID, booking.BuildingID, -1); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit booking transaction: %w", err)
	}

	return booking, nil
}

// uniqueViolationError translates a unique-index violation on bookings into
// the rule the index enforces. Any other error yields nil.
func uniqueViolationError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != "23505" {
		return nil
	}
	switch pqErr.Constraint {
	case "idx_bookings_one_active_per_user":
		return models.NewAlreadyBookedError()
	case "idx_bookings_one_active_per_bed":
		return models.NewBedUnavailableError()
	}
	return nil
}

// CancelBooking atomically transitions a booking from active to cancelled
// and releases its bed. The transition is conditional on the booking still
// being active; a second cancel finds zero affected rows and reports
// AlreadyCancelled without touching the bed or the counters.
func (r *BookingRepository) CancelBooking(bookingID string, now time.Time) (*models.Booking, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var booking models.Booking
	err = tx.Get(&booking, fmt.Sprintf(
		`SELECT %s FROM bookings WHERE id = $1 FOR UPDATE`, bookingColumns), bookingID)
	if err == sql.ErrNoRows {
		return nil, models.NewNotFoundError("booking")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock booking: %w", err)
	}

	if booking.Status != models.BookingStatusActive {
		return nil, models.NewAlreadyCancelledError()
	}

	res, err := tx.Exec(`
		UPDATE bookings
		SET status = 'cancelled', updated_at = $1
		WHERE id = $2 AND status = 'active'`,
		now, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel booking: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return nil, models.NewAlreadyCancelledError()
	}

	res, err = tx.Exec(`
		UPDATE beds
		SET is_occupied = FALSE, occupied_by = NULL, occupied_by_name = NULL
		WHERE id = $1 AND is_occupied = TRUE`,
		booking.BedID)
	if err != nil {
		return nil, fmt.Errorf("failed to release bed: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows != 1 {
		// An active booking always has an occupied bed; anything else is
		// corrupted state and must not be committed.
		return nil, fmt.Errorf("bed %s was not occupied while booking %s was active", booking.BedID, bookingID)
	}

	if err := adjustAvailability(tx, booking.RoomID, booking.BuildingID, +1); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit cancel transaction: %w", err)
	}

	booking.Status = models.BookingStatusCancelled
	booking.UpdatedAt = now
	return &booking, nil
}

// adjustAvailability moves the room and building available-bed counters by
// delta inside the caller's transaction. The CHECK constraints on both
// tables reject any drift outside [0, total_beds].
func adjustAvailability(tx *sqlx.Tx, roomID, buildingID string, delta int) error {
	_, err := tx.Exec(`
		UPDATE rooms
		SET available_beds = available_beds + $1, updated_at = NOW()
		WHERE id = $2`,
		delta, roomID)
	if err != nil {
		return fmt.Errorf("failed to update room availability: %w", err)
	}

	_, err = tx.Exec(`
		UPDATE buildings
		SET available_beds = available_beds + $1, updated_at = NOW()
		WHERE id = $2`,
		delta, buildingID)
	if err != nil {
		return fmt.Errorf("failed to update building availability: %w", err)
	}

	return nil
}
