package database

import (
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/hostelhub/hostel-booking-backend/internal/models"
)

// BuildingRepository handles building/room/bed read operations. Occupancy
// mutation goes through BookingRepository so bed flips, counter updates and
// booking writes always share one transaction.
type BuildingRepository struct {
	db *sqlx.DB
}

// NewBuildingRepository creates a new BuildingRepository
func NewBuildingRepository(db *sqlx.DB) *BuildingRepository {
	return &BuildingRepository{db: db}
}

const buildingColumns = `id, name, description, total_rooms, total_beds, available_beds,
	amenities, image, created_at, updated_at`

const roomColumns = `id, building_id, number, type, total_beds, available_beds,
	amenities, price, created_at, updated_at`

const bedColumns = `id, room_id, number, is_occupied, occupied_by, occupied_by_name`

// GetAllWithRooms returns every building with its rooms and beds nested,
// buildings ordered by name, rooms by number, beds by bed number.
func (r *BuildingRepository) GetAllWithRooms() ([]models.BuildingWithRooms, error) {
	var buildings []models.Building
	err := r.db.Select(&buildings, fmt.Sprintf(
		`SELECT %s FROM buildings ORDER BY name`, buildingColumns))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch buildings: %w", err)
	}

	result := make([]models.BuildingWithRooms, 0, len(buildings))
	for _, b := range buildings {
		rooms, err := r.roomsForBuilding(b.ID)
		if err != nil {
			return nil, err
		}
		result = append(result, models.BuildingWithRooms{Building: b, Rooms: rooms})
	}

	return result, nil
}

// GetByID returns a building without its rooms
func (r *BuildingRepository) GetByID(id string) (*models.Building, error) {
	var building models.Building
	err := r.db.Get(&building, fmt.Sprintf(
		`SELECT %s FROM buildings WHERE id = $1`, buildingColumns), id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("failed to fetch building: %w", err)
	}
	return &building, nil
}

// GetByIDWithRooms returns a building with its rooms and beds nested
func (r *BuildingRepository) GetByIDWithRooms(id string) (*models.BuildingWithRooms, error) {
	building, err := r.GetByID(id)
	if err != nil {
		return nil, err
	}

	rooms, err := r.roomsForBuilding(building.ID)
	if err != nil {
		return nil, err
	}

	return &models.BuildingWithRooms{Building: *building, Rooms: rooms}, nil
}

// GetRoom returns a room scoped to its building
func (r *BuildingRepository) GetRoom(buildingID, roomID string) (*models.Room, error) {
	var room models.Room
	err := r.db.Get(&room, fmt.Sprintf(
		`SELECT %s FROM rooms WHERE id = $1 AND building_id = $2`, roomColumns),
		roomID, buildingID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("failed to fetch room: %w", err)
	}
	return &room, nil
}

// GetRoomWithBeds returns a room scoped to its building, with beds nested
func (r *BuildingRepository) GetRoomWithBeds(buildingID, roomID string) (*models.RoomWithBeds, error) {
	room, err := r.GetRoom(buildingID, roomID)
	if err != nil {
		return nil, err
	}

	beds, err := r.bedsForRoom(room.ID)
	if err != nil {
		return nil, err
	}

	return &models.RoomWithBeds{Room: *room, Beds: beds}, nil
}

// GetBed returns a bed scoped to its room
func (r *BuildingRepository) GetBed(roomID, bedID string) (*models.Bed, error) {
	var bed models.Bed
	err := r.db.Get(&bed, fmt.Sprintf(
		`SELECT %s FROM beds WHERE id = $1 AND room_id = $2`, bedColumns),
		bedID, roomID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("failed to fetch bed: %w", err)
	}
	return &bed, nil
}

// GetBedsByUserID returns all beds currently occupied by a user
func (r *BuildingRepository) GetBedsByUserID(userID string) ([]models.Bed, error) {
	var beds []models.Bed
	err := r.db.Select(&beds, fmt.Sprintf(
		`SELECT %s FROM beds WHERE occupied_by = $1 ORDER BY room_id, number`, bedColumns),
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch beds for user: %w", err)
	}
	return beds, nil
}

// GetStats aggregates building and bed totals across the hostel
func (r *BuildingRepository) GetStats() (totalBuildings, totalBeds, availableBeds int, err error) {
	row := r.db.QueryRow(`
		SELECT COUNT(*),
		       COALESCE(SUM(total_beds), 0),
		       COALESCE(SUM(available_beds), 0)
		FROM buildings`)
	if err := row.Scan(&totalBuildings, &totalBeds, &availableBeds); err != nil {
		return 0, 0, 0, fmt.Errorf("failed to aggregate building stats: %w", err)
	}
	return totalBuildings, totalBeds, availableBeds, nil
}

func (r *BuildingRepository) roomsForBuilding(buildingID string) ([]models.RoomWithBeds, error) {
	var rooms []models.Room
	err := r.db.Select(&rooms, fmt.Sprintf(
		`SELECT %s FROM rooms WHERE building_id = $1 ORDER BY number`, roomColumns),
		buildingID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch rooms for building %s: %w", buildingID, err)
	}

	result := make([]models.RoomWithBeds, 0, len(rooms))
	for _, room := range rooms {
		beds, err := r.bedsForRoom(room.ID)
		if err != nil {
			return nil, err
		}
		result = append(result, models.RoomWithBeds{Room: room, Beds: beds})
	}

	return result, nil
}

func (r *BuildingRepository) bedsForRoom(roomID string) ([]models.Bed, error) {
	var beds []models.Bed
	err := r.db.Select(&beds, fmt.Sprintf(
		`SELECT %s FROM beds WHERE room_id = $1 ORDER BY number`, bedColumns),
		roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch beds for room %s: %w", roomID, err)
	}
	return beds, nil
}
