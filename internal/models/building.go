package models

import "time"

// RoomType classifies a room by its bed capacity
type RoomType string

const (
	RoomTypeSingle RoomType = "single"
	RoomTypeDouble RoomType = "double"
	RoomTypeTriple RoomType = "triple"
	RoomTypeQuad   RoomType = "quad"
)

// BedsForRoomType returns the bed capacity implied by a room type
func BedsForRoomType(t RoomType) int {
	switch t {
	case RoomTypeSingle:
		return 1
	case RoomTypeDouble:
		return 2
	case RoomTypeTriple:
		return 3
	case RoomTypeQuad:
		return 4
	default:
		return 0
	}
}

// ValidRoomType reports whether t is a known room type
func ValidRoomType(t RoomType) bool {
	return BedsForRoomType(t) > 0
}

// Building represents a hostel building. TotalBeds and AvailableBeds are
// maintained counters, always equal to the sums over the building's rooms.
type Building struct {
	ID            string     `json:"id" db:"id"`
	Name          string     `json:"name" db:"name"`
	Description   string     `json:"description" db:"description"`
	TotalRooms    int        `json:"total_rooms" db:"total_rooms"`
	TotalBeds     int        `json:"total_beds" db:"total_beds"`
	AvailableBeds int        `json:"available_beds" db:"available_beds"`
	Amenities     StringList `json:"amenities" db:"amenities"`
	Image         string     `json:"image" db:"image"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}

// OccupancyRate returns the occupied fraction of the building's beds.
// A building with no beds reports 0.
func (b *Building) OccupancyRate() float64 {
	if b.TotalBeds == 0 {
		return 0
	}
	return float64(b.TotalBeds-b.AvailableBeds) / float64(b.TotalBeds)
}

// Room represents a single room within a building
type Room struct {
	ID            string     `json:"id" db:"id"`
	BuildingID    string     `json:"building_id" db:"building_id"`
	Number        string     `json:"number" db:"number"`
	Type          RoomType   `json:"type" db:"type"`
	TotalBeds     int        `json:"total_beds" db:"total_beds"`
	AvailableBeds int        `json:"available_beds" db:"available_beds"`
	Amenities     StringList `json:"amenities" db:"amenities"`
	Price         float64    `json:"price" db:"price"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}

// Bed represents one bookable bed. OccupiedBy fields are set only while the
// bed is occupied.
type Bed struct {
	ID             string  `json:"id" db:"id"`
	RoomID         string  `json:"room_id" db:"room_id"`
	Number         int     `json:"number" db:"number"`
	IsOccupied     bool    `json:"is_occupied" db:"is_occupied"`
	OccupiedBy     *string `json:"occupied_by,omitempty" db:"occupied_by"`
	OccupiedByName *string `json:"occupied_by_name,omitempty" db:"occupied_by_name"`
}

// RoomWithBeds is a room with its beds nested
type RoomWithBeds struct {
	Room
	Beds []Bed `json:"beds"`
}

// BuildingWithRooms is a building with its rooms and beds nested
type BuildingWithRooms struct {
	Building
	Rooms []RoomWithBeds `json:"rooms"`
}

// HostelStats aggregates occupancy across every building
type HostelStats struct {
	TotalBuildings int     `json:"total_buildings"`
	TotalBeds      int     `json:"total_beds"`
	AvailableBeds  int     `json:"available_beds"`
	ActiveBookings int     `json:"active_bookings"`
	OccupancyRate  float64 `json:"occupancy_rate"`
}

// BuildingResponse is the API envelope for a single building
type BuildingResponse struct {
	Success  bool        `json:"success"`
	Message  string      `json:"message,omitempty"`
	Building interface{} `json:"building,omitempty"`
	Error    string      `json:"error,omitempty"`
}

// BuildingsResponse is the API envelope for building lists
type BuildingsResponse struct {
	Success   bool                `json:"success"`
	Buildings []BuildingWithRooms `json:"buildings"`
	Error     string              `json:"error,omitempty"`
}

// RoomResponse is the API envelope for a single room
type RoomResponse struct {
	Success bool          `json:"success"`
	Room    *RoomWithBeds `json:"room,omitempty"`
	Error   string        `json:"error,omitempty"`
}

// StatsResponse is the API envelope for hostel statistics
type StatsResponse struct {
	Success bool         `json:"success"`
	Stats   *HostelStats `json:"stats,omitempty"`
	Error   string       `json:"error,omitempty"`
}
