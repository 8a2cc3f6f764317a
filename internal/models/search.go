package models

// BuildingSortBy selects the ordering of building listings
type BuildingSortBy string

const (
	SortByName         BuildingSortBy = "name"
	SortByAvailability BuildingSortBy = "availability"
	SortByOccupancy    BuildingSortBy = "occupancy"
)

// BuildingFilter narrows and orders the buildings listing. Zero values mean
// "no restriction"; SortBy defaults to name.
type BuildingFilter struct {
	Query            string
	RoomTypes        []RoomType
	Amenities        []string
	MinAvailableBeds int
	SortBy           BuildingSortBy
}

// HasRoomTypeFilter reports whether any room-type restriction is set
func (f *BuildingFilter) HasRoomTypeFilter() bool {
	return len(f.RoomTypes) > 0
}

// WantsRoomType reports whether t passes the room-type restriction
func (f *BuildingFilter) WantsRoomType(t RoomType) bool {
	for _, rt := range f.RoomTypes {
		if rt == t {
			return true
		}
	}
	return false
}
