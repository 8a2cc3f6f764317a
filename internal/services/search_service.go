package services

import (
	"context"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/hostelhub/hostel-booking-backend/internal/models"
)

// BuildingReader is the read surface the query layer needs from the
// building hierarchy.
type BuildingReader interface {
	GetAllWithRooms() ([]models.BuildingWithRooms, error)
	GetStats() (totalBuildings, totalBeds, availableBeds int, err error)
}

// BookingReader is the read surface the query layer needs from bookings.
type BookingReader interface {
	ListByUser(userID string) ([]models.Booking, error)
	ListAll(filter models.BookingFilter) ([]models.Booking, error)
	CountActive() (int, error)
}

// SearchService derives read-only views over the entity store. It never
// mutates occupancy state.
type SearchService struct {
	buildings BuildingReader
	bookings  BookingReader
	cache     *CacheService
	logger    *logrus.Logger
}

// NewSearchService creates a new SearchService
func NewSearchService(buildings BuildingReader, bookings BookingReader, cache *CacheService, logger *logrus.Logger) *SearchService {
	return &SearchService{buildings: buildings, bookings: bookings, cache: cache, logger: logger}
}

// ListBuildings returns the filtered, ordered buildings view with live
// occupancy. The unfiltered view is served read-through from the cache.
func (s *SearchService) ListBuildings(ctx context.Context, filter models.BuildingFilter) ([]models.BuildingWithRooms, error) {
	buildings, err := s.loadBuildings(ctx)
	if err != nil {
		return nil, err
	}

	filtered := make([]models.BuildingWithRooms, 0, len(buildings))
	for _, b := range buildings {
		if matchesFilter(&b, &filter) {
			filtered = append(filtered, b)
		}
	}

	sortBuildings(filtered, filter.SortBy)
	return filtered, nil
}

// ListBookingsForUser returns a user's bookings, newest first
func (s *SearchService) ListBookingsForUser(userID string) ([]models.Booking, error) {
	return s.bookings.ListByUser(userID)
}

// ListAllBookings returns bookings for administrative review
func (s *SearchService) ListAllBookings(filter models.BookingFilter) ([]models.Booking, error) {
	return s.bookings.ListAll(filter)
}

// Stats aggregates occupancy across the hostel
func (s *SearchService) Stats(ctx context.Context) (*models.HostelStats, error) {
	totalBuildings, totalBeds, availableBeds, err := s.buildings.GetStats()
	if err != nil {
		return nil, err
	}

	activeBookings, err := s.bookings.CountActive()
	if err != nil {
		return nil, err
	}

	stats := &models.HostelStats{
		TotalBuildings: totalBuildings,
		TotalBeds:      totalBeds,
		AvailableBeds:  availableBeds,
		ActiveBookings: activeBookings,
	}
	if totalBeds > 0 {
		stats.OccupancyRate = float64(totalBeds-availableBeds) / float64(totalBeds)
	}

	return stats, nil
}

func (s *SearchService) loadBuildings(ctx context.Context) ([]models.BuildingWithRooms, error) {
	if cached, ok := s.cache.GetBuildings(ctx); ok {
		return cached, nil
	}

	buildings, err := s.buildings.GetAllWithRooms()
	if err != nil {
		return nil, err
	}

	s.cache.SetBuildings(ctx, buildings)
	return buildings, nil
}

// matchesFilter applies the text query, room type, amenity and minimum
// availability restrictions to one building.
func matchesFilter(b *models.BuildingWithRooms, f *models.BuildingFilter) bool {
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		if !matchesQuery(b, q) {
			return false
		}
	}

	if f.HasRoomTypeFilter() {
		found := false
		for _, room := range b.Rooms {
			if f.WantsRoomType(room.Type) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	// Every selected amenity must be present on the building or one of its
	// rooms.
	for _, amenity := range f.Amenities {
		if !hasAmenity(b, amenity) {
			return false
		}
	}

	return b.AvailableBeds >= f.MinAvailableBeds
}

func matchesQuery(b *models.BuildingWithRooms, q string) bool {
	if strings.Contains(strings.ToLower(b.Name), q) ||
		strings.Contains(strings.ToLower(b.Description), q) {
		return true
	}
	for _, amenity := range b.Amenities {
		if strings.Contains(strings.ToLower(amenity), q) {
			return true
		}
	}
	return false
}

func hasAmenity(b *models.BuildingWithRooms, amenity string) bool {
	if b.Amenities.Contains(amenity) {
		return true
	}
	for _, room := range b.Rooms {
		if room.Amenities.Contains(amenity) {
			return true
		}
	}
	return false
}

// sortBuildings orders the listing. Sorts are stable so occupancy-rate ties
// keep their input order.
func sortBuildings(buildings []models.BuildingWithRooms, by models.BuildingSortBy) {
	switch by {
	case models.SortByAvailability:
		sort.SliceStable(buildings, func(i, j int) bool {
			return buildings[i].AvailableBeds > buildings[j].AvailableBeds
		})
	case models.SortByOccupancy:
		sort.SliceStable(buildings, func(i, j int) bool {
			return buildings[i].OccupancyRate() < buildings[j].OccupancyRate()
		})
	default:
		sort.SliceStable(buildings, func(i, j int) bool {
			return buildings[i].Name < buildings[j].Name
		})
	}
}
