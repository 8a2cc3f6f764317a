package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/hostelhub/hostel-booking-backend/internal/database"
	"github.com/hostelhub/hostel-booking-backend/internal/models"
	"github.com/hostelhub/hostel-booking-backend/internal/services"
)

// BuildingHandler handles building and room browsing requests
type BuildingHandler struct {
	searchService *services.SearchService
	buildingRepo  *database.BuildingRepository
	logger        *logrus.Logger
}

// NewBuildingHandler creates a new building handler
func NewBuildingHandler(searchService *services.SearchService, buildingRepo *database.BuildingRepository, logger *logrus.Logger) *BuildingHandler {
	return &BuildingHandler{
		searchService: searchService,
		buildingRepo:  buildingRepo,
		logger:        logger,
	}
}

// ListBuildings handles GET /api/v1/buildings
//
// Query parameters:
//
//	search    - substring match on name, description or amenities
//	room_type - comma-separated room types; buildings need at least one match
//	amenities - comma-separated amenities; every one must be present
//	min_beds  - minimum available beds
//	sort      - name (default), availability or occupancy
func (h *BuildingHandler) ListBuildings(c *gin.Context) {
	filter, err := parseBuildingFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.BuildingsResponse{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	buildings, err := h.searchService.ListBuildings(c.Request.Context(), filter)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list buildings")
		c.JSON(http.StatusInternalServerError, models.BuildingsResponse{
			Success: false,
			Error:   "Failed to fetch buildings",
		})
		return
	}

	c.JSON(http.StatusOK, models.BuildingsResponse{
		Success:   true,
		Buildings: buildings,
	})
}

// GetBuilding handles GET /api/v1/buildings/:id
func (h *BuildingHandler) GetBuilding(c *gin.Context) {
	id := c.Param("id")

	building, err := h.buildingRepo.GetByIDWithRooms(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, models.BuildingResponse{
				Success: false,
				Error:   "Building not found",
			})
			return
		}
		h.logger.WithError(err).WithField("building_id", id).Error("Failed to fetch building")
		c.JSON(http.StatusInternalServerError, models.BuildingResponse{
			Success: false,
			Error:   "Failed to fetch building",
		})
		return
	}

	c.JSON(http.StatusOK, models.BuildingResponse{
		Success:  true,
		Building: building,
	})
}

// GetRoom handles GET /api/v1/buildings/:id/rooms/:roomId
func (h *BuildingHandler) GetRoom(c *gin.Context) {
	buildingID := c.Param("id")
	roomID := c.Param("roomId")

	room, err := h.buildingRepo.GetRoomWithBeds(buildingID, roomID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, models.RoomResponse{
				Success: false,
				Error:   "Room not found",
			})
			return
		}
		h.logger.WithError(err).WithFields(logrus.Fields{
			"building_id": buildingID,
			"room_id":     roomID,
		}).Error("Failed to fetch room")
		c.JSON(http.StatusInternalServerError, models.RoomResponse{
			Success: false,
			Error:   "Failed to fetch room",
		})
		return
	}

	c.JSON(http.StatusOK, models.RoomResponse{
		Success: true,
		Room:    room,
	})
}

// GetStats handles GET /api/v1/stats
func (h *BuildingHandler) GetStats(c *gin.Context) {
	stats, err := h.searchService.Stats(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to compute stats")
		c.JSON(http.StatusInternalServerError, models.StatsResponse{
			Success: false,
			Error:   "Failed to fetch statistics",
		})
		return
	}

	c.JSON(http.StatusOK, models.StatsResponse{
		Success: true,
		Stats:   stats,
	})
}

func parseBuildingFilter(c *gin.Context) (models.BuildingFilter, error) {
	filter := models.BuildingFilter{
		Query:  strings.TrimSpace(c.Query("search")),
		SortBy: models.SortByName,
	}

	if raw := c.Query("room_type"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			rt := models.RoomType(strings.ToLower(strings.TrimSpace(part)))
			if rt == "" {
				continue
			}
			if !models.ValidRoomType(rt) {
				return filter, errors.New("invalid room type: " + string(rt))
			}
			filter.RoomTypes = append(filter.RoomTypes, rt)
		}
	}

	if raw := c.Query("amenities"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			if a := strings.TrimSpace(part); a != "" {
				filter.Amenities = append(filter.Amenities, a)
			}
		}
	}

	if raw := c.Query("min_beds"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return filter, errors.New("min_beds must be a non-negative integer")
		}
		filter.MinAvailableBeds = n
	}

	switch sort := models.BuildingSortBy(c.DefaultQuery("sort", string(models.SortByName))); sort {
	case models.SortByName, models.SortByAvailability, models.SortByOccupancy:
		filter.SortBy = sort
	default:
		return filter, errors.New("invalid sort: " + string(sort))
	}

	return filter, nil
}
