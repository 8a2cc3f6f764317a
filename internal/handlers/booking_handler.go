package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/hostelhub/hostel-booking-backend/internal/middleware"
	"github.com/hostelhub/hostel-booking-backend/internal/models"
	"github.com/hostelhub/hostel-booking-backend/internal/services"
)

// BookingHandler handles booking lifecycle HTTP requests
type BookingHandler struct {
	allocationService *services.AllocationService
	searchService     *services.SearchService
	logger            *logrus.Logger
}

// NewBookingHandler creates a new booking handler
func NewBookingHandler(allocationService *services.AllocationService, searchService *services.SearchService, logger *logrus.Logger) *BookingHandler {
	return &BookingHandler{
		allocationService: allocationService,
		searchService:     searchService,
		logger:            logger,
	}
}

// CreateBooking handles POST /api/v1/bookings
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	userCtx, ok := middleware.GetUserContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.BookingResponse{
			Success: false,
			Error:   "Authentication required",
		})
		return
	}

	var req models.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.BookingResponse{
			Success: false,
			Error:   "building_id, room_id and bed_id are required",
		})
		return
	}

	booking, err := h.allocationService.BookBed(c.Request.Context(), models.BookBedCommand{
		UserID:     userCtx.UserID.String(),
		UserName:   userCtx.Name,
		UserEmail:  userCtx.Email,
		BuildingID: req.BuildingID,
		RoomID:     req.RoomID,
		BedID:      req.BedID,
	})
	if err != nil {
		h.respondBookingError(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.BookingResponse{
		Success: true,
		Message: "Bed booked successfully",
		Booking: booking,
	})
}

// CancelBooking handles PUT /api/v1/bookings/:id/cancel
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	userCtx, ok := middleware.GetUserContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.BookingResponse{
			Success: false,
			Error:   "Authentication required",
		})
		return
	}

	booking, err := h.allocationService.CancelBooking(c.Request.Context(), services.CancelBookingCommand{
		UserID:    userCtx.UserID.String(),
		UserEmail: userCtx.Email,
		BookingID: c.Param("id"),
	})
	if err != nil {
		h.respondBookingError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.BookingResponse{
		Success: true,
		Message: "Booking cancelled successfully",
		Booking: booking,
	})
}

// MyBookings handles GET /api/v1/bookings/my
func (h *BookingHandler) MyBookings(c *gin.Context) {
	userCtx, ok := middleware.GetUserContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.BookingsResponse{
			Success: false,
			Error:   "Authentication required",
		})
		return
	}

	bookings, err := h.searchService.ListBookingsForUser(userCtx.UserID.String())
	if err != nil {
		h.logger.WithError(err).WithField("user_id", userCtx.UserID).Error("Failed to list user bookings")
		c.JSON(http.StatusInternalServerError, models.BookingsResponse{
			Success: false,
			Error:   "Failed to fetch bookings",
		})
		return
	}

	c.JSON(http.StatusOK, models.BookingsResponse{
		Success:  true,
		Bookings: bookings,
	})
}

// ListBookings handles GET /api/v1/bookings (admin only)
func (h *BookingHandler) ListBookings(c *gin.Context) {
	filter := models.BookingFilter{
		BuildingID: c.Query("building_id"),
		RoomID:     c.Query("room_id"),
	}

	switch status := models.BookingStatus(c.Query("status")); status {
	case "", models.BookingStatusActive, models.BookingStatusCancelled:
		filter.Status = status
	default:
		c.JSON(http.StatusBadRequest, models.BookingsResponse{
			Success: false,
			Error:   "status must be active or cancelled",
		})
		return
	}

	bookings, err := h.searchService.ListAllBookings(filter)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list bookings")
		c.JSON(http.StatusInternalServerError, models.BookingsResponse{
			Success: false,
			Error:   "Failed to fetch bookings",
		})
		return
	}

	c.JSON(http.StatusOK, models.BookingsResponse{
		Success:  true,
		Bookings: bookings,
	})
}

// respondBookingError maps tagged booking errors to HTTP statuses. Internal
// errors are logged and masked with a generic message.
func (h *BookingHandler) respondBookingError(c *gin.Context, err error) {
	bookingErr, ok := models.AsBookingError(err)
	if !ok {
		bookingErr = models.NewInternalError(err)
	}

	status := http.StatusInternalServerError
	message := bookingErr.Message

	switch bookingErr.Kind {
	case models.ErrKindNotFound:
		status = http.StatusNotFound
	case models.ErrKindAlreadyBooked, models.ErrKindBedUnavailable:
		status = http.StatusConflict
	case models.ErrKindForbidden:
		status = http.StatusForbidden
	case models.ErrKindAlreadyCancelled:
		status = http.StatusBadRequest
	case models.ErrKindInternal:
		h.logger.WithError(bookingErr).Error("Booking operation failed")
		message = "Something went wrong. Please try again."
	}

	c.JSON(status, models.BookingResponse{
		Success: false,
		Error:   message,
		Code:    string(bookingErr.Kind),
	})
}
