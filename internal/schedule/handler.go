package schedule

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"gymdesk/internal/auth"
	"gymdesk/internal/caldate"
	"gymdesk/internal/deposit"
)

type Handler struct {
	service Service
	loc     *time.Location
}

func NewHandler(service Service, loc *time.Location) *Handler {
	return &Handler{service: service, loc: loc}
}

// ListSlots godoc
// @Summary      List bookable Pilates slots
// @Description  Returns active slots in the requested date range with confirmed booking counts and occupancy labels. Defaults to the next seven days.
// @Tags         schedule
// @Security     BearerAuth
// @Produce      json
// @Param        from  query     string  false  "Start date (YYYY-MM-DD)"
// @Param        to    query     string  false  "End date (YYYY-MM-DD)"
// @Success      200   {array}   SlotWithOccupancy
// @Failure      400   {object}  api.ErrorResponse
// @Router       /schedule [get]
func (h *Handler) ListSlots(c *gin.Context) {
	today := caldate.Today(h.loc)
	from, to := today, today.AddDays(7)

	if raw := c.Query("from"); raw != "" {
		parsed, err := caldate.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid from date"})
			return
		}
		from = parsed
	}
	if raw := c.Query("to"); raw != "" {
		parsed, err := caldate.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid to date"})
			return
		}
		to = parsed
	}

	slots, err := h.service.ListSlots(c.Request.Context(), from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list slots"})
		return
	}

	c.JSON(http.StatusOK, slots)
}

// Book godoc
// @Summary      Book a Pilates slot
// @Description  Places a confirmed booking. Deposit-backed plans consume one credit. Booking the same slot twice returns the existing booking.
// @Tags         schedule
// @Security     BearerAuth
// @Produce      json
// @Param        slotID  path      int  true  "Slot ID"
// @Success      200     {object}  Booking
// @Failure      402     {object}  api.ErrorResponse
// @Failure      403     {object}  api.ErrorResponse
// @Failure      404     {object}  api.ErrorResponse
// @Failure      409     {object}  api.ErrorResponse
// @Router       /schedule/{slotID}/book [post]
func (h *Handler) Book(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	slotID, err := strconv.Atoi(c.Param("slotID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid slot ID"})
		return
	}

	booking, err := h.service.Book(c.Request.Context(), userID, slotID, caldate.Today(h.loc))
	if err != nil {
		switch {
		case errors.Is(err, ErrAccessDenied):
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		case errors.Is(err, ErrSlotNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Slot not found"})
		case errors.Is(err, ErrSlotInactive), errors.Is(err, ErrSlotInPast):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, ErrSlotFull):
			c.JSON(http.StatusConflict, gin.H{"error": "Slot is fully booked"})
		case errors.Is(err, deposit.ErrNoCredits):
			c.JSON(http.StatusPaymentRequired, gin.H{"error": "No Pilates credits remaining"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to book slot"})
		}
		return
	}

	c.JSON(http.StatusOK, booking)
}

// Cancel godoc
// @Summary      Cancel my booking
// @Description  Cancels a confirmed booking, refunding the deposit credit if the booking spent one. A booking can be cancelled once.
// @Tags         schedule
// @Security     BearerAuth
// @Produce      json
// @Param        bookingID  path      int  true  "Booking ID"
// @Success      200        {object}  api.MessageResponse
// @Failure      404        {object}  api.ErrorResponse
// @Router       /bookings/{bookingID} [delete]
func (h *Handler) Cancel(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	bookingID, err := strconv.Atoi(c.Param("bookingID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking ID"})
		return
	}

	if err := h.service.Cancel(c.Request.Context(), userID, bookingID); err != nil {
		if errors.Is(err, ErrBookingNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No confirmed booking to cancel"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to cancel booking"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Booking cancelled"})
}

// MyBookings godoc
// @Summary      List my bookings
// @Tags         schedule
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}   BookingWithSlot
// @Failure      401  {object}  api.ErrorResponse
// @Router       /bookings [get]
func (h *Handler) MyBookings(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	bookings, err := h.service.MyBookings(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list bookings"})
		return
	}

	c.JSON(http.StatusOK, bookings)
}

type createSlotBody struct {
	Date        caldate.Date `json:"date" binding:"required"`
	StartTime   string       `json:"start_time" binding:"required"`
	EndTime     string       `json:"end_time" binding:"required"`
	MaxCapacity int          `json:"max_capacity"`
}

// CreateSlot godoc
// @Summary      Create a Pilates slot
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        slot  body      createSlotBody  true  "Slot definition"
// @Success      201   {object}  Slot
// @Failure      400   {object}  api.ErrorResponse
// @Router       /admin/schedule [post]
func (h *Handler) CreateSlot(c *gin.Context) {
	var body createSlotBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	slot, err := h.service.CreateSlot(c.Request.Context(), body.Date, body.StartTime, body.EndTime, body.MaxCapacity)
	if err != nil {
		if errors.Is(err, ErrInvalidSlot) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create slot"})
		return
	}

	c.JSON(http.StatusCreated, slot)
}

type slotActiveBody struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// SetSlotActive godoc
// @Summary      Activate or deactivate a slot
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        slotID  path      int             true  "Slot ID"
// @Param        state   body      slotActiveBody  true  "Desired state"
// @Success      200     {object}  api.MessageResponse
// @Failure      404     {object}  api.ErrorResponse
// @Router       /admin/schedule/{slotID} [patch]
func (h *Handler) SetSlotActive(c *gin.Context) {
	slotID, err := strconv.Atoi(c.Param("slotID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid slot ID"})
		return
	}

	var body slotActiveBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.SetSlotActive(c.Request.Context(), slotID, *body.IsActive); err != nil {
		if errors.Is(err, ErrSlotNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Slot not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update slot"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Slot updated"})
}
