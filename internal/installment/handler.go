package installment

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"gymdesk/internal/auth"
	"gymdesk/internal/caldate"
)

type Handler struct {
	service Service
	loc     *time.Location
}

func NewHandler(service Service, loc *time.Location) *Handler {
	return &Handler{service: service, loc: loc}
}

type createRequestBody struct {
	PackageID    int                  `json:"package_id" binding:"required"`
	Installments []PlannedInstallment `json:"installments" binding:"max=3,dive"`
}

// CreateRequest godoc
// @Summary      Submit a membership request
// @Description  Creates a pending membership request, optionally with an installment plan of up to three installments.
// @Tags         requests
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      createRequestBody  true  "Request payload"
// @Success      201      {object}  Request
// @Failure      400      {object}  api.ErrorResponse
// @Failure      401      {object}  api.ErrorResponse
// @Router       /requests [post]
func (h *Handler) CreateRequest(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var body createRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req, err := h.service.CreateRequest(c.Request.Context(), userID, body.PackageID, body.Installments)
	if err != nil {
		if errors.Is(err, ErrInvalidPlan) || errors.Is(err, ErrTooManyInstallments) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create request"})
		return
	}

	c.JSON(http.StatusCreated, req)
}

// ListMine godoc
// @Summary      List my membership requests
// @Description  Returns the caller's requests with per-installment derived status and payment totals.
// @Tags         requests
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}   Summary
// @Failure      401  {object}  api.ErrorResponse
// @Router       /requests [get]
func (h *Handler) ListMine(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	summaries, err := h.service.ListMine(c.Request.Context(), userID, caldate.Today(h.loc))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list requests"})
		return
	}

	c.JSON(http.StatusOK, summaries)
}

// ListByStatus godoc
// @Summary      List membership requests by status
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Param        status  query     string  false  "pending, approved or rejected"  default(pending)
// @Success      200     {array}   Request
// @Failure      400     {object}  api.ErrorResponse
// @Router       /admin/requests [get]
func (h *Handler) ListByStatus(c *gin.Context) {
	status := RequestStatus(c.DefaultQuery("status", string(RequestPending)))
	switch status {
	case RequestPending, RequestApproved, RequestRejected:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
		return
	}

	reqs, err := h.service.ListByStatus(c.Request.Context(), status)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list requests"})
		return
	}

	c.JSON(http.StatusOK, reqs)
}

type approveBody struct {
	StartDate caldate.Date `json:"start_date" binding:"required"`
	EndDate   caldate.Date `json:"end_date" binding:"required"`
}

// Approve godoc
// @Summary      Approve a membership request
// @Description  Creates the membership for the requested package over the given date range and grants any Pilates deposit credits the package carries.
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        requestID  path      int          true  "Request ID"
// @Param        range      body      approveBody  true  "Membership validity"
// @Success      200        {object}  membership.Membership
// @Failure      400        {object}  api.ErrorResponse
// @Failure      404        {object}  api.ErrorResponse
// @Failure      409        {object}  api.ErrorResponse
// @Router       /admin/requests/{requestID}/approve [post]
func (h *Handler) Approve(c *gin.Context) {
	requestID, err := strconv.Atoi(c.Param("requestID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request ID"})
		return
	}

	var body approveBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if body.EndDate.Before(body.StartDate) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "End date must not precede start date"})
		return
	}

	m, err := h.service.Approve(c.Request.Context(), requestID, body.StartDate, body.EndDate)
	if err != nil {
		switch {
		case errors.Is(err, ErrRequestNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Request not found"})
		case errors.Is(err, ErrRequestNotPending):
			c.JSON(http.StatusConflict, gin.H{"error": "Request already decided"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to approve request"})
		}
		return
	}

	c.JSON(http.StatusOK, m)
}

// Reject godoc
// @Summary      Reject a membership request
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Param        requestID  path      int  true  "Request ID"
// @Success      200        {object}  api.MessageResponse
// @Failure      404        {object}  api.ErrorResponse
// @Failure      409        {object}  api.ErrorResponse
// @Router       /admin/requests/{requestID}/reject [post]
func (h *Handler) Reject(c *gin.Context) {
	requestID, err := strconv.Atoi(c.Param("requestID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request ID"})
		return
	}

	if err := h.service.Reject(c.Request.Context(), requestID); err != nil {
		switch {
		case errors.Is(err, ErrRequestNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Request not found"})
		case errors.Is(err, ErrRequestNotPending):
			c.JSON(http.StatusConflict, gin.H{"error": "Request already decided"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reject request"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Request rejected"})
}

type payBody struct {
	AmountCents int64  `json:"amount_cents" binding:"required,gt=0"`
	Method      Method `json:"method" binding:"required,oneof=cash pos"`
}

// RecordPayment godoc
// @Summary      Record an installment payment
// @Description  Marks one installment as paid with the amount the register collected, which becomes the installment's recorded amount. Writes the matching cash register entry. Paid installments are immutable.
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        requestID  path      int      true  "Request ID"
// @Param        number     path      int      true  "Installment number (1-3)"
// @Param        payment    body      payBody  true  "Payment details"
// @Success      200        {object}  Request
// @Failure      400        {object}  api.ErrorResponse
// @Failure      404        {object}  api.ErrorResponse
// @Failure      409        {object}  api.ErrorResponse
// @Router       /admin/requests/{requestID}/installments/{number}/pay [post]
func (h *Handler) RecordPayment(c *gin.Context) {
	requestID, err := strconv.Atoi(c.Param("requestID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request ID"})
		return
	}
	number, err := strconv.Atoi(c.Param("number"))
	if err != nil || number < 1 || number > 3 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid installment number"})
		return
	}

	var body payBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req, err := h.service.RecordPayment(c.Request.Context(), requestID, number, body.AmountCents, body.Method, time.Now().In(h.loc))
	if err != nil {
		switch {
		case errors.Is(err, ErrRequestNotFound), errors.Is(err, ErrInstallmentNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Installment not found"})
		case errors.Is(err, ErrAlreadyPaid):
			c.JSON(http.StatusConflict, gin.H{"error": "Installment already paid"})
		case errors.Is(err, ErrInstallmentDeleted):
			c.JSON(http.StatusConflict, gin.H{"error": "Installment has been deleted"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record payment"})
		}
		return
	}

	c.JSON(http.StatusOK, req)
}

// DeleteThirdInstallment godoc
// @Summary      Remove the optional third installment
// @Description  Soft-deletes installment 3 so it no longer counts toward status or totals. A paid installment cannot be removed.
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Param        requestID  path      int  true  "Request ID"
// @Success      200        {object}  api.MessageResponse
// @Failure      409        {object}  api.ErrorResponse
// @Router       /admin/requests/{requestID}/installments/3 [delete]
func (h *Handler) DeleteThirdInstallment(c *gin.Context) {
	requestID, err := strconv.Atoi(c.Param("requestID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request ID"})
		return
	}

	if err := h.service.DeleteThirdInstallment(c.Request.Context(), requestID); err != nil {
		switch {
		case errors.Is(err, ErrRequestNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Request not found"})
		case errors.Is(err, ErrAlreadyPaid):
			c.JSON(http.StatusConflict, gin.H{"error": "Cannot remove a paid installment"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete installment"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Third installment removed"})
}
