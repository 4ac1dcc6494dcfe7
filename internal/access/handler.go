package access

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"

	"gymdesk/internal/auth"
	"gymdesk/internal/caldate"
	"gymdesk/internal/metrics"
)

type Handler struct {
	service   Service
	checkins  Repository
	jwtSecret string
	loc       *time.Location
}

func NewHandler(service Service, checkins Repository, jwtSecret string, loc *time.Location) *Handler {
	return &Handler{service: service, checkins: checkins, jwtSecret: jwtSecret, loc: loc}
}

// Check godoc
// @Summary      Check my gym access
// @Description  Evaluates the access gate for the caller: active membership required, no locked installment past its due date.
// @Tags         access
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  Result
// @Failure      401  {object}  api.ErrorResponse
// @Router       /access [get]
func (h *Handler) Check(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	result, err := h.service.Check(c.Request.Context(), userID, caldate.Today(h.loc))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to evaluate access"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// QrPass godoc
// @Summary      Get a QR check-in pass
// @Description  Returns a PNG QR code wrapping a short-lived check-in token. The front desk scans it and posts the token to the check-in endpoint.
// @Tags         access
// @Security     BearerAuth
// @Produce      png
// @Success      200  {string}  binary  "PNG image"
// @Failure      401  {object}  api.ErrorResponse
// @Failure      403  {object}  api.ErrorResponse
// @Router       /access/qr [get]
func (h *Handler) QrPass(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	// No pass for a member the gate would turn away at the door.
	result, err := h.service.Check(c.Request.Context(), userID, caldate.Today(h.loc))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to evaluate access"})
		return
	}
	if !result.Allowed {
		c.JSON(http.StatusForbidden, gin.H{"error": result.Reason})
		return
	}

	token, err := auth.GenerateCheckinToken(userID, h.jwtSecret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate pass"})
		return
	}

	png, err := qrcode.Encode(token, qrcode.Medium, 256)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render QR code"})
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}

type checkinBody struct {
	Token string `json:"token" binding:"required"`
}

// Checkin godoc
// @Summary      Check a member in at the front desk
// @Description  Validates a scanned QR token, runs the access gate and records the decision. Admin only.
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        checkin  body      checkinBody  true  "Scanned token"
// @Success      200      {object}  Checkin
// @Failure      400      {object}  api.ErrorResponse
// @Failure      401      {object}  api.ErrorResponse
// @Router       /admin/checkin [post]
func (h *Handler) Checkin(c *gin.Context) {
	var body checkinBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, err := auth.ValidateCheckinToken(body.Token, h.jwtSecret)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired pass"})
		return
	}

	result, err := h.service.Check(c.Request.Context(), userID, caldate.Today(h.loc))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to evaluate access"})
		return
	}

	ci, err := h.checkins.Record(c.Request.Context(), userID, result.Allowed, result.Reason)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record check-in"})
		return
	}
	metrics.RecordCheckin(result.Allowed)

	c.JSON(http.StatusOK, ci)
}

// History godoc
// @Summary      List my recent check-ins
// @Tags         access
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}   Checkin
// @Failure      401  {object}  api.ErrorResponse
// @Router       /access/history [get]
func (h *Handler) History(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	checkins, err := h.checkins.ListByUser(c.Request.Context(), userID, 50)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list check-ins"})
		return
	}

	c.JSON(http.StatusOK, checkins)
}
