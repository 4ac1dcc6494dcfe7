package deposit

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"gymdesk/internal/auth"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// GetMyDeposit godoc
// @Summary      Get my Pilates deposit
// @Tags         deposits
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  Deposit
// @Failure      401  {object}  api.ErrorResponse
// @Failure      404  {object}  api.ErrorResponse
// @Router       /deposit [get]
func (h *Handler) GetMyDeposit(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	dep, err := h.service.GetMyDeposit(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrDepositNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No deposit for this user"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch deposit"})
		return
	}

	c.JSON(http.StatusOK, dep)
}

// ForceRefill godoc
// @Summary      Force a deposit refill
// @Description  Runs the refill evaluator for one user outside the weekly schedule. Admin only. The once-per-cycle guarantee still holds.
// @Tags         deposits
// @Security     BearerAuth
// @Produce      json
// @Param        userID  path      int  true  "User ID"
// @Success      200     {object}  Decision
// @Failure      400     {object}  api.ErrorResponse
// @Failure      404     {object}  api.ErrorResponse
// @Failure      500     {object}  api.ErrorResponse
// @Router       /admin/deposits/{userID}/refill [post]
func (h *Handler) ForceRefill(c *gin.Context) {
	userID, err := strconv.Atoi(c.Param("userID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	dec, err := h.service.ForceRefill(c.Request.Context(), userID, time.Now())
	if err != nil {
		if errors.Is(err, ErrNoRefillableMembership) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User has no active refillable membership"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to apply refill"})
		return
	}

	c.JSON(http.StatusOK, dec)
}

// RunRefills godoc
// @Summary      Run the weekly refill job now
// @Tags         deposits
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  map[string]int
// @Failure      500  {object}  api.ErrorResponse
// @Router       /admin/deposits/refill-run [post]
func (h *Handler) RunRefills(c *gin.Context) {
	committed, err := h.service.RunWeeklyRefills(c.Request.Context(), time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Refill run failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"committed": committed})
}
