package referral

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"gymdesk/internal/auth"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// MyAccount godoc
// @Summary      Get my referral account
// @Description  Returns the caller's referral code and points balance, creating the account on first call.
// @Tags         referral
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  Account
// @Failure      401  {object}  api.ErrorResponse
// @Router       /referral [get]
func (h *Handler) MyAccount(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	acc, err := h.service.MyAccount(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch referral account"})
		return
	}

	c.JSON(http.StatusOK, acc)
}

type applyCodeBody struct {
	Code string `json:"code" binding:"required"`
}

// ApplyCode godoc
// @Summary      Apply a referral code
// @Description  Credits the code's owner with signup points. A member cannot apply their own code.
// @Tags         referral
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        code  body      applyCodeBody  true  "Referral code"
// @Success      200   {object}  api.MessageResponse
// @Failure      400   {object}  api.ErrorResponse
// @Failure      404   {object}  api.ErrorResponse
// @Router       /referral/apply [post]
func (h *Handler) ApplyCode(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var body applyCodeBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	_, err := h.service.ApplyCode(c.Request.Context(), userID, body.Code)
	if err != nil {
		switch {
		case errors.Is(err, ErrAccountNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Unknown referral code"})
		case errors.Is(err, ErrOwnCode):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot apply your own referral code"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to apply referral code"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Referral code applied"})
}

// Transactions godoc
// @Summary      List my referral ledger
// @Tags         referral
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}   Transaction
// @Failure      401  {object}  api.ErrorResponse
// @Router       /referral/transactions [get]
func (h *Handler) Transactions(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	txs, err := h.service.Transactions(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list transactions"})
		return
	}

	c.JSON(http.StatusOK, txs)
}

type redeemBody struct {
	Points int    `json:"points" binding:"required,gt=0"`
	Reason string `json:"reason" binding:"required"`
}

// Redeem godoc
// @Summary      Redeem referral points
// @Description  Spends points from the caller's balance. Fails when the balance would go negative.
// @Tags         referral
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        redemption  body      redeemBody  true  "Points and reason"
// @Success      200         {object}  Account
// @Failure      400         {object}  api.ErrorResponse
// @Failure      409         {object}  api.ErrorResponse
// @Router       /referral/redeem [post]
func (h *Handler) Redeem(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var body redeemBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	acc, err := h.service.Redeem(c.Request.Context(), userID, body.Points, body.Reason)
	if err != nil {
		switch {
		case errors.Is(err, ErrInsufficientPoints):
			c.JSON(http.StatusConflict, gin.H{"error": "Not enough points"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to redeem points"})
		}
		return
	}

	c.JSON(http.StatusOK, acc)
}

type awardBody struct {
	Points int    `json:"points" binding:"required,gt=0"`
	Reason string `json:"reason" binding:"required"`
}

// Award godoc
// @Summary      Award referral points
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        userID  path      int        true  "User ID"
// @Param        award   body      awardBody  true  "Points and reason"
// @Success      200     {object}  Account
// @Failure      400     {object}  api.ErrorResponse
// @Router       /admin/referral/{userID}/award [post]
func (h *Handler) Award(c *gin.Context) {
	userID, err := strconv.Atoi(c.Param("userID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	var body awardBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	acc, err := h.service.Award(c.Request.Context(), userID, body.Points, body.Reason)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to award points"})
		return
	}

	c.JSON(http.StatusOK, acc)
}
