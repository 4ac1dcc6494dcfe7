package membership

import (
	"net/http"
	"time"

	"gymdesk/internal/auth"
	"gymdesk/internal/caldate"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
	loc     *time.Location
}

func NewHandler(service Service, loc *time.Location) *Handler {
	return &Handler{service: service, loc: loc}
}

// ListMyMemberships godoc
// @Summary      List my memberships
// @Description  Returns the user's memberships with their derived status.
// @Tags         memberships
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}   MembershipWithStatus
// @Failure      401  {object}  api.ErrorResponse
// @Failure      500  {object}  api.ErrorResponse
// @Router       /memberships [get]
func (h *Handler) ListMyMemberships(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	today := caldate.Today(h.loc)
	ms, err := h.service.ListWithDerived(c.Request.Context(), userID, today)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch memberships"})
		return
	}

	c.JSON(http.StatusOK, ms)
}

// ListPackages godoc
// @Summary      List membership packages
// @Tags         memberships
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}   Package
// @Failure      500  {object}  api.ErrorResponse
// @Router       /packages [get]
func (h *Handler) ListPackages(c *gin.Context) {
	ps, err := h.service.ListPackages(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch packages"})
		return
	}

	c.JSON(http.StatusOK, ps)
}

// SyncStatuses godoc
// @Summary      Repair stale membership flags
// @Description  Re-derives status for rows whose stored flags disagree with their dates. Admin only.
// @Tags         memberships
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  map[string]int
// @Failure      500  {object}  api.ErrorResponse
// @Router       /admin/memberships/sync [post]
func (h *Handler) SyncStatuses(c *gin.Context) {
	today := caldate.Today(h.loc)
	fixed, err := h.service.SyncStatuses(c.Request.Context(), today)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to sync membership statuses"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"fixed": fixed})
}
