package membership

import (
	"net/http"
	"strconv"
	"time"

	"gymshood/internal/auth"
	"gymshood/internal/gym"
	"gymshood/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

type Handler struct {
	repo    Repository
	gymRepo gym.Repository
}

func NewHandler(db *sqlx.DB) *Handler {
	return &Handler{
		repo:    NewRepository(db),
		gymRepo: gym.NewRepository(db),
	}
}

func (h *Handler) ListMine(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	entitlements, err := h.repo.ListByUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list memberships"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"memberships": entitlements})
}

// ListActiveByGym lets an owner see who currently holds an active plan.
func (h *Handler) ListActiveByGym(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	gymID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid gym ID"})
		return
	}

	g, err := h.gymRepo.GetByID(c.Request.Context(), gymID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Gym not found"})
		return
	}
	if g.OwnerID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not the owner of this gym"})
		return
	}

	entitlements, err := h.repo.ListActiveByGym(c.Request.Context(), gymID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list members"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"members": entitlements})
}

// RunSweep marks exhausted and overdue entitlements expired. Admin trigger;
// the same sweep also runs on the background ticker.
func (h *Handler) RunSweep(c *gin.Context) {
	expired, err := h.repo.SweepExpired(c.Request.Context(), time.Now().UTC())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Sweep failed"})
		return
	}

	if expired > 0 {
		metrics.EntitlementsExpiredTotal.Add(float64(expired))
	}

	c.JSON(http.StatusOK, gin.H{"expired": expired})
}
