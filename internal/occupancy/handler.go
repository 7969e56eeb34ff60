package occupancy

import (
	"net/http"
	"strconv"
	"time"

	"gymshood/internal/auth"
	"gymshood/internal/gym"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

type Handler struct {
	service Service
	gymRepo gym.Repository
}

func NewHandler(db *sqlx.DB) *Handler {
	gymRepo := gym.NewRepository(db)
	return &Handler{
		service: NewService(NewRepository(db), gymRepo),
		gymRepo: gymRepo,
	}
}

func (h *Handler) GetCapacity(c *gin.Context) {
	gymID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid gym ID"})
		return
	}

	report, err := h.service.ActiveCapacity(c.Request.Context(), gymID, time.Now().UTC())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute capacity"})
		return
	}

	c.JSON(http.StatusOK, report)
}

// GetDayRegister returns a gym's visit log for one day. Owner-only.
func (h *Handler) GetDayRegister(c *gin.Context) {
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

	date := DayOf(time.Now())
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
			return
		}
		date = DayOf(parsed)
	}

	register, err := h.service.GetDayRegister(c.Request.Context(), gymID, date)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load day register"})
		return
	}

	c.JSON(http.StatusOK, register)
}

// RunSweep force-closes visits past their computed checkout. Admin trigger;
// the same sweep also runs on the background ticker.
func (h *Handler) RunSweep(c *gin.Context) {
	closed, err := h.service.SweepExpired(c.Request.Context(), time.Now().UTC())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Sweep failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"closed": closed})
}
