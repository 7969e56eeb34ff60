package attendance

import (
	"errors"
	"net/http"
	"time"

	"gymshood/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

type Handler struct {
	service Service
}

func NewHandler(db *sqlx.DB) *Handler {
	return &Handler{service: NewService(NewRepository(db))}
}

// asOfTime honors an optional as_of query parameter so streaks can be
// inspected deterministically; defaults to the current time.
func asOfTime(c *gin.Context) (time.Time, bool) {
	raw := c.Query("as_of")
	if raw == "" {
		return time.Now().UTC(), true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}

func (h *Handler) GetStreak(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	asOf, ok := asOfTime(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "as_of must be RFC3339"})
		return
	}

	result, err := h.service.ComputeStreak(c.Request.Context(), userID, asOf)
	if err != nil {
		if errors.Is(err, ErrNoHistory) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No gym history found to calculate streak"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute streak"})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) GetHeatmap(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	heatmap, err := h.service.GetHeatmap(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrNoLedger) {
			c.JSON(http.StatusOK, gin.H{"data": nil, "message": "No gym log found for the user"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load heatmap"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": heatmap})
}
