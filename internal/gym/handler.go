package gym

import (
	"net/http"
	"strconv"

	"gymshood/internal/api"
	"gymshood/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

type Handler struct {
	repo Repository
}

func NewHandler(db *sqlx.DB) *Handler {
	return &Handler{repo: NewRepository(db)}
}

func (h *Handler) CreateGym(c *gin.Context) {
	ownerID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req CreateGymRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.RespondWithBindingError(c, err)
		return
	}

	g, err := h.repo.Create(c.Request.Context(), ownerID, req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create gym"})
		return
	}

	c.JSON(http.StatusCreated, g)
}

func (h *Handler) ListGyms(c *gin.Context) {
	gyms, err := h.repo.ListVerified(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list gyms"})
		return
	}

	c.JSON(http.StatusOK, gyms)
}

func (h *Handler) GetGym(c *gin.Context) {
	gymID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid gym ID"})
		return
	}

	g, err := h.repo.GetByID(c.Request.Context(), gymID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Gym not found"})
		return
	}

	c.JSON(http.StatusOK, g)
}

func (h *Handler) ListNearby(c *gin.Context) {
	lat, err1 := strconv.ParseFloat(c.Query("lat"), 64)
	lng, err2 := strconv.ParseFloat(c.Query("lng"), 64)
	if err1 != nil || err2 != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lng query parameters required"})
		return
	}

	radiusKm, err := strconv.ParseFloat(c.DefaultQuery("radius_km", "15"), 64)
	if err != nil || radiusKm <= 0 {
		radiusKm = 15
	}

	gyms, err := h.repo.ListNearby(c.Request.Context(), lat, lng, radiusKm)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to search gyms"})
		return
	}

	c.JSON(http.StatusOK, gyms)
}

func (h *Handler) AddShift(c *gin.Context) {
	ownerID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	gymID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid gym ID"})
		return
	}

	g, err := h.repo.GetByID(c.Request.Context(), gymID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Gym not found"})
		return
	}
	if g.OwnerID != ownerID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not the gym owner"})
		return
	}

	var req CreateShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.RespondWithBindingError(c, err)
		return
	}

	shift, err := h.repo.AddShift(c.Request.Context(), gymID, req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create shift"})
		return
	}

	c.JSON(http.StatusCreated, shift)
}

func (h *Handler) ListShifts(c *gin.Context) {
	gymID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid gym ID"})
		return
	}

	shifts, err := h.repo.GetShifts(c.Request.Context(), gymID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list shifts"})
		return
	}

	c.JSON(http.StatusOK, shifts)
}

func (h *Handler) ListUnverified(c *gin.Context) {
	gyms, err := h.repo.ListUnverified(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list gyms"})
		return
	}

	c.JSON(http.StatusOK, gyms)
}

func (h *Handler) VerifyGym(c *gin.Context) {
	gymID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid gym ID"})
		return
	}

	if err := h.repo.SetVerified(c.Request.Context(), gymID, true); err != nil {
		if err == ErrGymNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Gym not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify gym"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "gym verified"})
}
