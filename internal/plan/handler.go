package plan

import (
	"net/http"
	"strconv"

	"gymshood/internal/auth"
	"gymshood/internal/gym"

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

func (h *Handler) CreatePlan(c *gin.Context) {
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

	g, err := h.gymRepo.GetByID(c.Request.Context(), gymID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Gym not found"})
		return
	}
	if g.OwnerID != ownerID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not the gym owner"})
		return
	}

	var req CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, ok := TermsFor(req.PlanType); !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown plan type"})
		return
	}

	p, err := h.repo.Create(c.Request.Context(), gymID, req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create plan"})
		return
	}

	c.JSON(http.StatusCreated, p)
}

func (h *Handler) ListPlans(c *gin.Context) {
	gymID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid gym ID"})
		return
	}

	plans, err := h.repo.ListByGym(c.Request.Context(), gymID, true)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list plans"})
		return
	}

	c.JSON(http.StatusOK, plans)
}

type TogglePlanRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

func (h *Handler) TogglePlan(c *gin.Context) {
	ownerID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	planID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid plan ID"})
		return
	}

	p, err := h.repo.GetByID(c.Request.Context(), planID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Plan not found"})
		return
	}

	g, err := h.gymRepo.GetByID(c.Request.Context(), p.GymID)
	if err != nil || g.OwnerID != ownerID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not the gym owner"})
		return
	}

	var req TogglePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.repo.SetActive(c.Request.Context(), planID, *req.IsActive); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update plan"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "plan updated"})
}
