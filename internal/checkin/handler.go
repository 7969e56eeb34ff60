package checkin

import (
	"errors"
	"net/http"
	"time"

	"gymshood/internal/api"
	"gymshood/internal/auth"
	"gymshood/internal/membership"
	"gymshood/internal/occupancy"

	"github.com/gin-gonic/gin"
)

type CheckInRequest struct {
	GymID         int `json:"gym_id" binding:"required"`
	EntitlementID int `json:"entitlement_id" binding:"required"`
}

type CheckOutRequest struct {
	GymID int `json:"gym_id" binding:"required"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) CheckIn(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.RespondWithBindingError(c, err)
		return
	}

	result, err := h.service.CheckIn(c.Request.Context(), userID, req.GymID, req.EntitlementID, time.Now().UTC())
	if err != nil {
		switch {
		case errors.Is(err, membership.ErrNoActiveEntitlement):
			c.JSON(http.StatusForbidden, gin.H{"error": "No active plan found"})
		case errors.Is(err, ErrWrongGym):
			c.JSON(http.StatusForbidden, gin.H{"error": "Plan is not valid for this gym"})
		case errors.Is(err, occupancy.ErrDuplicateCheckIn):
			c.JSON(http.StatusConflict, gin.H{"error": "Already checked in today"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Check-in failed"})
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) CheckOut(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req CheckOutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.RespondWithBindingError(c, err)
		return
	}

	result, err := h.service.CheckOut(c.Request.Context(), userID, req.GymID, time.Now().UTC())
	if err != nil {
		if errors.Is(err, occupancy.ErrNoActiveCheckIn) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No active check-in found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Check-out failed"})
		return
	}

	c.JSON(http.StatusOK, result)
}
