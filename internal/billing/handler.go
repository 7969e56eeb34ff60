package billing

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"gymshood/internal/api"
	"gymshood/internal/auth"
	"gymshood/internal/gym"
	"gymshood/internal/payment"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
	gymRepo gym.Repository
}

func NewHandler(service Service, gymRepo gym.Repository) *Handler {
	return &Handler{service: service, gymRepo: gymRepo}
}

func (h *Handler) InitiatePurchase(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req InitiatePurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.RespondWithBindingError(c, err)
		return
	}

	intent, err := h.service.InitiatePurchase(c.Request.Context(), userID, req.PlanID, time.Now().UTC())
	if err != nil {
		switch {
		case errors.Is(err, ErrPlanUnavailable):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Plan is not available for purchase"})
		case errors.Is(err, payment.ErrGatewayUnavailable):
			c.JSON(http.StatusBadGateway, gin.H{"error": "Payment gateway unavailable"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to initiate purchase"})
		}
		return
	}

	c.JSON(http.StatusCreated, intent)
}

func (h *Handler) VerifyPurchase(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.RespondWithBindingError(c, err)
		return
	}

	entitlement, err := h.service.VerifyAndSettle(c.Request.Context(), userID, req, time.Now().UTC())
	if err != nil {
		switch {
		case errors.Is(err, ErrSignatureMismatch):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Payment verification failed"})
		case errors.Is(err, ErrStaleOrAlreadyProcessed):
			c.JSON(http.StatusConflict, gin.H{"error": "Payment already processed or order mismatch"})
		case errors.Is(err, ErrPlanUnavailable):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Plan is not available for purchase"})
		case errors.Is(err, payment.ErrGatewayUnavailable):
			c.JSON(http.StatusBadGateway, gin.H{"error": "Payment gateway unavailable"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Settlement failed; any captured payment will be refunded"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"entitlement": entitlement})
}

// RefundEntitlement is the admin dispute-resolution path.
func (h *Handler) RefundEntitlement(c *gin.Context) {
	entitlementID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid entitlement ID"})
		return
	}

	var req RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.RespondWithBindingError(c, err)
		return
	}

	credit, err := h.service.Refund(c.Request.Context(), entitlementID, req.Reason, time.Now().UTC())
	if err != nil {
		switch {
		case errors.Is(err, ErrStaleOrAlreadyProcessed):
			c.JSON(http.StatusConflict, gin.H{"error": "Entitlement is not refundable"})
		case errors.Is(err, ErrLedgerInconsistent):
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ledger entries missing for entitlement"})
		case errors.Is(err, payment.ErrGatewayUnavailable):
			c.JSON(http.StatusBadGateway, gin.H{"error": "Payment gateway unavailable"})
		default:
			c.JSON(http.StatusNotFound, gin.H{"error": "Entitlement not found"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"refund": credit})
}

func (h *Handler) GetRevenue(c *gin.Context) {
	gymID, ok := h.ownedGymID(c)
	if !ok {
		return
	}

	summary, err := h.service.GetRevenueSummary(c.Request.Context(), gymID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load revenue"})
		return
	}

	c.JSON(http.StatusOK, summary)
}

func (h *Handler) GetDailyEarnings(c *gin.Context) {
	gymID, ok := h.ownedGymID(c)
	if !ok {
		return
	}

	date := time.Now().UTC()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
			return
		}
		date = parsed
	}

	earnings, err := h.service.GetDailyEarnings(c.Request.Context(), gymID, date)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load earnings"})
		return
	}

	c.JSON(http.StatusOK, earnings)
}

// ownedGymID resolves the :id path param and enforces that the caller owns
// the gym. Writes the error response itself on failure.
func (h *Handler) ownedGymID(c *gin.Context) (int, bool) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return 0, false
	}

	gymID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid gym ID"})
		return 0, false
	}

	g, err := h.gymRepo.GetByID(c.Request.Context(), gymID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Gym not found"})
		return 0, false
	}
	if g.OwnerID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not the owner of this gym"})
		return 0, false
	}

	return gymID, true
}
