package billing

import (
	"time"

	"gymshood/internal/payment"
)

// gymSharePercent is the facility side of the revenue split. The platform
// keeps the remainder, so the two shares always sum to the amount exactly.
const gymSharePercent = 90

// SplitRevenue divides a settled amount between the gym and the platform.
// The gym share is rounded to the nearest unit; the platform share is the
// remainder, never a second rounding.
func SplitRevenue(amount int64) (gymShare, platformShare int64) {
	gymShare = (amount*gymSharePercent + 50) / 100
	platformShare = amount - gymShare
	return gymShare, platformShare
}

// RevenueRecord accumulates a gym's revenue share per plan per calendar day.
type RevenueRecord struct {
	ID     int       `db:"id" json:"id"`
	PlanID int       `db:"plan_id" json:"plan_id"`
	GymID  int       `db:"gym_id" json:"gym_id"`
	Date   time.Time `db:"date" json:"date"`
	Amount int64     `db:"amount" json:"amount"`
}

// PurchaseIntent is returned to the client to complete payment; settlement
// happens on the verify callback.
type PurchaseIntent struct {
	Order         *payment.Order `json:"order"`
	LedgerEntryID int            `json:"ledger_entry_id"`
	Amount        int64          `json:"amount"`
}

type InitiatePurchaseRequest struct {
	PlanID int `json:"plan_id" binding:"required"`
}

type VerifyRequest struct {
	OrderID       string `json:"order_id" binding:"required"`
	PaymentID     string `json:"payment_id" binding:"required"`
	Signature     string `json:"signature" binding:"required"`
	LedgerEntryID int    `json:"ledger_entry_id" binding:"required"`
}

type RefundRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// RevenueSummary is the owner-facing analytics view, recomputed in full and
// cached for a short window.
type RevenueSummary struct {
	GymID      int             `json:"gym_id"`
	Total      int64           `json:"total"`
	ByPlan     []PlanRevenue   `json:"by_plan"`
	LastDays   []RevenueRecord `json:"last_days"`
	ComputedAt time.Time       `json:"computed_at"`
}

type PlanRevenue struct {
	PlanID int    `db:"plan_id" json:"plan_id"`
	Name   string `db:"name" json:"name"`
	Amount int64  `db:"amount" json:"amount"`
}

// DailyEarnings reports a gym's visit-day earnings for one date, derived
// from per-day cost snapshots on the visit log.
type DailyEarnings struct {
	GymID    int       `json:"gym_id"`
	Date     time.Time `json:"date"`
	Visits   int       `json:"visits"`
	Earnings float64   `json:"earnings"`
}
