package billing

import (
	"context"
	"time"

	"gymshood/internal/membership"
	"gymshood/internal/wallet"
)

// SettleParams carries everything the settlement transaction writes. Amounts
// are in major units; GymShare + PlatformShare must equal Amount.
type SettleParams struct {
	DebitTxID    int
	OrderID      string
	PaymentID    string
	UserID       int
	GymID        int
	OwnerID      int
	PlanID       int
	Amount       int64
	GymShare     int64
	PerDayCost   float64
	TotalDays    int
	SessionHours int
	Now          time.Time
	MaxExpiry    time.Time
}

type RefundParams struct {
	EntitlementID  int
	DebitTxID      int
	UserID         int
	OwnerID        int
	RefundAmount   int64
	OwnerDeduction int64
	RefundID       string
	Now            time.Time
}

type Repository interface {
	// GetPendingPurchase loads the pending debit entry matching the order
	// and user. Returns ErrStaleOrAlreadyProcessed when no such entry is
	// still pending.
	GetPendingPurchase(ctx context.Context, id int, orderID string, userID int) (*wallet.Transaction, error)
	// Settle promotes the debit to completed, grants the entitlement,
	// upserts the day-bucketed revenue record, and credits the owner — all
	// in one transaction.
	Settle(ctx context.Context, params SettleParams) (*membership.Entitlement, error)
	// GetSettledPair finds the completed debit and owner-credit entries
	// linked to an entitlement.
	GetSettledPair(ctx context.Context, entitlementID int) (debit, credit *wallet.Transaction, err error)
	// RefundSettle marks the entitlement refunded, deducts the owner's
	// balance, and appends the user's refund credit — atomically.
	RefundSettle(ctx context.Context, params RefundParams) (*wallet.Transaction, error)

	TotalRevenueByGym(ctx context.Context, gymID int) (int64, error)
	RevenueByPlan(ctx context.Context, gymID int) ([]PlanRevenue, error)
	RevenueLastDays(ctx context.Context, gymID int, since time.Time) ([]RevenueRecord, error)
}
