package wallet

import "time"

const (
	TypeCredit = "credit"
	TypeDebit  = "debit"

	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusRefunded  = "refunded"
)

// Transaction reasons. Each reason determines which linkage columns are
// populated; there is no free-form metadata bag.
const (
	// ReasonPlanPurchase is the user-side debit for a plan purchase. Links
	// plan, gym, order, and (once settled) payment + entitlement.
	ReasonPlanPurchase = "plan_purchase"
	// ReasonGymRevenue is the owner-side credit of the gym's revenue share.
	// Links the paired purchase transaction.
	ReasonGymRevenue = "gym_revenue"
	// ReasonPurchaseRefund is the user-side credit of a pro-rated refund.
	// Links the original purchase transaction and the gateway refund id.
	ReasonPurchaseRefund = "purchase_refund"
)

// Transaction is one append-only wallet ledger entry. Amounts are signed:
// debits are negative. Entries are immutable once completed, except for
// refund linkage.
type Transaction struct {
	ID            int       `db:"id" json:"id"`
	UserID        int       `db:"user_id" json:"user_id"`
	Amount        int64     `db:"amount" json:"amount"`
	Type          string    `db:"type" json:"type"`
	Status        string    `db:"status" json:"status"`
	Reason        string    `db:"reason" json:"reason"`
	OrderID       *string   `db:"order_id" json:"order_id,omitempty"`
	PaymentID     *string   `db:"payment_id" json:"payment_id,omitempty"`
	RefundID      *string   `db:"refund_id" json:"refund_id,omitempty"`
	PlanID        *int      `db:"plan_id" json:"plan_id,omitempty"`
	GymID         *int      `db:"gym_id" json:"gym_id,omitempty"`
	EntitlementID *int      `db:"entitlement_id" json:"entitlement_id,omitempty"`
	RelatedTxID   *int      `db:"related_tx_id" json:"related_tx_id,omitempty"`
	FailureDetail *string   `db:"failure_detail" json:"failure_detail,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}
