package membership

import "time"

const (
	StatusActive   = "active"
	StatusRefunded = "refunded"
)

// Entitlement is a user's paid right to a bounded number of session-days at
// one gym, hard-capped by a maximum expiry date.
type Entitlement struct {
	ID            int       `db:"id" json:"id"`
	UserID        int       `db:"user_id" json:"user_id"`
	GymID         int       `db:"gym_id" json:"gym_id"`
	PlanID        int       `db:"plan_id" json:"plan_id"`
	AmountPaid    int64     `db:"amount_paid" json:"amount_paid"`
	PerDayCost    float64   `db:"per_day_cost" json:"per_day_cost"`
	TotalDays     int       `db:"total_days" json:"total_days"`
	UsedDays      int       `db:"used_days" json:"used_days"`
	SessionHours  int       `db:"session_hours" json:"session_hours"`
	PurchaseDate  time.Time `db:"purchase_date" json:"purchase_date"`
	MaxExpiryDate time.Time `db:"max_expiry_date" json:"max_expiry_date"`
	IsExpired     bool      `db:"is_expired" json:"is_expired"`
	Status        string    `db:"status" json:"status"`
	RefundAmount  *int64    `db:"refund_amount" json:"refund_amount,omitempty"`
	PaymentID     string    `db:"payment_id" json:"-"`
	OrderID       string    `db:"order_id" json:"-"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// Exhausted reports whether the entitlement can no longer admit a visit.
func (e *Entitlement) Exhausted(now time.Time) bool {
	return e.UsedDays >= e.TotalDays || now.After(e.MaxExpiryDate)
}

func (e *Entitlement) RemainingDays() int {
	if e.UsedDays >= e.TotalDays {
		return 0
	}
	return e.TotalDays - e.UsedDays
}
