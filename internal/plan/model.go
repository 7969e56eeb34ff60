package plan

import (
	"strings"
	"time"
)

type Plan struct {
	ID              int       `db:"id" json:"id"`
	GymID           int       `db:"gym_id" json:"gym_id"`
	Name            string    `db:"name" json:"name"`
	PlanType        string    `db:"plan_type" json:"plan_type"` // "1 day", "7 days", "15 days", "1 month"
	Validity        int       `db:"validity" json:"validity"`   // days covered by the price
	Price           int64     `db:"price" json:"price"`
	DiscountPercent int       `db:"discount_percent" json:"discount_percent"`
	Duration        int       `db:"duration" json:"duration"` // workout session length, hours
	Features        string    `db:"features" json:"features,omitempty"`
	TrainerIncluded bool      `db:"trainer_included" json:"trainer_included"`
	IsActive        bool      `db:"is_active" json:"is_active"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// Terms maps a plan type to the session-day allotment and the window, in
// days after purchase, within which those sessions must be used.
type Terms struct {
	TotalDays        int
	ExpiryFactorDays int
}

var planTypeTerms = map[string]Terms{
	"1 day":   {TotalDays: 1, ExpiryFactorDays: 7},
	"7 days":  {TotalDays: 7, ExpiryFactorDays: 30},
	"15 days": {TotalDays: 15, ExpiryFactorDays: 45},
	"1 month": {TotalDays: 30, ExpiryFactorDays: 90},
}

// TermsFor resolves purchase terms for a plan type. Unknown types are not
// purchasable.
func TermsFor(planType string) (Terms, bool) {
	t, ok := planTypeTerms[strings.TrimSpace(planType)]
	return t, ok
}

// DiscountedPrice applies the plan's percentage discount, rounding to the
// nearest whole unit.
func (p *Plan) DiscountedPrice() int64 {
	discounted := float64(p.Price) * (1 - float64(p.DiscountPercent)/100)
	return int64(discounted + 0.5)
}

type CreatePlanRequest struct {
	Name            string `json:"name" binding:"required,max=100"`
	PlanType        string `json:"plan_type" binding:"required"`
	Validity        int    `json:"validity" binding:"required,min=1"`
	Price           int64  `json:"price" binding:"required,min=1"`
	DiscountPercent int    `json:"discount_percent" binding:"gte=0,lte=99"`
	Duration        int    `json:"duration" binding:"required,min=1,max=24"`
	Features        string `json:"features"`
	TrainerIncluded bool   `json:"trainer_included"`
}
