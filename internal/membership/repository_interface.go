package membership

import (
	"context"
	"time"
)

type Repository interface {
	GetByID(ctx context.Context, id int) (*Entitlement, error)
	// GetActiveForVisit loads an entitlement only if it still admits a visit
	// at the given time: owned by the user, active, unexpired, within the
	// maximum expiry window.
	GetActiveForVisit(ctx context.Context, id, userID int, now time.Time) (*Entitlement, error)
	// ConsumeDay increments usedDays and flips the expired flag once the
	// allotment is exhausted or the expiry window has passed.
	ConsumeDay(ctx context.Context, id int, now time.Time) (*Entitlement, error)
	ListByUser(ctx context.Context, userID int) ([]Entitlement, error)
	ListActiveByGym(ctx context.Context, gymID int) ([]Entitlement, error)
	// SweepExpired marks every overdue or exhausted entitlement expired and
	// returns how many rows changed. Idempotent.
	SweepExpired(ctx context.Context, now time.Time) (int64, error)
}
