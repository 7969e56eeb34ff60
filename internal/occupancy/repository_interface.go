package occupancy

import (
	"context"
	"time"
)

type Repository interface {
	// Open records a new visit and bumps the day counters atomically.
	// Returns ErrDuplicateCheckIn when the user already has an open visit
	// for that gym and day.
	Open(ctx context.Context, visit *Visit) (*Visit, error)
	// Close stamps the real check-out on the user's open visit for the day
	// and decrements the active counter. Returns ErrNoActiveCheckIn when
	// there is no open visit.
	Close(ctx context.Context, gymID, userID int, now time.Time) (*Visit, error)
	GetDayStats(ctx context.Context, gymID int, date time.Time) (*DayStats, error)
	ListVisitsByDate(ctx context.Context, gymID int, date time.Time) ([]Visit, error)
	// CountActive counts open visits whose computed check-out is still in
	// the future.
	CountActive(ctx context.Context, gymID int, now time.Time) (int, error)
	// SweepExpired force-closes open visits whose computed check-out has
	// passed, across all gyms. Idempotent.
	SweepExpired(ctx context.Context, now time.Time) (int64, error)
	// VisitsOnDay sums per-day cost snapshots of a gym's visits for one day,
	// used by the daily-earnings aggregation.
	VisitsOnDay(ctx context.Context, gymID int, date time.Time) (float64, int, error)
}
