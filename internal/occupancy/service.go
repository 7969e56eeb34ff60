package occupancy

import (
	"context"
	"time"

	"gymshood/internal/gym"
	"gymshood/internal/metrics"
)

type Service interface {
	// CheckIn opens a visit with a computed check-out derived from the
	// entitlement's session length.
	CheckIn(ctx context.Context, gymID, userID, entitlementID int, perDayCost float64, sessionHours int, now time.Time) (*Visit, error)
	CheckOut(ctx context.Context, gymID, userID int, now time.Time) (*Visit, error)
	// ActiveCapacity resolves the gym's shift for the current weekday and
	// minute and reports live load against its capacity. A gym with no
	// active shift reports closed with zero capacity.
	ActiveCapacity(ctx context.Context, gymID int, now time.Time) (*CapacityReport, error)
	GetDayRegister(ctx context.Context, gymID int, date time.Time) (*DayRegister, error)
	SweepExpired(ctx context.Context, now time.Time) (int64, error)
}

type service struct {
	repo    Repository
	gymRepo gym.Repository
}

func NewService(repo Repository, gymRepo gym.Repository) Service {
	return &service{repo: repo, gymRepo: gymRepo}
}

func (s *service) CheckIn(ctx context.Context, gymID, userID, entitlementID int, perDayCost float64, sessionHours int, now time.Time) (*Visit, error) {
	visit := &Visit{
		GymID:            gymID,
		UserID:           userID,
		EntitlementID:    entitlementID,
		PerDayCost:       perDayCost,
		Date:             DayOf(now),
		CheckIn:          now,
		ComputedCheckOut: now.Add(time.Duration(sessionHours) * time.Hour),
	}

	created, err := s.repo.Open(ctx, visit)
	if err != nil {
		return nil, err
	}
	metrics.RecordCheckIn("success")
	return created, nil
}

func (s *service) CheckOut(ctx context.Context, gymID, userID int, now time.Time) (*Visit, error) {
	closed, err := s.repo.Close(ctx, gymID, userID, now)
	if err != nil {
		return nil, err
	}
	metrics.RecordCheckOut()
	return closed, nil
}

func (s *service) ActiveCapacity(ctx context.Context, gymID int, now time.Time) (*CapacityReport, error) {
	shifts, err := s.gymRepo.GetShifts(ctx, gymID)
	if err != nil {
		return nil, err
	}

	shift := gym.ActiveShift(shifts, now)
	if shift == nil {
		return &CapacityReport{GymID: gymID, ShiftOpen: false}, nil
	}

	active, err := s.repo.CountActive(ctx, gymID, now)
	if err != nil {
		return nil, err
	}

	available := shift.Capacity - active
	if available < 0 {
		available = 0
	}

	return &CapacityReport{
		GymID:     gymID,
		ShiftOpen: true,
		ShiftDay:  shift.Day,
		Capacity:  shift.Capacity,
		Active:    active,
		Available: available,
	}, nil
}

func (s *service) GetDayRegister(ctx context.Context, gymID int, date time.Time) (*DayRegister, error) {
	stats, err := s.repo.GetDayStats(ctx, gymID, date)
	if err != nil {
		return nil, err
	}

	visits, err := s.repo.ListVisitsByDate(ctx, gymID, date)
	if err != nil {
		return nil, err
	}

	return &DayRegister{Stats: stats, Visits: visits}, nil
}

func (s *service) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	closed, err := s.repo.SweepExpired(ctx, now)
	if err != nil {
		return 0, err
	}
	if closed > 0 {
		metrics.VisitsForceClosedTotal.Add(float64(closed))
	}
	return closed, nil
}
