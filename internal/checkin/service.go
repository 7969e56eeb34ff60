package checkin

import (
	"context"
	"errors"
	"time"

	"gymshood/internal/attendance"
	"gymshood/internal/email"
	"gymshood/internal/gym"
	"gymshood/internal/logger"
	"gymshood/internal/membership"
	"gymshood/internal/occupancy"
	"gymshood/internal/user"
)

var ErrWrongGym = errors.New("entitlement does not cover this gym")

// CheckInResult is returned to the scanning client: the open visit plus what
// remains on the entitlement after this day is consumed.
type CheckInResult struct {
	Visit         *occupancy.Visit `json:"visit"`
	RemainingDays int              `json:"remaining_days"`
	IsExpired     bool             `json:"is_expired"`
	CheckOutBy    time.Time        `json:"check_out_by"`
}

type CheckOutResult struct {
	Visit *occupancy.Visit `json:"visit"`
}

type Service interface {
	// CheckIn authorizes the visit against the entitlement, opens the
	// occupancy entry, records the attendance day, and consumes one
	// entitlement day. The attendance ledger write completes before the
	// entitlement is mutated.
	CheckIn(ctx context.Context, userID, gymID, entitlementID int, now time.Time) (*CheckInResult, error)
	CheckOut(ctx context.Context, userID, gymID int, now time.Time) (*CheckOutResult, error)
}

type service struct {
	membershipRepo membership.Repository
	attendance     attendance.Service
	occupancy      occupancy.Service
	gymRepo        gym.Repository
	userRepo       user.Repository
	emailService   *email.Service
}

func NewService(
	membershipRepo membership.Repository,
	attendanceService attendance.Service,
	occupancyService occupancy.Service,
	gymRepo gym.Repository,
	userRepo user.Repository,
	emailService *email.Service,
) Service {
	return &service{
		membershipRepo: membershipRepo,
		attendance:     attendanceService,
		occupancy:      occupancyService,
		gymRepo:        gymRepo,
		userRepo:       userRepo,
		emailService:   emailService,
	}
}

func (s *service) CheckIn(ctx context.Context, userID, gymID, entitlementID int, now time.Time) (*CheckInResult, error) {
	e, err := s.membershipRepo.GetActiveForVisit(ctx, entitlementID, userID, now)
	if err != nil {
		return nil, err
	}
	if e.GymID != gymID {
		return nil, ErrWrongGym
	}

	// Open the occupancy entry first: the uniqueness constraint rejects a
	// duplicate check-in before any entitlement day is consumed.
	visit, err := s.occupancy.CheckIn(ctx, gymID, userID, e.ID, e.PerDayCost, e.SessionHours, now)
	if err != nil {
		return nil, err
	}

	if _, err := s.attendance.RecordVisit(ctx, userID, now); err != nil {
		s.compensateOpenVisit(gymID, userID, now)
		return nil, err
	}

	updated, err := s.membershipRepo.ConsumeDay(ctx, e.ID, now)
	if err != nil {
		s.compensateOpenVisit(gymID, userID, now)
		return nil, err
	}

	if u, err := s.userRepo.FindByID(ctx, userID); err == nil {
		if g, gerr := s.gymRepo.GetByID(ctx, gymID); gerr == nil {
			if err := s.emailService.SendCheckInConfirmation(ctx, u.Email, u.Name, g.Name, visit.ComputedCheckOut); err != nil {
				logger.Error("check-in confirmation email failed", "user_id", userID, "error", err)
			}
		}
	}

	logger.Info("user checked in", "user_id", userID, "gym_id", gymID, "entitlement_id", e.ID, "remaining_days", updated.RemainingDays())

	return &CheckInResult{
		Visit:         visit,
		RemainingDays: updated.RemainingDays(),
		IsExpired:     updated.IsExpired,
		CheckOutBy:    visit.ComputedCheckOut,
	}, nil
}

// compensateOpenVisit closes the visit opened earlier in a failed check-in so
// occupancy counters do not drift. Best-effort; failures are logged.
func (s *service) compensateOpenVisit(gymID, userID int, now time.Time) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := s.occupancy.CheckOut(ctx, gymID, userID, now); err != nil {
		logger.Error("failed to close visit after aborted check-in", "user_id", userID, "gym_id", gymID, "error", err)
	}
}

func (s *service) CheckOut(ctx context.Context, userID, gymID int, now time.Time) (*CheckOutResult, error) {
	visit, err := s.occupancy.CheckOut(ctx, gymID, userID, now)
	if err != nil {
		return nil, err
	}

	logger.Info("user checked out", "user_id", userID, "gym_id", gymID)
	return &CheckOutResult{Visit: visit}, nil
}
