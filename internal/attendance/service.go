package attendance

import (
	"context"
	"errors"
	"time"
)

var ErrNoHistory = errors.New("no gym history found to calculate streak")

// weeklyVisitTarget is the minimum number of present days that sustains a
// streak through a week boundary.
const weeklyVisitTarget = 4

type Service interface {
	// RecordVisit marks the user present for the visit day, creating the
	// ledger on first ever visit, and persists the repaired buffer. The
	// ledger write completes before any entitlement mutation by the caller.
	RecordVisit(ctx context.Context, userID int, visitAt time.Time) (*Ledger, error)
	// ComputeStreak refreshes the streak counters as of the given date.
	// Safe to call without a new visit; gap repair is idempotent.
	ComputeStreak(ctx context.Context, userID int, asOf time.Time) (*StreakResult, error)
	GetHeatmap(ctx context.Context, userID int) (*Heatmap, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) RecordVisit(ctx context.Context, userID int, visitAt time.Time) (*Ledger, error) {
	ledger, err := s.repo.GetByUser(ctx, userID)
	if errors.Is(err, ErrNoLedger) {
		ledger, err = s.repo.Create(ctx, userID, visitAt)
	}
	if err != nil {
		return nil, err
	}

	buf := ledger.Buffer()
	buf.MarkPresent(visitAt)
	ledger.DateArray = buf.Slots()

	if err := s.repo.Save(ctx, ledger); err != nil {
		return nil, err
	}

	return ledger, nil
}

func (s *service) ComputeStreak(ctx context.Context, userID int, asOf time.Time) (*StreakResult, error) {
	ledger, err := s.repo.GetByUser(ctx, userID)
	if errors.Is(err, ErrNoLedger) {
		return nil, ErrNoHistory
	}
	if err != nil {
		return nil, err
	}

	buf := ledger.Buffer()
	lastIndex := buf.IndexFor(asOf)
	buf.BackfillBefore(lastIndex)

	applyStreakRules(ledger, buf, lastIndex)

	ledger.DateArray = buf.Slots()
	if err := s.repo.Save(ctx, ledger); err != nil {
		return nil, err
	}

	return &StreakResult{
		CurrentStreak:  ledger.CurrentStreak,
		CompletedWeeks: ledger.CompletedWeeks,
		ThisWeekStreak: ledger.ThisWeekStreak,
	}, nil
}

// applyStreakRules implements the weekly streak policy: four visits sustain
// the week, and weeks close (or break) only on Sunday.
func applyStreakRules(ledger *Ledger, buf *CircularDayBuffer, lastIndex int) {
	dayOfWeek := int(buf.WeekdayAt(lastIndex)) // 0 = Sunday

	daysIntoWeek := (dayOfWeek + 6) % 7
	weekStart := lastIndex - daysIntoWeek
	if weekStart < 0 {
		weekStart = 0
	}

	thisWeek := buf.CountPresent(weekStart, lastIndex)

	if thisWeek >= weeklyVisitTarget {
		if dayOfWeek == 0 {
			ledger.CompletedWeeks++
			ledger.ThisWeekStreak = 0
		} else {
			ledger.ThisWeekStreak = thisWeek
		}
	} else {
		if dayOfWeek == 0 {
			ledger.CompletedWeeks = 0
			ledger.ThisWeekStreak = 0
		} else {
			ledger.ThisWeekStreak = thisWeek
		}
	}

	ledger.CurrentStreak = ledger.CompletedWeeks*7 + ledger.ThisWeekStreak
}

func (s *service) GetHeatmap(ctx context.Context, userID int) (*Heatmap, error) {
	ledger, err := s.repo.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &Heatmap{
		StartingDate: ledger.StartingDate,
		DateArray:    ledger.DateArray,
	}, nil
}
