package attendance

import (
	"time"

	"github.com/lib/pq"
)

// Ledger is the persisted form of a user's attendance ring buffer plus the
// derived streak counters.
type Ledger struct {
	ID             int           `db:"id" json:"id"`
	UserID         int           `db:"user_id" json:"user_id"`
	StartingDate   time.Time     `db:"starting_date" json:"starting_date"`
	DateArray      pq.Int32Array `db:"date_array" json:"date_array"`
	CurrentStreak  int           `db:"current_streak" json:"current_streak"`
	CompletedWeeks int           `db:"completed_weeks" json:"completed_weeks"`
	ThisWeekStreak int           `db:"this_week_streak" json:"this_week_streak"`
	UpdatedAt      time.Time     `db:"updated_at" json:"updated_at"`
}

func (l *Ledger) Buffer() *CircularDayBuffer {
	return FromSlots(l.StartingDate, l.DateArray)
}

type StreakResult struct {
	CurrentStreak  int `json:"current_streak"`
	CompletedWeeks int `json:"completed_weeks"`
	ThisWeekStreak int `json:"this_week_streak"`
}

type Heatmap struct {
	StartingDate time.Time `json:"starting_date"`
	DateArray    []int32   `json:"date_array"`
}
