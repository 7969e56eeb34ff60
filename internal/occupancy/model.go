package occupancy

import "time"

// DayStats is the per-gym daily occupancy counter row. Counters are
// maintained transactionally alongside the visit rows.
type DayStats struct {
	ID          int       `db:"id" json:"id"`
	GymID       int       `db:"gym_id" json:"gym_id"`
	Date        time.Time `db:"date" json:"date"`
	TotalVisits int       `db:"total_visits" json:"total_visits"`
	ActiveCount int       `db:"active_count" json:"active_count"`
}

// Visit is one check-in entry for a user at a gym on a given day. An open
// visit has RealCheckOut null; at most one open visit may exist per
// user/gym/day, enforced by a partial unique index.
type Visit struct {
	ID               int        `db:"id" json:"id"`
	GymID            int        `db:"gym_id" json:"gym_id"`
	UserID           int        `db:"user_id" json:"user_id"`
	EntitlementID    int        `db:"entitlement_id" json:"entitlement_id"`
	PerDayCost       float64    `db:"per_day_cost" json:"per_day_cost"`
	Date             time.Time  `db:"date" json:"date"`
	CheckIn          time.Time  `db:"check_in" json:"check_in"`
	ComputedCheckOut time.Time  `db:"computed_check_out" json:"computed_check_out"`
	RealCheckOut     *time.Time `db:"real_check_out" json:"real_check_out,omitempty"`
}

func (v *Visit) Open() bool { return v.RealCheckOut == nil }

// DayRegister is the owner-facing view of one day at a gym.
type DayRegister struct {
	Stats  *DayStats `json:"stats"`
	Visits []Visit   `json:"visits"`
}

// CapacityReport describes current load against the active shift, if any.
type CapacityReport struct {
	GymID     int    `json:"gym_id"`
	ShiftOpen bool   `json:"shift_open"`
	ShiftDay  string `json:"shift_day,omitempty"`
	Capacity  int    `json:"capacity"`
	Active    int    `json:"active"`
	Available int    `json:"available"`
}

// DayOf truncates a timestamp to its UTC calendar day, the bucket key for
// occupancy rows and revenue records.
func DayOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
