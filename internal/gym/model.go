package gym

import (
	"strconv"
	"strings"
	"time"
)

type Gym struct {
	ID         int       `db:"id" json:"id"`
	OwnerID    int       `db:"owner_id" json:"owner_id"`
	Name       string    `db:"name" json:"name"`
	Slogan     string    `db:"slogan" json:"slogan,omitempty"`
	Address    string    `db:"address" json:"address"`
	Latitude   float64   `db:"latitude" json:"latitude"`
	Longitude  float64   `db:"longitude" json:"longitude"`
	Capacity   int       `db:"capacity" json:"capacity"`
	OpenTime   string    `db:"open_time" json:"open_time"`
	CloseTime  string    `db:"close_time" json:"close_time"`
	Status     string    `db:"status" json:"status"` // open, closed, maintenance
	AvgRating  float64   `db:"avg_rating" json:"avg_rating"`
	IsVerified bool      `db:"is_verified" json:"is_verified"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Shift is a recurring weekly opening window with its own capacity.
type Shift struct {
	ID        int    `db:"id" json:"id"`
	GymID     int    `db:"gym_id" json:"gym_id"`
	Name      string `db:"name" json:"name"`
	Day       string `db:"day" json:"day"` // lowercase weekday, e.g. "monday"
	StartTime string `db:"start_time" json:"start_time"` // "HH:MM"
	EndTime   string `db:"end_time" json:"end_time"`
	Capacity  int    `db:"capacity" json:"capacity"`
	Gender    string `db:"gender" json:"gender"` // all, male, female
}

type GymWithDistance struct {
	Gym
	DistanceKm float64 `db:"distance_km" json:"distance_km"`
}

type CreateGymRequest struct {
	Name      string  `json:"name" binding:"required,max=100"`
	Slogan    string  `json:"slogan" binding:"max=500"`
	Address   string  `json:"address" binding:"required"`
	Latitude  float64 `json:"latitude" binding:"required,gte=-90,lte=90"`
	Longitude float64 `json:"longitude" binding:"required,gte=-180,lte=180"`
	Capacity  int     `json:"capacity" binding:"required,min=1"`
	OpenTime  string  `json:"open_time" binding:"required"`
	CloseTime string  `json:"close_time" binding:"required"`
}

type CreateShiftRequest struct {
	Name      string `json:"name" binding:"required"`
	Day       string `json:"day" binding:"required,oneof=monday tuesday wednesday thursday friday saturday sunday"`
	StartTime string `json:"start_time" binding:"required"`
	EndTime   string `json:"end_time" binding:"required"`
	Capacity  int    `json:"capacity" binding:"required,min=1"`
	Gender    string `json:"gender" binding:"omitempty,oneof=all male female"`
}

// minuteOfDay parses "HH:MM" into minutes since midnight. Bad input yields -1.
func minuteOfDay(hhmm string) int {
	parts := strings.SplitN(hhmm, ":", 2)
	if len(parts) != 2 {
		return -1
	}
	h, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		return -1
	}
	return h*60 + m
}

// ActiveShift returns the shift covering now, or nil when the gym is closed.
// A shift whose end is not after its start wraps past midnight.
func ActiveShift(shifts []Shift, now time.Time) *Shift {
	day := strings.ToLower(now.Weekday().String())
	minute := now.Hour()*60 + now.Minute()

	for i := range shifts {
		s := &shifts[i]
		if !strings.EqualFold(s.Day, day) {
			continue
		}
		start := minuteOfDay(s.StartTime)
		end := minuteOfDay(s.EndTime)
		if start < 0 || end < 0 {
			continue
		}
		if end > start {
			if minute >= start && minute < end {
				return s
			}
		} else {
			if minute >= start || minute < end {
				return s
			}
		}
	}
	return nil
}
