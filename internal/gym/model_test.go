package gym

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Mon 2025-06-02 is a Monday in UTC.
func monday(hour, minute int) time.Time {
	return time.Date(2025, 6, 2, hour, minute, 0, 0, time.UTC)
}

func TestActiveShift_WithinWindow(t *testing.T) {
	shifts := []Shift{
		{Name: "morning", Day: "monday", StartTime: "06:00", EndTime: "11:00", Capacity: 30},
		{Name: "evening", Day: "monday", StartTime: "17:00", EndTime: "22:00", Capacity: 40},
	}

	s := ActiveShift(shifts, monday(18, 30))
	require.NotNil(t, s)
	assert.Equal(t, "evening", s.Name)

	s = ActiveShift(shifts, monday(7, 0))
	require.NotNil(t, s)
	assert.Equal(t, "morning", s.Name)
}

func TestActiveShift_Closed(t *testing.T) {
	shifts := []Shift{
		{Name: "morning", Day: "monday", StartTime: "06:00", EndTime: "11:00", Capacity: 30},
	}

	assert.Nil(t, ActiveShift(shifts, monday(12, 0)))
	// Boundary: end is exclusive.
	assert.Nil(t, ActiveShift(shifts, monday(11, 0)))
	// Wrong day entirely.
	tuesday := monday(7, 0).AddDate(0, 0, 1)
	assert.Nil(t, ActiveShift(shifts, tuesday))
}

func TestActiveShift_OvernightWrap(t *testing.T) {
	shifts := []Shift{
		{Name: "night", Day: "monday", StartTime: "22:00", EndTime: "02:00", Capacity: 15},
	}

	// Late Monday evening: inside.
	s := ActiveShift(shifts, monday(23, 30))
	require.NotNil(t, s)
	assert.Equal(t, "night", s.Name)

	// Monday 01:00 also matches the monday shift's wrapped tail.
	s = ActiveShift(shifts, monday(1, 0))
	require.NotNil(t, s)

	// Mid-day Monday: outside.
	assert.Nil(t, ActiveShift(shifts, monday(12, 0)))
}

func TestActiveShift_BadTimeFormatSkipped(t *testing.T) {
	shifts := []Shift{
		{Name: "broken", Day: "monday", StartTime: "6am", EndTime: "11:00"},
		{Name: "ok", Day: "monday", StartTime: "06:00", EndTime: "11:00"},
	}

	s := ActiveShift(shifts, monday(7, 0))
	require.NotNil(t, s)
	assert.Equal(t, "ok", s.Name)
}
