package attendance

import "time"

const (
	// BufferDays is the fixed length of the per-user day ring. Slots older
	// than this are silently overwritten as the buffer wraps.
	BufferDays = 300

	SlotUnrecorded int32 = -1
	SlotAbsent     int32 = 0
	SlotPresent    int32 = 1
)

// CircularDayBuffer is a fixed-size ring of day slots anchored at a starting
// date. Index arithmetic and gap repair live here so call sites never touch
// raw modulo math.
type CircularDayBuffer struct {
	start time.Time
	slots []int32
}

// NewCircularDayBuffer returns an all-unrecorded buffer with day 0 at the
// UTC midnight of start.
func NewCircularDayBuffer(start time.Time) *CircularDayBuffer {
	slots := make([]int32, BufferDays)
	for i := range slots {
		slots[i] = SlotUnrecorded
	}
	return &CircularDayBuffer{start: dayFloor(start), slots: slots}
}

// FromSlots rebuilds a buffer from persisted state. Short or overlong slices
// are normalized to BufferDays, padding with unrecorded.
func FromSlots(start time.Time, slots []int32) *CircularDayBuffer {
	b := NewCircularDayBuffer(start)
	n := len(slots)
	if n > BufferDays {
		n = BufferDays
	}
	copy(b.slots, slots[:n])
	return b
}

func dayFloor(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func (b *CircularDayBuffer) Start() time.Time { return b.start }

func (b *CircularDayBuffer) Slots() []int32 { return b.slots }

// IndexFor maps a timestamp to its ring slot: whole days since the starting
// date, wrapped to the buffer length.
func (b *CircularDayBuffer) IndexFor(t time.Time) int {
	days := int(dayFloor(t).Sub(b.start).Hours() / 24)
	idx := days % BufferDays
	if idx < 0 {
		idx += BufferDays
	}
	return idx
}

// WeekdayAt resolves the calendar weekday of a slot by walking forward from
// the starting date.
func (b *CircularDayBuffer) WeekdayAt(index int) time.Weekday {
	return b.start.AddDate(0, 0, index).Weekday()
}

// MarkPresent records a visit at the timestamp's slot and repairs any
// unrecorded gap behind it. Returns the slot index written.
func (b *CircularDayBuffer) MarkPresent(t time.Time) int {
	idx := b.IndexFor(t)
	b.slots[idx] = SlotPresent
	b.BackfillBefore(idx)
	return idx
}

// BackfillBefore walks backward from index-1 converting unrecorded slots to
// absent, stopping at the first recorded slot. This keeps streak arithmetic
// defined over every day between the earliest and latest recorded slot.
func (b *CircularDayBuffer) BackfillBefore(index int) {
	for i := index - 1; i >= 0; i-- {
		if b.slots[i] != SlotUnrecorded {
			break
		}
		b.slots[i] = SlotAbsent
	}
}

// CountPresent counts present slots in the inclusive range [from, to].
func (b *CircularDayBuffer) CountPresent(from, to int) int {
	if from < 0 {
		from = 0
	}
	if to >= BufferDays {
		to = BufferDays - 1
	}
	count := 0
	for i := from; i <= to; i++ {
		if b.slots[i] == SlotPresent {
			count++
		}
	}
	return count
}
