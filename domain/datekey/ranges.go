package datekey

import (
	"fmt"
	"strings"
	"time"
)

// Range is a closed window of calendar days together with the instants that
// bound it in the zone it was built for.
type Range struct {
	From  Date
	To    Date
	Start time.Time
	End   time.Time
}

// Contains reports whether d lies within [From, To].
func (r Range) Contains(d Date) bool {
	return !d.Before(r.From) && !d.After(r.To)
}

// Days returns the number of calendar days in the range.
func (r Range) Days() int {
	n := 0
	for d := r.From; !d.After(r.To); d = d.AddDays(1) {
		n++
	}
	return n
}

// DayRange returns the bounds of the local day d in loc. End is the last
// nanosecond before the next local midnight, so days that gain or lose an
// hour to a DST switch are covered exactly.
func DayRange(d Date, loc *time.Location) Range {
	start := d.In(loc)
	end := d.AddDays(1).In(loc).Add(-time.Nanosecond)
	return Range{From: d, To: d, Start: start, End: end}
}

// WeekRange returns the seven-day window that contains d and begins on
// weekStart.
func WeekRange(d Date, weekStart time.Weekday, loc *time.Location) Range {
	offset := (int(d.Weekday()) - int(weekStart) + 7) % 7
	from := d.AddDays(-offset)
	to := from.AddDays(6)
	return Range{
		From:  from,
		To:    to,
		Start: DayRange(from, loc).Start,
		End:   DayRange(to, loc).End,
	}
}

// ParseWeekday accepts "monday" or "sunday" (any case). An empty string
// selects Monday.
func ParseWeekday(s string) (time.Weekday, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "monday", "mon":
		return time.Monday, nil
	case "sunday", "sun":
		return time.Sunday, nil
	default:
		return 0, fmt.Errorf("unsupported week start %q: want monday or sunday", s)
	}
}
