// Package timemath holds the stateless interval arithmetic behind slot generation.
// Intervals are half-open: [start, end).
package timemath

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// BufferMinutes is the reset time appended to every interview slot.
const BufferMinutes = 5

// MaxDurationMinutes is the longest interview a slot can hold.
const MaxDurationMinutes = 24 * 60

// MaxWindowDays bounds how many calendar days a single enumeration may walk.
const MaxWindowDays = 366

var (
	ErrInvalidStep      = errors.New("slot duration must be positive")
	ErrInvalidDayWindow = errors.New("day end must be after day start")
	ErrInvalidWindow    = errors.New("window end must not precede window start")
	ErrWindowTooLarge   = errors.New("window spans too many days")
	ErrInvalidTimeOfDay = errors.New("invalid time of day")
	ErrInvalidWeekday   = errors.New("invalid weekday")
)

// Interval is a half-open time range.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether [aStart, aEnd) and [bStart, bEnd) share an instant.
// Touching endpoints do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// SlotDuration is the step between consecutive slots for an interview length.
func SlotDuration(interviewMinutes int) time.Duration {
	return time.Duration(interviewMinutes+BufferMinutes) * time.Minute
}

// TimeOfDay is a wall-clock time without a date.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses "HH:MM" (24h).
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

func (t TimeOfDay) minutes() int {
	return t.Hour*60 + t.Minute
}

// On returns the instant of t on the calendar day of y/m/d in loc.
func (t TimeOfDay) On(y int, m time.Month, d int, loc *time.Location) time.Time {
	return time.Date(y, m, d, t.Hour, t.Minute, 0, 0, loc)
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

// ParseWeekdays maps names like "mon" or "Wednesday" to weekdays, dropping duplicates.
func ParseWeekdays(names []string) ([]time.Weekday, error) {
	seen := make(map[time.Weekday]bool, len(names))
	out := make([]time.Weekday, 0, len(names))
	for _, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			continue
		}
		wd, ok := weekdayNames[key]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrInvalidWeekday, name)
		}
		if seen[wd] {
			continue
		}
		seen[wd] = true
		out = append(out, wd)
	}
	return out, nil
}

// Schedule describes a recruiter's availability to be tiled into slots.
type Schedule struct {
	// From and To are calendar days, both inclusive, interpreted in Location.
	From     time.Time
	To       time.Time
	DayStart TimeOfDay
	DayEnd   TimeOfDay
	Weekdays []time.Weekday
	Step     time.Duration
	Location *time.Location
}

// EnumerateSlots tiles every working day of the schedule back to back with Step.
// A trailing slot that would run past DayEnd is dropped. Output is chronological.
func EnumerateSlots(s Schedule) ([]Interval, error) {
	if s.Step <= 0 {
		return nil, ErrInvalidStep
	}
	if s.DayEnd.minutes() <= s.DayStart.minutes() {
		return nil, ErrInvalidDayWindow
	}
	loc := s.Location
	if loc == nil {
		loc = time.UTC
	}

	fy, fm, fd := s.From.In(loc).Date()
	ty, tm, td := s.To.In(loc).Date()
	first := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	last := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	if last.Before(first) {
		return nil, ErrInvalidWindow
	}
	if days := int(last.Sub(first)/(24*time.Hour)) + 1; days > MaxWindowDays {
		return nil, ErrWindowTooLarge
	}

	working := make(map[time.Weekday]bool, len(s.Weekdays))
	for _, wd := range s.Weekdays {
		working[wd] = true
	}

	var out []Interval
	// Walk dates in UTC so DST transitions in loc cannot skip or repeat a day.
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		if !working[day.Weekday()] {
			continue
		}
		y, m, d := day.Date()
		start := s.DayStart.On(y, m, d, loc)
		end := s.DayEnd.On(y, m, d, loc)
		for t := start; !t.Add(s.Step).After(end); t = t.Add(s.Step) {
			out = append(out, Interval{Start: t, End: t.Add(s.Step)})
		}
	}
	return out, nil
}
