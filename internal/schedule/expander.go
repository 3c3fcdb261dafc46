// Package schedule turns a group's weekly recurrence rule into concrete
// session occurrences.
package schedule

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // schedules carry IANA zone names

	"yogastudio/internal/models"
)

// ErrInvalidSchedule is returned for schedules that cannot be expanded
var ErrInvalidSchedule = errors.New("invalid schedule")

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
	"sun":       time.Sunday,
	"mon":       time.Monday,
	"tue":       time.Tuesday,
	"wed":       time.Wednesday,
	"thu":       time.Thursday,
	"fri":       time.Friday,
	"sat":       time.Saturday,
}

// Clock is a wall-clock time of day
type Clock struct {
	Hour   int
	Minute int
}

// Duration returns the offset of the clock from midnight
func (c Clock) Duration() time.Duration {
	return time.Duration(c.Hour)*time.Hour + time.Duration(c.Minute)*time.Minute
}

// ParseWeekday accepts full or three-letter English weekday names in any case
func ParseWeekday(name string) (time.Weekday, error) {
	wd, ok := weekdays[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("%w: unknown weekday %q", ErrInvalidSchedule, name)
	}
	return wd, nil
}

// ParseClock parses "HH:MM" (24h)
func ParseClock(s string) (Clock, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return Clock{}, fmt.Errorf("%w: bad time %q", ErrInvalidSchedule, s)
	}
	return Clock{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// rule is a validated schedule ready for expansion
type rule struct {
	days  map[time.Weekday]bool
	start Clock
	from  time.Time // midnight of the first day, in loc
	until time.Time // midnight of the last day, zero when open ended
	loc   *time.Location
}

func compile(s models.Schedule) (*rule, error) {
	if len(s.Days) == 0 {
		return nil, fmt.Errorf("%w: no days", ErrInvalidSchedule)
	}

	loc := time.UTC
	if s.Timezone != "" {
		l, err := time.LoadLocation(s.Timezone)
		if err != nil {
			return nil, fmt.Errorf("%w: unknown timezone %q", ErrInvalidSchedule, s.Timezone)
		}
		loc = l
	}

	days := make(map[time.Weekday]bool, len(s.Days))
	for _, d := range s.Days {
		wd, err := ParseWeekday(d)
		if err != nil {
			return nil, err
		}
		days[wd] = true
	}

	start, err := ParseClock(s.StartTime)
	if err != nil {
		return nil, err
	}
	if s.EndTime != "" {
		end, err := ParseClock(s.EndTime)
		if err != nil {
			return nil, err
		}
		if end.Duration() <= start.Duration() {
			return nil, fmt.Errorf("%w: end time %s not after start time %s", ErrInvalidSchedule, s.EndTime, s.StartTime)
		}
	}

	if s.StartDate == "" {
		return nil, fmt.Errorf("%w: missing start date", ErrInvalidSchedule)
	}
	from, err := time.ParseInLocation(models.DateLayout, s.StartDate, loc)
	if err != nil {
		return nil, fmt.Errorf("%w: bad start date %q", ErrInvalidSchedule, s.StartDate)
	}

	var until time.Time
	if s.EndDate != "" {
		until, err = time.ParseInLocation(models.DateLayout, s.EndDate, loc)
		if err != nil {
			return nil, fmt.Errorf("%w: bad end date %q", ErrInvalidSchedule, s.EndDate)
		}
		if until.Before(from) {
			return nil, fmt.Errorf("%w: start date %s after end date %s", ErrInvalidSchedule, s.StartDate, s.EndDate)
		}
	}

	return &rule{days: days, start: start, from: from, until: until, loc: loc}, nil
}

// Validate checks a schedule without expanding it
func Validate(s models.Schedule) error {
	_, err := compile(s)
	return err
}

// Duration returns the session length, zero when no end time is set
func Duration(s models.Schedule) time.Duration {
	start, err := ParseClock(s.StartTime)
	if err != nil || s.EndTime == "" {
		return 0
	}
	end, err := ParseClock(s.EndTime)
	if err != nil || end.Duration() <= start.Duration() {
		return 0
	}
	return end.Duration() - start.Duration()
}

// Ended reports whether the schedule's last day is before now's calendar day
// in the schedule's zone. Malformed schedules count as ended.
func Ended(s models.Schedule, now time.Time) bool {
	r, err := compile(s)
	if err != nil {
		return true
	}
	if r.until.IsZero() {
		return false
	}
	return r.until.Before(midnight(now.In(r.loc)))
}

// Expand returns every occurrence of s inside [windowStart, windowEnd), in UTC
// and ascending order
func Expand(s models.Schedule, windowStart, windowEnd time.Time) ([]time.Time, error) {
	r, err := compile(s)
	if err != nil {
		return nil, err
	}
	if !windowStart.Before(windowEnd) {
		return nil, nil
	}

	// Clip the active date range to the window, widened by a day on each side
	// so zone offsets never drop a boundary occurrence.
	first := midnight(windowStart.In(r.loc)).AddDate(0, 0, -1)
	if first.Before(r.from) {
		first = r.from
	}
	last := midnight(windowEnd.In(r.loc)).AddDate(0, 0, 1)
	if !r.until.IsZero() && r.until.Before(last) {
		last = r.until
	}

	var out []time.Time
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		if !r.days[day.Weekday()] {
			continue
		}
		occ := time.Date(day.Year(), day.Month(), day.Day(), r.start.Hour, r.start.Minute, 0, 0, r.loc)
		if occ.Before(windowStart) || !occ.Before(windowEnd) {
			continue
		}
		out = append(out, occ.UTC())
	}

	return out, nil
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
