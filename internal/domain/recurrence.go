package domain

import (
	"fmt"
	"strings"
	"time"
)

// Interval is the recurrence unit of a care schedule
type Interval string

const (
	IntervalDaily   Interval = "Daily"
	IntervalWeekly  Interval = "Weekly"
	IntervalMonthly Interval = "Monthly"
)

// Monthly is a fixed four-week period, not calendar-month arithmetic.
var intervalDays = map[Interval]int{
	IntervalDaily:   1,
	IntervalWeekly:  7,
	IntervalMonthly: 28,
}

// Intervals lists the accepted interval classes in display order.
func Intervals() []Interval {
	return []Interval{IntervalDaily, IntervalWeekly, IntervalMonthly}
}

// ParseInterval accepts the interval names case-insensitively.
func ParseInterval(s string) (Interval, error) {
	trimmed := strings.TrimSpace(s)
	for _, iv := range Intervals() {
		if strings.EqualFold(trimmed, string(iv)) {
			return iv, nil
		}
	}
	return "", fmt.Errorf("%w: %q (want Daily, Weekly or Monthly)", ErrUnsupportedInterval, s)
}

// Valid reports whether i is one of the closed set of interval classes.
func (i Interval) Valid() bool {
	_, ok := intervalDays[i]
	return ok
}

// DueState is the derived recurrence state of a schedule at a reference instant.
type DueState struct {
	NextDue time.Time
	Due     bool
}

// Recurrence computes due dates. The zero value rejects unknown intervals.
//
// LegacyFallback reproduces the behavior of older deployments where an
// unrecognized interval yields the base date itself, so the task is due as
// soon as it is created.
type Recurrence struct {
	LegacyFallback bool
}

// NextDueDate returns base advanced by one interval period.
func (r Recurrence) NextDueDate(base time.Time, interval Interval) (time.Time, error) {
	days, ok := intervalDays[interval]
	if !ok {
		if r.LegacyFallback {
			return base, nil
		}
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnsupportedInterval, string(interval))
	}
	return base.AddDate(0, 0, days), nil
}

// IsDue reports whether now is at or past the next due date.
func (r Recurrence) IsDue(base time.Time, interval Interval, now time.Time) (bool, error) {
	next, err := r.NextDueDate(base, interval)
	if err != nil {
		return false, err
	}
	return !now.Before(next), nil
}

// ComputeDueState returns both the next due date and the due flag.
func (r Recurrence) ComputeDueState(base time.Time, interval Interval, now time.Time) (DueState, error) {
	next, err := r.NextDueDate(base, interval)
	if err != nil {
		return DueState{}, err
	}
	return DueState{NextDue: next, Due: !now.Before(next)}, nil
}

// NextDueDate uses the strict engine.
func NextDueDate(base time.Time, interval Interval) (time.Time, error) {
	return Recurrence{}.NextDueDate(base, interval)
}

// IsDue uses the strict engine.
func IsDue(base time.Time, interval Interval, now time.Time) (bool, error) {
	return Recurrence{}.IsDue(base, interval, now)
}

// ComputeDueState uses the strict engine.
func ComputeDueState(base time.Time, interval Interval, now time.Time) (DueState, error) {
	return Recurrence{}.ComputeDueState(base, interval, now)
}
