// Package schedule contains the date calculations used for resolving member availability:
// calendar-day normalization, the interval overlap predicate and the status
// classification of an unavailability window.
package schedule

import (
	"fmt"
	"time"
)

// Status describes where an interval lies relative to a reference time
type Status string

const (
	// StatusActive means the reference time falls inside the interval
	StatusActive = Status("active")
	// StatusPast means the interval has ended before the reference time
	StatusPast = Status("past")
	// StatusUpcoming means the interval starts after the reference time
	StatusUpcoming = Status("upcoming")
)

const dateOnlyFormat = "2006-01-02"

// ParseDate parses a date value from its string representation.
// Date-only strings ("YYYY-MM-DD") are parsed as local calendar dates - midnight in the
// given location - so that a day entered by a user does not shift across timezone
// boundaries. Everything else must be a RFC 3339 timestamp and is parsed as an
// absolute instant.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	if len(value) == len(dateOnlyFormat) {
		t, err := time.ParseInLocation(dateOnlyFormat, value, loc)
		if err != nil {
			return time.Time{}, fmt.Errorf("ParseDate: '%s' is no valid calendar date: %v", value, err)
		}
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("ParseDate: '%s' is no valid timestamp: %v", value, err)
	}
	return t, nil
}

// DayStart normalizes the given time to midnight of its calendar day
func DayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DayEnd normalizes the given time to the last nanosecond of its calendar day
func DayEnd(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}

// Overlaps checks whether the interval [start, end] intersects the probe interval
// [probeStart, probeEnd]. Both intervals are treated with inclusive calendar-day
// semantics: the start bounds are normalized to the beginning of their day and the
// end bounds to the end of theirs, so an interval ending on a day still covers the
// whole of that day.
func Overlaps(start, end, probeStart, probeEnd time.Time) bool {
	return !DayStart(start).After(DayEnd(probeEnd)) && !DayEnd(end).Before(DayStart(probeStart))
}

// Contains checks whether the single probe date falls inside [start, end] with
// inclusive day semantics on both ends
func Contains(start, end, probe time.Time) bool {
	return Overlaps(start, end, probe, probe)
}

// StatusOf classifies the interval [start, end] relative to now. The end bound is
// inclusive up to the end of its calendar day.
func StatusOf(now, start, end time.Time) Status {
	if now.After(DayEnd(end)) {
		return StatusPast
	}
	if now.Before(DayStart(start)) {
		return StatusUpcoming
	}
	return StatusActive
}
