// Package timeutil provides clocks and calendar-date helpers.
// Dates are represented as UTC midnights so that day arithmetic never
// crosses a daylight-saving edge.
package timeutil

import (
	"fmt"
	"sync"
	"time"
)

// Shanghai is the zone in which the collection date is taken.
const Shanghai = "Asia/Shanghai"

const dateLayout = "2006-01-02"

var (
	locOnce sync.Once
	loc     *time.Location
)

// Location returns the collection time zone, falling back to a fixed UTC+8
// zone when the tz database is unavailable.
func Location() *time.Location {
	locOnce.Do(func() {
		l, err := time.LoadLocation(Shanghai)
		if err != nil {
			l = time.FixedZone("CST", 8*60*60)
		}
		loc = l
	})
	return loc
}

// Date returns the calendar date of t as a UTC midnight.
func Date(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Today returns the collection date according to clock.
func Today(clock Clock) time.Time {
	return Date(clock.Now().In(Location()))
}

// ParseDate parses a YYYY-MM-DD date as a UTC midnight.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

// FormatDate formats a date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// DaysBetween returns the number of whole calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(Date(b).Sub(Date(a)).Hours() / 24)
}

// AddDays returns the date n days after t.
func AddDays(t time.Time, n int) time.Time {
	return Date(t).AddDate(0, 0, n)
}
