package scheduler

import (
	"fmt"
	"strings"
	"time"
)

var weekdays = map[string]time.Weekday{
	"sun": time.Sunday,
	"mon": time.Monday,
	"tue": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday,
	"fri": time.Friday,
	"sat": time.Saturday,
}

// ParseWeekday parses a weekday name, full ("monday") or short ("mon")
func ParseWeekday(s string) (time.Weekday, error) {
	key := strings.ToLower(s)
	if len(key) > 3 {
		key = key[:3]
	}
	day, ok := weekdays[key]
	if !ok {
		return 0, fmt.Errorf("invalid weekday %q (use mon, tue, wed, thu, fri, sat, sun)", s)
	}
	return day, nil
}

// NextWeekday returns the next occurrence of weekday at hour:minute,
// strictly after now.
func NextWeekday(now time.Time, day time.Weekday, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	daysAhead := (int(day) - int(now.Weekday()) + 7) % 7
	next = next.AddDate(0, 0, daysAhead)
	if !next.After(now) {
		next = next.AddDate(0, 0, 7)
	}
	return next
}
