package domain

import "time"

const dayLayout = "2006-01-02"

// Day is a calendar date in the queue's local time zone, formatted YYYY-MM-DD.
// Ticket numbers restart at 1 for every (service, day) pair.
type Day string

// DayOf returns the calendar day of t in t's own location.
func DayOf(t time.Time) Day {
	return Day(t.Format(dayLayout))
}

// ParseDay validates a YYYY-MM-DD string.
func ParseDay(s string) (Day, error) {
	if _, err := time.Parse(dayLayout, s); err != nil {
		return "", err
	}
	return Day(s), nil
}

func (d Day) String() string { return string(d) }
