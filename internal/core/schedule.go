package core

import "time"

// NextOccurrence advances a recurrence schedule by one step from the given
// occurrence date.
//
// Daily, weekly and biweekly steps are fixed day increments. Monthly and
// yearly steps use calendar arithmetic with Go's rollover semantics, so
// Jan 31 + 1 month lands on Mar 2/3 rather than being clamped to month end.
func NextOccurrence(freq Frequency, from time.Time) time.Time {
	switch freq {
	case Daily:
		return from.AddDate(0, 0, 1)
	case Weekly:
		return from.AddDate(0, 0, 7)
	case Biweekly:
		return from.AddDate(0, 0, 14)
	case Monthly:
		return from.AddDate(0, 1, 0)
	case Yearly:
		return from.AddDate(1, 0, 0)
	default:
		return from
	}
}

// EndOfDay returns the last instant of the calendar day containing t, in UTC.
// Recurrence sweeps treat "now" as end of the current day so an occurrence
// due today is always picked up regardless of wall-clock time.
func EndOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC)
}

// StartOfDay returns midnight of the calendar day containing t, in UTC.
func StartOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
