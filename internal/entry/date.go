package entry

import "time"

// SecondsPerDay is the width of the half-open day interval used for the
// calendar-day lookup.
const SecondsPerDay = 86400

// DayStart normalizes a millisecond timestamp to the start of its UTC
// calendar day, in seconds since epoch. The time-of-day component is
// discarded; this is the canonical storage form of an entry date.
func DayStart(millis int64) int64 {
	t := time.UnixMilli(millis).UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).Unix()
}
