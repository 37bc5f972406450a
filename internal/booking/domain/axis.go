package domain

import "time"

// StartOfDayUTC returns midnight UTC of the day containing t. This is the
// origin of the minute axis for a search anchored at t.
func StartOfDayUTC(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// MinuteOf converts an instant to absolute minutes from base, truncating
// sub-minute precision.
func MinuteOf(base, t time.Time) int {
	return int(t.UTC().Sub(base) / time.Minute)
}

// MinuteRange converts a [start, end) pair of instants to an axis interval.
func MinuteRange(base, start, end time.Time) Interval {
	return Interval{Start: MinuteOf(base, start), End: MinuteOf(base, end)}
}

// TimeAt converts an absolute minute offset back to a UTC instant.
func TimeAt(base time.Time, minute int) time.Time {
	return base.Add(time.Duration(minute) * time.Minute)
}
