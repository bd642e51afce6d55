// Package biztime centralizes time handling. All storage and transport use
// UTC; token expiries cross the wire as epoch milliseconds.
package biztime

import "time"

// NowUTC returns current time in UTC.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// ToUTC converts any time to UTC.
func ToUTC(t time.Time) time.Time {
	return t.UTC()
}

// UnixMilli returns the epoch-millisecond representation used on the wire
// for token expiry timestamps.
func UnixMilli(t time.Time) int64 {
	return t.UnixMilli()
}

// FromUnixMilli parses an epoch-millisecond wire timestamp into UTC time.
func FromUnixMilli(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
