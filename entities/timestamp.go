package entities

import "time"

// TimestampLayout is RFC 3339 with a fixed nine-digit fraction, so stored
// timestamps sort correctly as text.
const TimestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Timestamp formats t in UTC with TimestampLayout.
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
