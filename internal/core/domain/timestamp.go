package domain

import (
	"fmt"
	"time"
)

// Light tokens carry timestamps as "YYYY-MM-DD HH:MM:SS mmm" in UTC with
// millisecond precision. Both ends of the federation hop must agree on this
// representation byte for byte because it is part of the digested data.
const timestampSecondsLayout = "2006-01-02 15:04:05"

// FormatTimestamp renders t in the federation timestamp format,
// truncated to milliseconds in UTC.
func FormatTimestamp(t time.Time) string {
	t = t.UTC()
	millis := t.Nanosecond() / int(time.Millisecond)
	return fmt.Sprintf("%s %03d", t.Format(timestampSecondsLayout), millis)
}

// ParseTimestamp parses a federation timestamp.
func ParseTimestamp(value string) (time.Time, error) {
	if len(value) != len(timestampSecondsLayout)+4 || value[len(timestampSecondsLayout)] != ' ' {
		return time.Time{}, ParseError("invalid timestamp %q", value)
	}
	seconds, err := time.ParseInLocation(timestampSecondsLayout, value[:len(timestampSecondsLayout)], time.UTC)
	if err != nil {
		return time.Time{}, ParseError("invalid timestamp %q", value)
	}
	// strconv.Atoi tolerates a sign prefix; the wire format allows
	// digits only.
	millis := 0
	for _, c := range []byte(value[len(timestampSecondsLayout)+1:]) {
		if c < '0' || c > '9' {
			return time.Time{}, ParseError("invalid timestamp %q", value)
		}
		millis = millis*10 + int(c-'0')
	}
	return seconds.Add(time.Duration(millis) * time.Millisecond), nil
}
