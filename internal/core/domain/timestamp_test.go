//go:build unit

package domain

import (
	"testing"
	"time"
)

// TestFormatTimestamp verifies the canonical timestamp form: UTC with
// space-separated milliseconds.
func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want string
	}{
		{
			"whole second",
			time.Date(2017, 12, 11, 14, 12, 5, 0, time.UTC),
			"2017-12-11 14:12:05 000",
		},
		{
			"milliseconds",
			time.Date(2024, 5, 1, 10, 30, 0, 250_000_000, time.UTC),
			"2024-05-01 10:30:00 250",
		},
		{
			"sub-millisecond precision truncated",
			time.Date(2024, 5, 1, 10, 30, 0, 999_999_999, time.UTC),
			"2024-05-01 10:30:00 999",
		},
		{
			"non-UTC input converted",
			time.Date(2024, 5, 1, 12, 30, 0, 0, time.FixedZone("CEST", 2*3600)),
			"2024-05-01 10:30:00 000",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatTimestamp(tt.in); got != tt.want {
				t.Errorf("FormatTimestamp = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestParseTimestamp_RoundTrip verifies format and parse are inverse.
func TestParseTimestamp_RoundTrip(t *testing.T) {
	want := time.Date(2024, 2, 29, 23, 59, 59, 999_000_000, time.UTC)
	got, err := ParseTimestamp(FormatTimestamp(want))
	if err != nil {
		t.Fatalf("ParseTimestamp: %v", err)
	}
	if !got.Equal(want) {
		t.Errorf("round trip = %v, want %v", got, want)
	}
	if got.Location() != time.UTC {
		t.Errorf("parsed location = %v, want UTC", got.Location())
	}
}

// TestParseTimestamp_Invalid covers malformed timestamp inputs.
func TestParseTimestamp_Invalid(t *testing.T) {
	tests := []string{
		"",
		"2024-05-01 10:30:00",
		"2024-05-01 10:30:00 1000",
		"2024-05-01 10:30:00 -10",
		"2024-05-01 10:30:00 +99",
		"2024-05-01 10:30:00 abc",
		"2024-05-01T10:30:00 000",
		"2024-13-01 10:30:00 000",
	}
	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			_, err := ParseTimestamp(input)
			if err == nil {
				t.Fatalf("ParseTimestamp(%q) accepted invalid input", input)
			}
			if !IsParseError(err) {
				t.Errorf("ParseTimestamp(%q) error = %v, want a parse error", input, err)
			}
		})
	}
}
