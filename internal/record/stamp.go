package record

import (
	"fmt"
	"strings"
	"time"
)

// wholeSecondLayout is the RFC 3339 prefix up to and including seconds.
const wholeSecondLayout = "2006-01-02T15:04:05"

// maxFractionDigits is the finest precision time.Time can hold.
const maxFractionDigits = 9

// Stamp is a parsed record timestamp.
//
// It keeps the instant, the offset it was written in, and how many
// fractional-second digits the source used, so that it can be rendered back
// at the same precision.
type Stamp struct {
	t      time.Time
	digits int
}

// ParseStamp parses an RFC 3339 timestamp with optional fractional seconds.
//
// Fractions longer than nine digits are truncated to nanoseconds; the digit
// count is capped accordingly.
func ParseStamp(s string) (Stamp, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return Stamp{}, fmt.Errorf("parse stamp %q: %w", s, err)
	}
	return Stamp{t: t, digits: fractionDigits(s)}, nil
}

// MustParseStamp is like ParseStamp but panics on error.
// Intended for constants in tests.
func MustParseStamp(s string) Stamp {
	st, err := ParseStamp(s)
	if err != nil {
		panic(err)
	}
	return st
}

// Time returns the instant.
func (s Stamp) Time() time.Time {
	return s.t
}

// Digits returns the number of fractional-second digits as written.
func (s Stamp) Digits() int {
	return s.digits
}

// After reports whether s is strictly later than u.
func (s Stamp) After(u Stamp) bool {
	return s.t.After(u.t)
}

// RelabelUTC keeps the wall-clock digits and replaces the zone with UTC.
//
// The offset is discarded, not applied: "10:00:00.5+02:00" becomes
// "10:00:00.5Z". Sources that already write UTC are unaffected.
func (s Stamp) RelabelUTC() Stamp {
	t := s.t
	return Stamp{
		t: time.Date(t.Year(), t.Month(), t.Day(),
			t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC),
		digits: s.digits,
	}
}

// String renders the stamp as RFC 3339 with exactly Digits() fractional
// digits and the zone suffix, using "Z" for UTC.
func (s Stamp) String() string {
	var b strings.Builder
	b.WriteString(s.t.Format(wholeSecondLayout))
	if s.digits > 0 {
		frac := fmt.Sprintf("%09d", s.t.Nanosecond())
		b.WriteByte('.')
		b.WriteString(frac[:s.digits])
	}
	b.WriteString(s.t.Format("Z07:00"))
	return b.String()
}

// fractionDigits counts the digits after the seconds field.
func fractionDigits(s string) int {
	i := len(wholeSecondLayout)
	if len(s) <= i || (s[i] != '.' && s[i] != ',') {
		return 0
	}
	n := 0
	for _, c := range s[i+1:] {
		if c < '0' || c > '9' {
			break
		}
		n++
	}
	if n > maxFractionDigits {
		n = maxFractionDigits
	}
	return n
}
