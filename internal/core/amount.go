// Amount parsing and formatting for free-form spreadsheet cells.
//
// Ledger amounts are whole won. Cells come in as "12,000", "₩12,000",
// "12000원", occasionally with a decimal tail from sheet formulas; parsing
// strips everything that is not a digit, decimal point, or sign, drops
// thousands separators, and rounds half-up.
package core

import (
	"strconv"
	"strings"
)

// ParseAmount parses a cell value into a signed whole amount.
// Returns ok=false for blank cells and cells with no usable number.
func ParseAmount(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.':
			b.WriteRune(r)
		case r == '-' || r == '+':
			// Sign is only meaningful before any digit.
			if b.Len() == 0 {
				b.WriteRune(r)
			}
		default:
			// Thousands separators, currency marks, stray text: dropped.
		}
	}
	cleaned := b.String()
	if cleaned == "" || cleaned == "-" || cleaned == "+" {
		return 0, false
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	if f < 0 {
		return int64(f - 0.5), true
	}
	return int64(f + 0.5), true
}

// ParseAbsAmount parses like ParseAmount but returns the absolute value.
// Aggregation treats every ledger amount as a magnitude.
func ParseAbsAmount(s string) (int64, bool) {
	v, ok := ParseAmount(s)
	if !ok {
		return 0, false
	}
	if v < 0 {
		v = -v
	}
	return v, true
}

// FormatAmount renders a whole amount with thousands separators, e.g. 12000
// becomes "12,000". FormatAmount and ParseAbsAmount round-trip.
func FormatAmount(v int64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	s := strconv.FormatInt(v, 10)
	if len(s) > 3 {
		var parts []string
		for len(s) > 3 {
			parts = append([]string{s[len(s)-3:]}, parts...)
			s = s[:len(s)-3]
		}
		s = s + "," + strings.Join(parts, ",")
	}
	if neg {
		return "-" + s
	}
	return s
}
