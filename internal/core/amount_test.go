package core

import "testing"

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"12,000", 12000, true},
		{"12000", 12000, true},
		{"₩12,000", 12000, true},
		{"12,000원", 12000, true},
		{"1,234,567", 1234567, true},
		{"-3,500", -3500, true},
		{"+500", 500, true},
		{"1234.6", 1235, true}, // half-up
		{"0", 0, true},
		{"", 0, false},
		{"   ", 0, false},
		{"원", 0, false},
		{"-", 0, false},
		{"N/A", 0, false},
	}
	for _, tc := range cases {
		got, ok := ParseAmount(tc.in)
		if ok != tc.ok || got != tc.out {
			t.Fatalf("%q: expected (%d,%v), got (%d,%v)", tc.in, tc.out, tc.ok, got, ok)
		}
	}
}

func TestParseAbsAmount(t *testing.T) {
	got, ok := ParseAbsAmount("-12,000")
	if !ok || got != 12000 {
		t.Fatalf("expected 12000, got %d (ok=%v)", got, ok)
	}
}

func TestFormatAmount(t *testing.T) {
	cases := []struct {
		in  int64
		out string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{12000, "12,000"},
		{1234567, "1,234,567"},
		{-12000, "-12,000"},
	}
	for _, tc := range cases {
		if got := FormatAmount(tc.in); got != tc.out {
			t.Fatalf("%d: expected %q, got %q", tc.in, tc.out, got)
		}
	}
}

// Formatting then re-parsing yields the original absolute value.
func TestAmountRoundTrip(t *testing.T) {
	for _, v := range []int64{0, 1, 999, 1000, 55500, 1234567, 300000} {
		got, ok := ParseAbsAmount(FormatAmount(v))
		if !ok || got != v {
			t.Fatalf("round trip %d: got %d (ok=%v)", v, got, ok)
		}
	}
}
