package core

import (
	"strings"
	"time"
)

// dateLayouts are the literal formats the spreadsheet uses for full dates.
// "2006. 1. 2" is the sheet's own display format; the rest are common
// hand-typed variants.
var dateLayouts = []string{
	"2006. 1. 2",
	"2006. 1. 2.",
	"2006-1-2",
	"2006/1/2",
	"2006.1.2",
}

// shortLayouts carry no year; the partition's year fills it in.
var shortLayouts = []string{
	"1/2",
	"1-2",
	"1. 2",
}

// ParseLooseDate parses a free-form date cell. Month/day-only values
// ("3/1", "3-1") are resolved against defaultYear. Returns ok=false when
// nothing parses; callers sort or filter such rows out rather than erroring.
func ParseLooseDate(s string, defaultYear int) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	for _, layout := range shortLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(defaultYear, t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}
