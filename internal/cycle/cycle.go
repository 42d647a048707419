// Package cycle computes the rolling budget period. Budgeting runs on a
// 25th-to-24th window rather than the calendar month: the cycle for
// "2024년 3월" spans 2024-02-25 through 2024-03-24.
package cycle

import (
	"math"
	"time"

	"gagyebu/internal/core"
)

// Cycle describes one budget window relative to a reference date.
type Cycle struct {
	Start        time.Time
	End          time.Time
	TotalDays    int
	ElapsedDays  int
	RemainingDays int
	// IdealPercent is the elapsed-time share of the window, the pacing
	// benchmark shown next to actual spend usage.
	IdealPercent int
}

// Compute derives the budget cycle for a monthly partition title. When the
// title carries no year/month (or is empty), the reference date's calendar
// month is used. The elapsed/remaining clamp deliberately treats any window
// as if it were current; a past partition still reports a full bar rather
// than an error.
func Compute(title string, now time.Time) Cycle {
	year, month, ok := core.ParseMonthlyTitle(title)
	if !ok {
		year, month = now.Year(), int(now.Month())
	}

	// time.Date normalizes month 0 to December of the previous year.
	start := time.Date(year, time.Month(month-1), 25, 0, 0, 0, 0, time.UTC)
	end := time.Date(year, time.Month(month), 24, 0, 0, 0, 0, time.UTC)

	totalDays := daysBetween(start, end) + 1

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	elapsed := daysBetween(start, today)
	if elapsed < 0 {
		elapsed = 0
	}
	if elapsed > totalDays {
		elapsed = totalDays
	}

	remaining := totalDays - elapsed + 1
	if remaining < 1 {
		remaining = 1
	}

	ideal := 0
	if totalDays > 0 {
		ideal = int(math.Round(100 * float64(elapsed) / float64(totalDays)))
	}

	return Cycle{
		Start:         start,
		End:           end,
		TotalDays:     totalDays,
		ElapsedDays:   elapsed,
		RemainingDays: remaining,
		IdealPercent:  ideal,
	}
}

func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}
