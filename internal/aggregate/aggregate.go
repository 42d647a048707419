// Package aggregate sums ledger rows into the fixed category buckets and
// derives the budget figures shown for a cycle. It is pure over the snapshot
// it is given and recomputed on every call; nothing here is cached.
package aggregate

import (
	"math"
	"strings"

	"gagyebu/internal/classify"
	"gagyebu/internal/core"
	"gagyebu/internal/cycle"
)

// Totals holds the additive sums for one or more partitions.
type Totals struct {
	// Buckets maps each taxonomy bucket to its total. A label matching
	// several rules contributes to each of them.
	Buckets map[classify.Bucket]int64
	// ByLabel is the raw per-label breakdown.
	ByLabel map[string]int64
}

// Summary carries the budget-relative figures for a cycle.
type Summary struct {
	TotalBudget     int64
	LivingExpense   int64
	RemainingBudget int64
	// DailyBudget is what may be spent per remaining cycle day.
	DailyBudget int64
	// UsagePercent is actual spend against budget; compare with the cycle's
	// IdealPercent pacing line.
	UsagePercent int
	// ActualRemaining is income minus all expense buckets and savings.
	ActualRemaining int64
	Cycle           cycle.Cycle
}

// AmountColumn locates the amount column: the first header containing
// "금액"/"amount", else the last non-blank, non-placeholder header.
func AmountColumn(headers []string) int {
	for i, h := range headers {
		l := strings.ToLower(strings.TrimSpace(h))
		if strings.Contains(l, "금액") || strings.Contains(l, "amount") {
			return i
		}
	}
	for i := len(headers) - 1; i >= 0; i-- {
		l := strings.ToLower(strings.TrimSpace(headers[i]))
		if l == "" || isPlaceholder(l) {
			continue
		}
		return i
	}
	return -1
}

// CategoryColumn locates the classification column by its "분류" header.
func CategoryColumn(headers []string) int {
	for i, h := range headers {
		l := strings.ToLower(strings.TrimSpace(h))
		if strings.Contains(l, "분류") || strings.Contains(l, "category") {
			return i
		}
	}
	return -1
}

func isPlaceholder(h string) bool {
	rest, ok := strings.CutPrefix(h, "column")
	if !ok {
		rest, ok = strings.CutPrefix(h, "col")
	}
	if !ok {
		return false
	}
	rest = strings.TrimSpace(rest)
	for _, r := range rest {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Aggregate sums one partition's rows. Rows with a blank label or an
// unparseable amount are skipped; they contribute to nothing.
func Aggregate(p core.Partition, c *classify.Classifier) Totals {
	t := Totals{
		Buckets: make(map[classify.Bucket]int64),
		ByLabel: make(map[string]int64),
	}
	t.add(p, c)
	return t
}

// AggregateAll sums every partition of a cache snapshot.
func AggregateAll(parts []core.Partition, c *classify.Classifier) Totals {
	t := Totals{
		Buckets: make(map[classify.Bucket]int64),
		ByLabel: make(map[string]int64),
	}
	for _, p := range parts {
		t.add(p, c)
	}
	return t
}

func (t Totals) add(p core.Partition, c *classify.Classifier) {
	amtCol := AmountColumn(p.Headers)
	catCol := CategoryColumn(p.Headers)
	if amtCol < 0 {
		return
	}
	for _, row := range p.Rows {
		label := strings.TrimSpace(core.Cell(row, catCol))
		if label == "" {
			continue
		}
		amt, ok := core.ParseAbsAmount(core.Cell(row, amtCol))
		if !ok {
			continue
		}
		t.ByLabel[label] += amt
		for _, b := range c.Buckets(label) {
			t.Buckets[b] += amt
		}
	}
}

// Summarize derives the budget figures from bucket totals. totalBudget is
// the partition's budget cell; zero budgets produce zero percentages rather
// than dividing.
func Summarize(t Totals, totalBudget int64, cyc cycle.Cycle) Summary {
	living := t.Buckets[classify.LivingExpense]
	remaining := totalBudget - living

	var daily int64
	if cyc.RemainingDays > 0 {
		daily = floorDiv(remaining, int64(cyc.RemainingDays))
	}

	usage := 0
	if totalBudget > 0 {
		usage = int(math.Round(100 * float64(living) / float64(totalBudget)))
	}

	spent := living +
		t.Buckets[classify.FixedExpense] +
		t.Buckets[classify.OtherExpense] +
		t.Buckets[classify.TravelExpense]
	actual := t.Buckets[classify.Income] - spent - t.Buckets[classify.Savings]

	return Summary{
		TotalBudget:     totalBudget,
		LivingExpense:   living,
		RemainingBudget: remaining,
		DailyBudget:     daily,
		UsagePercent:    usage,
		ActualRemaining: actual,
		Cycle:           cyc,
	}
}

// floorDiv rounds toward negative infinity, so an overspent budget shows a
// negative daily figure instead of truncating toward zero.
func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
