// Package classify buckets free-text ledger labels into the fixed spending
// taxonomy. Matching is substring-based over the normalized label and the
// rules are independent predicates: a single label may land in more than one
// bucket, and aggregation sums it into each. Do not collapse this into an
// exclusive switch.
package classify

import "strings"

// Bucket is one of the fixed high-level spending/income classes.
type Bucket int

const (
	Uncategorized Bucket = iota
	LivingExpense
	FixedExpense
	OtherExpense
	TravelExpense
	Savings
	Payment
	Income
)

var bucketNames = map[Bucket]string{
	Uncategorized: "uncategorized",
	LivingExpense: "living_expense",
	FixedExpense:  "fixed_expense",
	OtherExpense:  "other_expense",
	TravelExpense: "travel_expense",
	Savings:       "savings",
	Payment:       "payment",
	Income:        "income",
}

func (b Bucket) String() string {
	if s, ok := bucketNames[b]; ok {
		return s
	}
	return "uncategorized"
}

// AllBuckets lists every bucket except Uncategorized, in rule order.
func AllBuckets() []Bucket {
	return []Bucket{LivingExpense, FixedExpense, OtherExpense, TravelExpense, Savings, Payment, Income}
}

// rule matches when every keyword group is satisfied; a group is satisfied
// when any of its alternatives appears in the label.
type rule struct {
	bucket Bucket
	groups [][]string
}

// defaultRules reproduces the household ledger's label conventions, e.g.
// "생활비 지출" (living expense), "고정 지출" (fixed expense).
var defaultRules = []rule{
	{LivingExpense, [][]string{{"생활비"}, {"지출"}}},
	{FixedExpense, [][]string{{"고정"}, {"지출"}}},
	{OtherExpense, [][]string{{"기타"}, {"지출"}}},
	{TravelExpense, [][]string{{"여행"}}},
	{Savings, [][]string{{"저금", "저축"}}},
	{Payment, [][]string{{"대금"}}},
	{Income, [][]string{{"수입"}}},
}

// Classifier evaluates labels against an ordered rule set.
type Classifier struct {
	rules []rule
}

// New returns a classifier with the built-in rules.
func New() *Classifier {
	return &Classifier{rules: defaultRules}
}

func (r rule) matches(label string) bool {
	for _, group := range r.groups {
		ok := false
		for _, kw := range group {
			if strings.Contains(label, strings.ToLower(kw)) {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

func normalize(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}

// Buckets returns every bucket the label satisfies, in rule order.
// Blank labels match nothing. This is the additive form the aggregation
// engine consumes.
func (c *Classifier) Buckets(label string) []Bucket {
	l := normalize(label)
	if l == "" {
		return nil
	}
	var out []Bucket
	for _, r := range c.rules {
		if r.matches(l) {
			out = append(out, r.bucket)
		}
	}
	return out
}

// Classify returns the first matching bucket, or Uncategorized. It is total:
// every label, including blank ones, gets a bucket.
func (c *Classifier) Classify(label string) Bucket {
	if bs := c.Buckets(label); len(bs) > 0 {
		return bs[0]
	}
	return Uncategorized
}
