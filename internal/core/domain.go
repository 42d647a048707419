package core

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

type (
	// Partition holds one month's worth of ledger rows as fetched from the
	// remote spreadsheet. Rows are positional against Headers; rows may be
	// ragged, use Cell for access.
	Partition struct {
		Title   string
		Headers []string
		Rows    [][]string
		// Budget is the month's total living budget, read from a dedicated
		// cell of the sheet. Zero when the cell is absent or unparseable.
		Budget int64
		// Details holds the fixed-expense detail block of the sheet, if any.
		Details [][]string
	}

	// PartitionInfo identifies a monthly sheet within the spreadsheet.
	PartitionInfo struct {
		Title   string
		SheetID int64
		Year    int
		Month   int
	}

	// ColumnRole is the semantic role of a column, inferred from its header.
	ColumnRole int
)

const (
	RoleNone ColumnRole = iota
	RoleDate
	RoleElement
	RoleCategory
	RoleSummary
	RoleAmount
	RoleMemo
)

var (
	ErrNoPartition = errors.New("partition not found")
)

// monthlyTitle matches sheet titles like "2024년 3월".
var monthlyTitle = regexp.MustCompile(`(\d{4})년\s*(\d{1,2})월`)

// ParseMonthlyTitle extracts year and month from a monthly sheet title.
// Returns ok=false when the title does not follow the naming pattern.
func ParseMonthlyTitle(title string) (year, month int, ok bool) {
	m := monthlyTitle.FindStringSubmatch(title)
	if m == nil {
		return 0, 0, false
	}
	year, _ = strconv.Atoi(m[1])
	month, _ = strconv.Atoi(m[2])
	if month < 1 || month > 12 {
		return 0, 0, false
	}
	return year, month, true
}

// roleKeywords is evaluated in order; the first rule whose keyword appears
// in the normalized header wins.
var roleKeywords = []struct {
	role     ColumnRole
	keywords []string
}{
	{RoleDate, []string{"날짜", "일자", "date"}},
	{RoleElement, []string{"내역", "항목", "element", "item"}},
	{RoleCategory, []string{"분류", "category"}},
	{RoleSummary, []string{"정산", "결산", "summary"}},
	{RoleAmount, []string{"금액", "amount"}},
	{RoleMemo, []string{"메모", "비고", "memo"}},
}

// DetectRole infers the semantic role of a column from its header text.
func DetectRole(header string) ColumnRole {
	h := strings.ToLower(strings.TrimSpace(header))
	if h == "" {
		return RoleNone
	}
	for _, r := range roleKeywords {
		for _, kw := range r.keywords {
			if strings.Contains(h, kw) {
				return r.role
			}
		}
	}
	return RoleNone
}

// ColumnIndex returns the index of the first header matching the given role,
// or -1 when no column has it.
func ColumnIndex(headers []string, role ColumnRole) int {
	for i, h := range headers {
		if DetectRole(h) == role {
			return i
		}
	}
	return -1
}

// Cell reads a cell from a possibly ragged row; out-of-range indexes
// yield the empty string.
func Cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// Clone returns a deep copy of the partition. The synchronizer hands
// snapshots to the engines; cloning keeps cache contents immutable even if
// a consumer misbehaves.
func (p Partition) Clone() Partition {
	cp := p
	cp.Headers = append([]string(nil), p.Headers...)
	cp.Rows = make([][]string, len(p.Rows))
	for i, r := range p.Rows {
		cp.Rows[i] = append([]string(nil), r...)
	}
	cp.Details = make([][]string, len(p.Details))
	for i, r := range p.Details {
		cp.Details[i] = append([]string(nil), r...)
	}
	return cp
}
